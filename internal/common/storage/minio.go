package storage

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// MinIOConfig holds the archive bucket endpoint. An empty endpoint disables it.
type MinIOConfig struct {
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"accessKey"`
	SecretKey string `yaml:"secretKey"`
	Region    string `yaml:"region"`
	UseSSL    bool   `yaml:"useSSL"`
}

func (c MinIOConfig) validate() error {
	var errs []error
	if c.Endpoint == "" {
		errs = append(errs, errors.New("minio endpoint is required"))
	}
	if c.AccessKey == "" {
		errs = append(errs, errors.New("minio accessKey is required"))
	}
	if c.SecretKey == "" {
		errs = append(errs, errors.New("minio secretKey is required"))
	}
	return errors.Join(errs...)
}

// MinIOStorage reads archives through the S3 API.
type MinIOStorage struct {
	client *minio.Client
}

func NewMinIOStorage(cfg MinIOConfig) (*MinIOStorage, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client failed: %w", err)
	}
	return &MinIOStorage{client: client}, nil
}

func (s *MinIOStorage) GetObject(ctx context.Context, bucket, objectKey string) (io.ReadCloser, error) {
	obj, err := s.client.GetObject(ctx, bucket, objectKey, minio.GetObjectOptions{})
	if err != nil {
		return nil, translate(err, "get", bucket, objectKey)
	}
	// GetObject is lazy; stat forces the request so a missing key fails here.
	if _, err := obj.Stat(); err != nil {
		_ = obj.Close()
		return nil, translate(err, "get", bucket, objectKey)
	}
	return obj, nil
}

func (s *MinIOStorage) StatObject(ctx context.Context, bucket, objectKey string) (ObjectStat, error) {
	info, err := s.client.StatObject(ctx, bucket, objectKey, minio.StatObjectOptions{})
	if err != nil {
		return ObjectStat{}, translate(err, "stat", bucket, objectKey)
	}
	return ObjectStat{
		SizeBytes:    info.Size,
		ETag:         info.ETag,
		LastModified: info.LastModified,
	}, nil
}

func translate(err error, op, bucket, objectKey string) error {
	switch minio.ToErrorResponse(err).Code {
	case "NoSuchKey", "NoSuchBucket":
		return fmt.Errorf("minio %s %s/%s: %w", op, bucket, objectKey, ErrObjectNotFound)
	}
	return fmt.Errorf("minio %s %s/%s failed: %w", op, bucket, objectKey, err)
}
