package storage

import (
	"context"
	"errors"
	"io"
	"time"
)

// ErrObjectNotFound reports a missing bucket or key, e.g. an archive that
// has not been published yet.
var ErrObjectNotFound = errors.New("object not found")

// ObjectStorage is the read side of the archive bucket.
type ObjectStorage interface {
	// GetObject streams an object. The caller closes the reader.
	GetObject(ctx context.Context, bucket, objectKey string) (io.ReadCloser, error)
	StatObject(ctx context.Context, bucket, objectKey string) (ObjectStat, error)
}

// ObjectStat is the metadata used to skip unchanged downloads.
type ObjectStat struct {
	SizeBytes    int64
	ETag         string
	LastModified time.Time
}
