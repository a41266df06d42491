package webcast

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"scoreboard/internal/common/storage"
	pkgerrors "scoreboard/pkg/errors"
)

// Source fetches the raw webcast bundle.
type Source interface {
	Fetch(ctx context.Context) ([]byte, error)
	String() string
}

// NewSource picks a source from uri: http(s) URLs, minio://bucket/key
// objects, or local paths with an optional file:// scheme.
func NewSource(uri string, objects storage.ObjectStorage) (Source, error) {
	switch {
	case strings.HasPrefix(uri, "http://"), strings.HasPrefix(uri, "https://"):
		return NewHTTPSource(uri, 0), nil
	case strings.HasPrefix(uri, "minio://"):
		if objects == nil {
			return nil, pkgerrors.Newf(pkgerrors.InvalidParams, "source %s needs object storage", uri)
		}
		bucket, key, ok := strings.Cut(strings.TrimPrefix(uri, "minio://"), "/")
		if !ok || bucket == "" || key == "" {
			return nil, pkgerrors.Newf(pkgerrors.InvalidParams, "invalid object uri %s", uri)
		}
		return NewObjectSource(objects, bucket, key), nil
	case uri == "":
		return nil, pkgerrors.New(pkgerrors.InvalidParams).WithMessage("empty source uri")
	default:
		return &FileSource{Path: strings.TrimPrefix(uri, "file://")}, nil
	}
}

// FileSource reads the bundle from the local filesystem.
type FileSource struct {
	Path string
}

func (s *FileSource) Fetch(ctx context.Context) ([]byte, error) {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		return nil, pkgerrors.Wrapf(err, pkgerrors.ArchiveFetchFailed, "read %s: %v", s.Path, err)
	}
	return data, nil
}

func (s *FileSource) String() string { return "file://" + s.Path }

const defaultFetchTimeout = 10 * time.Second

// HTTPSource downloads the bundle from the contest server.
type HTTPSource struct {
	url    string
	client *http.Client
}

func NewHTTPSource(url string, timeout time.Duration) *HTTPSource {
	if timeout <= 0 {
		timeout = defaultFetchTimeout
	}
	return &HTTPSource{url: url, client: &http.Client{Timeout: timeout}}
}

func (s *HTTPSource) Fetch(ctx context.Context) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return nil, pkgerrors.Wrapf(err, pkgerrors.ArchiveFetchFailed, "build request: %v", err)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, pkgerrors.Wrapf(err, pkgerrors.ArchiveFetchFailed, "fetch %s: %v", s.url, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, pkgerrors.Newf(pkgerrors.ArchiveFetchFailed, "fetch %s: status %d", s.url, resp.StatusCode)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, pkgerrors.Wrapf(err, pkgerrors.ArchiveFetchFailed, "read body: %v", err)
	}
	return data, nil
}

func (s *HTTPSource) String() string { return s.url }

// ObjectSource reads the bundle from object storage and reuses the last
// download while the object ETag is unchanged.
type ObjectSource struct {
	objects storage.ObjectStorage
	bucket  string
	key     string

	mu   sync.Mutex
	etag string
	data []byte
}

func NewObjectSource(objects storage.ObjectStorage, bucket, key string) *ObjectSource {
	return &ObjectSource{objects: objects, bucket: bucket, key: key}
}

func (s *ObjectSource) Fetch(ctx context.Context) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stat, err := s.objects.StatObject(ctx, s.bucket, s.key)
	if errors.Is(err, storage.ErrObjectNotFound) {
		return nil, pkgerrors.Wrapf(err, pkgerrors.ArchiveFetchFailed, "%s is not published yet", s)
	}
	if err != nil {
		return nil, pkgerrors.Wrapf(err, pkgerrors.ArchiveFetchFailed, "stat %s: %v", s, err)
	}
	if stat.ETag != "" && stat.ETag == s.etag {
		return s.data, nil
	}

	reader, err := s.objects.GetObject(ctx, s.bucket, s.key)
	if err != nil {
		return nil, pkgerrors.Wrapf(err, pkgerrors.ArchiveFetchFailed, "get %s: %v", s, err)
	}
	defer func() { _ = reader.Close() }()

	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, pkgerrors.Wrapf(err, pkgerrors.ArchiveFetchFailed, "read %s: %v", s, err)
	}
	s.etag = stat.ETag
	s.data = data
	return data, nil
}

func (s *ObjectSource) String() string {
	return fmt.Sprintf("minio://%s/%s", s.bucket, s.key)
}
