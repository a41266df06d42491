package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/klauspost/compress/zstd"
	"golang.org/x/sync/singleflight"

	"scoreboard/internal/common/cache"
	pkgerrors "scoreboard/pkg/errors"
)

const (
	defaultSnapshotTTL       = 10 * time.Second
	defaultSnapshotLocalSize = 256
	snapshotKeyPrefix        = "scoreboard:snapshot:"
)

// SnapshotKey identifies one encoded view of a contest at a given version.
type SnapshotKey struct {
	Contest string
	View    string
	Version uint64
}

func (k SnapshotKey) String() string {
	return fmt.Sprintf("%s%s:%s:%d", snapshotKeyPrefix, k.Contest, k.View, k.Version)
}

// SnapshotRepository caches encoded snapshots in process and, when a cache
// client is configured, in Redis as zstd frames. Concurrent builds of the
// same key run once.
type SnapshotRepository struct {
	local   *LRUCache[[]byte]
	cache   cache.BasicOps
	ttl     time.Duration
	group   singleflight.Group
	encoder *zstd.Encoder
	decoder *zstd.Decoder
}

func NewSnapshotRepository(cacheClient cache.BasicOps, localSize int, ttl time.Duration) (*SnapshotRepository, error) {
	if ttl <= 0 {
		ttl = defaultSnapshotTTL
	}
	if localSize <= 0 {
		localSize = defaultSnapshotLocalSize
	}
	encoder, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedFastest))
	if err != nil {
		return nil, pkgerrors.Wrapf(err, pkgerrors.InternalServerError, "create zstd encoder: %v", err)
	}
	decoder, err := zstd.NewReader(nil)
	if err != nil {
		return nil, pkgerrors.Wrapf(err, pkgerrors.InternalServerError, "create zstd decoder: %v", err)
	}
	return &SnapshotRepository{
		local:   NewLRUCache[[]byte](localSize, ttl),
		cache:   cacheClient,
		ttl:     ttl,
		encoder: encoder,
		decoder: decoder,
	}, nil
}

// Get returns the snapshot for key, calling build on a miss in both tiers.
func (r *SnapshotRepository) Get(ctx context.Context, key SnapshotKey, build func(context.Context) ([]byte, error)) ([]byte, error) {
	name := key.String()
	if data, ok := r.local.Get(name); ok {
		return data, nil
	}

	v, err, _ := r.group.Do(name, func() (interface{}, error) {
		if data, ok := r.local.Get(name); ok {
			return data, nil
		}
		var (
			data []byte
			err  error
		)
		if r.cache != nil {
			data, err = cache.GetOrLoad(ctx, r.cache, name, cache.JitterTTL(r.ttl), r.codec(), build)
		} else {
			data, err = build(ctx)
		}
		if err != nil {
			return nil, err
		}
		r.local.Set(name, data)
		return data, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]byte), nil
}

// codec stores snapshots in Redis as zstd frames.
func (r *SnapshotRepository) codec() cache.Codec[[]byte] {
	return cache.Codec[[]byte]{
		Encode: func(data []byte) (string, error) {
			return string(r.encoder.EncodeAll(data, nil)), nil
		},
		Decode: func(payload string) ([]byte, error) {
			return r.decoder.DecodeAll([]byte(payload), nil)
		},
	}
}

// Close releases the zstd decoder.
func (r *SnapshotRepository) Close() {
	r.decoder.Close()
}
