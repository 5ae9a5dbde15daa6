package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/oxjest/mockgraph/runtime/mock"
)

// KeyFor derives the cache key for the metadata of specifier built from
// content with the given digest. Changing either yields a new key.
func KeyFor(specifier, digest string) string {
	sum := sha256.Sum256([]byte(specifier + "\x00" + digest))
	return "metadata:" + hex.EncodeToString(sum[:16])
}

// MetadataCache stores metadata trees as JSON. Decoded trees are suitable for
// inspection; collections come back empty and stub behaviour is not kept.
type MetadataCache struct {
	backend Cache
	ttl     time.Duration
	logger  *zap.Logger

	hits   atomic.Int64
	misses atomic.Int64
}

// NewMetadataCache wraps backend. A nil logger disables logging.
func NewMetadataCache(backend Cache, ttl time.Duration, logger *zap.Logger) *MetadataCache {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MetadataCache{backend: backend, ttl: ttl, logger: logger}
}

// Get returns the cached tree or an ErrCacheMiss.
func (c *MetadataCache) Get(ctx context.Context, specifier, digest string) (*mock.Metadata, error) {
	data, err := c.backend.Get(ctx, KeyFor(specifier, digest))
	if err != nil {
		if IsCacheMiss(err) {
			c.misses.Add(1)
		}
		return nil, err
	}

	var md mock.Metadata
	if err := json.Unmarshal(data, &md); err != nil {
		return nil, fmt.Errorf("decoding cached metadata for %s: %w", specifier, err)
	}
	c.hits.Add(1)
	return &md, nil
}

// Put stores md.
func (c *MetadataCache) Put(ctx context.Context, specifier, digest string, md *mock.Metadata) error {
	data, err := json.Marshal(md)
	if err != nil {
		return fmt.Errorf("encoding metadata for %s: %w", specifier, err)
	}
	return c.backend.Set(ctx, KeyFor(specifier, digest), data, c.ttl)
}

// Invalidate drops the entry for specifier at digest.
func (c *MetadataCache) Invalidate(ctx context.Context, specifier, digest string) error {
	c.logger.Debug("invalidating metadata", zap.String("specifier", specifier))
	return c.backend.Delete(ctx, KeyFor(specifier, digest))
}

// GetOrBuild returns the cached tree, or runs build and caches its result.
// hit reports whether the cache answered. A failing backend write is logged
// and does not fail the call.
func (c *MetadataCache) GetOrBuild(ctx context.Context, specifier, digest string,
	build func() (*mock.Metadata, error)) (md *mock.Metadata, hit bool, err error) {
	md, err = c.Get(ctx, specifier, digest)
	if err == nil {
		return md, true, nil
	}
	if !IsCacheMiss(err) {
		c.logger.Warn("metadata cache read failed", zap.String("specifier", specifier), zap.Error(err))
	}

	md, err = build()
	if err != nil {
		return nil, false, err
	}
	if err := c.Put(ctx, specifier, digest, md); err != nil {
		c.logger.Warn("metadata cache write failed", zap.String("specifier", specifier), zap.Error(err))
	}
	return md, false, nil
}

// Stats returns hit and miss counts since creation.
func (c *MetadataCache) Stats() (hits, misses int64) {
	return c.hits.Load(), c.misses.Load()
}
