// Package cache stores serialized metadata trees so repeated builds of an
// unchanged module can be skipped.
package cache

import (
	"context"
	"errors"
	"time"
)

// Cache is the byte-level store behind MetadataCache.
type Cache interface {
	// Get returns the stored bytes or an ErrCacheMiss.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores data under key. A zero ttl uses the backend default; a
	// negative ttl stores without expiry.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	Delete(ctx context.Context, key string) error

	// Clear removes every key under the configured prefix.
	Clear(ctx context.Context) error

	Exists(ctx context.Context, key string) (bool, error)

	Close() error
}

// Config holds settings shared by all backends.
type Config struct {
	// DefaultTTL applies when Set is called with a zero ttl.
	DefaultTTL time.Duration
	// Prefix namespaces every key.
	Prefix string
}

// DefaultConfig returns the settings used when none are configured.
func DefaultConfig() Config {
	return Config{
		DefaultTTL: 10 * time.Minute,
		Prefix:     "mockgraph:",
	}
}

func (c Config) ttl(requested time.Duration) time.Duration {
	if requested == 0 {
		return c.DefaultTTL
	}
	return requested
}

// ErrCacheMiss is returned when a key is absent or expired.
type ErrCacheMiss struct {
	Key string
}

func (e ErrCacheMiss) Error() string {
	return "cache miss: " + e.Key
}

// IsCacheMiss reports whether err is, or wraps, a cache miss.
func IsCacheMiss(err error) bool {
	var miss ErrCacheMiss
	return errors.As(err, &miss)
}

func live(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
		return nil
	}
}
