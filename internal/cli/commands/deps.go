package commands

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/oxjest/mockgraph/internal/cache"
	"github.com/oxjest/mockgraph/internal/cli/config"
	"github.com/oxjest/mockgraph/internal/store"
)

// openCache connects the configured cache backend.
func openCache(ctx context.Context, cfg *config.Config) (cache.Cache, error) {
	cc := cache.DefaultConfig()
	if cfg.Cache.TTL > 0 {
		cc.DefaultTTL = cfg.Cache.TTL
	}

	switch cfg.Cache.Backend {
	case config.CacheRedis:
		rc, err := cache.DialRedis(ctx, cache.RedisOptions{
			Addr:     cfg.Cache.RedisAddr,
			Password: cfg.Cache.RedisPassword,
			Config:   cc,
		})
		if err != nil {
			return nil, err
		}
		return rc, nil
	default:
		return cache.NewMemoryCache(cc, 0), nil
	}
}

// openMetadataCache returns a metadata cache over the configured backend.
// release closes the backend.
func openMetadataCache(ctx context.Context, cfg *config.Config, logger *zap.Logger) (mc *cache.MetadataCache, release func(), err error) {
	backend, err := openCache(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	logger.Debug("metadata cache ready", zap.String("backend", cfg.Cache.Backend))
	return cache.NewMetadataCache(backend, cfg.Cache.TTL, logger), func() { _ = backend.Close() }, nil
}

// openStore opens the snapshot database and brings its schema up to date.
func openStore(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*store.Store, error) {
	s, err := store.Open(ctx, cfg.Store.Driver, cfg.Store.DSN, logger)
	if err != nil {
		return nil, err
	}
	if _, err := s.Migrate(ctx); err != nil {
		_ = s.Close()
		return nil, fmt.Errorf("preparing snapshot store: %w", err)
	}
	return s, nil
}
