// Package watch keeps the module registry in step with fixture files on disk.
package watch

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"

	"go.uber.org/zap"

	"github.com/oxjest/mockgraph/internal/cache"
	"github.com/oxjest/mockgraph/internal/fixture"
	"github.com/oxjest/mockgraph/runtime/modules"
)

// Change reports what a reload did to one file.
type Change struct {
	Path      string
	Specifier string
	// Updated is false when the file content matched the registered version.
	Updated bool
	Removed bool
}

// Reloader re-registers fixtures whose content changed and drops their
// stale metadata from the cache.
type Reloader struct {
	registry *modules.Registry
	metadata *cache.MetadataCache
	logger   *zap.Logger

	mu     sync.Mutex
	byPath map[string]string
}

// NewReloader creates a reloader. metadata may be nil.
func NewReloader(registry *modules.Registry, metadata *cache.MetadataCache, logger *zap.Logger) *Reloader {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Reloader{
		registry: registry,
		metadata: metadata,
		logger:   logger,
		byPath:   make(map[string]string),
	}
}

// LoadDir registers every fixture in dir.
func (r *Reloader) LoadDir(dir string) ([]*fixture.Fixture, error) {
	fixtures, err := fixture.LoadDir(dir)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	for _, fx := range fixtures {
		fx.Register(r.registry)
		r.byPath[fx.Path] = fx.Module
	}
	r.logger.Info("loaded fixtures", zap.String("dir", dir), zap.Int("count", len(fixtures)))
	return fixtures, nil
}

// Reload processes changed paths. A fixture that fails to load leaves the
// previous registration in place. A removed file keeps its last registration
// too, since consumers may still hold its exports.
func (r *Reloader) Reload(ctx context.Context, paths []string) ([]Change, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var (
		changes []Change
		errs    []error
	)
	for _, path := range paths {
		if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
			spec := r.byPath[path]
			delete(r.byPath, path)
			r.logger.Warn("fixture removed, keeping last registration",
				zap.String("path", path), zap.String("specifier", spec))
			changes = append(changes, Change{Path: path, Specifier: spec, Removed: true})
			continue
		}

		fx, err := fixture.Load(path)
		if err != nil {
			r.logger.Error("reloading fixture", zap.String("path", path), zap.Error(err))
			errs = append(errs, err)
			continue
		}

		previous := r.registry.Version(fx.Module)
		if previous == fx.Digest {
			r.logger.Debug("fixture unchanged", zap.String("path", path))
			changes = append(changes, Change{Path: path, Specifier: fx.Module})
			continue
		}

		if r.metadata != nil && previous != "" {
			if err := r.metadata.Invalidate(ctx, fx.Module, previous); err != nil {
				r.logger.Warn("invalidating cached metadata", zap.String("specifier", fx.Module), zap.Error(err))
			}
		}
		fx.Register(r.registry)
		r.byPath[path] = fx.Module

		r.logger.Info("reloaded fixture", zap.String("path", path), zap.String("specifier", fx.Module))
		changes = append(changes, Change{Path: path, Specifier: fx.Module, Updated: true})
	}

	if len(errs) > 0 {
		return changes, fmt.Errorf("reloading fixtures: %w", errors.Join(errs...))
	}
	return changes, nil
}

// Run registers the fixtures in dir and then reloads them as they change
// until ctx is done.
func Run(ctx context.Context, dir string, reloader *Reloader, logger *zap.Logger) error {
	if _, err := reloader.LoadDir(dir); err != nil {
		return err
	}
	return Watch(ctx, dir, reloader, logger)
}

// Watch reloads fixtures in dir as they change until ctx is done.
func Watch(ctx context.Context, dir string, reloader *Reloader, logger *zap.Logger) error {
	fw := NewFileWatcher(Options{
		Dirs:   []string{dir},
		Match:  fixture.Supported,
		Logger: logger,
	}, func(files []string) error {
		_, err := reloader.Reload(ctx, files)
		return err
	})
	return fw.Run(ctx)
}
