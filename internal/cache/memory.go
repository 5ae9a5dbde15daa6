package cache

import (
	"context"
	"strings"
	"sync"
	"time"
)

// MemoryCache keeps entries in process memory. Expired entries are dropped
// on access and by a background sweep.
type MemoryCache struct {
	entries sync.Map // full key -> memoryEntry
	config  Config
	stop    context.CancelFunc
}

type memoryEntry struct {
	data    []byte
	expires time.Time
}

func (e memoryEntry) expired(now time.Time) bool {
	return !e.expires.IsZero() && now.After(e.expires)
}

// NewMemoryCache creates a memory cache sweeping expired entries every
// sweepEvery. A non-positive sweepEvery defaults to one minute.
func NewMemoryCache(config Config, sweepEvery time.Duration) *MemoryCache {
	if sweepEvery <= 0 {
		sweepEvery = time.Minute
	}
	ctx, cancel := context.WithCancel(context.Background())
	m := &MemoryCache{config: config, stop: cancel}
	go m.sweep(ctx, sweepEvery)
	return m
}

func (m *MemoryCache) load(key string) (memoryEntry, bool) {
	full := m.config.Prefix + key
	raw, ok := m.entries.Load(full)
	if !ok {
		return memoryEntry{}, false
	}
	entry := raw.(memoryEntry)
	if entry.expired(time.Now()) {
		m.entries.Delete(full)
		return memoryEntry{}, false
	}
	return entry, true
}

func (m *MemoryCache) Get(ctx context.Context, key string) ([]byte, error) {
	if err := live(ctx); err != nil {
		return nil, err
	}
	entry, ok := m.load(key)
	if !ok {
		return nil, ErrCacheMiss{Key: key}
	}
	return entry.data, nil
}

func (m *MemoryCache) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	if err := live(ctx); err != nil {
		return err
	}
	entry := memoryEntry{data: append([]byte(nil), data...)}
	if ttl = m.config.ttl(ttl); ttl > 0 {
		entry.expires = time.Now().Add(ttl)
	}
	m.entries.Store(m.config.Prefix+key, entry)
	return nil
}

func (m *MemoryCache) Delete(ctx context.Context, key string) error {
	if err := live(ctx); err != nil {
		return err
	}
	m.entries.Delete(m.config.Prefix + key)
	return nil
}

func (m *MemoryCache) Clear(ctx context.Context) error {
	if err := live(ctx); err != nil {
		return err
	}
	m.entries.Range(func(k, _ any) bool {
		if strings.HasPrefix(k.(string), m.config.Prefix) {
			m.entries.Delete(k)
		}
		return true
	})
	return nil
}

func (m *MemoryCache) Exists(ctx context.Context, key string) (bool, error) {
	if err := live(ctx); err != nil {
		return false, err
	}
	_, ok := m.load(key)
	return ok, nil
}

// Close stops the background sweep.
func (m *MemoryCache) Close() error {
	m.stop()
	return nil
}

func (m *MemoryCache) sweep(ctx context.Context, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			m.entries.Range(func(k, v any) bool {
				if v.(memoryEntry).expired(now) {
					m.entries.Delete(k)
				}
				return true
			})
		}
	}
}
