package modules

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/oxjest/mockgraph/runtime/mock"
	"github.com/oxjest/mockgraph/runtime/value"
)

// ErrModuleNotFound is returned when a specifier has no registered exports.
var ErrModuleNotFound = errors.New("module not found")

// EventKind names a registry change.
type EventKind string

const (
	EventRegistered EventKind = "registered"
	EventMocked     EventKind = "mocked"
	EventUnmocked   EventKind = "unmocked"
	EventLoaded     EventKind = "loaded"
	EventReset      EventKind = "reset"
)

// Event describes one registry change.
type Event struct {
	Kind      EventKind `json:"kind"`
	Specifier string    `json:"specifier,omitempty"`
	Mocked    bool      `json:"mocked,omitempty"`
	Version   string    `json:"version,omitempty"`
}

type mockEntry struct {
	factory mock.Factory
	// automock entries build their factory from the actual exports on first use.
	automock bool
}

// Registry decides which exports a consumer receives for a specifier: the
// registered module, or a mock standing in for it.
type Registry struct {
	mu       sync.RWMutex
	actual   map[string]value.Value
	versions map[string]string
	mocks    map[string]*mockEntry
	// loaded caches what Require returned in the current generation.
	loaded map[string]value.Value

	subsMu sync.RWMutex
	subs   []func(Event)

	logger *zap.Logger
}

// NewRegistry creates an empty registry. A nil logger disables logging.
func NewRegistry(logger *zap.Logger) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Registry{
		actual:   make(map[string]value.Value),
		versions: make(map[string]string),
		mocks:    make(map[string]*mockEntry),
		loaded:   make(map[string]value.Value),
		logger:   logger,
	}
}

// Subscribe registers fn to receive every subsequent change. fn runs on the
// goroutine that made the change and must not call back into the registry.
func (r *Registry) Subscribe(fn func(Event)) {
	r.subsMu.Lock()
	r.subs = append(r.subs, fn)
	r.subsMu.Unlock()
}

func (r *Registry) emit(e Event) {
	r.subsMu.RLock()
	subs := r.subs
	r.subsMu.RUnlock()
	for _, fn := range subs {
		fn(e)
	}
}

// Register installs the real exports of specifier, replacing earlier ones,
// under a fresh random version.
func (r *Registry) Register(specifier string, exports value.Value) {
	r.RegisterVersion(specifier, exports, "")
}

// RegisterVersion is Register with a caller-chosen version, such as a
// content digest. An empty version gets a random one.
func (r *Registry) RegisterVersion(specifier string, exports value.Value, version string) {
	if version == "" {
		version = uuid.NewString()
	}

	r.mu.Lock()
	r.actual[specifier] = exports
	r.versions[specifier] = version
	delete(r.loaded, specifier)
	entry := r.mocks[specifier]
	if entry != nil && entry.automock {
		entry.factory = nil
	}
	r.mu.Unlock()

	r.logger.Debug("registered module", zap.String("specifier", specifier), zap.String("version", version))
	r.emit(Event{Kind: EventRegistered, Specifier: specifier, Version: version})
}

// Version returns the version specifier was registered under, or "".
func (r *Registry) Version(specifier string) string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.versions[specifier]
}

// Mock replaces specifier for every Require from now on, including consumers
// that already loaded it in this generation. A nil factory automocks the
// registered exports.
func (r *Registry) Mock(specifier string, factory mock.Factory) {
	r.setMock(specifier, factory, true)
}

// DoMock is Mock without eviction: a specifier already loaded in this
// generation keeps its exports until ResetModules.
func (r *Registry) DoMock(specifier string, factory mock.Factory) {
	r.setMock(specifier, factory, false)
}

func (r *Registry) setMock(specifier string, factory mock.Factory, evict bool) {
	r.mu.Lock()
	r.mocks[specifier] = &mockEntry{factory: factory, automock: factory == nil}
	if evict {
		delete(r.loaded, specifier)
	}
	r.mu.Unlock()

	r.logger.Debug("mocked module",
		zap.String("specifier", specifier),
		zap.Bool("automock", factory == nil),
		zap.Bool("hoisted", evict))
	r.emit(Event{Kind: EventMocked, Specifier: specifier, Mocked: true})
}

// Unmock removes any mock for specifier.
func (r *Registry) Unmock(specifier string) {
	r.mu.Lock()
	_, had := r.mocks[specifier]
	delete(r.mocks, specifier)
	delete(r.loaded, specifier)
	r.mu.Unlock()

	if had {
		r.logger.Debug("unmocked module", zap.String("specifier", specifier))
		r.emit(Event{Kind: EventUnmocked, Specifier: specifier})
	}
}

// Require returns the exports a consumer of specifier sees. Mock factories
// run once per generation; later calls return the same mirrored graph.
func (r *Registry) Require(specifier string) (value.Value, error) {
	r.mu.RLock()
	if v, ok := r.loaded[specifier]; ok {
		r.mu.RUnlock()
		return v, nil
	}
	r.mu.RUnlock()

	exports, mocked, fresh, err := r.load(specifier)
	if err != nil {
		return nil, err
	}
	if fresh {
		r.logger.Debug("loaded module", zap.String("specifier", specifier), zap.Bool("mocked", mocked))
		r.emit(Event{Kind: EventLoaded, Specifier: specifier, Mocked: mocked})
	}
	return exports, nil
}

// load resolves specifier without holding the lock while a factory runs, so
// factories may call RequireActual or Require. When callers race, the first
// stored result wins and the others return it.
func (r *Registry) load(specifier string) (exports value.Value, mocked, fresh bool, err error) {
	r.mu.RLock()
	if v, ok := r.loaded[specifier]; ok {
		r.mu.RUnlock()
		return v, false, false, nil
	}
	entry, mocked := r.mocks[specifier]
	var factory mock.Factory
	if mocked {
		factory = entry.factory
	}
	actual, found := r.actual[specifier]
	version := r.versions[specifier]
	r.mu.RUnlock()

	switch {
	case mocked:
		exports, err = r.runMock(specifier, entry, factory, actual, found, version)
	case found:
		exports = actual
	default:
		err = fmt.Errorf("%w: %s", ErrModuleNotFound, specifier)
	}
	if err != nil {
		return nil, mocked, false, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if v, ok := r.loaded[specifier]; ok {
		return v, mocked, false, nil
	}
	// A Register, Mock or Unmock meanwhile makes the result stale for caching.
	if r.mocks[specifier] != entry || r.versions[specifier] != version {
		return exports, mocked, false, nil
	}
	r.loaded[specifier] = exports
	return exports, mocked, true, nil
}

// runMock runs the mock factory. An automock entry without a factory gets
// one built from actual, kept for later generations unless the entry or the
// registered exports changed meanwhile.
func (r *Registry) runMock(specifier string, entry *mockEntry, factory mock.Factory, actual value.Value, found bool, version string) (value.Value, error) {
	if factory == nil {
		if !found {
			return nil, fmt.Errorf("%w: %s", ErrModuleNotFound, specifier)
		}
		built, err := mock.CreateMockFactory(actual, mock.WithLogger(r.logger))
		if err != nil {
			return nil, fmt.Errorf("automock %q: %w", specifier, err)
		}
		factory = built

		r.mu.Lock()
		if r.mocks[specifier] == entry && entry.factory == nil && r.versions[specifier] == version {
			entry.factory = built
		}
		r.mu.Unlock()
	}

	exports, err := factory()
	if err != nil {
		r.logger.Warn("mock factory failed", zap.String("specifier", specifier), zap.Error(err))
		return nil, fmt.Errorf("mock factory for %q: %w", specifier, err)
	}
	return exports, nil
}

func (r *Registry) actualLocked(specifier string) (value.Value, error) {
	v, ok := r.actual[specifier]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrModuleNotFound, specifier)
	}
	return v, nil
}

// RequireActual returns the registered exports, ignoring any mock.
func (r *Registry) RequireActual(specifier string) (value.Value, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.actualLocked(specifier)
}

// Metadata describes the registered exports of specifier.
func (r *Registry) Metadata(specifier string) (*mock.Metadata, error) {
	actual, err := r.RequireActual(specifier)
	if err != nil {
		return nil, err
	}
	return mock.BuildMetadata(actual)
}

// ResetModules starts a new generation: the next Require of every specifier
// runs its mock factory again or returns the actual exports afresh.
func (r *Registry) ResetModules() {
	r.mu.Lock()
	r.loaded = make(map[string]value.Value)
	r.mu.Unlock()

	r.logger.Debug("reset module cache")
	r.emit(Event{Kind: EventReset})
}

// Mocked reports whether specifier currently has a mock.
func (r *Registry) Mocked(specifier string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.mocks[specifier]
	return ok
}

// Specifiers returns every specifier with registered exports or a mock, sorted.
func (r *Registry) Specifiers() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	seen := make(map[string]bool, len(r.actual)+len(r.mocks))
	for s := range r.actual {
		seen[s] = true
	}
	for s := range r.mocks {
		seen[s] = true
	}
	out := make([]string, 0, len(seen))
	for s := range seen {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

// Global registry instance
var globalRegistry = NewRegistry(nil)

// Default returns the process-wide registry.
func Default() *Registry { return globalRegistry }

// Register installs exports in the process-wide registry.
func Register(specifier string, exports value.Value) { globalRegistry.Register(specifier, exports) }

// Mock mocks specifier in the process-wide registry.
func Mock(specifier string, factory mock.Factory) { globalRegistry.Mock(specifier, factory) }

// DoMock mocks specifier in the process-wide registry without eviction.
func DoMock(specifier string, factory mock.Factory) { globalRegistry.DoMock(specifier, factory) }

// Unmock removes a mock from the process-wide registry.
func Unmock(specifier string) { globalRegistry.Unmock(specifier) }

// Require loads specifier from the process-wide registry.
func Require(specifier string) (value.Value, error) { return globalRegistry.Require(specifier) }

// RequireActual loads the real exports of specifier from the process-wide registry.
func RequireActual(specifier string) (value.Value, error) {
	return globalRegistry.RequireActual(specifier)
}

// ResetModules starts a new generation in the process-wide registry.
func ResetModules() { globalRegistry.ResetModules() }

// Reset clears the process-wide registry (used for testing).
func Reset() {
	globalRegistry = NewRegistry(nil)
}
