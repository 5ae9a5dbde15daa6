package watch

import (
	"sort"
	"sync"
	"time"
)

// Batcher gathers changed paths and delivers them as one sorted batch once
// no new path has arrived for the configured delay.
type Batcher struct {
	delay   time.Duration
	deliver func([]string)

	mu      sync.Mutex
	pending map[string]struct{}
	timer   *time.Timer
	closed  bool
}

// NewBatcher returns a Batcher that hands each batch to deliver.
func NewBatcher(delay time.Duration, deliver func([]string)) *Batcher {
	return &Batcher{
		delay:   delay,
		deliver: deliver,
		pending: make(map[string]struct{}),
	}
}

// Add queues path and pushes the delivery back by the delay.
func (b *Batcher) Add(path string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}

	b.pending[path] = struct{}{}
	if b.timer == nil {
		b.timer = time.AfterFunc(b.delay, b.Flush)
		return
	}
	b.timer.Reset(b.delay)
}

// Flush delivers whatever is queued right away. deliver runs without the
// lock held.
func (b *Batcher) Flush() {
	b.mu.Lock()
	if b.closed || len(b.pending) == 0 {
		b.mu.Unlock()
		return
	}
	batch := make([]string, 0, len(b.pending))
	for path := range b.pending {
		batch = append(batch, path)
	}
	clear(b.pending)
	b.mu.Unlock()

	sort.Strings(batch)
	b.deliver(batch)
}

// Close drops anything queued. Later Adds are ignored.
func (b *Batcher) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	if b.timer != nil {
		b.timer.Stop()
	}
	clear(b.pending)
}
