// Package dedupe tracks already-accepted job IDs so re-submissions are
// acknowledged without being processed twice.
package dedupe

import (
	"context"
	"sync"
)

// Deduper records seen job IDs.
type Deduper interface {
	// SeenAndRecord atomically checks if id was seen and records it if
	// not. Returns true if id was already seen.
	SeenAndRecord(ctx context.Context, id string) bool

	// Unrecord removes an ID from the seen set. Used when a job was
	// marked seen but could not be enqueued (backpressure), so the client
	// may retry it.
	Unrecord(ctx context.Context, id string)

	// Size returns the current number of tracked IDs.
	Size() int
}

// inMemoryDeduper is a bounded set with FIFO eviction: once maxSize IDs
// are tracked, the oldest recorded ID is forgotten to admit a new one.
type inMemoryDeduper struct {
	mu      sync.Mutex
	seen    map[string]struct{}
	order   []string // insertion order, oldest first
	head    int      // index of the oldest live entry in order
	maxSize int
}

// NewInMemoryDeduper creates a deduper with configuration options.
func NewInMemoryDeduper(opts ...Option) Deduper {
	d := &inMemoryDeduper{
		seen:    make(map[string]struct{}),
		maxSize: defaultMaxSize,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

func (d *inMemoryDeduper) SeenAndRecord(_ context.Context, id string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.seen[id]; ok {
		return true
	}

	if d.maxSize > 0 && len(d.seen) >= d.maxSize {
		d.evictOldest()
	}

	d.seen[id] = struct{}{}
	d.order = append(d.order, id)
	return false
}

func (d *inMemoryDeduper) Unrecord(_ context.Context, id string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	// The stale entry in order is skipped at eviction time.
	delete(d.seen, id)
}

func (d *inMemoryDeduper) Size() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.seen)
}

// evictOldest drops the oldest still-tracked ID, skipping entries already
// removed by Unrecord. Must be called with d.mu held.
func (d *inMemoryDeduper) evictOldest() {
	for d.head < len(d.order) {
		id := d.order[d.head]
		d.head++
		if _, ok := d.seen[id]; ok {
			delete(d.seen, id)
			break
		}
	}
	// Compact once the dead prefix dominates.
	if d.head > 0 && d.head*2 >= len(d.order) {
		d.order = append([]string(nil), d.order[d.head:]...)
		d.head = 0
	}
}
