// Package dedupe defines the interface for vote idempotency tracking.
package dedupe

import (
	"context"
	"sync"
)

// Deduper records seen vote IDs to ensure at-most-once rating application.
type Deduper interface {
	// SeenAndRecord atomically checks if id was seen and records it if not.
	// Returns true if id was already seen, false if it was newly recorded.
	SeenAndRecord(ctx context.Context, id string) bool

	// Unrecord removes an ID from the seen set, allowing a retry. Used when
	// a vote was marked seen but then failed to enqueue (backpressure).
	Unrecord(ctx context.Context, id string)

	Size() int64
}

// Default cache sizing.
const defaultMaxSize = 50000

// inMemoryDeduper implements Deduper with a map plus a FIFO ring of vote
// IDs. When the cache is full the oldest recorded ID is evicted, which is
// the right bias for votes: duplicate submissions arrive close to the
// original. maxSize <= 0 disables eviction entirely.
//
// Invariant: ring[s] == id exactly when seen[id] == s, so evicting a slot
// never forgets an ID that was unrecorded and later recorded into a newer
// slot.
type inMemoryDeduper struct {
	mu      sync.Mutex
	seen    map[string]int // id -> owning ring slot, -1 when unbounded
	ring    []string
	next    int // ring slot the next insert overwrites
	maxSize int
}

// NewInMemoryDeduper creates a new in-memory deduper with configuration options.
func NewInMemoryDeduper(opts ...Option) Deduper {
	d := &inMemoryDeduper{
		maxSize: defaultMaxSize,
	}
	for _, opt := range opts {
		opt(d)
	}

	d.seen = make(map[string]int)
	if d.maxSize > 0 {
		d.ring = make([]string, d.maxSize)
	}
	return d
}

func (d *inMemoryDeduper) SeenAndRecord(_ context.Context, id string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.seen[id]; ok {
		return true
	}

	slot := -1
	if d.maxSize > 0 {
		if old := d.ring[d.next]; old != "" {
			delete(d.seen, old)
		}
		d.ring[d.next] = id
		slot = d.next
		d.next = (d.next + 1) % d.maxSize
	}
	d.seen[id] = slot
	return false
}

func (d *inMemoryDeduper) Unrecord(_ context.Context, id string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	slot, ok := d.seen[id]
	if !ok {
		return
	}
	delete(d.seen, id)
	if slot >= 0 {
		// Free the slot so it can never evict a future re-record of id.
		d.ring[slot] = ""
	}
}

func (d *inMemoryDeduper) Size() int64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return int64(len(d.seen))
}
