// Package dedupe tracks processed webhook delivery IDs so redelivered
// events are acknowledged without being handled twice.
package dedupe

import (
	"context"
	"sync"
)

// Deduper records seen delivery IDs for at-most-once event handling.
type Deduper interface {
	// SeenAndRecord atomically checks whether id was seen before and
	// records it if not. Returns true if id was already seen.
	SeenAndRecord(ctx context.Context, id string) bool

	// Unrecord forgets an ID so the event can be retried. Use it when
	// an event was recorded but handling failed before completion.
	Unrecord(ctx context.Context, id string)

	Size() int64
}

// memoryDeduper keeps IDs in a map with a fixed-capacity ring buffer
// evicting the oldest entry once the capacity is reached. A capacity
// of zero or less disables eviction entirely.
type memoryDeduper struct {
	mu   sync.Mutex
	seen map[string]int // id -> ring slot, -1 in unbounded mode
	ring []string
	next int
	cap  int
}

// NewMemoryDeduper creates an in-process deduper. The default capacity
// covers several days of webhook traffic for a small deployment.
func NewMemoryDeduper(opts ...Option) Deduper {
	d := &memoryDeduper{cap: 100_000}
	for _, opt := range opts {
		opt(d)
	}
	d.seen = make(map[string]int)
	if d.cap > 0 {
		d.ring = make([]string, d.cap)
	}
	return d
}

func (d *memoryDeduper) SeenAndRecord(_ context.Context, id string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.seen[id]; ok {
		return true
	}

	if d.cap > 0 {
		// The slot about to be reused may still hold a live entry.
		if old := d.ring[d.next]; old != "" {
			if slot, ok := d.seen[old]; ok && slot == d.next {
				delete(d.seen, old)
			}
		}
		d.ring[d.next] = id
		d.seen[id] = d.next
		d.next = (d.next + 1) % d.cap
	} else {
		d.seen[id] = -1
	}
	return false
}

func (d *memoryDeduper) Unrecord(_ context.Context, id string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.seen, id)
}

func (d *memoryDeduper) Size() int64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return int64(len(d.seen))
}
