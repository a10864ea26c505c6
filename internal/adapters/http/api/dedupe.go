package api

import (
	"context"
	"sync"
)

const defaultDedupeSize = 50_000

// Deduper records seen event IDs so replayed deliveries are acknowledged
// without reprocessing. Intake-side concern: events without an ID bypass it.
type Deduper interface {
	// SeenAndRecord atomically checks whether id was seen and records it if
	// not. Returns true if id was already seen.
	SeenAndRecord(ctx context.Context, id string) bool

	// Unrecord forgets an ID so the delivery can be retried. Used when an
	// event was marked seen but could not be enqueued.
	Unrecord(ctx context.Context, id string)

	Size() int
}

// ringDeduper keeps the most recent maxSize IDs, evicting oldest-first.
type ringDeduper struct {
	mu      sync.Mutex
	seen    map[string]struct{}
	order   []string
	next    int
	maxSize int
}

// NewDeduper creates a bounded deduper. size <= 0 falls back to the default.
func NewDeduper(size int) Deduper {
	if size <= 0 {
		size = defaultDedupeSize
	}
	return &ringDeduper{
		seen:    make(map[string]struct{}, size),
		order:   make([]string, size),
		maxSize: size,
	}
}

func (d *ringDeduper) SeenAndRecord(_ context.Context, id string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.seen[id]; ok {
		return true
	}
	if evicted := d.order[d.next]; evicted != "" {
		delete(d.seen, evicted)
	}
	d.order[d.next] = id
	d.next = (d.next + 1) % d.maxSize
	d.seen[id] = struct{}{}
	return false
}

func (d *ringDeduper) Unrecord(_ context.Context, id string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.seen, id)
}

func (d *ringDeduper) Size() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.seen)
}
