package journal

import "sync"

// Ring is a fixed-capacity in-memory journal. The oldest entry is evicted
// when the capacity is exceeded. It never fails; it backs the /trades status
// endpoint even when no database is configured.
type Ring struct {
	mu      sync.Mutex
	entries []Entry
	cap     int
}

// DefaultRingSize matches the trade-history window the status surface serves.
const DefaultRingSize = 100

func NewRing(capacity int) *Ring {
	if capacity <= 0 {
		capacity = DefaultRingSize
	}
	return &Ring{cap: capacity}
}

func (r *Ring) Record(e Entry) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.entries = append(r.entries, e)
	if len(r.entries) > r.cap {
		r.entries = r.entries[len(r.entries)-r.cap:]
	}
	return nil
}

// Recent returns up to n entries, newest first.
func (r *Ring) Recent(n int) ([]Entry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if n <= 0 || n > len(r.entries) {
		n = len(r.entries)
	}
	out := make([]Entry, 0, n)
	for i := len(r.entries) - 1; i >= len(r.entries)-n; i-- {
		out = append(out, r.entries[i])
	}
	return out, nil
}

func (r *Ring) Close() error { return nil }
