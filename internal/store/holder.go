package store

import "sync/atomic"

// Holder publishes the current snapshot to readers. Replace is a single
// pointer swap: readers either see the old snapshot in full or the new one
// in full, and in-flight reads keep whatever snapshot they captured.
type Holder struct {
	cur atomic.Pointer[Snapshot]
}

// NewHolder creates a holder seeded with the given snapshot.
func NewHolder(s *Snapshot) *Holder {
	h := &Holder{}
	h.cur.Store(s)
	return h
}

// Current returns the snapshot readers should use for the whole of one
// logical operation.
func (h *Holder) Current() *Snapshot {
	return h.cur.Load()
}

// Replace atomically swaps in a new snapshot.
func (h *Holder) Replace(s *Snapshot) {
	h.cur.Store(s)
}
