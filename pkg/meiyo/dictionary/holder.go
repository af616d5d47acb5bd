package dictionary

import "sync/atomic"

// Holder publishes snapshots to concurrent readers. Readers always see a
// complete snapshot: replacing data swaps a pointer, nothing is mutated.
type Holder struct {
	current atomic.Pointer[Snapshot]
}

// NewHolder creates a holder publishing s. A nil s publishes an empty
// snapshot.
func NewHolder(s *Snapshot) *Holder {
	h := &Holder{}
	h.Store(s)
	return h
}

// Load returns the current snapshot. It never returns nil.
func (h *Holder) Load() *Snapshot {
	if s := h.current.Load(); s != nil {
		return s
	}
	return Empty()
}

// Store publishes s, replacing the previous snapshot.
func (h *Holder) Store(s *Snapshot) {
	if s == nil {
		s = Empty()
	}
	h.current.Store(s)
}
