package evalcache

// Store is the read/write surface shared by every tier.
type Store[V any] interface {
	Get(key string) (V, bool)
	Put(key string, value V)
}

// Tiered consults a local cache first and falls back to a shared one,
// promoting shared hits into the local tier.
type Tiered[V any] struct {
	local  *FIFO[V]
	shared Store[V]
}

// NewTiered chains local in front of shared. A nil shared store makes
// Tiered behave like local alone.
func NewTiered[V any](local *FIFO[V], shared Store[V]) *Tiered[V] {
	if local == nil {
		local = NewFIFO[V](DefaultCapacity)
	}
	return &Tiered[V]{local: local, shared: shared}
}

func (t *Tiered[V]) Get(key string) (V, bool) {
	if v, ok := t.local.Get(key); ok {
		return v, true
	}
	if t.shared == nil {
		var zero V
		return zero, false
	}
	v, ok := t.shared.Get(key)
	if ok {
		t.local.Put(key, v)
	}
	return v, ok
}

func (t *Tiered[V]) Put(key string, value V) {
	t.local.Put(key, value)
	if t.shared != nil {
		t.shared.Put(key, value)
	}
}

// Purge clears the local tier. The shared tier is left to its TTL, since
// other processes may still be reading it.
func (t *Tiered[V]) Purge() {
	t.local.Purge()
}

// Len reports the local tier size.
func (t *Tiered[V]) Len() int {
	return t.local.Len()
}
