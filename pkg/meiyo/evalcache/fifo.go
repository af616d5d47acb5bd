// Package evalcache holds evaluation results keyed by the raw input text.
//
// FIFO is the process-local tier. Redis is an optional shared tier and
// Tiered chains the two. Every cache is safe for concurrent use.
package evalcache

import (
	"container/list"
	"sync"
)

// DefaultCapacity is the entry ceiling used when none is configured.
const DefaultCapacity = 1000

// FIFO is a bounded map that evicts the oldest inserted key first.
// Reads do not refresh an entry's position.
type FIFO[V any] struct {
	mu       sync.Mutex
	capacity int
	order    *list.List
	items    map[string]*list.Element
}

type fifoEntry[V any] struct {
	key   string
	value V
}

// NewFIFO creates a FIFO cache. A capacity <= 0 uses DefaultCapacity.
func NewFIFO[V any](capacity int) *FIFO[V] {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &FIFO[V]{
		capacity: capacity,
		order:    list.New(),
		items:    make(map[string]*list.Element, capacity),
	}
}

// Get returns the cached value for key.
func (c *FIFO[V]) Get(key string) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if el, ok := c.items[key]; ok {
		return el.Value.(*fifoEntry[V]).value, true
	}
	var zero V
	return zero, false
}

// Put stores value under key. Overwriting an existing key keeps its
// original insertion position.
func (c *FIFO[V]) Put(key string, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if el, ok := c.items[key]; ok {
		el.Value.(*fifoEntry[V]).value = value
		return
	}
	for c.order.Len() >= c.capacity {
		oldest := c.order.Front()
		c.order.Remove(oldest)
		delete(c.items, oldest.Value.(*fifoEntry[V]).key)
	}
	c.items[key] = c.order.PushBack(&fifoEntry[V]{key: key, value: value})
}

// Len returns the number of cached entries.
func (c *FIFO[V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}

// Capacity returns the entry ceiling.
func (c *FIFO[V]) Capacity() int {
	return c.capacity
}

// Purge drops every entry.
func (c *FIFO[V]) Purge() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.order.Init()
	c.items = make(map[string]*list.Element, c.capacity)
}
