package cache

import (
	"container/list"
	"sync"
	"sync/atomic"

	"github.com/hupe1980/blobkv/internal/resource"
)

// LRU is a least-recently-used cache of byte slices. It is safe for
// concurrent use. Cached slices must be treated as read-only.
type LRU[K comparable] struct {
	mu        sync.Mutex
	capacity  int64
	size      int64
	items     map[K]*list.Element
	evictList *list.List
	rc        *resource.Controller

	hits   atomic.Int64
	misses atomic.Int64
}

type entry[K comparable] struct {
	key   K
	value []byte
}

// NewLRU creates a cache holding at most capacity bytes. rc may be nil.
func NewLRU[K comparable](capacity int64, rc *resource.Controller) *LRU[K] {
	return &LRU[K]{
		capacity:  capacity,
		items:     make(map[K]*list.Element),
		evictList: list.New(),
		rc:        rc,
	}
}

// Get returns the cached value for key. The slice is shared with the
// cache and must not be modified.
func (c *LRU[K]) Get(key K) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.items[key]; ok {
		c.hits.Add(1)
		c.evictList.MoveToFront(el)

		return el.Value.(*entry[K]).value, true
	}

	c.misses.Add(1)

	return nil, false
}

// Set caches b under key. Values larger than the capacity, or that the
// memory budget refuses, are not cached; an existing entry is dropped in
// that case.
func (c *LRU[K]) Set(key K, b []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.items[key]; ok {
		c.removeElement(el)
	}

	n := int64(len(b))
	if n > c.capacity {
		return
	}

	for c.size+n > c.capacity {
		el := c.evictList.Back()
		if el == nil {
			break
		}
		c.removeElement(el)
	}

	if err := c.rc.AcquireMemory(n); err != nil {
		return
	}

	c.items[key] = c.evictList.PushFront(&entry[K]{key: key, value: b})
	c.size += n
}

// Delete drops key.
func (c *LRU[K]) Delete(key K) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.items[key]; ok {
		c.removeElement(el)
	}
}

// Invalidate drops every entry whose key matches pred.
func (c *LRU[K]) Invalidate(pred func(key K) bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var drop []*list.Element

	for key, el := range c.items {
		if pred(key) {
			drop = append(drop, el)
		}
	}

	for _, el := range drop {
		c.removeElement(el)
	}
}

// Purge drops every entry.
func (c *LRU[K]) Purge() {
	c.Invalidate(func(K) bool { return true })
}

// Len returns the number of cached entries.
func (c *LRU[K]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return len(c.items)
}

// Size returns the cached bytes.
func (c *LRU[K]) Size() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.size
}

// Stats returns hit and miss counts.
func (c *LRU[K]) Stats() (hits, misses int64) {
	return c.hits.Load(), c.misses.Load()
}

func (c *LRU[K]) removeElement(el *list.Element) {
	c.evictList.Remove(el)

	e := el.Value.(*entry[K])
	delete(c.items, e.key)

	n := int64(len(e.value))
	c.size -= n
	c.rc.ReleaseMemory(n)
}
