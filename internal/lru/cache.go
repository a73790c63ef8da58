package lru

import (
	"container/list"
	"sync"
)

type listEntry[T any] struct {
	key   string
	entry T
}

// Cache is a thread-safe, bounded cache of generic entries keyed by string.
// The least recently used entry is evicted when the capacity is exceeded.
type Cache[T any] struct {
	capacity int
	mu       sync.Mutex
	order    *list.List
	index    map[string]*list.Element
}

func NewCache[T any](capacity int) *Cache[T] {
	return &Cache[T]{
		capacity: capacity,
		order:    list.New(),
		index:    make(map[string]*list.Element),
	}
}

func (c *Cache[T]) evictUnsafe() {
	element := c.order.Back()
	if element != nil {
		c.order.Remove(element)
		delete(c.index, element.Value.(*listEntry[T]).key)
	}
}

func (c *Cache[T]) Put(key string, entry T) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if element, ok := c.index[key]; ok {
		element.Value.(*listEntry[T]).entry = entry
		c.order.MoveToFront(element)
		return
	}

	if c.order.Len() >= c.capacity {
		c.evictUnsafe()
	}

	c.index[key] = c.order.PushFront(&listEntry[T]{key: key, entry: entry})
}

func (c *Cache[T]) Get(key string) (T, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if element, ok := c.index[key]; ok {
		c.order.MoveToFront(element)
		return element.Value.(*listEntry[T]).entry, true
	}

	var zero T
	return zero, false
}

func (c *Cache[T]) Delete(key string) (present bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	element, ok := c.index[key]
	if !ok {
		return false
	}

	c.order.Remove(element)
	delete(c.index, key)
	return true
}

func (c *Cache[T]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.order.Init()
	c.index = make(map[string]*list.Element)
}

func (c *Cache[T]) Size() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.order.Len()
}
