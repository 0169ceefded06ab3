package assets

import (
	"sync"
	"time"
)

// entry is one cached payload with its bookkeeping.
type entry[T any] struct {
	payload  T
	refCount int
	lastUsed time.Time
}

// cache is one kind's store. All operations funnel through its lock, so a
// release followed by an immediate load observes the decremented count.
type cache[T any] struct {
	mu      sync.Mutex
	entries map[string]*entry[T]
}

func newCache[T any]() *cache[T] {
	return &cache[T]{entries: make(map[string]*entry[T])}
}

// acquire returns the payload for src, bumping refCount and lastUsed.
func (c *cache[T]) acquire(src string, now time.Time) (T, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[src]
	if !ok {
		var zero T
		return zero, false
	}
	e.refCount++
	e.lastUsed = now
	return e.payload, true
}

// store records a completed load. When an entry already exists (two misses
// for the same src raced), the existing payload wins: it gains the reference
// and redundant reports true so the caller can dispose the extra payload.
func (c *cache[T]) store(src string, payload T, now time.Time) (cached T, redundant bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := c.entries[src]; ok {
		e.refCount++
		e.lastUsed = now
		return e.payload, true
	}
	c.entries[src] = &entry[T]{payload: payload, refCount: 1, lastUsed: now}
	return payload, false
}

// release decrements the refCount. It never frees; cleanup does that.
func (c *cache[T]) release(src string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[src]
	if !ok {
		return false
	}
	e.refCount--
	return true
}

// cleanup frees entries that are both unreferenced and older than maxAge.
func (c *cache[T]) cleanup(maxAge time.Duration, now time.Time, dispose func(T)) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	freed := 0
	for src, e := range c.entries {
		if e.refCount > 0 {
			continue
		}
		if now.Sub(e.lastUsed) <= maxAge {
			continue
		}
		delete(c.entries, src)
		if dispose != nil {
			dispose(e.payload)
		}
		freed++
	}
	return freed
}

// drop removes a single entry regardless of references. Hot-reload path.
func (c *cache[T]) drop(src string, dispose func(T)) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[src]
	if !ok {
		return false
	}
	delete(c.entries, src)
	if dispose != nil {
		dispose(e.payload)
	}
	return true
}

func (c *cache[T]) has(src string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.entries[src]
	return ok
}

func (c *cache[T]) refCount(src string) (int, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[src]
	if !ok {
		return 0, false
	}
	return e.refCount, true
}

func (c *cache[T]) lastUsed(src string) (time.Time, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[src]
	if !ok {
		return time.Time{}, false
	}
	return e.lastUsed, true
}

func (c *cache[T]) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// clear empties the cache, disposing every payload.
func (c *cache[T]) clear(dispose func(T)) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := len(c.entries)
	if dispose != nil {
		for _, e := range c.entries {
			dispose(e.payload)
		}
	}
	c.entries = make(map[string]*entry[T])
	return n
}
