// Copyright 2026 The Schemac Authors

// Package schemacache memoizes a fully-loaded package under its
// "name@version" key, storing its content checksum alongside it, so that
// two dependents requiring the same (name, version) pair only pay the
// parse+load cost once per process. It is grounded on the teacher's
// mod/modcache, which memoizes module zips on disk by checksum; this
// package keeps the same "content is immutable once cached" shape but
// keys by name@version and works in memory only, since spec.md §4.K
// never names an on-disk cache format for this compiler.
package schemacache

import "sync"

// Entry is one cached package load result.
type Entry struct {
	Checksum string
	Value    any // *internal/resolver.Loaded, kept as any to avoid an import cycle
}

// Cache is a mutex-guarded map keyed by "name@version". Concurrent
// resolver tasks (internal/resolver) call Get/Put from multiple
// goroutines; the mutex's critical section is limited to map access,
// never to the parse/load work itself, matching spec.md §4.H's
// concurrency contract that critical sections are "confined to
// enter/exit bookkeeping".
type Cache struct {
	mu      sync.Mutex
	entries map[string]*Entry
}

func New() *Cache {
	return &Cache{entries: map[string]*Entry{}}
}

// Get returns the cached entry for key, if any, and whether it was
// found.
func (c *Cache) Get(key string) (*Entry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	return e, ok
}

// Put stores an entry for key, overwriting any previous value. Callers
// only ever call Put once per key in practice (the resolver's
// processing-state machine prevents a package from being loaded twice)
// but Put does not itself enforce that.
func (c *Cache) Put(key string, e *Entry) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = e
}

// Len reports the number of cached entries.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
