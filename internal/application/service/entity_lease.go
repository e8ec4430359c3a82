package service

import (
	"fmt"
	"sync"
)

// EntityLease serializes transitions per entity. Adjudication and admin
// decisions on the same entity must not interleave; across different
// entities no ordering is required, so each key gets its own mutex.
type EntityLease struct {
	mu      sync.Mutex
	entries map[string]*leaseEntry
}

type leaseEntry struct {
	mu   sync.Mutex
	refs int
}

// NewEntityLease creates an empty lease registry.
func NewEntityLease() *EntityLease {
	return &EntityLease{entries: make(map[string]*leaseEntry)}
}

// Acquire blocks until the lease for (kind, id) is held and returns the
// release function. Entries are reference-counted so the registry does not
// grow with the number of entities ever seen.
func (l *EntityLease) Acquire(kind string, id int64) func() {
	key := fmt.Sprintf("%s:%d", kind, id)

	l.mu.Lock()
	e, ok := l.entries[key]
	if !ok {
		e = &leaseEntry{}
		l.entries[key] = e
	}
	e.refs++
	l.mu.Unlock()

	e.mu.Lock()

	return func() {
		e.mu.Unlock()

		l.mu.Lock()
		e.refs--
		if e.refs == 0 {
			delete(l.entries, key)
		}
		l.mu.Unlock()
	}
}
