package state

import (
	"maps"
	"sync"
)

// Dict holds a keyed collection. Its Record is a map[K]V copy.
type Dict[K comparable, V any] struct {
	handle *Handle

	mu      sync.RWMutex
	entries map[K]V
}

// NewDict creates a dict in s holding a copy of entries.
func NewDict[K comparable, V any](s *Store, entries map[K]V) *Dict[K, V] {
	d := &Dict[K, V]{
		handle:  s.newHandle(),
		entries: maps.Clone(entries),
	}
	if d.entries == nil {
		d.entries = make(map[K]V)
	}
	return d
}

// Handle returns the dict's identity.
func (d *Dict[K, V]) Handle() *Handle {
	return d.handle
}

// Get returns the value stored under k.
func (d *Dict[K, V]) Get(k K) (V, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	v, ok := d.entries[k]
	return v, ok
}

// Len returns the number of entries.
func (d *Dict[K, V]) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.entries)
}

// Entries returns a copy of all entries.
func (d *Dict[K, V]) Entries() map[K]V {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return maps.Clone(d.entries)
}

// Put stores v under k inside tx.
func (d *Dict[K, V]) Put(tx *Tx, k K, v V) {
	tx.check(d)

	d.mu.Lock()
	d.entries[k] = v
	d.mu.Unlock()

	tx.MarkChanged(d)
}

// Remove deletes k inside tx. It reports false, changing nothing, if k
// was absent.
func (d *Dict[K, V]) Remove(tx *Tx, k K) bool {
	tx.check(d)

	d.mu.Lock()
	_, ok := d.entries[k]
	delete(d.entries, k)
	d.mu.Unlock()

	if ok {
		tx.MarkChanged(d)
	}
	return ok
}

// Set stores v under k in its own write transaction.
func (d *Dict[K, V]) Set(k K, v V) {
	_ = d.handle.store.Write(func(tx *Tx) error {
		d.Put(tx, k, v)
		return nil
	})
}

// Copy returns a map[K]V copy of the entries.
func (d *Dict[K, V]) Copy() Record {
	return d.Entries()
}

// Restore writes a map[K]V previously returned by Copy.
func (d *Dict[K, V]) Restore(tx *Tx, r Record) error {
	entries, err := recordAs[map[K]V](r)
	if err != nil {
		return err
	}
	tx.check(d)

	d.mu.Lock()
	d.entries = maps.Clone(entries)
	if d.entries == nil {
		d.entries = make(map[K]V)
	}
	d.mu.Unlock()

	tx.MarkChanged(d)
	return nil
}
