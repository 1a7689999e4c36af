package state

import (
	"slices"
	"sync"
)

// List holds an ordered sequence. Its Record is a []T copy.
type List[T any] struct {
	handle *Handle

	mu    sync.RWMutex
	items []T
}

// NewList creates a list in s holding a copy of items.
func NewList[T any](s *Store, items []T) *List[T] {
	return &List[T]{
		handle: s.newHandle(),
		items:  slices.Clone(items),
	}
}

// Handle returns the list's identity.
func (l *List[T]) Handle() *Handle {
	return l.handle
}

// Items returns a copy of the current items.
func (l *List[T]) Items() []T {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return slices.Clone(l.items)
}

// Len returns the number of items.
func (l *List[T]) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.items)
}

// At returns the item at index i.
func (l *List[T]) At(i int) (T, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	var zero T
	if i < 0 || i >= len(l.items) {
		return zero, false
	}
	return l.items[i], true
}

// Append adds items to the end inside tx.
func (l *List[T]) Append(tx *Tx, items ...T) {
	tx.check(l)

	l.mu.Lock()
	l.items = append(l.items, items...)
	l.mu.Unlock()

	tx.MarkChanged(l)
}

// Replace swaps the whole content for a copy of items inside tx.
func (l *List[T]) Replace(tx *Tx, items []T) {
	tx.check(l)

	l.mu.Lock()
	l.items = slices.Clone(items)
	l.mu.Unlock()

	tx.MarkChanged(l)
}

// RemoveAt deletes the item at index i inside tx.
// It reports false, changing nothing, if i is out of range.
func (l *List[T]) RemoveAt(tx *Tx, i int) bool {
	tx.check(l)

	l.mu.Lock()
	if i < 0 || i >= len(l.items) {
		l.mu.Unlock()
		return false
	}
	l.items = slices.Delete(l.items, i, i+1)
	l.mu.Unlock()

	tx.MarkChanged(l)
	return true
}

// Push appends items in its own write transaction.
func (l *List[T]) Push(items ...T) {
	_ = l.handle.store.Write(func(tx *Tx) error {
		l.Append(tx, items...)
		return nil
	})
}

// Copy returns a []T copy of the items.
func (l *List[T]) Copy() Record {
	return l.Items()
}

// Restore writes a []T previously returned by Copy.
func (l *List[T]) Restore(tx *Tx, r Record) error {
	items, err := recordAs[[]T](r)
	if err != nil {
		return err
	}
	l.Replace(tx, items)
	return nil
}
