package state

import "sync"

// Cell holds a single value. T should be immutable or treated as such;
// the Record of a Cell is the value itself.
type Cell[T any] struct {
	handle *Handle

	mu    sync.RWMutex
	value T
}

// NewCell creates a cell in s holding initial.
func NewCell[T any](s *Store, initial T) *Cell[T] {
	return &Cell[T]{
		handle: s.newHandle(),
		value:  initial,
	}
}

// Handle returns the cell's identity.
func (c *Cell[T]) Handle() *Handle {
	return c.handle
}

// Get returns the current value.
func (c *Cell[T]) Get() T {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.value
}

// Put replaces the value inside tx.
func (c *Cell[T]) Put(tx *Tx, v T) {
	tx.check(c)

	c.mu.Lock()
	c.value = v
	c.mu.Unlock()

	tx.MarkChanged(c)
}

// Set replaces the value in its own write transaction.
func (c *Cell[T]) Set(v T) {
	_ = c.handle.store.Write(func(tx *Tx) error {
		c.Put(tx, v)
		return nil
	})
}

// Update replaces the value with fn(current) in its own write transaction.
func (c *Cell[T]) Update(fn func(T) T) {
	_ = c.handle.store.Write(func(tx *Tx) error {
		c.Put(tx, fn(c.Get()))
		return nil
	})
}

// Copy returns the current value.
func (c *Cell[T]) Copy() Record {
	return c.Get()
}

// Restore writes a value previously returned by Copy.
func (c *Cell[T]) Restore(tx *Tx, r Record) error {
	v, err := recordAs[T](r)
	if err != nil {
		return err
	}
	c.Put(tx, v)
	return nil
}
