package state

import (
	"fmt"
	"reflect"
)

// Handle identifies an object within its store.
// Handles are compared by pointer; every object owns exactly one.
type Handle struct {
	id    uint64
	store *Store
}

// ID returns the store-unique object number.
func (h *Handle) ID() uint64 {
	return h.id
}

// Store returns the store that owns the object.
func (h *Handle) Store() *Store {
	return h.store
}

// String returns a short identifier such as "#12".
func (h *Handle) String() string {
	return fmt.Sprintf("#%d", h.id)
}

// Object is anything a store can report as changed.
type Object interface {
	Handle() *Handle
}

// Record is an immutable copy of an object's value.
type Record any

// Recordable is an object whose value can be copied out and written back.
type Recordable interface {
	Object

	// Copy returns a Record of the current value. The Record must not
	// share mutable storage with the object.
	Copy() Record

	// Restore overwrites the current value with r inside tx.
	Restore(tx *Tx, r Record) error
}

// recordAs converts r to T. A nil Record converts to the zero value.
func recordAs[T any](r Record) (T, error) {
	var zero T
	if r == nil {
		return zero, nil
	}
	v, ok := r.(T)
	if !ok {
		return zero, fmt.Errorf("%w: got %T, want %s", ErrRecordType, r, reflect.TypeFor[T]())
	}
	return v, nil
}
