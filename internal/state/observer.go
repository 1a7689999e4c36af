package state

import (
	"slices"
	"sync/atomic"
)

// ApplyObserver is called after a write transaction commits. changed lists
// each modified object once and must not be retained or modified.
type ApplyObserver func(changed []Object, c Commit)

// SubscriptionState represents the state of an observer registration.
type SubscriptionState int32

const (
	// SubscriptionActive means the observer receives commits.
	SubscriptionActive SubscriptionState = iota

	// SubscriptionDisposed means the observer has been removed for good.
	SubscriptionDisposed
)

// String returns a human-readable state name.
func (s SubscriptionState) String() string {
	switch s {
	case SubscriptionActive:
		return "active"
	case SubscriptionDisposed:
		return "disposed"
	default:
		return "unknown"
	}
}

// Subscription is the handle returned by RegisterApplyObserver.
type Subscription struct {
	id       uint64
	store    *Store
	observer ApplyObserver
	state    atomic.Int32
}

// RegisterApplyObserver registers fn to be called after every write
// transaction that changed at least one object.
func (s *Store) RegisterApplyObserver(fn ApplyObserver) *Subscription {
	sub := &Subscription{
		id:       s.nextSub.Add(1),
		store:    s,
		observer: fn,
	}

	s.obsMu.Lock()
	s.observers = append(s.observers, sub)
	s.obsMu.Unlock()

	return sub
}

// ObserverCount returns the number of registered observers.
func (s *Store) ObserverCount() int {
	s.obsMu.RLock()
	defer s.obsMu.RUnlock()
	return len(s.observers)
}

// ID returns the registration number.
func (sub *Subscription) ID() uint64 {
	return sub.id
}

// State returns the current state.
func (sub *Subscription) State() SubscriptionState {
	return SubscriptionState(sub.state.Load())
}

// Active reports whether the observer still receives commits.
func (sub *Subscription) Active() bool {
	return sub.State() == SubscriptionActive
}

// Dispose removes the observer. It reports false if it was already disposed.
// A commit being delivered concurrently may still reach the observer.
func (sub *Subscription) Dispose() bool {
	if !sub.state.CompareAndSwap(int32(SubscriptionActive), int32(SubscriptionDisposed)) {
		return false
	}

	s := sub.store
	s.obsMu.Lock()
	s.observers = slices.DeleteFunc(s.observers, func(o *Subscription) bool {
		return o == sub
	})
	s.obsMu.Unlock()
	return true
}
