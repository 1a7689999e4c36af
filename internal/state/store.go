package state

import (
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dshills/rewind/internal/weakmap"
)

// Commit describes a committed write transaction.
type Commit struct {
	// ID increases with every commit that changed something.
	ID uint64

	// Time is when the transaction committed.
	Time time.Time

	// Origin is the value the writer passed to Tx.SetOrigin, or nil.
	Origin any
}

// Store coordinates transactions and change notification for its objects.
// All operations are thread-safe.
type Store struct {
	// txMu isolates write transactions from each other and from readers.
	txMu sync.RWMutex

	nextHandle atomic.Uint64
	nextCommit atomic.Uint64
	nextSub    atomic.Uint64

	obsMu     sync.RWMutex
	observers []*Subscription

	labels *weakmap.Map[Handle, string]
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		labels: weakmap.New[Handle, string](),
	}
}

// newHandle allocates the identity for a new object.
func (s *Store) newHandle() *Handle {
	return &Handle{id: s.nextHandle.Add(1), store: s}
}

// Write runs fn inside an exclusive write transaction.
//
// If fn changed any object, observers are notified after the transaction
// lock is released, even when fn returns an error; writes are not rolled
// back. The error from fn is returned unchanged.
func (s *Store) Write(fn func(tx *Tx) error) error {
	tx := &Tx{store: s}
	err := s.runWrite(tx, fn)

	if len(tx.changed) > 0 {
		s.notify(tx.changed, Commit{
			ID:     s.nextCommit.Add(1),
			Time:   time.Now(),
			Origin: tx.origin,
		})
	}
	return err
}

// runWrite holds the write lock for the duration of fn.
func (s *Store) runWrite(tx *Tx, fn func(tx *Tx) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()
	defer tx.close()
	return fn(tx)
}

// Read runs fn inside a shared transaction. No write transaction commits
// while fn runs.
func (s *Store) Read(fn func()) {
	s.txMu.RLock()
	defer s.txMu.RUnlock()
	fn()
}

// Label attaches a diagnostic name to obj. The label does not keep obj alive.
func (s *Store) Label(obj Object, name string) {
	s.labels.Set(obj.Handle(), name)
}

// LabelOf returns the label attached to obj.
func (s *Store) LabelOf(obj Object) (string, bool) {
	return s.labels.Get(obj.Handle())
}

// Labels calls fn for every labeled object that is still alive,
// most recently labeled first.
func (s *Store) Labels(fn func(h *Handle, name string)) {
	s.labels.ForEach(fn)
}

// Describe returns the label of obj, or its handle when unlabeled.
func (s *Store) Describe(obj Object) string {
	if name, ok := s.LabelOf(obj); ok {
		return name
	}
	return obj.Handle().String()
}

// notify delivers a commit to every active observer.
func (s *Store) notify(changed []Object, c Commit) {
	s.obsMu.RLock()
	subs := slices.Clone(s.observers)
	s.obsMu.RUnlock()

	for _, sub := range subs {
		if sub.Active() {
			sub.observer(changed, c)
		}
	}
}

// Tx is a write transaction. It is only valid inside the Write callback
// that received it.
type Tx struct {
	store   *Store
	changed []Object
	seen    map[*Handle]struct{}
	origin  any
	closed  bool
}

// SetOrigin tags the commit of tx so observers can tell who wrote it.
func (tx *Tx) SetOrigin(origin any) {
	if tx.closed {
		panic(ErrTxClosed)
	}
	tx.origin = origin
}

// MarkChanged records obj as changed by this transaction.
// Object implementations call it after mutating their value.
func (tx *Tx) MarkChanged(obj Object) {
	tx.check(obj)

	h := obj.Handle()
	if tx.seen == nil {
		tx.seen = make(map[*Handle]struct{})
	}
	if _, ok := tx.seen[h]; ok {
		return
	}
	tx.seen[h] = struct{}{}
	tx.changed = append(tx.changed, obj)
}

// Changed returns the number of distinct objects changed so far.
func (tx *Tx) Changed() int {
	return len(tx.changed)
}

// check panics when tx cannot be used to write obj.
func (tx *Tx) check(obj Object) {
	if tx.closed {
		panic(ErrTxClosed)
	}
	if obj.Handle().store != tx.store {
		panic(ErrForeignTx)
	}
}

func (tx *Tx) close() {
	tx.closed = true
}
