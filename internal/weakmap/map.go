package weakmap

import (
	"iter"
	"sync"
	"weak"
)

// holder stores a value together with a weak back-reference to its key.
type holder[K, V any] struct {
	key     weak.Pointer[K]
	value   V
	removed bool
}

// node is a list cell. It references its holder weakly; the list exists
// only so that entries can be enumerated.
type node[K, V any] struct {
	holder weak.Pointer[holder[K, V]]
	next   *node[K, V]
}

// Map maps weakly held keys to values.
// The zero value is not usable; create maps with New.
type Map[K, V any] struct {
	mu sync.Mutex

	entries map[weak.Pointer[K]]*holder[K, V]

	// head is a sentinel; head.next is the most recently added key.
	head node[K, V]

	// cursor is the node before the next cleanup step target.
	cursor *node[K, V]

	// nodes is the current list length, dead nodes included.
	nodes int
}

// New creates an empty map.
func New[K, V any]() *Map[K, V] {
	m := &Map[K, V]{
		entries: make(map[weak.Pointer[K]]*holder[K, V]),
	}
	m.cursor = &m.head
	return m
}

// Get returns the value stored for key.
// It reports false if the key was never set, was deleted, or is nil.
func (m *Map[K, V]) Get(key *K) (V, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.stepLocked()

	var zero V
	if key == nil {
		return zero, false
	}
	h, ok := m.entries[weak.Make(key)]
	if !ok {
		return zero, false
	}
	return h.value, true
}

// Set stores value for key. An existing entry is overwritten in place and
// keeps its position in iteration order. A nil key is ignored.
func (m *Map[K, V]) Set(key *K, value V) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.stepLocked()

	if key == nil {
		return
	}

	wk := weak.Make(key)
	if h, ok := m.entries[wk]; ok {
		h.value = value
		return
	}

	h := &holder[K, V]{key: wk, value: value}
	m.entries[wk] = h
	m.head.next = &node[K, V]{
		holder: weak.Make(h),
		next:   m.head.next,
	}
	m.nodes++
}

// Delete removes the entry for key and reports whether one existed.
// The list node is unlinked lazily by the regular cleanup.
func (m *Map[K, V]) Delete(key *K) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if key == nil {
		return false
	}
	wk := weak.Make(key)
	h, ok := m.entries[wk]
	if !ok {
		return false
	}
	h.removed = true
	delete(m.entries, wk)
	return true
}

// ForEach calls fn for every live entry, most recently added key first.
// Dead entries found during the walk are unlinked.
func (m *Map[K, V]) ForEach(fn func(key *K, value V)) {
	type entry struct {
		key   *K
		value V
	}

	m.mu.Lock()
	var live []entry
	prev := &m.head
	for n := prev.next; n != nil; n = prev.next {
		key, h, ok := m.resolveLocked(n)
		if !ok {
			m.unlinkLocked(prev, n)
			continue
		}
		live = append(live, entry{key: key, value: h.value})
		prev = n
	}
	m.mu.Unlock()

	for _, e := range live {
		fn(e.key, e.value)
	}
}

// All returns an iterator over the live entries in ForEach order.
// The entries are collected when iteration starts.
func (m *Map[K, V]) All() iter.Seq2[*K, V] {
	return func(yield func(*K, V) bool) {
		var keys []*K
		var values []V
		m.ForEach(func(key *K, value V) {
			keys = append(keys, key)
			values = append(values, value)
		})
		for i := range keys {
			if !yield(keys[i], values[i]) {
				return
			}
		}
	}
}

// Len returns the number of live entries.
func (m *Map[K, V]) Len() int {
	n := 0
	m.ForEach(func(*K, V) { n++ })
	return n
}

// stepLocked performs one cleanup step at the cursor (must hold lock).
func (m *Map[K, V]) stepLocked() {
	prev := m.cursor
	n := prev.next
	if n == nil {
		m.cursor = &m.head
		return
	}
	if _, _, ok := m.resolveLocked(n); !ok {
		m.unlinkLocked(prev, n)
		return
	}
	m.cursor = n
}

// resolveLocked returns the live key and holder behind n. When the key has
// been reclaimed, its store entry is dropped and ok is false (must hold lock).
func (m *Map[K, V]) resolveLocked(n *node[K, V]) (key *K, h *holder[K, V], ok bool) {
	h = n.holder.Value()
	if h == nil || h.removed {
		return nil, nil, false
	}
	key = h.key.Value()
	if key == nil {
		delete(m.entries, h.key)
		h.removed = true
		return nil, nil, false
	}
	return key, h, true
}

// unlinkLocked removes n, which must follow prev (must hold lock).
func (m *Map[K, V]) unlinkLocked(prev, n *node[K, V]) {
	prev.next = n.next
	n.next = nil
	if m.cursor == n {
		m.cursor = prev
	}
	m.nodes--
}
