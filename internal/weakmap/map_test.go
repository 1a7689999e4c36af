package weakmap

import (
	"fmt"
	"runtime"
	"sync"
	"testing"
)

// testKey is large enough and holds a pointer, so it never shares a tiny
// allocation block with an unrelated object.
type testKey struct {
	name string
	pad  [4]int64
}

func newKey(name string) *testKey {
	return &testKey{name: name}
}

// forceGC runs enough collections for unreachable keys to be cleared.
func forceGC() {
	runtime.GC()
	runtime.GC()
}

// fillDead inserts n keys that nothing else references.
//
//go:noinline
func fillDead[V any](m *Map[testKey, V], n int) {
	var zero V
	for i := 0; i < n; i++ {
		m.Set(newKey(fmt.Sprintf("dead-%d", i)), zero)
	}
}

func TestSetGet(t *testing.T) {
	m := New[testKey, string]()
	foo := newKey("foo")

	m.Set(foo, "bar")
	if got, ok := m.Get(foo); !ok || got != "bar" {
		t.Fatalf("Get = %q, %v; want bar, true", got, ok)
	}

	m.Set(foo, "baz")
	if got, _ := m.Get(foo); got != "baz" {
		t.Errorf("after overwrite Get = %q, want baz", got)
	}
	if m.nodes != 1 {
		t.Errorf("overwrite grew list to %d nodes", m.nodes)
	}

	if _, ok := m.Get(newKey("foo")); ok {
		t.Error("lookup must use identity, not structural equality")
	}
	runtime.KeepAlive(foo)
}

func TestNilKey(t *testing.T) {
	m := New[testKey, int]()
	m.Set(nil, 1)
	if _, ok := m.Get(nil); ok {
		t.Error("nil key should never be present")
	}
	if m.Delete(nil) {
		t.Error("Delete(nil) should report false")
	}
	if m.Len() != 0 {
		t.Errorf("Len = %d, want 0", m.Len())
	}
}

func TestForEachOrder(t *testing.T) {
	m := New[testKey, int]()
	a, b, c := newKey("a"), newKey("b"), newKey("c")
	m.Set(a, 1)
	m.Set(b, 2)
	m.Set(c, 3)
	m.Set(a, 10) // keeps its original position

	var names []string
	var values []int
	m.ForEach(func(k *testKey, v int) {
		names = append(names, k.name)
		values = append(values, v)
	})

	wantNames := []string{"c", "b", "a"}
	wantValues := []int{3, 2, 10}
	for i := range wantNames {
		if names[i] != wantNames[i] || values[i] != wantValues[i] {
			t.Fatalf("ForEach = %v %v, want %v %v", names, values, wantNames, wantValues)
		}
	}
	runtime.KeepAlive([]*testKey{a, b, c})
}

func TestForEachThousand(t *testing.T) {
	m := New[testKey, int]()
	keys := make([]*testKey, 1000)
	for i := range keys {
		keys[i] = newKey(fmt.Sprint(i))
		m.Set(keys[i], i)
	}

	seen := make(map[*testKey]int)
	m.ForEach(func(k *testKey, v int) {
		seen[k] = v
	})
	if len(seen) != 1000 {
		t.Fatalf("ForEach visited %d entries, want 1000", len(seen))
	}
	for i, k := range keys {
		if seen[k] != i {
			t.Fatalf("entry %d has value %d", i, seen[k])
		}
	}

	// Restartable: a second walk sees the same entries.
	if n := m.Len(); n != 1000 {
		t.Errorf("Len = %d, want 1000", n)
	}
}

func TestAll(t *testing.T) {
	m := New[testKey, int]()
	a, b := newKey("a"), newKey("b")
	m.Set(a, 1)
	m.Set(b, 2)

	var got []string
	for k := range m.All() {
		got = append(got, k.name)
		break
	}
	if len(got) != 1 || got[0] != "b" {
		t.Errorf("All with early break = %v, want [b]", got)
	}
	runtime.KeepAlive([]*testKey{a, b})
}

func TestDelete(t *testing.T) {
	m := New[testKey, string]()
	k := newKey("k")
	m.Set(k, "v")

	if !m.Delete(k) {
		t.Fatal("Delete should report true for a present key")
	}
	if m.Delete(k) {
		t.Error("second Delete should report false")
	}
	if _, ok := m.Get(k); ok {
		t.Error("deleted key still present")
	}
	if m.Len() != 0 {
		t.Errorf("Len = %d after delete", m.Len())
	}
	if m.nodes != 0 {
		t.Errorf("ForEach left %d nodes after delete", m.nodes)
	}

	m.Set(k, "again")
	if got, _ := m.Get(k); got != "again" {
		t.Errorf("Get after re-set = %q", got)
	}
	runtime.KeepAlive(k)
}

func TestReclaimedKeysDisappear(t *testing.T) {
	m := New[testKey, string]()
	live := newKey("live")
	m.Set(live, "kept")
	fillDead(m, 100)

	forceGC()

	var names []string
	m.ForEach(func(k *testKey, _ string) {
		names = append(names, k.name)
	})
	if len(names) != 1 || names[0] != "live" {
		t.Fatalf("ForEach after GC = %v, want [live]", names)
	}
	if m.nodes != 1 {
		t.Errorf("ForEach left %d nodes, want 1", m.nodes)
	}
	if len(m.entries) != 1 {
		t.Errorf("store holds %d entries, want 1", len(m.entries))
	}
	if got, ok := m.Get(live); !ok || got != "kept" {
		t.Errorf("live key lost: %q, %v", got, ok)
	}
	runtime.KeepAlive(live)
}

func TestAmortizedCleanup(t *testing.T) {
	const dead = 50

	m := New[testKey, int]()
	fillDead(m, dead)
	live := newKey("live")
	m.Set(live, 1)

	forceGC()

	// Each Get advances the cursor by one node or unlinks one dead node.
	for i := 0; i < 2*dead+4; i++ {
		m.Get(live)
	}
	if m.nodes != 1 {
		t.Errorf("after probing, list has %d nodes, want 1", m.nodes)
	}
	if len(m.entries) != 1 {
		t.Errorf("store holds %d entries, want 1", len(m.entries))
	}
	runtime.KeepAlive(live)
}

func TestCleanupCursorWraps(t *testing.T) {
	m := New[testKey, int]()
	a, b := newKey("a"), newKey("b")
	m.Set(a, 1)
	m.Set(b, 2)

	// The cleanup step made by Set(b) advanced the cursor onto a, the tail.
	m.Get(a)
	if m.cursor != &m.head {
		t.Fatal("cursor should wrap to the head after the tail")
	}

	// b, a, then wrap again.
	for i := 0; i < 3; i++ {
		m.Get(a)
	}
	if m.cursor != &m.head {
		t.Error("cursor should wrap after a full pass")
	}
	runtime.KeepAlive([]*testKey{a, b})
}

func TestConcurrentAccess(t *testing.T) {
	m := New[testKey, int]()
	keys := make([]*testKey, 64)
	for i := range keys {
		keys[i] = newKey(fmt.Sprint(i))
	}

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i, k := range keys {
				m.Set(k, g*i)
				m.Get(k)
				if i%16 == 0 {
					m.ForEach(func(*testKey, int) {})
				}
			}
		}(g)
	}
	wg.Wait()

	if n := m.Len(); n != len(keys) {
		t.Errorf("Len = %d, want %d", n, len(keys))
	}
	runtime.KeepAlive(keys)
}

func TestVisitorMayReenter(t *testing.T) {
	m := New[testKey, int]()
	k := newKey("k")
	m.Set(k, 1)

	m.ForEach(func(key *testKey, v int) {
		m.Set(key, v+1)
	})
	if got, _ := m.Get(k); got != 2 {
		t.Errorf("Get = %d, want 2", got)
	}
	runtime.KeepAlive(k)
}
