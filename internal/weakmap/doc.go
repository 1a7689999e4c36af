// Package weakmap provides an iterable map whose keys are held weakly.
//
// Holding an entry never keeps its key alive. Once the garbage collector
// reclaims a key, the entry disappears from Get and ForEach and its storage
// is released by a later cleanup step.
//
// # Structure
//
// A Map combines three pieces:
//
//   - a map from weak.Pointer keys to value holders, the authoritative store
//   - a weak back-reference from each holder to its key
//   - a singly linked list of weak references to the holders, which makes
//     enumeration possible
//
// # Cleanup
//
// Dead list nodes are removed in two ways. Every Get and Set advances a
// persistent cursor by one node, unlinking it if it is dead. ForEach unlinks
// every dead node it walks past. No operation ever scans the whole list just
// to clean it.
//
// # Usage
//
//	labels := weakmap.New[Widget, string]()
//	labels.Set(w, "toolbar")
//
//	if name, ok := labels.Get(w); ok {
//	    fmt.Println(name)
//	}
//
//	labels.ForEach(func(w *Widget, name string) {
//	    fmt.Println(name)
//	})
//
// # Thread Safety
//
// All Map operations are safe for concurrent use. ForEach collects the live
// entries under the lock and calls the visitor after releasing it, so the
// visitor may call back into the Map.
package weakmap
