// Package state provides observable, transactional value holders.
//
// A Store owns a set of objects (Cell, List, Dict, Signal). Objects are
// mutated inside write transactions; when a write transaction commits, the
// Store calls every registered ApplyObserver with the objects that changed.
//
// # Transactions
//
//	store := state.NewStore()
//	x := state.NewCell(store, 0)
//	y := state.NewList[string](store, nil)
//
//	err := store.Write(func(tx *state.Tx) error {
//	    x.Put(tx, 1)
//	    y.Append(tx, "a")
//	    return nil
//	})
//
// Write transactions are exclusive. Read opens a shared transaction; no write
// transaction can commit while it runs, so several objects can be copied
// consistently. Convenience setters such as Cell.Set open their own write
// transaction.
//
// # Observation
//
//	sub := store.RegisterApplyObserver(func(changed []state.Object, c state.Commit) {
//	    ...
//	})
//	defer sub.Dispose()
//
// Observers run synchronously on the committing goroutine after the write
// lock has been released, so they may open new transactions.
//
// # Recording
//
// Cell, List and Dict implement Recordable: Copy returns an immutable Record
// of the current value and Restore writes a Record back inside a transaction.
// Signal carries no value and is not Recordable.
//
// # Labels
//
// Store.Label attaches a diagnostic name to an object without keeping the
// object alive.
package state
