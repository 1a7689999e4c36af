package state

import "errors"

// Errors returned or raised by state operations.
var (
	// ErrRecordType indicates a Record does not match the object's value type.
	ErrRecordType = errors.New("record type mismatch")

	// ErrTxClosed indicates a write through a transaction that already ended.
	ErrTxClosed = errors.New("transaction is closed")

	// ErrForeignTx indicates a write through a transaction of another store.
	ErrForeignTx = errors.New("transaction belongs to another store")
)
