package history

import "errors"

// Errors returned by history operations.
var (
	// ErrNotRecordable indicates an object cannot be copied and restored.
	ErrNotRecordable = errors.New("object is not recordable")

	// ErrForeignObject indicates an object belongs to another store.
	ErrForeignObject = errors.New("object belongs to another store")

	// ErrAlreadyRecording indicates a recording session is already active.
	ErrAlreadyRecording = errors.New("already recording")
)
