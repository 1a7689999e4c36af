package history

import (
	"time"

	"github.com/google/uuid"

	"github.com/dshills/rewind/internal/state"
)

// NoFrame is the current frame index of an empty history.
const NoFrame = -1

// Frame is a saved, sparse set of object records.
type Frame struct {
	// ID uniquely identifies this frame.
	ID string

	// Time is when the frame was saved.
	Time time.Time

	records map[state.Recordable]state.Record
}

// newFrame wraps records, taking ownership of the map.
func newFrame(records map[state.Recordable]state.Record) *Frame {
	return &Frame{
		ID:      uuid.NewString(),
		Time:    time.Now(),
		records: records,
	}
}

// FrameInfo describes a saved frame.
type FrameInfo struct {
	Index int
	ID    string
	Time  time.Time

	// Size is the number of objects recorded in the frame.
	Size int
}
