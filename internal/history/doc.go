// Package history provides frame-based undo/redo for state objects.
//
// An Engine records the values of tracked objects into frames and can
// rewind every tracked object to the value it held at any saved frame.
//
// # Frames
//
// A frame is a sparse record: it holds a copy only for the objects that
// changed (or started being tracked) since the previous frame. Restoring a
// frame therefore scans backward, per object, to the nearest frame that
// holds that object.
//
//	store := state.NewStore()
//	x := state.NewCell(store, 0)
//
//	h := history.New(store)
//	h.StartTracking(x) // baseline x=0 goes into the pending frame
//	h.StartRecording(nil)
//
//	x.Set(1)
//	h.SaveFrame() // frame 0: x=1
//	x.Set(2)
//	h.SaveFrame() // frame 1: x=2
//
//	h.Undo() // x=1, CurrentFrame()==0
//	h.Redo() // x=2, CurrentFrame()==1
//
// # Recording
//
// While recording, the engine listens to the store's apply notifications
// and copies the new values of tracked objects into the pending frame. The
// engine never saves a frame on its own; callers decide when via SaveFrame,
// typically from the onCommitted callback or on a timer.
//
// RecordChanges runs a recording session bound to a context:
//
//	ctx, cancel := context.WithCancel(context.Background())
//	go h.RecordChanges(ctx, func() { h.SaveFrame() })
//	...
//	cancel() // recording stops
//
// # Branching
//
// Saving a frame while viewing the past discards every frame after the
// current one before appending, so the history never holds a future that
// no longer matches reality.
//
// # Depth Limit
//
// WithMaxFrames bounds the history. The oldest frame is folded into its
// successor before it is dropped, so restoring any remaining frame gives
// the same values it gave before.
//
// # Thread Safety
//
// All Engine operations are thread-safe. Captures and restores run inside
// store transactions, and the store transaction is always entered before
// the engine lock.
package history
