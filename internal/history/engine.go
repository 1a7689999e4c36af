package history

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/dshills/rewind/internal/state"
)

// Engine records tracked objects into frames and restores them.
//
// All operations are thread-safe. The store transaction is always entered
// before the engine lock is taken.
type Engine struct {
	mu sync.Mutex

	store *state.Store

	tracked map[state.Recordable]struct{}
	pending map[state.Recordable]state.Record
	frames  []*Frame
	current int

	session *session

	// Configuration
	maxFrames int
	logger    *slog.Logger
	metrics   *Metrics
}

// New creates an engine over store with an empty history.
func New(store *state.Store, opts ...Option) *Engine {
	e := &Engine{
		store:   store,
		tracked: make(map[state.Recordable]struct{}),
		pending: make(map[state.Recordable]state.Record),
		current: NoFrame,
		logger:  slog.New(slog.DiscardHandler),
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// StartTracking adds obj to the tracked set and copies its current value
// into the pending frame. obj must be a state.Recordable of the engine's
// store; otherwise an error is returned and nothing changes.
// Tracking an already tracked object refreshes its pending copy.
func (e *Engine) StartTracking(obj any) error {
	rec, ok := obj.(state.Recordable)
	if !ok {
		return fmt.Errorf("%w: %T", ErrNotRecordable, obj)
	}
	if rec.Handle().Store() != e.store {
		return fmt.Errorf("%w: %s", ErrForeignObject, rec.Handle())
	}

	e.store.Read(func() {
		e.mu.Lock()
		defer e.mu.Unlock()

		e.tracked[rec] = struct{}{}
		e.pending[rec] = rec.Copy()
	})

	e.logger.Debug("history: tracking", slog.String("object", e.store.Describe(rec)))
	return nil
}

// StopTracking removes obj from the tracked set, the pending frame and
// every saved frame. Untracked objects are ignored.
func (e *Engine) StopTracking(obj state.Recordable) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if _, ok := e.tracked[obj]; !ok {
		return
	}

	delete(e.tracked, obj)
	delete(e.pending, obj)
	for _, f := range e.frames {
		delete(f.records, obj)
	}
}

// IsTracking reports whether obj is tracked.
func (e *Engine) IsTracking(obj state.Recordable) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	_, ok := e.tracked[obj]
	return ok
}

// Tracked returns the number of tracked objects.
func (e *Engine) Tracked() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.tracked)
}

// Pending returns the number of records in the pending frame.
func (e *Engine) Pending() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.pending)
}

// SaveFrame appends the pending frame to the history and starts a new,
// empty pending frame. When the current frame is not the last one, the
// frames after it are discarded first; if nothing was recorded since, the
// current frame stays the last one and nothing is appended. It reports
// false, changing nothing, when no object is tracked.
func (e *Engine) SaveFrame() bool {
	saved := false
	_ = e.store.Write(func(*state.Tx) error {
		e.mu.Lock()
		defer e.mu.Unlock()
		saved = e.saveLocked()
		return nil
	})
	return saved
}

// saveLocked implements SaveFrame (must hold lock).
func (e *Engine) saveLocked() bool {
	if len(e.tracked) == 0 {
		return false
	}

	trimmed := 0
	if last := len(e.frames) - 1; e.current < last {
		trimmed = last - e.current
		clear(e.frames[e.current+1:])
		e.frames = e.frames[:e.current+1]

		// Nothing changed since the restore: the current frame already
		// describes the present, so the save only drops the future.
		if len(e.pending) == 0 {
			e.metrics.trimmed(trimmed, len(e.frames))
			e.logger.Debug("history: future frames trimmed",
				slog.Int("index", e.current),
				slog.Int("trimmed", trimmed))
			return true
		}
	}

	f := newFrame(e.pending)
	e.pending = make(map[state.Recordable]state.Record)
	e.frames = append(e.frames, f)

	folded := 0
	for e.maxFrames > 0 && len(e.frames) > e.maxFrames {
		e.foldOldestLocked()
		folded++
	}
	e.current = len(e.frames) - 1

	e.metrics.saved(trimmed, folded, len(e.frames))
	e.logger.Debug("history: frame saved",
		slog.String("id", f.ID),
		slog.Int("index", e.current),
		slog.Int("size", len(f.records)),
		slog.Int("trimmed", trimmed),
		slog.Int("folded", folded))
	return true
}

// foldOldestLocked drops the oldest frame after copying the records its
// successor lacks into the successor (must hold lock, needs two frames).
func (e *Engine) foldOldestLocked() {
	oldest, next := e.frames[0], e.frames[1]
	for obj, rec := range oldest.records {
		if _, ok := next.records[obj]; !ok {
			next.records[obj] = rec
		}
	}
	e.frames[0] = nil
	e.frames = e.frames[1:]
}

// SetCurrentFrame restores every tracked object to its value at frame
// index, clamped to the saved range. Objects that no frame up to index
// holds are left untouched. The restore commit is never recorded; an
// active recording session stays attached and keeps its callback.
//
// The returned error joins the failures of individual restores; the
// current frame moves regardless.
func (e *Engine) SetCurrentFrame(index int) error {
	return e.seek(func(int) int { return index })
}

// Undo moves to the frame before the current one.
func (e *Engine) Undo() error {
	return e.seek(func(cur int) int { return cur - 1 })
}

// Redo moves to the frame after the current one.
func (e *Engine) Redo() error {
	return e.seek(func(cur int) int { return cur + 1 })
}

// seek moves the current frame to target(current).
func (e *Engine) seek(target func(cur int) int) error {
	var restoreErr error
	_ = e.store.Write(func(tx *state.Tx) error {
		e.mu.Lock()
		defer e.mu.Unlock()

		if len(e.frames) == 0 {
			return nil
		}
		index := min(max(target(e.current), 0), len(e.frames)-1)
		if index == e.current {
			return nil
		}

		tx.SetOrigin(e)
		restoreErr = e.restoreLocked(tx, index)
		e.current = index
		e.metrics.restored()
		return nil
	})
	return restoreErr
}

// restoreLocked writes each tracked object's record at index (must hold lock).
func (e *Engine) restoreLocked(tx *state.Tx, index int) error {
	var errs []error
	for obj := range e.tracked {
		rec, ok := e.recordAtLocked(obj, index)
		if !ok {
			e.logger.Debug("history: no frame holds object",
				slog.String("object", e.store.Describe(obj)),
				slog.Int("frame", index))
			continue
		}
		if err := obj.Restore(tx, rec); err != nil {
			errs = append(errs, fmt.Errorf("restore %s: %w", e.store.Describe(obj), err))
		}
	}

	err := errors.Join(errs...)
	if err != nil {
		e.logger.Warn("history: restore failed", slog.Int("frame", index), slog.Any("error", err))
	}
	return err
}

// recordAtLocked finds the newest record of obj at or before index
// (must hold lock).
func (e *Engine) recordAtLocked(obj state.Recordable, index int) (state.Record, bool) {
	for i := index; i >= 0; i-- {
		if rec, ok := e.frames[i].records[obj]; ok {
			return rec, true
		}
	}
	return nil, false
}

// RecordAt returns the record of obj that restoring frame index would
// write, and whether one exists.
func (e *Engine) RecordAt(obj state.Recordable, index int) (state.Record, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if index < 0 || index >= len(e.frames) {
		return nil, false
	}
	return e.recordAtLocked(obj, index)
}

// FrameCount returns the number of saved frames.
func (e *Engine) FrameCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.frames)
}

// CurrentFrame returns the index of the frame representing the present,
// or NoFrame when the history is empty.
func (e *Engine) CurrentFrame() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.current
}

// CanUndo reports whether a frame exists before the current one.
func (e *Engine) CanUndo() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.current > 0
}

// CanRedo reports whether a frame exists after the current one.
func (e *Engine) CanRedo() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.current < len(e.frames)-1
}

// Frames describes the saved frames, oldest first.
func (e *Engine) Frames() []FrameInfo {
	e.mu.Lock()
	defer e.mu.Unlock()

	result := make([]FrameInfo, len(e.frames))
	for i, f := range e.frames {
		result[i] = FrameInfo{
			Index: i,
			ID:    f.ID,
			Time:  f.Time,
			Size:  len(f.records),
		}
	}
	return result
}

// Clear drops every saved frame and the pending frame. Tracked objects
// stay tracked; their next change starts a new history.
func (e *Engine) Clear() {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.frames = nil
	e.pending = make(map[state.Recordable]state.Record)
	e.current = NoFrame
	e.metrics.cleared()
}

// Close stops recording. The engine stays usable.
func (e *Engine) Close() error {
	e.StopRecording()
	return nil
}
