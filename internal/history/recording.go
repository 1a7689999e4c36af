package history

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/dshills/rewind/internal/state"
)

// session is one recording registration. It ends exactly once.
type session struct {
	id          string
	onCommitted func()

	sub   *state.Subscription // nil once ended
	ended bool
	done  chan struct{}
}

// StartRecording starts copying committed changes of tracked objects into
// the pending frame. onCommitted, if non-nil, runs after every commit that
// changed at least one tracked object. It reports false, changing nothing,
// if the engine is already recording.
func (e *Engine) StartRecording(onCommitted func()) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.session != nil {
		return false
	}
	e.beginLocked(onCommitted)
	return true
}

// StopRecording stops the active recording session. It reports false if
// the engine was not recording.
func (e *Engine) StopRecording() bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.session == nil {
		return false
	}
	e.endLocked(e.session)
	return true
}

// IsRecording reports whether committed changes are being recorded.
func (e *Engine) IsRecording() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.session != nil && e.session.sub != nil
}

// RecordChanges records until ctx is done or the session is stopped with
// StopRecording, then stops recording. It returns ctx.Err() on
// cancellation, nil when stopped, and ErrAlreadyRecording if another
// session is active.
func (e *Engine) RecordChanges(ctx context.Context, onCommitted func()) error {
	e.mu.Lock()
	if e.session != nil {
		e.mu.Unlock()
		return ErrAlreadyRecording
	}
	s := e.beginLocked(onCommitted)
	e.mu.Unlock()

	defer func() {
		e.mu.Lock()
		e.endLocked(s)
		e.mu.Unlock()
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-s.done:
		return nil
	}
}

// beginLocked creates and attaches a new session (must hold lock).
func (e *Engine) beginLocked(onCommitted func()) *session {
	s := &session{
		id:          uuid.NewString(),
		onCommitted: onCommitted,
		done:        make(chan struct{}),
	}
	e.session = s
	e.attachLocked(s)
	e.logger.Debug("history: recording started", slog.String("session", s.id))
	return s
}

// endLocked ends s; a no-op if it already ended (must hold lock).
func (e *Engine) endLocked(s *session) {
	if s.ended {
		return
	}
	s.ended = true
	close(s.done)

	if s.sub != nil {
		s.sub.Dispose()
		s.sub = nil
	}
	if e.session == s {
		e.session = nil
	}
	e.logger.Debug("history: recording stopped", slog.String("session", s.id))
}

// attachLocked registers the store observer for s (must hold lock).
func (e *Engine) attachLocked(s *session) {
	s.sub = e.store.RegisterApplyObserver(func(changed []state.Object, c state.Commit) {
		e.capture(changed, c, s.onCommitted)
	})
}

// capture copies the changed tracked objects into the pending frame.
// Commits written by a restore are skipped.
func (e *Engine) capture(changed []state.Object, c state.Commit, onCommitted func()) {
	if c.Origin == e {
		return
	}
	captured := 0
	e.store.Read(func() {
		e.mu.Lock()
		defer e.mu.Unlock()

		for _, obj := range changed {
			rec, ok := obj.(state.Recordable)
			if !ok {
				continue
			}
			if _, tracked := e.tracked[rec]; !tracked {
				continue
			}
			e.pending[rec] = rec.Copy()
			captured++
		}
	})

	if captured == 0 {
		return
	}
	e.metrics.captured(captured)
	e.logger.Debug("history: captured",
		slog.Uint64("commit", c.ID),
		slog.Int("objects", captured))

	if onCommitted != nil {
		onCommitted()
	}
}
