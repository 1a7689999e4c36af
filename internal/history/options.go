package history

import "log/slog"

// Option configures an Engine during creation.
type Option func(*Engine)

// WithMaxFrames bounds the number of saved frames. Zero means unlimited.
func WithMaxFrames(max int) Option {
	return func(e *Engine) {
		if max >= 0 {
			e.maxFrames = max
		}
	}
}

// WithLogger sets the logger used for diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithMetrics reports engine activity to m.
func WithMetrics(m *Metrics) Option {
	return func(e *Engine) {
		e.metrics = m
	}
}
