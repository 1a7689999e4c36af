package history

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus collectors for an Engine.
// A nil *Metrics records nothing.
type Metrics struct {
	FramesSaved   prometheus.Counter
	FramesTrimmed prometheus.Counter
	FramesFolded  prometheus.Counter
	Restores      prometheus.Counter
	Captures      prometheus.Counter
	Frames        prometheus.Gauge
}

// NewMetrics creates the collectors and registers them with reg.
// A nil reg leaves them unregistered.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		FramesSaved: f.NewCounter(prometheus.CounterOpts{
			Namespace: "rewind",
			Subsystem: "history",
			Name:      "frames_saved_total",
			Help:      "Frames appended to the history.",
		}),
		FramesTrimmed: f.NewCounter(prometheus.CounterOpts{
			Namespace: "rewind",
			Subsystem: "history",
			Name:      "frames_trimmed_total",
			Help:      "Future frames discarded by saving while viewing the past.",
		}),
		FramesFolded: f.NewCounter(prometheus.CounterOpts{
			Namespace: "rewind",
			Subsystem: "history",
			Name:      "frames_folded_total",
			Help:      "Oldest frames folded away by the depth limit.",
		}),
		Restores: f.NewCounter(prometheus.CounterOpts{
			Namespace: "rewind",
			Subsystem: "history",
			Name:      "restores_total",
			Help:      "Moves of the current frame.",
		}),
		Captures: f.NewCounter(prometheus.CounterOpts{
			Namespace: "rewind",
			Subsystem: "history",
			Name:      "captures_total",
			Help:      "Object values copied into the pending frame while recording.",
		}),
		Frames: f.NewGauge(prometheus.GaugeOpts{
			Namespace: "rewind",
			Subsystem: "history",
			Name:      "frames",
			Help:      "Frames currently held.",
		}),
	}
}

func (m *Metrics) saved(trimmed, folded, frames int) {
	if m == nil {
		return
	}
	m.FramesSaved.Inc()
	m.FramesTrimmed.Add(float64(trimmed))
	m.FramesFolded.Add(float64(folded))
	m.Frames.Set(float64(frames))
}

func (m *Metrics) trimmed(trimmed, frames int) {
	if m == nil {
		return
	}
	m.FramesTrimmed.Add(float64(trimmed))
	m.Frames.Set(float64(frames))
}

func (m *Metrics) restored() {
	if m == nil {
		return
	}
	m.Restores.Inc()
}

func (m *Metrics) captured(n int) {
	if m == nil {
		return
	}
	m.Captures.Add(float64(n))
}

func (m *Metrics) cleared() {
	if m == nil {
		return
	}
	m.Frames.Set(0)
}
