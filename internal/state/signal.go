package state

// Signal is a valueless object. Bumping it notifies observers without
// carrying any state, so it cannot be recorded.
type Signal struct {
	handle *Handle
}

// NewSignal creates a signal in s.
func NewSignal(s *Store) *Signal {
	return &Signal{handle: s.newHandle()}
}

// Handle returns the signal's identity.
func (g *Signal) Handle() *Handle {
	return g.handle
}

// Bump marks the signal as changed inside tx.
func (g *Signal) Bump(tx *Tx) {
	tx.MarkChanged(g)
}

// Fire bumps the signal in its own write transaction.
func (g *Signal) Fire() {
	_ = g.handle.store.Write(func(tx *Tx) error {
		g.Bump(tx)
		return nil
	})
}
