package browse

import "sync/atomic"

// Sequencer hands out monotonically increasing request numbers for one logical query stream.
// Only the response carrying the latest number may be applied.
type Sequencer struct {
	last atomic.Uint64
}

// Next issues a new request number
func (s *Sequencer) Next() uint64 {
	return s.last.Add(1)
}

// IsLatest reports whether seq is the most recently issued number
func (s *Sequencer) IsLatest(seq uint64) bool {
	return s.last.Load() == seq
}

// Invalidate makes every request issued so far stale
func (s *Sequencer) Invalidate() {
	s.last.Add(1)
}
