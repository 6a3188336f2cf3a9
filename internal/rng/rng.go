// Package rng provides the per-LP jitter source used to avoid PDES event
// ties on self-scheduled events. Every forward draw is appended to a log;
// reverse execution unrolls the log instead of reseeding, so the exact
// sequence of future draws is preserved bit for bit (§5/§9).
package rng

import "golang.org/x/exp/rand"

// Stream is an append-only record of exponential draws consumed by one LP.
// It is not safe for concurrent use; an LP is owned by one executor at a
// time (§5), so no internal locking is needed.
type Stream struct {
	source *rand.Rand
	draws  []float64
	units  []float64 // unit-rate source values behind draws, index for index
	redo   []float64 // unit-rate values removed by Unroll, earliest last
}

// New creates a draw stream seeded deterministically from seed so that two
// runs of the same trace produce identical jitter (required for reverse
// execution to be exactly undoable).
func New(seed uint64) *Stream {
	return &Stream{source: rand.New(rand.NewSource(seed))}
}

// Exp draws an exponential(mean) sample, records it, and returns it. mean is
// the distribution's mean (the source repo's "noise" parameter), matching
// Go's convention of scaling rand.ExpFloat64() (rate=1) by the mean. Values
// previously removed by Unroll are handed out again, in their original
// order, before any fresh value is taken from the source.
func (s *Stream) Exp(mean float64) float64 {
	var u float64
	if n := len(s.redo); n > 0 {
		u = s.redo[n-1]
		s.redo = s.redo[:n-1]
	} else {
		u = s.source.ExpFloat64()
	}
	v := u * mean
	s.draws = append(s.draws, v)
	s.units = append(s.units, u)
	return v
}

// Unroll removes the most recent n draws from the log, restoring the stream
// to the state it was in before those draws were made: the removed values
// are kept and returned again, in the same order, by the next n calls to
// Exp, so re-executing the rolled-back forward path reproduces the same
// draws.
func (s *Stream) Unroll(n int) {
	if n <= 0 {
		return
	}
	if n > len(s.draws) {
		n = len(s.draws)
	}
	for i := len(s.units) - 1; i >= len(s.units)-n; i-- {
		s.redo = append(s.redo, s.units[i])
	}
	s.draws = s.draws[:len(s.draws)-n]
	s.units = s.units[:len(s.units)-n]
}

// Len reports how many draws are currently recorded.
func (s *Stream) Len() int {
	return len(s.draws)
}

// Last returns the most recently recorded draw, if any.
func (s *Stream) Last() (float64, bool) {
	if len(s.draws) == 0 {
		return 0, false
	}
	return s.draws[len(s.draws)-1], true
}
