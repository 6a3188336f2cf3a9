// Package lpstate holds the per-NW-LP bookkeeping described in §3: the
// arrival and pending-receive FIFOs, the completed-requests set, the single
// pending-wait slot, and the scalar counters/timing accumulators reported
// at finalize. It mutates only through the matching and wait engines and
// the event dispatcher.
package lpstate

import (
	"time"

	"github.com/codes-sim/mpi-replay/internal/wkldop"
)

// WaitDescriptor is the LP's single outstanding wait, if any.
type WaitDescriptor struct {
	Op            wkldop.WorkloadOp
	NumCompleted  int
	StartTime     time.Duration
}

// Counters are the scalar operation counts reported at finalize.
type Counters struct {
	NumSends     uint64
	NumRecvs     uint64
	NumCols      uint64
	NumDelays    uint64
	NumWait      uint64
	NumWaitall   uint64
	NumWaitsome  uint64
}

// Timings are the accumulated timing buckets reported at finalize.
type Timings struct {
	ComputeTime    time.Duration
	SendTime       time.Duration
	RecvTime       time.Duration
	WaitTime       time.Duration
	SearchOverhead time.Duration
	ElapsedTime    time.Duration
}

// State is the full per-NW-LP record.
type State struct {
	LPID uint64
	Rank int32
	Done bool

	// arrival_queue: sends that arrived with no matching posted receive.
	ArrivalQueue []wkldop.WorkloadOp
	// pending_recvs: posted receives with no matching arrival.
	PendingRecvs []wkldop.WorkloadOp
	// completed_reqs: request IDs whose non-blocking op concluded locally
	// and is awaiting a matching Wait*.
	CompletedReqs map[uint16]struct{}

	PendingWait *WaitDescriptor

	Counters
	Timings
}

// New creates freshly initialized per-LP state (the "init" lifecycle hook).
func New(lpID uint64, rank int32) *State {
	return &State{
		LPID:          lpID,
		Rank:          rank,
		CompletedReqs: make(map[uint16]struct{}),
	}
}

// UnmatchedSends reports the number of sends still sitting in the arrival
// queue (never claimed by a posted receive) — logged, not retried, at End.
func (s *State) UnmatchedSends() int { return len(s.ArrivalQueue) }

// UnmatchedRecvs reports the number of posted receives still unmatched at
// End.
func (s *State) UnmatchedRecvs() int { return len(s.PendingRecvs) }

// MarkCompleted inserts reqID into the completed-requests set.
func (s *State) MarkCompleted(reqID uint16) {
	s.CompletedReqs[reqID] = struct{}{}
}

// UnmarkCompleted removes reqID from the completed-requests set. Returns
// false if reqID was not present (the reverse handler should only call this
// to undo its own prior MarkCompleted, so absence indicates a mis-paired
// forward/reverse call).
func (s *State) UnmarkCompleted(reqID uint16) bool {
	if _, ok := s.CompletedReqs[reqID]; !ok {
		return false
	}
	delete(s.CompletedReqs, reqID)
	return true
}

// IsCompleted reports whether reqID is in the completed-requests set.
func (s *State) IsCompleted(reqID uint16) bool {
	_, ok := s.CompletedReqs[reqID]
	return ok
}
