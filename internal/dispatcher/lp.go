// Package dispatcher implements the Event Dispatcher of §4.4: the three
// internal event kinds (GET_NEXT, SEND_POSTED, SEND_ARRIVED), their forward
// handlers, and the paired reverse handlers that undo each one bit for bit
// per §9's "tagged reverse-descriptor" discipline.
package dispatcher

import (
	"time"

	"github.com/codes-sim/mpi-replay/internal/logging"
	"github.com/codes-sim/mpi-replay/internal/lpstate"
	"github.com/codes-sim/mpi-replay/internal/metrics"
	"github.com/codes-sim/mpi-replay/internal/netmodel"
	"github.com/codes-sim/mpi-replay/internal/rng"
	"github.com/codes-sim/mpi-replay/internal/simerr"
	"github.com/codes-sim/mpi-replay/internal/tracebuffer"
	"github.com/codes-sim/mpi-replay/internal/wkldop"
)

// ReverseDescriptor is the tagged union the kernel hands back when rolling
// an event back (§9). Exactly one of the three fields is set.
type ReverseDescriptor struct {
	GetNext     *GetNextReverse
	SendPosted  *SendPostedReverse
	SendArrived *SendArrivedReverse
}

// LP is one NW-LP's dispatcher context: its state, trace stream, RNG draw
// log, the network model it sends through, and the scheduling/routing
// hooks wired in by the simulation layer.
type LP struct {
	ID   uint64
	Rank int32
	App  int32

	State  *lpstate.State
	Buffer *tracebuffer.Buffer
	RNG    *rng.Stream
	Net    netmodel.Model

	Lookahead time.Duration
	Noise     float64

	// Schedule posts fn to run at simulated time at. Wired to a
	// simkernel.Scheduler (or simkernel.MockScheduler in tests).
	Schedule func(at time.Duration, fn func(now time.Duration))

	// RouteArrival delivers an arrived send to its destination LP as a
	// SEND_ARRIVED event, resolving dstRank to the right LP and running its
	// SEND_ARRIVED handler at time at. Wired by the simulation layer, which owns
	// the full rank-to-LP directory; a single LP does not.
	RouteArrival func(dstRank int32, op wkldop.WorkloadOp, at time.Duration)

	// ResolveDestLP maps a destination rank to its global LP id, for the
	// netmodel.Model call's bookkeeping (§6's dragonfly special case or the
	// mapping collaborator). Defaults to treating the rank as the LP id.
	ResolveDestLP func(dstRank int32) uint64

	Logger *logging.Logger

	// Observer reports bytes moved to the finalize-time metrics registry.
	// Defaults to metrics.NoOpObserver{} (set by New); byte counts are a
	// reporting aggregate, not LP state, so rollback does not unwind them.
	Observer metrics.Observer

	// ReverseLog is an append-only stack of descriptors for events this LP
	// has run, available for a real kernel binding to pop for rollback.
	ReverseLog []ReverseDescriptor
}

// New creates a dispatcher context for one LP. noise defaults to
// DefaultNoise if zero.
func New(id uint64, rank, app int32, state *lpstate.State, buf *tracebuffer.Buffer, stream *rng.Stream, net netmodel.Model, lookahead time.Duration, noise float64) *LP {
	if noise == 0 {
		noise = DefaultNoise
	}
	lp := &LP{
		ID:        id,
		Rank:      rank,
		App:       app,
		State:     state,
		Buffer:    buf,
		RNG:       stream,
		Net:       net,
		Lookahead: lookahead,
		Noise:     noise,
		Logger:    logging.Default(),
		Observer:  metrics.NoOpObserver{},
	}
	lp.ResolveDestLP = func(dstRank int32) uint64 { return uint64(dstRank) }
	return lp
}

// scheduleGetNext self-schedules a GET_NEXT event with the standard
// jittered delay, returning how many RNG draws it consumed (always 1) so
// the caller's reverse descriptor can record it.
func (lp *LP) scheduleGetNext(now time.Duration) int {
	delay := jitterDelay(lp.Lookahead, lp.RNG, lp.Noise)
	at := now + delay
	lp.Schedule(at, func(t time.Duration) {
		rev := lp.ForwardGetNext(t)
		lp.push(ReverseDescriptor{GetNext: &rev})
	})
	return 1
}

func (lp *LP) push(d ReverseDescriptor) {
	lp.ReverseLog = append(lp.ReverseLog, d)
}

// Kickoff self-schedules this LP's very first GET_NEXT at simulated time 0.
// Callers that wire up a cluster of LPs (e.g. the simulation package) call
// this once per LP after every LP's Schedule/RouteArrival hooks are set.
func (lp *LP) Kickoff() {
	lp.Schedule(0, func(now time.Duration) {
		rev := lp.ForwardGetNext(now)
		lp.push(ReverseDescriptor{GetNext: &rev})
	})
}

// DeliverArrival runs the SEND_ARRIVED forward handler for an op that just
// arrived at this LP (op.Dst == lp.Rank), pushing the reverse descriptor
// onto this LP's own log. Wired as the target of a peer LP's RouteArrival.
func (lp *LP) DeliverArrival(now time.Duration, op wkldop.WorkloadOp) {
	rev := lp.ForwardSendArrived(now, op)
	lp.push(ReverseDescriptor{SendArrived: &rev})
}

// Rollback pops and undoes the most recent event this LP ran. It is fatal
// to call Rollback with nothing on the log (§4.5 "reverse on empty queue").
func (lp *LP) Rollback() error {
	n := len(lp.ReverseLog)
	if n == 0 {
		return simerr.NewLP("Rollback", lp.ID, lp.Rank, simerr.CodeEmptyReverseStack, "no events to roll back")
	}
	d := lp.ReverseLog[n-1]
	lp.ReverseLog = lp.ReverseLog[:n-1]

	switch {
	case d.GetNext != nil:
		lp.ReverseGetNext(*d.GetNext)
	case d.SendPosted != nil:
		lp.ReverseSendPosted(*d.SendPosted)
	case d.SendArrived != nil:
		lp.ReverseSendArrived(*d.SendArrived)
	}
	return nil
}

// bumpCounter increments the scalar counter matching op.Kind.
func bumpCounter(c *lpstate.Counters, kind wkldop.Kind, delta int64) {
	switch kind {
	case wkldop.KindSend:
		c.NumSends = uint64(int64(c.NumSends) + delta)
	case wkldop.KindRecv:
		c.NumRecvs = uint64(int64(c.NumRecvs) + delta)
	case wkldop.KindCollective:
		c.NumCols = uint64(int64(c.NumCols) + delta)
	case wkldop.KindDelay:
		c.NumDelays = uint64(int64(c.NumDelays) + delta)
	case wkldop.KindWaitall:
		c.NumWaitall = uint64(int64(c.NumWaitall) + delta)
	case wkldop.KindWaitsome:
		c.NumWaitsome = uint64(int64(c.NumWaitsome) + delta)
	case wkldop.KindWait, wkldop.KindWaitany:
		c.NumWait = uint64(int64(c.NumWait) + delta)
	}
}
