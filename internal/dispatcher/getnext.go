package dispatcher

import (
	"time"

	"github.com/codes-sim/mpi-replay/internal/matching"
	"github.com/codes-sim/mpi-replay/internal/waitengine"
	"github.com/codes-sim/mpi-replay/internal/wkldop"
)

// GetNextReverse is what ForwardGetNext did, so ReverseGetNext can undo it.
type GetNextReverse struct {
	Op                  wkldop.WorkloadOp
	PrevDone            bool
	ArrivalRemoval      *matching.Removal
	CompletedMarked     *uint16
	CompletedUnmarked   *uint16
	AppendedPendingRecv bool
	RecvTimeCharged     time.Duration
	ComputeTimeCharged  time.Duration
	WaitEnter           *waitengine.EnterRecord
	GetNextDraws        int
	SendPostedDraws     int
}

// ForwardGetNext pulls one op from the Trace Buffer and executes it per
// §4.1's op-kind mapping, self-scheduling whatever follow-up event the LP's
// new state calls for.
func (lp *LP) ForwardGetNext(now time.Duration) GetNextReverse {
	rev := GetNextReverse{PrevDone: lp.State.Done}

	op, err := lp.Buffer.GetNext()
	if err != nil {
		lp.Logger.Error("trace buffer exhausted unexpectedly", "lp", lp.ID, "rank", lp.Rank, "err", err)
		return rev
	}
	rev.Op = op
	bumpCounter(&lp.State.Counters, op.Kind, 1)

	switch op.Kind {
	case wkldop.KindEnd:
		lp.State.Done = true

	case wkldop.KindSend:
		op.SimStartTime = now
		lp.Observer.ObserveSend(lp.ID, op.Bytes)
		rev.SendPostedDraws = lp.scheduleSendPosted(now, op)
		destLPID := lp.ResolveDestLP(op.Dst)
		dstRank := op.Dst
		lp.Net.Send(lp.ID, destLPID, op, now, func(at time.Duration) {
			if lp.RouteArrival != nil {
				lp.RouteArrival(dstRank, op, at)
			}
		})
		if !op.Blocking {
			rev.GetNextDraws = lp.scheduleGetNext(now)
		}
		// Blocking Send suspends (WaitingOnBlockingSendLocal) until its own
		// SEND_POSTED event fires.

	case wkldop.KindRecv:
		idx, ok := matching.FindMatch(lp.State.ArrivalQueue, op, func(candidate, probe wkldop.WorkloadOp) bool {
			return matching.Matches(probe, candidate)
		})
		if ok {
			removal := matching.RemoveAt(&lp.State.ArrivalQueue, idx)
			rev.ArrivalRemoval = &removal

			lp.State.MarkCompleted(op.ReqID)
			id := op.ReqID
			rev.CompletedMarked = &id

			charged := now - removal.Op.SimStartTime
			lp.State.RecvTime += charged
			rev.RecvTimeCharged = charged
			lp.Observer.ObserveRecv(lp.ID, op.Bytes)

			rev.GetNextDraws = lp.scheduleGetNext(now)
		} else {
			matching.Append(&lp.State.PendingRecvs, op)
			rev.AppendedPendingRecv = true
			if !op.Blocking {
				rev.GetNextDraws = lp.scheduleGetNext(now)
			}
			// Blocking Recv with no arrival suspends (WaitingOnBlockingRecv).
		}

	case wkldop.KindDelay:
		d := time.Duration(op.DelayNanos)
		lp.State.ComputeTime += d
		rev.ComputeTimeCharged = d
		rev.GetNextDraws = lp.scheduleGetNext(now + d)

	case wkldop.KindCollective:
		rev.GetNextDraws = lp.scheduleGetNext(now)

	case wkldop.KindWait, wkldop.KindWaitall, wkldop.KindWaitsome, wkldop.KindWaitany:
		enterRec := waitengine.Enter(lp.State, op, now)
		rev.WaitEnter = &enterRec
		if !enterRec.Blocked {
			rev.GetNextDraws = lp.scheduleGetNext(now)
		}
		// A blocked wait suspends (WaitingOnWaitOp) until notify() resolves it.

	case wkldop.KindReqFree:
		if lp.State.IsCompleted(op.ReqID) {
			lp.State.UnmarkCompleted(op.ReqID)
			id := op.ReqID
			rev.CompletedUnmarked = &id
		} else {
			lp.Logger.Warn("REQ ID DOES NOT EXIST", "lp", lp.ID, "reqID", op.ReqID)
		}
		rev.GetNextDraws = lp.scheduleGetNext(now)
	}

	return rev
}

// ReverseGetNext undoes a prior ForwardGetNext exactly: unrolls every RNG
// draw it consumed, undoes the state-machine branch it took, and finally
// rolls the Trace Buffer back so the same op will be re-read on replay.
func (lp *LP) ReverseGetNext(rev GetNextReverse) {
	lp.RNG.Unroll(rev.GetNextDraws + rev.SendPostedDraws)

	switch rev.Op.Kind {
	case wkldop.KindEnd:
		lp.State.Done = rev.PrevDone

	case wkldop.KindRecv:
		if rev.ArrivalRemoval != nil {
			matching.Reinsert(&lp.State.ArrivalQueue, *rev.ArrivalRemoval)
		}
		if rev.CompletedMarked != nil {
			lp.State.UnmarkCompleted(*rev.CompletedMarked)
		}
		if rev.AppendedPendingRecv {
			matching.RemoveTail(&lp.State.PendingRecvs)
		}
		lp.State.RecvTime -= rev.RecvTimeCharged

	case wkldop.KindDelay:
		lp.State.ComputeTime -= rev.ComputeTimeCharged

	case wkldop.KindWait, wkldop.KindWaitall, wkldop.KindWaitsome, wkldop.KindWaitany:
		if rev.WaitEnter != nil {
			waitengine.ReverseEnter(lp.State, *rev.WaitEnter)
		}

	case wkldop.KindReqFree:
		if rev.CompletedUnmarked != nil {
			lp.State.MarkCompleted(*rev.CompletedUnmarked)
		}
	}

	bumpCounter(&lp.State.Counters, rev.Op.Kind, -1)

	if err := lp.Buffer.RollBackPrev(); err != nil {
		lp.Logger.Error("rollback of trace buffer failed", "lp", lp.ID, "err", err.Error())
	}
}
