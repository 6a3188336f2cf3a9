package dispatcher

import (
	"time"

	"github.com/codes-sim/mpi-replay/internal/matching"
	"github.com/codes-sim/mpi-replay/internal/waitengine"
	"github.com/codes-sim/mpi-replay/internal/wkldop"
)

// SendArrivedReverse is what ForwardSendArrived did, so ReverseSendArrived
// can undo it.
type SendArrivedReverse struct {
	Op              wkldop.WorkloadOp // the arriving send
	PendingRemoval  *matching.Removal
	CompletedMarked *uint16
	RecvTimeCharged time.Duration
	AppendedArrival bool
	Notify          *waitengine.NotifyRecord
	WaitOp          wkldop.WorkloadOp
	GetNextDraws    int
}

// ForwardSendArrived runs the arrival-side match of §4.2: a peer's send has
// just arrived at this LP. If a posted receive matches, it is removed,
// completed, and either resumes a blocked Recv (GET_NEXT) or notifies the
// Wait Engine. If nothing matches, the send is appended to arrival_queue
// to await a future Recv/IRecv.
func (lp *LP) ForwardSendArrived(now time.Duration, send wkldop.WorkloadOp) SendArrivedReverse {
	rev := SendArrivedReverse{Op: send}

	idx, ok := matching.FindMatch(lp.State.PendingRecvs, send, func(candidate, probe wkldop.WorkloadOp) bool {
		return matching.Matches(candidate, probe)
	})
	if !ok {
		matching.Append(&lp.State.ArrivalQueue, send)
		rev.AppendedArrival = true
		return rev
	}

	removal := matching.RemoveAt(&lp.State.PendingRecvs, idx)
	rev.PendingRemoval = &removal

	lp.State.MarkCompleted(removal.Op.ReqID)
	id := removal.Op.ReqID
	rev.CompletedMarked = &id

	charged := now - send.SimStartTime
	lp.State.RecvTime += charged
	rev.RecvTimeCharged = charged
	lp.Observer.ObserveRecv(lp.ID, removal.Op.Bytes)

	if removal.Op.Blocking {
		rev.GetNextDraws = lp.scheduleGetNext(now)
		return rev
	}

	if lp.State.PendingWait != nil {
		rev.WaitOp = lp.State.PendingWait.Op
	}
	notifyRec := waitengine.Notify(lp.State, removal.Op.ReqID, now)
	rev.Notify = &notifyRec
	if notifyRec.Resumed {
		rev.GetNextDraws = lp.scheduleGetNext(now)
	}
	return rev
}

// ReverseSendArrived is the paired reverse handler for ForwardSendArrived.
func (lp *LP) ReverseSendArrived(rev SendArrivedReverse) {
	lp.RNG.Unroll(rev.GetNextDraws)

	if rev.Notify != nil {
		waitengine.ReverseNotify(lp.State, rev.WaitOp, rev.PendingRemoval.Op.ReqID, *rev.Notify)
	}
	if rev.CompletedMarked != nil {
		lp.State.UnmarkCompleted(*rev.CompletedMarked)
	}
	lp.State.RecvTime -= rev.RecvTimeCharged

	if rev.PendingRemoval != nil {
		matching.Reinsert(&lp.State.PendingRecvs, *rev.PendingRemoval)
	}
	if rev.AppendedArrival {
		matching.RemoveTail(&lp.State.ArrivalQueue)
	}
}
