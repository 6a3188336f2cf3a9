package dispatcher

import (
	"time"

	"github.com/codes-sim/mpi-replay/internal/waitengine"
	"github.com/codes-sim/mpi-replay/internal/wkldop"
)

// SendPostedReverse is what ForwardSendPosted did, so ReverseSendPosted can
// undo it.
type SendPostedReverse struct {
	Op              wkldop.WorkloadOp
	Marked          *uint16
	Notify          *waitengine.NotifyRecord
	WaitOp          wkldop.WorkloadOp
	SendTimeCharged time.Duration
	GetNextDraws    int
}

// scheduleSendPosted self-schedules the local SEND_POSTED event for a
// just-issued send (the "bytes leave the local wire" callback of §4.2).
func (lp *LP) scheduleSendPosted(now time.Duration, op wkldop.WorkloadOp) int {
	delay := jitterDelay(lp.Lookahead, lp.RNG, lp.Noise)
	at := now + delay
	lp.Schedule(at, func(t time.Duration) {
		rev := lp.ForwardSendPosted(t, op)
		lp.push(ReverseDescriptor{SendPosted: &rev})
	})
	return 1
}

// ForwardSendPosted runs the LP's own local send completion. For blocking
// Send, the LP was suspended on this (WaitingOnBlockingSendLocal) and now
// resumes with GET_NEXT. For ISend, req_id is marked completed and the
// Wait Engine is notified.
func (lp *LP) ForwardSendPosted(now time.Duration, op wkldop.WorkloadOp) SendPostedReverse {
	rev := SendPostedReverse{Op: op}

	charged := now - op.SimStartTime
	lp.State.SendTime += charged
	rev.SendTimeCharged = charged

	if op.Blocking {
		rev.GetNextDraws = lp.scheduleGetNext(now)
		return rev
	}

	lp.State.MarkCompleted(op.ReqID)
	id := op.ReqID
	rev.Marked = &id

	if lp.State.PendingWait != nil {
		rev.WaitOp = lp.State.PendingWait.Op
	}
	notifyRec := waitengine.Notify(lp.State, op.ReqID, now)
	rev.Notify = &notifyRec
	if notifyRec.Resumed {
		rev.GetNextDraws = lp.scheduleGetNext(now)
	}
	return rev
}

// ReverseSendPosted is the paired reverse handler for ForwardSendPosted.
func (lp *LP) ReverseSendPosted(rev SendPostedReverse) {
	lp.RNG.Unroll(rev.GetNextDraws)

	if rev.Notify != nil {
		waitengine.ReverseNotify(lp.State, rev.WaitOp, rev.Op.ReqID, *rev.Notify)
	}
	if rev.Marked != nil {
		lp.State.UnmarkCompleted(*rev.Marked)
	}
	lp.State.SendTime -= rev.SendTimeCharged
}
