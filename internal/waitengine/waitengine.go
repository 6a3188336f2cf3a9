// Package waitengine implements the Wait/Waitall/Waitsome/Waitany state
// machine of §4.4: a single pending_wait slot per LP, filled by Enter and
// drained one completion at a time by Notify, with reverse records that let
// the dispatcher undo either step without re-deriving state.
package waitengine

import (
	"time"

	"github.com/codes-sim/mpi-replay/internal/lpstate"
	"github.com/codes-sim/mpi-replay/internal/wkldop"
)

// EnterRecord is what Enter did, so ReverseEnter can undo it exactly.
type EnterRecord struct {
	Op          wkldop.WorkloadOp
	Blocked     bool
	PrevWait    *lpstate.WaitDescriptor
	Unmarked    []uint16 // reqIDs whose completed_reqs membership Enter consumed immediately (already-done case)
}

// NotifyRecord is what Notify did, so ReverseNotify can undo it exactly.
type NotifyRecord struct {
	WasWaiting       bool
	PrevNumCompleted int
	Resumed          bool

	// StartTime and WaitTimeCharged are only set when Resumed: the
	// resolved wait's original post time (so ReverseNotify can restore the
	// pending wait exactly) and the wait_time delta that was charged to
	// state.Timings.WaitTime (so ReverseNotify can subtract it back out).
	StartTime       time.Duration
	WaitTimeCharged time.Duration

	// Consumed lists the named request ids Notify removed from
	// completed_reqs when it resolved the wait, so ReverseNotify can put
	// them back.
	Consumed []uint16
}

// Enter posts a Wait/Waitall/Waitsome/Waitany op against state. If enough
// of the requests it names are already in completed_reqs (all of them for
// Wait/Waitall, at least one for Waitsome/Waitany), the wait resolves
// immediately (blocked=false) and every named id found completed is
// consumed. Otherwise the op is parked in state.PendingWait and the LP
// suspends (blocked=true) until enough Notify calls arrive.
func Enter(state *lpstate.State, op wkldop.WorkloadOp, now time.Duration) EnterRecord {
	rec := EnterRecord{Op: op, PrevWait: state.PendingWait}

	needed := requiredCompletions(op)
	have := 0
	var consumed []uint16
	for _, id := range op.ReqIDs {
		if state.IsCompleted(id) {
			have++
			consumed = append(consumed, id)
		}
	}

	if have >= needed {
		for _, id := range consumed {
			state.UnmarkCompleted(id)
		}
		rec.Unmarked = consumed
		rec.Blocked = false
		return rec
	}

	state.PendingWait = &lpstate.WaitDescriptor{Op: op, NumCompleted: have, StartTime: now}
	rec.Blocked = true
	return rec
}

// ReverseEnter undoes a prior Enter: restores any consumed completed_reqs
// entries and puts the previous pending wait (if any) back in place.
func ReverseEnter(state *lpstate.State, rec EnterRecord) {
	for _, id := range rec.Unmarked {
		state.MarkCompleted(id)
	}
	state.PendingWait = rec.PrevWait
}

// Notify reports that reqID has completed. If state has a pending wait that
// names reqID, NumCompleted is bumped; once enough names have completed the
// wait resolves, PendingWait is cleared (Resumed=true) and every named id
// still in completed_reqs is removed from it. If there is no
// matching pending wait, reqID is parked in completed_reqs for a future
// Enter to pick up.
func Notify(state *lpstate.State, reqID uint16, now time.Duration) NotifyRecord {
	rec := NotifyRecord{}

	w := state.PendingWait
	if w == nil || !waitNames(w.Op, reqID) {
		state.MarkCompleted(reqID)
		rec.WasWaiting = false
		return rec
	}

	rec.WasWaiting = true
	rec.PrevNumCompleted = w.NumCompleted
	w.NumCompleted++

	if w.NumCompleted >= requiredCompletions(w.Op) {
		rec.Resumed = true
		rec.StartTime = w.StartTime
		rec.WaitTimeCharged = now - w.StartTime
		state.WaitTime += rec.WaitTimeCharged
		state.PendingWait = nil
		for _, id := range w.Op.ReqIDs {
			if state.UnmarkCompleted(id) {
				rec.Consumed = append(rec.Consumed, id)
			}
		}
	}
	return rec
}

// ReverseNotify undoes a prior Notify exactly, restoring either the
// completed_reqs entry or the pending wait's NumCompleted (and the pending
// wait itself plus the ids it consumed, if Notify had resolved it).
func ReverseNotify(state *lpstate.State, op wkldop.WorkloadOp, reqID uint16, rec NotifyRecord) {
	if !rec.WasWaiting {
		state.UnmarkCompleted(reqID)
		return
	}

	if rec.Resumed {
		for _, id := range rec.Consumed {
			state.MarkCompleted(id)
		}
		state.WaitTime -= rec.WaitTimeCharged
		state.PendingWait = &lpstate.WaitDescriptor{Op: op, NumCompleted: rec.PrevNumCompleted, StartTime: rec.StartTime}
		return
	}
	if state.PendingWait != nil {
		state.PendingWait.NumCompleted = rec.PrevNumCompleted
	}
}

// requiredCompletions reports how many of op's named requests must complete
// before the wait resolves: all of them for Wait/Waitall, exactly one for
// Waitany, and at least one (Waitsome resolves on its first completion, same
// as Waitany, since this model does not batch arrivals within one event)
// for Waitsome.
func requiredCompletions(op wkldop.WorkloadOp) int {
	switch op.Kind {
	case wkldop.KindWait:
		return 1
	case wkldop.KindWaitall:
		return len(op.ReqIDs)
	case wkldop.KindWaitany, wkldop.KindWaitsome:
		return 1
	default:
		return len(op.ReqIDs)
	}
}

// waitNames reports whether op's request list includes reqID.
func waitNames(op wkldop.WorkloadOp, reqID uint16) bool {
	for _, id := range op.ReqIDs {
		if id == reqID {
			return true
		}
	}
	return false
}
