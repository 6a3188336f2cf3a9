// Package matching implements the MPI send/receive matching policy of §4.2:
// the three-tuple (source, tag, size) predicate with wildcards, FIFO scan
// order, and index-preserving reverse undo.
package matching

import "github.com/codes-sim/mpi-replay/internal/wkldop"

// Matches reports whether posted receive r accepts arriving send s, per the
// predicate in §4.2: r.bytes >= s.bytes and r.tag/r.src either match
// concretely or are wildcarded.
func Matches(r, s wkldop.WorkloadOp) bool {
	return r.Bytes >= s.Bytes &&
		r.Tag.Matches(int32(tagOf(s))) &&
		r.Src.Matches(srcOf(s))
}

// tagOf/srcOf extract the concrete tag/source carried by a Send op (Send
// ops store them as Specific matchers since the sender always knows them).
func tagOf(s wkldop.WorkloadOp) int32 { return s.Tag.Value }
func srcOf(s wkldop.WorkloadOp) int32 { return s.Src.Value }

// FindMatch scans candidates head-to-tail and returns the index of the
// first entry satisfying pred, or ok=false if none match. Scanning head
// first and always enqueuing at the tail (see Append) preserves MPI's
// per-pair FIFO ordering under wildcards.
func FindMatch(candidates []wkldop.WorkloadOp, probe wkldop.WorkloadOp, pred func(candidate, probe wkldop.WorkloadOp) bool) (int, bool) {
	for i, c := range candidates {
		if pred(c, probe) {
			return i, true
		}
	}
	return -1, false
}

// Removal records what RemoveAt took out, so Reinsert can restore it at the
// exact same index rather than at the tail — this is what makes matching
// reversible without snapshotting the whole queue.
type Removal struct {
	Index int
	Op    wkldop.WorkloadOp
}

// RemoveAt removes and returns the element at idx, recording enough to
// undo the removal via Reinsert.
func RemoveAt(queue *[]wkldop.WorkloadOp, idx int) Removal {
	op := (*queue)[idx]
	*queue = append((*queue)[:idx], (*queue)[idx+1:]...)
	return Removal{Index: idx, Op: op}
}

// Reinsert undoes a prior RemoveAt, putting the removed element back at its
// original index so queue order is restored exactly.
func Reinsert(queue *[]wkldop.WorkloadOp, r Removal) {
	if r.Index >= len(*queue) {
		*queue = append(*queue, r.Op)
		return
	}
	*queue = append(*queue, wkldop.WorkloadOp{})
	copy((*queue)[r.Index+1:], (*queue)[r.Index:])
	(*queue)[r.Index] = r.Op
}

// Append enqueues op at the tail (the only insertion point the forward path
// ever uses, per the FIFO rule).
func Append(queue *[]wkldop.WorkloadOp, op wkldop.WorkloadOp) {
	*queue = append(*queue, op)
}

// RemoveTail undoes a prior Append by popping the tail element — the
// reverse of an arrival/posted-recv insertion that found no match.
func RemoveTail(queue *[]wkldop.WorkloadOp) wkldop.WorkloadOp {
	n := len(*queue)
	op := (*queue)[n-1]
	*queue = (*queue)[:n-1]
	return op
}
