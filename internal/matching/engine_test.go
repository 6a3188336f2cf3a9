package matching

import (
	"testing"

	"github.com/codes-sim/mpi-replay/internal/wkldop"
)

func send(dst, tag, src int32, bytes uint64) wkldop.WorkloadOp {
	return wkldop.NewSend(dst, tag, src, bytes, 0, false, false)
}

func recv(tagRaw, srcRaw int32, bytes uint64) wkldop.WorkloadOp {
	return wkldop.NewRecv(tagRaw, srcRaw, bytes, 0, false, false)
}

func TestMatchesExactTuple(t *testing.T) {
	s := send(1, 7, 0, 100)
	r := recv(7, 0, 100)
	if !Matches(r, s) {
		t.Fatalf("exact tuple should match")
	}
}

func TestMatchesRequiresEnoughBytes(t *testing.T) {
	s := send(1, 7, 0, 200)
	r := recv(7, 0, 100)
	if Matches(r, s) {
		t.Fatalf("posted recv with fewer bytes than the send must not match")
	}
}

func TestMatchesWildcardSourceAndTag(t *testing.T) {
	s := send(2, 3, 5, 50)
	r := recv(wkldop.Any, wkldop.Any, 50)
	if !Matches(r, s) {
		t.Fatalf("wildcard tag/src recv should match any send with enough bytes")
	}
}

func TestFindMatchFIFOOrder(t *testing.T) {
	candidates := []wkldop.WorkloadOp{
		recv(3, wkldop.Any, 50), // req slot "first"
		recv(3, wkldop.Any, 50), // req slot "second"
	}
	arriving := send(2, 3, 0, 50)

	idx, ok := FindMatch(candidates, arriving, func(c, probe wkldop.WorkloadOp) bool {
		return Matches(c, probe)
	})
	if !ok || idx != 0 {
		t.Fatalf("FindMatch should return the first (head) match, got idx=%d ok=%v", idx, ok)
	}
}

func TestRemoveAtAndReinsertPreserveOrder(t *testing.T) {
	queue := []wkldop.WorkloadOp{
		send(0, 1, 0, 1),
		send(0, 2, 0, 2),
		send(0, 3, 0, 3),
	}

	rec := RemoveAt(&queue, 1)
	if len(queue) != 2 || queue[0].Tag.Value != 1 || queue[1].Tag.Value != 3 {
		t.Fatalf("RemoveAt(1) left unexpected queue: %+v", queue)
	}

	Reinsert(&queue, rec)
	if len(queue) != 3 || queue[1].Tag.Value != 2 {
		t.Fatalf("Reinsert should restore the element at its original index: %+v", queue)
	}
}

func TestAppendAndRemoveTailAreInverses(t *testing.T) {
	var queue []wkldop.WorkloadOp
	op := send(0, 9, 0, 9)
	Append(&queue, op)
	if len(queue) != 1 {
		t.Fatalf("Append should grow the queue")
	}

	popped := RemoveTail(&queue)
	if len(queue) != 0 || popped.Tag.Value != 9 {
		t.Fatalf("RemoveTail should undo the Append exactly")
	}
}
