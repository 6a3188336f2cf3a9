package tracebuffer

import (
	"testing"

	"github.com/codes-sim/mpi-replay/internal/tracereader"
	"github.com/codes-sim/mpi-replay/internal/wkldop"
)

func newTestBuffer(calls []tracereader.RawCall) *Buffer {
	adapter := tracereader.NewAdapter(tracereader.NewMemSource(calls), 0)
	return New(0, 0, adapter)
}

func TestGetNextAssignsIncreasingSequenceIDs(t *testing.T) {
	b := newTestBuffer([]tracereader.RawCall{
		{Name: "MPI_Send", Dst: 1, Tag: 1, Bytes: 8},
		{Name: "MPI_Send", Dst: 1, Tag: 2, Bytes: 8},
	})

	op1, err := b.GetNext()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	op2, err := b.GetNext()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if op1.SequenceID != 1 || op2.SequenceID != 2 {
		t.Fatalf("expected sequence ids 1,2 got %d,%d", op1.SequenceID, op2.SequenceID)
	}
}

func TestGetNextReturnsEndWhenExhausted(t *testing.T) {
	b := newTestBuffer(nil)
	op, err := b.GetNext()
	if err != nil || op.Kind != wkldop.KindEnd {
		t.Fatalf("expected End op, got %+v err=%v", op, err)
	}
}

func TestRollBackPrevRestoresSequenceAndOrder(t *testing.T) {
	b := newTestBuffer([]tracereader.RawCall{
		{Name: "MPI_Send", Dst: 1, Tag: 1, Bytes: 8},
		{Name: "MPI_Send", Dst: 1, Tag: 2, Bytes: 8},
	})

	first, _ := b.GetNext()
	second, _ := b.GetNext()

	if err := b.RollBackPrev(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if b.SequenceID() != first.SequenceID {
		t.Fatalf("RollBackPrev should restore sequence_id to %d, got %d", first.SequenceID, b.SequenceID())
	}

	redone, err := b.GetNext()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if redone.Tag.Value != second.Tag.Value || redone.SequenceID != second.SequenceID {
		t.Fatalf("re-running GetNext after rollback should reproduce the same op, got %+v want %+v", redone, second)
	}
}

func TestRollBackPrevOnEmptyStackIsFatal(t *testing.T) {
	b := newTestBuffer(nil)
	if err := b.RollBackPrev(); err == nil {
		t.Fatalf("RollBackPrev on an empty reverse stack must fail")
	}
}
