package tracereader

import (
	"testing"
	"time"

	"github.com/codes-sim/mpi-replay/internal/wkldop"
)

func TestDelaySynthesizedAboveThreshold(t *testing.T) {
	src := NewMemSource([]RawCall{
		{Name: "MPI_Init", StartWall: 0, EndWall: 0},
		{Name: "MPI_Send", StartWall: 500 * time.Nanosecond, EndWall: 500 * time.Nanosecond, Dst: 1, Tag: 1, Bytes: 8},
	})
	a := NewAdapter(src, 0)

	ops, err := a.ReadNext()
	if err != nil || len(ops) != 0 {
		t.Fatalf("MPI_Init should produce no ops, got %v err=%v", ops, err)
	}

	ops, err = a.ReadNext()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(ops) != 2 || ops[0].Kind != wkldop.KindDelay || ops[0].DelayNanos != 500 {
		t.Fatalf("expected a 500ns Delay followed by the Send op, got %+v", ops)
	}
	if ops[1].Kind != wkldop.KindSend {
		t.Fatalf("expected second op to be the Send, got %v", ops[1].Kind)
	}
}

func TestNoDelayBelowThreshold(t *testing.T) {
	src := NewMemSource([]RawCall{
		{Name: "MPI_Init", StartWall: 0, EndWall: 0},
		{Name: "MPI_Send", StartWall: 40 * time.Nanosecond, EndWall: 40 * time.Nanosecond, Dst: 1, Tag: 1, Bytes: 8},
	})
	a := NewAdapter(src, 0)
	a.ReadNext() // consume MPI_Init

	ops, err := a.ReadNext()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(ops) != 1 || ops[0].Kind != wkldop.KindSend {
		t.Fatalf("a 40ns gap should not synthesize a Delay, got %+v", ops)
	}
}

func TestExhaustedSourceYieldsEnd(t *testing.T) {
	a := NewAdapter(NewMemSource(nil), 0)
	ops, err := a.ReadNext()
	if err != nil || len(ops) != 1 || ops[0].Kind != wkldop.KindEnd {
		t.Fatalf("exhausted source should yield a single End op, got %+v err=%v", ops, err)
	}
}

func TestUnsupportedCommCallIsFatal(t *testing.T) {
	src := NewMemSource([]RawCall{{Name: "MPI_Comm_dup"}})
	a := NewAdapter(src, 3)
	_, err := a.ReadNext()
	if err == nil {
		t.Fatalf("MPI_Comm_dup must be reported as a fatal error")
	}
}

func TestInformationalCommCallIsIgnored(t *testing.T) {
	src := NewMemSource([]RawCall{{Name: "MPI_Comm_rank"}})
	a := NewAdapter(src, 3)
	ops, err := a.ReadNext()
	if err != nil || len(ops) != 0 {
		t.Fatalf("MPI_Comm_rank should be a silent no-op, got ops=%v err=%v", ops, err)
	}
}

func TestSendrecvExpandsToThreeOpsSharingReqID(t *testing.T) {
	src := NewMemSource([]RawCall{{Name: "MPI_Sendrecv", Dst: 1, Src: 2, Tag: 5, Bytes: 16}})
	a := NewAdapter(src, 0)

	ops, err := a.ReadNext()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(ops) != 3 {
		t.Fatalf("MPI_Sendrecv should expand to 3 ops, got %d", len(ops))
	}
	if ops[0].Kind != wkldop.KindSend || ops[1].Kind != wkldop.KindRecv || ops[2].Kind != wkldop.KindWait {
		t.Fatalf("expected Send, Recv, Wait in order, got %v %v %v", ops[0].Kind, ops[1].Kind, ops[2].Kind)
	}
	if ops[0].ReqID != ops[2].ReqID {
		t.Fatalf("Send and Wait must share the synthetic request id")
	}
}

func TestCollectiveBytesAccumulateAcrossCalls(t *testing.T) {
	src := NewMemSource([]RawCall{
		{Name: "MPI_Allreduce", CommID: "world", Bytes: 100, Coll: wkldop.Allreduce},
		{Name: "MPI_Allreduce", CommID: "world", Bytes: 50, Coll: wkldop.Allreduce},
	})
	a := NewAdapter(src, 0)

	ops, _ := a.ReadNext()
	if ops[len(ops)-1].Bytes != 100 {
		t.Fatalf("first collective should carry its own byte count")
	}
	ops, _ = a.ReadNext()
	if ops[len(ops)-1].Bytes != 150 {
		t.Fatalf("second collective should carry the running total, got %d", ops[len(ops)-1].Bytes)
	}
}
