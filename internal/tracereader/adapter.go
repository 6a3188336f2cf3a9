// Package tracereader adapts a stream of raw per-rank MPI call records into
// the canonical wkldop.WorkloadOp values the Trace Buffer consumes (§4.1):
// wall-time normalization, Delay derivation, MPI_Sendrecv expansion, the
// unmapped-call disposition table, and collective byte aggregation.
//
// It does not parse any on-disk trace format (scalatrace/dumpi); those are
// external collaborators referenced only through the RawSource interface
// below. An in-memory reference RawSource is provided for tests.
package tracereader

import (
	"time"

	"github.com/codes-sim/mpi-replay/internal/simerr"
	"github.com/codes-sim/mpi-replay/internal/wkldop"
)

// RawCall is one record pulled from the external trace format, already
// decoded into typed fields. A real scalatrace/dumpi binding would produce
// these from its own record layout.
type RawCall struct {
	Name      string        `json:"name"`
	StartWall time.Duration `json:"start_wall"`
	EndWall   time.Duration `json:"end_wall"`

	Dst    int32           `json:"dst"`
	Src    int32           `json:"src"` // may be wkldop.Any for a wildcard receive
	Tag    int32           `json:"tag"` // may be wkldop.Any for a wildcard receive
	Bytes  uint64          `json:"bytes"`
	ReqID  uint16          `json:"req_id"`
	ReqIDs []uint16        `json:"req_ids,omitempty"`
	Coll   wkldop.CollKind `json:"coll,omitempty"`

	// CommID identifies the communicator a collective call belongs to, for
	// cross-rank byte aggregation (not used for point-to-point calls).
	CommID string `json:"comm_id,omitempty"`
}

// RawSource produces RawCall records for one rank, in trace order. Next
// returns ok=false once the rank's recorded calls are exhausted.
type RawSource interface {
	Next() (call RawCall, ok bool, err error)
}

// disposition classifies an unmapped or informational MPI call name.
type disposition int

const (
	dispositionMapped disposition = iota
	dispositionTimingOnly
	dispositionIgnore
	dispositionFatal
)

// unmappedCalls lists calls this engine does not decompose further.
// MPI_Comm_dup/MPI_Comm_create are fatal (unsupported); MPI_Comm_rank,
// MPI_Comm_size and MPI_Comm_split are informational (dispositionIgnore),
// which ReadNext handles exactly like timing-only: no op of their own, only
// the leading Delay when the wall-time gap calls for one. Everything else
// not in the mapped switch below falls through to timing-only.
var unmappedCalls = map[string]disposition{
	"MPI_Comm_dup":    dispositionFatal,
	"MPI_Comm_create": dispositionFatal,
	"MPI_Comm_rank":   dispositionIgnore,
	"MPI_Comm_size":   dispositionIgnore,
	"MPI_Comm_split":  dispositionIgnore,
}

var mappedCalls = map[string]bool{
	"MPI_Send": true, "MPI_Isend": true,
	"MPI_Recv": true, "MPI_Irecv": true,
	"MPI_Wait": true, "MPI_Waitall": true, "MPI_Waitsome": true, "MPI_Waitany": true,
	"MPI_Sendrecv": true,
	"MPI_Bcast":    true, "MPI_Allgather": true, "MPI_Allgatherv": true,
	"MPI_Alltoall": true, "MPI_Alltoallv": true, "MPI_Reduce": true, "MPI_Allreduce": true,
	"MPI_Init": true,
}

func dispositionOf(name string) disposition {
	if mappedCalls[name] {
		return dispositionMapped
	}
	if d, ok := unmappedCalls[name]; ok {
		return d
	}
	return dispositionTimingOnly
}

// collAccumulator sums one rank's collective bytes per communicator across
// successive calls; each Collective op the Adapter emits carries that
// running total.
type collAccumulator struct {
	totals map[string]uint64
}

func newCollAccumulator() *collAccumulator {
	return &collAccumulator{totals: make(map[string]uint64)}
}

// add accumulates bytes for commID and reports the running total. Callers
// decide when a collective is "complete" for their trace format; the
// reference Adapter below emits one Collective op per call with the
// accumulator's running total rather than per-call bytes, matching
// original_source's aggregate-before-emit behavior.
func (c *collAccumulator) add(commID string, bytes uint64) uint64 {
	c.totals[commID] += bytes
	return c.totals[commID]
}

// Adapter turns a RawSource into canonical WorkloadOp batches.
type Adapter struct {
	src    RawSource
	rank   int32
	initWall      time.Duration
	initWallSet   bool
	lastOpWall    time.Duration
	nextSynthetic uint16
	colls         *collAccumulator
}

// NewAdapter wraps src for the given rank.
func NewAdapter(src RawSource, rank int32) *Adapter {
	return &Adapter{src: src, rank: rank, colls: newCollAccumulator()}
}

// ReadNext pulls one raw record and returns the WorkloadOp(s) derived from
// it: zero or one Delay op, followed by the call's own op(s). Returns a
// single End op once the source is exhausted, per §4.1's "the returned op
// is End" contract.
func (a *Adapter) ReadNext() ([]wkldop.WorkloadOp, error) {
	call, ok, err := a.src.Next()
	if err != nil {
		return nil, simerr.NewLP("ReadNext", 0, a.rank, simerr.CodeMissingTrace, err.Error())
	}
	if !ok {
		return []wkldop.WorkloadOp{wkldop.NewEnd()}, nil
	}

	if !a.initWallSet && call.Name == "MPI_Init" {
		a.initWall = call.StartWall
		a.initWallSet = true
	}

	startNorm := call.StartWall - a.initWall
	endNorm := call.EndWall - a.initWall

	var ops []wkldop.WorkloadOp
	if startNorm-a.lastOpWall > 100*time.Nanosecond {
		ops = append(ops, wkldop.NewDelay(int64(startNorm-a.lastOpWall)))
	}
	a.lastOpWall = endNorm

	switch dispositionOf(call.Name) {
	case dispositionFatal:
		return nil, simerr.NewLP("ReadNext", 0, a.rank, simerr.CodeUnsupportedMPICall, call.Name)
	case dispositionIgnore, dispositionTimingOnly:
		return ops, nil
	}

	return append(ops, a.buildMappedOps(call)...), nil
}

func (a *Adapter) buildMappedOps(call RawCall) []wkldop.WorkloadOp {
	switch call.Name {
	case "MPI_Init":
		return nil
	case "MPI_Send":
		return []wkldop.WorkloadOp{wkldop.NewSend(call.Dst, call.Tag, call.Src, call.Bytes, call.ReqID, false, true)}
	case "MPI_Isend":
		return []wkldop.WorkloadOp{wkldop.NewSend(call.Dst, call.Tag, call.Src, call.Bytes, call.ReqID, true, false)}
	case "MPI_Recv":
		return []wkldop.WorkloadOp{wkldop.NewRecv(call.Tag, call.Src, call.Bytes, call.ReqID, false, true)}
	case "MPI_Irecv":
		return []wkldop.WorkloadOp{wkldop.NewRecv(call.Tag, call.Src, call.Bytes, call.ReqID, true, false)}
	case "MPI_Wait":
		return []wkldop.WorkloadOp{wkldop.NewWait(call.ReqID)}
	case "MPI_Waitall":
		return []wkldop.WorkloadOp{wkldop.NewWaitall(call.ReqIDs)}
	case "MPI_Waitsome":
		return []wkldop.WorkloadOp{wkldop.NewWaitsome(call.ReqIDs)}
	case "MPI_Waitany":
		return []wkldop.WorkloadOp{wkldop.NewWaitany(call.ReqIDs)}
	case "MPI_Sendrecv":
		return a.expandSendrecv(call)
	case "MPI_Bcast", "MPI_Allgather", "MPI_Allgatherv", "MPI_Alltoall", "MPI_Alltoallv", "MPI_Reduce", "MPI_Allreduce":
		total := a.colls.add(call.CommID, call.Bytes)
		return []wkldop.WorkloadOp{wkldop.NewCollective(call.Coll, total)}
	default:
		return nil
	}
}

// expandSendrecv turns one MPI_Sendrecv into ISend, Recv, Wait sharing a
// freshly allocated synthetic request id, per §4.1.
func (a *Adapter) expandSendrecv(call RawCall) []wkldop.WorkloadOp {
	reqID := a.nextSyntheticReqID()
	send := wkldop.NewSend(call.Dst, call.Tag, call.Src, call.Bytes, reqID, true, false)
	recv := wkldop.NewRecv(call.Tag, call.Src, call.Bytes, reqID, true, true)
	wait := wkldop.NewWait(reqID)
	return []wkldop.WorkloadOp{send, recv, wait}
}

func (a *Adapter) nextSyntheticReqID() uint16 {
	a.nextSynthetic++
	return a.nextSynthetic
}
