// Package netmodel is the pluggable network-model boundary (§1 Non-goals:
// the transport that actually moves bytes between LPs is an external
// collaborator, referenced only by interface here). It also carries the
// dragonfly destination-LP addressing special case (§6) and a synchronous
// Loopback reference implementation used by tests and the reference
// in-process scheduler.
package netmodel

import (
	"time"

	"github.com/codes-sim/mpi-replay/internal/simerr"
	"github.com/codes-sim/mpi-replay/internal/wkldop"
)

// Model is the boundary the dispatcher sends through. Send transmits op
// (already carrying its byte count) from srcLP to dstLP; arrived is
// invoked once the network model has simulated the bytes as delivered,
// passing the simulated arrival timestamp — the dispatcher's SEND_ARRIVED
// handler runs from that callback.
type Model interface {
	Send(srcLP, dstLP uint64, op wkldop.WorkloadOp, now time.Duration, arrived func(time.Duration))
}

// Instrumented is the optional capability a Model may implement to expose
// link-level counters to the metrics package, mirroring the
// Backend/DiscardBackend optional-extension pattern.
type Instrumented interface {
	Model
	BytesInFlight() uint64
}

// Topology enumerates the network models named in §6.
type Topology int

const (
	Torus Topology = iota
	Dragonfly
	Simplenet
	LogGP
)

// ParseTopology converts a config-file topology name to a Topology value.
func ParseTopology(name string) (Topology, error) {
	switch name {
	case "torus":
		return Torus, nil
	case "dragonfly":
		return Dragonfly, nil
	case "simplenet":
		return Simplenet, nil
	case "loggp":
		return LogGP, nil
	default:
		return 0, simerr.New("ParseTopology", simerr.CodeBadConfig, "unknown network model: "+name)
	}
}

// Mapper resolves a rank to its global LP id for topologies other than
// dragonfly, where the mapping collaborator is consulted directly (§6).
type Mapper interface {
	LPForRank(rank int32) uint64
}

// IdentityMapper is the degenerate Mapper for single-group declarations
// where rank and LP id coincide (§6's common case for torus/simplenet/loggp
// runs with one LP group).
type IdentityMapper struct{}

// LPForRank returns rank unchanged.
func (IdentityMapper) LPForRank(rank int32) uint64 { return uint64(rank) }

// DestLP resolves the destination LP id for rank under topology, applying
// the dragonfly special case and falling through to mapper otherwise.
func DestLP(topology Topology, rank int32, numNWLPs, numRouters int32, mapper Mapper) uint64 {
	if topology == Dragonfly {
		return DragonflyDestLP(rank, numNWLPs, numRouters)
	}
	return mapper.LPForRank(rank)
}

// DragonflyDestLP implements the dragonfly addressing formula of §6:
// lps_per_rep = 2*num_nw_lps + num_routers, dest = lps_per_rep * (rank /
// num_nw_lps) + (rank % num_nw_lps).
func DragonflyDestLP(rank, numNWLPs, numRouters int32) uint64 {
	lpsPerRep := int64(2*numNWLPs + numRouters)
	group := int64(rank / numNWLPs)
	offset := int64(rank % numNWLPs)
	return uint64(lpsPerRep*group + offset)
}
