// Package mpireplay wires the per-LP packages under internal/ into a
// runnable simulation: the Rank Registry, one dispatcher.LP per rank, a
// reference in-process Scheduler, and the finalize-time metrics Registry.
// It is the generalization of the teacher's backend.go CreateAndServe/
// Device pairing (params struct in, handle with a Run method out) from one
// block device to a cluster of NW-LPs.
package mpireplay

import (
	"io"
	"time"

	"github.com/codes-sim/mpi-replay/internal/dispatcher"
	"github.com/codes-sim/mpi-replay/internal/logging"
	"github.com/codes-sim/mpi-replay/internal/lpstate"
	"github.com/codes-sim/mpi-replay/internal/metrics"
	"github.com/codes-sim/mpi-replay/internal/netmodel"
	"github.com/codes-sim/mpi-replay/internal/rankregistry"
	"github.com/codes-sim/mpi-replay/internal/rng"
	"github.com/codes-sim/mpi-replay/internal/simerr"
	"github.com/codes-sim/mpi-replay/internal/simkernel"
	"github.com/codes-sim/mpi-replay/internal/tracebuffer"
	"github.com/codes-sim/mpi-replay/internal/tracereader"
	"github.com/codes-sim/mpi-replay/internal/wkldop"
)

// Params configures one replay run.
type Params struct {
	App int32

	// Ranks enumerates every rank this run replays, and RawSourceFor how to
	// obtain its trace stream. A nil RawSourceFor is a configuration error;
	// a nil RawSource returned for one rank is not checked.
	Ranks        []int32
	RawSourceFor func(rank int32) tracereader.RawSource

	Topology   netmodel.Topology
	Mapper     netmodel.Mapper
	NumNWLPs   int32
	NumRouters int32

	// NetFactory builds the network model this run sends through, given the
	// Simulation's own Scheduler.Schedule — deferred like this because a
	// Loopback (or any real model) must deliver on the same event queue the
	// LPs run on, and that queue doesn't exist until New creates it.
	NetFactory func(schedule func(at time.Duration, fn func(now time.Duration))) netmodel.Model

	Lookahead time.Duration
	Noise     float64

	// Seed derives each LP's RNG stream deterministically from its rank, so
	// a replay of the same trace set with the same seed is reproducible.
	Seed uint64

	Logger *logging.Logger
}

// Simulation is a wired, ready-to-run replay: one dispatcher.LP per rank,
// sharing a Scheduler, a Rank Registry, and a metrics Registry.
type Simulation struct {
	params    Params
	scheduler *simkernel.Scheduler
	ranks     *rankregistry.Registry
	metrics   *metrics.Registry
	lps       map[int32]*dispatcher.LP
	logger    *logging.Logger
}

// New wires a Simulation from params. It creates every LP's state, trace
// buffer, and dispatcher context, but does not schedule any events; call
// Start to kick off each LP's first GET_NEXT.
func New(params Params) (*Simulation, error) {
	if params.RawSourceFor == nil {
		return nil, simerr.New("mpireplay.New", simerr.CodeBadConfig, "RawSourceFor is required")
	}
	if params.NetFactory == nil {
		return nil, simerr.New("mpireplay.New", simerr.CodeBadConfig, "NetFactory is required")
	}
	if params.Topology != netmodel.Dragonfly && params.Mapper == nil {
		return nil, simerr.New("mpireplay.New", simerr.CodeBadConfig, "Mapper is required for non-dragonfly topologies")
	}

	logger := params.Logger
	if logger == nil {
		logger = logging.Default()
	}

	sim := &Simulation{
		params:    params,
		scheduler: simkernel.New(),
		metrics:   metrics.NewRegistry(),
		lps:       make(map[int32]*dispatcher.LP, len(params.Ranks)),
		logger:    logger,
	}

	factory := func(key rankregistry.Key) *tracebuffer.Buffer {
		src := params.RawSourceFor(key.Rank)
		adapter := tracereader.NewAdapter(src, key.Rank)
		return tracebuffer.New(key.App, key.Rank, adapter)
	}
	sim.ranks = rankregistry.New(factory)

	// sim.scheduler.Schedule's second parameter is the named simkernel.EventFunc
	// type, which does not match NetFactory's unnamed func(time.Duration)
	// parameter type structurally, so it is wrapped rather than passed directly.
	net := params.NetFactory(func(at time.Duration, fn func(now time.Duration)) {
		sim.scheduler.Schedule(at, fn)
	})
	observer := metrics.NewRegistryObserver(sim.metrics)

	for _, rank := range params.Ranks {
		buf := sim.ranks.Get(rankregistry.Key{App: params.App, Rank: rank})
		lpID := uint64(rank)
		state := lpstate.New(lpID, rank)
		stream := rng.New(params.Seed + uint64(rank) + 1)

		lp := dispatcher.New(lpID, rank, params.App, state, buf, stream, net, params.Lookahead, params.Noise)
		// sim.scheduler.Schedule's fn parameter is the named simkernel.EventFunc
		// type, which an LP's plain func(time.Duration) field type does not
		// match structurally, so it is wrapped rather than assigned directly.
		lp.Schedule = func(at time.Duration, fn func(now time.Duration)) {
			sim.scheduler.Schedule(at, fn)
		}
		lp.Logger = logger
		lp.Observer = observer
		lp.ResolveDestLP = func(dstRank int32) uint64 {
			return netmodel.DestLP(params.Topology, dstRank, params.NumNWLPs, params.NumRouters, params.Mapper)
		}

		sim.metrics.Register(state)
		sim.lps[rank] = lp
	}

	for rank, lp := range sim.lps {
		lp.RouteArrival = sim.routeArrival(rank)
	}

	return sim, nil
}

// routeArrival returns the RouteArrival closure for the LP at srcRank: it
// looks up the destination LP by rank and runs the SEND_ARRIVED forward
// handler on it, pushing the resulting reverse descriptor onto the
// destination's own log (rollback is always local to the LP that ran the
// event, never the sender).
func (s *Simulation) routeArrival(srcRank int32) func(dstRank int32, op wkldop.WorkloadOp, at time.Duration) {
	return func(dstRank int32, op wkldop.WorkloadOp, at time.Duration) {
		dst, ok := s.lps[dstRank]
		if !ok {
			s.logger.Error("send arrived at an unregistered rank", "src", srcRank, "dst", dstRank)
			return
		}
		dst.DeliverArrival(at, op)
	}
}

// Start self-schedules the first GET_NEXT for every LP at simulated time 0.
func (s *Simulation) Start() {
	for _, lp := range s.lps {
		lp.Kickoff()
	}
}

// Run drains the scheduler's event queue until it is empty or maxEvents
// have run (0 means unbounded), returning the number of events executed.
func (s *Simulation) Run(maxEvents int) int {
	return s.scheduler.Run(maxEvents)
}

// Now reports the simulation's current virtual time.
func (s *Simulation) Now() time.Duration { return s.scheduler.Now() }

// LP returns the dispatcher context for rank, or nil if rank is not part of
// this run.
func (s *Simulation) LP(rank int32) *dispatcher.LP { return s.lps[rank] }

// AllDone reports whether every LP has consumed its trace's terminal End op.
func (s *Simulation) AllDone() bool {
	for _, lp := range s.lps {
		if !lp.State.Done {
			return false
		}
	}
	return true
}

// Report writes the §6 finalize summary (per-LP lines plus the global
// summary) to w, averaging over numNetTraces ranks.
func (s *Simulation) Report(w io.Writer, numNetTraces int) error {
	return s.metrics.WriteReport(w, numNetTraces)
}
