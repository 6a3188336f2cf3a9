// Command mpi-replay drives a replay run from the command line: parse the
// §6 CLI flags and declaration file, wire a Simulation, run it to
// completion, and print the finalize-time summary. Grounded on the
// teacher's cmd/ublk-mem/main.go flag-then-wire-then-serve shape, with
// cobra/pflag in place of the stdlib flag package (see internal/config).
package main

import (
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"runtime/pprof"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	mpireplay "github.com/codes-sim/mpi-replay"
	"github.com/codes-sim/mpi-replay/internal/config"
	"github.com/codes-sim/mpi-replay/internal/logging"
	"github.com/codes-sim/mpi-replay/internal/netmodel"
	"github.com/codes-sim/mpi-replay/internal/tracereader"
)

func main() {
	cmd := config.NewRootCommand(run)
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(flags config.CLIFlags, declPath string) error {
	logger := logging.Default()
	logging.SetDefault(logger)

	decl, err := config.LoadDeclaration(declPath)
	if err != nil {
		logger.Error("failed to load declaration file", "error", err, "path", declPath)
		return err
	}

	topology, err := netmodel.ParseTopology(decl.NetworkModel)
	if err != nil {
		logger.Error("unknown network model", "error", err)
		return err
	}

	numNetTraces := config.ResolveNumNetTraces(flags, decl)
	ranks := make([]int32, numNetTraces)
	for i := range ranks {
		ranks[i] = int32(i)
	}

	rawSourceFor, err := rawSourceFactory(flags)
	if err != nil {
		return err
	}
	if err := preflightTraceFiles(ranks, flags.WorkloadFile); err != nil {
		logger.Error("per-rank trace file preflight failed", "error", err)
		return err
	}

	sim, err := mpireplay.New(mpireplay.Params{
		Ranks:        ranks,
		RawSourceFor: rawSourceFor,
		Topology:     topology,
		Mapper:       netmodel.IdentityMapper{},
		NumNWLPs:     int32(numNetTraces),
		NetFactory: func(schedule func(at time.Duration, fn func(now time.Duration))) netmodel.Model {
			return netmodel.NewLoopback(100*time.Nanosecond, func(at time.Duration, fn func()) {
				schedule(at, func(time.Duration) { fn() })
			})
		},
		Lookahead: 200 * time.Nanosecond,
		Noise:     5.0,
		Logger:    logger,
	})
	if err != nil {
		logger.Error("failed to wire simulation", "error", err)
		return err
	}

	installStackDumpHandler(logger)

	logger.Info("starting replay", "ranks", numNetTraces, "topology", decl.NetworkModel, "sync", flags.Sync)
	sim.Start()
	events := sim.Run(0)
	logger.Info("replay complete", "events", events, "sim_time", sim.Now())

	if err := sim.Report(os.Stdout, numNetTraces); err != nil {
		logger.Error("failed to write finalize report", "error", err)
		return err
	}
	return nil
}

// rawSourceFactory resolves --workload_file into a per-rank RawSource
// factory. A "none" prefix (or empty) is the in-process synthesized
// workload referenced in §6 Inputs; this module has no Cortex/Python
// generator binding, so "none" is rejected with a clear config error
// rather than silently producing an empty trace.
func rawSourceFactory(flags config.CLIFlags) (func(rank int32) tracereader.RawSource, error) {
	if flags.WorkloadFile == "" || flags.WorkloadFile == "none" {
		return nil, fmt.Errorf("workload_file: in-process trace generation is not supported; pass a per-rank trace file prefix")
	}
	prefix := flags.WorkloadFile
	return func(rank int32) tracereader.RawSource {
		path := tracereader.RankFilePath(prefix, rank, 4)
		src, err := tracereader.OpenFileSource(path)
		if err != nil {
			logging.Error("failed to open per-rank trace file", "error", err, "path", path)
			os.Exit(1)
		}
		return src
	}, nil
}

// preflightTraceFiles concurrently stats every rank's trace file before the
// simulation starts wiring LPs, so a run over thousands of ranks fails fast
// on the first missing file instead of getting partway through
// mpireplay.New's per-rank construction loop.
func preflightTraceFiles(ranks []int32, prefix string) error {
	var g errgroup.Group
	for _, rank := range ranks {
		rank := rank
		g.Go(func() error {
			path := tracereader.RankFilePath(prefix, rank, 4)
			if _, err := os.Stat(path); err != nil {
				return fmt.Errorf("rank %d: %w", rank, err)
			}
			return nil
		})
	}
	return g.Wait()
}

// installStackDumpHandler dumps every goroutine's stack to stderr on
// SIGUSR1, for diagnosing a run that appears to have stalled.
func installStackDumpHandler(logger *logging.Logger) {
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, syscall.SIGUSR1)
	go func() {
		for range ch {
			buf := make([]byte, 1024*1024)
			n := runtime.Stack(buf, true)
			fmt.Fprintf(os.Stderr, "=== GOROUTINE STACK DUMP ===\n%s\n", buf[:n])
			pprof.Lookup("goroutine").WriteTo(os.Stderr, 2)
			logger.Info("dumped goroutine stacks on SIGUSR1")
		}
	}()
}
