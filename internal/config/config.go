// Package config loads the two-tier configuration of §6: CLI flags via
// cobra/pflag (workload source, net-trace count, sync mode) and the
// LP-group/network-model/LP-count declaration file via yaml.v3. It mirrors
// the teacher's cmd/ublk-mem/main.go flag-then-wire flow, generalized from
// flag.FlagSet to cobra.Command because this CLI has a required positional
// config-file argument in addition to its flags.
package config

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/codes-sim/mpi-replay/internal/netmodel"
	"github.com/codes-sim/mpi-replay/internal/simerr"
)

// WorkloadType is the trace format the run replays.
type WorkloadType string

const (
	WorkloadScalatrace WorkloadType = "scalatrace"
	WorkloadDumpi      WorkloadType = "dumpi"
)

// SyncMode selects the kernel's synchronization protocol, carried through
// unexamined by the core (the in-process scheduler runs every event in
// timestamp order with no rollback, whatever the mode; see §1 Non-goals),
// but preserved because CODES callers always pass it.
type SyncMode string

const (
	SyncSequential  SyncMode = "sequential"
	SyncConservative SyncMode = "conservative"
	SyncOptimistic  SyncMode = "optimistic"
)

// CLIFlags is the set of flags read from argv[1:] (§6 Inputs), independent
// of the declaration file at argv[2].
type CLIFlags struct {
	WorkloadType WorkloadType
	WorkloadFile string
	NumNetTraces int
	OffsetFile   string
	Sync         SyncMode
}

// NewRootCommand builds the cobra command tree for the replay binary. run is
// invoked with the parsed flags and the resolved declaration-file path (the
// first positional argument).
func NewRootCommand(run func(flags CLIFlags, declFile string) error) *cobra.Command {
	flags := CLIFlags{WorkloadType: WorkloadScalatrace, Sync: SyncOptimistic}
	var workloadTypeStr, syncStr string

	cmd := &cobra.Command{
		Use:   "mpi-replay <config-file>",
		Short: "Replay MPI communication traces as PDES workload generators",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			wt, err := parseWorkloadType(workloadTypeStr)
			if err != nil {
				return err
			}
			flags.WorkloadType = wt

			sm, err := parseSyncMode(syncStr)
			if err != nil {
				return err
			}
			flags.Sync = sm

			return run(flags, args[0])
		},
	}

	pf := cmd.Flags()
	pf.StringVar(&workloadTypeStr, "workload_type", string(WorkloadScalatrace), "trace format: scalatrace|dumpi")
	pf.StringVar(&flags.WorkloadFile, "workload_file", "", "per-rank trace file prefix (\"none\", an in-process generator, is not supported)")
	pf.IntVar(&flags.NumNetTraces, "num_net_traces", 0, "number of ranks to replay (0 = infer from the declaration file)")
	pf.StringVar(&flags.OffsetFile, "offset_file", "", "scalatrace offset file (scalatrace workloads only)")
	pf.StringVar(&syncStr, "sync", string(SyncOptimistic), "kernel synchronization mode: sequential|conservative|optimistic")

	return cmd
}

func parseWorkloadType(s string) (WorkloadType, error) {
	switch WorkloadType(s) {
	case WorkloadScalatrace, WorkloadDumpi:
		return WorkloadType(s), nil
	default:
		return "", simerr.New("parseWorkloadType", simerr.CodeBadConfig, fmt.Sprintf("unknown workload_type %q", s))
	}
}

func parseSyncMode(s string) (SyncMode, error) {
	switch SyncMode(s) {
	case SyncSequential, SyncConservative, SyncOptimistic:
		return SyncMode(s), nil
	default:
		return "", simerr.New("parseSyncMode", simerr.CodeBadConfig, fmt.Sprintf("unknown sync mode %q", s))
	}
}

// LPGroup declares one named group of LPs sharing a network-model role
// (e.g. the "nw-lps" that run the replay vs. the routers/NICs that don't).
type LPGroup struct {
	Name       string `yaml:"name"`
	Repetitions int   `yaml:"repetitions"`
	NWLPs      int    `yaml:"nw_lps"`
	Routers    int    `yaml:"routers"`
}

// Declaration is the argv[2] LP-group/network-model/LP-count file of §6.
type Declaration struct {
	NetworkModel string    `yaml:"network_model"`
	Groups       []LPGroup `yaml:"lp_groups"`
}

// LoadDeclaration reads and validates the declaration file at path.
func LoadDeclaration(path string) (*Declaration, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, simerr.New("LoadDeclaration", simerr.CodeMissingTrace, err.Error())
	}

	var decl Declaration
	if err := yaml.Unmarshal(data, &decl); err != nil {
		return nil, simerr.New("LoadDeclaration", simerr.CodeBadConfig, err.Error())
	}

	if _, err := netmodel.ParseTopology(decl.NetworkModel); err != nil {
		return nil, simerr.New("LoadDeclaration", simerr.CodeBadConfig, err.Error())
	}
	if len(decl.Groups) == 0 {
		return nil, simerr.New("LoadDeclaration", simerr.CodeBadConfig, "declaration file names no lp_groups")
	}

	return &decl, nil
}

// TotalRanks sums nw_lps * repetitions across every group: the supplemented
// "num_net_traces defaults from the LP-count mapping" feature (SUPPLEMENTED
// FEATURES #4) when --num_net_traces is left at its zero default.
func (d *Declaration) TotalRanks() int {
	total := 0
	for _, g := range d.Groups {
		reps := g.Repetitions
		if reps == 0 {
			reps = 1
		}
		total += g.NWLPs * reps
	}
	return total
}

// ResolveNumNetTraces returns flags.NumNetTraces if set, else
// decl.TotalRanks().
func ResolveNumNetTraces(flags CLIFlags, decl *Declaration) int {
	if flags.NumNetTraces > 0 {
		return flags.NumNetTraces
	}
	return decl.TotalRanks()
}
