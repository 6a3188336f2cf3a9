package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestRootCommandParsesFlags(t *testing.T) {
	var got CLIFlags
	var declFile string

	cmd := NewRootCommand(func(flags CLIFlags, decl string) error {
		got = flags
		declFile = decl
		return nil
	})
	cmd.SetArgs([]string{
		"--workload_type=dumpi",
		"--workload_file=/traces/run",
		"--num_net_traces=64",
		"--sync=conservative",
		"decl.yaml",
	})

	if err := cmd.Execute(); err != nil {
		t.Fatalf("Execute returned error: %v", err)
	}
	if got.WorkloadType != WorkloadDumpi {
		t.Fatalf("workload_type not parsed: %+v", got)
	}
	if got.NumNetTraces != 64 {
		t.Fatalf("num_net_traces not parsed: %+v", got)
	}
	if got.Sync != SyncConservative {
		t.Fatalf("sync not parsed: %+v", got)
	}
	if declFile != "decl.yaml" {
		t.Fatalf("declaration file positional arg not passed through, got %q", declFile)
	}
}

func TestRootCommandRejectsUnknownWorkloadType(t *testing.T) {
	cmd := NewRootCommand(func(CLIFlags, string) error { return nil })
	cmd.SetArgs([]string{"--workload_type=bogus", "decl.yaml"})

	if err := cmd.Execute(); err == nil {
		t.Fatalf("expected an error for an unknown workload_type")
	}
}

func TestRootCommandRequiresDeclarationFileArg(t *testing.T) {
	cmd := NewRootCommand(func(CLIFlags, string) error { return nil })
	cmd.SetArgs([]string{"--workload_type=scalatrace"})

	if err := cmd.Execute(); err == nil {
		t.Fatalf("expected an error when the declaration file argument is missing")
	}
}

func writeDecl(t *testing.T, contents string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "decl.yaml")
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("failed to write fixture: %v", err)
	}
	return path
}

func TestLoadDeclarationParsesGroupsAndValidatesTopology(t *testing.T) {
	path := writeDecl(t, `
network_model: dragonfly
lp_groups:
  - name: compute
    repetitions: 4
    nw_lps: 8
    routers: 2
`)
	decl, err := LoadDeclaration(path)
	if err != nil {
		t.Fatalf("LoadDeclaration returned error: %v", err)
	}
	if decl.NetworkModel != "dragonfly" {
		t.Fatalf("network model not parsed: %+v", decl)
	}
	if decl.TotalRanks() != 32 {
		t.Fatalf("expected 32 total ranks, got %d", decl.TotalRanks())
	}
}

func TestLoadDeclarationRejectsUnknownTopology(t *testing.T) {
	path := writeDecl(t, `
network_model: bogus
lp_groups:
  - {name: compute, nw_lps: 4}
`)
	if _, err := LoadDeclaration(path); err == nil {
		t.Fatalf("expected an error for an unknown network_model")
	}
}

func TestLoadDeclarationRejectsEmptyGroups(t *testing.T) {
	path := writeDecl(t, `network_model: torus
lp_groups: []
`)
	if _, err := LoadDeclaration(path); err == nil {
		t.Fatalf("expected an error when lp_groups is empty")
	}
}

func TestResolveNumNetTracesPrefersExplicitFlag(t *testing.T) {
	decl := &Declaration{Groups: []LPGroup{{NWLPs: 4, Repetitions: 2}}}
	if got := ResolveNumNetTraces(CLIFlags{NumNetTraces: 99}, decl); got != 99 {
		t.Fatalf("explicit flag should win, got %d", got)
	}
	if got := ResolveNumNetTraces(CLIFlags{}, decl); got != 8 {
		t.Fatalf("should default from declaration, got %d", got)
	}
}
