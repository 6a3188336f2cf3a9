package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/codes-sim/mpi-replay/internal/config"
	"github.com/codes-sim/mpi-replay/internal/tracereader"
)

func TestPreflightTraceFilesPassesWhenAllPresent(t *testing.T) {
	dir := t.TempDir()
	prefix := filepath.Join(dir, "run")
	for _, rank := range []int32{0, 1, 2} {
		path := tracereader.RankFilePath(prefix, rank, 4)
		if err := os.WriteFile(path, []byte("{}\n"), 0o644); err != nil {
			t.Fatalf("failed to write fixture: %v", err)
		}
	}

	if err := preflightTraceFiles([]int32{0, 1, 2}, prefix); err != nil {
		t.Fatalf("unexpected preflight error: %v", err)
	}
}

func TestPreflightTraceFilesFailsOnMissingRank(t *testing.T) {
	dir := t.TempDir()
	prefix := filepath.Join(dir, "run")
	path := tracereader.RankFilePath(prefix, 0, 4)
	if err := os.WriteFile(path, []byte("{}\n"), 0o644); err != nil {
		t.Fatalf("failed to write fixture: %v", err)
	}

	if err := preflightTraceFiles([]int32{0, 1}, prefix); err == nil {
		t.Fatalf("expected an error for rank 1's missing trace file")
	}
}

func TestRawSourceFactoryRejectsNoneWorkload(t *testing.T) {
	if _, err := rawSourceFactory(config.CLIFlags{WorkloadFile: "none"}); err == nil {
		t.Fatalf("expected an error for workload_file=none")
	}
	if _, err := rawSourceFactory(config.CLIFlags{}); err == nil {
		t.Fatalf("expected an error for an empty workload_file")
	}
}

func TestRawSourceFactoryAcceptsFilePrefix(t *testing.T) {
	if _, err := rawSourceFactory(config.CLIFlags{WorkloadFile: "/traces/run"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
