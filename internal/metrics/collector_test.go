package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/codes-sim/mpi-replay/internal/lpstate"
)

func TestCollectorExportsRegisteredLPs(t *testing.T) {
	r := NewRegistry()
	state := lpstate.New(2, 0)
	state.NumSends = 3
	shard := r.Register(state)
	shard.AddBytesSent(512)

	c := NewCollector(r)

	count := testutil.CollectAndCount(c)
	if count == 0 {
		t.Fatalf("expected at least one metric family, got none")
	}
}
