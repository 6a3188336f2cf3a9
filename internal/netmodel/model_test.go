package netmodel

import (
	"testing"
	"time"

	"github.com/codes-sim/mpi-replay/internal/wkldop"
)

func TestDragonflyDestLPFormula(t *testing.T) {
	// 4 NW-LPs per rep, 2 routers -> lps_per_rep = 2*4+2 = 10.
	got := DragonflyDestLP(6, 4, 2)
	want := uint64(10*(6/4) + 6%4)
	if got != want {
		t.Fatalf("DragonflyDestLP(6,4,2) = %d, want %d", got, want)
	}
}

func TestParseTopologyRoundTrip(t *testing.T) {
	cases := map[string]Topology{
		"torus": Torus, "dragonfly": Dragonfly, "simplenet": Simplenet, "loggp": LogGP,
	}
	for name, want := range cases {
		got, err := ParseTopology(name)
		if err != nil || got != want {
			t.Fatalf("ParseTopology(%q) = %v, %v; want %v", name, got, err, want)
		}
	}
}

func TestParseTopologyRejectsUnknown(t *testing.T) {
	if _, err := ParseTopology("bogus"); err == nil {
		t.Fatalf("unknown topology name should be an error")
	}
}

type fakeMapper struct{ lp uint64 }

func (f fakeMapper) LPForRank(int32) uint64 { return f.lp }

func TestDestLPUsesMapperForNonDragonfly(t *testing.T) {
	got := DestLP(Torus, 3, 4, 2, fakeMapper{lp: 99})
	if got != 99 {
		t.Fatalf("non-dragonfly topologies should defer to the mapper, got %d", got)
	}
}

func TestIdentityMapperReturnsRankUnchanged(t *testing.T) {
	var m Mapper = IdentityMapper{}
	if got := m.LPForRank(42); got != 42 {
		t.Fatalf("IdentityMapper.LPForRank(42) = %d, want 42", got)
	}
}

func TestLoopbackDeliversAfterLatency(t *testing.T) {
	var scheduledAt time.Duration
	var scheduledFn func()
	schedule := func(at time.Duration, fn func()) {
		scheduledAt = at
		scheduledFn = fn
	}

	l := NewLoopback(10*time.Millisecond, schedule)
	var arrivedAt time.Duration
	l.Send(1, 2, wkldop.NewSend(2, 0, 1, 100, 0, false, true), 5*time.Millisecond, func(at time.Duration) {
		arrivedAt = at
	})

	if scheduledAt != 15*time.Millisecond {
		t.Fatalf("expected delivery scheduled at 15ms, got %v", scheduledAt)
	}
	if l.BytesInFlight() != 100 {
		t.Fatalf("bytes should be in flight until delivery runs")
	}

	scheduledFn()
	if arrivedAt != 15*time.Millisecond {
		t.Fatalf("arrived callback should receive the delivery timestamp, got %v", arrivedAt)
	}
	if l.BytesInFlight() != 0 {
		t.Fatalf("bytes in flight should clear after delivery")
	}
}
