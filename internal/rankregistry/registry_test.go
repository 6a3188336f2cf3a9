package rankregistry

import (
	"testing"

	"github.com/codes-sim/mpi-replay/internal/tracebuffer"
	"github.com/codes-sim/mpi-replay/internal/tracereader"
)

func buildTestBuffer(key Key) *tracebuffer.Buffer {
	adapter := tracereader.NewAdapter(tracereader.NewMemSource(nil), key.Rank)
	return tracebuffer.New(key.App, key.Rank, adapter)
}

func TestGetCreatesOnFirstReference(t *testing.T) {
	calls := 0
	r := New(func(key Key) *tracebuffer.Buffer {
		calls++
		return buildTestBuffer(key)
	})

	b1 := r.Get(Key{App: 0, Rank: 1})
	b2 := r.Get(Key{App: 0, Rank: 1})

	if calls != 1 {
		t.Fatalf("factory should only run once per key, ran %d times", calls)
	}
	if b1 != b2 {
		t.Fatalf("Get should return the same buffer instance for the same key")
	}
}

func TestGetDistinguishesKeys(t *testing.T) {
	r := New(buildTestBuffer)
	r.Get(Key{App: 0, Rank: 1})
	r.Get(Key{App: 0, Rank: 2})
	r.Get(Key{App: 1, Rank: 1})

	if r.Len() != 3 {
		t.Fatalf("expected 3 distinct buffers, got %d", r.Len())
	}
}

func TestDeleteRemovesEntry(t *testing.T) {
	r := New(buildTestBuffer)
	key := Key{App: 0, Rank: 1}
	r.Get(key)
	r.Delete(key)

	if r.Len() != 0 {
		t.Fatalf("Delete should remove the entry")
	}
}
