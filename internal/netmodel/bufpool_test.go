package netmodel

import "testing"

func TestGetPayloadSizeBuckets(t *testing.T) {
	tests := []struct {
		name      string
		request   uint64
		expectCap int
	}{
		{"4KB bucket - exact", 4 * 1024, 4 * 1024},
		{"4KB bucket - smaller", 100, 4 * 1024},
		{"64KB bucket - smaller", 40 * 1024, 64 * 1024},
		{"1MB bucket - smaller", 800 * 1024, 1024 * 1024},
		{"16MB bucket - exact", 16 * 1024 * 1024, 16 * 1024 * 1024},
	}

	for _, tt := range tests {
		buf := GetPayload(tt.request)
		if uint64(len(buf)) != tt.request {
			t.Errorf("GetPayload(%d) returned len=%d, want %d", tt.request, len(buf), tt.request)
		}
		if cap(buf) != tt.expectCap {
			t.Errorf("GetPayload(%d) returned cap=%d, want %d", tt.request, cap(buf), tt.expectCap)
		}
		PutPayload(buf)
	}
}

func TestPutPayloadIgnoresNonStandardCapacity(t *testing.T) {
	// A buffer grown past any bucket boundary is simply not returned to a
	// pool; this must not panic.
	PutPayload(make([]byte, 0, 12345))
}

func TestGetPayloadAboveTopBucketAllocatesDirectly(t *testing.T) {
	size := uint64(32 * 1024 * 1024)
	buf := GetPayload(size)
	if uint64(len(buf)) != size {
		t.Fatalf("GetPayload(%d) returned len=%d, want %d", size, len(buf), size)
	}
	// PutPayload must not panic on a buffer whose capacity matches no bucket.
	PutPayload(buf)
}
