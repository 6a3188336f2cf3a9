package lpstate

import "testing"

func TestMarkAndUnmarkCompleted(t *testing.T) {
	s := New(1, 0)

	if s.IsCompleted(5) {
		t.Fatalf("fresh state should have no completed requests")
	}

	s.MarkCompleted(5)
	if !s.IsCompleted(5) {
		t.Fatalf("MarkCompleted should make IsCompleted true")
	}

	if !s.UnmarkCompleted(5) {
		t.Fatalf("UnmarkCompleted should succeed for a present id")
	}
	if s.IsCompleted(5) {
		t.Fatalf("UnmarkCompleted should remove the id")
	}
	if s.UnmarkCompleted(5) {
		t.Fatalf("UnmarkCompleted should report false for an absent id")
	}
}

func TestUnmatchedCounts(t *testing.T) {
	s := New(2, 1)
	if s.UnmatchedSends() != 0 || s.UnmatchedRecvs() != 0 {
		t.Fatalf("fresh state should report zero unmatched ops")
	}
}
