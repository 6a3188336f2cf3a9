package simerr

import (
	"errors"
	"testing"
)

func TestErrorIsMatchesByCode(t *testing.T) {
	a := New("GetNext", CodeEmptyReverseStack, "nothing to roll back")
	b := New("RollBackPrev", CodeEmptyReverseStack, "different message, same code")

	if !errors.Is(a, b) {
		t.Fatalf("errors with the same Code should compare equal via errors.Is")
	}
}

func TestWrapPreservesCode(t *testing.T) {
	inner := New("Notify", CodeUnknownReqID, "req 7 does not exist")
	wrapped := Wrap("Waitall", inner)

	if wrapped.Code != CodeUnknownReqID {
		t.Fatalf("Wrap should preserve the inner Code, got %v", wrapped.Code)
	}
	if !errors.Is(wrapped, inner) {
		t.Fatalf("wrapped error should still match inner via errors.Is")
	}
}

func TestFatalClassification(t *testing.T) {
	if !New("x", CodeEmptyReverseStack, "").Fatal() {
		t.Fatalf("state-machine errors must be fatal")
	}
	if New("x", CodeUnknownReqID, "").Fatal() {
		t.Fatalf("benign anomalies must not be fatal")
	}
}
