// Package tracebuffer implements the per-rank double-ended op store of
// §4.1: a FIFO queue of not-yet-consumed WorkloadOps backed by a lazy pull
// from a Reader, and a LIFO stack of consumed ops that makes GetNext
// reversible via RollBackPrev.
package tracebuffer

import (
	"github.com/codes-sim/mpi-replay/internal/simerr"
	"github.com/codes-sim/mpi-replay/internal/wkldop"
)

// Reader produces the next batch of canonical ops for one rank, per call.
// tracereader.Adapter satisfies this.
type Reader interface {
	ReadNext() ([]wkldop.WorkloadOp, error)
}

// Buffer is one rank's trace op store.
type Buffer struct {
	App  int32
	Rank int32

	reader Reader

	queue        []wkldop.WorkloadOp // not-yet-consumed, FIFO
	reverseStack []wkldop.WorkloadOp // consumed, LIFO

	sequenceID      uint64
	finalizeReached bool
}

// New creates a Buffer that lazily pulls from reader on demand.
func New(app, rank int32, reader Reader) *Buffer {
	return &Buffer{App: app, Rank: rank, reader: reader}
}

// GetNext returns the next op, pulling from the Reader if the queue is
// empty, assigning and bumping sequence_id, and pushing the returned op
// onto the reverse stack so RollBackPrev can undo this call.
func (b *Buffer) GetNext() (wkldop.WorkloadOp, error) {
	// A single reader call may contribute zero ops (e.g. MPI_Init, or an
	// ignored informational call): keep pulling until something lands in
	// the queue or the reader itself emits the terminal End op.
	for len(b.queue) == 0 && !b.finalizeReached {
		if err := b.pull(); err != nil {
			return wkldop.WorkloadOp{}, err
		}
	}

	var op wkldop.WorkloadOp
	if len(b.queue) == 0 {
		op = wkldop.NewEnd()
	} else {
		op = b.queue[0]
		b.queue = b.queue[1:]
	}

	if op.Kind == wkldop.KindEnd {
		b.finalizeReached = true
	}

	b.sequenceID++
	op.SequenceID = b.sequenceID
	b.reverseStack = append(b.reverseStack, op)
	return op, nil
}

// pull invokes the reader for a single call, appending whatever ops it
// returns (possibly a leading Delay, possibly several for MPI_Sendrecv) to
// the queue's tail.
func (b *Buffer) pull() error {
	ops, err := b.reader.ReadNext()
	if err != nil {
		return err
	}
	b.queue = append(b.queue, ops...)
	return nil
}

// RollBackPrev undoes the most recent GetNext: pops the reverse stack and
// re-inserts the op at the front of the queue, decrementing sequence_id.
// Fails (fatal, per §4.5) if the reverse stack is empty.
func (b *Buffer) RollBackPrev() error {
	n := len(b.reverseStack)
	if n == 0 {
		return simerr.New("RollBackPrev", simerr.CodeEmptyReverseStack, "reverse stack empty")
	}

	op := b.reverseStack[n-1]
	b.reverseStack = b.reverseStack[:n-1]

	b.queue = append([]wkldop.WorkloadOp{op}, b.queue...)
	b.sequenceID--

	if op.Kind == wkldop.KindEnd {
		b.finalizeReached = false
	}
	return nil
}

// SequenceID reports the buffer's current sequence counter.
func (b *Buffer) SequenceID() uint64 { return b.sequenceID }

// FinalizeReached reports whether the End op has been consumed.
func (b *Buffer) FinalizeReached() bool { return b.finalizeReached }

// QueueLen reports the number of unconsumed ops currently buffered (test/
// diagnostic helper; not part of the forward/reverse contract).
func (b *Buffer) QueueLen() int { return len(b.queue) }
