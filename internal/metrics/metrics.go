// Package metrics implements the finalize-time reporting of §6: a per-LP
// summary line and a global summary reduced across per-executor shards.
// Byte counters live here as mutex-guarded shards (per-executor, never a single
// shared cell, per §9's "global mutable state" note) while the op counts and
// timing accumulators are read directly off each LP's lpstate.State, which
// already owns them.
package metrics

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/codes-sim/mpi-replay/internal/lpstate"
)

// Shard is one LP's mutex-guarded byte counters. lpstate.Counters/Timings already
// cover op counts and durations; bytes sent/received are tracked here
// because they are reported globally (§6 "total bytes sent/received") and
// don't otherwise belong to any single struct.
type Shard struct {
	mu         sync.Mutex
	bytesSent  uint64
	bytesRecvd uint64
}

// AddBytesSent records bytes handed to the network model on a Send/ISend.
func (s *Shard) AddBytesSent(n uint64) {
	s.mu.Lock()
	s.bytesSent += n
	s.mu.Unlock()
}

// AddBytesRecvd records bytes accepted by a matched Recv/IRecv.
func (s *Shard) AddBytesRecvd(n uint64) {
	s.mu.Lock()
	s.bytesRecvd += n
	s.mu.Unlock()
}

// SubBytesSent undoes a prior AddBytesSent (reverse handler support).
func (s *Shard) SubBytesSent(n uint64) {
	s.mu.Lock()
	s.bytesSent -= n
	s.mu.Unlock()
}

// SubBytesRecvd undoes a prior AddBytesRecvd (reverse handler support).
func (s *Shard) SubBytesRecvd(n uint64) {
	s.mu.Lock()
	s.bytesRecvd -= n
	s.mu.Unlock()
}

func (s *Shard) snapshot() (sent, recvd uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.bytesSent, s.bytesRecvd
}

// entry pairs one LP's state with its byte shard for reduction at finalize.
type entry struct {
	state *lpstate.State
	shard *Shard
}

// Registry is the process-wide directory of registered LPs, read at
// finalize to produce the §6 report. One Registry is created per
// simulation run.
type Registry struct {
	mu      sync.RWMutex
	entries map[uint64]*entry
	order   []uint64
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{entries: make(map[uint64]*entry)}
}

// Register attaches a byte-counting Shard to an LP's state and returns it
// for the dispatcher to update as it runs. Calling Register twice for the
// same LPID replaces the previous shard.
func (r *Registry) Register(state *lpstate.State) *Shard {
	r.mu.Lock()
	defer r.mu.Unlock()

	shard := &Shard{}
	if _, exists := r.entries[state.LPID]; !exists {
		r.order = append(r.order, state.LPID)
	}
	r.entries[state.LPID] = &entry{state: state, shard: shard}
	return shard
}

// LPSnapshot is one LP's finalize-time line (§6 "Per-LP line").
type LPSnapshot struct {
	LPID           uint64
	UnmatchedIrecv int
	UnmatchedSend  int
	NumSends       uint64
	NumRecvs       uint64
	NumCols        uint64
	NumDelays      uint64
	NumWaitall     uint64
	NumWaitsome    uint64
	NumWait        uint64
	SearchOverhead time.Duration
	SendTime       time.Duration
	RecvTime       time.Duration
	WaitTime       time.Duration
	BytesSent      uint64
	BytesRecvd     uint64
}

// GlobalSnapshot is the §6 "Global summary": byte totals plus runtime/comm/
// send/recv/wait timings, maxed and averaged across num_net_traces ranks.
type GlobalSnapshot struct {
	TotalBytesSent  uint64
	TotalBytesRecvd uint64

	MaxRuntime  time.Duration
	AvgRuntime  time.Duration
	MaxCommTime time.Duration
	AvgCommTime time.Duration
	MaxSendTime time.Duration
	AvgSendTime time.Duration
	MaxRecvTime time.Duration
	AvgRecvTime time.Duration
	MaxWaitTime time.Duration
	AvgWaitTime time.Duration
}

// LPSnapshots returns one snapshot per registered LP, in registration order.
func (r *Registry) LPSnapshots() []LPSnapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()

	snaps := make([]LPSnapshot, 0, len(r.order))
	for _, id := range r.order {
		e := r.entries[id]
		sent, recvd := e.shard.snapshot()
		s := e.state
		snaps = append(snaps, LPSnapshot{
			LPID:           s.LPID,
			UnmatchedIrecv: s.UnmatchedRecvs(),
			UnmatchedSend:  s.UnmatchedSends(),
			NumSends:       s.NumSends,
			NumRecvs:       s.NumRecvs,
			NumCols:        s.NumCols,
			NumDelays:      s.NumDelays,
			NumWaitall:     s.NumWaitall,
			NumWaitsome:    s.NumWaitsome,
			NumWait:        s.NumWait,
			SearchOverhead: s.SearchOverhead,
			SendTime:       s.SendTime,
			RecvTime:       s.RecvTime,
			WaitTime:       s.WaitTime,
			BytesSent:      sent,
			BytesRecvd:     recvd,
		})
	}
	return snaps
}

// Global reduces every registered LP's timings into the §6 global summary.
// numNetTraces is the divisor for the averages (the number of ranks the run
// was configured for, which may exceed len(registered LPs) for a partial
// run).
func (r *Registry) Global(numNetTraces int) GlobalSnapshot {
	snaps := r.LPSnapshots()

	var g GlobalSnapshot
	var sumRuntime, sumComm, sumSend, sumRecv, sumWait time.Duration

	for _, s := range snaps {
		g.TotalBytesSent += s.BytesSent
		g.TotalBytesRecvd += s.BytesRecvd

		commTime := s.SendTime + s.RecvTime + s.WaitTime
		runtime := commTime + s.SearchOverhead

		if runtime > g.MaxRuntime {
			g.MaxRuntime = runtime
		}
		if commTime > g.MaxCommTime {
			g.MaxCommTime = commTime
		}
		if s.SendTime > g.MaxSendTime {
			g.MaxSendTime = s.SendTime
		}
		if s.RecvTime > g.MaxRecvTime {
			g.MaxRecvTime = s.RecvTime
		}
		if s.WaitTime > g.MaxWaitTime {
			g.MaxWaitTime = s.WaitTime
		}

		sumRuntime += runtime
		sumComm += commTime
		sumSend += s.SendTime
		sumRecv += s.RecvTime
		sumWait += s.WaitTime
	}

	if numNetTraces > 0 {
		n := time.Duration(numNetTraces)
		g.AvgRuntime = sumRuntime / n
		g.AvgCommTime = sumComm / n
		g.AvgSendTime = sumSend / n
		g.AvgRecvTime = sumRecv / n
		g.AvgWaitTime = sumWait / n
	}
	return g
}

// WriteReport prints the §6 finalize output: one line per LP followed by
// the global summary, in the teacher's plain key-value stdout style.
func (r *Registry) WriteReport(w io.Writer, numNetTraces int) error {
	for _, s := range r.LPSnapshots() {
		if _, err := fmt.Fprintf(w,
			"LP %d unmatched irecvs %d unmatched sends %d Total sends %d receives %d collectives %d delays %d wait alls %d waits %d search overhead %s send time %s recv time %s wait %s\n",
			s.LPID, s.UnmatchedIrecv, s.UnmatchedSend,
			s.NumSends, s.NumRecvs, s.NumCols, s.NumDelays, s.NumWaitall, s.NumWait,
			s.SearchOverhead, s.SendTime, s.RecvTime, s.WaitTime,
		); err != nil {
			return err
		}
	}

	g := r.Global(numNetTraces)
	_, err := fmt.Fprintf(w,
		"total bytes sent %d received %d; max runtime %s avg %s; max comm %s avg %s; max send %s avg %s; max recv %s avg %s; max wait %s avg %s\n",
		g.TotalBytesSent, g.TotalBytesRecvd,
		g.MaxRuntime, g.AvgRuntime,
		g.MaxCommTime, g.AvgCommTime,
		g.MaxSendTime, g.AvgSendTime,
		g.MaxRecvTime, g.AvgRecvTime,
		g.MaxWaitTime, g.AvgWaitTime,
	)
	return err
}
