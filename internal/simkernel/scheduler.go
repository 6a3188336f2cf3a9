// Package simkernel is the PDES kernel boundary (§1 Non-goals: real event
// scheduling, GVT computation and rollback orchestration are an external
// collaborator's job). It ships a minimal in-process reference scheduler —
// a priority queue of timestamped closures — used by the scenario tests
// (§8 S1-S6) and the CLI driver, since no real ROSS binding is available
// here. It does not attempt optimistic rollback itself: every forward
// transition's reverse is the dispatcher's paired reverse handler, not
// anything this scheduler replays.
package simkernel

import (
	"container/heap"
	"time"
)

// EventFunc is a scheduled closure; it receives the simulated time at which
// it is running.
type EventFunc func(now time.Duration)

type event struct {
	at  time.Duration
	seq uint64 // insertion order, used to break time ties deterministically
	fn  EventFunc
}

type eventHeap []event

func (h eventHeap) Len() int { return len(h) }
func (h eventHeap) Less(i, j int) bool {
	if h[i].at != h[j].at {
		return h[i].at < h[j].at
	}
	return h[i].seq < h[j].seq
}
func (h eventHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }
func (h *eventHeap) Push(x any)        { *h = append(*h, x.(event)) }
func (h *eventHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

// Scheduler is a single-threaded priority-queue event loop. It is the
// reference "kernel" the CLI driver and scenario tests run LPs against.
type Scheduler struct {
	pending eventHeap
	seq     uint64
	now     time.Duration
}

// New creates an empty Scheduler at simulated time zero.
func New() *Scheduler {
	s := &Scheduler{}
	heap.Init(&s.pending)
	return s
}

// Now reports the scheduler's current simulated time (the timestamp of the
// event most recently run, or zero before the first Step).
func (s *Scheduler) Now() time.Duration { return s.now }

// Schedule enqueues fn to run at simulated time at. at must be >= Now() —
// the dispatcher's jittered-lookahead timestamps (§4.4) guarantee this.
func (s *Scheduler) Schedule(at time.Duration, fn EventFunc) {
	heap.Push(&s.pending, event{at: at, seq: s.seq, fn: fn})
	s.seq++
}

// Pending reports how many events are queued.
func (s *Scheduler) Pending() int { return len(s.pending) }

// Step runs the single earliest-timestamped pending event and reports
// whether one was run (false when the queue is empty).
func (s *Scheduler) Step() bool {
	if len(s.pending) == 0 {
		return false
	}
	ev := heap.Pop(&s.pending).(event)
	s.now = ev.at
	ev.fn(ev.at)
	return true
}

// Run drains the queue, running events in timestamp order until empty or
// until maxEvents have run (a zero maxEvents means unbounded, which is what
// the CLI driver passes; the scenario tests pass a positive maxEvents as a
// runaway-loop guard).
func (s *Scheduler) Run(maxEvents int) int {
	ran := 0
	for s.Step() {
		ran++
		if maxEvents > 0 && ran >= maxEvents {
			break
		}
	}
	return ran
}
