package netmodel

import (
	"sync/atomic"
	"time"

	"github.com/codes-sim/mpi-replay/internal/wkldop"
)

// Loopback is a synchronous in-memory Model, the netmodel analogue of the
// teacher's in-memory backend: it delivers every send after a fixed
// latency via a caller-supplied scheduling function rather than simulating
// link contention. It exists for tests and the reference in-process
// scheduler, not for production topology modeling.
type Loopback struct {
	Latency  time.Duration
	Schedule func(at time.Duration, fn func())

	bytesInFlight atomic.Uint64
}

// NewLoopback builds a Loopback delivering after latency via schedule.
func NewLoopback(latency time.Duration, schedule func(time.Duration, func())) *Loopback {
	return &Loopback{Latency: latency, Schedule: schedule}
}

// Send implements Model. It holds a pooled payload buffer for op.Bytes for
// the duration of the simulated transit, mirroring the memory a real
// model_net_event send holds between injection and delivery.
func (l *Loopback) Send(srcLP, dstLP uint64, op wkldop.WorkloadOp, now time.Duration, arrived func(time.Duration)) {
	l.bytesInFlight.Add(op.Bytes)
	payload := GetPayload(op.Bytes)
	at := now + l.Latency
	l.Schedule(at, func() {
		PutPayload(payload)
		l.bytesInFlight.Add(-op.Bytes)
		arrived(at)
	})
}

// BytesInFlight implements Instrumented.
func (l *Loopback) BytesInFlight() uint64 {
	return l.bytesInFlight.Load()
}
