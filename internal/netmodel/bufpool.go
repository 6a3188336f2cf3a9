package netmodel

import "sync"

// Payload buffers carry the opaque WorkloadOp blob model_net_event expects
// as its local/remote message (§6). Most traces carry small control
// messages, with a long tail of bulk transfers, so buffers are pooled in
// size buckets rather than allocated per event.
const (
	size4k   = 4 * 1024
	size64k  = 64 * 1024
	size1m   = 1024 * 1024
	size16m  = 16 * 1024 * 1024
)

var payloadPool = struct {
	pool4k  sync.Pool
	pool64k sync.Pool
	pool1m  sync.Pool
	pool16m sync.Pool
}{
	pool4k:  sync.Pool{New: func() any { b := make([]byte, size4k); return &b }},
	pool64k: sync.Pool{New: func() any { b := make([]byte, size64k); return &b }},
	pool1m:  sync.Pool{New: func() any { b := make([]byte, size1m); return &b }},
	pool16m: sync.Pool{New: func() any { b := make([]byte, size16m); return &b }},
}

// GetPayload returns a buffer of at least size bytes, pooled for any size up
// to the largest bucket. Collective payloads can exceed that bucket, so
// larger requests allocate directly rather than slicing past a pooled
// buffer's capacity. Callers must call PutPayload when done with it.
func GetPayload(size uint64) []byte {
	switch {
	case size <= size4k:
		return (*payloadPool.pool4k.Get().(*[]byte))[:size]
	case size <= size64k:
		return (*payloadPool.pool64k.Get().(*[]byte))[:size]
	case size <= size1m:
		return (*payloadPool.pool1m.Get().(*[]byte))[:size]
	case size <= size16m:
		return (*payloadPool.pool16m.Get().(*[]byte))[:size]
	default:
		return make([]byte, size)
	}
}

// PutPayload returns buf to the bucket matching its capacity. Buffers with
// a non-standard capacity (grown past 16MB by a caller) are left for the
// garbage collector.
func PutPayload(buf []byte) {
	c := cap(buf)
	buf = buf[:c]
	switch c {
	case size4k:
		payloadPool.pool4k.Put(&buf)
	case size64k:
		payloadPool.pool64k.Put(&buf)
	case size1m:
		payloadPool.pool1m.Put(&buf)
	case size16m:
		payloadPool.pool16m.Put(&buf)
	}
}
