// Package rankregistry is the hash-indexed directory from (app_id, rank) to
// that rank's Trace Buffer (§2, §3 "Trace Buffer state is created on first
// reference to (app, rank)"). It follows the package-level
// lazy-singleton-under-RWMutex discipline the logging package uses for its
// Default logger, generalized to a keyed directory instead of one value.
package rankregistry

import (
	"sync"

	"github.com/codes-sim/mpi-replay/internal/tracebuffer"
)

// Key identifies one rank's trace stream.
type Key struct {
	App  int32
	Rank int32
}

// Factory builds the Buffer for a (app, rank) pair on first reference.
type Factory func(key Key) *tracebuffer.Buffer

// Registry is the (app_id, rank) -> *tracebuffer.Buffer directory.
type Registry struct {
	mu      sync.RWMutex
	buffers map[Key]*tracebuffer.Buffer
	factory Factory
}

// New creates a Registry that lazily builds buffers via factory.
func New(factory Factory) *Registry {
	return &Registry{
		buffers: make(map[Key]*tracebuffer.Buffer),
		factory: factory,
	}
}

// Get returns the buffer for key, creating it via the factory if this is
// the first reference. Uses the same read-then-write double-checked
// locking shape as logging.Default().
func (r *Registry) Get(key Key) *tracebuffer.Buffer {
	r.mu.RLock()
	if b, ok := r.buffers[key]; ok {
		r.mu.RUnlock()
		return b
	}
	r.mu.RUnlock()

	r.mu.Lock()
	defer r.mu.Unlock()
	if b, ok := r.buffers[key]; ok {
		return b
	}
	b := r.factory(key)
	r.buffers[key] = b
	return b
}

// Len reports how many (app, rank) buffers have been created so far.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.buffers)
}

// Delete tears down the buffer for key, if one exists (simulation teardown).
func (r *Registry) Delete(key Key) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.buffers, key)
}

// Keys returns the set of (app, rank) pairs currently registered, for
// finalize-time iteration.
func (r *Registry) Keys() []Key {
	r.mu.RLock()
	defer r.mu.RUnlock()
	keys := make([]Key, 0, len(r.buffers))
	for k := range r.buffers {
		keys = append(keys, k)
	}
	return keys
}
