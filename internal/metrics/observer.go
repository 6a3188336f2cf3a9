package metrics

// Observer allows pluggable collection of per-op byte movement, mirroring
// the teacher's Observer/NoOpObserver/MetricsObserver trio but scoped to the
// two quantities the dispatcher can't derive from lpstate.State alone.
type Observer interface {
	// ObserveSend is called when a Send/ISend hands bytes to the network model.
	ObserveSend(lpID uint64, bytes uint64)
	// ObserveRecv is called when a matched Recv/IRecv accepts bytes.
	ObserveRecv(lpID uint64, bytes uint64)
}

// NoOpObserver discards every observation.
type NoOpObserver struct{}

func (NoOpObserver) ObserveSend(uint64, uint64) {}
func (NoOpObserver) ObserveRecv(uint64, uint64) {}

// RegistryObserver implements Observer by crediting the matching LP's Shard
// in a Registry.
type RegistryObserver struct {
	registry *Registry
}

// NewRegistryObserver builds an Observer that records into registry.
func NewRegistryObserver(registry *Registry) *RegistryObserver {
	return &RegistryObserver{registry: registry}
}

func (o *RegistryObserver) ObserveSend(lpID uint64, bytes uint64) {
	if shard := o.registry.shardFor(lpID); shard != nil {
		shard.AddBytesSent(bytes)
	}
}

func (o *RegistryObserver) ObserveRecv(lpID uint64, bytes uint64) {
	if shard := o.registry.shardFor(lpID); shard != nil {
		shard.AddBytesRecvd(bytes)
	}
}

func (r *Registry) shardFor(lpID uint64) *Shard {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if e, ok := r.entries[lpID]; ok {
		return e.shard
	}
	return nil
}

var _ Observer = NoOpObserver{}
var _ Observer = (*RegistryObserver)(nil)
