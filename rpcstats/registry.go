package rpcstats

import "sync"

// Registry combines any number of named stats sources into one flat
// snapshot and one named-probe dump, the way the teacher's
// control.MetricsRegistry and control.DebugProbes split "numeric
// counters" from "arbitrary inspection hooks" — kept as two methods on
// one type here since ICon7 only ever needs one registry per process,
// not the teacher's separately-constructed pair.
type Registry struct {
	mu     sync.RWMutex
	probes map[string]func() any
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{probes: make(map[string]func() any)}
}

// RegisterProbe installs a named inspection hook, mirroring
// control.DebugProbes.RegisterProbe. fn is called fresh on every
// Snapshot/DumpState, so it should be cheap.
func (r *Registry) RegisterProbe(name string, fn func() any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.probes[name] = fn
}

// RegisterPeer installs name as a prefix exposing every PeerStats
// counter as its own flattened metric key.
func (r *Registry) RegisterPeer(name string, s *PeerStats) {
	r.RegisterProbe(name, func() any { return s.Snapshot() })
}

// RegisterHost installs name as a prefix exposing every HostStats
// counter as its own flattened metric key.
func (r *Registry) RegisterHost(name string, s *HostStats) {
	r.RegisterProbe(name, func() any { return s.Snapshot() })
}

// RegisterLoop installs name as a prefix exposing every LoopStats
// counter as its own flattened metric key.
func (r *Registry) RegisterLoop(name string, s *LoopStats) {
	r.RegisterProbe(name, func() any { return s.Snapshot() })
}

// RegisterMemory installs name as a prefix exposing a memory allocator
// snapshot, read fresh via get on every Snapshot/DumpState call.
func (r *Registry) RegisterMemory(name string, get func() MemorySnapshot) {
	r.RegisterProbe(name, func() any { return get() })
}

// DumpState returns the raw result of every registered probe, keyed by
// the name it was registered under — mirrors control.DebugProbes.DumpState.
func (r *Registry) DumpState() map[string]any {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[string]any, len(r.probes))
	for name, fn := range r.probes {
		out[name] = fn()
	}
	return out
}

// Snapshot flattens every registered probe's result into one
// prefix.field -> value map, mirroring control.MetricsRegistry.GetSnapshot
// but computed on demand from live probes instead of a separately
// maintained Set-keyed map.
func (r *Registry) Snapshot() map[string]any {
	out := make(map[string]any)
	for name, v := range r.DumpState() {
		prefix := name + "."
		switch sn := v.(type) {
		case PeerSnapshot:
			for k, val := range sn.asMap(prefix) {
				out[k] = val
			}
		case HostSnapshot:
			for k, val := range sn.asMap(prefix) {
				out[k] = val
			}
		case LoopSnapshot:
			for k, val := range sn.asMap(prefix) {
				out[k] = val
			}
		case MemorySnapshot:
			for k, val := range sn.asMap(prefix) {
				out[k] = val
			}
		default:
			out[name] = v
		}
	}
	return out
}
