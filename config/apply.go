package config

import (
	"github.com/Drwalin/ICon7-sub000/host"
	"github.com/Drwalin/ICon7-sub000/loop"
	"github.com/Drwalin/ICon7-sub000/peer"
)

// Apply pushes cfg's tunables into the host, peer and loop packages. It
// is meant to be called once at process startup, before any Host, Peer
// or Loop is constructed: host and peer tunables take effect for objects
// constructed afterwards, and loop tunables take effect on the next
// RunSingleIteration.
//
// TickInterval is not applied here: it is a per-Loop construction
// parameter (loop.New), not a process-wide default, since distinct Loops
// in the same process may legitimately want distinct tick rates.
func Apply(cfg RuntimeConfig) {
	host.Configure(cfg.ReadBufferSize)
	peer.Configure(cfg.MaxLocalQueueSize, cfg.MaxFlushIterations, cfg.StageBufferSize)
	loop.Configure(cfg.MaxCommandsPerIteration, cfg.MaxTimeoutChecksPerIteration)
}
