// Package config holds the runtime's process-wide tunables and the
// thread-safe dynamic store that can stage and hot-reload them, adapted
// from the teacher's control/config.go ConfigStore, repurposed here to
// hold RPC-engine tunables (read chunk size, write-staging size, loop
// batch sizes) instead of websocket server tunables.
package config

import "time"

// RuntimeConfig collects every tunable exposed across the loop-thread
// packages (§5 "Scheduling model" of the specification): Host's
// per-connection read chunk size, Peer's send-pipeline bounds, and
// Loop's per-iteration housekeeping batch sizes.
type RuntimeConfig struct {
	// ReadBufferSize is host.Host's per-connection read chunk size.
	ReadBufferSize int

	// StageBufferSize is peer.Peer's write-staging coalescing buffer size.
	StageBufferSize int
	// MaxLocalQueueSize bounds one refill of a Peer's local send queue.
	MaxLocalQueueSize int
	// MaxFlushIterations bounds one OnWritable pass over a Peer's queue.
	MaxFlushIterations int

	// TickInterval is how often a Loop with no other wakeup source runs
	// its housekeeping pass.
	TickInterval time.Duration
	// MaxCommandsPerIteration bounds how many commands one Host's queue
	// drains per Loop iteration.
	MaxCommandsPerIteration int
	// MaxTimeoutChecksPerIteration bounds one Host's RPC timeout sweep
	// per Loop iteration.
	MaxTimeoutChecksPerIteration int
}

// Default returns the tunables every package already uses as its
// zero-config behavior, so callers can start from these and override
// only what they need.
func Default() RuntimeConfig {
	return RuntimeConfig{
		ReadBufferSize: 64 * 1024,

		StageBufferSize:    4096,
		MaxLocalQueueSize:  128,
		MaxFlushIterations: 300,

		TickInterval:                 500 * time.Microsecond,
		MaxCommandsPerIteration:      1024,
		MaxTimeoutChecksPerIteration: 16,
	}
}
