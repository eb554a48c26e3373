// Package icon7 is the top-level facade over the runtime's component
// packages (buffer, wireframe, command, rpc, peer, socket, host, loop):
// process-level Initialize/Deinitialize bracketing (§6), re-exported
// wire-flag constants, and thin constructors so a consumer only needs
// this one import for the common case. Grounded on facade/hioload.go's
// shape (one facade type wrapping the lower packages, a DefaultConfig,
// explicit Get* accessors) narrowed to what a named-function RPC runtime
// needs instead of a websocket server's transport/session/affinity mix.
package icon7

import (
	"sync"
	"time"

	"github.com/Drwalin/ICon7-sub000/buffer"
	"github.com/Drwalin/ICon7-sub000/command"
	"github.com/Drwalin/ICon7-sub000/config"
	"github.com/Drwalin/ICon7-sub000/future"
	"github.com/Drwalin/ICon7-sub000/host"
	"github.com/Drwalin/ICon7-sub000/loop"
	"github.com/Drwalin/ICon7-sub000/peer"
	"github.com/Drwalin/ICon7-sub000/rpc"
)

// Re-exported wire-flags constants (§3 "Flags") so callers don't need a
// second import just to pass a flags value to Send/Call.
const (
	FlagReliable        = rpc.FlagReliable
	KindCallNoFeedback  = rpc.KindCallNoFeedback
	KindCallWithReturn  = rpc.KindCallWithReturn
	KindReturn          = rpc.KindReturn
	KindProtocolControl = rpc.KindProtocolControl
)

// Flags is rpc.Flags (= wireframe.Flags): the 32-bit per-frame bitfield.
type Flags = rpc.Flags

// Peer is peer.Peer: one connection, re-exported so callers handling
// OnConnect/OnDisconnect callbacks don't need to import the peer package
// directly.
type Peer = peer.Peer

var (
	initOnce   sync.Once
	initDone   bool
	initGuard  sync.Mutex
	deinitDone bool
)

// Initialize brackets one-shot process-wide setup (§6 "Process-level
// state"): applying a RuntimeConfig to the host/peer/loop packages'
// tunables. It is idempotent; calling it more than once only applies the
// first cfg. Mirrors the teacher's facade.New(cfg) one-call-setup
// pattern, split into explicit Initialize/Deinitialize since this
// runtime (unlike a single HioloadWS instance) may host many independent
// Loops sharing one process-wide buffer.Pool.
func Initialize(cfg config.RuntimeConfig) {
	initGuard.Lock()
	defer initGuard.Unlock()
	initOnce.Do(func() {
		config.Apply(cfg)
		initDone = true
	})
}

// Deinitialize tears down process-wide state Initialize set up. Safe to
// call even if Initialize was never called. Not safe to call while any
// Loop constructed under this process is still running.
func Deinitialize() {
	initGuard.Lock()
	defer initGuard.Unlock()
	if !initDone || deinitDone {
		return
	}
	config.Apply(config.Default())
	deinitDone = true
}

// NewHost creates a host.Host drawing its peers' buffers from pool (nil
// selects buffer.DefaultPool).
func NewHost(pool *buffer.Pool) *host.Host {
	return host.New(pool)
}

// NewLoop creates a loop.Loop that wakes up every tickInterval to drain
// command queues, sweep RPC timeouts and flush peer sends; a
// non-positive interval selects the package default (500µs).
func NewLoop(tickInterval time.Duration) *loop.Loop {
	return loop.New(tickInterval)
}

// NewExecutionQueue creates a standalone command.ExecutionQueue, for
// registering a converter with its own off-loop dispatch queue (§4.H
// RegisterMessage's optional queue parameter).
func NewExecutionQueue() *command.ExecutionQueue {
	return command.NewExecutionQueue()
}

// RunLoopWithHost is a one-call convenience that wires h into a new
// Loop and runs it in its own goroutine, returning the Loop so the
// caller can QueueStopRunning/WaitStopRunning it later. Grounded on the
// teacher's facade.Start/Stop pairing, narrowed to the single
// host-per-loop case.
func RunLoopWithHost(h *host.Host, tickInterval time.Duration) *loop.Loop {
	l := loop.New(tickInterval)
	l.AddHost(h)
	go l.Run()
	return l
}

// WaitFuture blocks until f resolves and returns its value and error,
// a thin helper over future.Future.Wait for callers that don't want to
// import the future package just to block on Connect/ListenOnPort.
func WaitFuture[T any](f *future.Future[T]) (T, error) {
	return f.Wait()
}
