package peer

import (
	"errors"
	"log"
	"sync"
	"sync/atomic"

	"time"

	"github.com/Drwalin/ICon7-sub000/buffer"
	"github.com/Drwalin/ICon7-sub000/command"
	"github.com/Drwalin/ICon7-sub000/rpc"
	"github.com/Drwalin/ICon7-sub000/rpcstats"
	"github.com/Drwalin/ICon7-sub000/wireframe"
)

// maxLocalQueueSize bounds one DequeueToLocalQueue refill, matching
// icon7::Peer::MAX_LOCAL_QUEUE_SIZE. Process-wide tunable, overridable
// via config.Apply.
var maxLocalQueueSize = 128

// maxFlushIterations bounds one _InternalFlushQueuedSends-equivalent call,
// matching the C++ original's 300-iteration cap so one overloaded peer
// never starves the rest of a loop's writable-event pass. Process-wide
// tunable, overridable via config.Apply.
var maxFlushIterations = 300

// stageBufferSize is the write-staging buffer small frames are coalesced
// into before a Socket.Write call, matching the teacher's ~4KB coalescing
// window used elsewhere for syscall-batched I/O. Process-wide tunable,
// overridable via config.Apply; only takes effect for Peers constructed
// afterwards since it sizes each Peer's staging buffer at construction.
var stageBufferSize = 4096

// Configure overrides this package's send-pipeline tunables. Zero or
// negative values leave the corresponding setting unchanged. Intended to
// be called once at startup via config.Apply, before any Peer is
// constructed.
func Configure(localQueueSize, flushIterations, stageBufSize int) {
	if localQueueSize > 0 {
		maxLocalQueueSize = localQueueSize
	}
	if flushIterations > 0 {
		maxFlushIterations = flushIterations
	}
	if stageBufSize > 0 {
		stageBufferSize = stageBufSize
	}
}

var errDisconnecting = errors.New("peer: disconnecting, frame dropped")

type queuedFrame struct {
	buf       buffer.Buffer
	bytesSent uint32
}

// Peer is one connection: its frame decoder, its RPC dispatch target, and
// the send-side queues that get data out to the Socket. Grounded on
// original_source/include/icon7/Peer.hpp and src/Peer.cpp.
type Peer struct {
	host HostLink
	sock Socket
	pool *buffer.Pool

	flags       atomic.Uint32
	returnIDGen atomic.Uint32

	decoder *wireframe.Decoder

	// sendMu guards queued, the cross-thread MPSC send queue. A plain
	// mutex-guarded slice is used instead of a bounded lock-free ring
	// (the teacher's core/concurrency.LockFreeQueue[T]) because a bounded
	// ring would silently drop frames under sustained backpressure,
	// violating the "every Send either succeeds or is queued" contract;
	// see DESIGN.md.
	sendMu           sync.Mutex
	queued           []queuedFrame
	sendingQueueSize atomic.Int32

	// local and localOffset are loop-thread-only: no lock needed.
	local       []queuedFrame
	localOffset int

	stage     []byte
	stageUsed int

	onDisconnect      func(*Peer)
	onProtocolControl func(p *Peer, opcode byte, body []byte)

	stats *rpcstats.PeerStats

	UserData    uint64
	UserPointer interface{}
}

// New creates a Peer bound to host and riding on sock. It starts in the
// OPENING state; the owning Host transitions it to READY once its
// transport-level handshake (if any) completes.
func New(host HostLink, sock Socket, pool *buffer.Pool) *Peer {
	if pool == nil {
		pool = buffer.DefaultPool
	}
	return &Peer{
		host:    host,
		sock:    sock,
		pool:    pool,
		decoder: wireframe.NewDecoder(pool),
		stage:   make([]byte, stageBufferSize),
		stats:   rpcstats.NewPeerStats(time.Now()),
	}
}

// Stats returns this Peer's traffic counters (§4.J-adjacent
// observability), suitable for registering with an rpcstats.Registry.
func (p *Peer) Stats() *rpcstats.PeerStats { return p.stats }

// SetOnDisconnect installs a per-peer disconnect handler, overriding the
// host-level fallback for this Peer only.
func (p *Peer) SetOnDisconnect(fn func(*Peer)) { p.onDisconnect = fn }

// SetOnProtocolControl installs the handler for control-sequence opcodes
// >= 0x80 (§6 "opcodes reserved for backend extensions"). opcodes <= 0x7F
// have no defined meaning yet and are always warned-and-dropped.
func (p *Peer) SetOnProtocolControl(fn func(p *Peer, opcode byte, body []byte)) {
	p.onProtocolControl = fn
}

// NextReturnID returns the next value of this Peer's private call-id
// generator (rpc.PeerHandle), matching icon7::Peer::returnIdGen: ids are
// scoped per-peer, not global.
func (p *Peer) NextReturnID() uint32 {
	return p.returnIDGen.Add(1)
}

// Send frames buf (which must still have its full head room reserved, see
// wireframe.WriteHeaderInto) with flags and queues it for delivery,
// matching icon7::Peer::Send(ByteBuffer&, Flags). Safe to call from any
// goroutine; the frame crosses onto the loop thread through queued.
func (p *Peer) Send(buf buffer.Buffer, flags rpc.Flags) error {
	if p.IsDisconnecting() {
		log.Printf("peer: dropping send to disconnecting peer")
		p.stats.IncErrors()
		buf.Release()
		return errDisconnecting
	}
	wireframe.WriteHeaderInto(&buf, flags)

	p.sendingQueueSize.Add(1)
	p.sendMu.Lock()
	p.queued = append(p.queued, queuedFrame{buf: buf})
	p.sendMu.Unlock()
	return nil
}

// SendLocalThread is Send's loop-thread-only twin: it skips the
// cross-thread queue entirely and pushes straight onto local, the same
// shortcut icon7::Peer::SendLocalThread takes for sends that originate on
// the loop that will flush them anyway.
func (p *Peer) SendLocalThread(buf buffer.Buffer, flags rpc.Flags) error {
	if p.IsDisconnecting() {
		log.Printf("peer: dropping local send to disconnecting peer")
		p.stats.IncErrors()
		buf.Release()
		return errDisconnecting
	}
	wireframe.WriteHeaderInto(&buf, flags)
	p.local = append(p.local, queuedFrame{buf: buf})
	return nil
}

// Disconnect marks this Peer as disconnecting and enqueues the actual
// teardown onto the owning Host's loop thread, so it is safe to call from
// any goroutine. Calling it more than once only the first call has any
// effect, matching the idempotence the C++ original documents.
func (p *Peer) Disconnect() {
	if !p.setDisconnecting() {
		return
	}
	p.host.EnqueueCommand(command.Func(func() { p.executeDisconnect() }))
}

// executeDisconnect runs on the loop thread: it drains and releases both
// queues' frames, closes the transport, marks the Peer closed, and fires
// the disconnect callback exactly once.
func (p *Peer) executeDisconnect() {
	p.sendMu.Lock()
	drained := p.queued
	p.queued = nil
	p.sendMu.Unlock()
	for i := range drained {
		drained[i].buf.Release()
	}
	for i := p.localOffset; i < len(p.local); i++ {
		p.local[i].buf.Release()
	}
	p.local = nil
	p.localOffset = 0

	if err := p.sock.Close(); err != nil {
		log.Printf("peer: close: %v", err)
	}
	p.setClosed()

	if p.onDisconnect != nil {
		p.onDisconnect(p)
	} else {
		p.host.NotifyDisconnect(p)
	}
}
