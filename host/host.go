package host

import (
	"fmt"
	"net"
	"sync"

	"github.com/Drwalin/ICon7-sub000/buffer"
	"github.com/Drwalin/ICon7-sub000/command"
	"github.com/Drwalin/ICon7-sub000/future"
	"github.com/Drwalin/ICon7-sub000/peer"
	"github.com/Drwalin/ICon7-sub000/rpc"
	"github.com/Drwalin/ICon7-sub000/rpcstats"
	"github.com/Drwalin/ICon7-sub000/socket"
)

// readBufferSize is how much a Host's per-connection read goroutine pulls
// from the socket per Read call before handing the chunk to the loop
// thread as an OnData command. Process-wide tunable, overridable via
// config.Apply.
var readBufferSize = 64 * 1024

// Configure overrides this package's per-connection read chunk size. A
// zero or negative value leaves the setting unchanged. Intended to be
// called once at startup via config.Apply.
func Configure(readBufSize int) {
	if readBufSize > 0 {
		readBufferSize = readBufSize
	}
}

// Host owns a set of peers, one rpc.Environment, and the listeners/
// outbound connections that produce new peers. All mutating operations
// that originate off the loop thread are enqueued as commands (§4.F);
// ListenOnPort and Connect are the two operations safe to call from any
// goroutine without going through that queue themselves, since they only
// touch Host state the loop thread doesn't concurrently mutate.
type Host struct {
	pool     *buffer.Pool
	cmdQueue *command.ExecutionQueue
	env      *rpc.Environment

	mu        sync.Mutex
	peers     map[*peer.Peer]struct{}
	listeners []*socket.Listener

	onConnect    func(*peer.Peer)
	onDisconnect func(*peer.Peer)

	stats *rpcstats.HostStats

	UserData    uint64
	UserPointer interface{}
}

// New creates a Host drawing its peers' buffers from pool (nil selects
// buffer.DefaultPool).
func New(pool *buffer.Pool) *Host {
	h := &Host{
		pool:     pool,
		cmdQueue: command.NewExecutionQueue(),
		peers:    make(map[*peer.Peer]struct{}),
		stats:    rpcstats.NewHostStats(),
	}
	h.env = rpc.NewEnvironment(h)
	return h
}

// Environment returns this Host's bound rpc.Environment (peer.HostLink,
// rpc request-dispatch context).
func (h *Host) Environment() *rpc.Environment { return h.env }

// Stats returns this Host's connection-lifecycle counters, suitable for
// registering with an rpcstats.Registry.
func (h *Host) Stats() *rpcstats.HostStats { return h.stats }

// CommandQueue returns the queue a Loop drains on this Host's behalf.
func (h *Host) CommandQueue() *command.ExecutionQueue { return h.cmdQueue }

// EnqueueCommand implements peer.HostLink: it hands c to this Host's
// queue for execution on the owning Loop's goroutine.
func (h *Host) EnqueueCommand(c command.Command) { h.cmdQueue.Enqueue(c) }

// SetOnConnect installs the callback run once a new Peer (accepted or
// dialed) has completed opening.
func (h *Host) SetOnConnect(fn func(*peer.Peer)) { h.onConnect = fn }

// SetOnDisconnect installs the fallback disconnect callback used by any
// Peer that has no per-peer handler of its own.
func (h *Host) SetOnDisconnect(fn func(*peer.Peer)) { h.onDisconnect = fn }

// NotifyDisconnect implements peer.HostLink: it drops p from the peer set
// and runs the host-level onDisconnect fallback.
func (h *Host) NotifyDisconnect(p *peer.Peer) {
	h.mu.Lock()
	delete(h.peers, p)
	h.mu.Unlock()
	switch {
	case p.HasConnectError():
		h.stats.IncConnectFailed()
	case p.WasClosedByTransport():
		h.stats.IncDisconnectRemote()
	default:
		h.stats.IncDisconnectLocal()
	}
	if h.onDisconnect != nil {
		h.onDisconnect(p)
	}
}

// ForEachPeer runs fn for every currently-tracked peer. Loop-thread only:
// like icon7::Host::ForEachPeer, it is not safe to call concurrently with
// peer set mutation from another goroutine.
func (h *Host) ForEachPeer(fn func(*peer.Peer)) {
	h.mu.Lock()
	peers := make([]*peer.Peer, 0, len(h.peers))
	for p := range h.peers {
		peers = append(peers, p)
	}
	h.mu.Unlock()
	for _, p := range peers {
		fn(p)
	}
}

// DisconnectAll disconnects every currently-tracked peer.
func (h *Host) DisconnectAll() {
	h.ForEachPeer(func(p *peer.Peer) { p.Disconnect() })
}

// ListenOnPort binds address:port and starts accepting connections in a
// background goroutine; each accepted connection becomes a Peer whose
// opening and onConnect firing happen on the loop thread. The returned
// future resolves as soon as the bind itself succeeds or fails.
func (h *Host) ListenOnPort(address string, port uint16) *future.Future[bool] {
	f := future.New[bool](nil)
	ln, err := socket.Listen("tcp", fmt.Sprintf("%s:%d", address, port))
	if err != nil {
		f.Resolve(false, err)
		return f
	}
	h.mu.Lock()
	h.listeners = append(h.listeners, ln)
	h.mu.Unlock()
	go h.acceptLoop(ln)
	f.Resolve(true, nil)
	return f
}

// ListenAddrs returns the bound address of every listener this Host has
// open, in the order ListenOnPort created them.
func (h *Host) ListenAddrs() []net.Addr {
	h.mu.Lock()
	defer h.mu.Unlock()
	addrs := make([]net.Addr, len(h.listeners))
	for i, ln := range h.listeners {
		addrs[i] = ln.Addr()
	}
	return addrs
}

// StopListening closes every listener previously opened by ListenOnPort.
func (h *Host) StopListening() {
	h.mu.Lock()
	ls := h.listeners
	h.listeners = nil
	h.mu.Unlock()
	for _, ln := range ls {
		ln.Close()
	}
}

func (h *Host) acceptLoop(ln *socket.Listener) {
	for {
		sock, err := ln.Accept()
		if err != nil {
			return
		}
		h.stats.IncAcceptAttempt()
		h.EnqueueCommand(command.Func(func() { h.bind(sock, nil) }))
	}
}

// Connect dials address:port in the background, binds the resulting
// connection to a new Peer on the loop thread, and resolves the returned
// future with that Peer (or a nil Peer and the dial error on failure).
func (h *Host) Connect(address string, port uint16) *future.Future[*peer.Peer] {
	f := future.New[*peer.Peer](nil)
	addr := fmt.Sprintf("%s:%d", address, port)
	h.stats.IncDialAttempt()
	go func() {
		sock, err := socket.Dial("tcp", addr)
		if err != nil {
			h.stats.IncConnectFailed()
			f.Resolve(nil, err)
			return
		}
		h.EnqueueCommand(command.Func(func() { h.bind(sock, f) }))
	}()
	return f
}

// bind runs on the loop thread: it wraps sock in a Peer, opens it,
// registers it in the peer set, starts its read goroutine, fires
// onConnect, and (for Connect) resolves the caller's future.
func (h *Host) bind(sock *socket.TCPSocket, connectFuture *future.Future[*peer.Peer]) {
	p := peer.New(h, sock, h.pool)
	h.mu.Lock()
	h.peers[p] = struct{}{}
	h.mu.Unlock()
	if connectFuture != nil {
		h.stats.IncDialSuccess()
	} else {
		h.stats.IncAcceptSuccess()
	}
	p.OnOpen()
	go h.readLoop(p, sock)

	if h.onConnect != nil {
		h.onConnect(p)
	}
	if connectFuture != nil {
		connectFuture.Resolve(p, nil)
	}
}

// readLoop blocks on sock's reads and hands each chunk to p.OnData via a
// command, so decoding always happens on the loop thread even though the
// read itself happens on its own goroutine (§4.G). It terminates the
// connection through OnClosedByTransport once the socket reports EOF or
// an error.
func (h *Host) readLoop(p *peer.Peer, sock *socket.TCPSocket) {
	buf := make([]byte, readBufferSize)
	for {
		n, err := sock.Conn().Read(buf)
		if n > 0 {
			chunk := append([]byte(nil), buf[:n]...)
			h.EnqueueCommand(command.Func(func() { p.OnData(chunk) }))
		}
		if err != nil {
			h.EnqueueCommand(command.Func(func() { p.OnClosedByTransport() }))
			return
		}
	}
}
