// Package socket provides concrete transports satisfying peer.Socket: a
// portable net.Conn-backed implementation used by default, and (on Linux)
// an epoll-driven multiplexer a Loop can use instead of one read-goroutine
// per connection, for callers tuning for very high connection counts.
//
// Grounded on the teacher's internal/transport/websocket_listener.go (the
// net.Listen + per-conn bufferedConnTransport default path) and
// reactor/reactor_linux.go (the golang.org/x/sys/unix epoll path), the
// same default-with-opportunistic-upgrade structure as the teacher's
// TransportFactory.Create (io_uring -> epoll -> plain net, here narrowed
// to epoll -> plain net since nothing in the example pack provides an
// io_uring binding to wire instead of hand-rolling one).
package socket
