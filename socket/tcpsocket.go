package socket

import "net"

// TCPSocket wraps a net.Conn to satisfy peer.Socket. It does not import
// the peer package; peer.Peer accepts it structurally, the same
// import-direction discipline used throughout (see peer/doc.go).
type TCPSocket struct {
	conn net.Conn
}

// NewTCPSocket wraps an already-established connection, disabling Nagle's
// algorithm the way the teacher's WebSocketListener.Accept does for every
// accepted connection: latency-sensitive RPC traffic is mostly small
// frames that should hit the wire immediately.
func NewTCPSocket(conn net.Conn) *TCPSocket {
	if tc, ok := conn.(*net.TCPConn); ok {
		_ = tc.SetNoDelay(true)
	}
	return &TCPSocket{conn: conn}
}

// Conn exposes the underlying net.Conn for the owner's read loop.
func (s *TCPSocket) Conn() net.Conn { return s.conn }

// Write implements peer.Socket. net.Conn.Write already blocks until all of
// data is written or an error occurs, so this backend never reports a
// partial write; hasMore is accepted for interface symmetry with
// multiplexed backends and otherwise unused here.
func (s *TCPSocket) Write(data []byte, hasMore bool) (int, error) {
	return s.conn.Write(data)
}

// Shutdown half-closes the write side when the underlying conn supports
// it (plain TCP connections do); otherwise it closes outright.
func (s *TCPSocket) Shutdown() error {
	if cw, ok := s.conn.(interface{ CloseWrite() error }); ok {
		return cw.CloseWrite()
	}
	return s.conn.Close()
}

// Close tears the connection down immediately.
func (s *TCPSocket) Close() error { return s.conn.Close() }
