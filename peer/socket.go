package peer

// Socket is the collaborator contract a transport backend must satisfy for
// a Peer to ride on it (§6 "Socket API"): not bit-exact to any one
// library, but the shape every concrete backend under socket/ implements.
//
// A Socket is owned by exactly one Peer and is only ever touched from that
// Peer's loop thread, except where noted.
type Socket interface {
	// Write attempts to hand data to the transport. It may accept fewer
	// bytes than len(data) (partial write/backpressure); the returned n
	// is always <= len(data). hasMore tells the backend whether another
	// Write call is coming immediately after, so it can defer flushing
	// (e.g. TCP_CORK/MSG_MORE) instead of pushing a short segment now.
	Write(data []byte, hasMore bool) (n int, err error)

	// Shutdown half-closes the write side, telling the peer no more data
	// will be sent but allowing already-queued reads to complete.
	Shutdown() error

	// Close tears the transport down immediately.
	Close() error
}
