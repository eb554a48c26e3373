package peer

// stateBit is the Peer lifecycle bitfield: OPENING is the absence of
// bitReady, and the machine only ever moves forward
// OPENING -> READY -> DISCONNECTING -> CLOSED, with bitConnectError a
// short-circuit set instead of the READY transition when a connect
// attempt itself fails. Matches icon7::Peer's peerFlags layout exactly so
// the bit numbering needs no translation against original_source.
type stateBit uint32

const (
	bitReady        stateBit = 1 << 0
	bitDisconnecting stateBit = 1 << 1
	bitClosed        stateBit = 1 << 2
	bitConnectError  stateBit = 1 << 3

	// bitClosedByTransport has no counterpart in original_source's
	// peerFlags layout; it's a Go-side addition so NotifyDisconnect can
	// tell HostStats whether to count a disconnect as local- or
	// remote-initiated (Stats.hpp's disconnectedLocal/disconnectedRemote)
	// without the host package reaching into peer internals.
	bitClosedByTransport stateBit = 1 << 4
)

// IsReady reports whether the connection has completed opening and is not
// yet disconnecting.
func (p *Peer) IsReady() bool {
	f := stateBit(p.flags.Load())
	return f&bitReady != 0 && f&bitDisconnecting == 0
}

// IsDisconnecting reports whether Disconnect has been called (or the
// transport reported a close/error) and teardown is in progress or done.
func (p *Peer) IsDisconnecting() bool {
	return stateBit(p.flags.Load())&bitDisconnecting != 0
}

// IsClosed reports whether the Peer has fully torn down: no further sends
// will ever reach the transport.
func (p *Peer) IsClosed() bool {
	return stateBit(p.flags.Load())&bitClosed != 0
}

// HasConnectError reports whether this Peer never became ready because
// the connection attempt itself failed.
func (p *Peer) HasConnectError() bool {
	return stateBit(p.flags.Load())&bitConnectError != 0
}

// WasClosedByTransport reports whether teardown was triggered by the
// transport reporting the connection closed/errored (OnClosedByTransport),
// as opposed to a local Disconnect call.
func (p *Peer) WasClosedByTransport() bool {
	return stateBit(p.flags.Load())&bitClosedByTransport != 0
}

func (p *Peer) setReady() {
	p.flags.Or(uint32(bitReady))
}

func (p *Peer) setDisconnecting() bool {
	before := p.flags.Or(uint32(bitDisconnecting))
	return stateBit(before)&bitDisconnecting == 0
}

func (p *Peer) setClosedByTransport() {
	p.flags.Or(uint32(bitClosedByTransport))
}

func (p *Peer) setClosed() {
	p.flags.Or(uint32(bitClosed))
}

func (p *Peer) setConnectError() {
	p.flags.Or(uint32(bitConnectError))
}
