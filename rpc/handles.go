package rpc

import "github.com/Drwalin/ICon7-sub000/buffer"

// PeerHandle is the subset of a peer's behavior RPCEnvironment needs:
// sending a reply/call frame and minting return-call correlation ids. The
// concrete peer.Peer satisfies this interface structurally; rpc never
// imports the peer package (see package doc).
//
// A handler registered with RegisterMessage may declare a parameter of this
// type to receive the calling peer instead of having it decoded from the
// wire, the Go counterpart of PeerFlagsArgumentsReader::ReadType(Peer*&).
type PeerHandle interface {
	Send(buf buffer.Buffer, flags Flags) error

	// NextReturnID returns the next value of this peer's private call-id
	// generator, matching icon7::Peer::returnIdGen: ids are scoped to the
	// peer that owns the outstanding call, not global.
	NextReturnID() uint32
}

// HostHandle is injected into a handler that declares a parameter of this
// type, letting application code reach its owning host without this
// package importing host. It carries no methods of its own; host.Host
// satisfies it trivially.
type HostHandle interface{}
