// Package rpc implements the typed call/return layer: argument encoding,
// named-procedure registration, dispatch of received frames, and the
// deadline-swept call/return table (§4.H RPCEnvironment, §4.I
// OnReturnCallback).
//
// Grounded on original_source/src/RPCEnvironment.cpp (the more advanced,
// per-peer nested-map version of the call/return table; see DESIGN.md) and
// include/icon7/{MessageConverter,PeerFlagsArgumentsReader,OnReturnCallback}.hpp.
// C++ variadic-template argument packing is replaced by reflect-driven
// encode/decode, the same style acasas-go-rpcgen and net/rpc use for
// generic codecs over arbitrary handler signatures.
//
// rpc never imports the peer or host packages, avoiding the import cycle
// those packages create by depending on rpc for dispatch: handlers accept
// the PeerHandle/HostHandle interfaces declared here, and the concrete
// peer.Peer/host.Host types satisfy them structurally.
package rpc
