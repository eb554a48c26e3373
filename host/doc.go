// Package host implements Host: the listen/connect/peer-set owner that
// binds exactly one rpc.Environment and drains its own command queue on
// the Loop that owns it (§4.F).
//
// Grounded on original_source/include/icon7/Host.hpp and src/Host.cpp.
// Host implements peer.HostLink (so Peer can reach back into it without
// peer importing host) and the rpc.HostHandle marker interface (so
// handlers can declare a HostHandle parameter and receive the owning
// Host as context).
package host
