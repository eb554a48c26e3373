// Package peer implements the connection state machine: one Peer per
// live/opening connection, owning its frame decoder, its cross-thread send
// queue, and the glue between raw socket events and an rpc.Environment.
//
// Grounded on original_source/include/icon7/Peer.hpp and
// src/Peer.cpp. A Peer is created and destroyed on its owning Host's loop
// thread, but Send and Disconnect are meant to be called from any
// goroutine; everything else (the receive pipeline, the flush loop) is
// loop-thread-only, matching the split the C++ original documents with its
// "thread unsafe, safe only in hosts loop thread" comment blocks.
//
// peer never imports the host package: Peer talks back to its owning Host
// only through the narrow HostLink interface declared in link.go, the same
// one-directional trick rpc uses for PeerHandle/HostHandle (see
// rpc/doc.go). host.Host implements HostLink and peer.Peer implements
// rpc.PeerHandle, so the two packages wire together without a cycle.
package peer
