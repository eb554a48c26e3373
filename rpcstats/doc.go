// Package rpcstats collects the runtime counters original_source's
// icon7::PeerStats / HostStats / LoopStats / MemoryStats track, and
// exposes them the way the teacher's control.MetricsRegistry and
// control.DebugProbes do: a flat, thread-safe name -> value snapshot and
// a named-probe dump, rather than typed getters scattered per counter.
//
// PeerStats lives on every peer.Peer; HostStats aggregates connection
// and disconnection counts on a host.Host; LoopStats counts loop.Loop
// wakeups and iterations; MemorySnapshot mirrors a buffer.Pool's own
// allocation counters. Registry ties all four into one dump point for a
// debug endpoint or periodic log line.
package rpcstats
