package rpcstats

import (
	"testing"
	"time"
)

func TestPeerStatsSnapshot(t *testing.T) {
	s := NewPeerStats(time.Now())
	s.AddSent(100, 1)
	s.AddReceived(40, 1)
	s.IncOnWritable()
	s.IncErrors()

	sn := s.Snapshot()
	if sn.BytesSent != 100 || sn.FramesSent != 1 || sn.PacketsSent != 1 {
		t.Fatalf("sent counters wrong: %+v", sn)
	}
	if sn.BytesReceived != 40 || sn.FramesReceived != 1 || sn.PacketsReceived != 1 {
		t.Fatalf("received counters wrong: %+v", sn)
	}
	if sn.OnWritable != 1 || sn.Errors != 1 {
		t.Fatalf("onwritable/errors wrong: %+v", sn)
	}
}

func TestHostStatsSnapshot(t *testing.T) {
	s := NewHostStats()
	s.IncAcceptAttempt()
	s.IncAcceptSuccess()
	s.IncDisconnectRemote()
	s.IncTimeout()

	sn := s.Snapshot()
	if sn.ConnectionsRemoteTotal != 1 || sn.ConnectionsRemoteSuccessful != 1 {
		t.Fatalf("accept counters wrong: %+v", sn)
	}
	if sn.DisconnectedTotal != 1 || sn.DisconnectedRemote != 1 {
		t.Fatalf("disconnect counters wrong: %+v", sn)
	}
	if sn.Timeouts != 1 {
		t.Fatalf("timeout counter wrong: %+v", sn)
	}
}

func TestRegistrySnapshotFlattensRegisteredProbes(t *testing.T) {
	r := NewRegistry()
	ps := NewPeerStats(time.Now())
	ps.AddSent(10, 1)
	r.RegisterPeer("peer1", ps)
	r.RegisterMemory("pool", func() MemorySnapshot {
		return MemorySnapshot{TotalAlloc: 5, TotalFree: 2, InUse: 3}
	})

	flat := r.Snapshot()
	if flat["peer1.bytes_sent"] != int64(10) {
		t.Fatalf("expected flattened peer metric, got %v", flat["peer1.bytes_sent"])
	}
	if flat["pool.in_use"] != int64(3) {
		t.Fatalf("expected flattened memory metric, got %v", flat["pool.in_use"])
	}
}

func TestRegistryDumpStateReturnsRawSnapshots(t *testing.T) {
	r := NewRegistry()
	ls := NewLoopStats()
	ls.IncWakeup()
	ls.IncIteration(true)
	r.RegisterLoop("loop", ls)

	dump := r.DumpState()
	sn, ok := dump["loop"].(LoopSnapshot)
	if !ok {
		t.Fatalf("expected LoopSnapshot, got %T", dump["loop"])
	}
	if sn.LoopWakeups != 1 || sn.LoopBigIterations != 1 {
		t.Fatalf("loop snapshot wrong: %+v", sn)
	}
}
