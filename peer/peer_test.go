package peer

import (
	"bytes"
	"errors"
	"testing"

	"github.com/Drwalin/ICon7-sub000/buffer"
	"github.com/Drwalin/ICon7-sub000/command"
	"github.com/Drwalin/ICon7-sub000/rpc"
)

// testHost is a minimal HostLink: commands enqueued against it are held
// until runCommands runs them, standing in for a real Loop's command drain.
type testHost struct {
	env      *rpc.Environment
	commands []command.Command
	disconnected []*Peer
}

func newTestHost() *testHost {
	h := &testHost{}
	h.env = rpc.NewEnvironment(nil)
	return h
}

func (h *testHost) EnqueueCommand(c command.Command) { h.commands = append(h.commands, c) }
func (h *testHost) Environment() *rpc.Environment     { return h.env }
func (h *testHost) NotifyDisconnect(p *Peer)          { h.disconnected = append(h.disconnected, p) }

func (h *testHost) runCommands() {
	cmds := h.commands
	h.commands = nil
	for _, c := range cmds {
		c.Execute()
	}
}

// recordingSocket captures every Write call's bytes, optionally truncating
// to simulate a short/backpressured write.
type recordingSocket struct {
	written    bytes.Buffer
	acceptOnly int // if > 0, the next Write accepts only this many bytes
	closed     bool
	failNext   bool
}

func (s *recordingSocket) Write(data []byte, hasMore bool) (int, error) {
	if s.failNext {
		s.failNext = false
		return 0, errors.New("boom")
	}
	if s.acceptOnly > 0 && s.acceptOnly < len(data) {
		n := s.acceptOnly
		s.acceptOnly = 0
		s.written.Write(data[:n])
		return n, nil
	}
	s.written.Write(data)
	return len(data), nil
}

func (s *recordingSocket) Shutdown() error { return nil }
func (s *recordingSocket) Close() error    { s.closed = true; return nil }

func newFramedBuffer(t *testing.T, payload string) buffer.Buffer {
	t.Helper()
	b := buffer.New(nil, uint32(len(payload)))
	b.Append([]byte(payload))
	return b
}

func TestSendThenOnWritableDeliversBytes(t *testing.T) {
	host := newTestHost()
	sock := &recordingSocket{}
	p := New(host, sock, nil)
	p.OnOpen()

	if err := p.Send(newFramedBuffer(t, "hello"), rpc.FlagReliable); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if done := p.OnWritable(); !done {
		t.Fatal("OnWritable reported incomplete flush")
	}
	if sock.written.Len() == 0 {
		t.Fatal("nothing was written to the socket")
	}
}

func TestOnWritableHandlesPartialWrite(t *testing.T) {
	host := newTestHost()
	sock := &recordingSocket{}
	p := New(host, sock, nil)
	p.OnOpen()

	_ = p.Send(newFramedBuffer(t, "hello-world"), rpc.FlagReliable)
	if ok := p.OnWritable(); !ok {
		t.Fatal("baseline flush did not complete")
	}
	full := sock.written.Len()

	sock2 := &recordingSocket{}
	p2 := New(host, sock2, nil)
	p2.OnOpen()
	_ = p2.Send(newFramedBuffer(t, "hello-world"), rpc.FlagReliable)
	sock2.acceptOnly = 1
	if done := p2.OnWritable(); done {
		t.Fatal("expected backpressure on a short write")
	}
	if done := p2.OnWritable(); !done {
		t.Fatal("expected the retry to drain the rest of the frame")
	}
	if sock2.written.Len() != full {
		t.Fatalf("written %d bytes across two flushes, want %d", sock2.written.Len(), full)
	}
}

func TestOnDataRoundTripsThroughEnvironment(t *testing.T) {
	host := newTestHost()
	var got string
	host.env.RegisterMessage("greet", func(name string) { got = name }, nil, nil)

	senderHost := newTestHost()
	senderSock := &recordingSocket{}
	sender := New(senderHost, senderSock, nil)
	sender.OnOpen()
	if err := senderHost.env.Send(sender, rpc.FlagReliable, "greet", "alice"); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if ok := sender.OnWritable(); !ok {
		t.Fatal("flush did not complete")
	}

	receiverSock := &recordingSocket{}
	receiver := New(host, receiverSock, nil)
	receiver.OnOpen()
	receiver.OnData(senderSock.written.Bytes())

	if got != "alice" {
		t.Fatalf("got %q, want alice", got)
	}
}

func TestDisconnectIsIdempotentAndReleasesQueuedFrames(t *testing.T) {
	host := newTestHost()
	sock := &recordingSocket{}
	p := New(host, sock, nil)
	p.OnOpen()
	_ = p.Send(newFramedBuffer(t, "queued but never flushed"), rpc.FlagReliable)
	inUseBefore := buffer.DefaultPool.Stats().InUse

	p.Disconnect()
	p.Disconnect() // must be a no-op the second time
	host.runCommands()

	if got := buffer.DefaultPool.Stats().InUse; got != inUseBefore-1 {
		t.Fatalf("pool in-use = %d after disconnect, want %d (queued frame released)", got, inUseBefore-1)
	}

	if !sock.closed {
		t.Fatal("socket was never closed")
	}
	if !p.IsClosed() {
		t.Fatal("peer not marked closed")
	}
	if len(host.disconnected) != 1 {
		t.Fatalf("NotifyDisconnect fired %d times, want 1", len(host.disconnected))
	}
}

func TestSendAfterDisconnectingIsDropped(t *testing.T) {
	host := newTestHost()
	sock := &recordingSocket{}
	p := New(host, sock, nil)
	p.OnOpen()
	p.Disconnect()

	if err := p.Send(newFramedBuffer(t, "too late"), rpc.FlagReliable); err == nil {
		t.Fatal("expected Send to fail once disconnecting")
	}
}

func TestUndefinedControlOpcodeIsDroppedNotPanicked(t *testing.T) {
	host := newTestHost()
	sock := &recordingSocket{}
	p := New(host, sock, nil)
	p.OnOpen()

	b := buffer.New(nil, 1)
	b.Append([]byte{0x01}) // opcode 0x01: undefined, must be ignored
	_ = p.Send(b, rpc.KindProtocolControl)
	if ok := p.OnWritable(); !ok {
		t.Fatal("flush did not complete")
	}

	receiver := New(host, &recordingSocket{}, nil)
	receiver.OnOpen()
	receiver.OnData(sock.written.Bytes()) // must not panic
}

// TestQueuedDispatchSurvivesSubsequentFrames pushes two framed calls in a
// single OnData, with the first routed through an ExecutionQueue so its
// reader outlives the decoder's reuse of its accumulator for the second
// frame. Before onFrame copied the body (see pipeline.go), the deferred
// command would decode whatever bytes the second frame had since
// overwritten instead of its own.
func TestQueuedDispatchSurvivesSubsequentFrames(t *testing.T) {
	host := newTestHost()
	q := command.NewExecutionQueue()
	var got []string
	host.env.RegisterMessage("tag", func(s string) { got = append(got, s) }, q, nil)

	senderHost := newTestHost()
	senderSock := &recordingSocket{}
	sender := New(senderHost, senderSock, nil)
	sender.OnOpen()
	_ = senderHost.env.Send(sender, rpc.FlagReliable, "tag", "first")
	_ = senderHost.env.Send(sender, rpc.FlagReliable, "tag", "second")
	if ok := sender.OnWritable(); !ok {
		t.Fatal("flush did not complete")
	}

	receiver := New(host, &recordingSocket{}, nil)
	receiver.OnOpen()
	receiver.OnData(senderSock.written.Bytes())

	if len(got) != 0 {
		t.Fatalf("handler ran inline before the queue was drained, got %v", got)
	}
	for {
		cmd, ok := q.TryDequeue()
		if !ok {
			break
		}
		cmd.Execute()
	}

	if want := []string{"first", "second"}; !(len(got) == 2 && got[0] == want[0] && got[1] == want[1]) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestBackendExtensionOpcodeIsDelegated(t *testing.T) {
	host := newTestHost()
	sock := &recordingSocket{}
	p := New(host, sock, nil)
	p.OnOpen()

	var gotOpcode byte
	var gotBody []byte
	p.SetOnProtocolControl(func(_ *Peer, opcode byte, body []byte) {
		gotOpcode = opcode
		gotBody = append([]byte(nil), body...)
	})

	b := buffer.New(nil, 3)
	b.Append([]byte{0x90, 'h', 'i'})
	_ = p.Send(b, rpc.KindProtocolControl)
	_ = p.OnWritable()

	p.OnData(sock.written.Bytes())
	if gotOpcode != 0x90 {
		t.Fatalf("opcode = %#x, want 0x90", gotOpcode)
	}
	if string(gotBody) != "hi" {
		t.Fatalf("body = %q, want hi", gotBody)
	}
}
