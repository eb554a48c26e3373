package icon7

import (
	"net"
	"strconv"
	"testing"
	"time"

	"github.com/Drwalin/ICon7-sub000/config"
	"github.com/Drwalin/ICon7-sub000/rpc"
)

func TestInitializeDeinitializeIdempotent(t *testing.T) {
	Initialize(config.Default())
	Initialize(config.Default()) // second call must be a no-op, not a panic
	Deinitialize()
	Deinitialize() // same for a repeated Deinitialize
}

func TestFacadeRoundTrip(t *testing.T) {
	server := NewHost(nil)
	done := make(chan int, 1)
	server.Environment().RegisterMessage("sum", func(a, b int32) int32 { return int32(a + b) }, nil, nil)

	lf := server.ListenOnPort("127.0.0.1", 0)
	if ok, err := lf.Wait(); err != nil || !ok {
		t.Fatalf("ListenOnPort: ok=%v err=%v", ok, err)
	}

	client := NewHost(nil)
	l := RunLoopWithHost(server, 2*time.Millisecond)
	l.AddHost(client)
	defer func() {
		l.QueueStopRunning()
		l.WaitStopRunning()
	}()

	addrs := server.ListenAddrs()
	if len(addrs) != 1 {
		t.Fatalf("ListenAddrs: got %d, want 1", len(addrs))
	}
	hostAddr, portStr, err := net.SplitHostPort(addrs[0].String())
	if err != nil {
		t.Fatalf("SplitHostPort: %v", err)
	}
	port, err := strconv.ParseUint(portStr, 10, 16)
	if err != nil {
		t.Fatalf("ParseUint: %v", err)
	}

	cf := client.Connect(hostAddr, uint16(port))
	p, err := WaitFuture(cf)
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}

	if err := client.Environment().Call(p, FlagReliable, "sum", time.Second, nil,
		func(_ rpc.PeerHandle, _ rpc.Flags, r *rpc.Reader) {
			done <- int(r.Int32())
		},
		func(rpc.PeerHandle) { done <- -1 },
		int32(3), int32(4),
	); err != nil {
		t.Fatalf("Call: %v", err)
	}

	select {
	case v := <-done:
		if v != 7 {
			t.Fatalf("sum result = %d, want 7", v)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("call never returned")
	}
}
