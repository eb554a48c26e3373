package loop

import (
	"net"
	"strconv"
	"testing"
	"time"

	"github.com/Drwalin/ICon7-sub000/host"
	"github.com/Drwalin/ICon7-sub000/peer"
	"github.com/Drwalin/ICon7-sub000/rpc"
)

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatal("condition never became true")
}

func TestRunDrivesListenConnectSendRoundTrip(t *testing.T) {
	server := host.New(nil)
	var got string
	server.Environment().RegisterMessage("echo", func(s string) { got = s }, nil, nil)

	lf := server.ListenOnPort("127.0.0.1", 0)
	if ok, err := lf.Wait(); err != nil || !ok {
		t.Fatalf("ListenOnPort: ok=%v err=%v", ok, err)
	}

	client := host.New(nil)

	l := New(2 * time.Millisecond)
	l.AddHost(server)
	l.AddHost(client)
	go l.Run()
	defer func() {
		l.QueueStopRunning()
		l.WaitStopRunning()
	}()

	addr := serverAddr(t, server)
	cf := client.Connect(addr.host, addr.port)
	p, err := cf.Wait()
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}

	if err := client.Environment().Send(p, rpc.FlagReliable, "echo", "hi"); err != nil {
		t.Fatalf("Send: %v", err)
	}

	waitFor(t, func() bool { return got == "hi" })
}

func TestRunSingleIterationFlushesWithoutTicker(t *testing.T) {
	server := host.New(nil)
	var got string
	server.Environment().RegisterMessage("echo", func(s string) { got = s }, nil, nil)
	if _, err := server.ListenOnPort("127.0.0.1", 0).Wait(); err != nil {
		t.Fatalf("ListenOnPort: %v", err)
	}

	client := host.New(nil)
	l := New(time.Hour) // long tick: exercise RunSingleIteration directly instead
	l.AddHost(server)
	l.AddHost(client)

	addr := serverAddr(t, server)
	cf := client.Connect(addr.host, addr.port)

	var p *peer.Peer
	waitForIter(t, l, func() bool {
		select {
		case <-cf.Done():
			var err error
			p, err = cf.Wait()
			if err != nil {
				t.Fatalf("Connect: %v", err)
			}
			return true
		default:
			return false
		}
	})

	if err := client.Environment().Send(p, rpc.FlagReliable, "echo", "hi"); err != nil {
		t.Fatalf("Send: %v", err)
	}
	waitForIter(t, l, func() bool { return got == "hi" })
}

func waitForIter(t *testing.T, l *Loop, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		l.RunSingleIteration()
		if cond() {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatal("condition never became true")
}

type hostAddr struct {
	host string
	port uint16
}

func serverAddr(t *testing.T, h *host.Host) hostAddr {
	t.Helper()
	// ListenOnPort with port 0 binds an ephemeral port; fetch it back via
	// the same loopback address every test dials.
	addr := h.ListenAddrs()[0].String()
	hostPart, portPart, err := net.SplitHostPort(addr)
	if err != nil {
		t.Fatalf("SplitHostPort(%q): %v", addr, err)
	}
	port, err := strconv.Atoi(portPart)
	if err != nil {
		t.Fatalf("bad port %q: %v", portPart, err)
	}
	return hostAddr{host: hostPart, port: uint16(port)}
}
