package peer

import (
	"github.com/Drwalin/ICon7-sub000/command"
	"github.com/Drwalin/ICon7-sub000/rpc"
)

// HostLink is the subset of a Host's behavior a Peer needs: a place to
// enqueue loop-thread commands (Disconnect's cross-thread entry point) and
// the RPCEnvironment frames get dispatched into. host.Host satisfies this
// interface; peer never imports host (see package doc).
type HostLink interface {
	EnqueueCommand(cmd command.Command)
	Environment() *rpc.Environment

	// NotifyDisconnect runs the host-level onDisconnect fallback used when
	// a Peer has no per-peer handler of its own.
	NotifyDisconnect(p *Peer)
}
