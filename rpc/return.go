package rpc

import (
	"time"

	"github.com/Drwalin/ICon7-sub000/command"
)

// callbackEntry is a deadline-scoped success/timeout handler pair: exactly
// one of execute or executeTimeout ever runs for a given entry. Grounded on
// original_source/include/icon7/OnReturnCallback.hpp, without the C++
// CommandHandle<ExecuteReturnCallbackBase> heap allocation — a plain struct
// holding two closures plays the same role in Go.
type callbackEntry struct {
	onReturn  func(peer PeerHandle, flags Flags, reader *Reader)
	onTimeout func(peer PeerHandle)
	deadline  time.Time
	queue     *command.ExecutionQueue
}

// IsExpired reports whether this entry's deadline has passed as of now.
func (c *callbackEntry) IsExpired(now time.Time) bool {
	return !c.deadline.IsZero() && now.After(c.deadline)
}

func (c *callbackEntry) execute(peer PeerHandle, flags Flags, reader *Reader) {
	if c.onReturn == nil {
		return
	}
	run := func() { c.onReturn(peer, flags, reader) }
	if c.queue != nil {
		c.queue.Enqueue(command.Func(run))
	} else {
		run()
	}
}

func (c *callbackEntry) executeTimeout(peer PeerHandle) {
	if c.onTimeout == nil {
		return
	}
	run := func() { c.onTimeout(peer) }
	if c.queue != nil {
		c.queue.Enqueue(command.Func(run))
	} else {
		run()
	}
}
