package rpc

import (
	"log"
	"reflect"
	"sort"
	"time"

	"github.com/Drwalin/ICon7-sub000/command"
)

// Environment is the registration table, call dispatcher and call/return
// sweeper for one Host — exactly one Environment is bound per Host (§4.F).
// Grounded on original_source/src/RPCEnvironment.cpp.
//
// Every exported method here is meant to run on the owning Loop's
// goroutine, the same convention Host uses for its own mutating operations;
// nothing in Environment synchronizes internally.
type Environment struct {
	host HostHandle

	messages map[string]*MessageConverter

	returning     map[uint32]map[PeerHandle]*callbackEntry
	lastCheckedID uint32
}

// NewEnvironment creates an Environment bound to host. host may be nil if
// no handler needs HostHandle-typed context injection.
func NewEnvironment(host HostHandle) *Environment {
	return &Environment{
		host:      host,
		messages:  make(map[string]*MessageConverter),
		returning: make(map[uint32]map[PeerHandle]*callbackEntry),
	}
}

// RegisterMessage registers fn under name. fn may take any combination of
// plain argument types (decoded off the wire in order) and the special
// PeerHandle / HostHandle / Flags / *Reader types (injected from context),
// and may return zero or one value, sent back as the call's return value
// when the caller used Call rather than Send.
//
// queue, if non-nil, is where the call runs instead of inline on whatever
// goroutine received it; getQueue, if non-nil, overrides queue per call.
func (e *Environment) RegisterMessage(name string, fn interface{}, queue *command.ExecutionQueue, getQueue GetExecutionQueueFunc) *MessageConverter {
	conv := newMessageConverter(name, fn)
	conv.executionQueue = queue
	conv.getExecutionQueue = getQueue
	e.messages[name] = conv
	return conv
}

// RemoveRegisteredMessage unregisters a previously registered name.
func (e *Environment) RemoveRegisteredMessage(name string) {
	delete(e.messages, name)
}

// Send transmits a call-no-feedback frame: name plus args, with no
// correlation id and no reply expected.
func (e *Environment) Send(peer PeerHandle, flags Flags, name string, args ...interface{}) error {
	w := NewWriter(nil, 64)
	w.PutString(name)
	for _, a := range args {
		w.WriteValue(reflect.ValueOf(a))
	}
	return peer.Send(w.Buffer(), (flags &^ kindMaskAll) | KindCallNoFeedback)
}

// Call transmits a call-with-return frame and registers onReturn/onTimeout
// against a freshly minted, peer-scoped correlation id (§4.I). Exactly one
// of onReturn or onTimeout eventually runs. queue, if non-nil, is where the
// eventual callback executes instead of inline during CheckForTimeoutFunctionCalls
// or OnReceive.
func (e *Environment) Call(peer PeerHandle, flags Flags, name string, timeout time.Duration, queue *command.ExecutionQueue, onReturn func(PeerHandle, Flags, *Reader), onTimeout func(PeerHandle), args ...interface{}) error {
	id := e.newReturnID(peer)
	bucket := e.returning[id]
	if bucket == nil {
		bucket = make(map[PeerHandle]*callbackEntry)
		e.returning[id] = bucket
	}
	bucket[peer] = &callbackEntry{
		onReturn:  onReturn,
		onTimeout: onTimeout,
		deadline:  time.Now().Add(timeout),
		queue:     queue,
	}

	w := NewWriter(nil, 64)
	w.PutUint32(id)
	w.PutString(name)
	for _, a := range args {
		w.WriteValue(reflect.ValueOf(a))
	}
	return peer.Send(w.Buffer(), (flags&^kindMaskAll)|KindCallWithReturn)
}

// newReturnID mints a return id unique among this peer's currently
// outstanding calls, looping like icon7::RPCEnvironment::GetNewReturnIdCallback.
func (e *Environment) newReturnID(peer PeerHandle) uint32 {
	for {
		id := peer.NextReturnID()
		if id == 0 {
			continue
		}
		if bucket, ok := e.returning[id]; ok {
			if _, taken := bucket[peer]; taken {
				continue
			}
		}
		return id
	}
}

const kindMaskAll = KindCallNoFeedback | KindCallWithReturn | KindReturn | KindProtocolControl

// OnReceive dispatches one decoded frame body according to its RPC kind.
// reader must already be positioned at the start of the body (immediately
// after the wire header), with flags carrying the decoded kind bits.
func (e *Environment) OnReceive(peer PeerHandle, reader *Reader, flags Flags) {
	switch flags.Kind() {
	case KindCallWithReturn, KindCallNoFeedback:
		e.onReceiveCall(peer, reader, flags)
	case KindReturn:
		e.onReceiveReturn(peer, reader, flags)
	default:
		log.Printf("rpc: received frame with unused RPC kind bits set")
	}
}

func (e *Environment) onReceiveCall(peer PeerHandle, reader *Reader, flags Flags) {
	var returnID uint32
	if flags.Kind() == KindCallWithReturn {
		returnID = reader.Uint32()
	}
	name := reader.String()
	if reader.Err() != nil {
		log.Printf("rpc: dropping malformed call frame: %v", reader.Err())
		return
	}
	conv, ok := e.messages[name]
	if !ok {
		log.Printf("rpc: function not found: %q", name)
		return
	}

	queue := conv.executionQueue
	if conv.getExecutionQueue != nil {
		queue = conv.getExecutionQueue(peer, reader, flags)
	}
	run := func() { e.dispatchCall(conv, peer, reader, flags, returnID) }
	if queue != nil {
		queue.Enqueue(command.Func(run))
	} else {
		run()
	}
}

func (e *Environment) dispatchCall(conv *MessageConverter, peer PeerHandle, reader *Reader, flags Flags, returnID uint32) {
	ret, hasRet := conv.call(peer, e.host, reader, flags)
	if reader.Err() != nil {
		log.Printf("rpc: dropping call to %q: argument decode failed: %v", conv.name, reader.Err())
		return
	}
	if returnID == 0 {
		return
	}
	w := NewWriter(nil, 32)
	w.PutUint32(returnID)
	if hasRet {
		w.WriteValue(ret)
	}
	if err := peer.Send(w.Buffer(), KindReturn); err != nil {
		log.Printf("rpc: sending return for %q failed: %v", conv.name, err)
	}
}

func (e *Environment) onReceiveReturn(peer PeerHandle, reader *Reader, flags Flags) {
	id := reader.Uint32()
	bucket, ok := e.returning[id]
	if !ok {
		log.Printf("rpc: return for expired/unknown call id %d", id)
		return
	}
	cb, ok := bucket[peer]
	if !ok {
		log.Printf("rpc: return for expired/unknown call id %d", id)
		return
	}
	delete(bucket, peer)
	if len(bucket) == 0 {
		delete(e.returning, id)
	}
	cb.execute(peer, flags, reader)
}

// CheckForTimeoutFunctionCalls sweeps at most maxChecks outstanding
// call-ids, advancing a round-robin cursor across calls so that one host
// with many outstanding calls never starves another's housekeeping slice.
// Expired entries are collected first and their timeout handlers run only
// after the sweep, so a handler that itself issues a new Call never
// observes returning/ in a half-swept state.
func (e *Environment) CheckForTimeoutFunctionCalls(maxChecks int) {
	if len(e.returning) == 0 {
		return
	}
	ids := make([]uint32, 0, len(e.returning))
	for id := range e.returning {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	start := sort.Search(len(ids), func(i int) bool { return ids[i] > e.lastCheckedID })
	if start == len(ids) {
		start = 0
	}

	now := time.Now()
	type expired struct {
		peer PeerHandle
		cb   *callbackEntry
	}
	var timedOut []expired

	i := start
	for checked := 0; checked < maxChecks && checked < len(ids); checked++ {
		id := ids[i]
		e.lastCheckedID = id
		bucket := e.returning[id]
		for peer, cb := range bucket {
			if cb.IsExpired(now) {
				timedOut = append(timedOut, expired{peer: peer, cb: cb})
				delete(bucket, peer)
			}
		}
		if len(bucket) == 0 {
			delete(e.returning, id)
		}
		i = (i + 1) % len(ids)
	}

	for _, ex := range timedOut {
		ex.cb.executeTimeout(ex.peer)
	}
}
