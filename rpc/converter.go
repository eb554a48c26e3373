package rpc

import (
	"fmt"
	"reflect"

	"github.com/Drwalin/ICon7-sub000/command"
)

var (
	peerHandleType = reflect.TypeOf((*PeerHandle)(nil)).Elem()
	hostHandleType = reflect.TypeOf((*HostHandle)(nil)).Elem()
	flagsType      = reflect.TypeOf(Flags(0))
	readerPtrType  = reflect.TypeOf((*Reader)(nil))
)

// GetExecutionQueueFunc picks which queue a call to this message should run
// on, letting registrations route specific calls (e.g. by peer) onto a
// different worker than the one given at registration time. Returning nil
// runs the call inline on the calling goroutine (normally the loop thread).
type GetExecutionQueueFunc func(peer PeerHandle, reader *Reader, flags Flags) *command.ExecutionQueue

// MessageConverter is a registered named procedure: it knows how to pull
// its declared parameters (decoding plain ones from the wire, substituting
// context for PeerHandle/HostHandle/Flags/*Reader ones) and, if the handler
// returns a value, how to encode it for a call-with-return reply.
//
// Grounded on original_source/include/icon7/MessageConverter.hpp, replacing
// the C++ variadic-template MessageConverterSpec with a reflect-driven
// dispatcher over an arbitrary func value.
type MessageConverter struct {
	name   string
	fn     reflect.Value
	fnType reflect.Type

	executionQueue    *command.ExecutionQueue
	getExecutionQueue GetExecutionQueueFunc
}

func newMessageConverter(name string, fn interface{}) *MessageConverter {
	v := reflect.ValueOf(fn)
	t := v.Type()
	if t.Kind() != reflect.Func {
		panic(fmt.Sprintf("rpc: RegisterMessage(%q): handler is not a function", name))
	}
	if t.NumOut() > 1 {
		panic(fmt.Sprintf("rpc: RegisterMessage(%q): handler must return at most one value", name))
	}
	return &MessageConverter{name: name, fn: v, fnType: t}
}

// call decodes arguments off reader and, only if every argument decoded
// cleanly, invokes the handler and returns its single result (if any). A
// decode failure mid-argument-list (reader.Err() becomes non-nil, per
// codec.go's short-circuiting Reader.take) aborts before c.fn.Call ever
// runs: spec.md §6 requires a frame whose decode overruns the body to be
// dropped outright, not delivered to the handler with zero-valued
// trailing arguments. The caller must still check reader.Err() itself to
// tell "no return value" apart from "call was aborted".
func (c *MessageConverter) call(peer PeerHandle, host HostHandle, reader *Reader, flags Flags) (reflect.Value, bool) {
	n := c.fnType.NumIn()
	args := make([]reflect.Value, n)
	for i := 0; i < n; i++ {
		if reader.Err() != nil {
			return reflect.Value{}, false
		}
		pt := c.fnType.In(i)
		switch pt {
		case peerHandleType:
			args[i] = reflect.ValueOf(peer)
		case hostHandleType:
			args[i] = reflect.ValueOf(&host).Elem()
		case flagsType:
			args[i] = reflect.ValueOf(flags)
		case readerPtrType:
			args[i] = reflect.ValueOf(reader)
		default:
			av := reflect.New(pt).Elem()
			reader.ReadValue(av)
			args[i] = av
		}
	}
	if reader.Err() != nil {
		return reflect.Value{}, false
	}
	out := c.fn.Call(args)
	if len(out) == 1 {
		return out[0], true
	}
	return reflect.Value{}, false
}
