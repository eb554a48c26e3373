// Package command implements the loop-thread command pipeline: every
// public mutation on a Host or Peer that originates off the loop thread is
// packaged as a Command and handed to an ExecutionQueue, which the owning
// Loop drains on its own goroutine (§4.D, §4.F "all mutating operations are
// enqueued as commands").
//
// Grounded on original_source/include/icon7/Command.hpp and
// CommandExecutionQueue.hpp, restated without the C++ pointer-tagged
// CommandHandle union (Go already has a safe sum type: the Command
// interface) and without coroutine resumption (Go has none; see
// ExecutionQueue.ScheduleFunc). Queue storage and worker-goroutine idle
// backoff follow the teacher's core/concurrency executor.
package command

// Command is one unit of work executed on the owning ExecutionQueue's
// consumer goroutine. Implementations must not block.
type Command interface {
	Execute()
}

// Func adapts a plain function to Command, covering the large share of
// commands that need no extra state beyond a closure.
type Func func()

// Execute runs f.
func (f Func) Execute() { f() }
