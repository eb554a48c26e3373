package command

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/eapache/queue"
)

// ExecutionQueue is a multi-producer, single-consumer command queue: any
// number of goroutines may Enqueue, but only the goroutine that calls
// Execute/TryDequeueBulk (the owning Loop) ever removes commands, matching
// §4.D's MPSC contract.
//
// Backed by github.com/eapache/queue, which is not itself safe for
// concurrent use; a single mutex around it gives MPSC semantics cheaply
// since the queue is drained in batches rather than one item at a time.
type ExecutionQueue struct {
	mu sync.Mutex
	q  *queue.Queue

	running   atomic.Bool
	stopCh    chan struct{}
	stoppedCh chan struct{}
}

// NewExecutionQueue creates an empty queue.
func NewExecutionQueue() *ExecutionQueue {
	return &ExecutionQueue{q: queue.New()}
}

// Enqueue appends a single command. Safe from any goroutine.
func (e *ExecutionQueue) Enqueue(cmd Command) {
	e.mu.Lock()
	e.q.Add(cmd)
	e.mu.Unlock()
}

// EnqueueBulk appends every command in cmds as one locked batch, cheaper
// than calling Enqueue in a loop when a caller already has several commands
// ready.
func (e *ExecutionQueue) EnqueueBulk(cmds []Command) {
	e.mu.Lock()
	for _, c := range cmds {
		e.q.Add(c)
	}
	e.mu.Unlock()
}

// HasAny reports whether any command is currently queued.
func (e *ExecutionQueue) HasAny() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.q.Length() > 0
}

// TryDequeue removes and returns the oldest command, if any.
func (e *ExecutionQueue) TryDequeue() (Command, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.q.Length() == 0 {
		return nil, false
	}
	c := e.q.Peek().(Command)
	e.q.Remove()
	return c, true
}

// TryDequeueBulk removes and returns up to max commands, oldest first.
func (e *ExecutionQueue) TryDequeueBulk(max int) []Command {
	e.mu.Lock()
	defer e.mu.Unlock()
	n := e.q.Length()
	if n > max {
		n = max
	}
	if n == 0 {
		return nil
	}
	out := make([]Command, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, e.q.Peek().(Command))
		e.q.Remove()
	}
	return out
}

// Execute dequeues and runs up to maxToDequeue commands on the calling
// goroutine, returning how many ran. The caller (normally a Loop iteration)
// is expected to call this repeatedly rather than dequeue everything in one
// shot, so a command that enqueues more commands can't starve socket I/O.
func (e *ExecutionQueue) Execute(maxToDequeue uint32) uint32 {
	cmds := e.TryDequeueBulk(int(maxToDequeue))
	for _, c := range cmds {
		c.Execute()
	}
	return uint32(len(cmds))
}

// ScheduleFunc enqueues fn to run on the queue's consumer goroutine and
// returns a channel that closes once fn has returned. This is the explicit
// channel-based substitute for the C++ original's coroutine-resumption
// Schedule(): Go has no coroutines, so a caller that needs to "resume after
// the command ran" blocks on the returned channel instead of suspending in
// place.
func (e *ExecutionQueue) ScheduleFunc(fn func()) <-chan struct{} {
	done := make(chan struct{})
	e.Enqueue(Func(func() {
		fn()
		close(done)
	}))
	return done
}

// RunAsyncExecution starts an owned goroutine that repeatedly drains the
// queue, backing off with exponential idle sleep between sleepOnNoActions
// and maxSleepDuration when nothing is queued. A no-op if already running.
func (e *ExecutionQueue) RunAsyncExecution(sleepOnNoActions, maxSleepDuration time.Duration) {
	if !e.running.CompareAndSwap(false, true) {
		return
	}
	e.stopCh = make(chan struct{})
	e.stoppedCh = make(chan struct{})
	go e.runLoop(sleepOnNoActions, maxSleepDuration)
}

func (e *ExecutionQueue) runLoop(sleepOnNoActions, maxSleepDuration time.Duration) {
	defer close(e.stoppedCh)
	backoff := sleepOnNoActions
	for {
		select {
		case <-e.stopCh:
			return
		default:
		}
		if e.Execute(1024) > 0 {
			backoff = sleepOnNoActions
			continue
		}
		time.Sleep(backoff)
		if backoff *= 2; backoff > maxSleepDuration {
			backoff = maxSleepDuration
		}
	}
}

// QueueStopAsyncExecution signals the owned goroutine (if running) to stop
// after its current batch; it does not block for it to actually exit.
func (e *ExecutionQueue) QueueStopAsyncExecution() {
	if e.stopCh == nil {
		return
	}
	select {
	case <-e.stopCh:
	default:
		close(e.stopCh)
	}
}

// WaitStopAsyncExecution signals and blocks until the owned goroutine has
// exited.
func (e *ExecutionQueue) WaitStopAsyncExecution() {
	e.QueueStopAsyncExecution()
	if e.stoppedCh != nil {
		<-e.stoppedCh
	}
	e.running.Store(false)
}

// IsRunningAsync reports whether an owned goroutine is currently draining
// this queue.
func (e *ExecutionQueue) IsRunningAsync() bool {
	return e.running.Load()
}
