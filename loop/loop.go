package loop

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/Drwalin/ICon7-sub000/host"
	"github.com/Drwalin/ICon7-sub000/peer"
	"github.com/Drwalin/ICon7-sub000/rpcstats"
)

// defaultTickInterval is how often Run wakes up to drain command queues,
// sweep timeouts and flush peer sends when nothing more urgent is
// pending.
const defaultTickInterval = 500 * time.Microsecond

// maxCommandsPerHostPerIteration bounds how many commands one Host's
// queue drains per iteration, so one Host with a command backlog can't
// starve the others' housekeeping in the same pass. Process-wide tunable,
// overridable via config.Apply.
var maxCommandsPerHostPerIteration = 1024

// maxTimeoutChecksPerHostPerIteration bounds each Host's RPC timeout
// sweep per iteration, matching original_source's modest per-tick
// checkForTimeoutFunctionCalls budget. Process-wide tunable, overridable
// via config.Apply.
var maxTimeoutChecksPerHostPerIteration = 16

// Configure overrides this package's per-iteration batch sizes. Zero or
// negative values leave the corresponding setting unchanged. Intended to
// be called once at startup via config.Apply, not concurrently with a
// running Loop.
func Configure(maxCommandsPerIteration, maxTimeoutChecksPerIteration int) {
	if maxCommandsPerIteration > 0 {
		maxCommandsPerHostPerIteration = maxCommandsPerIteration
	}
	if maxTimeoutChecksPerIteration > 0 {
		maxTimeoutChecksPerHostPerIteration = maxTimeoutChecksPerIteration
	}
}

// Loop drives any number of Hosts added with AddHost. It is not safe to
// call AddHost concurrently with Run.
type Loop struct {
	hosts []*host.Host

	tickInterval time.Duration

	mu      sync.Mutex
	running atomic.Bool
	stopCh  chan struct{}
	stopped chan struct{}

	stats *rpcstats.LoopStats
}

// New creates a Loop that wakes up every tickInterval to do its
// housekeeping pass; a non-positive interval selects defaultTickInterval.
func New(tickInterval time.Duration) *Loop {
	if tickInterval <= 0 {
		tickInterval = defaultTickInterval
	}
	return &Loop{tickInterval: tickInterval, stats: rpcstats.NewLoopStats()}
}

// Stats returns this Loop's wakeup/iteration counters, suitable for
// registering with an rpcstats.Registry.
func (l *Loop) Stats() *rpcstats.LoopStats { return l.stats }

// AddHost binds h to this Loop: its command queue, RPC timeout sweep and
// peer flush all run on this Loop's goroutine from then on.
func (l *Loop) AddHost(h *host.Host) {
	l.hosts = append(l.hosts, h)
}

// RunSingleIteration performs one housekeeping pass over every bound
// Host: drain its command queue, sweep its RPC timeout table, then flush
// every peer's queued sends. Exposed directly so callers that want to
// drive the loop from their own scheduler (e.g. a test, or a program
// already running its own select loop) don't have to go through Run.
func (l *Loop) RunSingleIteration() {
	l.stats.IncWakeup()
	didWork := false
	for _, h := range l.hosts {
		if n := h.CommandQueue().Execute(maxCommandsPerHostPerIteration); n > 0 {
			didWork = true
		}
		h.Environment().CheckForTimeoutFunctionCalls(maxTimeoutChecksPerHostPerIteration)
		h.ForEachPeer(func(p *peer.Peer) { p.OnWritable() })
	}
	l.stats.IncIteration(didWork)
}

// Run blocks, calling RunSingleIteration on every tick, until
// QueueStopRunning is called. On the way out it drains every bound
// Host's command queue fully (not just one iteration's worth) before
// returning, so a Disconnect enqueued just before shutdown still runs.
func (l *Loop) Run() {
	l.running.Store(true)
	l.mu.Lock()
	l.stopCh = make(chan struct{})
	l.stopped = make(chan struct{})
	stopCh, stopped := l.stopCh, l.stopped
	l.mu.Unlock()

	ticker := time.NewTicker(l.tickInterval)
	defer ticker.Stop()
	defer close(stopped)
	defer l.running.Store(false)

	for {
		select {
		case <-stopCh:
			for _, h := range l.hosts {
				for h.CommandQueue().Execute(maxCommandsPerHostPerIteration) > 0 {
				}
			}
			return
		case <-ticker.C:
			l.stats.IncTimerWakeup()
			l.RunSingleIteration()
		}
	}
}

// IsRunning reports whether Run is currently executing.
func (l *Loop) IsRunning() bool { return l.running.Load() }

// QueueStopRunning signals Run to finish its current tick, drain pending
// commands, and return. Safe to call from any goroutine.
func (l *Loop) QueueStopRunning() {
	l.mu.Lock()
	stopCh := l.stopCh
	l.mu.Unlock()
	if stopCh != nil {
		close(stopCh)
	}
}

// WaitStopRunning blocks until a previously-queued stop has completed.
func (l *Loop) WaitStopRunning() {
	l.mu.Lock()
	stopped := l.stopped
	l.mu.Unlock()
	if stopped != nil {
		<-stopped
	}
}
