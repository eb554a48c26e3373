package buffer

import (
	"runtime"
	"sync"
	"sync/atomic"
)

// Pool is the size-class allocator behind ByteBuffer storage: §4.J
// MemoryPool's "allocate from many threads, deallocate from a thread other
// than the allocating one" contract for the byte-buffer slice of that
// component. It is grounded on the teacher's BufferPoolManager /
// nodeClassPools / slabPool trio (pool/bufferpool.go, pool/slab_pool.go):
// the same two-level "shard then size class" structure, indexed by a plain
// shard number instead of a NUMA node (see SPEC_FULL.md Open Questions).
type Pool struct {
	shards []*shard
}

type shard struct {
	mu    sync.Mutex
	class map[uint32]*classPool
}

type classPool struct {
	mu   sync.Mutex
	free []*storage

	allocCount atomic.Int64
	freeCount  atomic.Int64
}

// DefaultPool is the process-wide pool used when callers don't construct
// their own, analogous to the teacher's package-level default manager.
var DefaultPool = NewPool(runtime.GOMAXPROCS(0))

// NewPool creates a Pool with the given number of shards (must be >= 1).
func NewPool(shardCount int) *Pool {
	if shardCount < 1 {
		shardCount = 1
	}
	shards := make([]*shard, shardCount)
	for i := range shards {
		shards[i] = &shard{class: make(map[uint32]*classPool)}
	}
	return &Pool{shards: shards}
}

func (p *Pool) shardFor(hint int) *shard {
	if hint < 0 {
		hint = 0
	}
	return p.shards[hint%len(p.shards)]
}

func (s *shard) classFor(c uint32) *classPool {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp, ok := s.class[c]
	if !ok {
		cp = &classPool{}
		s.class[c] = cp
	}
	return cp
}

// Get returns a storage block able to hold at least `requested` payload
// bytes after the reserved header prefix, reusing a pooled block from the
// size class at or above the request when one is free.
func (p *Pool) Get(requested uint32, shardHint int) *storage {
	sh := p.shardFor(shardHint)
	class := roundUpPow2(int(requested) + HeaderReserve)
	if class < minAlloc {
		class = minAlloc
	}
	cp := sh.classFor(uint32(class))

	cp.mu.Lock()
	if n := len(cp.free); n > 0 {
		s := cp.free[n-1]
		cp.free = cp.free[:n-1]
		cp.mu.Unlock()
		s.refCount.Store(1)
		s.size = 0
		s.offset = HeaderReserve
		cp.allocCount.Add(1)
		return s
	}
	cp.mu.Unlock()

	s := allocate(requested, p)
	cp.allocCount.Add(1)
	return s
}

// release returns a zero-refcount storage block to its size class on
// shard 0; blocks do not record which shard they were drawn from.
func (p *Pool) release(s *storage) {
	class := uint32(len(s.raw))
	// Deallocation may happen on any goroutine; find-or-create the class
	// on shard 0 when the original shard can't be recovered cheaply. Using
	// shard 0 as the release target (rather than tracking an owning shard
	// per block) keeps release() lock-light at the cost of some
	// cross-shard skew, acceptable for a free-list cache.
	sh := p.shards[0]
	cp := sh.classFor(class)
	cp.mu.Lock()
	cp.free = append(cp.free, s)
	cp.mu.Unlock()
	cp.freeCount.Add(1)
}

// Stats summarizes allocation traffic summed over every shard and size
// class, mirroring
// api.BufferPoolStats / icon7::Stats counters (§4.J observability).
type Stats struct {
	TotalAlloc int64
	TotalFree  int64
	InUse      int64
}

// Stats aggregates allocation counters across every shard and size class.
func (p *Pool) Stats() Stats {
	var out Stats
	for _, sh := range p.shards {
		sh.mu.Lock()
		for _, cp := range sh.class {
			out.TotalAlloc += cp.allocCount.Load()
			out.TotalFree += cp.freeCount.Load()
		}
		sh.mu.Unlock()
	}
	out.InUse = out.TotalAlloc - out.TotalFree
	return out
}
