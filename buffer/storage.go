package buffer

import (
	"math/bits"
	"sync/atomic"
)

// HeaderReserve is the number of bytes every freshly Init'd buffer reserves
// in front of its first payload byte: 4 bytes for the runtime-side flags
// word plus up to 4 bytes for the wire frame header written later by
// wireframe.WriteHeaderInto.
const HeaderReserve = 8

// minAlloc is the smallest backing array size storage.allocate ever
// requests, matching the C++ allocator's floor.
const minAlloc = 64

// storage is the shared, refcounted backing block for one or more Buffer
// handles. It plays the role of icon7::ByteBufferStorageHeader, minus the
// pointer arithmetic that header needs in C++: raw already excludes any
// header struct, so capacity is simply len(raw)-offset.
type storage struct {
	refCount atomic.Int32
	raw      []byte
	offset   uint32
	size     uint32
	pool     *Pool
}

func (s *storage) capacity() uint32 { return uint32(len(s.raw)) - s.offset }

func (s *storage) data() []byte { return s.raw[s.offset : s.offset+s.size] }

func (s *storage) ref() { s.refCount.Add(1) }

func (s *storage) unref() {
	if s.refCount.Add(-1) == 0 {
		if s.pool != nil {
			s.pool.release(s)
		}
	}
}

// allocate rounds (HeaderReserve+requested) up to a power of two, floored
// at minAlloc, and returns a fresh storage block with the head reserved.
func allocate(requested uint32, pool *Pool) *storage {
	trueCapacity := roundUpPow2(int(requested) + HeaderReserve)
	if trueCapacity < minAlloc {
		trueCapacity = minAlloc
	}
	s := &storage{
		raw:    make([]byte, trueCapacity),
		offset: HeaderReserve,
		size:   0,
		pool:   pool,
	}
	s.refCount.Store(1)
	return s
}

// reallocate copies only the live `size` bytes into a larger block while
// preserving the original head-offset, so already-reserved prefix space
// stays available after growth.
func reallocate(s *storage, newCapacity uint32) *storage {
	ret := allocate(newCapacity+s.offset-HeaderReserve, s.pool)
	offsetDiff := int32(ret.offset) - int32(s.offset)
	ret.offset = uint32(int32(ret.offset) - offsetDiff)
	ret.size = s.size
	copy(ret.data(), s.data())
	s.unref()
	return ret
}

// bits.RoundUpPow2 does not exist in the standard library; provide it
// locally using bits.Len.
func roundUpPow2(v int) int {
	if v <= 1 {
		return 1
	}
	return 1 << bits.Len(uint(v-1))
}
