package buffer

// Buffer is a handle to a shared, refcounted storage block. It plays the
// role of icon7::ByteBuffer: copying the handle with Clone bumps the
// refcount (the explicit Go equivalent of the C++ copy constructor, since
// Go assignment can't run user code), and Release drops a reference,
// returning the block to its Pool at zero.
//
// Mutation through a Buffer is only safe when the caller holds the sole
// reference (refcount == 1); like the C++ original this is enforced by
// discipline, not a lock.
type Buffer struct {
	s *storage
}

// New allocates a fresh buffer from pool with room for at least
// initialCapacity payload bytes after the reserved header prefix.
func New(pool *Pool, initialCapacity uint32) Buffer {
	if pool == nil {
		pool = DefaultPool
	}
	return Buffer{s: pool.Get(initialCapacity, 0)}
}

// NewOnShard is New but hints which pool shard to draw from, letting
// callers keep buffers local to the goroutine/loop that will use them.
func NewOnShard(pool *Pool, initialCapacity uint32, shardHint int) Buffer {
	if pool == nil {
		pool = DefaultPool
	}
	return Buffer{s: pool.Get(initialCapacity, shardHint)}
}

// Valid reports whether this handle still refers to a storage block.
func (b Buffer) Valid() bool { return b.s != nil }

// Clone returns a new handle sharing the same storage, bumping refcount.
func (b Buffer) Clone() Buffer {
	if b.s != nil {
		b.s.ref()
	}
	return b
}

// Release drops this handle's reference. The storage returns to its pool
// once the last reference is released. Calling Release twice on handles
// that were never Clone'd apart is a use-after-free in spirit and is the
// caller's responsibility to avoid, exactly as in the C++ original.
func (b *Buffer) Release() {
	if b.s != nil {
		b.s.unref()
		b.s = nil
	}
}

// Init resizes this handle's backing storage in place when it is the sole
// owner and already large enough, otherwise allocates fresh storage,
// mirroring icon7::ByteBuffer::Init's reuse-if-unique-and-big-enough rule.
func (b *Buffer) Init(pool *Pool, capacity uint32) {
	if pool == nil {
		pool = DefaultPool
	}
	if b.s != nil {
		if b.s.refCount.Load() == 1 && b.s.capacity() >= capacity {
			b.resetOffsetCapacitySize()
			return
		}
		b.s.unref()
	}
	b.s = pool.Get(capacity, 0)
}

// resetOffsetCapacitySize restores the full reserved-prefix layout on a
// uniquely-owned, large-enough block and clears it for reuse.
func (b *Buffer) resetOffsetCapacitySize() {
	b.s.offset = HeaderReserve
	b.s.size = 0
}

// Clear resets the visible size to zero without touching capacity/offset.
func (b *Buffer) Clear() {
	if b.s != nil {
		b.s.size = 0
	}
}

// Data returns the slice view of the currently valid payload region.
func (b Buffer) Data() []byte {
	if b.s == nil {
		return nil
	}
	return b.s.data()
}

// Size returns the length of the valid payload region.
func (b Buffer) Size() uint32 {
	if b.s == nil {
		return 0
	}
	return b.s.size
}

// Capacity returns how many payload bytes fit from the current offset to
// the end of the backing block.
func (b Buffer) Capacity() uint32 {
	if b.s == nil {
		return 0
	}
	return b.s.capacity()
}

// Offset returns the current head offset into the backing block, i.e. how
// many bytes of head-reservation space remain unused in front of size 0.
func (b Buffer) Offset() uint32 {
	if b.s == nil {
		return 0
	}
	return b.s.offset
}

// Reserve grows the backing block, if needed, so Capacity() >= newCapacity,
// preserving the live payload and the original head-offset.
func (b *Buffer) Reserve(newCapacity uint32) {
	if b.s == nil {
		return
	}
	if newCapacity > b.s.capacity() {
		b.s = reallocate(b.s, newCapacity)
	}
}

// Resize grows the backing block if needed and sets the visible size.
func (b *Buffer) Resize(newSize uint32) {
	if b.s == nil {
		return
	}
	if b.s.capacity() < newSize {
		b.Reserve(newSize)
	}
	b.s.size = newSize
}

// Append copies src onto the end of the current payload, growing storage
// as needed.
func (b *Buffer) Append(src []byte) {
	if b.s == nil {
		return
	}
	b.Reserve(b.s.size + uint32(len(src)))
	copy(b.s.raw[b.s.offset+b.s.size:], src)
	b.s.size += uint32(len(src))
}

// growHeadInto expands the visible region backwards by n bytes, used by
// wireframe.WriteHeaderInto to make the just-written frame header
// contiguous with the payload that follows it, without copying the
// payload. n must not exceed the currently reserved head room
// (HeadRoom(), enforced by the caller).
func (b *Buffer) growHeadInto(n uint32) {
	b.s.offset -= n
	b.s.size += n
}

// HeadRoom reports how many bytes are still reserved in front of the
// payload's first byte (i.e. how far Offset() can still shrink).
func (b Buffer) HeadRoom() uint32 {
	if b.s == nil {
		return 0
	}
	return b.s.offset
}

// RawStorageForFraming exposes the mutable raw backing array and the
// current offset so wireframe.WriteHeaderInto can write header bytes
// directly into the reserved head room. It is intentionally the only
// escape hatch out of this package's refcount discipline and is meant to
// be called only by the wireframe package immediately before growHeadInto.
func (b Buffer) RawStorageForFraming() (raw []byte, offset uint32) {
	if b.s == nil {
		return nil, 0
	}
	return b.s.raw, b.s.offset
}

// GrowHeadInto is the exported form of growHeadInto for use by wireframe.
func (b *Buffer) GrowHeadInto(n uint32) { b.growHeadInto(n) }
