// Package buffer implements the refcounted, head-reservable growable byte
// storage described by the runtime's data model: a buffer is a handle to a
// shared storage block that tracks {refCount, size, offset, capacity} and
// whose head-of-buffer space can be reserved so a framing header can later
// be written directly in front of an already-serialized payload, without
// copying the payload.
//
// Storage blocks are obtained from a size-classed Pool instead of the
// runtime allocator, mirroring the teacher's NUMA/size-class buffer pool
// but sharded by a plain index instead of NUMA topology (see DESIGN.md).
package buffer
