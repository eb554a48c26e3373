// Package wireframe implements the length-prefixed framing protocol: a
// 1..4-byte little-endian header carrying the RPC-kind flag bits and the
// body length, plus the streaming FrameDecoder that turns arbitrary TCP
// read chunks back into complete frames.
//
// Grounded on original_source/src/FramingProtocol.cpp and
// src/FrameDecoder.cpp, restated as idiomatic Go with slice indexing in
// place of pointer arithmetic. Style (small pure functions, one
// responsibility per file) follows the teacher's core/protocol package.
package wireframe

import (
	"fmt"

	"github.com/Drwalin/ICon7-sub000/buffer"
)

// MaxBodySize is the largest body a 4-byte header can address: 2^28 bytes.
const MaxBodySize = 1 << 28

// HeaderSize returns how many header bytes are needed to address a body of
// dataSize bytes (1..4), or 0 if dataSize is out of range.
func HeaderSize(dataSize uint32) uint32 {
	switch {
	case dataSize == 0:
		return 0
	case dataSize <= 1<<4:
		return 1
	case dataSize <= 1<<12:
		return 2
	case dataSize <= 1<<20:
		return 3
	case dataSize <= 1<<28:
		return 4
	}
	return 0
}

// WriteHeader encodes headerSize little-endian bytes into header, carrying
// dataSize and the kind bits of flags. header must have length >= headerSize.
func WriteHeader(header []byte, headerSize uint32, dataSize uint32, flags Flags) {
	h := uint32(0)
	h |= (uint32(flags) & 6) << 1
	h |= headerSize - 1
	h |= (dataSize - 1) << 4
	for i := uint32(0); i < headerSize; i++ {
		header[i] = byte(h >> (i * 8))
	}
}

// PacketHeaderSize decodes the header length from the frame's first byte.
func PacketHeaderSize(firstByte byte) uint32 {
	return uint32(firstByte&3) + 1
}

// PacketFlags merges the wire-carried kind bits into otherFlags.
func PacketFlags(header []byte, otherFlags Flags) Flags {
	return otherFlags | Flags((header[0]>>1)&6)
}

// PacketBodySize decodes the body length from a complete header of the
// given size.
func PacketBodySize(header []byte, headerSize uint32) uint32 {
	h := uint32(0)
	for i := uint32(0); i < headerSize; i++ {
		h |= uint32(header[i]) << (i * 8)
	}
	return (h >> 4) + 1
}

// WriteHeaderInto writes the frame header directly into buf's reserved
// head room, then grows buf's visible region backwards so header and
// payload become one contiguous frame without copying the payload.
//
// buf must be freshly prepared: its head room must still equal
// buffer.HeaderReserve (nothing has been written into the reserve yet) and
// its visible size must be non-zero (the protocol forbids 0-byte bodies).
// Violating either precondition is a programming error and panics, mirroring
// the C++ original's `LOG_FATAL`-then-abort severity for this class of bug.
func WriteHeaderInto(buf *buffer.Buffer, flags Flags) {
	if buf.HeadRoom() != buffer.HeaderReserve {
		panic("wireframe: WriteHeaderInto: head room already consumed")
	}
	if buf.Size() == 0 {
		panic("wireframe: WriteHeaderInto: empty body is not allowed on the wire")
	}
	headerSize := HeaderSize(buf.Size())
	if headerSize == 0 {
		panic(fmt.Sprintf("wireframe: WriteHeaderInto: body of %d bytes exceeds MaxBodySize", buf.Size()))
	}
	raw, offset := buf.RawStorageForFraming()
	headerBytes := raw[offset-headerSize : offset]
	WriteHeader(headerBytes, headerSize, buf.Size(), flags)
	buf.GrowHeadInto(headerSize)
}
