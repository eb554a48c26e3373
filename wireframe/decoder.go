package wireframe

import (
	"fmt"

	"github.com/Drwalin/ICon7-sub000/buffer"
)

// OnFrame is invoked once per complete frame the Decoder assembles. buf's
// visible region spans the whole frame (header+body); headerSize tells the
// callback where the body starts.
//
// buf is owned by the Decoder's accumulator: if the callback needs the
// frame to outlive the call (e.g. to hand it to a command queue for
// off-loop execution) it must call buf.Clone() before returning. As soon
// as the callback returns, Decoder restarts and reuses the accumulator's
// storage in place (possibly for the next frame in the same PushData
// call) whenever nothing else still references it (refcount 1), exactly as
// buffer.Buffer.Init does; a Clone bumps the refcount so the decoder
// allocates fresh storage instead of overwriting memory the callback kept.
type OnFrame func(buf buffer.Buffer, headerSize uint32)

// Decoder is a streaming parser that emits complete frames from arbitrary
// byte chunks delivered across any number of PushData calls, including
// chunks that split a frame's header or body at any byte boundary.
//
// Ported from original_source/src/FrameDecoder.cpp. A Decoder is not safe
// for concurrent use: it is owned by exactly one Peer on the loop thread
// that also delivers its socket read events.
type Decoder struct {
	pool       *buffer.Pool
	accum      buffer.Buffer
	headerSize uint32
	frameSize  uint32
}

// NewDecoder creates a Decoder drawing its accumulator buffer from pool.
func NewDecoder(pool *buffer.Pool) *Decoder {
	d := &Decoder{pool: pool}
	d.Restart()
	return d
}

// Restart discards any partially-accumulated frame and starts fresh.
func (d *Decoder) Restart() {
	d.headerSize = 0
	d.frameSize = 0
	d.accum.Init(d.pool, 2048)
	d.accum.Clear()
}

// PushData feeds newly-received bytes through the decoder, invoking
// onFrame once per complete frame assembled. It never accepts a frame
// with body length 0 and panics on internal invariant violations rather
// than silently desynchronising (§4.C) — a decoder that has lost sync
// cannot safely continue parsing the connection.
func (d *Decoder) PushData(data []byte, onFrame OnFrame) {
	for len(data) > 0 {
		if d.headerSize == 0 {
			d.headerSize = PacketHeaderSize(data[0])
			d.accum.Append(data[:1])
			data = data[1:]
		}

		if d.accum.Size() < d.headerSize {
			n := d.headerSize - d.accum.Size()
			if uint32(len(data)) < n {
				n = uint32(len(data))
			}
			d.accum.Append(data[:n])
			data = data[n:]
		}
		if d.accum.Size() < d.headerSize {
			if len(data) != 0 {
				panic(fmt.Sprintf(
					"wireframe: decoder invariant broken: accum=%d headerSize=%d remaining=%d",
					d.accum.Size(), d.headerSize, len(data)))
			}
			break
		}

		if d.accum.Size() == d.headerSize {
			d.frameSize = d.headerSize + PacketBodySize(d.accum.Data(), d.headerSize)
			d.accum.Reserve(d.frameSize)
		} else if d.frameSize == 0 {
			panic(fmt.Sprintf(
				"wireframe: decoder invariant broken: accum=%d frameSize=%d headerSize=%d",
				d.accum.Size(), d.frameSize, d.headerSize))
		}

		if d.accum.Size() < d.frameSize {
			n := d.frameSize - d.accum.Size()
			if n > uint32(len(data)) {
				n = uint32(len(data))
			}
			d.accum.Append(data[:n])
			data = data[n:]
		} else {
			panic(fmt.Sprintf(
				"wireframe: decoder invariant broken: accum=%d frameSize=%d headerSize=%d",
				d.accum.Size(), d.frameSize, d.headerSize))
		}

		switch {
		case d.accum.Size() == d.frameSize:
			if onFrame != nil {
				onFrame(d.accum, d.headerSize)
			}
			d.Restart()
		case d.accum.Size() > d.frameSize:
			panic(fmt.Sprintf(
				"wireframe: decoder pushed past frame boundary: accum=%d frameSize=%d headerSize=%d",
				d.accum.Size(), d.frameSize, d.headerSize))
		default:
			return
		}
	}
}
