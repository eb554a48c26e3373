package wireframe

import (
	"bytes"
	"testing"

	"github.com/Drwalin/ICon7-sub000/buffer"
)

// encodeFrame builds one complete wire frame (header+body) for test input.
func encodeFrame(t *testing.T, pool *buffer.Pool, payload []byte, kind Flags) []byte {
	t.Helper()
	buf := buffer.New(pool, uint32(len(payload)))
	buf.Append(payload)
	WriteHeaderInto(&buf, kind)
	out := append([]byte(nil), buf.Data()...)
	buf.Release()
	return out
}

func TestDecoderSingleFrameSingleChunk(t *testing.T) {
	pool := buffer.NewPool(1)
	wire := encodeFrame(t, pool, []byte("ping"), KindCallNoFeedback)

	dec := NewDecoder(pool)
	var got []byte
	frames := 0
	dec.PushData(wire, func(buf buffer.Buffer, headerSize uint32) {
		frames++
		got = append([]byte(nil), buf.Data()[headerSize:]...)
	})

	if frames != 1 {
		t.Fatalf("frames = %d, want 1", frames)
	}
	if !bytes.Equal(got, []byte("ping")) {
		t.Fatalf("body = %q, want %q", got, "ping")
	}
}

func TestDecoderMultipleFramesOneChunk(t *testing.T) {
	pool := buffer.NewPool(1)
	var wire []byte
	wire = append(wire, encodeFrame(t, pool, []byte("one"), KindCallNoFeedback)...)
	wire = append(wire, encodeFrame(t, pool, []byte("two"), KindCallNoFeedback)...)
	wire = append(wire, encodeFrame(t, pool, []byte("three"), KindCallNoFeedback)...)

	dec := NewDecoder(pool)
	var got []string
	dec.PushData(wire, func(buf buffer.Buffer, headerSize uint32) {
		got = append(got, string(buf.Data()[headerSize:]))
	})

	want := []string{"one", "two", "three"}
	if len(got) != len(want) {
		t.Fatalf("got %d frames, want %d: %v", len(got), len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("frame %d = %q, want %q", i, got[i], want[i])
		}
	}
}

// TestDecoderSplitAcrossManyReads feeds a frame in one push, then again
// with its header one byte at a time, the bulk of the body in one read and
// the last body byte in a final read, mirroring the header-split and
// body-split boundary scenario.
func TestDecoderSplitAcrossManyReads(t *testing.T) {
	pool := buffer.NewPool(1)
	body := bytes.Repeat([]byte{0xAB}, 5000)
	wire := encodeFrame(t, pool, body, KindCallWithReturn)

	dec := NewDecoder(pool)
	var got []byte
	frames := 0
	dec.PushData(wire, func(buf buffer.Buffer, headerSize uint32) {
		frames++
		got = append([]byte(nil), buf.Data()[headerSize:]...)
	})
	_ = got
	if frames != 1 {
		t.Fatalf("single push: frames = %d, want 1", frames)
	}

	// Re-run, but deliver it in awkward slices: the 3 header bytes one at
	// a time, then a large body chunk, then the final trailing byte.
	dec2 := NewDecoder(pool)
	frames = 0
	got = nil
	chunks := make([][]byte, 0)
	headerSize := int(HeaderSize(uint32(len(body))))
	for i := 0; i < headerSize; i++ {
		chunks = append(chunks, wire[i:i+1])
	}
	rest := wire[headerSize:]
	chunks = append(chunks, rest[:len(rest)-1])
	chunks = append(chunks, rest[len(rest)-1:])

	for _, c := range chunks {
		dec2.PushData(c, func(buf buffer.Buffer, hs uint32) {
			frames++
			got = append([]byte(nil), buf.Data()[hs:]...)
		})
	}

	if frames != 1 {
		t.Fatalf("split reads: frames = %d, want 1", frames)
	}
	if !bytes.Equal(got, body) {
		t.Fatalf("split reads: body mismatch, len got=%d want=%d", len(got), len(body))
	}
}

// TestDecoderCloneOutlivesRestart verifies that a callback which Clones the
// frame buffer keeps valid data even after the decoder restarts and reuses
// its accumulator for the next frame.
func TestDecoderCloneOutlivesRestart(t *testing.T) {
	pool := buffer.NewPool(1)
	var wire []byte
	wire = append(wire, encodeFrame(t, pool, []byte("alpha"), KindCallNoFeedback)...)
	wire = append(wire, encodeFrame(t, pool, []byte("beta"), KindCallNoFeedback)...)

	dec := NewDecoder(pool)
	var kept []buffer.Buffer
	var keptHeaderSizes []uint32
	dec.PushData(wire, func(buf buffer.Buffer, headerSize uint32) {
		kept = append(kept, buf.Clone())
		keptHeaderSizes = append(keptHeaderSizes, headerSize)
	})

	if len(kept) != 2 {
		t.Fatalf("kept %d frames, want 2", len(kept))
	}
	if string(kept[0].Data()[keptHeaderSizes[0]:]) != "alpha" {
		t.Fatalf("first kept frame corrupted: %q", kept[0].Data()[keptHeaderSizes[0]:])
	}
	if string(kept[1].Data()[keptHeaderSizes[1]:]) != "beta" {
		t.Fatalf("second kept frame corrupted: %q", kept[1].Data()[keptHeaderSizes[1]:])
	}
	for i := range kept {
		kept[i].Release()
	}
}

func TestDecoderPanicsOnCorruptHeaderPastBoundary(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic when pushed data runs past the known frame boundary")
		}
	}()
	pool := buffer.NewPool(1)
	dec := &Decoder{pool: pool}
	dec.Restart()
	// Force an inconsistent internal state: claim a 2-byte frame (1 header
	// byte, 1 body byte) is already complete, then push more data the
	// decoder must reject as overrun.
	dec.headerSize = 1
	dec.frameSize = 2
	dec.accum.Append([]byte{0x00, 0x01})
	dec.PushData([]byte{0x02}, nil)
}
