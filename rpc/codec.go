package rpc

import (
	"encoding/binary"
	"errors"
	"math"
	"reflect"

	"github.com/Drwalin/ICon7-sub000/buffer"
)

// ErrBufferTooSmall is reported by Reader when a decode step runs past the
// end of the frame body. Per §6, the entire frame is dropped in this case;
// callers must check Err() after decoding a message's arguments rather than
// trusting partially-decoded values.
var ErrBufferTooSmall = errors.New("rpc: buffer too small")

// Reader decodes little-endian, length-prefixed values from a frame body,
// mirroring icon7::ByteReader's role without bitscpp (unavailable in the
// retrieval pack).
type Reader struct {
	data []byte
	pos  uint32
	err  error
}

// NewReader wraps data for sequential decoding starting at offset 0.
func NewReader(data []byte) *Reader {
	return &Reader{data: data}
}

// Err returns the first decode error encountered, or nil.
func (r *Reader) Err() error { return r.err }

func (r *Reader) fail() {
	if r.err == nil {
		r.err = ErrBufferTooSmall
	}
}

func (r *Reader) take(n uint32) []byte {
	if r.err != nil {
		return nil
	}
	if uint32(len(r.data))-r.pos < n {
		r.fail()
		return nil
	}
	b := r.data[r.pos : r.pos+n]
	r.pos += n
	return b
}

func (r *Reader) Uint8() uint8 {
	b := r.take(1)
	if b == nil {
		return 0
	}
	return b[0]
}

func (r *Reader) Uint16() uint16 {
	b := r.take(2)
	if b == nil {
		return 0
	}
	return binary.LittleEndian.Uint16(b)
}

func (r *Reader) Uint32() uint32 {
	b := r.take(4)
	if b == nil {
		return 0
	}
	return binary.LittleEndian.Uint32(b)
}

func (r *Reader) Uint64() uint64 {
	b := r.take(8)
	if b == nil {
		return 0
	}
	return binary.LittleEndian.Uint64(b)
}

func (r *Reader) Int8() int8    { return int8(r.Uint8()) }
func (r *Reader) Int16() int16  { return int16(r.Uint16()) }
func (r *Reader) Int32() int32  { return int32(r.Uint32()) }
func (r *Reader) Int64() int64  { return int64(r.Uint64()) }
func (r *Reader) Bool() bool    { return r.Uint8() != 0 }

func (r *Reader) Float32() float32 { return math.Float32frombits(r.Uint32()) }
func (r *Reader) Float64() float64 { return math.Float64frombits(r.Uint64()) }

// Bytes decodes a uint32 length prefix followed by that many raw bytes,
// copied out of the frame buffer so the returned slice survives the frame's
// Release.
func (r *Reader) Bytes() []byte {
	n := r.Uint32()
	b := r.take(n)
	if b == nil {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}

// String decodes a length-prefixed UTF-8 string.
func (r *Reader) String() string {
	b := r.Bytes()
	return string(b)
}

// Remaining returns the not-yet-consumed tail of the buffer, or nil once an
// error has occurred.
func (r *Reader) Remaining() []byte {
	if r.err != nil {
		return nil
	}
	return r.data[r.pos:]
}

// ReadValue decodes into an addressable reflect.Value based on its Kind,
// the generic counterpart of icon7::PeerFlagsArgumentsReader's fallback
// `reader.op(value)` template for plain argument types.
func (r *Reader) ReadValue(v reflect.Value) {
	switch v.Kind() {
	case reflect.Bool:
		v.SetBool(r.Bool())
	case reflect.Int8:
		v.SetInt(int64(r.Int8()))
	case reflect.Int16:
		v.SetInt(int64(r.Int16()))
	case reflect.Int32:
		v.SetInt(int64(r.Int32()))
	case reflect.Int64, reflect.Int:
		v.SetInt(r.Int64())
	case reflect.Uint8:
		v.SetUint(uint64(r.Uint8()))
	case reflect.Uint16:
		v.SetUint(uint64(r.Uint16()))
	case reflect.Uint32:
		v.SetUint(uint64(r.Uint32()))
	case reflect.Uint64, reflect.Uint:
		v.SetUint(r.Uint64())
	case reflect.Float32:
		v.SetFloat(float64(r.Float32()))
	case reflect.Float64:
		v.SetFloat(r.Float64())
	case reflect.String:
		v.SetString(r.String())
	case reflect.Slice:
		if v.Type().Elem().Kind() == reflect.Uint8 {
			v.SetBytes(r.Bytes())
			return
		}
		n := r.Uint32()
		out := reflect.MakeSlice(v.Type(), int(n), int(n))
		for i := 0; i < int(n) && r.err == nil; i++ {
			r.ReadValue(out.Index(i))
		}
		v.Set(out)
	default:
		r.fail()
	}
}

// Writer encodes little-endian, length-prefixed values into a Buffer,
// mirroring icon7::ByteWriter's role.
type Writer struct {
	buf buffer.Buffer
}

// NewWriter allocates a Writer with a fresh buffer from pool (or the
// default pool if nil) reserving room for initialCapacity payload bytes.
func NewWriter(pool *buffer.Pool, initialCapacity uint32) *Writer {
	return &Writer{buf: buffer.New(pool, initialCapacity)}
}

// Buffer returns the buffer written into so far.
func (w *Writer) Buffer() buffer.Buffer { return w.buf }

func (w *Writer) PutUint8(v uint8) { w.buf.Append([]byte{v}) }

func (w *Writer) PutUint16(v uint16) {
	var b [2]byte
	binary.LittleEndian.PutUint16(b[:], v)
	w.buf.Append(b[:])
}

func (w *Writer) PutUint32(v uint32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	w.buf.Append(b[:])
}

func (w *Writer) PutUint64(v uint64) {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], v)
	w.buf.Append(b[:])
}

func (w *Writer) PutInt8(v int8)   { w.PutUint8(uint8(v)) }
func (w *Writer) PutInt16(v int16) { w.PutUint16(uint16(v)) }
func (w *Writer) PutInt32(v int32) { w.PutUint32(uint32(v)) }
func (w *Writer) PutInt64(v int64) { w.PutUint64(uint64(v)) }

func (w *Writer) PutBool(v bool) {
	if v {
		w.PutUint8(1)
	} else {
		w.PutUint8(0)
	}
}

func (w *Writer) PutFloat32(v float32) { w.PutUint32(math.Float32bits(v)) }
func (w *Writer) PutFloat64(v float64) { w.PutUint64(math.Float64bits(v)) }

// PutBytes encodes a uint32 length prefix followed by v.
func (w *Writer) PutBytes(v []byte) {
	w.PutUint32(uint32(len(v)))
	w.buf.Append(v)
}

// PutString encodes a length-prefixed UTF-8 string.
func (w *Writer) PutString(s string) { w.PutBytes([]byte(s)) }

// WriteValue encodes v based on its Kind, the encode-side counterpart of
// Reader.ReadValue.
func (w *Writer) WriteValue(v reflect.Value) {
	switch v.Kind() {
	case reflect.Bool:
		w.PutBool(v.Bool())
	case reflect.Int8:
		w.PutInt8(int8(v.Int()))
	case reflect.Int16:
		w.PutInt16(int16(v.Int()))
	case reflect.Int32:
		w.PutInt32(int32(v.Int()))
	case reflect.Int64, reflect.Int:
		w.PutInt64(v.Int())
	case reflect.Uint8:
		w.PutUint8(uint8(v.Uint()))
	case reflect.Uint16:
		w.PutUint16(uint16(v.Uint()))
	case reflect.Uint32:
		w.PutUint32(uint32(v.Uint()))
	case reflect.Uint64, reflect.Uint:
		w.PutUint64(v.Uint())
	case reflect.Float32:
		w.PutFloat32(float32(v.Float()))
	case reflect.Float64:
		w.PutFloat64(v.Float())
	case reflect.String:
		w.PutString(v.String())
	case reflect.Slice:
		if v.Type().Elem().Kind() == reflect.Uint8 {
			w.PutBytes(v.Bytes())
			return
		}
		n := v.Len()
		w.PutUint32(uint32(n))
		for i := 0; i < n; i++ {
			w.WriteValue(v.Index(i))
		}
	default:
		panic("rpc: WriteValue: unsupported kind " + v.Kind().String())
	}
}
