package rpc

import (
	"bytes"
	"reflect"
	"testing"
)

func TestCodecPrimitivesRoundTrip(t *testing.T) {
	w := NewWriter(nil, 64)
	w.PutUint8(0xAB)
	w.PutInt32(-12345)
	w.PutUint64(1 << 40)
	w.PutBool(true)
	w.PutFloat64(3.5)
	w.PutString("icon7")
	w.PutBytes([]byte{1, 2, 3})

	r := NewReader(w.Buffer().Data())
	if got := r.Uint8(); got != 0xAB {
		t.Fatalf("Uint8 = %x, want ab", got)
	}
	if got := r.Int32(); got != -12345 {
		t.Fatalf("Int32 = %d, want -12345", got)
	}
	if got := r.Uint64(); got != 1<<40 {
		t.Fatalf("Uint64 = %d, want %d", got, uint64(1)<<40)
	}
	if got := r.Bool(); got != true {
		t.Fatal("Bool = false, want true")
	}
	if got := r.Float64(); got != 3.5 {
		t.Fatalf("Float64 = %v, want 3.5", got)
	}
	if got := r.String(); got != "icon7" {
		t.Fatalf("String = %q, want icon7", got)
	}
	if got := r.Bytes(); !bytes.Equal(got, []byte{1, 2, 3}) {
		t.Fatalf("Bytes = %v, want [1 2 3]", got)
	}
	if r.Err() != nil {
		t.Fatalf("unexpected error: %v", r.Err())
	}
}

func TestCodecReaderReportsBufferTooSmall(t *testing.T) {
	r := NewReader([]byte{1, 2})
	_ = r.Uint32()
	if r.Err() != ErrBufferTooSmall {
		t.Fatalf("Err() = %v, want ErrBufferTooSmall", r.Err())
	}
	// Further reads must not panic and must keep reporting the same error.
	_ = r.Uint64()
	if r.Err() != ErrBufferTooSmall {
		t.Fatal("error should stick after the first failure")
	}
}

func TestWriteValueReadValueSliceRoundTrip(t *testing.T) {
	w := NewWriter(nil, 64)
	in := []int32{1, -2, 3, 400000}
	w.WriteValue(reflect.ValueOf(in))

	r := NewReader(w.Buffer().Data())
	var out []int32
	rv := reflect.New(reflect.TypeOf(out)).Elem()
	r.ReadValue(rv)
	out = rv.Interface().([]int32)

	if len(out) != len(in) {
		t.Fatalf("len = %d, want %d", len(out), len(in))
	}
	for i := range in {
		if out[i] != in[i] {
			t.Errorf("out[%d] = %d, want %d", i, out[i], in[i])
		}
	}
}
