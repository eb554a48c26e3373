package wireframe

// Flags is the 32-bit bitfield attached to every frame. Only its RPC kind
// bits (1..2) are ever visible on the wire; the reliability hint and the
// remaining application-private bits are never transmitted.
type Flags uint32

const (
	// FlagReliable is a runtime-side hint; the wire always treats TCP
	// frames as reliable, so this bit carries no on-wire meaning of its
	// own but is kept for API symmetry with transports that aren't.
	FlagReliable Flags = 1 << 0

	// kindMask covers bits 1..2, the RPC kind field.
	kindMask Flags = 0b110
)

// RPC kind values, packed into bits 1..2 of Flags.
const (
	KindCallNoFeedback  Flags = 0b000
	KindCallWithReturn  Flags = 0b010
	KindReturn          Flags = 0b100
	KindProtocolControl Flags = 0b110
)

// Kind extracts the RPC kind bits from f.
func (f Flags) Kind() Flags { return f & kindMask }

// IsReliable reports whether the reliable hint bit is set.
func (f Flags) IsReliable() bool { return f&FlagReliable != 0 }
