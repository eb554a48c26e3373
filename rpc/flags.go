package rpc

import "github.com/Drwalin/ICon7-sub000/wireframe"

// Flags is the same wire-flags bitfield wireframe uses; rpc reuses the type
// instead of redeclaring the kind constants.
type Flags = wireframe.Flags

const (
	FlagReliable        = wireframe.FlagReliable
	KindCallNoFeedback  = wireframe.KindCallNoFeedback
	KindCallWithReturn  = wireframe.KindCallWithReturn
	KindReturn          = wireframe.KindReturn
	KindProtocolControl = wireframe.KindProtocolControl
)
