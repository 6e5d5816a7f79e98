package opaque

import (
	"bridgegen/internal/bridged"
	"bridgegen/internal/common"
	"bridgegen/internal/repr"
)

// EntryKind identifies what an entry point does.
type EntryKind int

const (
	EntryFree EntryKind = iota
	EntryRelease
	EntryMethod
	EntryPartialEq
	EntryHash
	EntryVecOp
)

// String returns a human-readable representation of the kind.
func (k EntryKind) String() string {
	switch k {
	case EntryFree:
		return "free"
	case EntryRelease:
		return "release"
	case EntryMethod:
		return "method"
	case EntryPartialEq:
		return "partial_eq"
	case EntryHash:
		return "hash"
	case EntryVecOp:
		return "vec_op"
	default:
		return common.UnknownStr
	}
}

// Param is one wire parameter of an entry point.
type Param struct {
	Name string
	Wire repr.WireType
}

// EntryPoint is an exported symbol one side defines and the other calls.
type EntryPoint struct {
	Name    string
	Kind    EntryKind
	Definer bridged.Side
	// Owner is the opaque type, or the sequence segment for EntryVecOp.
	Owner string
	// Op is the method or sequence operation name.
	Op     string
	Params []Param
	// Return is the wire type of the result; C "void" when there is none.
	Return repr.WireType
	// Method is set for EntryMethod.
	Method *bridged.Signature
}

// Void reports whether the entry point returns nothing.
func (e EntryPoint) Void() bool {
	return e.Return.C == "void"
}
