package bridged

import "bridgegen/internal/common"

// Kind identifies the variant of a Type.
type Kind int

const (
	KindPrimitive Kind = iota
	KindNull
	KindStr
	KindString
	KindSlice
	KindSequence
	KindOptional
	KindResult
	KindPointer
	KindTuple
	KindOpaque
	KindProduct
	KindSum
)

// String returns a human-readable representation of the kind.
func (k Kind) String() string {
	switch k {
	case KindPrimitive:
		return "primitive"
	case KindNull:
		return "null"
	case KindStr:
		return "str"
	case KindString:
		return "string"
	case KindSlice:
		return "slice"
	case KindSequence:
		return "sequence"
	case KindOptional:
		return "optional"
	case KindResult:
		return "result"
	case KindPointer:
		return "pointer"
	case KindTuple:
		return "tuple"
	case KindOpaque:
		return "opaque"
	case KindProduct:
		return "product"
	case KindSum:
		return "sum"
	default:
		return common.UnknownStr
	}
}

// Side is the language a type is declared (and allocated) in.
type Side int

const (
	SideSystems Side = iota
	SideManaged
)

// String returns a human-readable representation of the side.
func (s Side) String() string {
	switch s {
	case SideSystems:
		return "systems"
	case SideManaged:
		return "managed"
	default:
		return common.UnknownStr
	}
}

// RefMode is how an opaque value is held at a use site.
type RefMode int

const (
	Owned RefMode = iota
	Borrowed
	BorrowedMut
)

// String returns a human-readable representation of the mode.
func (m RefMode) String() string {
	switch m {
	case Owned:
		return "owned"
	case Borrowed:
		return "borrowed"
	case BorrowedMut:
		return "borrowed-mut"
	default:
		return common.UnknownStr
	}
}
