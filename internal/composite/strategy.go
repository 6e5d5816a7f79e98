package composite

import (
	"bridgegen/internal/bridged"
	"bridgegen/internal/common"
)

// Strategy explanation constants.
const (
	explZeroByteInner  = "payload carries no data, presence is the whole value"
	explSentinelInner  = "payload is never null when present, null encodes absence"
	explTaggedInner    = "payload has no spare state, an explicit tag is needed"
	explBothZeroByte   = "neither variant carries data"
	explBothPointers   = "both variants are single pointers"
	explNullableOk     = "success carries no data, a null pointer means success"
	explNullableErr    = "error carries no data, a null pointer means error"
	explTaggedVariants = "variants need a tag and a payload union"
)

// OptionalStrategy is the wire representation of an Option<T>.
type OptionalStrategy int

const (
	// OptionalTaggedStruct wraps the payload as { bool is_some; T val; }.
	OptionalTaggedStruct OptionalStrategy = iota
	// OptionalTagOnly is a bare bool.
	OptionalTagOnly
	// OptionalSentinelReuse reuses the payload's null pointer as None.
	OptionalSentinelReuse
)

// String returns a human-readable strategy name.
func (s OptionalStrategy) String() string {
	switch s {
	case OptionalTaggedStruct:
		return "tagged_struct"
	case OptionalTagOnly:
		return "tag_only"
	case OptionalSentinelReuse:
		return "sentinel_reuse"
	default:
		return common.UnknownStr
	}
}

// SelectOptional picks the representation of Option<inner> and explains it.
func SelectOptional(inner bridged.Type) (OptionalStrategy, string) {
	switch bridged.ShapeOf(inner) {
	case bridged.ShapeZeroByte:
		return OptionalTagOnly, explZeroByteInner
	case bridged.ShapePointer, bridged.ShapeView:
		return OptionalSentinelReuse, explSentinelInner
	default:
		return OptionalTaggedStruct, explTaggedInner
	}
}

// ResultStrategy is the wire representation of a Result<T, E>.
type ResultStrategy int

const (
	// ResultTaggedUnion is a dedicated { tag; union { ok; err; } payload; }.
	ResultTaggedUnion ResultStrategy = iota
	// ResultBoolOnly is a bare bool, true for Ok.
	ResultBoolOnly
	// ResultPtrAndPtr is the shared { bool is_ok; void* ok_or_err; }.
	ResultPtrAndPtr
	// ResultNullablePointer is the pointer of the data-carrying variant,
	// null standing for the zero-byte variant.
	ResultNullablePointer
)

// String returns a human-readable strategy name.
func (s ResultStrategy) String() string {
	switch s {
	case ResultTaggedUnion:
		return "tagged_union"
	case ResultBoolOnly:
		return "bool_only"
	case ResultPtrAndPtr:
		return "ptr_and_ptr"
	case ResultNullablePointer:
		return "nullable_pointer"
	default:
		return common.UnknownStr
	}
}

// SelectResult picks the representation of Result<ok, err> and explains it.
func SelectResult(ok, err bridged.Type) (ResultStrategy, string) {
	okShape, errShape := bridged.ShapeOf(ok), bridged.ShapeOf(err)

	switch {
	case okShape == bridged.ShapeZeroByte && errShape == bridged.ShapeZeroByte:
		return ResultBoolOnly, explBothZeroByte
	case okShape == bridged.ShapePointer && errShape == bridged.ShapePointer:
		return ResultPtrAndPtr, explBothPointers
	case okShape == bridged.ShapeZeroByte && errShape == bridged.ShapePointer:
		return ResultNullablePointer, explNullableOk
	case okShape == bridged.ShapePointer && errShape == bridged.ShapeZeroByte:
		return ResultNullablePointer, explNullableErr
	default:
		return ResultTaggedUnion, explTaggedVariants
	}
}

// NullMeansOk reports whether the Ok variant is the only zero-byte side, so
// that a null payload stands for Ok. A result with two zero-byte sides has no
// payload at all.
func NullMeansOk(r bridged.Result) bool {
	return bridged.ShapeOf(r.Ok) == bridged.ShapeZeroByte &&
		bridged.ShapeOf(r.Err) != bridged.ShapeZeroByte
}

// Placeholder returns the value written into the payload slot of an absent
// TaggedStruct optional, as systems-side source text. The slot is never read.
func Placeholder(inner bridged.Type) string {
	switch t := inner.(type) {
	case bridged.Primitive:
		return t.Of.Placeholder()
	case bridged.Pointer:
		if t.Mutable {
			return "std::ptr::null_mut()"
		}

		return "std::ptr::null()"
	default:
		return "unsafe { std::mem::zeroed() }"
	}
}
