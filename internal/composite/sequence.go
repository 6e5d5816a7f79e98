package composite

import "bridgegen/internal/bridged"

// VecOps are the operations synthesized once per distinct element type, in
// declaration order.
var VecOps = []string{"new", "drop", "len", "get", "get_mut", "push", "pop", "as_ptr"}

// ElementFlow is how elements move through the sequence operations.
type ElementFlow int

const (
	// ElementByValue passes elements by value; get/pop return a tagged optional.
	ElementByValue ElementFlow = iota
	// ElementByPointer passes elements as raw pointers; get/pop return null
	// when absent.
	ElementByPointer
)

// SequencePolicy describes the wire contract of Vec<Elem>.
type SequencePolicy struct {
	Elem bridged.Type
	// Segment names the element in operation symbols: "u8", "RustString",
	// or the declared identifier.
	Segment string
	Flow    ElementFlow
}

// NewSequencePolicy returns the policy for a sequence of elem. The element
// must have passed Check.
func NewSequencePolicy(elem bridged.Type) SequencePolicy {
	p := SequencePolicy{Elem: elem, Segment: VecSegment(elem)}
	if bridged.ShapeOf(elem) == bridged.ShapePointer {
		p.Flow = ElementByPointer
	}

	return p
}

// VecSegment returns the element segment used in Vec operation names.
func VecSegment(elem bridged.Type) string {
	switch t := elem.(type) {
	case bridged.Primitive:
		return t.Of.Spell().Systems
	case bridged.String:
		return "RustString"
	default:
		return bridged.Mangle(elem)
	}
}
