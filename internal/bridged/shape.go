package bridged

// Shape describes which spare states a type's wire form has.
type Shape int

const (
	// ShapeValue has no spare state.
	ShapeValue Shape = iota
	// ShapeZeroByte carries no information at all.
	ShapeZeroByte
	// ShapePointer is a single pointer that is never null when present.
	ShapePointer
	// ShapeView is a start pointer plus length; a null start is spare.
	ShapeView
)

// String returns a human-readable representation of the shape.
func (s Shape) String() string {
	switch s {
	case ShapeZeroByte:
		return "zero-byte"
	case ShapePointer:
		return "pointer"
	case ShapeView:
		return "view"
	default:
		return "value"
	}
}

// HasSentinel reports whether a null pointer can encode absence.
func (s Shape) HasSentinel() bool {
	return s == ShapePointer || s == ShapeView
}

// ShapeOf returns the shape of t.
func ShapeOf(t Type) Shape {
	return Visit[Shape](t, shapeVisitor{})
}

type shapeVisitor struct{}

func (shapeVisitor) VisitPrimitive(Primitive) Shape { return ShapeValue }
func (shapeVisitor) VisitNull(Null) Shape           { return ShapeZeroByte }
func (shapeVisitor) VisitStr(Str) Shape             { return ShapeView }
func (shapeVisitor) VisitString(String) Shape       { return ShapePointer }
func (shapeVisitor) VisitSlice(Slice) Shape         { return ShapeView }
func (shapeVisitor) VisitSequence(Sequence) Shape   { return ShapePointer }

// Optional and Result already spend any spare state of their payload.
func (shapeVisitor) VisitOptional(Optional) Shape { return ShapeValue }
func (shapeVisitor) VisitResult(Result) Shape     { return ShapeValue }

// Raw pointers may legitimately be null.
func (shapeVisitor) VisitPointer(Pointer) Shape { return ShapeValue }
func (shapeVisitor) VisitTuple(Tuple) Shape     { return ShapeValue }

func (shapeVisitor) VisitOpaque(t Opaque) Shape {
	if t.Inline() {
		return ShapeValue
	}

	return ShapePointer
}

func (shapeVisitor) VisitProduct(t Product) Shape {
	if len(t.Decl.Fields) == 0 {
		return ShapeZeroByte
	}

	return ShapeValue
}

func (shapeVisitor) VisitSum(Sum) Shape { return ShapeValue }
