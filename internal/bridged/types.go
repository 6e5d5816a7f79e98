package bridged

import (
	"strings"

	"bridgegen/primitive"
)

// Type is a type that can cross the bridge. The set of implementations is
// closed; dispatch on it goes through Visit.
type Type interface {
	Kind() Kind
	// String returns the canonical systems-side spelling, e.g. "Option<Vec<u8>>".
	String() string

	bridged()
}

// Primitive is a fixed-width number or bool.
type Primitive struct {
	Of primitive.KindEnum
}

// Null is the unit type "()".
type Null struct{}

// Str is a borrowed UTF-8 view ("&str").
type Str struct{}

// String is owned, heap allocated text.
type String struct{}

// Slice is a borrowed contiguous view ("&[T]" or "&mut [T]").
type Slice struct {
	Elem    Type
	Mutable bool
}

// Sequence is an owned growable sequence ("Vec<T>").
type Sequence struct {
	Elem Type
}

// Optional is "Option<T>".
type Optional struct {
	Inner Type
}

// Result is "Result<T, E>".
type Result struct {
	Ok  Type
	Err Type
}

// Pointer is a raw pointer. A nil Pointee means the pointee is not a bridged
// type and the pointer is passed as an opaque address; PointeeName keeps its
// spelling.
type Pointer struct {
	Pointee     Type
	PointeeName string
	Mutable     bool
}

// Tuple has two or more elements.
type Tuple struct {
	Elems []Type
}

// Opaque is a reference to a declared opaque type.
type Opaque struct {
	Decl *OpaqueDecl
	Mode RefMode
}

// Product is a declared struct.
type Product struct {
	Decl *StructDecl
}

// Sum is a declared enum.
type Sum struct {
	Decl *EnumDecl
}

func (Primitive) bridged() {}
func (Null) bridged()      {}
func (Str) bridged()       {}
func (String) bridged()    {}
func (Slice) bridged()     {}
func (Sequence) bridged()  {}
func (Optional) bridged()  {}
func (Result) bridged()    {}
func (Pointer) bridged()   {}
func (Tuple) bridged()     {}
func (Opaque) bridged()    {}
func (Product) bridged()   {}
func (Sum) bridged()       {}

func (Primitive) Kind() Kind { return KindPrimitive }
func (Null) Kind() Kind      { return KindNull }
func (Str) Kind() Kind       { return KindStr }
func (String) Kind() Kind    { return KindString }
func (Slice) Kind() Kind     { return KindSlice }
func (Sequence) Kind() Kind  { return KindSequence }
func (Optional) Kind() Kind  { return KindOptional }
func (Result) Kind() Kind    { return KindResult }
func (Pointer) Kind() Kind   { return KindPointer }
func (Tuple) Kind() Kind     { return KindTuple }
func (Opaque) Kind() Kind    { return KindOpaque }
func (Product) Kind() Kind   { return KindProduct }
func (Sum) Kind() Kind       { return KindSum }

func (p Primitive) String() string { return p.Of.Spell().Systems }
func (Null) String() string        { return "()" }
func (Str) String() string         { return "&str" }
func (String) String() string      { return "String" }

func (s Slice) String() string {
	if s.Mutable {
		return "&mut [" + s.Elem.String() + "]"
	}

	return "&[" + s.Elem.String() + "]"
}

func (s Sequence) String() string { return "Vec<" + s.Elem.String() + ">" }
func (o Optional) String() string { return "Option<" + o.Inner.String() + ">" }

func (r Result) String() string {
	return "Result<" + r.Ok.String() + ", " + r.Err.String() + ">"
}

func (p Pointer) String() string {
	prefix := "*const "
	if p.Mutable {
		prefix = "*mut "
	}

	if p.Pointee == nil {
		return prefix + p.PointeeName
	}

	return prefix + p.Pointee.String()
}

func (t Tuple) String() string {
	parts := make([]string, len(t.Elems))
	for i, e := range t.Elems {
		parts[i] = e.String()
	}

	return "(" + strings.Join(parts, ", ") + ")"
}

func (o Opaque) String() string {
	switch o.Mode {
	case Borrowed:
		return "&" + o.Decl.Name
	case BorrowedMut:
		return "&mut " + o.Decl.Name
	default:
		return o.Decl.Name
	}
}

func (p Product) String() string { return p.Decl.Name }
func (s Sum) String() string     { return s.Decl.Name }

// Name returns the declared identifier of the opaque type.
func (o Opaque) Name() string { return o.Decl.Name }

// Side returns the declaring side of the opaque type.
func (o Opaque) Side() Side { return o.Decl.Side }

// Inline reports whether values of the type cross by value.
func (o Opaque) Inline() bool { return o.Decl.InlineSize > 0 }

// Owned returns the same opaque type with Owned mode.
func (o Opaque) Owned() Opaque { return Opaque{Decl: o.Decl, Mode: Owned} }

// Equal reports whether a and b denote the same bridged type.
func Equal(a, b Type) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}

	return a.String() == b.String()
}

// Prim is a shorthand for Primitive{Of: k}.
func Prim(k primitive.KindEnum) Primitive {
	return Primitive{Of: k}
}
