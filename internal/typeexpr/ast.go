package typeexpr

import "strings"

// Type is a parsed type expression.
type Type interface {
	// Pos is the byte offset of the expression in the source.
	Pos() int
	// String renders the expression in canonical form.
	String() string

	typeNode()
}

// Path is a possibly qualified name with optional generic arguments:
// u8, String, super::Foo, Vec<T>, Result<T, E>.
type Path struct {
	Segments []string
	Args     []Type
	Offset   int
}

// Ref is a borrow: &T, &mut T, &'a T.
type Ref struct {
	Mutable  bool
	Lifetime string
	Elem     Type
	Offset   int
}

// RawPtr is *const T or *mut T.
type RawPtr struct {
	Mutable bool
	Elem    Type
	Offset  int
}

// Tuple is (A, B, ...). The empty tuple is the unit type.
type Tuple struct {
	Elems  []Type
	Offset int
}

// Slice is the unsized [T]; it only appears behind a Ref.
type Slice struct {
	Elem   Type
	Offset int
}

func (p *Path) Pos() int   { return p.Offset }
func (r *Ref) Pos() int    { return r.Offset }
func (r *RawPtr) Pos() int { return r.Offset }
func (t *Tuple) Pos() int  { return t.Offset }
func (s *Slice) Pos() int  { return s.Offset }

func (*Path) typeNode()   {}
func (*Ref) typeNode()    {}
func (*RawPtr) typeNode() {}
func (*Tuple) typeNode()  {}
func (*Slice) typeNode()  {}

// Name returns the last path segment.
func (p *Path) Name() string {
	return p.Segments[len(p.Segments)-1]
}

func (p *Path) String() string {
	var sb strings.Builder

	sb.WriteString(strings.Join(p.Segments, "::"))

	if len(p.Args) > 0 {
		sb.WriteByte('<')
		sb.WriteString(joinTypes(p.Args))
		sb.WriteByte('>')
	}

	return sb.String()
}

func (r *Ref) String() string {
	var sb strings.Builder

	sb.WriteByte('&')

	if r.Lifetime != "" {
		sb.WriteString("'" + r.Lifetime + " ")
	}

	if r.Mutable {
		sb.WriteString("mut ")
	}

	sb.WriteString(r.Elem.String())

	return sb.String()
}

func (r *RawPtr) String() string {
	if r.Mutable {
		return "*mut " + r.Elem.String()
	}

	return "*const " + r.Elem.String()
}

func (t *Tuple) String() string {
	if len(t.Elems) == 1 {
		return "(" + t.Elems[0].String() + ",)"
	}

	return "(" + joinTypes(t.Elems) + ")"
}

func (s *Slice) String() string {
	return "[" + s.Elem.String() + "]"
}

func joinTypes(types []Type) string {
	parts := make([]string, len(types))
	for i, t := range types {
		parts[i] = t.String()
	}

	return strings.Join(parts, ", ")
}
