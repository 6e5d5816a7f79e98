package repr

import (
	"fmt"
	"strings"

	"bridgegen/internal/bridged"
	"bridgegen/internal/common"
)

// Position is where a managed-side native type is spelled.
type Position int

const (
	// PositionArgument is a parameter of a systems function called from
	// managed code. Text arguments accept generic conformers.
	PositionArgument Position = iota
	// PositionReturn is a result handed to managed code.
	PositionReturn
	// PositionField is a stored property of a shared struct or enum payload.
	PositionField
	// PositionExport is a parameter or result of a managed-side function
	// called from systems code.
	PositionExport
)

// String returns a human-readable representation of the position.
func (p Position) String() string {
	switch p {
	case PositionArgument:
		return "argument"
	case PositionReturn:
		return "return"
	case PositionField:
		return "field"
	case PositionExport:
		return "export"
	default:
		return common.UnknownStr
	}
}

const (
	// GenericToRustStr is the generic parameter accepted for &str arguments.
	GenericToRustStr = "GenericToRustStr"
	// GenericIntoRustString is the generic parameter accepted for String arguments.
	GenericIntoRustString = "GenericIntoRustString"
)

// NativeSystems returns the systems-side spelling of t inside the generated
// module.
func (s *Synthesizer) NativeSystems(t bridged.Type) string {
	return bridged.Visit[string](t, systemsVisitor{s})
}

type systemsVisitor struct {
	s *Synthesizer
}

func (v systemsVisitor) VisitPrimitive(t bridged.Primitive) string { return t.String() }
func (v systemsVisitor) VisitNull(bridged.Null) string             { return "()" }
func (v systemsVisitor) VisitStr(bridged.Str) string               { return "&str" }
func (v systemsVisitor) VisitString(bridged.String) string         { return "String" }

func (v systemsVisitor) VisitSlice(t bridged.Slice) string {
	if t.Mutable {
		return "&mut [" + v.s.NativeSystems(t.Elem) + "]"
	}

	return "&[" + v.s.NativeSystems(t.Elem) + "]"
}

func (v systemsVisitor) VisitSequence(t bridged.Sequence) string {
	return "Vec<" + v.s.NativeSystems(t.Elem) + ">"
}

func (v systemsVisitor) VisitOptional(t bridged.Optional) string {
	return "Option<" + v.s.NativeSystems(t.Inner) + ">"
}

func (v systemsVisitor) VisitResult(t bridged.Result) string {
	return "Result<" + v.s.NativeSystems(t.Ok) + ", " + v.s.NativeSystems(t.Err) + ">"
}

func (v systemsVisitor) VisitPointer(t bridged.Pointer) string {
	mut := "*const "
	if t.Mutable {
		mut = "*mut "
	}

	if t.Pointee == nil {
		return mut + "std::ffi::c_void"
	}

	return mut + v.s.NativeSystems(t.Pointee)
}

func (v systemsVisitor) VisitTuple(t bridged.Tuple) string {
	parts := make([]string, len(t.Elems))
	for i, e := range t.Elems {
		parts[i] = v.s.NativeSystems(e)
	}

	return "(" + strings.Join(parts, ", ") + ")"
}

func (v systemsVisitor) VisitOpaque(t bridged.Opaque) string {
	name := t.Name()
	if t.Side() == bridged.SideSystems {
		name = "super::" + name
	}

	switch t.Mode {
	case bridged.Borrowed:
		return "&" + name
	case bridged.BorrowedMut:
		return "&mut " + name
	default:
		return name
	}
}

func (v systemsVisitor) VisitProduct(t bridged.Product) string {
	return sharedName(t.Decl.Name, t.Decl.AlreadyDeclared)
}

func (v systemsVisitor) VisitSum(t bridged.Sum) string {
	return sharedName(t.Decl.Name, t.Decl.AlreadyDeclared)
}

func sharedName(name string, external bool) string {
	if external {
		return "super::" + name
	}

	return name
}

// NativeManaged returns the managed-side spelling of t at pos.
func (s *Synthesizer) NativeManaged(t bridged.Type, pos Position) string {
	return bridged.Visit[string](t, managedVisitor{s: s, pos: pos})
}

// Generics returns the generic parameters a managed-side signature needs to
// accept t at pos, e.g. "GenericToRustStr: ToRustStr".
func (s *Synthesizer) Generics(t bridged.Type, pos Position) []string {
	if pos != PositionArgument {
		return nil
	}

	var out []string

	native := s.NativeManaged(t, pos)
	if strings.Contains(native, GenericIntoRustString) {
		out = append(out, GenericIntoRustString+": IntoRustString")
	}

	if strings.Contains(native, GenericToRustStr) {
		out = append(out, GenericToRustStr+": ToRustStr")
	}

	return out
}

type managedVisitor struct {
	s   *Synthesizer
	pos Position
}

func (v managedVisitor) inner(t bridged.Type) string {
	return v.s.NativeManaged(t, v.pos)
}

// element spells t inside a container, where generic conformers never apply.
func (v managedVisitor) element(t bridged.Type) string {
	return v.s.NativeManaged(t, PositionField)
}

func (v managedVisitor) VisitPrimitive(t bridged.Primitive) string { return t.Of.Spell().Managed }
func (v managedVisitor) VisitNull(bridged.Null) string             { return "()" }

func (v managedVisitor) VisitStr(bridged.Str) string {
	if v.pos == PositionArgument {
		return GenericToRustStr
	}

	return "RustStr"
}

func (v managedVisitor) VisitString(bridged.String) string {
	if v.pos == PositionArgument {
		return GenericIntoRustString
	}

	return "RustString"
}

func (v managedVisitor) VisitSlice(t bridged.Slice) string {
	if t.Mutable {
		return "UnsafeMutableBufferPointer<" + v.element(t.Elem) + ">"
	}

	return "UnsafeBufferPointer<" + v.element(t.Elem) + ">"
}

func (v managedVisitor) VisitSequence(t bridged.Sequence) string {
	return "RustVec<" + v.element(t.Elem) + ">"
}

func (v managedVisitor) VisitOptional(t bridged.Optional) string {
	return "Optional<" + v.inner(t.Inner) + ">"
}

func (v managedVisitor) VisitResult(t bridged.Result) string {
	return "RustResult<" + v.element(t.Ok) + ", " + v.element(t.Err) + ">"
}

func (v managedVisitor) VisitPointer(t bridged.Pointer) string {
	return v.s.Wire(t).Swift
}

func (v managedVisitor) VisitTuple(t bridged.Tuple) string {
	parts := make([]string, len(t.Elems))
	for i, e := range t.Elems {
		parts[i] = v.element(e)
	}

	return "(" + strings.Join(parts, ", ") + ")"
}

func (v managedVisitor) VisitOpaque(t bridged.Opaque) string {
	if t.Side() == bridged.SideManaged || t.Inline() {
		return t.Name()
	}

	switch t.Mode {
	case bridged.Borrowed:
		return t.Name() + "Ref"
	case bridged.BorrowedMut:
		return t.Name() + "RefMut"
	default:
		return t.Name()
	}
}

func (v managedVisitor) VisitProduct(t bridged.Product) string { return t.Decl.ManagedIdent() }
func (v managedVisitor) VisitSum(t bridged.Sum) string         { return t.Decl.ManagedIdent() }

// Describe renders every representation of t on one line; used by the
// inspect command and in diagnostics.
func (s *Synthesizer) Describe(t bridged.Type) string {
	w := s.Wire(t)

	return fmt.Sprintf("%s: shape=%s c=%q rust=%q swift=%q ownership=%s native_swift=%q",
		t, bridged.ShapeOf(t), w.C, w.Rust, w.Swift, w.Ownership, s.NativeManaged(t, PositionReturn))
}
