package bridged

import (
	"strings"
	"unicode"
)

// Mangle returns the identifier fragment of t used in synthesized wire names,
// e.g. "OptionVecU8" for Option<Vec<u8>>. Structurally identical types mangle
// identically and distinct types mangle distinctly within one declaration set,
// except for the And-separated Result collisions the registry detects.
func Mangle(t Type) string {
	return Visit[string](t, mangler{})
}

type mangler struct{}

func (mangler) VisitPrimitive(t Primitive) string { return t.Of.Spell().Mangled }
func (mangler) VisitNull(Null) string             { return "Void" }
func (mangler) VisitStr(Str) string               { return "Str" }
func (mangler) VisitString(String) string         { return "String" }

func (m mangler) VisitSlice(t Slice) string {
	if t.Mutable {
		return "SliceMut" + Mangle(t.Elem)
	}

	return "Slice" + Mangle(t.Elem)
}

func (m mangler) VisitSequence(t Sequence) string { return "Vec" + Mangle(t.Elem) }
func (m mangler) VisitOptional(t Optional) string { return "Option" + Mangle(t.Inner) }

func (m mangler) VisitResult(t Result) string {
	return "Result" + Mangle(t.Ok) + "And" + Mangle(t.Err)
}

func (m mangler) VisitPointer(t Pointer) string {
	prefix := "ConstPtr"
	if t.Mutable {
		prefix = "MutPtr"
	}

	if t.Pointee == nil {
		return prefix + identFragment(t.PointeeName)
	}

	return prefix + Mangle(t.Pointee)
}

func (m mangler) VisitTuple(t Tuple) string { return "Tuple" + MangleElems(t.Elems) }

func (mangler) VisitOpaque(t Opaque) string {
	switch t.Mode {
	case Borrowed:
		return t.Name() + "Ref"
	case BorrowedMut:
		return t.Name() + "RefMut"
	default:
		return t.Name()
	}
}

func (mangler) VisitProduct(t Product) string { return t.Decl.Name }
func (mangler) VisitSum(t Sum) string         { return t.Decl.Name }

// MangleElems concatenates the mangled names of elems.
func MangleElems(elems []Type) string {
	var b strings.Builder
	for _, e := range elems {
		b.WriteString(Mangle(e))
	}

	return b.String()
}

// identFragment turns a path such as "std::ffi::c_void" into "c_void".
func identFragment(path string) string {
	if i := strings.LastIndex(path, "::"); i >= 0 {
		path = path[i+2:]
	}

	return strings.Map(func(r rune) rune {
		if r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r) {
			return r
		}

		return -1
	}, path)
}
