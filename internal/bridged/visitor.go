package bridged

import "fmt"

// Visitor handles every variant of Type. Implementations are the only way
// consumers dispatch on a type; adding a variant breaks every visitor at
// compile time instead of silently falling through.
type Visitor[R any] interface {
	VisitPrimitive(t Primitive) R
	VisitNull(t Null) R
	VisitStr(t Str) R
	VisitString(t String) R
	VisitSlice(t Slice) R
	VisitSequence(t Sequence) R
	VisitOptional(t Optional) R
	VisitResult(t Result) R
	VisitPointer(t Pointer) R
	VisitTuple(t Tuple) R
	VisitOpaque(t Opaque) R
	VisitProduct(t Product) R
	VisitSum(t Sum) R
}

// Visit dispatches t to the matching method of v.
func Visit[R any](t Type, v Visitor[R]) R {
	switch t := t.(type) {
	case Primitive:
		return v.VisitPrimitive(t)
	case Null:
		return v.VisitNull(t)
	case Str:
		return v.VisitStr(t)
	case String:
		return v.VisitString(t)
	case Slice:
		return v.VisitSlice(t)
	case Sequence:
		return v.VisitSequence(t)
	case Optional:
		return v.VisitOptional(t)
	case Result:
		return v.VisitResult(t)
	case Pointer:
		return v.VisitPointer(t)
	case Tuple:
		return v.VisitTuple(t)
	case Opaque:
		return v.VisitOpaque(t)
	case Product:
		return v.VisitProduct(t)
	case Sum:
		return v.VisitSum(t)
	default:
		panic(fmt.Sprintf("internal error: unhandled bridged type %T", t))
	}
}
