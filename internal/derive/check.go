package derive

import (
	"fmt"

	"bridgegen/internal/bridged"
	"bridgegen/internal/composite"
	"bridgegen/internal/diagnostic"
)

var (
	checkType      = composite.Check
	checkFieldType = composite.CheckField
)

// holdsBorrow reports whether a value of t borrows from somewhere. Views may
// only appear at the root or inside a root Option after composite.Check.
func holdsBorrow(t bridged.Type) bool {
	switch t := t.(type) {
	case bridged.Str, bridged.Slice:
		return true
	case bridged.Opaque:
		return t.Mode != bridged.Owned
	case bridged.Optional:
		return holdsBorrow(t.Inner)
	default:
		return false
	}
}

// heldOpaque returns the name of an opaque type held by value anywhere in t.
// seen guards against recursive declarations.
func heldOpaque(t bridged.Type, seen map[string]bool) (string, bool) {
	var elems []bridged.Type

	switch t := t.(type) {
	case bridged.Opaque:
		return t.Name(), true
	case bridged.Sequence:
		elems = []bridged.Type{t.Elem}
	case bridged.Optional:
		elems = []bridged.Type{t.Inner}
	case bridged.Result:
		elems = []bridged.Type{t.Ok, t.Err}
	case bridged.Tuple:
		elems = t.Elems
	case bridged.Product:
		if seen[t.Decl.Name] {
			return "", false
		}

		seen[t.Decl.Name] = true

		for _, f := range t.Decl.Fields {
			elems = append(elems, f.Type)
		}
	case bridged.Sum:
		if seen[t.Decl.Name] {
			return "", false
		}

		seen[t.Decl.Name] = true

		for _, v := range t.Decl.Variants {
			for _, f := range v.Fields {
				elems = append(elems, f.Type)
			}
		}
	}

	for _, e := range elems {
		if name, ok := heldOpaque(e, seen); ok {
			return name, true
		}
	}

	return "", false
}

// cloneable reports whether generated systems-side definitions of t can
// derive Clone.
func cloneable(t bridged.Type) bool {
	_, held := heldOpaque(t, map[string]bool{})
	return !held
}

// explain records, once per canonical type, why an optional or result
// reuses a sentinel of its payload.
func (s *session) explain(t bridged.Type, subject, loc string) {
	switch t := t.(type) {
	case bridged.Optional:
		if strategy, why := composite.SelectOptional(t.Inner); strategy == composite.OptionalSentinelReuse {
			s.note(t, fmt.Sprintf("%s uses %s: %s", t, strategy, why), subject, loc)
		}

		s.explain(t.Inner, subject, loc)
	case bridged.Result:
		strategy, why := composite.SelectResult(t.Ok, t.Err)
		if strategy == composite.ResultPtrAndPtr || strategy == composite.ResultNullablePointer {
			s.note(t, fmt.Sprintf("%s uses %s: %s", t, strategy, why), subject, loc)
		}

		s.explain(t.Ok, subject, loc)
		s.explain(t.Err, subject, loc)
	case bridged.Sequence:
		s.explain(t.Elem, subject, loc)
	case bridged.Tuple:
		for _, e := range t.Elems {
			s.explain(e, subject, loc)
		}
	}
}

func (s *session) note(t bridged.Type, msg, subject, loc string) {
	key := t.String()
	if _, done := s.explained[key]; done {
		return
	}

	s.explained[key] = struct{}{}
	s.diags.AddInfo(diagnostic.CodeSentinelReuse, msg, subject, loc)
}
