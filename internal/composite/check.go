package composite

import (
	"fmt"
	"strings"

	"bridgegen/internal/bridged"
)

// Unsupported is a valid type expression whose composition cannot cross the
// bridge.
type Unsupported struct {
	// Path locates the offending node from the checked root, e.g.
	// "Result.ok/Vec.elem". Empty for the root itself.
	Path   string
	Type   bridged.Type
	Reason string
}

func (u Unsupported) String() string {
	if u.Path == "" {
		return fmt.Sprintf("%s: %s", u.Type, u.Reason)
	}

	return fmt.Sprintf("%s at %s: %s", u.Type, u.Path, u.Reason)
}

// CheckField is Check for the type of a struct field or variant field.
// Fields own their values, so borrowed types are rejected at the root too.
func CheckField(t bridged.Type) []Unsupported {
	if borrowed(t) {
		return []Unsupported{{Type: t, Reason: "fields cannot hold borrowed values"}}
	}

	return Check(t)
}

// Check walks t and lists every unsupported composition. Declared products
// and sums are not entered; their fields are checked where they are declared.
func Check(t bridged.Type) []Unsupported {
	c := &checker{}
	bridged.Visit[struct{}](t, c)

	return c.found
}

type checker struct {
	path  []string
	found []Unsupported
}

func (c *checker) report(t bridged.Type, format string, args ...any) {
	c.found = append(c.found, Unsupported{
		Path:   strings.Join(c.path, "/"),
		Type:   t,
		Reason: fmt.Sprintf(format, args...),
	})
}

func (c *checker) enter(step string, t bridged.Type) {
	c.path = append(c.path, step)
	bridged.Visit[struct{}](t, c)
	c.path = c.path[:len(c.path)-1]
}

// borrowed reports whether t is a view or a borrowed opaque reference.
func borrowed(t bridged.Type) bool {
	switch t := t.(type) {
	case bridged.Str, bridged.Slice:
		return true
	case bridged.Opaque:
		return t.Mode != bridged.Owned
	default:
		return false
	}
}

func (c *checker) VisitPrimitive(bridged.Primitive) struct{} { return struct{}{} }
func (c *checker) VisitNull(bridged.Null) struct{}           { return struct{}{} }
func (c *checker) VisitString(bridged.String) struct{}       { return struct{}{} }

// checkView rejects borrowed views anywhere but the root or directly inside a
// root-level Option: deeper, the view would outlive the managed-side scope
// that keeps its buffer alive.
func (c *checker) checkView(t bridged.Type) {
	switch {
	case len(c.path) == 0:
	case len(c.path) == 1 && c.path[0] == "Option.inner":
	default:
		c.report(t, "borrowed views are only supported at the top level or directly inside an Option")
	}
}

func (c *checker) VisitStr(t bridged.Str) struct{} {
	c.checkView(t)
	return struct{}{}
}

func (c *checker) VisitSlice(t bridged.Slice) struct{} {
	c.checkView(t)

	if _, ok := t.Elem.(bridged.Primitive); !ok {
		c.report(t, "slices of %s are not supported, only primitive elements", t.Elem)
	}

	c.enter("Slice.elem", t.Elem)

	return struct{}{}
}

func (c *checker) VisitSequence(t bridged.Sequence) struct{} {
	switch e := t.Elem.(type) {
	case bridged.Primitive, bridged.String, bridged.Product, bridged.Sum:
	case bridged.Opaque:
		switch {
		case e.Mode != bridged.Owned:
			c.report(t, "borrowed %s cannot be stored in a sequence", e)
		case e.Side() == bridged.SideManaged:
			c.report(t, "sequences of managed-side type %s are not supported", e.Name())
		}
	case bridged.Str, bridged.Slice:
		c.report(t, "borrowed %s cannot be stored in a sequence", e)
	default:
		c.report(t, "sequences of %s are not supported", e)
	}

	c.enter("Vec.elem", t.Elem)

	return struct{}{}
}

func (c *checker) VisitOptional(t bridged.Optional) struct{} {
	c.enter("Option.inner", t.Inner)
	return struct{}{}
}

func (c *checker) VisitResult(t bridged.Result) struct{} {
	for _, side := range []struct {
		name string
		t    bridged.Type
	}{{"ok", t.Ok}, {"err", t.Err}} {
		if borrowed(side.t) {
			c.report(t, "borrowed %s cannot be stored in a result %s payload", side.t, side.name)
		}

		c.enter("Result."+side.name, side.t)
	}

	return struct{}{}
}

func (c *checker) VisitPointer(t bridged.Pointer) struct{} {
	switch t.Pointee.(type) {
	case bridged.Str, bridged.String, bridged.Sequence, bridged.Slice:
		c.report(t, "pointers to %s are not supported", t.Pointee)
	}

	return struct{}{}
}

func (c *checker) VisitTuple(t bridged.Tuple) struct{} {
	for i, e := range t.Elems {
		c.enter(fmt.Sprintf("Tuple._%d", i), e)
	}

	return struct{}{}
}

func (c *checker) VisitOpaque(bridged.Opaque) struct{}   { return struct{}{} }
func (c *checker) VisitProduct(bridged.Product) struct{} { return struct{}{} }
func (c *checker) VisitSum(bridged.Sum) struct{}         { return struct{}{} }
