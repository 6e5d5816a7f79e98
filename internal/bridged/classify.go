package bridged

import (
	"fmt"
	"strings"

	"bridgegen/internal/typeexpr"
	"bridgegen/primitive"
)

// UnresolvedError reports a well-formed type expression that does not denote
// a bridged type.
type UnresolvedError struct {
	Expr   string
	Offset int
	Reason string
	// Undeclared is the unknown type name, set when that is the reason.
	Undeclared string
}

func (e *UnresolvedError) Error() string {
	return fmt.Sprintf("cannot bridge %q: %s", e.Expr, e.Reason)
}

// modulePrefixes are path segments dropped in front of a type name.
var modulePrefixes = map[string]struct{}{
	"super": {}, "crate": {}, "self": {},
	"std": {}, "alloc": {}, "core": {},
	"string": {}, "vec": {}, "option": {}, "result": {}, "ffi": {},
	"os": {}, "raw": {},
}

// Classifier maps type expressions to bridged types using a declaration table.
type Classifier struct {
	table *Table
}

// NewClassifier returns a classifier resolving names against table.
func NewClassifier(table *Table) *Classifier {
	return &Classifier{table: table}
}

// Classify returns the bridged type of expr, or false when expr names a type
// that is neither built in nor declared.
func (c *Classifier) Classify(expr typeexpr.Type) (Type, bool) {
	t, err := c.Resolve(expr)
	return t, err == nil
}

// ClassifyString parses src and classifies it. The error is either a
// *typeexpr.SyntaxError or an *UnresolvedError.
func (c *Classifier) ClassifyString(src string) (Type, error) {
	expr, err := typeexpr.Parse(src)
	if err != nil {
		return nil, err
	}

	return c.Resolve(expr)
}

// Resolve is like Classify but explains failures with an *UnresolvedError.
func (c *Classifier) Resolve(expr typeexpr.Type) (Type, error) {
	switch e := expr.(type) {
	case *typeexpr.Path:
		return c.resolvePath(e)
	case *typeexpr.Ref:
		return c.resolveRef(e)
	case *typeexpr.RawPtr:
		return c.resolvePtr(e)
	case *typeexpr.Tuple:
		return c.resolveTuple(e)
	case *typeexpr.Slice:
		return nil, unresolved(e, "a slice must be borrowed (&[T] or &mut [T])")
	default:
		return nil, unresolved(expr, "unknown expression")
	}
}

func unresolved(expr typeexpr.Type, format string, args ...any) *UnresolvedError {
	return &UnresolvedError{Expr: expr.String(), Offset: expr.Pos(), Reason: fmt.Sprintf(format, args...)}
}

// baseName strips the module prefixes of a path. It returns false when a
// qualifier other than a known module prefix remains.
func baseName(p *typeexpr.Path) (string, bool) {
	segs := p.Segments
	for len(segs) > 1 {
		if _, ok := modulePrefixes[segs[0]]; !ok {
			return strings.Join(segs, "::"), false
		}

		segs = segs[1:]
	}

	return segs[0], true
}

func (c *Classifier) resolvePath(p *typeexpr.Path) (Type, error) {
	name, ok := baseName(p)
	if !ok {
		return nil, unresolved(p, "qualified path %q is not supported", name)
	}

	if k := primitive.FromIdent(name); k.IsValid() {
		if len(p.Args) != 0 {
			return nil, unresolved(p, "%s takes no type arguments", name)
		}

		return Prim(k), nil
	}

	args, err := c.resolveArgs(p)
	if err != nil {
		return nil, err
	}

	arity := func(n int) error {
		if len(args) != n {
			return unresolved(p, "%s expects %d type argument(s), got %d", name, n, len(args))
		}

		return nil
	}

	switch name {
	case "String":
		if err := arity(0); err != nil {
			return nil, err
		}

		return String{}, nil
	case "str":
		return nil, unresolved(p, "str must be borrowed (&str)")
	case "Vec":
		if err := arity(1); err != nil {
			return nil, err
		}

		return Sequence{Elem: args[0]}, nil
	case "Option":
		if err := arity(1); err != nil {
			return nil, err
		}

		return Optional{Inner: args[0]}, nil
	case "Result":
		if err := arity(2); err != nil {
			return nil, err
		}

		return Result{Ok: args[0], Err: args[1]}, nil
	}

	if len(args) != 0 {
		return nil, unresolved(p, "generic type %s is not supported", name)
	}

	if d, ok := c.table.Opaque(name); ok {
		return Opaque{Decl: d, Mode: Owned}, nil
	}

	if d, ok := c.table.Struct(name); ok {
		return Product{Decl: d}, nil
	}

	if d, ok := c.table.Enum(name); ok {
		return Sum{Decl: d}, nil
	}

	ue := unresolved(p, "type %s is not declared", name)
	ue.Undeclared = name

	return nil, ue
}

func (c *Classifier) resolveArgs(p *typeexpr.Path) ([]Type, error) {
	if len(p.Args) == 0 {
		return nil, nil
	}

	args := make([]Type, len(p.Args))

	for i, a := range p.Args {
		t, err := c.Resolve(a)
		if err != nil {
			return nil, err
		}

		args[i] = t
	}

	return args, nil
}

func (c *Classifier) resolveRef(r *typeexpr.Ref) (Type, error) {
	switch elem := r.Elem.(type) {
	case *typeexpr.Slice:
		inner, err := c.Resolve(elem.Elem)
		if err != nil {
			return nil, err
		}

		return Slice{Elem: inner, Mutable: r.Mutable}, nil
	case *typeexpr.Path:
		name, ok := baseName(elem)
		if ok && name == "str" && len(elem.Args) == 0 {
			if r.Mutable {
				return nil, unresolved(r, "&mut str is not supported")
			}

			return Str{}, nil
		}

		if d, found := c.table.Opaque(name); ok && found && len(elem.Args) == 0 {
			mode := Borrowed
			if r.Mutable {
				mode = BorrowedMut
			}

			return Opaque{Decl: d, Mode: mode}, nil
		}

		if _, declared := c.table.kinds[name]; ok && !declared && !isBuiltin(name) {
			ue := unresolved(r, "type %s is not declared", name)
			ue.Undeclared = name

			return nil, ue
		}
	}

	return nil, unresolved(r, "references are only supported to str, slices and opaque types")
}

func (c *Classifier) resolvePtr(p *typeexpr.RawPtr) (Type, error) {
	if path, ok := p.Elem.(*typeexpr.Path); ok {
		t, err := c.resolvePath(path)
		if err != nil {
			// Unknown pointees travel as untyped addresses.
			return Pointer{PointeeName: path.String(), Mutable: p.Mutable}, nil
		}

		return Pointer{Pointee: t, Mutable: p.Mutable}, nil
	}

	t, err := c.Resolve(p.Elem)
	if err != nil {
		return nil, err
	}

	return Pointer{Pointee: t, Mutable: p.Mutable}, nil
}

func (c *Classifier) resolveTuple(tu *typeexpr.Tuple) (Type, error) {
	switch len(tu.Elems) {
	case 0:
		return Null{}, nil
	case 1:
		return c.Resolve(tu.Elems[0])
	}

	elems := make([]Type, len(tu.Elems))

	for i, e := range tu.Elems {
		t, err := c.Resolve(e)
		if err != nil {
			return nil, err
		}

		elems[i] = t
	}

	return Tuple{Elems: elems}, nil
}
