package convert

import (
	"strings"

	"bridgegen/internal/common"
	"bridgegen/internal/repr"
)

// Effect is a lifecycle action a conversion performs on the heap.
type Effect int

const (
	// Allocate boxes a value on the systems heap.
	Allocate Effect = iota
	// Free reclaims a boxed value.
	Free
	// Retain adds a managed reference count.
	Retain
	// Release drops a managed reference count.
	Release
	// Borrow hands out a pointer the receiver must not free.
	Borrow
)

// String returns a human-readable representation of the effect.
func (e Effect) String() string {
	switch e {
	case Allocate:
		return "allocate"
	case Free:
		return "free"
	case Retain:
		return "retain"
	case Release:
		return "release"
	case Borrow:
		return "borrow"
	default:
		return common.UnknownStr
	}
}

// Scope wraps the code that uses a converted value. It is used where the wire
// value is only valid inside a managed-side closure, e.g.
// x.toRustStr({ xAsRustStr in ... }).
type Scope struct {
	Open  string
	Close string
}

// Wrap places body inside the scope.
func (s *Scope) Wrap(body string) string {
	if s == nil {
		return body
	}

	return s.Open + "\n" + body + "\n" + s.Close
}

// Conversion is one generated expression plus what it does.
type Conversion struct {
	Expr      string
	Effects   []Effect
	Ownership repr.Ownership
	// Scope is non-nil when Expr is only valid inside it.
	Scope *Scope
}

// Has reports whether the conversion performs e.
func (c Conversion) Has(e Effect) bool {
	for _, have := range c.Effects {
		if have == e {
			return true
		}
	}

	return false
}

// Rule converts one bridged type in all four directions. src is the
// expression holding the value to convert.
type Rule interface {
	SystemsToWire(src string) Conversion
	WireToSystems(src string) Conversion
	WireToManaged(src string) Conversion
	ManagedToWire(src string) Conversion
}

type direction func(src string) Conversion

// rule assembles a Rule from four directions.
type rule struct {
	toWire      direction
	fromWire    direction
	toManaged   direction
	fromManaged direction
}

func (r rule) SystemsToWire(src string) Conversion { return r.toWire(src) }
func (r rule) WireToSystems(src string) Conversion { return r.fromWire(src) }
func (r rule) WireToManaged(src string) Conversion { return r.toManaged(src) }
func (r rule) ManagedToWire(src string) Conversion { return r.fromManaged(src) }

func conv(expr string, own repr.Ownership, effects ...Effect) Conversion {
	return Conversion{Expr: expr, Ownership: own, Effects: effects}
}

func identity(own repr.Ownership) direction {
	return func(src string) Conversion { return conv(src, own) }
}

// merge combines the effects of parts into c; c keeps its own expression.
func merge(c Conversion, parts ...Conversion) Conversion {
	for _, p := range parts {
		for _, e := range p.Effects {
			if !c.Has(e) {
				c.Effects = append(c.Effects, e)
			}
		}
	}

	return c
}

// bindingName derives a readable binding from a source expression: "arg"
// stays "arg", "self.field" becomes "field".
func bindingName(src string) string {
	if i := strings.LastIndexAny(src, ".!"); i >= 0 && i < len(src)-1 {
		src = src[i+1:]
	}

	var b strings.Builder

	for _, r := range src {
		if r == '_' || r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}

	if b.Len() == 0 {
		return "val"
	}

	return b.String()
}
