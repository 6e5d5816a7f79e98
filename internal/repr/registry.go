package repr

import (
	"fmt"
	"slices"
	"strings"

	"bridgegen/internal/bridged"
	"bridgegen/internal/common"
	"bridgegen/internal/composite"
	"bridgegen/internal/errors"
)

// DeclKind is the flavour of a composite wire declaration.
type DeclKind int

const (
	DeclOption DeclKind = iota
	DeclTuple
	DeclResult
	DeclStruct
	DeclEnum
	DeclInline
)

// String returns a human-readable representation of the kind.
func (k DeclKind) String() string {
	switch k {
	case DeclOption:
		return "option"
	case DeclTuple:
		return "tuple"
	case DeclResult:
		return "result"
	case DeclStruct:
		return "struct"
	case DeclEnum:
		return "enum"
	case DeclInline:
		return "inline"
	default:
		return common.UnknownStr
	}
}

// Member is one by-value member of a wire struct or union.
type Member struct {
	Name string
	Type bridged.Type
	Wire WireType
}

// Variant is one alternative of a sum's wire declaration.
type Variant struct {
	Name string
	// Tag is the C enumerator of the variant.
	Tag string
	// Fields names the field struct of a data-bearing variant; empty otherwise.
	Fields  string
	Members []Member
	Unnamed bool
}

// Decl is a composite wire declaration.
type Decl struct {
	Kind DeclKind
	// Name is the C identifier, e.g. "__swift_bridge__$Option$Point".
	Name string
	Type bridged.Type
	// External declarations are declared by another group and never emitted.
	External bool
	// Members of option, tuple, struct and result declarations. A result
	// lists only its data-carrying variants, named "ok" and "err".
	Members  []Member
	Variants []Variant
	// Size of an inline opaque wrapper.
	Size int
	// Deps are the declarations this one embeds by value.
	Deps []string
}

// TagName is the C enum naming the variants of a result or sum declaration.
func (d *Decl) TagName() string {
	if d.Kind == DeclResult {
		return d.Name + "$Tag"
	}

	return d.Name + "Tag"
}

// FieldsName is the C union holding the payloads of a result or sum.
func (d *Decl) FieldsName() string {
	if d.Kind == DeclResult {
		return d.Name + "$Fields"
	}

	return d.Name + "Fields"
}

// HasPayload reports whether a result or sum declaration carries a union.
func (d *Decl) HasPayload() bool {
	if d.Kind == DeclResult {
		return len(d.Members) > 0
	}

	for _, v := range d.Variants {
		if v.Fields != "" {
			return true
		}
	}

	return false
}

// Member returns the member named name.
func (d *Decl) Member(name string) (Member, bool) {
	for _, m := range d.Members {
		if m.Name == name {
			return m, true
		}
	}

	return Member{}, false
}

// Layout describes the C layout of d. Declarations with the same name and
// layout are interchangeable between groups.
func (d *Decl) Layout() string {
	var b strings.Builder

	fmt.Fprintf(&b, "%s %d {", d.Kind, d.Size)
	writeMembers(&b, d.Members)

	for _, v := range d.Variants {
		fmt.Fprintf(&b, " %s(", v.Name)
		writeMembers(&b, v.Members)
		b.WriteString(" )")
	}

	b.WriteString(" }")

	return b.String()
}

func writeMembers(b *strings.Builder, members []Member) {
	for _, m := range members {
		fmt.Fprintf(b, " %s %s;", m.Wire.C, m.Name)
	}
}

// ConflictError reports two different types that synthesize the same wire
// name.
type ConflictError struct {
	Name     string
	Existing string
	New      string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("wire name %s is synthesized by both %s and %s", e.Name, e.Existing, e.New)
}

// Registry records composite wire declarations and sequence policies, each
// exactly once.
type Registry struct {
	decls     map[string]*Decl
	sequences map[string]composite.SequencePolicy
	conflicts []*ConflictError
}

func NewRegistry() *Registry {
	return &Registry{
		decls:     make(map[string]*Decl),
		sequences: make(map[string]composite.SequencePolicy),
	}
}

// reserve returns the declaration registered under d.Name, registering d when
// the name is free. The second result is false when the name already
// existed. A name taken by a different type records a conflict.
func (r *Registry) reserve(d *Decl) (*Decl, bool) {
	existing, ok := r.decls[d.Name]
	if !ok {
		r.decls[d.Name] = d
		return d, true
	}

	if !bridged.Equal(existing.Type, d.Type) {
		r.conflicts = append(r.conflicts, &ConflictError{
			Name:     d.Name,
			Existing: existing.Type.String(),
			New:      d.Type.String(),
		})
	}

	return existing, false
}

func (r *Registry) addSequence(p composite.SequencePolicy) {
	if _, ok := r.sequences[p.Segment]; !ok {
		r.sequences[p.Segment] = p
	}
}

// Lookup returns the declaration named name.
func (r *Registry) Lookup(name string) (*Decl, bool) {
	d, ok := r.decls[name]
	return d, ok
}

// Len returns the number of registered declarations.
func (r *Registry) Len() int { return len(r.decls) }

// Decls returns every registered declaration, external ones included,
// sorted by name.
func (r *Registry) Decls() []*Decl {
	out := make([]*Decl, 0, len(r.decls))
	for _, name := range common.SortedKeys(r.decls) {
		out = append(out, r.decls[name])
	}

	return out
}

// Conflicts returns every wire name collision seen so far.
func (r *Registry) Conflicts() []*ConflictError { return r.conflicts }

// Sequences returns the distinct sequence policies sorted by segment.
func (r *Registry) Sequences() []composite.SequencePolicy {
	out := make([]composite.SequencePolicy, 0, len(r.sequences))
	for _, seg := range common.SortedKeys(r.sequences) {
		out = append(out, r.sequences[seg])
	}

	return out
}

// Ordered returns the declarations to emit in dependency order, ties broken
// by name. External declarations take part in ordering but are left out.
func (r *Registry) Ordered() ([]*Decl, error) {
	names := common.SortedKeys(r.decls)

	index := make(map[string]int, len(names))
	for i, n := range names {
		index[n] = i
	}

	order, err := topoSort(len(names), func(i int) []int {
		deps := r.decls[names[i]].Deps

		idx := make([]int, 0, len(deps))
		for _, dep := range deps {
			if j, ok := index[dep]; ok && j != i {
				idx = append(idx, j)
			}
		}

		return idx
	})
	if err != nil {
		var cycle *CycleError
		if errors.As(err, &cycle) {
			for _, n := range cycle.Nodes {
				cycle.Names = append(cycle.Names, names[n])
			}
		}

		return nil, err
	}

	out := make([]*Decl, 0, len(order))

	for _, i := range order {
		if d := r.decls[names[i]]; !d.External {
			out = append(out, d)
		}
	}

	return out, nil
}

// SelfContained returns the names of declarations that embed themselves by
// value, which C cannot lay out.
func (r *Registry) SelfContained() []string {
	var out []string

	for _, name := range common.SortedKeys(r.decls) {
		if slices.Contains(r.decls[name].Deps, name) {
			out = append(out, name)
		}
	}

	return out
}
