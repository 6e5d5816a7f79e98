package repr

import (
	"fmt"

	"bridgegen/internal/bridged"
	"bridgegen/internal/common"
	"bridgegen/internal/composite"
	"bridgegen/internal/naming"
	"bridgegen/primitive"
)

// Ownership tags what a receiver may do with a wire value.
type Ownership int

const (
	// Copied values carry no heap ownership.
	Copied Ownership = iota
	// Borrowed values must not be freed or retained by the receiver.
	Borrowed
	// BorrowedMut values may be mutated but not freed.
	BorrowedMut
	// Moved values transfer ownership to the receiver.
	Moved
)

// String returns a human-readable representation of the ownership.
func (o Ownership) String() string {
	switch o {
	case Copied:
		return "copied"
	case Borrowed:
		return "borrowed"
	case BorrowedMut:
		return "borrowed_mut"
	case Moved:
		return "moved"
	default:
		return common.UnknownStr
	}
}

// WireType is the spelling of one wire value in every artifact.
type WireType struct {
	C     string
	Rust  string
	Swift string
	// Ownership is recorded once here; conversions never re-derive it.
	Ownership Ownership
	// Decl names the composite declaration embedded by value, if any.
	Decl string
	// Nullable marks pointers whose null value carries meaning.
	Nullable bool
}

// Synthesizer derives wire and native representations and records every
// composite declaration it synthesizes in its registry.
type Synthesizer struct {
	namer    naming.Namer
	runtime  string
	registry *Registry
}

// NewSynthesizer returns a synthesizer; an empty runtime path selects
// naming.DefaultRuntimePath.
func NewSynthesizer(namer naming.Namer, runtimePath string, registry *Registry) *Synthesizer {
	if runtimePath == "" {
		runtimePath = naming.DefaultRuntimePath
	}

	return &Synthesizer{namer: namer, runtime: runtimePath, registry: registry}
}

func (s *Synthesizer) Namer() naming.Namer { return s.namer }
func (s *Synthesizer) Runtime() string     { return s.runtime }
func (s *Synthesizer) Registry() *Registry { return s.registry }

// Wire returns the wire representation of t.
func (s *Synthesizer) Wire(t bridged.Type) WireType {
	return bridged.Visit[WireType](t, wireVisitor{s})
}

func (s *Synthesizer) rt(path string) string {
	return s.runtime + "::" + path
}

func structWire(name string, own Ownership) WireType {
	return WireType{C: "struct " + name, Rust: naming.RustIdent(name), Swift: name, Ownership: own, Decl: name}
}

func primitiveWire(k primitive.KindEnum) WireType {
	sp := k.Spell()
	return WireType{C: sp.C, Rust: sp.Systems, Swift: sp.Managed}
}

func pointerWire(rust string, own Ownership) WireType {
	return WireType{C: "void*", Rust: rust, Swift: "UnsafeMutableRawPointer", Ownership: own}
}

func nullable(w WireType) WireType {
	w.Nullable = true
	if w.C == "void*" {
		w.Swift += "?"
	}

	return w
}

type wireVisitor struct {
	s *Synthesizer
}

func (v wireVisitor) VisitPrimitive(t bridged.Primitive) WireType { return primitiveWire(t.Of) }

func (v wireVisitor) VisitNull(bridged.Null) WireType {
	return WireType{C: "void", Rust: "()", Swift: "Void"}
}

func (v wireVisitor) VisitStr(bridged.Str) WireType {
	return WireType{C: "struct " + naming.RustStr, Rust: v.s.rt("string::RustStr"), Swift: naming.RustStr, Ownership: Borrowed}
}

func (v wireVisitor) VisitString(bridged.String) WireType {
	return pointerWire("*mut "+v.s.rt("string::RustString"), Moved)
}

func (v wireVisitor) VisitSlice(t bridged.Slice) WireType {
	own := Borrowed
	if t.Mutable {
		own = BorrowedMut
	}

	return WireType{
		C:         "struct " + naming.FfiSlice,
		Rust:      fmt.Sprintf("%s<%s>", v.s.rt("FfiSlice"), v.s.NativeSystems(t.Elem)),
		Swift:     naming.FfiSlice,
		Ownership: own,
	}
}

func (v wireVisitor) VisitSequence(t bridged.Sequence) WireType {
	policy := composite.NewSequencePolicy(t.Elem)
	v.s.registry.addSequence(policy)

	if policy.Flow == composite.ElementByValue {
		// get and pop hand out Option<Elem>.
		v.s.Wire(bridged.Optional{Inner: t.Elem})
	}

	return pointerWire("*mut Vec<"+v.s.NativeSystems(t.Elem)+">", Moved)
}

func (v wireVisitor) VisitOptional(t bridged.Optional) WireType {
	strategy, _ := composite.SelectOptional(t.Inner)

	switch strategy {
	case composite.OptionalTagOnly:
		return primitiveWire(primitive.KindBool)
	case composite.OptionalSentinelReuse:
		return nullable(v.s.Wire(t.Inner))
	}

	inner := v.s.Wire(t.Inner)

	if p, ok := t.Inner.(bridged.Primitive); ok {
		mangled := p.Of.Spell().Mangled
		name := naming.OptionPrimitive(mangled)

		return WireType{C: "struct " + name, Rust: v.s.rt("option::Option" + mangled), Swift: name}
	}

	name := v.s.namer.Option(bridged.Mangle(t.Inner))
	v.s.registry.reserve(&Decl{
		Kind: DeclOption,
		Name: name,
		Type: t,
		Members: []Member{
			{Name: "is_some", Type: bridged.Prim(primitive.KindBool), Wire: primitiveWire(primitive.KindBool)},
			{Name: "val", Type: t.Inner, Wire: inner},
		},
		Deps: depsOf(inner),
	})

	return structWire(name, inner.Ownership)
}

func (v wireVisitor) VisitResult(t bridged.Result) WireType {
	strategy, _ := composite.SelectResult(t.Ok, t.Err)

	switch strategy {
	case composite.ResultBoolOnly:
		return primitiveWire(primitive.KindBool)
	case composite.ResultPtrAndPtr:
		v.s.Wire(t.Ok)
		v.s.Wire(t.Err)

		return WireType{
			C:         "struct " + naming.ResultPtrAndPtr,
			Rust:      v.s.rt("result::ResultPtrAndPtr"),
			Swift:     naming.ResultPtrAndPtr,
			Ownership: Moved,
		}
	case composite.ResultNullablePointer:
		if composite.NullMeansOk(t) {
			return nullable(v.s.Wire(t.Err))
		}

		return nullable(v.s.Wire(t.Ok))
	}

	name := v.s.namer.Result(bridged.Mangle(t.Ok), bridged.Mangle(t.Err))

	var (
		members []Member
		deps    []string
		own     = Copied
	)

	for _, side := range []struct {
		name string
		t    bridged.Type
	}{{"ok", t.Ok}, {"err", t.Err}} {
		if bridged.ShapeOf(side.t) == bridged.ShapeZeroByte {
			continue
		}

		w := v.s.Wire(side.t)
		members = append(members, Member{Name: side.name, Type: side.t, Wire: w})
		deps = append(deps, depsOf(w)...)
		own = max(own, w.Ownership)
	}

	v.s.registry.reserve(&Decl{Kind: DeclResult, Name: name, Type: t, Members: members, Deps: deps})

	return structWire(name, own)
}

func (v wireVisitor) VisitPointer(t bridged.Pointer) WireType {
	qual, mut, swiftMut := "const ", "*const ", ""
	if t.Mutable {
		qual, mut, swiftMut = "", "*mut ", "Mutable"
	}

	if p, ok := t.Pointee.(bridged.Primitive); ok {
		sp := p.Of.Spell()

		return WireType{
			C:     qual + sp.C + "*",
			Rust:  mut + sp.Systems,
			Swift: fmt.Sprintf("Unsafe%sPointer<%s>", swiftMut, sp.Managed),
		}
	}

	rust := mut + "std::ffi::c_void"
	if t.Pointee != nil {
		rust = mut + v.s.NativeSystems(t.Pointee)
	}

	return WireType{
		C:     qual + "void*",
		Rust:  rust,
		Swift: fmt.Sprintf("Unsafe%sRawPointer", swiftMut),
	}
}

func (v wireVisitor) VisitTuple(t bridged.Tuple) WireType {
	name := v.s.namer.Tuple(bridged.MangleElems(t.Elems))

	members := make([]Member, len(t.Elems))
	own := Copied

	var deps []string

	for i, e := range t.Elems {
		w := v.s.Wire(e)
		members[i] = Member{Name: fmt.Sprintf("_%d", i), Type: e, Wire: w}
		deps = append(deps, depsOf(w)...)
		own = max(own, w.Ownership)
	}

	v.s.registry.reserve(&Decl{Kind: DeclTuple, Name: name, Type: t, Members: members, Deps: deps})

	return structWire(name, own)
}

func (v wireVisitor) VisitOpaque(t bridged.Opaque) WireType {
	own := Moved

	switch t.Mode {
	case bridged.Borrowed:
		own = Borrowed
	case bridged.BorrowedMut:
		own = BorrowedMut
	}

	if t.Inline() {
		name := v.s.namer.Shared(t.Name())
		v.s.registry.reserve(&Decl{
			Kind:     DeclInline,
			Name:     name,
			Type:     t.Owned(),
			External: t.Decl.AlreadyDeclared,
			Size:     t.Decl.InlineSize,
		})

		return structWire(name, Copied)
	}

	if t.Side() == bridged.SideManaged {
		return pointerWire("*mut std::ffi::c_void", own)
	}

	if t.Mode == bridged.Borrowed {
		return pointerWire("*const super::"+t.Name(), own)
	}

	return pointerWire("*mut super::"+t.Name(), own)
}

func (v wireVisitor) VisitProduct(t bridged.Product) WireType {
	name := v.s.namer.Shared(t.Decl.Name)

	d, fresh := v.s.registry.reserve(&Decl{Kind: DeclStruct, Name: name, Type: t, External: t.Decl.AlreadyDeclared})
	if fresh {
		d.Members, d.Deps = v.s.fieldMembers(t.Decl.Fields, t.Decl.Unnamed)
	}

	return structWire(name, membersOwnership(d.Members))
}

func (v wireVisitor) VisitSum(t bridged.Sum) WireType {
	name := v.s.namer.Shared(t.Decl.Name)

	d, fresh := v.s.registry.reserve(&Decl{Kind: DeclEnum, Name: name, Type: t, External: t.Decl.AlreadyDeclared})
	if fresh {
		for i := range t.Decl.Variants {
			vd := &t.Decl.Variants[i]
			variant := Variant{Name: vd.Name, Tag: name + "$" + vd.Name, Unnamed: vd.Unnamed}

			if vd.HasData() {
				var deps []string

				variant.Fields = name + "$FieldOf" + vd.Name
				variant.Members, deps = v.s.fieldMembers(vd.Fields, vd.Unnamed)
				d.Deps = append(d.Deps, deps...)
			}

			d.Variants = append(d.Variants, variant)
		}
	}

	own := Copied
	for _, variant := range d.Variants {
		own = max(own, membersOwnership(variant.Members))
	}

	return structWire(name, own)
}

func (s *Synthesizer) fieldMembers(fields []bridged.FieldDecl, unnamed bool) ([]Member, []string) {
	members := make([]Member, len(fields))

	var deps []string

	for i, f := range fields {
		name := f.Name
		if unnamed || name == "" {
			name = fmt.Sprintf("_%d", i)
		}

		w := s.Wire(f.Type)
		members[i] = Member{Name: name, Type: f.Type, Wire: w}
		deps = append(deps, depsOf(w)...)
	}

	return members, deps
}

func membersOwnership(members []Member) Ownership {
	own := Copied
	for _, m := range members {
		own = max(own, m.Wire.Ownership)
	}

	return own
}

func depsOf(w WireType) []string {
	if w.Decl == "" {
		return nil
	}

	return []string{w.Decl}
}
