package derive

import (
	"fmt"
	"strings"

	"bridgegen/internal/bridged"
	"bridgegen/internal/composite"
	"bridgegen/internal/naming"
	"bridgegen/internal/opaque"
	"bridgegen/internal/repr"
)

type rustMember struct {
	Name string
	Type string
}

// rustWire is one #[repr(C)] item of the wire layer.
type rustWire struct {
	// Kind is "struct", "union", "enum" or "inline".
	Kind     string
	Ident    string
	Members  []rustMember
	Variants []string
	Size     int
	Native   string
}

type rustVariant struct {
	Name    string
	Unnamed bool
	Fields  []rustMember
}

// rustShared is a declared struct or enum with its conversion methods.
type rustShared struct {
	Name     string
	Wire     string
	Clone    bool
	Enum     bool
	Unnamed  bool
	Fields   []rustMember
	Variants []rustVariant
	IntoFfi  string
	IntoRust string
}

// rustFn is a function with a body, exported or wrapping an import.
type rustFn struct {
	// Symbol is the export name; empty for plain wrappers.
	Symbol string
	Ident  string
	// Receiver is "&self", "&mut self", "self" or empty.
	Receiver string
	Params   []wireParam
	Return   string
	Body     string
}

type rustExtern struct {
	Symbol string
	Ident  string
	Params []wireParam
	Return string
}

// rustManaged is the wrapper of a managed-side opaque type.
type rustManaged struct {
	Name    string
	Release string
	Methods []rustFn
}

type systemsData struct {
	Generated string
	Module    string
	Runtime   string
	Imports   []string
	Wire      []rustWire
	Shared    []rustShared
	Managed   []rustManaged
	Wrappers  []rustFn
	Exports   []rustFn
	Externs   []rustExtern
}

func (s *session) systemsFile() *systemsData {
	data := &systemsData{Generated: generatedHeader, Module: s.file.Module, Runtime: s.synth.Runtime()}

	data.Imports = append(s.externalImports(), s.linked...)

	// Exports first: converting signatures may register wire declarations.
	for _, o := range s.opaqueSources {
		if !emitted(o.decl) {
			continue
		}

		if o.decl.Side == bridged.SideManaged {
			data.Managed = append(data.Managed, s.rustManagedType(o.decl))
			data.Externs = append(data.Externs, s.rustImports(s.opaques.EntryPoints(o.decl.Name))...)

			continue
		}

		for _, ep := range s.opaques.EntryPoints(o.decl.Name) {
			data.Exports = append(data.Exports, s.rustEntryPoint(o.decl, ep))
		}
	}

	for _, p := range s.groupSequences() {
		for _, ep := range s.opaques.VecEntryPoints(p) {
			data.Exports = append(data.Exports, s.rustVecOp(p, ep))
		}
	}

	for _, fn := range s.functions {
		switch {
		case fn.sig.Side == bridged.SideManaged:
			data.Externs = append(data.Externs, s.rustImport(s.namer().Function(fn.sig.Name), s.functionParams(fn.sig), s.synth.Wire(fn.sig.Return)))
			data.Wrappers = append(data.Wrappers, s.rustManagedCall(nil, fn.sig))
		case fn.sig.Async:
			data.Exports = append(data.Exports, s.rustAsync(fn.sig))
		default:
			data.Exports = append(data.Exports, s.rustFunction(fn.sig))
		}
	}

	for _, d := range s.structs {
		if !d.AlreadyDeclared {
			data.Shared = append(data.Shared, s.rustStruct(d))
		}
	}

	for _, d := range s.enums {
		if !d.AlreadyDeclared {
			data.Shared = append(data.Shared, s.rustEnum(d))
		}
	}

	ordered, _ := s.registry.Ordered()
	for _, d := range ordered {
		data.Wire = append(data.Wire, rustWires(d)...)
	}

	return data
}

// externalImports lists the wire types another group declares.
func (s *session) externalImports() []string {
	var out []string

	for _, o := range s.opaqueSources {
		if o.decl.AlreadyDeclared && o.decl.InlineSize > 0 {
			out = append(out, naming.RustIdent(s.namer().Shared(o.decl.Name)))
		}
	}

	for _, d := range s.structs {
		if d.AlreadyDeclared {
			out = append(out, naming.RustIdent(s.namer().Shared(d.Name)))
		}
	}

	for _, d := range s.enums {
		if d.AlreadyDeclared {
			out = append(out, naming.RustIdent(s.namer().Shared(d.Name)))
		}
	}

	return out
}

func rustMembers(members []repr.Member) []rustMember {
	if len(members) == 0 {
		return []rustMember{{Name: "_private", Type: "u8"}}
	}

	out := make([]rustMember, len(members))
	for i, m := range members {
		out[i] = rustMember{Name: m.Name, Type: m.Wire.Rust}
	}

	return out
}

func rustWires(d *repr.Decl) []rustWire {
	ident := naming.RustIdent(d.Name)

	switch d.Kind {
	case repr.DeclInline:
		o, _ := d.Type.(bridged.Opaque)
		return []rustWire{{Kind: "inline", Ident: ident, Size: d.Size, Native: "super::" + o.Name()}}
	case repr.DeclResult:
		return []rustWire{
			{Kind: "enum", Ident: naming.RustIdent(d.TagName()), Variants: []string{"Ok", "Err"}},
			{Kind: "union", Ident: naming.RustIdent(d.FieldsName()), Members: rustMembers(d.Members)},
			{Kind: "struct", Ident: ident, Members: []rustMember{
				{Name: "tag", Type: naming.RustIdent(d.TagName())},
				{Name: "payload", Type: naming.RustIdent(d.FieldsName())},
			}},
		}
	case repr.DeclEnum:
		var (
			out      []rustWire
			variants []string
			union    []rustMember
		)

		for _, v := range d.Variants {
			variants = append(variants, v.Name)

			if v.Fields != "" {
				out = append(out, rustWire{Kind: "struct", Ident: naming.RustIdent(v.Fields), Members: rustMembers(v.Members)})
				union = append(union, rustMember{Name: v.Name, Type: naming.RustIdent(v.Fields)})
			}
		}

		out = append(out, rustWire{Kind: "enum", Ident: naming.RustIdent(d.TagName()), Variants: variants})
		main := rustWire{Kind: "struct", Ident: ident, Members: []rustMember{{Name: "tag", Type: naming.RustIdent(d.TagName())}}}

		if d.HasPayload() {
			out = append(out, rustWire{Kind: "union", Ident: naming.RustIdent(d.FieldsName()), Members: union})
			main.Members = append(main.Members, rustMember{Name: "payload", Type: naming.RustIdent(d.FieldsName())})
		}

		return append(out, main)
	default:
		return []rustWire{{Kind: "struct", Ident: ident, Members: rustMembers(d.Members)}}
	}
}

func fieldName(f bridged.FieldDecl, i int, unnamed bool) string {
	if unnamed || f.Name == "" {
		return fmt.Sprintf("_%d", i)
	}

	return f.Name
}

func (s *session) rustStruct(d *bridged.StructDecl) rustShared {
	s.gen.ResetNames()

	t := bridged.Product{Decl: d}
	wire := s.synth.Wire(t).Rust
	sh := rustShared{Name: d.Name, Wire: wire, Clone: cloneable(t), Unnamed: d.Unnamed}

	toWire := make([]string, len(d.Fields))
	fromWire := make([]string, len(d.Fields))

	for i, f := range d.Fields {
		member := fieldName(f, i, d.Unnamed)
		access := "val." + member
		if d.Unnamed {
			access = fmt.Sprintf("val.%d", i)
		}

		sh.Fields = append(sh.Fields, rustMember{Name: member, Type: s.synth.NativeSystems(f.Type)})

		r := s.rule(f.Type)
		toWire[i] = member + ": " + r.SystemsToWire(access).Expr

		fromWire[i] = r.WireToSystems("val." + member).Expr
		if !d.Unnamed {
			fromWire[i] = member + ": " + fromWire[i]
		}
	}

	switch {
	case len(d.Fields) == 0:
		sh.IntoFfi = wire + " { _private: 123 }"
	default:
		sh.IntoFfi = fmt.Sprintf("{ let val = self; %s { %s } }", wire, strings.Join(toWire, ", "))
	}

	switch {
	case d.Unnamed:
		sh.IntoRust = fmt.Sprintf("{ let val = self; %s(%s) }", d.Name, strings.Join(fromWire, ", "))
	case len(d.Fields) == 0:
		sh.IntoRust = d.Name + " {}"
	default:
		sh.IntoRust = fmt.Sprintf("{ let val = self; %s { %s } }", d.Name, strings.Join(fromWire, ", "))
	}

	return sh
}

func (s *session) rustEnum(d *bridged.EnumDecl) rustShared {
	s.gen.ResetNames()

	t := bridged.Sum{Decl: d}
	w := s.synth.Wire(t)
	wd, _ := s.registry.Lookup(w.Decl)
	tag := naming.RustIdent(wd.TagName())
	fields := naming.RustIdent(wd.FieldsName())

	sh := rustShared{Name: d.Name, Wire: w.Rust, Clone: cloneable(t), Enum: true}

	var toWire, fromWire []string

	for i := range d.Variants {
		v := &d.Variants[i]
		wv := wd.Variants[i]
		rv := rustVariant{Name: v.Name, Unnamed: v.Unnamed}

		var (
			bindings []string
			members  []string
			values   []string
		)

		for j, f := range v.Fields {
			member := fieldName(f, j, v.Unnamed)
			binding := member

			if v.Unnamed {
				binding = fmt.Sprintf("field%d", j)
			}

			rv.Fields = append(rv.Fields, rustMember{Name: member, Type: s.synth.NativeSystems(f.Type)})
			bindings = append(bindings, binding)

			r := s.rule(f.Type)
			members = append(members, member+": "+r.SystemsToWire(binding).Expr)

			value := r.WireToSystems("val." + member).Expr
			if !v.Unnamed {
				value = member + ": " + value
			}

			values = append(values, value)
		}

		sh.Variants = append(sh.Variants, rv)

		pattern := d.Name + "::" + v.Name
		build := d.Name + "::" + v.Name

		switch {
		case !v.HasData():
		case v.Unnamed:
			pattern += "(" + strings.Join(bindings, ", ") + ")"
			build += "(" + strings.Join(values, ", ") + ")"
		default:
			pattern += " { " + strings.Join(bindings, ", ") + " }"
			build += " { " + strings.Join(values, ", ") + " }"
		}

		payload := ""

		switch {
		case wv.Fields != "":
			payload = fmt.Sprintf(", payload: %s { %s: %s { %s } }",
				fields, v.Name, naming.RustIdent(wv.Fields), strings.Join(members, ", "))
		case wd.HasPayload():
			payload = ", payload: unsafe { std::mem::zeroed() }"
		}

		toWire = append(toWire, fmt.Sprintf("%s => %s { tag: %s::%s%s }", pattern, w.Rust, tag, v.Name, payload))

		if v.HasData() {
			fromWire = append(fromWire, fmt.Sprintf("%s::%s => { let val = unsafe { self.payload.%s }; %s }", tag, v.Name, v.Name, build))
		} else {
			fromWire = append(fromWire, fmt.Sprintf("%s::%s => %s", tag, v.Name, build))
		}
	}

	sh.IntoFfi = "match self {\n" + joinArms(toWire) + "}"
	sh.IntoRust = "match self.tag {\n" + joinArms(fromWire) + "}"

	return sh
}

func joinArms(arms []string) string {
	var b strings.Builder
	for _, a := range arms {
		b.WriteString("    " + a + ",\n")
	}

	return b.String()
}

// rustArgs converts wire parameters to systems values.
func (s *session) rustArgs(params []bridged.Param) []string {
	out := make([]string, len(params))
	for i, p := range params {
		out[i] = s.rule(p.Type).WireToSystems(p.Name).Expr
	}

	return out
}

func (s *session) rustFunction(sig *bridged.Signature) rustFn {
	s.gen.ResetNames()

	name := s.namer().Function(sig.Name)
	call := fmt.Sprintf("super::%s(%s)", systemsName(sig), strings.Join(s.rustArgs(sig.Params), ", "))
	ret := s.synth.Wire(sig.Return)

	return rustFn{
		Symbol: name,
		Ident:  naming.RustIdent(name),
		Params: rustParams(s.functionParams(sig)),
		Return: wireReturn(ret, rustSpelling),
		Body:   s.rule(sig.Return).SystemsToWire(call).Expr,
	}
}

func rustSpelling(w repr.WireType) string { return w.Rust }

func (s *session) rustAsync(sig *bridged.Signature) rustFn {
	s.gen.ResetNames()

	name := s.namer().Function(sig.Name)
	rt := s.synth.Runtime() + "::async_support"
	ret := s.synth.Wire(sig.Return)

	callback := "extern \"C\" fn(*mut std::ffi::c_void)"
	complete := "(callback)(callback_wrapper)"

	if ret.C != "void" {
		callback = fmt.Sprintf("extern \"C\" fn(*mut std::ffi::c_void, %s)", ret.Rust)
		complete = fmt.Sprintf("(callback)(callback_wrapper, %s)", s.rule(sig.Return).SystemsToWire("val").Expr)
	}

	params := append([]wireParam{
		{Name: "callback_wrapper", Type: "*mut std::ffi::c_void"},
		{Name: "callback", Type: callback},
	}, rustParams(s.functionParams(sig))...)

	var body strings.Builder

	fmt.Fprintf(&body, "let callback_wrapper = %s::SwiftCallbackWrapper(callback_wrapper);\n", rt)
	fmt.Fprintf(&body, "let fut = super::%s(%s);\n", systemsName(sig), strings.Join(s.rustArgs(sig.Params), ", "))
	body.WriteString("let task = async move {\n")
	body.WriteString("    let val = fut.await;\n")
	body.WriteString("    let callback_wrapper = callback_wrapper.0;\n")
	fmt.Fprintf(&body, "    %s;\n", complete)
	body.WriteString("};\n")
	fmt.Fprintf(&body, "%s::spawn_task(Box::pin(task))", rt)

	return rustFn{
		Symbol: name,
		Ident:  naming.RustIdent(name),
		Params: params,
		Body:   body.String(),
	}
}

// rustEntryPoint renders an entry point defined by a systems-side type.
func (s *session) rustEntryPoint(d *bridged.OpaqueDecl, ep opaque.EntryPoint) rustFn {
	s.gen.ResetNames()

	fn := rustFn{
		Symbol: ep.Name,
		Ident:  naming.RustIdent(ep.Name),
		Params: rustParams(ep.Params),
		Return: wireReturn(ep.Return, rustSpelling),
	}

	switch ep.Kind {
	case opaque.EntryFree:
		fn.Body = "drop(unsafe { Box::from_raw(this) })"
	case opaque.EntryPartialEq:
		fn.Body = "unsafe { &*lhs == &*rhs }"
	case opaque.EntryHash:
		fn.Body = "use std::hash::{Hash, Hasher};\n" +
			"let mut hasher = std::collections::hash_map::DefaultHasher::new();\n" +
			"unsafe { &*this }.hash(&mut hasher);\n" +
			"hasher.finish()"
	case opaque.EntryMethod:
		sig := ep.Method
		args := strings.Join(s.rustArgs(sig.Params), ", ")

		var call string
		if sig.Receiver == bridged.ReceiverNone {
			call = fmt.Sprintf("super::%s::%s(%s)", d.Name, systemsName(sig), args)
		} else {
			this := s.rule(receiverType(d, sig.Receiver)).WireToSystems("this").Expr
			call = fmt.Sprintf("(%s).%s(%s)", this, systemsName(sig), args)
		}

		fn.Body = s.rule(sig.Return).SystemsToWire(call).Expr
	}

	return fn
}

func (s *session) rustVecOp(p composite.SequencePolicy, ep opaque.EntryPoint) rustFn {
	s.gen.ResetNames()

	fn := rustFn{
		Symbol: ep.Name,
		Ident:  naming.RustIdent(ep.Name),
		Params: rustParams(ep.Params),
		Return: wireReturn(ep.Return, rustSpelling),
	}

	view := func(mode bridged.RefMode, src string) string {
		if o, ok := p.Elem.(bridged.Opaque); ok && p.Flow == composite.ElementByPointer {
			return s.rule(bridged.Optional{Inner: bridged.Opaque{Decl: o.Decl, Mode: mode}}).SystemsToWire(src).Expr
		}

		return s.rule(bridged.Optional{Inner: p.Elem}).SystemsToWire(src + ".cloned()").Expr
	}

	switch ep.Op {
	case "new":
		fn.Body = "Box::into_raw(Box::new(Vec::new()))"
	case "drop":
		fn.Body = "drop(unsafe { Box::from_raw(vec) })"
	case "len":
		fn.Body = "unsafe { &*vec }.len()"
	case "get":
		fn.Body = view(bridged.Borrowed, "unsafe { &*vec }.get(index)")
	case "get_mut":
		if p.Flow == composite.ElementByPointer {
			fn.Body = view(bridged.BorrowedMut, "unsafe { &mut *vec }.get_mut(index)")
		} else {
			fn.Body = view(bridged.Borrowed, "unsafe { &*vec }.get(index)")
		}
	case "push":
		fn.Body = fmt.Sprintf("unsafe { &mut *vec }.push(%s)", s.rule(p.Elem).WireToSystems("val").Expr)
	case "pop":
		fn.Body = s.rule(bridged.Optional{Inner: p.Elem}).SystemsToWire("unsafe { &mut *vec }.pop()").Expr
	case "as_ptr":
		fn.Body = "unsafe { &*vec }.as_ptr() as " + ep.Return.Rust
	}

	return fn
}

func (s *session) rustImport(symbol string, params []opaque.Param, ret repr.WireType) rustExtern {
	return rustExtern{
		Symbol: symbol,
		Ident:  naming.RustIdent(symbol),
		Params: rustParams(params),
		Return: wireReturn(ret, rustSpelling),
	}
}

func (s *session) rustImports(eps []opaque.EntryPoint) []rustExtern {
	out := make([]rustExtern, len(eps))
	for i, ep := range eps {
		out[i] = s.rustImport(ep.Name, ep.Params, ep.Return)
	}

	return out
}

func (s *session) rustManagedType(d *bridged.OpaqueDecl) rustManaged {
	m := rustManaged{Name: d.Name, Release: naming.RustIdent(s.namer().Free(d.Name))}

	for _, sig := range d.Methods {
		m.Methods = append(m.Methods, s.rustManagedCall(d, sig))
	}

	return m
}

// rustManagedCall wraps an entry point the managed side defines. d is nil
// for free functions.
func (s *session) rustManagedCall(d *bridged.OpaqueDecl, sig *bridged.Signature) rustFn {
	s.gen.ResetNames()

	symbol := s.namer().Function(sig.Name)
	if d != nil {
		symbol = s.namer().Method(d.Name, sig.Name)
	}

	fn := rustFn{Ident: systemsName(sig)}

	var args []string

	if d != nil && sig.Receiver != bridged.ReceiverNone {
		fn.Receiver = sig.Receiver.String()
		args = append(args, s.rule(receiverType(d, sig.Receiver)).SystemsToWire("self").Expr)
	}

	for _, p := range sig.Params {
		fn.Params = append(fn.Params, wireParam{Name: p.Name, Type: s.synth.NativeSystems(p.Type)})
		args = append(args, s.rule(p.Type).SystemsToWire(p.Name).Expr)
	}

	if !isVoid(sig.Return) {
		fn.Return = s.synth.NativeSystems(sig.Return)
	}

	call := fmt.Sprintf("unsafe { %s(%s) }", naming.RustIdent(symbol), strings.Join(args, ", "))
	fn.Body = s.rule(sig.Return).WireToSystems(call).Expr

	return fn
}
