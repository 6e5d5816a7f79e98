package derive

import (
	"fmt"
	"slices"
	"strings"

	"bridgegen/internal/bridged"
	"bridgegen/internal/composite"
	"bridgegen/internal/convert"
	"bridgegen/internal/naming"
	"bridgegen/internal/opaque"
	"bridgegen/internal/repr"
)

// swiftFunc is a managed-side function or method with a body.
type swiftFunc struct {
	// Head is everything before the body, e.g. "public func f(_ a: Int32) -> Int32".
	Head string
	Body string
}

// swiftClass holds the class hierarchy of a systems-side opaque type.
type swiftClass struct {
	Name string
	// Free is empty when no owned value is ever handed to the managed side.
	Free      string
	Equatable string
	Hashable  string
	Ref       []swiftFunc
	RefMut    []swiftFunc
	Owned     []swiftFunc
}

type swiftInline struct {
	Name string
	Wire string
}

type swiftField struct {
	Name string
	Type string
}

// swiftShared is a declared struct or enum with its wire extensions.
type swiftShared struct {
	Name      string
	Wire      string
	Enum      bool
	Fields    []swiftField
	Cases     []string
	IntoFfi   string
	IntoSwift string
}

// swiftVec makes a type usable as a RustVec element.
type swiftVec struct {
	Type       string
	SelfRef    string
	SelfRefMut string
	New        string
	Free       string
	Len        string
	// Push, Pop, Get and GetMut are complete statements.
	Push   string
	Pop    string
	Get    string
	GetMut string
}

// swiftExport is an entry point the managed side defines.
type swiftExport struct {
	Symbol string
	Ident  string
	Params []wireParam
	Return string
	Body   string
}

// swiftAsync is the callback wrapper of one async function.
type swiftAsync struct {
	Wrapper string
	Native  string
}

type managedData struct {
	Generated string
	Module    string
	Classes   []swiftClass
	Inline    []swiftInline
	Shared    []swiftShared
	Vecs      []swiftVec
	Functions []swiftFunc
	Async     []swiftAsync
	Exports   []swiftExport
}

func (s *session) managedFile() *managedData {
	data := &managedData{Generated: generatedHeader, Module: s.file.Module}

	for _, o := range s.opaqueSources {
		d := o.decl
		if !emitted(d) {
			continue
		}

		switch {
		case d.InlineSize > 0:
			data.Inline = append(data.Inline, swiftInline{Name: d.Name, Wire: s.synth.Wire(bridged.Opaque{Decl: d}).Swift})
		case d.Side == bridged.SideManaged:
			for _, ep := range s.opaques.EntryPoints(d.Name) {
				data.Exports = append(data.Exports, s.swiftEntryPoint(d, ep))
			}
		default:
			data.Classes = append(data.Classes, s.swiftClass(d))
		}
	}

	for _, fn := range s.functions {
		switch {
		case fn.sig.Side == bridged.SideManaged:
			data.Exports = append(data.Exports, s.swiftExport(nil, fn.sig))
		case fn.sig.Async:
			f, a := s.swiftAsync(fn.sig)
			data.Functions = append(data.Functions, f)
			data.Async = append(data.Async, a)
		default:
			data.Functions = append(data.Functions, s.swiftFunction(fn.sig))
		}
	}

	for _, d := range s.structs {
		if !d.AlreadyDeclared {
			data.Shared = append(data.Shared, s.swiftStruct(d))
		}
	}

	for _, d := range s.enums {
		if !d.AlreadyDeclared {
			data.Shared = append(data.Shared, s.swiftEnum(d))
		}
	}

	for _, p := range s.groupSequences() {
		data.Vecs = append(data.Vecs, s.swiftVec(p))
	}

	return data
}

// swiftCall converts params to wire values, calls symbol and lifts the
// result. prefix holds wire arguments that need no conversion.
func (s *session) swiftCall(symbol string, prefix []string, params []bridged.Param, ret bridged.Type) string {
	args := append([]string(nil), prefix...)

	var scopes []*convert.Scope

	for _, p := range params {
		c := s.rule(p.Type).ManagedToWire(p.Name)
		args = append(args, c.Expr)

		if c.Scope != nil {
			scopes = append(scopes, c.Scope)
		}
	}

	call := fmt.Sprintf("%s(%s)", symbol, strings.Join(args, ", "))
	lifted := s.rule(ret).WireToManaged(call)

	if lifted.Scope != nil {
		scopes = append(scopes, lifted.Scope)
	}

	return scoped(lifted.Expr, scopes)
}

// swiftHead spells a managed-side declaration.
func (s *session) swiftHead(keyword, name string, params []bridged.Param, ret bridged.Type) string {
	var generics []string

	list := make([]string, len(params))
	for i, p := range params {
		list[i] = fmt.Sprintf("_ %s: %s", p.Name, s.synth.NativeManaged(p.Type, repr.PositionArgument))

		for _, g := range s.synth.Generics(p.Type, repr.PositionArgument) {
			if !slices.Contains(generics, g) {
				generics = append(generics, g)
			}
		}
	}

	head := keyword
	if name != "" {
		head += " " + name
	}

	if len(generics) > 0 {
		head += "<" + strings.Join(generics, ", ") + ">"
	}

	head += "(" + strings.Join(list, ", ") + ")"

	if !isVoid(ret) {
		head += " -> " + s.synth.NativeManaged(ret, repr.PositionReturn)
	}

	return head
}

func (s *session) swiftFunction(sig *bridged.Signature) swiftFunc {
	s.gen.ResetNames()

	return swiftFunc{
		Head: s.swiftHead("public func", managedName(sig), sig.Params, sig.Return),
		Body: "return " + s.swiftCall(s.namer().Function(sig.Name), nil, sig.Params, sig.Return),
	}
}

func (s *session) swiftAsync(sig *bridged.Signature) (swiftFunc, swiftAsync) {
	s.gen.ResetNames()

	name := s.namer().Function(sig.Name)
	a := swiftAsync{Wrapper: "CbWrapper" + naming.RustIdent(name), Native: "Void"}

	var body strings.Builder

	body.WriteString("func onComplete(cbWrapperPtr: UnsafeMutableRawPointer?")

	if isVoid(sig.Return) {
		body.WriteString(") {\n")
		fmt.Fprintf(&body, "    let wrapper = Unmanaged<%s>.fromOpaque(cbWrapperPtr!).takeRetainedValue()\n", a.Wrapper)
		body.WriteString("    wrapper.cb(())\n")
	} else {
		a.Native = s.synth.NativeManaged(sig.Return, repr.PositionReturn)
		fmt.Fprintf(&body, ", rustFnRetVal: %s) {\n", s.synth.Wire(sig.Return).Swift)
		fmt.Fprintf(&body, "    let wrapper = Unmanaged<%s>.fromOpaque(cbWrapperPtr!).takeRetainedValue()\n", a.Wrapper)
		fmt.Fprintf(&body, "    wrapper.cb(%s)\n", s.rule(sig.Return).WireToManaged("rustFnRetVal").Expr)
	}

	body.WriteString("}\n\n")
	fmt.Fprintf(&body, "return await withCheckedContinuation({ (continuation: CheckedContinuation<%s, Never>) in\n", a.Native)
	body.WriteString("    let callback = { rustFnRetVal in continuation.resume(returning: rustFnRetVal) }\n")
	fmt.Fprintf(&body, "    let wrapper = %s(cb: callback)\n", a.Wrapper)
	body.WriteString("    let wrapperPtr = Unmanaged.passRetained(wrapper).toOpaque()\n\n")
	fmt.Fprintf(&body, "    %s\n", s.swiftCall(name, []string{"wrapperPtr", "onComplete"}, sig.Params, bridged.Null{}))
	body.WriteString("})")

	head := s.swiftHead("public func", managedName(sig), sig.Params, bridged.Null{}) + " async"
	if !isVoid(sig.Return) {
		head += " -> " + a.Native
	}

	return swiftFunc{Head: head, Body: body.String()}, a
}

func (s *session) swiftClass(d *bridged.OpaqueDecl) swiftClass {
	c := swiftClass{Name: d.Name}

	if s.opaques.State(d.Name) == opaque.HasFreeEntryPoint {
		c.Free = s.namer().Free(d.Name)
	}

	for _, ep := range s.opaques.EntryPoints(d.Name) {
		switch ep.Kind {
		case opaque.EntryPartialEq:
			c.Equatable = ep.Name
		case opaque.EntryHash:
			c.Hashable = ep.Name
		case opaque.EntryMethod:
			fn := s.swiftMethod(d, ep)

			switch {
			case ep.Method.Init, ep.Method.Receiver == bridged.ReceiverOwned:
				c.Owned = append(c.Owned, fn)
			case ep.Method.Receiver == bridged.ReceiverMut:
				c.RefMut = append(c.RefMut, fn)
			default:
				c.Ref = append(c.Ref, fn)
			}
		}
	}

	return c
}

func (s *session) swiftMethod(d *bridged.OpaqueDecl, ep opaque.EntryPoint) swiftFunc {
	s.gen.ResetNames()

	sig := ep.Method
	if sig.Init {
		return s.swiftInit(d, sig)
	}

	var prefix []string
	if sig.Receiver != bridged.ReceiverNone {
		prefix = []string{s.rule(receiverType(d, sig.Receiver)).ManagedToWire("self").Expr}
	}

	keyword := "public func"
	if sig.Receiver == bridged.ReceiverNone {
		keyword = "public class func"
	}

	return swiftFunc{
		Head: s.swiftHead(keyword, managedName(sig), sig.Params, sig.Return),
		Body: "return " + s.swiftCall(ep.Name, prefix, sig.Params, sig.Return),
	}
}

// swiftInit renders a constructor. Fallible constructors returning a result
// become static factories.
func (s *session) swiftInit(d *bridged.OpaqueDecl, sig *bridged.Signature) swiftFunc {
	symbol := s.namer().Method(d.Name, sig.Name)

	switch ret := sig.Return.(type) {
	case bridged.Optional:
		return swiftFunc{
			Head: s.swiftHead("public convenience init?", "", sig.Params, bridged.Null{}),
			Body: fmt.Sprintf("guard let val = %s else { return nil }\nself.init(ptr: val.ptr)\nval.isOwned = false",
				s.swiftCall(symbol, nil, sig.Params, ret)),
		}
	case bridged.Result:
		return swiftFunc{
			Head: s.swiftHead("public static func", managedName(sig), sig.Params, ret),
			Body: "return " + s.swiftCall(symbol, nil, sig.Params, ret),
		}
	default:
		return swiftFunc{
			Head: s.swiftHead("public convenience init", "", sig.Params, bridged.Null{}),
			Body: fmt.Sprintf("self.init(ptr: %s)", s.swiftCall(symbol, nil, sig.Params, bridged.Pointer{PointeeName: "c_void"})),
		}
	}
}

func swiftWireParams(params []opaque.Param) []wireParam {
	out := make([]wireParam, len(params))
	for i, p := range params {
		out[i] = wireParam{Name: p.Name, Type: p.Wire.Swift}
	}

	return out
}

func swiftSpelling(w repr.WireType) string { return w.Swift }

// swiftEntryPoint renders an entry point of a managed-side type.
func (s *session) swiftEntryPoint(d *bridged.OpaqueDecl, ep opaque.EntryPoint) swiftExport {
	if ep.Kind == opaque.EntryRelease {
		return swiftExport{
			Symbol: ep.Name,
			Ident:  naming.RustIdent(ep.Name),
			Params: swiftWireParams(ep.Params),
			Body:   fmt.Sprintf("let _ = Unmanaged<%s>.fromOpaque(this).takeRetainedValue()", d.Name),
		}
	}

	return s.swiftExport(d, ep.Method)
}

// swiftExport calls a managed-side function or method on behalf of the
// systems side. d is nil for free functions.
func (s *session) swiftExport(d *bridged.OpaqueDecl, sig *bridged.Signature) swiftExport {
	s.gen.ResetNames()

	symbol := s.namer().Function(sig.Name)
	target := managedName(sig)

	var params []opaque.Param

	if d != nil {
		symbol = s.namer().Method(d.Name, sig.Name)
		target = d.Name + "." + managedName(sig)

		if sig.Receiver != bridged.ReceiverNone {
			recv := receiverType(d, sig.Receiver)
			params = append(params, opaque.Param{Name: "this", Wire: s.synth.Wire(recv)})
			target = s.rule(recv).WireToManaged("this").Expr + "." + managedName(sig)
		}
	}

	args := make([]string, len(sig.Params))
	for i, p := range sig.Params {
		params = append(params, opaque.Param{Name: p.Name, Wire: s.synth.Wire(p.Type)})
		args[i] = fmt.Sprintf("%s: %s", p.Name, s.rule(p.Type).WireToManaged(p.Name).Expr)
	}

	call := fmt.Sprintf("%s(%s)", target, strings.Join(args, ", "))
	out := s.rule(sig.Return).ManagedToWire(call)

	body := "return " + out.Expr
	if out.Scope != nil {
		body = "return " + out.Scope.Wrap("return "+out.Expr)
	}

	return swiftExport{
		Symbol: symbol,
		Ident:  naming.RustIdent(symbol),
		Params: swiftWireParams(params),
		Return: wireReturn(s.synth.Wire(sig.Return), swiftSpelling),
		Body:   body,
	}
}

func (s *session) swiftStruct(d *bridged.StructDecl) swiftShared {
	s.gen.ResetNames()

	t := bridged.Product{Decl: d}
	wire := s.synth.Wire(t).Swift
	sh := swiftShared{Name: d.ManagedIdent(), Wire: wire}

	toWire := make([]string, len(d.Fields))
	fromWire := make([]string, len(d.Fields))

	for i, f := range d.Fields {
		member := fieldName(f, i, d.Unnamed)
		sh.Fields = append(sh.Fields, swiftField{Name: member, Type: s.synth.NativeManaged(f.Type, repr.PositionField)})

		r := s.rule(f.Type)
		toWire[i] = member + ": " + r.ManagedToWire("val."+member).Expr
		fromWire[i] = member + ": " + r.WireToManaged("val."+member).Expr
	}

	if len(d.Fields) == 0 {
		sh.IntoFfi = wire + "(_private: 123)"
		sh.IntoSwift = sh.Name + "()"

		return sh
	}

	sh.IntoFfi = fmt.Sprintf("{ let val = self; return %s(%s) }()", wire, strings.Join(toWire, ", "))
	sh.IntoSwift = fmt.Sprintf("{ let val = self; return %s(%s) }()", sh.Name, strings.Join(fromWire, ", "))

	return sh
}

func (s *session) swiftEnum(d *bridged.EnumDecl) swiftShared {
	s.gen.ResetNames()

	t := bridged.Sum{Decl: d}
	w := s.synth.Wire(t)
	wd, _ := s.registry.Lookup(w.Decl)
	sh := swiftShared{Name: d.ManagedIdent(), Wire: w.Swift, Enum: true}

	var toWire, fromWire []string

	for i := range d.Variants {
		v := &d.Variants[i]
		wv := wd.Variants[i]

		if !v.HasData() {
			sh.Cases = append(sh.Cases, "case "+v.Name)

			payload := ""
			if wd.HasPayload() {
				payload = fmt.Sprintf(", payload: %s()", wd.FieldsName())
			}

			toWire = append(toWire, fmt.Sprintf("case %s.%s:\n    return %s(tag: %s%s)", sh.Name, v.Name, w.Swift, wv.Tag, payload))
			fromWire = append(fromWire, fmt.Sprintf("case %s:\n    return %s.%s", wv.Tag, sh.Name, v.Name))

			continue
		}

		var (
			decl     []string
			bindings []string
			members  []string
			values   []string
		)

		for j, f := range v.Fields {
			member := fieldName(f, j, v.Unnamed)
			binding := member
			label := member + ": "

			if v.Unnamed {
				binding = fmt.Sprintf("value%d", j)
				label = ""
			}

			native := s.synth.NativeManaged(f.Type, repr.PositionField)
			decl = append(decl, label+native)
			bindings = append(bindings, "let "+binding)

			r := s.rule(f.Type)
			members = append(members, member+": "+r.ManagedToWire(binding).Expr)
			values = append(values, label+r.WireToManaged("payload."+member).Expr)
		}

		sh.Cases = append(sh.Cases, fmt.Sprintf("case %s(%s)", v.Name, strings.Join(decl, ", ")))

		toWire = append(toWire, fmt.Sprintf("case %s.%s(%s):\n    return %s(tag: %s, payload: %s(%s: %s(%s)))",
			sh.Name, v.Name, strings.Join(bindings, ", "),
			w.Swift, wv.Tag, wd.FieldsName(), v.Name, wv.Fields, strings.Join(members, ", ")))
		fromWire = append(fromWire, fmt.Sprintf("case %s:\n    let payload = self.payload.%s\n    return %s.%s(%s)",
			wv.Tag, v.Name, sh.Name, v.Name, strings.Join(values, ", ")))
	}

	sh.IntoFfi = "switch self {\n" + strings.Join(toWire, "\n") + "\n}"
	sh.IntoSwift = "switch self.tag {\n" + strings.Join(fromWire, "\n") + "\ndefault:\n    fatalError(\"unreachable\")\n}"

	return sh
}

func (s *session) swiftVec(p composite.SequencePolicy) swiftVec {
	s.gen.ResetNames()

	native := s.synth.NativeManaged(p.Elem, repr.PositionField)
	v := swiftVec{Type: native, SelfRef: native, SelfRefMut: native}

	ops := map[string]string{}
	for _, ep := range s.opaques.VecEntryPoints(p) {
		ops[ep.Op] = ep.Name
	}

	v.New, v.Free, v.Len = ops["new"], ops["drop"], ops["len"]

	getRef, getMut := bridged.Type(bridged.Optional{Inner: p.Elem}), bridged.Type(bridged.Optional{Inner: p.Elem})

	if o, ok := p.Elem.(bridged.Opaque); ok && p.Flow == composite.ElementByPointer {
		ref := bridged.Opaque{Decl: o.Decl, Mode: bridged.Borrowed}
		mut := bridged.Opaque{Decl: o.Decl, Mode: bridged.BorrowedMut}
		v.SelfRef = s.synth.NativeManaged(ref, repr.PositionField)
		v.SelfRefMut = s.synth.NativeManaged(mut, repr.PositionField)
		getRef, getMut = bridged.Optional{Inner: ref}, bridged.Optional{Inner: mut}
	}

	v.Push = fmt.Sprintf("%s(vecPtr, %s)", ops["push"], s.rule(p.Elem).ManagedToWire("value").Expr)

	s.gen.ResetNames()
	v.Pop = "return " + s.rule(bridged.Optional{Inner: p.Elem}).WireToManaged(ops["pop"]+"(vecPtr)").Expr

	s.gen.ResetNames()
	v.Get = "return " + s.rule(getRef).WireToManaged(ops["get"]+"(vecPtr, index)").Expr

	s.gen.ResetNames()
	v.GetMut = "return " + s.rule(getMut).WireToManaged(ops["get_mut"]+"(vecPtr, index)").Expr

	return v
}
