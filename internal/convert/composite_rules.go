package convert

import (
	"fmt"
	"strings"

	"bridgegen/internal/bridged"
	"bridgegen/internal/composite"
	"bridgegen/internal/naming"
	"bridgegen/internal/repr"
)

func (g *Generator) optionalRule(t bridged.Optional) Rule {
	strategy, _ := composite.SelectOptional(t.Inner)

	switch strategy {
	case composite.OptionalTagOnly:
		return g.tagOnlyOption(t)
	case composite.OptionalSentinelReuse:
		if bridged.ShapeOf(t.Inner) == bridged.ShapeView {
			return g.viewOption(t)
		}

		return g.pointerOption(t)
	default:
		if _, ok := t.Inner.(bridged.Primitive); ok {
			return g.primitiveOption(t)
		}

		return g.taggedOption(t)
	}
}

func (g *Generator) tagOnlyOption(t bridged.Optional) Rule {
	return rule{
		toWire: func(src string) Conversion {
			return conv(src+".is_some()", repr.Copied)
		},
		fromWire: func(src string) Conversion {
			return conv(fmt.Sprintf("if %s { Some(%s) } else { None }", src, g.unitSystems(t.Inner)), repr.Copied)
		},
		toManaged: func(src string) Conversion {
			return conv(fmt.Sprintf("%s ? %s : nil", src, g.unitManaged(t.Inner)), repr.Copied)
		},
		fromManaged: func(src string) Conversion {
			return conv(src+" != nil", repr.Copied)
		},
	}
}

// pointerOption reuses the null pointer of the payload as None.
func (g *Generator) pointerOption(t bridged.Optional) Rule {
	inner := g.Rule(t.Inner)
	own := g.synth.Wire(t).Ownership

	return rule{
		toWire: func(src string) Conversion {
			val := g.fresh()
			c := inner.SystemsToWire(val)

			return merge(conv(fmt.Sprintf("if let Some(%s) = %s { %s } else { %s }",
				val, src, c.Expr, g.nullSystems(t.Inner)), own), c)
		},
		fromWire: func(src string) Conversion {
			c := inner.WireToSystems(src)

			return merge(conv(fmt.Sprintf("if %s.is_null() { None } else { Some(%s) }", src, c.Expr), own), c)
		},
		toManaged: func(src string) Conversion {
			val := g.fresh()
			c := inner.WireToManaged(val + "!")

			return merge(conv(fmt.Sprintf(
				"{ let %[1]s = %[2]s; if %[1]s != nil { return %[3]s } else { return nil } }()",
				val, src, c.Expr), own), c)
		},
		fromManaged: func(src string) Conversion {
			val := g.fresh()
			c := inner.ManagedToWire(val)

			return merge(conv(fmt.Sprintf(
				"{ if let %s = %s { return %s } else { return nil } }()",
				val, src, c.Expr), own), c)
		},
	}
}

// viewOption encodes None as a view with a null start pointer.
func (g *Generator) viewOption(t bridged.Optional) Rule {
	inner := g.Rule(t.Inner)
	own := g.synth.Wire(t).Ownership
	wire := g.synth.Wire(t.Inner).Rust
	_, isStr := t.Inner.(bridged.Str)

	empty := wire + " { start: std::ptr::null::<u8>(), len: 0 }"
	if !isStr {
		// Expression position needs the turbofish form of the generic path.
		empty = strings.Replace(wire, "<", "::<", 1) + "::null()"
	}

	return rule{
		toWire: func(src string) Conversion {
			val := g.fresh()
			c := inner.SystemsToWire(val)

			return merge(conv(fmt.Sprintf("if let Some(%s) = %s { %s } else { %s }", val, src, c.Expr, empty), own), c)
		},
		fromWire: func(src string) Conversion {
			c := inner.WireToSystems(src)

			return merge(conv(fmt.Sprintf("if %s.start.is_null() { None } else { Some(%s) }", src, c.Expr), own), c)
		},
		toManaged: func(src string) Conversion {
			val := g.fresh()
			c := inner.WireToManaged(val)

			return merge(conv(fmt.Sprintf(
				"{ let %[1]s = %[2]s; if %[1]s.start != nil { return %[3]s } else { return nil } }()",
				val, src, c.Expr), own), c)
		},
		fromManaged: func(src string) Conversion {
			if !isStr {
				return conv(fmt.Sprintf("%s?.toFfiSlice() ?? %s.null()", src, g.synth.Wire(t.Inner).Swift), own, Borrow)
			}

			bound := bindingName(src) + "AsRustStr"
			c := conv(bound, own, Borrow)
			c.Scope = &Scope{Open: fmt.Sprintf("optionalRustStrToRustStr(%s, { %s in", src, bound), Close: "})"}

			return c
		},
	}
}

// primitiveOption uses the runtime-provided __private__Option<U> structs.
func (g *Generator) primitiveOption(t bridged.Optional) Rule {
	wire := g.synth.Wire(t).Rust
	placeholder := composite.Placeholder(t.Inner)

	return rule{
		toWire: func(src string) Conversion {
			val := g.fresh()

			return conv(fmt.Sprintf(
				"if let Some(%[1]s) = %[2]s { %[3]s { val: %[1]s, is_some: true } } else { %[3]s { val: %[4]s, is_some: false } }",
				val, src, wire, placeholder), repr.Copied)
		},
		fromWire: func(src string) Conversion {
			return conv(fmt.Sprintf("if %[1]s.is_some { Some(%[1]s.val) } else { None }", src), repr.Copied)
		},
		toManaged: func(src string) Conversion {
			return conv(src+".intoSwiftRepr()", repr.Copied)
		},
		fromManaged: func(src string) Conversion {
			return conv(src+".intoFfiRepr()", repr.Copied)
		},
	}
}

// taggedOption wraps the payload in a dedicated { is_some, val } struct.
func (g *Generator) taggedOption(t bridged.Optional) Rule {
	inner := g.Rule(t.Inner)
	w := g.synth.Wire(t)
	placeholder := composite.Placeholder(t.Inner)

	return rule{
		toWire: func(src string) Conversion {
			val := g.fresh()
			c := inner.SystemsToWire(val)

			return merge(conv(fmt.Sprintf(
				"if let Some(%[1]s) = %[2]s { %[3]s { is_some: true, val: %[4]s } } else { %[3]s { is_some: false, val: %[5]s } }",
				val, src, w.Rust, c.Expr, placeholder), w.Ownership), c)
		},
		fromWire: func(src string) Conversion {
			c := inner.WireToSystems(src + ".val")

			return merge(conv(fmt.Sprintf("if %s.is_some { Some(%s) } else { None }", src, c.Expr), w.Ownership), c)
		},
		toManaged: func(src string) Conversion {
			val := g.fresh()
			c := inner.WireToManaged(val + ".val")

			return merge(conv(fmt.Sprintf(
				"{ let %[1]s = %[2]s; if %[1]s.is_some { return %[3]s } else { return nil } }()",
				val, src, c.Expr), w.Ownership), c)
		},
		fromManaged: func(src string) Conversion {
			val := g.fresh()
			c := inner.ManagedToWire(val)

			return merge(conv(fmt.Sprintf(
				"{ if let %[1]s = %[2]s { return %[3]s(is_some: true, val: %[4]s) } else { return %[3]s() } }()",
				val, src, w.Swift, c.Expr), w.Ownership), c)
		},
	}
}

func (g *Generator) resultRule(t bridged.Result) Rule {
	strategy, _ := composite.SelectResult(t.Ok, t.Err)

	switch strategy {
	case composite.ResultBoolOnly:
		return g.boolResult(t)
	case composite.ResultPtrAndPtr:
		return g.ptrAndPtrResult(t)
	case composite.ResultNullablePointer:
		return g.nullableResult(t)
	default:
		return g.taggedResult(t)
	}
}

func (g *Generator) boolResult(t bridged.Result) Rule {
	okUnit, errUnit := g.unitSystems(t.Ok), g.unitSystems(t.Err)
	okManaged, errManaged := g.unitManaged(t.Ok), g.unitManaged(t.Err)

	return rule{
		toWire: func(src string) Conversion {
			return conv(src+".is_ok()", repr.Copied)
		},
		fromWire: func(src string) Conversion {
			return conv(fmt.Sprintf("if %s { Ok(%s) } else { Err(%s) }", src, okUnit, errUnit), repr.Copied)
		},
		toManaged: func(src string) Conversion {
			return conv(fmt.Sprintf("%s ? RustResult.Ok(%s) : RustResult.Err(%s)", src, okManaged, errManaged), repr.Copied)
		},
		fromManaged: func(src string) Conversion {
			return conv(fmt.Sprintf("{ switch %s { case .Ok(_): return true case .Err(_): return false } }()", src), repr.Copied)
		},
	}
}

func (g *Generator) ptrAndPtrResult(t bridged.Result) Rule {
	ok, errRule := g.Rule(t.Ok), g.Rule(t.Err)
	wire := g.synth.Wire(t)
	okWire, errWire := g.synth.Wire(t.Ok).Rust, g.synth.Wire(t.Err).Rust

	return rule{
		toWire: func(src string) Conversion {
			o, e := ok.SystemsToWire("ok"), errRule.SystemsToWire("err")

			return merge(conv(fmt.Sprintf(
				"match %[1]s { Ok(ok) => %[2]s { is_ok: true, ok_or_err: %[3]s as *mut std::ffi::c_void }, "+
					"Err(err) => %[2]s { is_ok: false, ok_or_err: %[4]s as *mut std::ffi::c_void } }",
				src, wire.Rust, o.Expr, e.Expr), wire.Ownership), o, e)
		},
		fromWire: func(src string) Conversion {
			o := ok.WireToSystems(src + ".ok_or_err as " + okWire)
			e := errRule.WireToSystems(src + ".ok_or_err as " + errWire)

			return merge(conv(fmt.Sprintf("if %s.is_ok { Ok(%s) } else { Err(%s) }", src, o.Expr, e.Expr), wire.Ownership), o, e)
		},
		toManaged: func(src string) Conversion {
			val := g.fresh()
			o, e := ok.WireToManaged(val+".ok_or_err!"), errRule.WireToManaged(val+".ok_or_err!")

			return merge(conv(fmt.Sprintf(
				"{ let %[1]s = %[2]s; if %[1]s.is_ok { return RustResult.Ok(%[3]s) } else { return RustResult.Err(%[4]s) } }()",
				val, src, o.Expr, e.Expr), wire.Ownership), o, e)
		},
		fromManaged: func(src string) Conversion {
			o, e := ok.ManagedToWire("ok"), errRule.ManagedToWire("err")

			return merge(conv(fmt.Sprintf(
				"{ switch %[1]s { case .Ok(let ok): return %[2]s(is_ok: true, ok_or_err: %[3]s) "+
					"case .Err(let err): return %[2]s(is_ok: false, ok_or_err: %[4]s) } }()",
				src, wire.Swift, o.Expr, e.Expr), wire.Ownership), o, e)
		},
	}
}

// nullableResult carries only the pointer of the data variant; null stands
// for the zero-byte variant.
func (g *Generator) nullableResult(t bridged.Result) Rule {
	nullOk := composite.NullMeansOk(t)

	data, unit := t.Err, t.Ok
	dataCase, unitCase := "Err", "Ok"

	if !nullOk {
		data, unit = t.Ok, t.Err
		dataCase, unitCase = "Ok", "Err"
	}

	inner := g.Rule(data)
	own := g.synth.Wire(t).Ownership
	unitSys, unitMan := g.unitSystems(unit), g.unitManaged(unit)
	null := g.nullSystems(data)

	return rule{
		toWire: func(src string) Conversion {
			c := inner.SystemsToWire("val")

			return merge(conv(fmt.Sprintf("match %s { %s(_) => %s, %s(val) => %s }",
				src, unitCase, null, dataCase, c.Expr), own), c)
		},
		fromWire: func(src string) Conversion {
			c := inner.WireToSystems(src)

			return merge(conv(fmt.Sprintf("if %s.is_null() { %s(%s) } else { %s(%s) }",
				src, unitCase, unitSys, dataCase, c.Expr), own), c)
		},
		toManaged: func(src string) Conversion {
			val := g.fresh()
			c := inner.WireToManaged(val + "!")

			return merge(conv(fmt.Sprintf(
				"{ let %[1]s = %[2]s; if %[1]s == nil { return RustResult.%[3]s(%[4]s) } else { return RustResult.%[5]s(%[6]s) } }()",
				val, src, unitCase, unitMan, dataCase, c.Expr), own), c)
		},
		fromManaged: func(src string) Conversion {
			val := g.fresh()
			c := inner.ManagedToWire(val)

			return merge(conv(fmt.Sprintf(
				"{ switch %[1]s { case .%[2]s(_): return nil case .%[3]s(let %[4]s): return %[5]s } }()",
				src, unitCase, dataCase, val, c.Expr), own), c)
		},
	}
}

// taggedResult uses the dedicated tag + union declaration of the result.
func (g *Generator) taggedResult(t bridged.Result) Rule {
	wire := g.synth.Wire(t)

	decl, found := g.synth.Registry().Lookup(wire.Decl)
	if !found {
		panic("internal error: no wire declaration for " + t.String())
	}

	tagRust := naming.RustIdent(decl.TagName())
	fieldsRust := naming.RustIdent(decl.FieldsName())

	type arm struct {
		name     string
		variant  string
		typ      bridged.Type
		rule     Rule
		zeroByte bool
	}

	arms := []arm{{name: "ok", variant: "Ok", typ: t.Ok}, {name: "err", variant: "Err", typ: t.Err}}
	for i := range arms {
		arms[i].zeroByte = bridged.ShapeOf(arms[i].typ) == bridged.ShapeZeroByte
		if !arms[i].zeroByte {
			arms[i].rule = g.Rule(arms[i].typ)
		}
	}

	return rule{
		toWire: func(src string) Conversion {
			c := conv("", wire.Ownership)
			parts := make([]string, len(arms))

			for i, a := range arms {
				payload := "unsafe { std::mem::zeroed() }"
				binding := "_"

				if !a.zeroByte {
					inner := a.rule.SystemsToWire(a.name)
					c = merge(c, inner)
					payload = fmt.Sprintf("%s { %s: %s }", fieldsRust, a.name, inner.Expr)
					binding = a.name
				}

				parts[i] = fmt.Sprintf("%s(%s) => %s { tag: %s::%s, payload: %s }",
					a.variant, binding, wire.Rust, tagRust, a.variant, payload)
			}

			c.Expr = fmt.Sprintf("match %s { %s }", src, strings.Join(parts, ", "))

			return c
		},
		fromWire: func(src string) Conversion {
			c := conv("", wire.Ownership)
			parts := make([]string, len(arms))

			for i, a := range arms {
				value := g.unitSystems(a.typ)

				if !a.zeroByte {
					inner := a.rule.WireToSystems(fmt.Sprintf("unsafe { %s.payload.%s }", src, a.name))
					c = merge(c, inner)
					value = inner.Expr
				}

				parts[i] = fmt.Sprintf("%s::%s => %s(%s)", tagRust, a.variant, a.variant, value)
			}

			c.Expr = fmt.Sprintf("match %s.tag { %s }", src, strings.Join(parts, ", "))

			return c
		},
		toManaged: func(src string) Conversion {
			val := g.fresh()
			c := conv("", wire.Ownership)
			parts := make([]string, len(arms))

			for i, a := range arms {
				value := g.unitManaged(a.typ)

				if !a.zeroByte {
					inner := a.rule.WireToManaged(fmt.Sprintf("%s.payload.%s", val, a.name))
					c = merge(c, inner)
					value = inner.Expr
				}

				parts[i] = fmt.Sprintf("case %s$Result%s: return RustResult.%s(%s)", decl.Name, a.variant, a.variant, value)
			}

			c.Expr = fmt.Sprintf("{ let %[1]s = %[2]s; switch %[1]s.tag { %[3]s default: fatalError() } }()",
				val, src, strings.Join(parts, " "))

			return c
		},
		fromManaged: func(src string) Conversion {
			c := conv("", wire.Ownership)
			parts := make([]string, len(arms))

			for i, a := range arms {
				payload := decl.FieldsName() + "()"
				binding := "_"

				if !a.zeroByte {
					inner := a.rule.ManagedToWire(a.name)
					c = merge(c, inner)
					payload = fmt.Sprintf("%s(%s: %s)", decl.FieldsName(), a.name, inner.Expr)
					binding = "let " + a.name
				}

				parts[i] = fmt.Sprintf("case .%s(%s): return %s(tag: %s$Result%s, payload: %s)",
					a.variant, binding, decl.Name, decl.Name, a.variant, payload)
			}

			c.Expr = fmt.Sprintf("{ switch %s { %s } }()", src, strings.Join(parts, " "))

			return c
		},
	}
}

func (g *Generator) tupleRule(t bridged.Tuple) Rule {
	wire := g.synth.Wire(t)

	rules := make([]Rule, len(t.Elems))
	for i, e := range t.Elems {
		rules[i] = g.Rule(e)
	}

	return rule{
		toWire: func(src string) Conversion {
			c := conv("", wire.Ownership)
			names := make([]string, len(rules))
			fields := make([]string, len(rules))

			for i, r := range rules {
				names[i] = g.fresh()
				inner := r.SystemsToWire(names[i])
				c = merge(c, inner)
				fields[i] = fmt.Sprintf("_%d: %s", i, inner.Expr)
			}

			c.Expr = fmt.Sprintf("{ let (%s) = %s; %s { %s } }",
				strings.Join(names, ", "), src, wire.Rust, strings.Join(fields, ", "))

			return c
		},
		fromWire: func(src string) Conversion {
			val := g.fresh()
			c := conv("", wire.Ownership)
			elems := make([]string, len(rules))

			for i, r := range rules {
				inner := r.WireToSystems(fmt.Sprintf("%s._%d", val, i))
				c = merge(c, inner)
				elems[i] = inner.Expr
			}

			c.Expr = fmt.Sprintf("{ let %s = %s; (%s) }", val, src, strings.Join(elems, ", "))

			return c
		},
		toManaged: func(src string) Conversion {
			val := g.fresh()
			c := conv("", wire.Ownership)
			elems := make([]string, len(rules))

			for i, r := range rules {
				inner := r.WireToManaged(fmt.Sprintf("%s._%d", val, i))
				c = merge(c, inner)
				elems[i] = inner.Expr
			}

			c.Expr = fmt.Sprintf("{ let %s = %s; return (%s) }()", val, src, strings.Join(elems, ", "))

			return c
		},
		fromManaged: func(src string) Conversion {
			val := g.fresh()
			c := conv("", wire.Ownership)
			fields := make([]string, len(rules))

			for i, r := range rules {
				inner := r.ManagedToWire(fmt.Sprintf("%s.%d", val, i))
				c = merge(c, inner)
				fields[i] = fmt.Sprintf("_%d: %s", i, inner.Expr)
			}

			c.Expr = fmt.Sprintf("{ let %s = %s; return %s(%s) }()", val, src, wire.Swift, strings.Join(fields, ", "))

			return c
		},
	}
}
