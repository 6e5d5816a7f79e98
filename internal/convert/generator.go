package convert

import (
	"fmt"
	"strconv"

	"bridgegen/internal/bridged"
	"bridgegen/internal/repr"
)

// Generator produces conversion rules for bridged types. It uses the
// synthesizer for wire spellings, so generating rules also records the wire
// declarations they rely on.
type Generator struct {
	synth *repr.Synthesizer
	// locals counts the names handed out in the current function.
	locals int
}

// NewGenerator returns a generator writing wire spellings through synth.
func NewGenerator(synth *repr.Synthesizer) *Generator {
	return &Generator{synth: synth}
}

// ResetNames restarts local name generation; call it once per generated
// function so names stay short.
func (g *Generator) ResetNames() {
	g.locals = 0
}

// fresh returns a binding name unused in the current function: val1, val2...
func (g *Generator) fresh() string {
	g.locals++
	return "val" + strconv.Itoa(g.locals)
}

func (g *Generator) rt(path string) string {
	return g.synth.Runtime() + "::" + path
}

// Rule returns the conversion rule of t.
func (g *Generator) Rule(t bridged.Type) Rule {
	return bridged.Visit[Rule](t, ruleVisitor{g})
}

// unitSystems is the only value of a zero-byte type on the systems side.
func (g *Generator) unitSystems(t bridged.Type) string {
	p, ok := t.(bridged.Product)
	if !ok {
		return "()"
	}

	name := g.synth.NativeSystems(p)
	if p.Decl.Unnamed {
		return name + "()"
	}

	return name + " {}"
}

// unitManaged is the only value of a zero-byte type on the managed side.
func (g *Generator) unitManaged(t bridged.Type) string {
	if p, ok := t.(bridged.Product); ok {
		return p.Decl.ManagedIdent() + "()"
	}

	return "()"
}

// nullSystems is the systems-side null pointer of the wire type of t.
func (g *Generator) nullSystems(t bridged.Type) string {
	w := g.synth.Wire(t)
	if len(w.Rust) > 7 && w.Rust[:7] == "*const " {
		return "std::ptr::null()"
	}

	return "std::ptr::null_mut()"
}

type ruleVisitor struct {
	g *Generator
}

func (v ruleVisitor) VisitPrimitive(bridged.Primitive) Rule {
	return rule{identity(repr.Copied), identity(repr.Copied), identity(repr.Copied), identity(repr.Copied)}
}

func (v ruleVisitor) VisitNull(bridged.Null) Rule {
	return rule{identity(repr.Copied), identity(repr.Copied), identity(repr.Copied), identity(repr.Copied)}
}

func (v ruleVisitor) VisitPointer(bridged.Pointer) Rule {
	return rule{identity(repr.Copied), identity(repr.Copied), identity(repr.Copied), identity(repr.Copied)}
}

func (v ruleVisitor) VisitStr(bridged.Str) Rule {
	g := v.g

	return rule{
		toWire: func(src string) Conversion {
			return conv(g.rt("string::RustStr::from_str("+src+")"), repr.Borrowed, Borrow)
		},
		fromWire: func(src string) Conversion {
			return conv(src+".to_str()", repr.Borrowed, Borrow)
		},
		toManaged: identity(repr.Borrowed),
		fromManaged: func(src string) Conversion {
			bound := bindingName(src) + "AsRustStr"
			c := conv(bound, repr.Borrowed, Borrow)
			c.Scope = &Scope{Open: fmt.Sprintf("%s.toRustStr({ %s in", src, bound), Close: "})"}

			return c
		},
	}
}

func (v ruleVisitor) VisitString(bridged.String) Rule {
	g := v.g

	return rule{
		toWire: func(src string) Conversion {
			return conv(g.rt("string::RustString("+src+").box_into_raw()"), repr.Moved, Allocate)
		},
		fromWire: func(src string) Conversion {
			return conv("unsafe { Box::from_raw("+src+").0 }", repr.Moved, Free)
		},
		toManaged: func(src string) Conversion {
			return conv("RustString(ptr: "+src+")", repr.Moved)
		},
		fromManaged: func(src string) Conversion {
			return conv(fmt.Sprintf(
				"{ let rustString = %s.intoRustString(); rustString.isOwned = false; return rustString.ptr }()", src),
				repr.Moved)
		},
	}
}

func (v ruleVisitor) VisitSlice(t bridged.Slice) Rule {
	g := v.g

	own, asSlice, toBuffer := repr.Borrowed, "as_slice", "toUnsafeBufferPointer"
	if t.Mutable {
		own, asSlice, toBuffer = repr.BorrowedMut, "as_mut_slice", "toUnsafeMutableBufferPointer"
	}

	return rule{
		toWire: func(src string) Conversion {
			return conv(g.rt("FfiSlice::from_slice("+src+")"), own, Borrow)
		},
		fromWire: func(src string) Conversion {
			return conv(src+"."+asSlice+"()", own, Borrow)
		},
		toManaged: func(src string) Conversion {
			return conv(src+"."+toBuffer+"()", own, Borrow)
		},
		fromManaged: func(src string) Conversion {
			return conv(src+".toFfiSlice()", own, Borrow)
		},
	}
}

func (v ruleVisitor) VisitSequence(bridged.Sequence) Rule {
	g := v.g

	return rule{
		toWire: func(src string) Conversion {
			return conv("Box::into_raw(Box::new("+src+"))", repr.Moved, Allocate)
		},
		fromWire: func(src string) Conversion {
			return conv("unsafe { *Box::from_raw("+src+") }", repr.Moved, Free)
		},
		toManaged: func(src string) Conversion {
			return conv("RustVec(ptr: "+src+")", repr.Moved)
		},
		fromManaged: func(src string) Conversion {
			val := g.fresh()

			return conv(fmt.Sprintf("{ let %[1]s = %[2]s; %[1]s.isOwned = false; return %[1]s.ptr }()", val, src), repr.Moved)
		},
	}
}

func (v ruleVisitor) VisitOpaque(t bridged.Opaque) Rule {
	switch {
	case t.Inline():
		return v.inlineOpaque(t)
	case t.Side() == bridged.SideManaged:
		return v.managedOpaque(t)
	case t.Mode == bridged.Borrowed:
		return rule{
			toWire: func(src string) Conversion {
				return conv(src+" as *const super::"+t.Name(), repr.Borrowed, Borrow)
			},
			fromWire: func(src string) Conversion {
				return conv("unsafe { &*"+src+" }", repr.Borrowed, Borrow)
			},
			toManaged: func(src string) Conversion {
				return conv(t.Name()+"Ref(ptr: "+src+")", repr.Borrowed, Borrow)
			},
			fromManaged: func(src string) Conversion {
				return conv(src+".ptr", repr.Borrowed, Borrow)
			},
		}
	case t.Mode == bridged.BorrowedMut:
		return rule{
			toWire: func(src string) Conversion {
				return conv(src+" as *mut super::"+t.Name(), repr.BorrowedMut, Borrow)
			},
			fromWire: func(src string) Conversion {
				return conv("unsafe { &mut *"+src+" }", repr.BorrowedMut, Borrow)
			},
			toManaged: func(src string) Conversion {
				return conv(t.Name()+"RefMut(ptr: "+src+")", repr.BorrowedMut, Borrow)
			},
			fromManaged: func(src string) Conversion {
				return conv(src+".ptr", repr.BorrowedMut, Borrow)
			},
		}
	default:
		return rule{
			toWire: func(src string) Conversion {
				return conv("Box::into_raw(Box::new("+src+"))", repr.Moved, Allocate)
			},
			fromWire: func(src string) Conversion {
				return conv("unsafe { *Box::from_raw("+src+") }", repr.Moved, Free)
			},
			toManaged: func(src string) Conversion {
				return conv(t.Name()+"(ptr: "+src+")", repr.Moved)
			},
			fromManaged: func(src string) Conversion {
				return conv("{"+src+".isOwned = false; return "+src+".ptr;}()", repr.Moved)
			},
		}
	}
}

func (v ruleVisitor) inlineOpaque(t bridged.Opaque) Rule {
	wire := v.g.synth.Wire(t).Rust

	return rule{
		toWire: func(src string) Conversion {
			return conv(wire+"::from_rust_repr("+src+")", repr.Copied)
		},
		fromWire: func(src string) Conversion {
			return conv(src+".into_rust_repr()", repr.Copied)
		},
		toManaged: func(src string) Conversion {
			return conv(src+".intoSwiftRepr()", repr.Copied)
		},
		fromManaged: func(src string) Conversion {
			return conv(src+".intoFfiRepr()", repr.Copied)
		},
	}
}

func (v ruleVisitor) managedOpaque(t bridged.Opaque) Rule {
	if t.Mode != bridged.Owned {
		return rule{
			toWire: func(src string) Conversion {
				return conv(src+".0", repr.Borrowed, Borrow)
			},
			fromWire: func(src string) Conversion {
				return conv("&*std::mem::ManuallyDrop::new("+t.Name()+"("+src+"))", repr.Borrowed, Borrow)
			},
			toManaged: func(src string) Conversion {
				return conv("Unmanaged<"+t.Name()+">.fromOpaque("+src+").takeUnretainedValue()", repr.Borrowed, Borrow)
			},
			fromManaged: func(src string) Conversion {
				return conv("Unmanaged.passUnretained("+src+").toOpaque()", repr.Borrowed, Borrow)
			},
		}
	}

	return rule{
		toWire: func(src string) Conversion {
			return conv("std::mem::ManuallyDrop::new("+src+").0", repr.Moved)
		},
		fromWire: func(src string) Conversion {
			return conv(t.Name()+"("+src+")", repr.Moved)
		},
		toManaged: func(src string) Conversion {
			return conv("Unmanaged<"+t.Name()+">.fromOpaque("+src+").takeRetainedValue()", repr.Moved, Release)
		},
		fromManaged: func(src string) Conversion {
			return conv("Unmanaged.passRetained("+src+").toOpaque()", repr.Moved, Retain)
		},
	}
}

// sharedRule converts declared structs and enums through the methods
// generated alongside their wire declarations.
func (v ruleVisitor) sharedRule(t bridged.Type) Rule {
	own := v.g.synth.Wire(t).Ownership

	return rule{
		toWire: func(src string) Conversion {
			return conv(src+".into_ffi_repr()", own)
		},
		fromWire: func(src string) Conversion {
			return conv(src+".into_rust_repr()", own)
		},
		toManaged: func(src string) Conversion {
			return conv(src+".intoSwiftRepr()", own)
		},
		fromManaged: func(src string) Conversion {
			return conv(src+".intoFfiRepr()", own)
		},
	}
}

func (v ruleVisitor) VisitProduct(t bridged.Product) Rule { return v.sharedRule(t) }
func (v ruleVisitor) VisitSum(t bridged.Sum) Rule         { return v.sharedRule(t) }

func (v ruleVisitor) VisitOptional(t bridged.Optional) Rule { return v.g.optionalRule(t) }
func (v ruleVisitor) VisitResult(t bridged.Result) Rule     { return v.g.resultRule(t) }
func (v ruleVisitor) VisitTuple(t bridged.Tuple) Rule       { return v.g.tupleRule(t) }
