package convert_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bridgegen/internal/bridged"
	"bridgegen/internal/convert"
	"bridgegen/internal/naming"
	"bridgegen/internal/repr"
)

type fixture struct {
	c   *bridged.Classifier
	reg *repr.Registry
	gen *convert.Generator
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	table := bridged.NewTable()
	require.NoError(t, table.AddOpaque(&bridged.OpaqueDecl{Name: "Handle"}))
	require.NoError(t, table.AddOpaque(&bridged.OpaqueDecl{Name: "View", Side: bridged.SideManaged}))
	require.NoError(t, table.AddStruct(&bridged.StructDecl{Name: "Point"}))

	c := bridged.NewClassifier(table)

	point, _ := table.Struct("Point")
	point.Fields = []bridged.FieldDecl{{Name: "x", Src: "f64"}, {Name: "y", Src: "f64"}}

	for i := range point.Fields {
		typ, err := c.ClassifyString(point.Fields[i].Src)
		require.NoError(t, err)

		point.Fields[i].Type = typ
	}

	reg := repr.NewRegistry()
	synth := repr.NewSynthesizer(naming.New(""), "", reg)

	return &fixture{c: c, reg: reg, gen: convert.NewGenerator(synth)}
}

func (f *fixture) rule(t *testing.T, src string) convert.Rule {
	t.Helper()

	typ, err := f.c.ClassifyString(src)
	require.NoError(t, err, src)

	f.gen.ResetNames()

	return f.gen.Rule(typ)
}

func TestLeafRules(t *testing.T) {
	t.Parallel()

	f := newFixture(t)

	c := f.rule(t, "u8").SystemsToWire("x")
	assert.Equal(t, "x", c.Expr)
	assert.Empty(t, c.Effects)
	assert.Equal(t, repr.Copied, c.Ownership)

	c = f.rule(t, "String").SystemsToWire("x")
	assert.Equal(t, "swift_bridge::string::RustString(x).box_into_raw()", c.Expr)
	assert.True(t, c.Has(convert.Allocate))
	assert.Equal(t, repr.Moved, c.Ownership)

	c = f.rule(t, "String").WireToSystems("x")
	assert.Equal(t, "unsafe { Box::from_raw(x).0 }", c.Expr)
	assert.True(t, c.Has(convert.Free))

	c = f.rule(t, "&mut [u8]").WireToSystems("x")
	assert.Equal(t, "x.as_mut_slice()", c.Expr)
	assert.Equal(t, repr.BorrowedMut, c.Ownership)

	c = f.rule(t, "&Handle").WireToManaged("x")
	assert.Equal(t, "HandleRef(ptr: x)", c.Expr)
	assert.True(t, c.Has(convert.Borrow))

	c = f.rule(t, "Point").SystemsToWire("x")
	assert.Equal(t, "x.into_ffi_repr()", c.Expr)
}

func TestManagedOpaqueRefCounting(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	r := f.rule(t, "View")

	assert.True(t, r.ManagedToWire("v").Has(convert.Retain))
	assert.True(t, r.WireToManaged("v").Has(convert.Release))
	assert.Equal(t, "Unmanaged.passRetained(v).toOpaque()", r.ManagedToWire("v").Expr)

	borrowed := f.rule(t, "&View").ManagedToWire("v")
	assert.False(t, borrowed.Has(convert.Retain))
	assert.Equal(t, "Unmanaged.passUnretained(v).toOpaque()", borrowed.Expr)
}

func TestStrScope(t *testing.T) {
	t.Parallel()

	f := newFixture(t)

	c := f.rule(t, "&str").ManagedToWire("name")
	require.NotNil(t, c.Scope)
	assert.Equal(t, "nameAsRustStr", c.Expr)
	assert.Equal(t, "name.toRustStr({ nameAsRustStr in\nbody\n})", c.Scope.Wrap("body"))

	c = f.rule(t, "Option<&str>").ManagedToWire("name")
	require.NotNil(t, c.Scope)
	assert.Equal(t, "optionalRustStrToRustStr(name, { nameAsRustStr in", c.Scope.Open)

	c = f.rule(t, "Option<&str>").SystemsToWire("x")
	assert.Equal(t,
		"if let Some(val1) = x { swift_bridge::string::RustStr::from_str(val1) } else "+
			"{ swift_bridge::string::RustStr { start: std::ptr::null::<u8>(), len: 0 } }",
		c.Expr)

	var nilScope *convert.Scope
	assert.Equal(t, "body", nilScope.Wrap("body"))
}

func TestOptionalRules(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		src  string
		dir  func(convert.Rule) convert.Conversion
		want string
	}{
		{
			name: "tag only to wire",
			src:  "Option<()>",
			dir:  func(r convert.Rule) convert.Conversion { return r.SystemsToWire("x") },
			want: "x.is_some()",
		},
		{
			name: "tag only from wire",
			src:  "Option<()>",
			dir:  func(r convert.Rule) convert.Conversion { return r.WireToSystems("x") },
			want: "if x { Some(()) } else { None }",
		},
		{
			name: "tag only to managed",
			src:  "Option<()>",
			dir:  func(r convert.Rule) convert.Conversion { return r.WireToManaged("x") },
			want: "x ? () : nil",
		},
		{
			name: "primitive to wire",
			src:  "Option<u8>",
			dir:  func(r convert.Rule) convert.Conversion { return r.SystemsToWire("x") },
			want: "if let Some(val1) = x { swift_bridge::option::OptionU8 { val: val1, is_some: true } } " +
				"else { swift_bridge::option::OptionU8 { val: 123, is_some: false } }",
		},
		{
			name: "primitive from wire",
			src:  "Option<f32>",
			dir:  func(r convert.Rule) convert.Conversion { return r.WireToSystems("x") },
			want: "if x.is_some { Some(x.val) } else { None }",
		},
		{
			name: "primitive to managed",
			src:  "Option<bool>",
			dir:  func(r convert.Rule) convert.Conversion { return r.WireToManaged("x") },
			want: "x.intoSwiftRepr()",
		},
		{
			name: "pointer to wire",
			src:  "Option<String>",
			dir:  func(r convert.Rule) convert.Conversion { return r.SystemsToWire("x") },
			want: "if let Some(val1) = x { swift_bridge::string::RustString(val1).box_into_raw() } " +
				"else { std::ptr::null_mut() }",
		},
		{
			name: "pointer from wire",
			src:  "Option<String>",
			dir:  func(r convert.Rule) convert.Conversion { return r.WireToSystems("x") },
			want: "if x.is_null() { None } else { Some(unsafe { Box::from_raw(x).0 }) }",
		},
		{
			name: "pointer to managed",
			src:  "Option<Handle>",
			dir:  func(r convert.Rule) convert.Conversion { return r.WireToManaged("x") },
			want: "{ let val1 = x; if val1 != nil { return Handle(ptr: val1!) } else { return nil } }()",
		},
		{
			name: "pointer from managed",
			src:  "Option<Handle>",
			dir:  func(r convert.Rule) convert.Conversion { return r.ManagedToWire("x") },
			want: "{ if let val1 = x { return {val1.isOwned = false; return val1.ptr;}() } else { return nil } }()",
		},
		{
			name: "tagged struct from wire",
			src:  "Option<Point>",
			dir:  func(r convert.Rule) convert.Conversion { return r.WireToSystems("x") },
			want: "if x.is_some { Some(x.val.into_rust_repr()) } else { None }",
		},
		{
			name: "tagged struct from managed",
			src:  "Option<Point>",
			dir:  func(r convert.Rule) convert.Conversion { return r.ManagedToWire("x") },
			want: "{ if let val1 = x { return __swift_bridge__$Option$Point(is_some: true, val: val1.intoFfiRepr()) } " +
				"else { return __swift_bridge__$Option$Point() } }()",
		},
		{
			name: "nested optional to wire",
			src:  "Option<Option<u8>>",
			dir:  func(r convert.Rule) convert.Conversion { return r.SystemsToWire("x") },
			want: "if let Some(val1) = x { __swift_bridge__Option_OptionU8 { is_some: true, val: " +
				"if let Some(val2) = val1 { swift_bridge::option::OptionU8 { val: val2, is_some: true } } " +
				"else { swift_bridge::option::OptionU8 { val: 123, is_some: false } } } } " +
				"else { __swift_bridge__Option_OptionU8 { is_some: false, val: unsafe { std::mem::zeroed() } } }",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			f := newFixture(t)
			assert.Equal(t, tt.want, tt.dir(f.rule(t, tt.src)).Expr)
		})
	}
}

func TestOptionalEffectsPropagate(t *testing.T) {
	t.Parallel()

	f := newFixture(t)

	c := f.rule(t, "Option<String>").SystemsToWire("x")
	assert.True(t, c.Has(convert.Allocate))
	assert.Equal(t, repr.Moved, c.Ownership)

	c = f.rule(t, "Option<Vec<u8>>").WireToSystems("x")
	assert.True(t, c.Has(convert.Free))

	c = f.rule(t, "Option<u8>").SystemsToWire("x")
	assert.Empty(t, c.Effects)
}

func TestResultRules(t *testing.T) {
	t.Parallel()

	f := newFixture(t)

	r := f.rule(t, "Result<(), ()>")
	assert.Equal(t, "x.is_ok()", r.SystemsToWire("x").Expr)
	assert.Equal(t, "if x { Ok(()) } else { Err(()) }", r.WireToSystems("x").Expr)
	assert.Equal(t, "x ? RustResult.Ok(()) : RustResult.Err(())", r.WireToManaged("x").Expr)

	r = f.rule(t, "Result<(), Handle>")
	assert.Equal(t, "match x { Ok(_) => std::ptr::null_mut(), Err(val) => Box::into_raw(Box::new(val)) }",
		r.SystemsToWire("x").Expr)
	assert.Equal(t, "if x.is_null() { Ok(()) } else { Err(unsafe { *Box::from_raw(x) }) }",
		r.WireToSystems("x").Expr)
	assert.True(t, r.SystemsToWire("x").Has(convert.Allocate))

	r = f.rule(t, "Result<String, ()>")
	assert.Equal(t,
		"if x.is_null() { Err(()) } else { Ok(unsafe { Box::from_raw(x).0 }) }",
		r.WireToSystems("x").Expr)

	r = f.rule(t, "Result<Handle, String>")
	toWire := r.SystemsToWire("x")
	assert.Contains(t, toWire.Expr, "Ok(ok) => swift_bridge::result::ResultPtrAndPtr { is_ok: true, ok_or_err: Box::into_raw(Box::new(ok)) as *mut std::ffi::c_void }")
	assert.Contains(t, toWire.Expr, "Err(err) => swift_bridge::result::ResultPtrAndPtr { is_ok: false")
	assert.True(t, toWire.Has(convert.Allocate))
	assert.Contains(t, r.WireToSystems("x").Expr, "x.ok_or_err as *mut super::Handle")
	assert.Contains(t, r.WireToManaged("x").Expr, "return RustResult.Ok(Handle(ptr: val1.ok_or_err!))")
}

func TestTaggedResult(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	r := f.rule(t, "Result<Point, String>")

	toWire := r.SystemsToWire("x")
	assert.Equal(t,
		"match x { "+
			"Ok(ok) => __swift_bridge__ResultPointAndString { tag: __swift_bridge__ResultPointAndString_Tag::Ok, "+
			"payload: __swift_bridge__ResultPointAndString_Fields { ok: ok.into_ffi_repr() } }, "+
			"Err(err) => __swift_bridge__ResultPointAndString { tag: __swift_bridge__ResultPointAndString_Tag::Err, "+
			"payload: __swift_bridge__ResultPointAndString_Fields { err: swift_bridge::string::RustString(err).box_into_raw() } } }",
		toWire.Expr)
	assert.True(t, toWire.Has(convert.Allocate))

	assert.Equal(t,
		"match x.tag { "+
			"__swift_bridge__ResultPointAndString_Tag::Ok => Ok(unsafe { x.payload.ok }.into_rust_repr()), "+
			"__swift_bridge__ResultPointAndString_Tag::Err => Err(unsafe { Box::from_raw(unsafe { x.payload.err }).0 }) }",
		r.WireToSystems("x").Expr)

	f.gen.ResetNames()
	assert.Contains(t, r.WireToManaged("x").Expr,
		"case __swift_bridge__$ResultPointAndString$ResultOk: return RustResult.Ok(val1.payload.ok.intoSwiftRepr())")
	assert.Contains(t, r.WireToManaged("x").Expr, "default: fatalError()")

	_, ok := f.reg.Lookup("__swift_bridge__$ResultPointAndString")
	assert.True(t, ok)

	r = f.rule(t, "Result<(), Point>")
	assert.Contains(t, r.SystemsToWire("x").Expr, "Ok(_) => __swift_bridge__ResultVoidAndPoint { tag: __swift_bridge__ResultVoidAndPoint_Tag::Ok, payload: unsafe { std::mem::zeroed() } }")
	assert.Contains(t, r.ManagedToWire("x").Expr, "case .Ok(_): return __swift_bridge__$ResultVoidAndPoint(tag: __swift_bridge__$ResultVoidAndPoint$ResultOk, payload: __swift_bridge__$ResultVoidAndPoint$Fields())")
}

func TestTupleRule(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	r := f.rule(t, "(i32, String)")

	toWire := r.SystemsToWire("x")
	assert.Equal(t,
		"{ let (val1, val2) = x; __swift_bridge__tuple_I32String { _0: val1, _1: swift_bridge::string::RustString(val2).box_into_raw() } }",
		toWire.Expr)
	assert.True(t, toWire.Has(convert.Allocate))
	assert.Equal(t, repr.Moved, toWire.Ownership)

	f.gen.ResetNames()
	assert.Equal(t,
		"{ let val1 = x; (val1._0, unsafe { Box::from_raw(val1._1).0 }) }",
		r.WireToSystems("x").Expr)

	f.gen.ResetNames()
	assert.Equal(t,
		"{ let val1 = x; return __swift_bridge__$tuple$I32String(_0: val1.0, _1: "+
			"{ let rustString = val1.1.intoRustString(); rustString.isOwned = false; return rustString.ptr }()) }()",
		r.ManagedToWire("x").Expr)
}

func TestFreshNamesRestartPerFunction(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	typ, err := f.c.ClassifyString("Option<Handle>")
	require.NoError(t, err)

	r := f.gen.Rule(typ)
	assert.Contains(t, r.SystemsToWire("x").Expr, "if let Some(val1) = x")
	assert.Contains(t, r.SystemsToWire("y").Expr, "if let Some(val2) = y")

	f.gen.ResetNames()
	assert.Contains(t, r.SystemsToWire("z").Expr, "if let Some(val1) = z")
}

func TestEffectString(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "allocate", convert.Allocate.String())
	assert.Equal(t, "borrow", convert.Borrow.String())
	assert.Equal(t, "unknown", convert.Effect(42).String())
}
