package bridged_test

import (
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bridgegen/internal/bridged"
	"bridgegen/internal/typeexpr"
)

func newTable(t *testing.T) *bridged.Table {
	t.Helper()

	table := bridged.NewTable()
	require.NoError(t, table.AddOpaque(&bridged.OpaqueDecl{Name: "SomeType"}))
	require.NoError(t, table.AddOpaque(&bridged.OpaqueDecl{Name: "Pixel", InlineSize: 4}))
	require.NoError(t, table.AddOpaque(&bridged.OpaqueDecl{Name: "Callback", Side: bridged.SideManaged}))
	require.NoError(t, table.AddStruct(&bridged.StructDecl{
		Name:   "Point",
		Fields: []bridged.FieldDecl{{Name: "x", Src: "f64"}, {Name: "y", Src: "f64"}},
	}))
	require.NoError(t, table.AddStruct(&bridged.StructDecl{Name: "Marker"}))
	require.NoError(t, table.AddEnum(&bridged.EnumDecl{
		Name:     "Status",
		Variants: []bridged.VariantDecl{{Name: "Idle"}, {Name: "Busy"}},
	}))

	return table
}

func TestClassifyCanonicalForms(t *testing.T) {
	t.Parallel()

	c := bridged.NewClassifier(newTable(t))

	tests := []struct {
		src  string
		kind bridged.Kind
		want string
	}{
		{"u8", bridged.KindPrimitive, "u8"},
		{"()", bridged.KindNull, "()"},
		{"(u32,)", bridged.KindPrimitive, "u32"},
		{"&'static str", bridged.KindStr, "&str"},
		{"std::string::String", bridged.KindString, "String"},
		{"&mut [f32]", bridged.KindSlice, "&mut [f32]"},
		{"std::vec::Vec<u8>", bridged.KindSequence, "Vec<u8>"},
		{"Option<Option<f64>>", bridged.KindOptional, "Option<Option<f64>>"},
		{"Result<(), super::SomeType>", bridged.KindResult, "Result<(), SomeType>"},
		{"*const c_void", bridged.KindPointer, "*const c_void"},
		{"*mut crate::SomeType", bridged.KindPointer, "*mut SomeType"},
		{"(i32, u8)", bridged.KindTuple, "(i32, u8)"},
		{"&SomeType", bridged.KindOpaque, "&SomeType"},
		{"&'a mut self::SomeType", bridged.KindOpaque, "&mut SomeType"},
		{"Point", bridged.KindProduct, "Point"},
		{"Status", bridged.KindSum, "Status"},
	}

	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			t.Parallel()

			got, err := c.ClassifyString(tt.src)
			require.NoError(t, err)
			assert.Equal(t, tt.kind, got.Kind())
			assert.Equal(t, tt.want, got.String())

			again, ok := c.Classify(typeexpr.MustParse(got.String()))
			require.True(t, ok)
			assert.True(t, bridged.Equal(got, again))
			assert.Equal(t, bridged.Mangle(got), bridged.Mangle(again))
		})
	}
}

func TestClassifyOpaqueModes(t *testing.T) {
	t.Parallel()

	c := bridged.NewClassifier(newTable(t))

	for src, mode := range map[string]bridged.RefMode{
		"SomeType":      bridged.Owned,
		"&SomeType":     bridged.Borrowed,
		"&mut SomeType": bridged.BorrowedMut,
	} {
		got, err := c.ClassifyString(src)
		require.NoError(t, err, src)

		opaque, ok := got.(bridged.Opaque)
		require.True(t, ok, src)
		assert.Equal(t, mode, opaque.Mode, src)
		assert.Equal(t, "SomeType", opaque.Owned().String())
	}
}

func TestClassifyUnresolved(t *testing.T) {
	t.Parallel()

	c := bridged.NewClassifier(newTable(t))

	tests := []struct {
		src    string
		reason string
	}{
		{"Unknown", "not declared"},
		{"Vec<Unknown>", "not declared"},
		{"&Unknown", "not declared"},
		{"&Point", "references are only supported"},
		{"&mut str", "&mut str"},
		{"str", "must be borrowed"},
		{"[u8]", "must be borrowed"},
		{"Vec<u8, u8>", "expects 1"},
		{"Result<u8>", "expects 2"},
		{"u8<u16>", "no type arguments"},
		{"HashMap<u8, u8>", "generic type"},
		{"other::Thing", "qualified path"},
	}

	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			t.Parallel()

			_, ok := c.Classify(typeexpr.MustParse(tt.src))
			assert.False(t, ok)

			_, err := c.ClassifyString(tt.src)

			var unresolved *bridged.UnresolvedError
			require.ErrorAs(t, err, &unresolved)
			assert.Contains(t, unresolved.Reason, tt.reason)
		})
	}

	for src, want := range map[string]string{"Vec<Missing>": "Missing", "&mut Missing": "Missing", "&Point": "", "str": ""} {
		_, err := c.ClassifyString(src)

		var unresolved *bridged.UnresolvedError
		require.ErrorAs(t, err, &unresolved)
		assert.Equal(t, want, unresolved.Undeclared, src)
	}

	_, err := c.ClassifyString("Vec<")

	var syntaxErr *typeexpr.SyntaxError
	assert.ErrorAs(t, err, &syntaxErr)
}

func TestTableNames(t *testing.T) {
	t.Parallel()

	names := newTable(t).Names()

	assert.Contains(t, names, "Point")
	assert.Contains(t, names, "Status")
	assert.Contains(t, names, "String")
	assert.Contains(t, names, "u8")
	assert.True(t, slices.IsSorted(names))
	assert.Len(t, names, len(slices.Compact(slices.Clone(names))))
}

func TestShapeOf(t *testing.T) {
	t.Parallel()

	c := bridged.NewClassifier(newTable(t))

	tests := []struct {
		src  string
		want bridged.Shape
	}{
		{"()", bridged.ShapeZeroByte},
		{"Marker", bridged.ShapeZeroByte},
		{"String", bridged.ShapePointer},
		{"Vec<u8>", bridged.ShapePointer},
		{"SomeType", bridged.ShapePointer},
		{"&mut SomeType", bridged.ShapePointer},
		{"Callback", bridged.ShapePointer},
		{"&str", bridged.ShapeView},
		{"&[u16]", bridged.ShapeView},
		{"u8", bridged.ShapeValue},
		{"Pixel", bridged.ShapeValue},
		{"Point", bridged.ShapeValue},
		{"Status", bridged.ShapeValue},
		{"*const u8", bridged.ShapeValue},
		{"Option<String>", bridged.ShapeValue},
		{"Result<String, String>", bridged.ShapeValue},
	}

	for _, tt := range tests {
		got, err := c.ClassifyString(tt.src)
		require.NoError(t, err, tt.src)
		assert.Equal(t, tt.want, bridged.ShapeOf(got), tt.src)
	}

	assert.True(t, bridged.ShapeView.HasSentinel())
	assert.False(t, bridged.ShapeZeroByte.HasSentinel())
}

func TestMangle(t *testing.T) {
	t.Parallel()

	c := bridged.NewClassifier(newTable(t))

	tests := map[string]string{
		"u8":                            "U8",
		"usize":                         "Usize",
		"Option<Vec<u8>>":               "OptionVecU8",
		"Result<(i32, u32), Status>":    "ResultTupleI32U32AndStatus",
		"Result<SomeType, String>":      "ResultSomeTypeAndString",
		"&mut SomeType":                 "SomeTypeRefMut",
		"*const std::ffi::c_void":       "ConstPtrc_void",
		"Option<&[u8]>":                 "OptionSliceU8",
		"Vec<Point>":                    "VecPoint",
		"Result<(), Option<&SomeType>>": "ResultVoidAndOptionSomeTypeRef",
	}

	for src, want := range tests {
		got, err := c.ClassifyString(src)
		require.NoError(t, err, src)
		assert.Equal(t, want, bridged.Mangle(got), src)
	}
}

func TestTableConflicts(t *testing.T) {
	t.Parallel()

	table := newTable(t)

	err := table.AddStruct(&bridged.StructDecl{Name: "SomeType"})

	var conflict *bridged.ConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, "opaque type", conflict.Existing)
	assert.Equal(t, "struct", conflict.New)

	err = table.AddOpaque(&bridged.OpaqueDecl{Name: "String"})
	require.ErrorAs(t, err, &conflict)
	assert.Contains(t, err.Error(), "built-in")

	assert.Error(t, table.AddEnum(&bridged.EnumDecl{Name: "u8"}))

	assert.Equal(t, 6, table.Len())
	assert.Len(t, table.Opaques(), 3)
	assert.Equal(t, "SomeType", table.Opaques()[0].Name)
}

func TestDeclHelpers(t *testing.T) {
	t.Parallel()

	e := &bridged.EnumDecl{Name: "E", Variants: []bridged.VariantDecl{{Name: "A"}}}
	assert.False(t, e.HasData())
	assert.Equal(t, "E", e.ManagedIdent())

	e.Variants = append(e.Variants, bridged.VariantDecl{Name: "B", Fields: []bridged.FieldDecl{{Src: "u8"}}})
	e.ManagedName = "SwiftE"
	assert.True(t, e.HasData())
	assert.Equal(t, "SwiftE", e.ManagedIdent())
}

type nilType struct{ bridged.Null }

func TestVisitPanicsOnForeignType(t *testing.T) {
	t.Parallel()

	assert.PanicsWithValue(t, "internal error: unhandled bridged type bridged_test.nilType", func() {
		bridged.ShapeOf(nilType{})
	})
}
