package composite_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bridgegen/internal/bridged"
	"bridgegen/internal/composite"
)

func classifier(t *testing.T) *bridged.Classifier {
	t.Helper()

	table := bridged.NewTable()
	require.NoError(t, table.AddOpaque(&bridged.OpaqueDecl{Name: "Handle"}))
	require.NoError(t, table.AddOpaque(&bridged.OpaqueDecl{Name: "Pixel", InlineSize: 4}))
	require.NoError(t, table.AddOpaque(&bridged.OpaqueDecl{Name: "View", Side: bridged.SideManaged}))
	require.NoError(t, table.AddStruct(&bridged.StructDecl{Name: "Point", Fields: []bridged.FieldDecl{{Name: "x", Src: "f64"}}}))
	require.NoError(t, table.AddStruct(&bridged.StructDecl{Name: "Unit"}))
	require.NoError(t, table.AddEnum(&bridged.EnumDecl{Name: "Failure", Variants: []bridged.VariantDecl{{Name: "A"}}}))

	return bridged.NewClassifier(table)
}

func classify(t *testing.T, c *bridged.Classifier, src string) bridged.Type {
	t.Helper()

	typ, err := c.ClassifyString(src)
	require.NoError(t, err, src)

	return typ
}

func TestSelectOptional(t *testing.T) {
	t.Parallel()

	c := classifier(t)

	tests := []struct {
		inner string
		want  composite.OptionalStrategy
	}{
		{"()", composite.OptionalTagOnly},
		{"Unit", composite.OptionalTagOnly},
		{"Handle", composite.OptionalSentinelReuse},
		{"&Handle", composite.OptionalSentinelReuse},
		{"String", composite.OptionalSentinelReuse},
		{"Vec<u8>", composite.OptionalSentinelReuse},
		{"&str", composite.OptionalSentinelReuse},
		{"&[u8]", composite.OptionalSentinelReuse},
		{"u8", composite.OptionalTaggedStruct},
		{"bool", composite.OptionalTaggedStruct},
		{"Pixel", composite.OptionalTaggedStruct},
		{"Point", composite.OptionalTaggedStruct},
		{"Option<String>", composite.OptionalTaggedStruct},
		{"Option<u8>", composite.OptionalTaggedStruct},
		{"*const u8", composite.OptionalTaggedStruct},
	}

	for _, tt := range tests {
		got, expl := composite.SelectOptional(classify(t, c, tt.inner))
		assert.Equal(t, tt.want, got, tt.inner)
		assert.NotEmpty(t, expl)
	}
}

func TestSelectResult(t *testing.T) {
	t.Parallel()

	c := classifier(t)

	tests := []struct {
		src       string
		want      composite.ResultStrategy
		nullMeans bool
	}{
		{"Result<(), ()>", composite.ResultBoolOnly, false},
		{"Result<Handle, String>", composite.ResultPtrAndPtr, false},
		{"Result<String, Vec<u8>>", composite.ResultPtrAndPtr, false},
		{"Result<(), Handle>", composite.ResultNullablePointer, true},
		{"Result<Handle, ()>", composite.ResultNullablePointer, false},
		{"Result<Point, Failure>", composite.ResultTaggedUnion, false},
		{"Result<u32, String>", composite.ResultTaggedUnion, false},
		{"Result<(), Failure>", composite.ResultTaggedUnion, true},
		{"Result<Option<Handle>, String>", composite.ResultTaggedUnion, false},
	}

	for _, tt := range tests {
		r, ok := classify(t, c, tt.src).(bridged.Result)
		require.True(t, ok)

		got, _ := composite.SelectResult(r.Ok, r.Err)
		assert.Equal(t, tt.want, got, tt.src)
		assert.Equal(t, tt.nullMeans, composite.NullMeansOk(r), tt.src)
	}
}

func TestSequencePolicy(t *testing.T) {
	t.Parallel()

	c := classifier(t)

	tests := []struct {
		elem    string
		segment string
		flow    composite.ElementFlow
	}{
		{"u8", "u8", composite.ElementByValue},
		{"usize", "usize", composite.ElementByValue},
		{"String", "RustString", composite.ElementByPointer},
		{"Handle", "Handle", composite.ElementByPointer},
		{"Pixel", "Pixel", composite.ElementByValue},
		{"Point", "Point", composite.ElementByValue},
		{"Failure", "Failure", composite.ElementByValue},
	}

	for _, tt := range tests {
		p := composite.NewSequencePolicy(classify(t, c, tt.elem))
		assert.Equal(t, tt.segment, p.Segment, tt.elem)
		assert.Equal(t, tt.flow, p.Flow, tt.elem)
	}

	assert.Equal(t, []string{"new", "drop", "len", "get", "get_mut", "push", "pop", "as_ptr"}, composite.VecOps)
}

func TestPlaceholder(t *testing.T) {
	t.Parallel()

	c := classifier(t)

	assert.Equal(t, "123", composite.Placeholder(classify(t, c, "i64")))
	assert.Equal(t, "123.4", composite.Placeholder(classify(t, c, "f32")))
	assert.Equal(t, "false", composite.Placeholder(classify(t, c, "bool")))
	assert.Equal(t, "std::ptr::null_mut()", composite.Placeholder(classify(t, c, "*mut u8")))
	assert.Equal(t, "unsafe { std::mem::zeroed() }", composite.Placeholder(classify(t, c, "Point")))
}

func TestCheck(t *testing.T) {
	t.Parallel()

	c := classifier(t)

	supported := []string{
		"u8", "Vec<u8>", "Vec<String>", "Vec<Handle>", "Vec<Pixel>", "Vec<Point>", "Vec<Failure>",
		"&[u8]", "&mut [f64]", "Option<Option<u8>>", "Option<Vec<Handle>>", "Option<&str>",
		"Option<&[u8]>", "Result<(), Handle>", "Result<Vec<u8>, String>", "(u8, String)",
		"*const u8", "*mut c_void", "*const Point", "Option<&Handle>",
	}

	for _, src := range supported {
		assert.Empty(t, composite.Check(classify(t, c, src)), src)
	}

	tests := []struct {
		src    string
		path   string
		reason string
	}{
		{"&[String]", "", "only primitive elements"},
		{"Vec<&str>", "", "cannot be stored in a sequence"},
		{"Vec<&Handle>", "", "cannot be stored in a sequence"},
		{"Vec<View>", "", "managed-side"},
		{"Vec<Vec<u8>>", "", "sequences of Vec<u8>"},
		{"Vec<Option<u8>>", "", "sequences of Option<u8>"},
		{"Result<&str, String>", "", "result ok payload"},
		{"Result<u8, &mut Handle>", "", "result err payload"},
		{"*const String", "", "pointers to String"},
		{"Option<Vec<&[u8]>>", "Option.inner", "cannot be stored in a sequence"},
		{"Result<(), Vec<(u8, u8)>>", "Result.err", "sequences of (u8, u8)"},
		{"(u8, &[Point])", "Tuple._1", "top level"},
		{"(u8, &str)", "Tuple._1", "top level"},
		{"Option<Option<&str>>", "Option.inner/Option.inner", "top level"},
	}

	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			t.Parallel()

			found := composite.Check(classify(t, c, tt.src))
			require.NotEmpty(t, found)
			assert.Equal(t, tt.path, found[0].Path)
			assert.Contains(t, found[0].Reason, tt.reason)
			assert.Contains(t, found[0].String(), tt.reason)
		})
	}
}

func TestCheckField(t *testing.T) {
	t.Parallel()

	c := classifier(t)

	assert.Empty(t, composite.CheckField(classify(t, c, "Option<String>")))
	assert.NotEmpty(t, composite.CheckField(classify(t, c, "&str")))
	assert.NotEmpty(t, composite.CheckField(classify(t, c, "&Handle")))
	assert.NotEmpty(t, composite.CheckField(classify(t, c, "Vec<&str>")))
}
