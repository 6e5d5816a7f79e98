package wire_test

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bridgegen/internal/bridged"
	"bridgegen/internal/errors"
	"bridgegen/internal/wire"
	"bridgegen/primitive"
)

func classifier(t *testing.T) *bridged.Classifier {
	t.Helper()

	table := bridged.NewTable()
	require.NoError(t, table.AddOpaque(&bridged.OpaqueDecl{Name: "Handle"}))
	require.NoError(t, table.AddOpaque(&bridged.OpaqueDecl{Name: "Pixel", InlineSize: 3}))
	require.NoError(t, table.AddStruct(&bridged.StructDecl{
		Name: "Mixed",
		Fields: []bridged.FieldDecl{
			{Name: "a", Type: bridged.Prim(primitive.KindU8)},
			{Name: "b", Type: bridged.Prim(primitive.KindU64)},
			{Name: "c", Type: bridged.String{}},
		},
	}))
	require.NoError(t, table.AddStruct(&bridged.StructDecl{Name: "Empty"}))
	require.NoError(t, table.AddEnum(&bridged.EnumDecl{
		Name: "Data",
		Variants: []bridged.VariantDecl{
			{Name: "Nothing"},
			{Name: "Byte", Unnamed: true, Fields: []bridged.FieldDecl{{Type: bridged.Prim(primitive.KindU8)}}},
			{Name: "Pair", Fields: []bridged.FieldDecl{
				{Name: "x", Type: bridged.Prim(primitive.KindF64)},
				{Name: "label", Type: bridged.String{}},
			}},
		},
	}))

	return bridged.NewClassifier(table)
}

func TestRoundTrip(t *testing.T) {
	t.Parallel()

	tests := []struct {
		src    string
		values []wire.Value
	}{
		{"u8", []wire.Value{uint8(0), uint8(math.MaxUint8)}},
		{"i8", []wire.Value{int8(0), int8(math.MinInt8), int8(math.MaxInt8)}},
		{"u16", []wire.Value{uint16(0), uint16(math.MaxUint16)}},
		{"i16", []wire.Value{int16(0), int16(math.MinInt16), int16(math.MaxInt16)}},
		{"u32", []wire.Value{uint32(0), uint32(math.MaxUint32)}},
		{"i32", []wire.Value{int32(0), int32(math.MinInt32), int32(math.MaxInt32)}},
		{"u64", []wire.Value{uint64(0), uint64(math.MaxUint64)}},
		{"i64", []wire.Value{int64(0), int64(math.MinInt64), int64(math.MaxInt64)}},
		{"usize", []wire.Value{uint64(0), uint64(math.MaxUint64)}},
		{"isize", []wire.Value{int64(0), int64(math.MinInt64), int64(math.MaxInt64)}},
		{"f32", []wire.Value{float32(0), float32(-math.MaxFloat32), float32(math.MaxFloat32)}},
		{"f64", []wire.Value{float64(0), -math.MaxFloat64, math.MaxFloat64, math.SmallestNonzeroFloat64}},
		{"bool", []wire.Value{false, true}},
		{"()", []wire.Value{wire.Unit{}}},
		{"&str", []wire.Value{"", "héllo"}},
		{"String", []wire.Value{"", "owned text"}},
		{"&[u16]", []wire.Value{[]wire.Value{}, []wire.Value{uint16(1), uint16(math.MaxUint16)}}},
		{"Vec<u8>", []wire.Value{[]wire.Value{}, []wire.Value{uint8(1), uint8(2), uint8(3)}}},
		{"Vec<String>", []wire.Value{[]wire.Value{"a", ""}}},
		{"*const u8", []wire.Value{wire.Address(0), wire.Address(0xdeadbeef)}},
		{"Option<()>", []wire.Value{wire.None, wire.Some(wire.Unit{})}},
		{"Option<u8>", []wire.Value{wire.None, wire.Some(uint8(0)), wire.Some(uint8(9))}},
		{"Option<f64>", []wire.Value{wire.None, wire.Some(1.5)}},
		{"Option<String>", []wire.Value{wire.None, wire.Some(""), wire.Some("x")}},
		{"Option<&str>", []wire.Value{wire.None, wire.Some("")}},
		{"Option<Option<u8>>", []wire.Value{wire.None, wire.Some(wire.None), wire.Some(wire.Some(uint8(3)))}},
		{"Option<Vec<u8>>", []wire.Value{wire.None, wire.Some([]wire.Value{uint8(4)})}},
		{"Option<Pixel>", []wire.Value{wire.None, wire.Some([]byte{1, 2, 3})}},
		{"Result<(), ()>", []wire.Value{wire.Ok(wire.Unit{}), wire.Err(wire.Unit{})}},
		{"Result<String, String>", []wire.Value{wire.Ok("fine"), wire.Err("broken")}},
		{"Result<(), Handle>", []wire.Value{wire.Ok(wire.Unit{}), wire.Err("handle state")}},
		{"Result<Handle, ()>", []wire.Value{wire.Ok("handle state"), wire.Err(wire.Unit{})}},
		{"Result<u8, String>", []wire.Value{wire.Ok(uint8(7)), wire.Err("bad")}},
		{"Result<(), u8>", []wire.Value{wire.Ok(wire.Unit{}), wire.Err(uint8(1))}},
		{"(u8, u32)", []wire.Value{wire.Record{uint8(1), uint32(math.MaxUint32)}}},
		{"(String, Option<u8>, bool)", []wire.Value{wire.Record{"s", wire.Some(uint8(2)), true}}},
		{"Mixed", []wire.Value{wire.Record{uint8(1), uint64(2), "three"}}},
		{"Empty", []wire.Value{wire.Record{}}},
		{"Option<Empty>", []wire.Value{wire.None, wire.Some(wire.Record{})}},
		{"Data", []wire.Value{
			wire.Variant{Index: 0},
			wire.Variant{Index: 1, Fields: wire.Record{uint8(5)}},
			wire.Variant{Index: 2, Fields: wire.Record{2.5, "label"}},
		}},
		{"Vec<Data>", []wire.Value{[]wire.Value{wire.Variant{Index: 0}, wire.Variant{Index: 1, Fields: wire.Record{uint8(1)}}}}},
		{"Pixel", []wire.Value{[]byte{0, 0, 0}, []byte{255, 128, 1}}},
		{"Handle", []wire.Value{"handle state"}},
	}

	c := classifier(t)

	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			t.Parallel()

			typ, err := c.ClassifyString(tt.src)
			require.NoError(t, err)

			codec := wire.NewCodec(wire.NewHeap())

			for _, v := range tt.values {
				b, err := codec.Lower(typ, v)
				require.NoError(t, err)
				assert.Len(t, b, codec.Size(typ))

				got, err := codec.Lift(typ, b)
				require.NoError(t, err)

				if diff := cmp.Diff(v, got); diff != "" {
					t.Errorf("%s round trip mismatch (-want +got):\n%s", tt.src, diff)
				}
			}
		})
	}
}

func TestOwnedValuesAreFreedOnLift(t *testing.T) {
	t.Parallel()

	c := classifier(t)
	codec := wire.NewCodec(wire.NewHeap())

	for _, src := range []string{"String", "Vec<String>", "Handle", "Mixed", "Option<String>"} {
		typ, err := c.ClassifyString(src)
		require.NoError(t, err)

		var v wire.Value

		switch src {
		case "Vec<String>":
			v = []wire.Value{"a", "b"}
		case "Mixed":
			v = wire.Record{uint8(1), uint64(2), "three"}
		case "Option<String>":
			v = wire.Some("text")
		default:
			v = "value"
		}

		b, err := codec.Lower(typ, v)
		require.NoError(t, err)
		assert.Positive(t, codec.Heap().Live(), src)

		_, err = codec.Lift(typ, b)
		require.NoError(t, err)
		assert.Zero(t, codec.Heap().Live(), src)

		_, err = codec.Lift(typ, b)
		require.Error(t, err, src)
		assert.True(t, errors.Is(err, wire.ErrDoubleFree), src)
	}
}

func TestBorrowedValuesStayWithOwner(t *testing.T) {
	t.Parallel()

	c := classifier(t)
	codec := wire.NewCodec(wire.NewHeap())

	for _, src := range []string{"&str", "&Handle", "&mut Handle", "&[u8]"} {
		typ, err := c.ClassifyString(src)
		require.NoError(t, err)

		v := wire.Value("borrowed")
		if src == "&[u8]" {
			v = []wire.Value{uint8(1)}
		}

		b, err := codec.Lower(typ, v)
		require.NoError(t, err)

		for range 2 {
			got, err := codec.Lift(typ, b)
			require.NoError(t, err, src)
			assert.Equal(t, v, got, src)
		}
	}

	assert.Equal(t, 4, codec.Heap().Live())
}

func TestLowerMismatch(t *testing.T) {
	t.Parallel()

	c := classifier(t)
	codec := wire.NewCodec(wire.NewHeap())

	tests := []struct {
		src string
		v   wire.Value
	}{
		{"u8", 3},
		{"i64", uint64(1)},
		{"String", []byte("x")},
		{"Option<u8>", uint8(1)},
		{"(u8, u8)", wire.Record{uint8(1)}},
		{"Data", wire.Variant{Index: 9}},
		{"Data", wire.Variant{Index: 1}},
		{"Pixel", []byte{1}},
	}

	for _, tt := range tests {
		typ, err := c.ClassifyString(tt.src)
		require.NoError(t, err)

		_, err = codec.Lower(typ, tt.v)
		require.Error(t, err, tt.src)
		assert.True(t, errors.Is(err, wire.ErrValueMismatch), tt.src)
	}
}

func TestLiftShortBuffer(t *testing.T) {
	t.Parallel()

	codec := wire.NewCodec(wire.NewHeap())

	_, err := codec.Lift(bridged.Prim(primitive.KindU32), []byte{1, 2})
	require.Error(t, err)
}

func TestLowerLayout(t *testing.T) {
	t.Parallel()

	c := classifier(t)
	codec := wire.NewCodec(wire.NewHeap())

	typ, err := c.ClassifyString("Option<u32>")
	require.NoError(t, err)

	b, err := codec.Lower(typ, wire.Some(uint32(0x01020304)))
	require.NoError(t, err)

	// Runtime primitive optionals carry the payload before the flag.
	if diff := cmp.Diff([]byte{4, 3, 2, 1, 1, 0, 0, 0}, b); diff != "" {
		t.Errorf("Option<u32> bytes mismatch (-want +got):\n%s", diff)
	}

	typ, err = c.ClassifyString("Result<u8, String>")
	require.NoError(t, err)

	b, err = codec.Lower(typ, wire.Ok(uint8(9)))
	require.NoError(t, err)
	require.Len(t, b, 16)
	assert.Equal(t, []byte{0, 0, 0, 0}, b[:4])
	assert.Equal(t, byte(9), b[8])
}

func TestLowerAbsentWritesPlaceholder(t *testing.T) {
	t.Parallel()

	c := classifier(t)
	codec := wire.NewCodec(wire.NewHeap())

	typ, err := c.ClassifyString("Option<u32>")
	require.NoError(t, err)

	b, err := codec.Lower(typ, wire.None)
	require.NoError(t, err)

	if diff := cmp.Diff([]byte{123, 0, 0, 0, 0, 0, 0, 0}, b); diff != "" {
		t.Errorf("absent Option<u32> bytes mismatch (-want +got):\n%s", diff)
	}

	v, err := codec.Lift(typ, b)
	require.NoError(t, err)
	assert.Equal(t, wire.None, v)

	typ, err = c.ClassifyString("Option<f32>")
	require.NoError(t, err)

	b, err = codec.Lower(typ, wire.None)
	require.NoError(t, err)
	require.Len(t, b, 8)

	bits := uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24
	assert.InDelta(t, 123.4, math.Float32frombits(bits), 1e-4)
	assert.Equal(t, byte(0), b[4])
}
