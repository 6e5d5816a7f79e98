package primitive_test

import (
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bridgegen/primitive"
)

func Example() {
	fmt.Println(primitive.FromIdent("u8"))
	fmt.Println(primitive.FromIdent("usize"))
	fmt.Println(primitive.FromIdent("f64"))
	fmt.Println(primitive.FromIdent("bool"))
	fmt.Println(primitive.FromIdent("String"))
	// Output:
	// KindU8
	// KindUsize
	// KindF64
	// KindBool
	// KindEnum(0)
}

func TestKindClassification(t *testing.T) {
	t.Parallel()

	for _, k := range primitive.All() {
		assert.True(t, k.IsValid(), k.String())

		if k == primitive.KindBool {
			assert.False(t, k.IsNumber())
			continue
		}

		assert.True(t, k.IsNumber(), k.String())
		assert.NotEqual(t, k.IsInteger(), k.IsFloat(), k.String())

		if k.IsInteger() {
			assert.NotEqual(t, k.IsSigned(), k.IsUnsigned(), k.String())
		}
	}

	assert.Len(t, primitive.All(), primitive.KindTotal-1)
	assert.False(t, primitive.KindEnum(0).IsValid())
}

func TestKindSizes(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 1, primitive.KindU8.Size())
	assert.Equal(t, 1, primitive.KindBool.Size())
	assert.Equal(t, 2, primitive.KindI16.Size())
	assert.Equal(t, 4, primitive.KindF32.Size())
	assert.Equal(t, 8, primitive.KindUsize.Size())
	assert.Equal(t, 8, primitive.KindF64.Size())

	assert.Panics(t, func() { primitive.KindEnum(0).Bits() })
}

func TestSpellings(t *testing.T) {
	t.Parallel()

	tests := []struct {
		kind primitive.KindEnum
		want primitive.Spelling
	}{
		{primitive.KindU8, primitive.Spelling{Systems: "u8", Managed: "UInt8", C: "uint8_t", Mangled: "U8"}},
		{primitive.KindIsize, primitive.Spelling{Systems: "isize", Managed: "Int", C: "intptr_t", Mangled: "Isize"}},
		{primitive.KindF32, primitive.Spelling{Systems: "f32", Managed: "Float", C: "float", Mangled: "F32"}},
		{primitive.KindBool, primitive.Spelling{Systems: "bool", Managed: "Bool", C: "bool", Mangled: "Bool"}},
	}

	for _, tt := range tests {
		t.Run(tt.kind.String(), func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tt.want, tt.kind.Spell())
			assert.Equal(t, tt.kind, primitive.FromIdent(tt.want.Systems))
		})
	}
}

func TestPlaceholders(t *testing.T) {
	t.Parallel()

	for _, k := range primitive.All() {
		_, err := k.ParseLiteral(k.Placeholder())
		require.NoError(t, err, k.String())
	}

	assert.Equal(t, "123", primitive.KindU8.Placeholder())
	assert.Equal(t, "123.4", primitive.KindF32.Placeholder())
	assert.Equal(t, "false", primitive.KindBool.Placeholder())
}

func TestBoundaries(t *testing.T) {
	t.Parallel()

	for _, k := range primitive.All() {
		values := k.Boundaries()
		require.NotEmpty(t, values, k.String())
		assert.Zero(t, values[0], k.String())
	}

}

func TestParseLiteral(t *testing.T) {
	t.Parallel()

	tests := []struct {
		kind primitive.KindEnum
		lit  string
		want uint64
	}{
		{primitive.KindU8, "123", 123},
		{primitive.KindI8, "-128", 0xffffffffffffff80},
		{primitive.KindU64, "18446744073709551615", 0xffffffffffffffff},
		{primitive.KindF32, "123.4", uint64(math.Float32bits(123.4))},
		{primitive.KindF64, "123.4", math.Float64bits(123.4)},
		{primitive.KindBool, "true", 1},
		{primitive.KindBool, "false", 0},
	}

	for _, tt := range tests {
		got, err := tt.kind.ParseLiteral(tt.lit)
		require.NoError(t, err, "%s %s", tt.kind, tt.lit)
		assert.Equal(t, tt.want, got, "%s %s", tt.kind, tt.lit)
	}

	for _, bad := range []struct {
		kind primitive.KindEnum
		lit  string
	}{
		{primitive.KindU8, "256"},
		{primitive.KindI8, "-129"},
		{primitive.KindU32, "-1"},
		{primitive.KindBool, "yes"},
		{primitive.KindEnum(0), "1"},
	} {
		_, err := bad.kind.ParseLiteral(bad.lit)
		assert.Error(t, err, "%s %s", bad.kind, bad.lit)
	}
}
