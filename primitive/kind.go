package primitive

import (
	"math"
	"strconv"
)

//go:generate go tool stringer -type=KindEnum -output=kind_string.go

type KindEnum int

const (
	_ KindEnum = iota // skip zero value, use it as a default (invalid) value for KindEnum

	KindU8
	KindI8
	KindU16
	KindI16
	KindU32
	KindI32
	KindU64
	KindI64
	KindUsize
	KindIsize
	KindF32
	KindF64
	KindBool

	// KindTotal is a constant that represents the total number of kinds defined
	KindTotal = int(iota)
)

// PointerBits is the width of usize/isize on the wire. Generated glue targets
// 64-bit platforms only.
const PointerBits = 64

func (k KindEnum) IsValid() bool {
	return k > 0 && int(k) < KindTotal
}

func (k KindEnum) IsNumber() bool {
	switch k {
	default:
		return false
	case KindU8, KindI8, KindU16, KindI16, KindU32, KindI32, KindU64, KindI64,
		KindUsize, KindIsize, KindF32, KindF64:
		return true
	}
}

func (k KindEnum) IsInteger() bool {
	switch k {
	default:
		return false
	case KindU8, KindI8, KindU16, KindI16, KindU32, KindI32, KindU64, KindI64,
		KindUsize, KindIsize:
		return true
	}
}

func (k KindEnum) IsFloat() bool {
	switch k {
	default:
		return false
	case KindF32, KindF64:
		return true
	}
}

func (k KindEnum) IsSigned() bool {
	switch k {
	default:
		return false
	case KindI8, KindI16, KindI32, KindI64, KindIsize:
		return true
	}
}

func (k KindEnum) IsUnsigned() bool {
	switch k {
	default:
		return false
	case KindU8, KindU16, KindU32, KindU64, KindUsize:
		return true
	}
}

// Bits returns the width of the kind on the wire. Bool occupies one byte.
func (k KindEnum) Bits() int {
	switch k {
	default:
		panic("bits requested for invalid kind: " + k.String())
	case KindU8, KindI8, KindBool:
		return 8
	case KindU16, KindI16:
		return 16
	case KindU32, KindI32, KindF32:
		return 32
	case KindU64, KindI64, KindF64:
		return 64
	case KindUsize, KindIsize:
		return PointerBits
	}
}

// Size returns the width of the kind in bytes.
func (k KindEnum) Size() int {
	return k.Bits() / 8
}

// FromIdent resolves a systems-language primitive spelling ("u8", "f64",
// "bool", ...). Zero is returned for anything else.
func FromIdent(ident string) KindEnum {
	switch ident {
	case "u8":
		return KindU8
	case "i8":
		return KindI8
	case "u16":
		return KindU16
	case "i16":
		return KindI16
	case "u32":
		return KindU32
	case "i32":
		return KindI32
	case "u64":
		return KindU64
	case "i64":
		return KindI64
	case "usize":
		return KindUsize
	case "isize":
		return KindIsize
	case "f32":
		return KindF32
	case "f64":
		return KindF64
	case "bool":
		return KindBool
	}

	return 0
}

// All returns every valid kind in declaration order.
func All() []KindEnum {
	kinds := make([]KindEnum, 0, KindTotal-1)
	for k := KindEnum(1); int(k) < KindTotal; k++ {
		kinds = append(kinds, k)
	}

	return kinds
}

// ParseLiteral parses lit as a value of the kind and returns its wire bits:
// two's complement for integers, IEEE 754 for floats, 0 or 1 for bool.
func (k KindEnum) ParseLiteral(lit string) (uint64, error) {
	switch {
	case k == KindBool:
		b, err := strconv.ParseBool(lit)
		if err != nil || !b {
			return 0, err
		}

		return 1, nil
	case !k.IsNumber():
		return 0, strconv.ErrSyntax
	case k.IsFloat():
		f, err := strconv.ParseFloat(lit, k.Bits())
		if err != nil {
			return 0, err
		}

		if k == KindF32 {
			return uint64(math.Float32bits(float32(f))), nil
		}

		return math.Float64bits(f), nil
	case k.IsSigned():
		i, err := strconv.ParseInt(lit, 10, k.Bits())
		if err != nil {
			return 0, err
		}

		return uint64(i), nil
	default:
		return strconv.ParseUint(lit, 10, k.Bits())
	}
}
