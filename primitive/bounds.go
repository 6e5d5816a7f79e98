package primitive

import "math"

// Boundaries returns representative Go values of the kind: zero, the minimum
// and the maximum. usize and isize use uint64 and int64.
func (k KindEnum) Boundaries() []any {
	switch k {
	case KindU8:
		return []any{uint8(0), uint8(1), uint8(math.MaxUint8)}
	case KindI8:
		return []any{int8(0), int8(math.MinInt8), int8(math.MaxInt8)}
	case KindU16:
		return []any{uint16(0), uint16(1), uint16(math.MaxUint16)}
	case KindI16:
		return []any{int16(0), int16(math.MinInt16), int16(math.MaxInt16)}
	case KindU32:
		return []any{uint32(0), uint32(1), uint32(math.MaxUint32)}
	case KindI32:
		return []any{int32(0), int32(math.MinInt32), int32(math.MaxInt32)}
	case KindU64, KindUsize:
		return []any{uint64(0), uint64(1), uint64(math.MaxUint64)}
	case KindI64, KindIsize:
		return []any{int64(0), int64(math.MinInt64), int64(math.MaxInt64)}
	case KindF32:
		return []any{float32(0), float32(-math.MaxFloat32), float32(math.MaxFloat32), float32(math.SmallestNonzeroFloat32)}
	case KindF64:
		return []any{float64(0), -math.MaxFloat64, math.MaxFloat64, math.SmallestNonzeroFloat64}
	case KindBool:
		return []any{false, true}
	default:
		return nil
	}
}
