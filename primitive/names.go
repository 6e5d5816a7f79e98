package primitive

// Spelling holds the per-language names of a primitive kind.
type Spelling struct {
	// Systems is the Rust spelling ("u8").
	Systems string
	// Managed is the Swift spelling ("UInt8").
	Managed string
	// C is the C header spelling ("uint8_t").
	C string
	// Mangled is the fragment used in synthesized wire names ("U8").
	Mangled string
}

var spellings map[KindEnum]Spelling

func init() {
	spellings = map[KindEnum]Spelling{
		KindU8:    {Systems: "u8", Managed: "UInt8", C: "uint8_t", Mangled: "U8"},
		KindI8:    {Systems: "i8", Managed: "Int8", C: "int8_t", Mangled: "I8"},
		KindU16:   {Systems: "u16", Managed: "UInt16", C: "uint16_t", Mangled: "U16"},
		KindI16:   {Systems: "i16", Managed: "Int16", C: "int16_t", Mangled: "I16"},
		KindU32:   {Systems: "u32", Managed: "UInt32", C: "uint32_t", Mangled: "U32"},
		KindI32:   {Systems: "i32", Managed: "Int32", C: "int32_t", Mangled: "I32"},
		KindU64:   {Systems: "u64", Managed: "UInt64", C: "uint64_t", Mangled: "U64"},
		KindI64:   {Systems: "i64", Managed: "Int64", C: "int64_t", Mangled: "I64"},
		KindUsize: {Systems: "usize", Managed: "UInt", C: "uintptr_t", Mangled: "Usize"},
		KindIsize: {Systems: "isize", Managed: "Int", C: "intptr_t", Mangled: "Isize"},
		KindF32:   {Systems: "f32", Managed: "Float", C: "float", Mangled: "F32"},
		KindF64:   {Systems: "f64", Managed: "Double", C: "double", Mangled: "F64"},
		KindBool:  {Systems: "bool", Managed: "Bool", C: "bool", Mangled: "Bool"},
	}
}

// Spell returns the spellings of k. It panics on an invalid kind.
func (k KindEnum) Spell() Spelling {
	s, ok := spellings[k]
	if !ok {
		panic("no spelling for kind: " + k.String())
	}

	return s
}

// Placeholder returns the literal written into the value slot of an absent
// optional. The value is never read; it only keeps the layout initialized.
func (k KindEnum) Placeholder() string {
	switch {
	case k.IsFloat():
		return "123.4"
	case k.IsInteger():
		return "123"
	default:
		return "false"
	}
}
