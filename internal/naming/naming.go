// Package naming derives every symbol shared between the generated artifacts.
// All wire names are built from declared identifiers, a prefix and "$"
// separators; systems-side identifiers drop the first "$" and replace the
// others with "_".
package naming

import "strings"

const (
	// DefaultPrefix namespaces every synthesized wire symbol.
	DefaultPrefix = "__swift_bridge__"
	// DefaultRuntimePath is the systems-side path of the runtime support crate.
	DefaultRuntimePath = "swift_bridge"

	// ResultPtrAndPtr is the shared wire struct for results of two pointers.
	ResultPtrAndPtr = "__private__ResultPtrAndPtr"
	// FfiSlice is the shared wire struct for borrowed slices.
	FfiSlice = "__private__FfiSlice"
	// RustStr is the shared wire struct for borrowed text.
	RustStr = "RustStr"

	privateOptionPrefix = "__private__Option"
)

// Namer builds wire symbol names under one prefix.
type Namer struct {
	Prefix string
}

// New returns a Namer; an empty prefix selects DefaultPrefix.
func New(prefix string) Namer {
	if prefix == "" {
		prefix = DefaultPrefix
	}

	return Namer{Prefix: prefix}
}

func (n Namer) join(parts ...string) string {
	return n.Prefix + "$" + strings.Join(parts, "$")
}

// Function names the exported symbol of a free function.
func (n Namer) Function(fn string) string { return n.join(fn) }

// Async names the completion callback of an async function.
func (n Namer) Async(fn string) string { return n.join(fn, "async") }

// Method names a method of a type.
func (n Namer) Method(typ, method string) string { return n.join(typ, method) }

// Free names the deallocation entry point of an opaque type.
func (n Namer) Free(typ string) string { return n.join(typ, "_free") }

// PartialEq names the equality entry point of an opaque type.
func (n Namer) PartialEq(typ string) string { return n.join(typ, "_partial_eq") }

// Hash names the hashing entry point of an opaque type.
func (n Namer) Hash(typ string) string { return n.join(typ, "_hash") }

// VecOp names a sequence operation for the element segment seg.
func (n Namer) VecOp(seg, op string) string { return n.join("Vec_"+seg, op) }

// Shared names the wire struct of a declared struct or enum.
func (n Namer) Shared(name string) string { return n.join(name) }

// Option names the tagged optional struct of a non-primitive payload.
func (n Namer) Option(mangled string) string { return n.join("Option", mangled) }

// Tuple names the wire struct of a tuple.
func (n Namer) Tuple(mangled string) string { return n.join("tuple", mangled) }

// Result names the dedicated tagged union of a result.
func (n Namer) Result(okMangled, errMangled string) string {
	return n.join("Result" + okMangled + "And" + errMangled)
}

// OptionPrimitive names the runtime-provided optional of a primitive. It is
// not namespaced: every declaration group shares it.
func OptionPrimitive(mangled string) string { return privateOptionPrefix + mangled }

// RustIdent turns a wire symbol into a valid systems-side identifier: the
// separator after the prefix is dropped and the remaining ones become "_".
func RustIdent(symbol string) string {
	prefix, rest, ok := strings.Cut(symbol, "$")
	if !ok {
		return symbol
	}

	return prefix + strings.ReplaceAll(rest, "$", "_")
}
