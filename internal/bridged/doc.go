// Package bridged defines the closed taxonomy of types that can cross the
// bridge and the classifier that produces them from type expressions.
//
// Key types:
//   - Type: sealed interface implemented by exactly thirteen variants
//     (Primitive, Null, Str, String, Slice, Sequence, Optional, Result,
//     Pointer, Tuple, Opaque, Product, Sum)
//   - Visitor: one method per variant; Visit is the only type switch over
//     the taxonomy, every consumer implements Visitor instead
//   - Table: user declarations (opaque types, structs, enums)
//   - Classifier: type expression + Table -> Type
//   - Shape: how a type's wire form can signal absence
//
// Two structurally identical types always render the same String() and the
// same Mangle() name; consumers key caches and registries on those.
package bridged
