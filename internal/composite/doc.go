// Package composite decides how composite bridged types are represented on
// the wire. It only selects strategies; internal/repr and internal/convert
// apply them.
//
// Key functions:
//   - SelectOptional: TagOnly, SentinelReuse or TaggedStruct for Option<T>
//   - SelectResult: BoolOnly, PtrAndPtr, NullablePointer or TaggedUnion
//   - NewSequencePolicy: element flow and operation set for Vec<T>
//   - Check: lists unsupported compositions with their exact path
package composite
