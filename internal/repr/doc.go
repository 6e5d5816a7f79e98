// Package repr synthesizes the wire representation of bridged types and the
// native type spellings on both sides of the boundary.
//
// Key types:
//   - Synthesizer: Wire, NativeSystems and NativeManaged per bridged type
//   - WireType: the C, systems and managed spelling of one wire value plus
//     the ownership tag it carries
//   - Registry: every composite wire declaration, recorded once by name and
//     returned in dependency order
package repr
