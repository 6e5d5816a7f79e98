// Package wire is a Go model of the boundary between the two sides.
//
// A Codec lowers Go values of a bridged type into the C layout the generated
// glue uses and lifts them back. Heap-allocated data lives in a Heap of
// handles so that ownership transfer can be checked: lifting an owned value
// frees its handle, and using a freed handle is an error.
//
// The codec exists to test the generated representations; it never runs in
// generated code.
package wire
