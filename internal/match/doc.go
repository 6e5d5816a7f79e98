// Package match ranks declared names against a misspelled one so that
// unresolved-type diagnostics can suggest what was meant.
//
// Names are compared after normalization: CamelCase and snake_case are split
// into tokens, lowercased and joined, so "RustString", "rust_string" and
// "rustString" compare equal.
package match
