// Package derive turns one declaration file into the three bridge artifacts:
// systems-side glue (Rust), managed-side glue (Swift) and the C header both
// sides compile against.
//
// Derivation runs in phases and accumulates diagnostics across all of them:
//
//  1. register declarations into a bridged.Table
//  2. classify every field, variant and signature type
//  3. check compositions (composite.Check)
//  4. synthesize wire declarations (repr.Registry)
//
// Artifacts are rendered with text/template only when no error was
// recorded. Core returns the fixed runtime artifacts shared by every group.
package derive
