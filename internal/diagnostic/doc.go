// Package diagnostic provides structured errors, warnings and explanations
// produced while deriving bridge artifacts.
//
// Key capabilities:
//   - Batch accumulation: every declaration is checked, nothing short-circuits
//   - Stable codes for each failure class (unresolved types, unsupported
//     shapes, declaration conflicts)
//   - Deterministic ordering for reproducible reports
package diagnostic
