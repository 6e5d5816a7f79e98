// Package typeexpr parses the type expressions written in declaration files.
//
// The grammar is the subset of systems-language type syntax a bridge can
// carry: references (with optional lifetime and mut), raw pointers, tuples,
// slices and paths with generic arguments. Parsing is exhaustive: input the
// grammar does not cover is a *SyntaxError, never a best-effort guess.
//
// Key types:
//   - Type: the parsed expression (Path, Ref, RawPtr, Tuple, Slice)
//   - SyntaxError: a parse failure with its byte offset
package typeexpr
