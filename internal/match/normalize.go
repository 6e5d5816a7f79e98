package match

import (
	"strings"
	"unicode"
)

// NormalizeIdent lowercases s and drops separators and case boundaries.
func NormalizeIdent(s string) string {
	return strings.Join(Tokenize(s), "")
}

// Tokenize splits an identifier at separators and case boundaries and
// lowercases the tokens:
//   - "RustString" -> ["rust", "string"]
//   - "HTTPClient" -> ["http", "client"]
//   - "vec_of_u8"  -> ["vec", "of", "u8"]
func Tokenize(s string) []string {
	var (
		tokens  []string
		current strings.Builder
	)

	flush := func() {
		if current.Len() > 0 {
			tokens = append(tokens, strings.ToLower(current.String()))
			current.Reset()
		}
	}

	runes := []rune(s)
	for i, r := range runes {
		if isSeparator(r) {
			flush()
			continue
		}

		if i > 0 && startsToken(runes, i) {
			flush()
		}

		current.WriteRune(r)
	}

	flush()

	return tokens
}

func isSeparator(r rune) bool {
	return r == '_' || r == '-' || r == ' ' || r == ':'
}

// startsToken reports a lower-to-upper transition ("rustString") or the last
// capital of an acronym followed by lowercase ("HTTPClient").
func startsToken(runes []rune, i int) bool {
	r, prev := runes[i], runes[i-1]

	if !unicode.IsUpper(r) || isSeparator(prev) {
		return false
	}

	if !unicode.IsUpper(prev) {
		return true
	}

	return i+1 < len(runes) && unicode.IsLower(runes[i+1])
}
