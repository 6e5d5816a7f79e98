package match_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"bridgegen/internal/match"
)

func TestLevenshtein(t *testing.T) {
	t.Parallel()

	tests := []struct {
		a, b string
		want int
	}{
		{"", "", 0},
		{"hello", "hello", 0},
		{"", "abc", 3},
		{"abc", "", 3},
		{"a", "ab", 1},
		{"ab", "a", 1},
		{"kitten", "sitting", 3},
		{"saturday", "sunday", 3},
		{"Hello", "hello", 1},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, match.Levenshtein(tt.a, tt.b), "%q -> %q", tt.a, tt.b)
		assert.Equal(t, tt.want, match.Levenshtein(tt.b, tt.a), "%q -> %q", tt.b, tt.a)
	}
}

func TestSimilarity(t *testing.T) {
	t.Parallel()

	assert.InDelta(t, 1.0, match.Similarity("", ""), 1e-9)
	assert.InDelta(t, 1.0, match.Similarity("abc", "abc"), 1e-9)
	assert.InDelta(t, 0.0, match.Similarity("abc", "xyz"), 1e-9)
	assert.InDelta(t, 0.5, match.Similarity("ab", "ax"), 1e-9)
}

func TestTokenize(t *testing.T) {
	t.Parallel()

	tests := map[string][]string{
		"RustString": {"rust", "string"},
		"rustString": {"rust", "string"},
		"HTTPClient": {"http", "client"},
		"vec_of_u8":  {"vec", "of", "u8"},
		"u8":         {"u8"},
		"":           nil,
	}

	for in, want := range tests {
		assert.Equal(t, want, match.Tokenize(in), in)
	}

	assert.Equal(t, "ruststring", match.NormalizeIdent("rust_string"))
}

func TestSuggest(t *testing.T) {
	t.Parallel()

	builtins := []string{"String", "Vec", "Option", "Result", "Point"}

	assert.Equal(t, []string{"String"}, match.Names(match.Suggest("Strng", builtins, 3)))
	assert.Equal(t, []string{"Counter", "Countr"},
		match.Names(match.Suggest("counter", []string{"Other", "Countr", "Counter"}, 0)))
	assert.Equal(t, []string{"Pointer"}, match.Names(match.Suggest("Point", []string{"Point", "Pointer"}, 0)))
	assert.Equal(t, []string{"ab1", "ab2"}, match.Names(match.Suggest("ab", []string{"ab3", "ab2", "ab1", "ab1"}, 2)))
	assert.Empty(t, match.Suggest("Zebra", builtins, 3))
}

func ExampleSuggest() {
	for _, s := range match.Suggest("Handel", []string{"Handle", "Window", "HandleRef"}, 2) {
		fmt.Printf("%s %.2f\n", s.Name, s.Score)
	}
	// Output: Handle 0.67
}
