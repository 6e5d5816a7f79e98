package match

import (
	"cmp"
	"slices"
)

// Threshold is the lowest similarity a suggestion may have.
const Threshold = 0.6

// Suggestion is a candidate name and its similarity to the wanted one.
type Suggestion struct {
	Name  string
	Score float64
}

// Suggest returns at most limit candidates similar to name, best first. Ties
// are broken by name so the result is deterministic. The name itself is never
// suggested.
func Suggest(name string, candidates []string, limit int) []Suggestion {
	want := NormalizeIdent(name)

	var out []Suggestion

	seen := make(map[string]struct{}, len(candidates))

	for _, c := range candidates {
		if c == name {
			continue
		}

		if _, dup := seen[c]; dup {
			continue
		}

		seen[c] = struct{}{}

		score := Similarity(want, NormalizeIdent(c))
		if score >= Threshold {
			out = append(out, Suggestion{Name: c, Score: score})
		}
	}

	slices.SortFunc(out, func(a, b Suggestion) int {
		return cmp.Or(cmp.Compare(b.Score, a.Score), cmp.Compare(a.Name, b.Name))
	})

	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}

	return out
}

// Names returns the names of suggestions.
func Names(s []Suggestion) []string {
	names := make([]string, len(s))
	for i := range s {
		names[i] = s[i].Name
	}

	return names
}
