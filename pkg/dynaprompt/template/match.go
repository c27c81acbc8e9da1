package template

import (
	"regexp"
	"strings"
)

// Regular expressions for the two expression grammars.
var (
	// combinationPattern matches {body} where body holds no braces.
	combinationPattern = regexp.MustCompile(`\{([^{}]*)\}`)

	// wildcardPattern matches __name__, non-greedy, so "__a__ __b__" is two tokens.
	wildcardPattern = regexp.MustCompile(`__(.*?)__`)
)

// Match is one expression found in a string.
type Match struct {
	// Start and End delimit the whole expression, delimiters included.
	Start, End int

	// Inner is the captured text between the delimiters.
	Inner string
}

// Combinations returns every {body} expression in s, left to right and
// non-overlapping.
func Combinations(s string) []Match {
	return find(combinationPattern, s)
}

// Wildcards returns every __name__ token in s, left to right and
// non-overlapping.
func Wildcards(s string) []Match {
	return find(wildcardPattern, s)
}

func find(re *regexp.Regexp, s string) []Match {
	locs := re.FindAllStringSubmatchIndex(s, -1)
	if len(locs) == 0 {
		return nil
	}
	matches := make([]Match, 0, len(locs))
	for _, loc := range locs {
		matches = append(matches, Match{
			Start: loc[0],
			End:   loc[1],
			Inner: s[loc[2]:loc[3]],
		})
	}
	return matches
}

// replace rebuilds s with each match substituted by fn's result.
// It stops at the first error and returns it.
func replace(s string, matches []Match, fn func(Match) (string, error)) (string, error) {
	if len(matches) == 0 {
		return s, nil
	}
	var b strings.Builder
	b.Grow(len(s))
	last := 0
	for _, m := range matches {
		out, err := fn(m)
		if err != nil {
			return s, err
		}
		b.WriteString(s[last:m.Start])
		b.WriteString(out)
		last = m.End
	}
	b.WriteString(s[last:])
	return b.String(), nil
}
