package template

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"slices"
	"strconv"
	"strings"
)

const (
	// countSeparator splits a count specifier from the first variant.
	countSeparator = "$$"

	// variantSeparator splits a combination body into variants.
	variantSeparator = "|"

	// joinSeparator joins the selected variants.
	joinSeparator = ", "

	// DefaultCount is the number of variants chosen when no valid count is given.
	DefaultCount = 1
)

// ErrEmptyVocabulary indicates a wildcard resolved to no entries.
var ErrEmptyVocabulary = errors.New("empty vocabulary")

// Vocabulary resolves a wildcard name to its candidate entries.
// wildcard.Loader implements it.
type Vocabulary interface {
	Load(name string) ([]string, error)
}

// Suggester is optionally implemented by a Vocabulary to propose names
// when a wildcard resolves to nothing.
type Suggester interface {
	Suggest(name string) []string
}

// Expander rewrites combination and wildcard expressions.
//
// Create with NewExpander() and configure with Option functions.
// Expander is safe for concurrent use when its Rand is; the default
// source is.
type Expander struct {
	vocab  Vocabulary
	rng    Rand
	logger *slog.Logger
}

// NewExpander creates an Expander that resolves wildcards through vocab.
//
// A nil vocab resolves every wildcard to an empty vocabulary.
//
// Example:
//
//	exp := NewExpander(wildcard.NewLoader("wildcards"),
//	    WithRand(rand.New(rand.NewPCG(42, 0))),
//	)
func NewExpander(vocab Vocabulary, opts ...Option) *Expander {
	e := &Expander{
		vocab:  vocab,
		rng:    globalRand{},
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// WithRand returns a copy of e that draws from r.
func (e *Expander) WithRand(r Rand) *Expander {
	cp := *e
	if r != nil {
		cp.rng = r
	}
	return &cp
}

// ExpandCombinations applies one pass of combination expansion over s.
// Returns the rewritten string and the number of expressions replaced.
func (e *Expander) ExpandCombinations(s string) (string, int) {
	matches := Combinations(s)
	out, _ := replace(s, matches, func(m Match) (string, error) {
		return e.ExpandCombination(m.Inner), nil
	})
	return out, len(matches)
}

// ExpandWildcards applies one pass of wildcard expansion over s.
// Returns the rewritten string and the number of tokens replaced.
// The first wildcard that cannot be resolved aborts the pass.
func (e *Expander) ExpandWildcards(s string) (string, int, error) {
	matches := Wildcards(s)
	out, err := replace(s, matches, func(m Match) (string, error) {
		return e.ExpandWildcard(m.Inner)
	})
	if err != nil {
		return s, 0, err
	}
	return out, len(matches), nil
}

// ExpandCombination returns the replacement for one combination body,
// the text between the braces of {count$$a|b|c}.
//
// It never fails: malformed counts fall back to DefaultCount, and bodies
// that cannot be satisfied resolve to "" with a warning.
//
// Example:
//
//	exp.ExpandCombination("2$$red|green|blue") // e.g. "blue, red"
//	exp.ExpandCombination("1-3$$a|b|c|d")      // one to three of a..d
//	exp.ExpandCombination("5$$a|b")            // ""
func (e *Expander) ExpandCombination(body string) string {
	if strings.TrimSpace(body) == "" {
		e.logger.Warn("empty combination")
		return ""
	}

	variants := strings.Split(body, variantSeparator)
	for i := range variants {
		variants[i] = strings.TrimSpace(variants[i])
	}

	count := DefaultCount
	if strings.Count(variants[0], countSeparator) == 1 {
		prefix, first, _ := strings.Cut(variants[0], countSeparator)
		variants[0] = strings.TrimSpace(first)
		count = e.resolveCount(prefix)
	}

	if count < 0 || count > len(variants) {
		e.logger.Warn("combination count out of range",
			slog.Int("count", count),
			slog.Int("variants", len(variants)),
		)
		return ""
	}

	return strings.Join(e.sample(variants, count), joinSeparator)
}

// resolveCount parses "n" or "a-b". An interval yields a uniform draw
// from [min(a,b), max(a,b)]. Counts too large for an int resolve to
// math.MaxInt so the caller treats them as an over-request.
func (e *Expander) resolveCount(prefix string) int {
	parts := strings.Split(prefix, "-")
	bounds := make([]int, 0, len(parts))
	overflow := false
	for _, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		switch {
		case errors.Is(err, strconv.ErrRange):
			overflow = true
		case err != nil:
			e.warnMalformedCount(prefix)
			return DefaultCount
		}
		bounds = append(bounds, n)
	}
	if len(bounds) > 2 {
		e.warnMalformedCount(prefix)
		return DefaultCount
	}
	if overflow {
		return math.MaxInt
	}

	if len(bounds) == 1 {
		return bounds[0]
	}
	lo, hi := min(bounds[0], bounds[1]), max(bounds[0], bounds[1])
	// Bounds are non-negative, so only [0, MaxInt] overflows; it drops MaxInt.
	width := hi - lo
	if width < math.MaxInt {
		width++
	}
	return lo + e.rng.IntN(width)
}

func (e *Expander) warnMalformedCount(prefix string) {
	e.logger.Warn("malformed combination count, expected a number or interval",
		slog.String("count", prefix),
		slog.Int("default", DefaultCount),
	)
}

// sample picks n distinct positions of variants by partial Fisher-Yates
// shuffle over a copy. n must be in [0, len(variants)].
func (e *Expander) sample(variants []string, n int) []string {
	pool := slices.Clone(variants)
	for i := 0; i < n; i++ {
		j := i + e.rng.IntN(len(pool)-i)
		pool[i], pool[j] = pool[j], pool[i]
	}
	return pool[:n]
}

// ExpandWildcard returns one entry of the vocabulary for name, chosen
// uniformly at random.
//
// An empty vocabulary is an error (*EmptyVocabularyError), unlike an
// unsatisfiable combination, which degrades to "".
func (e *Expander) ExpandWildcard(name string) (string, error) {
	if name == "" {
		e.logger.Warn("wildcard without a name")
		return "", nil
	}

	var values []string
	if e.vocab != nil {
		var err error
		values, err = e.vocab.Load(name)
		if err != nil {
			return "", fmt.Errorf("load wildcard %q: %w", name, err)
		}
	}

	if len(values) == 0 {
		vocabErr := &EmptyVocabularyError{Name: name}
		if s, ok := e.vocab.(Suggester); ok {
			vocabErr.Suggestions = s.Suggest(name)
		}
		return "", vocabErr
	}

	return values[e.rng.IntN(len(values))], nil
}

// EmptyVocabularyError is returned when a wildcard name matches no
// entries.
type EmptyVocabularyError struct {
	// Name is the wildcard name without underscores.
	Name string

	// Suggestions lists known names resembling Name, if any.
	Suggestions []string
}

// Error implements the error interface.
func (e *EmptyVocabularyError) Error() string {
	if len(e.Suggestions) == 0 {
		return fmt.Sprintf("no entries for wildcard __%s__", e.Name)
	}
	return fmt.Sprintf("no entries for wildcard __%s__ (did you mean %s?)",
		e.Name, strings.Join(e.Suggestions, ", "))
}

// Unwrap returns ErrEmptyVocabulary for errors.Is support.
func (e *EmptyVocabularyError) Unwrap() error {
	return ErrEmptyVocabulary
}

// ErrorType names the error category for metrics.
func (e *EmptyVocabularyError) ErrorType() string {
	return "empty_vocabulary"
}
