/*
Package template expands the two prompt expression grammars.

# Overview

A prompt template mixes plain text with combination expressions and
wildcard tokens:

	a {2$$castle|forest|harbor} at __time_of_day__

This package rewrites single expressions and single passes over a string.
Repeating passes until nothing changes is the job of dynaprompt.Generator.

# Combinations

A combination {body} picks variants from a '|'-separated list:

	{red|green|blue}        one variant
	{2$$red|green|blue}     two distinct variants, joined with ", "
	{1-3$$red|green|blue}   one to three distinct variants

The count prefix is optional and defaults to 1. A malformed prefix logs a
warning and uses the default. Asking for more variants than exist logs a
warning and yields "". Combinations never fail.

Bodies cannot contain braces, so {a|{b|c}} expands the inner expression
first and the outer one in a later pass.

# Wildcards

A wildcard __name__ is replaced by one random entry of the vocabulary that
a Vocabulary returns for name:

	exp := template.NewExpander(wildcard.NewLoader("wildcards"))
	out, n, err := exp.ExpandWildcards("a __color__ car")

A name with no entries fails with *EmptyVocabularyError. This is
deliberately stricter than combinations.

# Matching

Combinations and Wildcards are pure functions returning the expressions
found in a string, so callers can inspect a template without expanding it.

# Randomness

Expander draws from a Rand. By default it uses the shared math/rand/v2
source; pass WithRand (or call Expander.WithRand) with a seeded
*rand.Rand for reproducible output.
*/
package template
