// Package wildcard resolves wildcard names to vocabularies read from a
// directory tree of text files.
//
// A wildcard name addresses every file whose absolute path contains it.
// Names may embed '*' to require several substrings at once:
//
//	loader := wildcard.NewLoader("scripts/wildcards")
//	colors, err := loader.Load("colors")        // .../colors.txt
//	cats, err := loader.Load("animals*cats")    // .../animals/cats.txt
//
// Files are read on every call. Nothing is cached, so edits to the
// directory are visible to the next Load.
package wildcard

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"
)

// DefaultExtension is the extension of vocabulary files.
const DefaultExtension = ".txt"

// maxSuggestions bounds the names returned by Suggest.
const maxSuggestions = 3

// Loader reads vocabularies from a wildcard directory.
//
// Loader holds no mutable state after construction and is safe for
// concurrent use.
type Loader struct {
	dir    string
	ext    string
	logger *slog.Logger
}

// Option configures a Loader.
type Option func(*Loader)

// WithLogger sets the logger used for skipped files.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Loader) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// WithExtension overrides the vocabulary file extension.
// Default: ".txt"
func WithExtension(ext string) Option {
	return func(l *Loader) {
		if ext == "" {
			return
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		l.ext = ext
	}
}

// NewLoader creates a Loader rooted at dir.
// The directory is created lazily by Load and Names.
func NewLoader(dir string, opts ...Option) *Loader {
	l := &Loader{
		dir:    dir,
		ext:    DefaultExtension,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Dir returns the wildcard root directory.
func (l *Loader) Dir() string {
	return l.dir
}

// Load returns the deduplicated, sorted vocabulary for name.
//
// An empty result is not an error here; deciding what an empty
// vocabulary means is left to the caller.
func (l *Loader) Load(name string) ([]string, error) {
	files, err := l.files()
	if err != nil {
		return nil, err
	}

	entries := make(map[string]struct{})
	for _, path := range files {
		if !Matches(name, path) {
			continue
		}
		data, err := os.ReadFile(path)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				// Removed between the walk and the read.
				l.logger.Debug("wildcard file vanished",
					slog.String("file", path))
				continue
			}
			return nil, fmt.Errorf("read wildcard file %s: %w", path, err)
		}
		for _, line := range ParseLines(data) {
			entries[line] = struct{}{}
		}
	}

	values := make([]string, 0, len(entries))
	for v := range entries {
		values = append(values, v)
	}
	slices.Sort(values)
	return values, nil
}

// Names lists every addressable wildcard name: the slash-separated path
// of each vocabulary file relative to the root, without its extension.
func (l *Loader) Names() ([]string, error) {
	files, err := l.files()
	if err != nil {
		return nil, err
	}
	root, err := filepath.Abs(l.dir)
	if err != nil {
		return nil, fmt.Errorf("resolve wildcard dir: %w", err)
	}

	names := make([]string, 0, len(files))
	for _, path := range files {
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return nil, fmt.Errorf("relative path for %s: %w", path, err)
		}
		names = append(names, filepath.ToSlash(strings.TrimSuffix(rel, l.ext)))
	}
	slices.Sort(names)
	return names, nil
}

// Suggest returns up to three known names resembling name, closest first.
// Errors listing the directory yield no suggestions.
func (l *Loader) Suggest(name string) []string {
	names, err := l.Names()
	if err != nil || len(names) == 0 {
		return nil
	}
	needle := strings.ReplaceAll(name, "*", "")
	if needle == "" {
		return nil
	}

	ranks := fuzzy.RankFindFold(needle, names)
	sort.Sort(ranks)
	suggestions := make([]string, 0, maxSuggestions)
	for _, r := range ranks {
		if len(suggestions) == maxSuggestions {
			return suggestions
		}
		suggestions = append(suggestions, r.Target)
	}
	if len(suggestions) > 0 {
		return suggestions
	}

	// No subsequence match; fall back to edit distance for typos.
	type scored struct {
		name string
		dist int
	}
	limit := max(2, len(needle)/3)
	var near []scored
	for _, n := range names {
		if d := fuzzy.LevenshteinDistance(strings.ToLower(needle), strings.ToLower(n)); d <= limit {
			near = append(near, scored{name: n, dist: d})
		}
	}
	sort.SliceStable(near, func(i, j int) bool { return near[i].dist < near[j].dist })
	for _, c := range near {
		if len(suggestions) == maxSuggestions {
			break
		}
		suggestions = append(suggestions, c.name)
	}
	return suggestions
}

// files ensures the root exists and returns the absolute paths of every
// vocabulary file below it, in lexical order.
func (l *Loader) files() ([]string, error) {
	if err := os.MkdirAll(l.dir, 0o755); err != nil {
		return nil, fmt.Errorf("create wildcard dir: %w", err)
	}
	root, err := filepath.Abs(l.dir)
	if err != nil {
		return nil, fmt.Errorf("resolve wildcard dir: %w", err)
	}

	var files []string
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) && path != root {
				return nil
			}
			return err
		}
		if d.IsDir() || filepath.Ext(path) != l.ext {
			return nil
		}
		files = append(files, path)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk wildcard dir: %w", err)
	}
	return files, nil
}

// Matches reports whether the wildcard name addresses the file at path.
//
// The name matches when it, or its cleaned form, is a substring of path.
// A name containing '*' also matches when every '*'-separated term is a
// substring of path; the order of the terms is not checked.
func Matches(name, path string) bool {
	if containsPath(path, name) {
		return true
	}
	if !strings.Contains(name, "*") {
		return false
	}
	for _, term := range strings.Split(name, "*") {
		if !containsPath(path, term) {
			return false
		}
	}
	return true
}

func containsPath(path, s string) bool {
	return strings.Contains(path, s) || strings.Contains(path, filepath.Clean(s))
}

// ParseLines extracts vocabulary entries from file content.
//
// Invalid UTF-8 is dropped. Lines are trimmed; blank lines and lines
// starting with '#' are skipped.
func ParseLines(data []byte) []string {
	text := strings.ToValidUTF8(string(data), "")
	raw := strings.FieldsFunc(text, func(r rune) bool { return r == '\n' || r == '\r' })

	var lines []string
	for _, line := range raw {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		lines = append(lines, line)
	}
	return lines
}
