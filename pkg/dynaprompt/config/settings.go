package config

import (
	"errors"
	"fmt"
	"os"
)

// Settings keys.
const (
	KeyWildcardDir        = "wildcard_dir"
	KeyMaxRounds          = "max_rounds"
	KeyReplaceUnderscores = "replace_underscores"
	KeyBatchSize          = "batch_size"
	KeyConcurrency        = "concurrency"
	KeySeed               = "seed"
)

// EnvWildcardDir overrides the wildcard directory from the environment.
const EnvWildcardDir = "DYNAPROMPT_WILDCARD_DIR"

// Defaults.
const (
	DefaultWildcardDir = "scripts/wildcards"
	DefaultMaxRounds   = 20
	DefaultBatchSize   = 1
	DefaultConcurrency = 4
	RandomSeed         = -1
)

// ErrInvalidSettings is returned by Settings.Validate.
var ErrInvalidSettings = errors.New("invalid settings")

// Settings is the typed configuration of the generator and batch runner.
type Settings struct {
	// WildcardDir is the root of the vocabulary tree.
	WildcardDir string `json:"wildcard_dir" yaml:"wildcard_dir"`

	// MaxRounds is the expansion round ceiling.
	MaxRounds int `json:"max_rounds" yaml:"max_rounds"`

	// ReplaceUnderscores turns '_' into spaces in finished prompts.
	ReplaceUnderscores bool `json:"replace_underscores" yaml:"replace_underscores"`

	// BatchSize is the number of images the renderer produces per batch.
	BatchSize int `json:"batch_size" yaml:"batch_size"`

	// Concurrency bounds concurrent prompt generation in a batch.
	Concurrency int `json:"concurrency" yaml:"concurrency"`

	// Seed is the base seed; RandomSeed draws one per run.
	Seed int64 `json:"seed" yaml:"seed"`
}

// DefaultSettings returns Settings with every default applied.
func DefaultSettings() Settings {
	return Settings{
		WildcardDir: DefaultWildcardDir,
		MaxRounds:   DefaultMaxRounds,
		BatchSize:   DefaultBatchSize,
		Concurrency: DefaultConcurrency,
		Seed:        RandomSeed,
	}
}

// SettingsFrom reads Settings from c, falling back to defaults for missing
// keys. The DYNAPROMPT_WILDCARD_DIR environment variable takes precedence
// over the wildcard_dir key.
func SettingsFrom(c Config) Settings {
	d := DefaultSettings()
	s := Settings{
		WildcardDir:        c.String(KeyWildcardDir, d.WildcardDir),
		MaxRounds:          c.Int(KeyMaxRounds, d.MaxRounds),
		ReplaceUnderscores: c.Bool(KeyReplaceUnderscores, d.ReplaceUnderscores),
		BatchSize:          c.Int(KeyBatchSize, d.BatchSize),
		Concurrency:        c.Int(KeyConcurrency, d.Concurrency),
		Seed:               c.Int64(KeySeed, d.Seed),
	}
	if dir := os.Getenv(EnvWildcardDir); dir != "" {
		s.WildcardDir = dir
	}
	return s
}

// LoadSettings reads Settings from a config file. An empty path yields the
// defaults with the environment override applied.
func LoadSettings(path string) (Settings, error) {
	if path == "" {
		return SettingsFrom(New(nil)), nil
	}
	c, err := FromFile(path)
	if err != nil {
		return Settings{}, err
	}
	s := SettingsFrom(c)
	if err := s.Validate(); err != nil {
		return Settings{}, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

// Validate reports settings that no component can run with.
func (s Settings) Validate() error {
	switch {
	case s.WildcardDir == "":
		return fmt.Errorf("%w: %s is empty", ErrInvalidSettings, KeyWildcardDir)
	case s.MaxRounds < 1:
		return fmt.Errorf("%w: %s must be at least 1, got %d", ErrInvalidSettings, KeyMaxRounds, s.MaxRounds)
	case s.BatchSize < 1:
		return fmt.Errorf("%w: %s must be at least 1, got %d", ErrInvalidSettings, KeyBatchSize, s.BatchSize)
	case s.Concurrency < 1:
		return fmt.Errorf("%w: %s must be at least 1, got %d", ErrInvalidSettings, KeyConcurrency, s.Concurrency)
	case s.Seed < RandomSeed:
		return fmt.Errorf("%w: %s must be %d or non-negative, got %d", ErrInvalidSettings, KeySeed, RandomSeed, s.Seed)
	}
	return nil
}
