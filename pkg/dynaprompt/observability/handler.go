package observability

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	slogmulti "github.com/samber/slog-multi"
)

// LoggerConfig configures NewLogger.
type LoggerConfig struct {
	// Writer receives human-readable text logs. Defaults to os.Stderr.
	Writer io.Writer

	// Level controls the minimum level of every handler. A nil Level
	// logs at Info and above.
	Level *slog.LevelVar

	// File, when set, additionally receives JSON logs. The file is
	// created or appended to.
	File string
}

// NewLogger builds a logger that fans records out to a text handler and,
// optionally, a JSON file handler. The returned close function releases
// the log file and is safe to call when no file was opened.
func NewLogger(cfg LoggerConfig) (*slog.Logger, func() error, error) {
	level := cfg.Level
	if level == nil {
		level = new(slog.LevelVar)
	}
	w := cfg.Writer
	if w == nil {
		w = os.Stderr
	}
	opts := &slog.HandlerOptions{Level: level}

	handlers := []slog.Handler{
		slog.NewTextHandler(w, opts),
	}

	closeFn := func() error { return nil }
	if cfg.File != "" {
		f, err := os.OpenFile(cfg.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("open log file: %w", err)
		}
		handlers = append(handlers, slog.NewJSONHandler(f, opts))
		closeFn = f.Close
	}

	return slog.New(slogmulti.Fanout(handlers...)), closeFn, nil
}
