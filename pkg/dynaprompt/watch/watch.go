// Package watch re-runs a handler when a template file or a wildcard tree
// changes on disk.
//
// Rapid bursts of events, such as an editor writing a file in several
// steps, are coalesced into a single handler call.
package watch

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is the quiet period before the handler runs.
const DefaultDebounce = 250 * time.Millisecond

// ErrNoPaths is returned by New when nothing is to be watched.
var ErrNoPaths = errors.New("watch: no paths")

// Handler is called after a change settles. Errors are logged and do not
// stop the watcher.
type Handler func(ctx context.Context) error

// Watcher watches individual files and whole directory trees.
type Watcher struct {
	files    map[string]bool
	trees    []string
	debounce time.Duration
	logger   *slog.Logger

	fsw *fsnotify.Watcher
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithFile watches a single file. Its directory is watched so that
// editors replacing the file by rename are seen.
func WithFile(path string) Option {
	return func(w *Watcher) {
		w.files[path] = true
	}
}

// WithTree watches every file below dir, including directories created
// after the watcher starts. dir is created if missing.
func WithTree(dir string) Option {
	return func(w *Watcher) {
		w.trees = append(w.trees, dir)
	}
}

// WithDebounce sets the quiet period before the handler runs.
// Default: 250ms
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// WithLogger sets the logger.
// Default: slog.Default()
func WithLogger(logger *slog.Logger) Option {
	return func(w *Watcher) {
		if logger != nil {
			w.logger = logger
		}
	}
}

// New creates a Watcher and registers its watches. Changes made after New
// returns are reported by Run. Call Close if Run is never called.
func New(opts ...Option) (*Watcher, error) {
	w := &Watcher{
		files:    make(map[string]bool),
		debounce: DefaultDebounce,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(w)
	}
	if len(w.files) == 0 && len(w.trees) == 0 {
		return nil, ErrNoPaths
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create fsnotify watcher: %w", err)
	}
	w.fsw = fsw

	if err := w.register(); err != nil {
		fsw.Close()
		return nil, err
	}
	return w, nil
}

func (w *Watcher) register() error {
	files := make(map[string]bool, len(w.files))
	for path := range w.files {
		abs, err := filepath.Abs(path)
		if err != nil {
			return fmt.Errorf("resolve %s: %w", path, err)
		}
		files[abs] = true
		if err := w.fsw.Add(filepath.Dir(abs)); err != nil {
			return fmt.Errorf("watch %s: %w", path, err)
		}
	}
	w.files = files

	for i, dir := range w.trees {
		abs, err := filepath.Abs(dir)
		if err != nil {
			return fmt.Errorf("resolve %s: %w", dir, err)
		}
		if err := os.MkdirAll(abs, 0o755); err != nil {
			return fmt.Errorf("create %s: %w", dir, err)
		}
		w.trees[i] = abs
		if err := w.addTree(abs); err != nil {
			return err
		}
	}
	return nil
}

// addTree watches dir and every directory below it.
func (w *Watcher) addTree(dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if err := w.fsw.Add(path); err != nil {
			return fmt.Errorf("watch %s: %w", path, err)
		}
		return nil
	})
}

// Run delivers settled changes to fn until ctx is done, then releases the
// watches. It returns nil on cancellation.
func (w *Watcher) Run(ctx context.Context, fn Handler) error {
	defer w.Close()

	var (
		timer *time.Timer
		fire  <-chan time.Time
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			if !w.relevant(event) {
				continue
			}
			if event.Has(fsnotify.Create) && w.inTree(event.Name) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if err := w.addTree(event.Name); err != nil {
						w.logger.Warn("watch new directory failed",
							slog.String("path", event.Name),
							slog.String("error", err.Error()))
					}
				}
			}
			w.logger.Debug("change detected",
				slog.String("path", event.Name),
				slog.String("op", event.Op.String()))

			if timer != nil {
				timer.Stop()
			}
			timer = time.NewTimer(w.debounce)
			fire = timer.C

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watcher error", slog.String("error", err.Error()))

		case <-fire:
			fire = nil
			if err := fn(ctx); err != nil {
				w.logger.Warn("change handler failed", slog.String("error", err.Error()))
			}
		}
	}
}

// Close releases the watches.
func (w *Watcher) Close() error {
	return w.fsw.Close()
}

func (w *Watcher) relevant(event fsnotify.Event) bool {
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) &&
		!event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
		return false
	}
	name := filepath.Clean(event.Name)
	return w.files[name] || w.inTree(name)
}

func (w *Watcher) inTree(name string) bool {
	for _, dir := range w.trees {
		if name == dir || strings.HasPrefix(name, dir+string(filepath.Separator)) {
			return true
		}
	}
	return false
}
