package watch_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/randalmurphal/dynaprompt/pkg/dynaprompt/watch"
)

const waitFor = 5 * time.Second

// start runs w in the background and returns a channel receiving one value
// per handler call plus a stop function waiting for Run to return.
func start(t *testing.T, w *watch.Watcher) (<-chan struct{}, func()) {
	t.Helper()
	calls := make(chan struct{}, 16)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- w.Run(ctx, func(context.Context) error {
			calls <- struct{}{}
			return nil
		})
	}()
	return calls, func() {
		cancel()
		assert.NoError(t, <-done)
	}
}

func expectCall(t *testing.T, calls <-chan struct{}) {
	t.Helper()
	select {
	case <-calls:
	case <-time.After(waitFor):
		t.Fatal("handler was not called")
	}
}

func expectNoCall(t *testing.T, calls <-chan struct{}, within time.Duration) {
	t.Helper()
	select {
	case <-calls:
		t.Fatal("unexpected handler call")
	case <-time.After(within):
	}
}

func TestNew_NoPaths(t *testing.T) {
	_, err := watch.New()
	assert.ErrorIs(t, err, watch.ErrNoPaths)
}

func TestWatcher_File(t *testing.T) {
	dir := t.TempDir()
	tmpl := filepath.Join(dir, "prompt.txt")
	require.NoError(t, os.WriteFile(tmpl, []byte("a {b|c}"), 0o644))

	w, err := watch.New(watch.WithFile(tmpl), watch.WithDebounce(20*time.Millisecond))
	require.NoError(t, err)
	calls, stop := start(t, w)
	defer stop()

	require.NoError(t, os.WriteFile(tmpl, []byte("a {b|c|d}"), 0o644))
	expectCall(t, calls)

	// Siblings of the watched file are ignored.
	require.NoError(t, os.WriteFile(filepath.Join(dir, "other.txt"), []byte("x"), 0o644))
	expectNoCall(t, calls, 200*time.Millisecond)
}

func TestWatcher_Debounce(t *testing.T) {
	tmpl := filepath.Join(t.TempDir(), "prompt.txt")
	require.NoError(t, os.WriteFile(tmpl, nil, 0o644))

	w, err := watch.New(watch.WithFile(tmpl), watch.WithDebounce(150*time.Millisecond))
	require.NoError(t, err)
	calls, stop := start(t, w)
	defer stop()

	for i := 0; i < 5; i++ {
		require.NoError(t, os.WriteFile(tmpl, []byte{byte('a' + i)}, 0o644))
	}
	expectCall(t, calls)
	expectNoCall(t, calls, 400*time.Millisecond)
}

func TestWatcher_Tree(t *testing.T) {
	tree := filepath.Join(t.TempDir(), "wildcards")

	w, err := watch.New(watch.WithTree(tree), watch.WithDebounce(20*time.Millisecond))
	require.NoError(t, err)
	calls, stop := start(t, w)
	defer stop()

	// The tree is created by New.
	require.DirExists(t, tree)

	require.NoError(t, os.WriteFile(filepath.Join(tree, "colors.txt"), []byte("red\n"), 0o644))
	expectCall(t, calls)

	sub := filepath.Join(tree, "animals")
	require.NoError(t, os.Mkdir(sub, 0o755))
	expectCall(t, calls)

	// Give the loop a moment to register the new directory.
	time.Sleep(100 * time.Millisecond)
	require.NoError(t, os.WriteFile(filepath.Join(sub, "cats.txt"), []byte("tabby\n"), 0o644))
	expectCall(t, calls)
}

func TestWatcher_HandlerErrorKeepsWatching(t *testing.T) {
	tmpl := filepath.Join(t.TempDir(), "prompt.txt")
	require.NoError(t, os.WriteFile(tmpl, nil, 0o644))

	var logs bytes.Buffer
	w, err := watch.New(
		watch.WithFile(tmpl),
		watch.WithDebounce(20*time.Millisecond),
		watch.WithLogger(slog.New(slog.NewTextHandler(&logs, nil))),
	)
	require.NoError(t, err)

	var n atomic.Int32
	calls := make(chan struct{}, 4)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- w.Run(ctx, func(context.Context) error {
			n.Add(1)
			calls <- struct{}{}
			return errors.New("no entries for wildcard __x__")
		})
	}()

	require.NoError(t, os.WriteFile(tmpl, []byte("1"), 0o644))
	expectCall(t, calls)
	require.NoError(t, os.WriteFile(tmpl, []byte("2"), 0o644))
	expectCall(t, calls)

	cancel()
	require.NoError(t, <-done)
	assert.Equal(t, int32(2), n.Load())
	assert.Contains(t, logs.String(), "change handler failed")
}

func TestWatcher_CloseWithoutRun(t *testing.T) {
	w, err := watch.New(watch.WithTree(t.TempDir()))
	require.NoError(t, err)
	assert.NoError(t, w.Close())
}
