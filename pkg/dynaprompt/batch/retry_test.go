package batch_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/randalmurphal/dynaprompt/pkg/dynaprompt/batch"
)

type temporaryErr struct{ temp bool }

func (e temporaryErr) Error() string   { return "connection reset" }
func (e temporaryErr) Temporary() bool { return e.temp }

var fastRetry = batch.RetryPolicy{
	MaxAttempts:    3,
	InitialBackoff: time.Millisecond,
	MaxBackoff:     5 * time.Millisecond,
	BackoffFactor:  2,
}

// flakyRenderer fails with err for the first failures calls.
func flakyRenderer(failures int, err error, calls *int) batch.Renderer {
	return batch.RendererFunc(func(context.Context, *batch.Plan) (*batch.Result, error) {
		*calls++
		if *calls <= failures {
			return nil, err
		}
		return &batch.Result{Info: "rendered"}, nil
	})
}

var retryRequest = batch.Request{Template: "x", Count: 1, BatchSize: 1, Seed: 1}

func TestIsTransient(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"sentinel", batch.ErrTransient, true},
		{"wrapped sentinel", fmt.Errorf("503: %w", batch.ErrTransient), true},
		{"temporary", temporaryErr{temp: true}, true},
		{"not temporary", temporaryErr{temp: false}, false},
		{"plain", errors.New("bad request"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, batch.IsTransient(tt.err))
		})
	}
}

func TestRun_RetriesTransient(t *testing.T) {
	var buf bytes.Buffer
	orch := newOrchestrator(&buf, batch.WithRetry(fastRetry))

	calls := 0
	res, err := orch.Run(context.Background(), retryRequest,
		flakyRenderer(2, fmt.Errorf("busy: %w", batch.ErrTransient), &calls))
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
	assert.Equal(t, "rendered", res.Info)
	assert.Contains(t, buf.String(), "render failed, retrying")
}

func TestRun_GivesUpAfterMaxAttempts(t *testing.T) {
	var buf bytes.Buffer
	orch := newOrchestrator(&buf, batch.WithRetry(fastRetry))

	calls := 0
	_, err := orch.Run(context.Background(), retryRequest,
		flakyRenderer(10, temporaryErr{temp: true}, &calls))
	require.Error(t, err)
	assert.Equal(t, 3, calls)
	assert.Contains(t, err.Error(), "(3 attempts)")
	assert.ErrorAs(t, err, new(temporaryErr))
}

func TestRun_PermanentNotRetried(t *testing.T) {
	var buf bytes.Buffer
	orch := newOrchestrator(&buf, batch.WithRetry(fastRetry))

	calls := 0
	_, err := orch.Run(context.Background(), retryRequest,
		flakyRenderer(10, errors.New("bad request"), &calls))
	require.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestRun_DefaultDoesNotRetry(t *testing.T) {
	var buf bytes.Buffer
	orch := newOrchestrator(&buf)

	calls := 0
	_, err := orch.Run(context.Background(), retryRequest,
		flakyRenderer(1, batch.ErrTransient, &calls))
	require.ErrorIs(t, err, batch.ErrTransient)
	assert.Equal(t, 1, calls)
}

func TestRun_CancelledDuringBackoff(t *testing.T) {
	var buf bytes.Buffer
	orch := newOrchestrator(&buf, batch.WithRetry(batch.RetryPolicy{
		MaxAttempts:    5,
		InitialBackoff: time.Hour,
		BackoffFactor:  1,
	}))

	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	renderer := batch.RendererFunc(func(context.Context, *batch.Plan) (*batch.Result, error) {
		calls++
		cancel()
		return nil, batch.ErrTransient
	})

	_, err := orch.Run(ctx, retryRequest, renderer)
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}
