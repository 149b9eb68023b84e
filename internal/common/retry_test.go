package common

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/recollect/internal/service"
)

func fastRetry(attempts int) service.RetryOptions {
	return service.RetryOptions{
		MaxAttempts:  attempts,
		InitialDelay: time.Millisecond,
		MaxDelay:     2 * time.Millisecond,
		Multiplier:   2,
	}
}

func TestWithRetry(t *testing.T) {
	errBoom := errors.New("boom")

	tests := []struct {
		op           func(calls *int) error
		name         string
		wantCalls    int
		wantErr      bool
		wantMaxRetry bool
	}{
		{
			name:      "succeeds first time",
			op:        func(_ *int) error { return nil },
			wantCalls: 1,
		},
		{
			name: "succeeds after retry",
			op: func(calls *int) error {
				if *calls < 2 {
					return NewRetryableError(errBoom)
				}
				return nil
			},
			wantCalls: 2,
		},
		{
			name:      "permanent error stops immediately",
			op:        func(_ *int) error { return NewPermanentError(errBoom) },
			wantCalls: 1,
			wantErr:   true,
		},
		{
			name:         "exhausts attempts",
			op:           func(_ *int) error { return NewRetryableError(errBoom) },
			wantCalls:    3,
			wantErr:      true,
			wantMaxRetry: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			err := WithRetry(context.Background(), func() error {
				calls++
				return tt.op(&calls)
			}, fastRetry(3))

			assert.Equal(t, tt.wantCalls, calls)
			if !tt.wantErr {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.ErrorIs(t, err, errBoom)
			assert.Equal(t, tt.wantMaxRetry, errors.Is(err, ErrMaxRetries))
		})
	}
}

func TestWithRetry_ContextCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := WithRetry(ctx, func() error { return errors.New("fail") }, service.RetryOptions{
		MaxAttempts:  3,
		InitialDelay: time.Second,
	})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestIsRetryable(t *testing.T) {
	assert.True(t, IsRetryable(NewRetryableError(ErrResponseDecode)))
	assert.True(t, IsRetryable(ErrRateLimit))
	assert.False(t, IsRetryable(NewPermanentError(ErrResponseDecode)))
	assert.False(t, IsRetryable(errors.New("plain")))
}

func TestUserError(t *testing.T) {
	err := NewUserError("could not open database", ErrNotFound)
	assert.Equal(t, "could not open database: not found", err.Error())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestParseLevel(t *testing.T) {
	lvl, err := ParseLevel("warn")
	require.NoError(t, err)
	assert.Equal(t, "WARN", lvl.String())

	_, err = ParseLevel("loud")
	assert.ErrorIs(t, err, ErrInvalidConfig)
}
