package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDo_SucceedsAfterFailures(t *testing.T) {
	calls := 0
	err := Do(context.Background(), func() error {
		calls++
		if calls < 3 {
			return errors.New("transient")
		}
		return nil
	}, WithBaseDelay(time.Millisecond))

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestDo_ExhaustsAttempts(t *testing.T) {
	calls := 0
	sentinel := errors.New("still broken")
	err := Do(context.Background(), func() error {
		calls++
		return sentinel
	}, WithMaxAttempts(2), WithBaseDelay(time.Millisecond))

	assert.ErrorIs(t, err, sentinel)
	assert.Equal(t, 2, calls)
}

func TestDo_PermanentStopsImmediately(t *testing.T) {
	calls := 0
	sentinel := errors.New("do not retry")
	err := Do(context.Background(), func() error {
		calls++
		return Permanent(sentinel)
	}, WithBaseDelay(time.Millisecond))

	assert.Equal(t, sentinel, err)
	assert.Equal(t, 1, calls)
}

func TestDo_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := Do(ctx, func() error {
		return errors.New("transient")
	}, WithBaseDelay(time.Second))

	assert.ErrorIs(t, err, context.Canceled)
}

func TestCalculateBackoff(t *testing.T) {
	assert.Equal(t, time.Second, calculateBackoff(0, time.Second, 30*time.Second))
	assert.Equal(t, 4*time.Second, calculateBackoff(2, time.Second, 30*time.Second))
	assert.Equal(t, 30*time.Second, calculateBackoff(10, time.Second, 30*time.Second))
}
