package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApplyDefaults_ZeroConfig(t *testing.T) {
	var cfg RetryConfig
	cfg.ApplyDefaults()

	assert.Equal(t, uint(3), cfg.Attempts)
	assert.Less(t, cfg.Delay, cfg.MaxDelay)
}

func TestApplyDefaults_KeepsExplicitValues(t *testing.T) {
	cfg := RetryConfig{Attempts: 7}
	cfg.ApplyDefaults()

	assert.Equal(t, uint(7), cfg.Attempts)
	assert.Equal(t, defaultDelay, cfg.Delay)
	assert.Equal(t, defaultMaxDelay, cfg.MaxDelay)
}

func TestDo_RetriesUntilSuccess(t *testing.T) {
	cfg := RetryConfig{Attempts: 3, Delay: time.Millisecond, MaxDelay: time.Millisecond}
	calls := 0

	err := cfg.Do(context.Background(), func(context.Context) error {
		calls++
		if calls < 3 {
			return errors.New("transient")
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestDo_StopsOnUnrecoverable(t *testing.T) {
	cfg := RetryConfig{Attempts: 5, Delay: time.Millisecond, MaxDelay: time.Millisecond}
	calls := 0
	permanent := errors.New("permanent")

	err := cfg.Do(context.Background(), func(context.Context) error {
		calls++
		return retry.Unrecoverable(permanent)
	})

	assert.ErrorIs(t, err, permanent)
	assert.Equal(t, 1, calls)
}
