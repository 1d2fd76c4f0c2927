package retry

import (
	"context"
	"time"

	"github.com/avast/retry-go/v4"
)

const (
	defaultAttempts = 3
	defaultMaxDelay = 2 * time.Second
	defaultDelay    = 100 * time.Millisecond
)

type RetryConfig struct {
	Attempts uint          `env:"ATTEMPTS"`
	Delay    time.Duration `env:"DELAY"`
	MaxDelay time.Duration `env:"MAX_DELAY"`
	// Timeout bounds all attempts together; zero means no extra bound.
	Timeout time.Duration `env:"TIMEOUT"`
}

// ApplyDefaults fills zero fields with the package defaults
func (rc *RetryConfig) ApplyDefaults() {
	if rc.Attempts == 0 {
		rc.Attempts = defaultAttempts
	}
	if rc.Delay == 0 {
		rc.Delay = defaultDelay
	}
	if rc.MaxDelay == 0 {
		rc.MaxDelay = defaultMaxDelay
	}
}

func (rc *RetryConfig) ToRetryOptions() []retry.Option {
	return []retry.Option{
		retry.Attempts(rc.Attempts),
		retry.MaxDelay(rc.MaxDelay),
		retry.Delay(rc.Delay),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
	}
}

// Do runs fn under the config's attempts and overall timeout. Extra options
// are appended after the config's own, so they win on conflict.
func (rc *RetryConfig) Do(ctx context.Context, fn func(ctx context.Context) error, extra ...retry.Option) error {
	if rc.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, rc.Timeout)
		defer cancel()
	}

	opts := append(rc.ToRetryOptions(), retry.Context(ctx))
	opts = append(opts, extra...)

	return retry.Do(func() error {
		return fn(ctx)
	}, opts...)
}
