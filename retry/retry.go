package retry

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// Policy describes how many times an operation may be attempted and how long
// to wait between attempts. The zero value means a single attempt.
type Policy struct {
	MaxAttempts int
	Backoff     func(attempt int) time.Duration
}

// Fixed returns a policy with a constant wait between attempts.
func Fixed(attempts int, wait time.Duration) Policy {
	return Policy{
		MaxAttempts: attempts,
		Backoff: func(int) time.Duration {
			return wait
		},
	}
}

// Schedule returns a policy that waits first after the initial failure and
// rest after every later one.
func Schedule(attempts int, first, rest time.Duration) Policy {
	return Policy{
		MaxAttempts: attempts,
		Backoff: func(attempt int) time.Duration {
			if attempt == 1 {
				return first
			}
			return rest
		},
	}
}

type options struct {
	onRetry func(attempt int, err error)
}

type Option func(o *options)

// WithOnRetry runs fn after a failed attempt, before the backoff wait.
// attempt is 1-based.
func WithOnRetry(fn func(attempt int, err error)) Option {
	return func(o *options) {
		o.onRetry = fn
	}
}

// Do runs fn until it succeeds or the policy's attempts are exhausted. The
// backoff waits are blocking but abort early if ctx is cancelled. The returned
// error wraps the last attempt's error.
func (p Policy) Do(ctx context.Context, logger zerolog.Logger, op string, fn func(ctx context.Context) error, opts ...Option) error {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}

	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		err = fn(ctx)
		if err == nil {
			if attempt > 1 {
				logger.Info().Str("op", op).Int("attempt", attempt).Msg("operation succeeded after retry")
			}
			return nil
		}

		if attempt == attempts {
			break
		}

		logger.Warn().Err(err).
			Str("op", op).
			Int("attempt", attempt).
			Int("max_attempts", attempts).
			Msg("operation failed, will retry")

		if o.onRetry != nil {
			o.onRetry(attempt, err)
		}

		var wait time.Duration
		if p.Backoff != nil {
			wait = p.Backoff(attempt)
		}
		if sleepErr := sleep(ctx, wait); sleepErr != nil {
			return sleepErr
		}
	}

	logger.Error().Err(err).Str("op", op).Int("attempts", attempts).Msg("operation failed, giving up")
	return fmt.Errorf("%s failed after %d attempts: %w", op, attempts, err)
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
