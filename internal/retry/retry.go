package retry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff"
)

// ErrTimeout reports that the retry budget ran out before the remote call
// succeeded. The top-level run loop treats it differently from a hard failure.
var ErrTimeout = errors.New("retry budget exhausted")

// DefaultInterval matches the fixed pause the remote backend documentation
// suggests between attempts after a transient server error.
const DefaultInterval = 2 * time.Second

// Executor is the single path through which remote calls are issued. An
// operation classified as transient is retried at a fixed interval until the
// context deadline (the shared budget) expires; any other failure propagates
// immediately.
type Executor struct {
	Interval  time.Duration
	Retryable func(error) bool
}

// Budget derives the context every remote call of one run shares. The
// deadline decreases monotonically across all call sites, so retries in one
// component consume time available to the next.
func Budget(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}

// Execute runs op, retrying transient failures until success or budget
// exhaustion. Exhaustion surfaces as ErrTimeout wrapping the last failure.
func (e *Executor) Execute(ctx context.Context, op func() error) error {
	interval := e.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}

	b := backoff.WithContext(backoff.NewConstantBackOff(interval), ctx)
	err := backoff.Retry(func() error {
		err := op()
		if err == nil {
			return nil
		}
		if e.retryable(err) {
			return err
		}
		return backoff.Permanent(err)
	}, b)
	if err == nil {
		return nil
	}

	// A retryable failure only escapes backoff.Retry when the context is
	// done, which means the budget ran out mid-retry.
	if e.retryable(err) && ctx.Err() != nil {
		return fmt.Errorf("%w (last error: %v)", ErrTimeout, err)
	}
	return err
}

func (e *Executor) retryable(err error) bool {
	return e.Retryable != nil && e.Retryable(err)
}
