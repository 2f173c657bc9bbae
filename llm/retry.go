package llm

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/hairizuan-noorazman/testpilot/logger"
)

const (
	DefaultMaxRetries   = 2
	DefaultInitialDelay = 5 * time.Second
)

// Retrier retries failed AI calls that Classify marks retryable.
// The delay before retry n is InitialDelay * 2^(n-1), without jitter.
type Retrier struct {
	MaxRetries   int
	InitialDelay time.Duration

	// Timer drives the waits between attempts. Nil uses the system timer.
	Timer backoff.Timer

	Logger logger.Logger
}

// NewRetrier returns a Retrier with the default policy: 2 retries starting at 5s.
func NewRetrier(log logger.Logger) *Retrier {
	return &Retrier{
		MaxRetries:   DefaultMaxRetries,
		InitialDelay: DefaultInitialDelay,
		Logger:       log,
	}
}

// doubling is a deterministic backoff.BackOff: InitialDelay, then twice the
// previous delay, until MaxRetries delays have been handed out.
type doubling struct {
	initial    time.Duration
	maxRetries int
	handed     int
}

func (d *doubling) NextBackOff() time.Duration {
	if d.handed >= d.maxRetries {
		return backoff.Stop
	}
	delay := d.initial << d.handed
	d.handed++
	return delay
}

func (d *doubling) Reset() {
	d.handed = 0
}

// Retry runs op until it succeeds, fails with a non-retryable error, or the
// retries run out. Errors are returned exactly as op produced them. A
// cancelled context aborts the wait and returns the context error.
func Retry[T any](ctx context.Context, r *Retrier, op func(ctx context.Context) (T, error)) (T, error) {
	log := r.Logger
	if log == nil {
		log = logger.Nop()
	}

	attempt := 0
	operation := func() (T, error) {
		attempt++
		if err := ctx.Err(); err != nil {
			var zero T
			return zero, backoff.Permanent(err)
		}

		res, err := op(ctx)
		if err == nil {
			return res, nil
		}

		class := Classify(err)
		if !class.Retryable {
			return res, backoff.Permanent(err)
		}
		return res, err
	}

	notify := func(err error, delay time.Duration) {
		log.Warn(ctx, "AI call failed, retrying", map[string]interface{}{
			"attempt": attempt,
			"delay":   delay.String(),
			"kind":    string(Classify(err).Kind),
			"error":   err.Error(),
		})
	}

	schedule := &doubling{initial: r.InitialDelay, maxRetries: r.MaxRetries}
	return backoff.RetryNotifyWithTimerAndData[T](operation, backoff.WithContext(schedule, ctx), notify, r.Timer)
}
