package llm

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"google.golang.org/genai"

	"github.com/hairizuan-noorazman/testpilot/logger"
)

// recordingTimer fires immediately and remembers every requested delay.
type recordingTimer struct {
	delays  []time.Duration
	c       chan time.Time
	onStart func()
}

func (r *recordingTimer) Start(d time.Duration) {
	r.delays = append(r.delays, d)
	r.c = make(chan time.Time, 1)
	if r.onStart != nil {
		r.onStart()
		return
	}
	r.c <- time.Now()
}

func (r *recordingTimer) Stop() {}

func (r *recordingTimer) C() <-chan time.Time {
	return r.c
}

var errThrottled = genai.APIError{Code: 429, Status: "RESOURCE_EXHAUSTED", Message: "Too many requests"}

func newTestRetrier(timer *recordingTimer, log logger.Logger) *Retrier {
	r := NewRetrier(log)
	r.Timer = timer
	return r
}

func TestRetry_SucceedsAfterTwoRetryableFailures(t *testing.T) {
	defer goleak.VerifyNone(t)

	timer := &recordingTimer{}
	log := logger.NewTestLogger()
	attempts := 0

	got, err := Retry(context.Background(), newTestRetrier(timer, log), func(ctx context.Context) (string, error) {
		attempts++
		if attempts < 3 {
			return "", errThrottled
		}
		return "ok", nil
	})

	require.NoError(t, err)
	assert.Equal(t, "ok", got)
	assert.Equal(t, 3, attempts)
	assert.Equal(t, []time.Duration{5 * time.Second, 10 * time.Second}, timer.delays)

	warnings := log.EntriesAt("warn")
	require.Len(t, warnings, 2)
	assert.Equal(t, "10s", warnings[1].Fields["delay"])
	assert.Equal(t, string(KindRateLimited), warnings[0].Fields["kind"])
}

func TestRetry_NonRetryableFailsImmediately(t *testing.T) {
	defer goleak.VerifyNone(t)

	timer := &recordingTimer{}
	quota := genai.APIError{Code: 429, Status: "RESOURCE_EXHAUSTED", Message: "quota exceeded"}
	attempts := 0

	_, err := Retry(context.Background(), newTestRetrier(timer, nil), func(ctx context.Context) (int, error) {
		attempts++
		return 0, quota
	})

	assert.Equal(t, quota, err)
	assert.Equal(t, 1, attempts)
	assert.Empty(t, timer.delays)
}

func TestRetry_ExhaustedReturnsLastErrorUnchanged(t *testing.T) {
	defer goleak.VerifyNone(t)

	timer := &recordingTimer{}
	attempts := 0
	last := errors.New("429 again")

	_, err := Retry(context.Background(), newTestRetrier(timer, nil), func(ctx context.Context) (int, error) {
		attempts++
		if attempts == 3 {
			return 0, last
		}
		return 0, errThrottled
	})

	assert.Same(t, last, err)
	assert.Equal(t, 3, attempts)
	assert.Len(t, timer.delays, 2)
}

func TestRetry_CustomPolicy(t *testing.T) {
	defer goleak.VerifyNone(t)

	timer := &recordingTimer{}
	r := &Retrier{MaxRetries: 3, InitialDelay: time.Second, Timer: timer}

	_, err := Retry(context.Background(), r, func(ctx context.Context) (int, error) {
		return 0, errThrottled
	})

	assert.Equal(t, errThrottled, err)
	assert.Equal(t, []time.Duration{time.Second, 2 * time.Second, 4 * time.Second}, timer.delays)
}

func TestRetry_CancelDuringWait(t *testing.T) {
	defer goleak.VerifyNone(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	timer := &recordingTimer{onStart: cancel}
	attempts := 0

	_, err := Retry(ctx, newTestRetrier(timer, nil), func(ctx context.Context) (int, error) {
		attempts++
		return 0, errThrottled
	})

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, attempts)
}

func TestRetry_CancelledBeforeStart(t *testing.T) {
	defer goleak.VerifyNone(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	_, err := Retry(ctx, newTestRetrier(&recordingTimer{}, nil), func(ctx context.Context) (int, error) {
		called = true
		return 1, nil
	})

	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, called)
}
