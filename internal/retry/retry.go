package retry

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/dharmasatrya/flightscrape/internal/models"
	"github.com/dharmasatrya/flightscrape/internal/telemetry"
)

const (
	reportAttempt   = "retry.attempt"
	reportExhausted = "retry.exhausted"

	// Jitter is the randomization applied to every delay, as a fraction.
	Jitter = 0.2
)

type Policy struct {
	MaxAttempts   int
	InitialDelay  time.Duration
	MaxDelay      time.Duration
	BackoffFactor float64
}

func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts:   3,
		InitialDelay:  time.Second,
		MaxDelay:      10 * time.Second,
		BackoffFactor: 2,
	}
}

// SingleAttempt runs the operation once with no retries.
func SingleAttempt() Policy {
	return Policy{MaxAttempts: 1}
}

func (p Policy) attempts() int {
	if p.MaxAttempts < 1 {
		return 1
	}
	return p.MaxAttempts
}

// NewBackOff returns the delay schedule for p. Elapsed time is never a stop
// condition; only the attempt count is.
func (p Policy) NewBackOff() *backoff.ExponentialBackOff {
	boff := backoff.NewExponentialBackOff()
	boff.InitialInterval = p.InitialDelay
	boff.MaxInterval = p.MaxDelay
	if p.BackoffFactor > 0 {
		boff.Multiplier = p.BackoffFactor
	}
	if boff.MaxInterval < boff.InitialInterval {
		boff.MaxInterval = boff.InitialInterval
	}
	boff.RandomizationFactor = Jitter
	boff.MaxElapsedTime = 0
	boff.Reset()
	return boff
}

// Do runs op until it succeeds, fails with a non-retryable error, or the
// policy runs out of attempts. Only NavigationFailed and Timeout are retried;
// a cancelled ctx stops the loop at once.
func Do[T any](ctx context.Context, policy Policy, tel telemetry.API, op func(ctx context.Context) (T, error)) (T, error) {
	if tel == nil {
		tel = telemetry.Nop{}
	}

	var zero T
	maxAttempts := policy.attempts()
	boff := policy.NewBackOff()

	for attempt := 1; ; attempt++ {
		result, err := op(ctx)
		if err == nil {
			return result, nil
		}

		if errors.Is(ctx.Err(), context.Canceled) {
			return zero, models.NewCancelled(err)
		}
		if !models.IsRetryable(err) {
			return zero, err
		}

		if attempt >= maxAttempts {
			if maxAttempts > 1 {
				tel.ReportBroken(reportExhausted, attempt, err)
			}
			return zero, err
		}

		delay := boff.NextBackOff()
		tel.ReportWarning(reportAttempt, attempt, delay.String(), err)

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			if errors.Is(ctx.Err(), context.Canceled) {
				return zero, models.NewCancelled(ctx.Err())
			}
			return zero, models.NewTimeout("deadline passed while waiting to retry", ctx.Err())
		}
	}
}
