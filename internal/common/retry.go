package common

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Veraticus/spice-budget/internal/service"
)

var (
	// ErrRateLimit marks a failure caused by an upstream quota. WithRetry
	// waits the full MaxDelay before trying again.
	ErrRateLimit = errors.New("rate limit exceeded")
	// ErrMaxRetries is wrapped around the last failure once every attempt
	// has been used.
	ErrMaxRetries = errors.New("max retries exceeded")
)

// RetryableError tags err with whether it is worth another attempt.
type RetryableError struct {
	Err       error
	Retryable bool
}

func (e *RetryableError) Error() string { return e.Err.Error() }

func (e *RetryableError) Unwrap() error { return e.Err }

// Permanent marks err so WithRetry gives up on it at once.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &RetryableError{Err: err, Retryable: false}
}

// IsRetryable reports whether err is worth another attempt. Cancellation and
// errors marked with Permanent are final; anything else counts as transient.
func IsRetryable(err error) bool {
	switch {
	case err == nil:
		return false
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return false
	}
	var re *RetryableError
	if errors.As(err, &re) {
		return re.Retryable
	}
	return true
}

// backoff yields the wait before each retry: exponential growth from the
// initial delay, capped at max.
type backoff struct {
	next       time.Duration
	max        time.Duration
	multiplier float64
}

func newBackoff(opts service.RetryOptions) backoff {
	return backoff{next: opts.InitialDelay, max: opts.MaxDelay, multiplier: opts.Multiplier}
}

func (b *backoff) after(err error) time.Duration {
	if errors.Is(err, ErrRateLimit) {
		b.next = b.max
	}
	wait := b.next
	b.next = min(time.Duration(float64(b.next)*b.multiplier), b.max)
	return wait
}

func withRetryDefaults(opts service.RetryOptions) service.RetryOptions {
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = 3
	}
	if opts.InitialDelay <= 0 {
		opts.InitialDelay = 100 * time.Millisecond
	}
	if opts.MaxDelay <= 0 {
		opts.MaxDelay = 30 * time.Second
	}
	if opts.Multiplier <= 0 {
		opts.Multiplier = 2
	}
	return opts
}

// WithRetry calls operation until it succeeds, returns an error IsRetryable
// rejects, or runs out of attempts. Zero fields in opts take defaults of three
// attempts starting at 100ms and doubling up to 30s.
func WithRetry(ctx context.Context, operation func() error, opts service.RetryOptions) error {
	opts = withRetryDefaults(opts)
	wait := newBackoff(opts)

	var err error
	for attempt := 1; ; attempt++ {
		if err = operation(); err == nil || !IsRetryable(err) {
			return err
		}
		if attempt >= opts.MaxAttempts {
			break
		}

		delay := wait.after(err)
		slog.Warn("Operation failed, retrying",
			"attempt", attempt,
			"max_attempts", opts.MaxAttempts,
			"delay", delay,
			"error", err)

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}

	return fmt.Errorf("%w after %d attempts: %w", ErrMaxRetries, opts.MaxAttempts, err)
}
