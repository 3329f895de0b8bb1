package common

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		err  error
		name string
		want bool
	}{
		{name: "nil", err: nil, want: false},
		{name: "plain error", err: errors.New("boom"), want: true},
		{name: "rate limit", err: fmt.Errorf("sheets: %w", ErrRateLimit), want: true},
		{name: "canceled", err: context.Canceled, want: false},
		{name: "deadline", err: fmt.Errorf("write: %w", context.DeadlineExceeded), want: false},
		{name: "marked permanent", err: &RetryableError{Err: errors.New("forbidden")}, want: false},
		{name: "marked transient", err: &RetryableError{Err: errors.New("unavailable"), Retryable: true}, want: true},
		{name: "wrapped permanent", err: fmt.Errorf("update: %w", &RetryableError{Err: errors.New("x")}), want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsRetryable(tt.err))
		})
	}
}

func TestUserError(t *testing.T) {
	cause := errors.New("disk full")
	err := NewUserError("could not save the transaction", cause)

	assert.Equal(t, "could not save the transaction: disk full", err.Error())
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "could not save the transaction", UserMessage(fmt.Errorf("add: %w", err)))
	assert.Equal(t, "plain", UserMessage(errors.New("plain")))
	assert.Equal(t, "no cause", NewUserError("no cause", nil).Error())
}

func TestUserErrorf(t *testing.T) {
	err := UserErrorf(ErrInvalidConfig, "Sheet %q is missing", "Budget")

	assert.Equal(t, `Sheet "Budget" is missing`, UserMessage(err))
	assert.ErrorIs(t, err, ErrInvalidConfig)
	assert.Equal(t, `Sheet "Budget" is missing: invalid configuration`, err.Error())
}
