// Package common holds the error vocabulary, retry loop and logging setup
// shared by the budget packages.
package common

import (
	"errors"
	"fmt"
)

// Sentinels callers match with errors.Is. Packages wrap them with detail.
var (
	ErrDuplicateEntry    = errors.New("duplicate entry")
	ErrDatabaseCorrupted = errors.New("database corrupted")
	ErrMissingConfig     = errors.New("missing configuration")
	ErrInvalidConfig     = errors.New("invalid configuration")
)

// UserError carries a sentence fit for the terminal alongside the error that
// caused it. The CLI prints Message; logs get the full chain.
type UserError struct {
	Err     error
	Message string
}

func (e *UserError) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return e.Message + ": " + e.Err.Error()
}

func (e *UserError) Unwrap() error { return e.Err }

// NewUserError pairs message with its cause. cause may be nil.
func NewUserError(message string, cause error) error {
	return &UserError{Message: message, Err: cause}
}

// UserErrorf is NewUserError with a formatted message.
func UserErrorf(cause error, format string, args ...any) error {
	return &UserError{Message: fmt.Sprintf(format, args...), Err: cause}
}

// UserMessage picks the text to show for err: the message of the first
// UserError in the chain, otherwise err.Error().
func UserMessage(err error) string {
	var ue *UserError
	if errors.As(err, &ue) {
		return ue.Message
	}
	return err.Error()
}
