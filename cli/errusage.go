package cli

import (
	"fmt"
)

// UsageError signals that the user asked for something the CLI can't do as given, such as an unknown command, a bad flag, or unusable configuration.
// [ExitCode] maps it to [ExitUsage], and a [Command] that returns one prints its usage information.
type UsageError struct {
	wrapped error
}

func (e *UsageError) Error() string {
	if e.wrapped == nil {
		return "usage error"
	}
	return "usage error: " + e.wrapped.Error()
}

func (e *UsageError) Is(err error) bool {
	_, ok := err.(*UsageError)
	return ok
}

func (e *UsageError) Unwrap() error {
	return e.wrapped
}

// NewUsageError is used to create a [UsageError].
// The format and args parameters are passed to [fmt.Errorf] to create the underlying error.
func NewUsageError(format string, args ...any) error {
	return &UsageError{wrapped: fmt.Errorf(format, args...)}
}

// WrapUsage marks err as a [UsageError], returning nil if err is nil.
func WrapUsage(err error) error {
	if err == nil {
		return nil
	}
	return &UsageError{wrapped: err}
}
