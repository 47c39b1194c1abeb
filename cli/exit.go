package cli

import (
	"errors"
	"github.com/saylorsolutions/tispbuild/invoke"
)

const (
	ExitOK    = 0
	ExitError = 1
	ExitUsage = 2
)

// ExitCode maps the error returned from a command to a process exit status.
//
// A failed subprocess passes its own status through, so a failing test run exits the same way as the underlying tool.
// A [*UsageError] exits with [ExitUsage], and anything else exits with [ExitError].
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}
	if errors.Is(err, &UsageError{}) {
		return ExitUsage
	}
	if code, ok := invoke.ExitCode(err); ok {
		return code
	}
	return ExitError
}
