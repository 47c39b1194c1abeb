// Package contextx holds small helpers for working with [context.Context] between blocking steps.
package contextx

import "context"

// IsDone reports whether ctx has been cancelled or has expired, without blocking.
// A nil context is never done.
func IsDone(ctx context.Context) bool {
	if ctx == nil {
		return false
	}
	select {
	case <-ctx.Done():
		return true
	default:
		return false
	}
}

// Err is like [context.Context.Err], but prefers the cancellation cause when one was recorded.
// A nil context has no error.
func Err(ctx context.Context) error {
	if ctx == nil || ctx.Err() == nil {
		return nil
	}
	if cause := context.Cause(ctx); cause != nil {
		return cause
	}
	return ctx.Err()
}
