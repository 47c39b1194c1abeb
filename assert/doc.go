/*
Package assert supports expressing validation constraints that may fail in more than one way at once.

Validation of configuration and task graphs should report every problem found in a single pass, so a user can fix them all before trying again.
A [Collector] gathers those problems and is itself an error, so it may be returned directly and inspected with [errors.Is] or [errors.As].
*/
package assert
