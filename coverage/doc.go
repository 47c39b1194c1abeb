/*
Package coverage merges per-package Go coverage profiles into a single report.

A coverage profile starts with one mode header line, such as "mode: atomic", followed by one line per instrumented source block.
The merged report written by an [Aggregator] has exactly one header, followed by the data lines of every absorbed profile in the order they were absorbed.

Per-package profiles are transient.
They are named with [ProfilePath] so concurrent runs on the same host never share a file, and they are deleted as soon as they are absorbed.
*/
package coverage
