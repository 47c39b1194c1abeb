/*
Package task provides a registry of named tasks with declared dependencies, and runs them depth-first.

Running a task first runs its dependencies left to right, recursively, then the task's own [Action].
Within one call to [Graph.Run], every task runs at most once, no matter how many other tasks depend on it.
Tasks are never retried or run in parallel, and the first failure stops the run.

A [Task] without an [Action] is a grouping node, which only exists to run its dependencies.
*/
package task
