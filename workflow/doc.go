/*
Package workflow defines the build, test, lint and packaging tasks of the tisp interpreter project.

Most tasks are a fixed sequence of external commands.
The exception is unit_test, which runs every library package through an instrumented test pass and merges the per-package coverage profiles into one report.
Race detection is added to those test passes only when the host architecture supports it.
*/
package workflow
