/*
Package tispbuild is the build runner for the tisp interpreter.

The tispbuild command runs named tasks with their dependencies, the way a make or rake file would.
The unit_test task runs every library package through an instrumented test pass, and merges the per-package coverage profiles into a single report for codecov.

	tispbuild [TASK] [FLAGS...] [MORE TASKS...]

Running tispbuild without arguments runs the default task, which tests and builds the interpreter.
Use 'tispbuild tasks' to see every task and what it depends on.

Settings are read from tispbuild.yaml (or a TOML file given with --config), then TISPBUILD_* environment variables, then flags.
*/
package tispbuild
