/*
Package invoke runs external commands for build tasks.

Every unit of work in a build is an external command, so commands are modeled as plain [Command] values and executed through the narrow [Invoker] interface.
This keeps task logic testable with [Func] fakes, without spawning real processes.

# Verbosity

A verbose [Command] (the default from [Cmd]) echoes its command line and streams its output to the terminal.
A quiet [Command] runs with its output discarded, which suits bookkeeping commands whose output would only add noise.
A captured [Command] records its standard output in the [Result], regardless of verbosity.
Its standard error is always streamed, so a failing query like package listing reports why it failed.

# Failure

A command that exits non-zero results in an [*ExitError] carrying the real exit status of the process.
Commands are never run through a shell, so a failing step can't be masked by a pipeline.
Nothing is retried.
*/
package invoke
