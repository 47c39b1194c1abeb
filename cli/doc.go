/*
Package cli provides an opinionated package for how a CLI with sub-commands can be structured.

There are a few reasonable (IMHO) policies for how this operates.

  - User-visible output should go to STDERR by default. This is supported with a configurable [Printer].
  - This package uses [pflag] for posix style flags.
  - Flags should NOT be interspersed by default. This makes flag and argument parsing much more consistent and predictable, but can be overridden per [Command].
  - Global flags are often confusing. Setup shared by every command, like loading configuration, belongs in a [PreExec] hook.
  - Sub-command aliases are often very convenient, so they're supported as additional, optional parameters to [CommandSet.AddCommand].

# Invocation

Invoking a CLI with sub-commands can always follow this form:

	CLI_NAME [SUB-COMMAND] [FLAGS...] [ARGS...]

A [CommandSet] may name a default command with [CommandSet.SetDefault] to run when no arguments are given.

# Usage by default

The '-h' and '--help' flags are set up by default for every [Command], with input from the developer with the [Command.Usage] method.
Passing one of [HelpPatterns] as the first argument prints the [CommandSet] usage.

NOTE: Commands will NOT respond with usage by default if an error is returned.

# Exit codes

[ExitCode] maps the error returned from [CommandSet.Exec] to a process exit status.
Usage problems are reported as [UsageError].

[pflag]: https://github.com/spf13/pflag
*/
package cli
