package invoke

import (
	"slices"
	"strconv"
	"strings"
)

// Command is a single external program invocation.
type Command struct {
	Program string
	Args    []string
	Env     []string // Env is the complete child environment in "KEY=value" form, nil inherits the current process environment.
	Dir     string   // Dir is the working directory, empty uses the current directory.
	Verbose bool     // Verbose echoes the command line and streams output. Quiet commands have output discarded.
	Capture bool     // Capture records standard output in [Result.Stdout].
}

// Cmd creates a verbose [Command].
func Cmd(program string, args ...string) Command {
	return Command{
		Program: program,
		Args:    args,
		Verbose: true,
	}
}

// Quiet returns a copy of the [Command] with output suppressed.
func (c Command) Quiet() Command {
	c.Verbose = false
	return c
}

// Captured returns a copy of the [Command] that records standard output.
func (c Command) Captured() Command {
	c.Capture = true
	return c
}

// WithEnv returns a copy of the [Command] that runs with the given environment.
func (c Command) WithEnv(environ []string) Command {
	c.Env = slices.Clone(environ)
	return c
}

// InDir returns a copy of the [Command] that runs in the given working directory.
func (c Command) InDir(dir string) Command {
	c.Dir = dir
	return c
}

// String renders the command line the way a user would type it into a shell.
func (c Command) String() string {
	var buf strings.Builder
	buf.WriteString(quoteArg(c.Program))
	for _, arg := range c.Args {
		buf.WriteByte(' ')
		buf.WriteString(quoteArg(arg))
	}
	return buf.String()
}

func quoteArg(arg string) string {
	if len(arg) == 0 {
		return `""`
	}
	if strings.ContainsAny(arg, " \t\n\"'\\$`|&;<>()*?") {
		return strconv.Quote(arg)
	}
	return arg
}
