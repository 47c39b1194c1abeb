package cli

import (
	"context"
	"errors"
	"fmt"
	flag "github.com/spf13/pflag"
	"regexp"
	"slices"
	"strings"
)

var (
	ErrUnknownCommand = errors.New("unknown command")
	HelpPatterns      = []string{"--help", "-h", "help"} // HelpPatterns are first arguments that print usage information for a [CommandSet].

	keyCleansePattern = regexp.MustCompile(`\s`)
)

// CommandFunc is a function that may be executed within a [Command].
// Flags are already parsed when it's called, so remaining arguments are available with [flag.FlagSet.Args].
type CommandFunc = func(ctx context.Context, flags *flag.FlagSet, printer *Printer) error

// Command is an executable function in a CLI.
// It's created with [CommandSet.AddCommand].
type Command struct {
	set        *CommandSet
	flags      *flag.FlagSet
	exec       CommandFunc
	key        string
	shortUsage string
	aliases    []string
}

func cleanseKey(key string) string {
	return keyCleansePattern.ReplaceAllString(strings.ToLower(key), "")
}

func newCommand(set *CommandSet, key, shortUsage string) *Command {
	fs := flag.NewFlagSet(key, flag.ContinueOnError)
	fs.BoolP("help", "h", false, "Prints this usage information")
	fs.SetInterspersed(false)
	fs.SetOutput(set.Printer())
	cmd := &Command{set: set, flags: fs, key: key, shortUsage: shortUsage}
	cmd.Usage("")
	cmd.exec = func(_ context.Context, flags *flag.FlagSet, _ *Printer) error {
		flags.Usage()
		return nil
	}
	return cmd
}

// Does specifies the [CommandFunc] that should be executed by this [Command].
func (c *Command) Does(commandFunc CommandFunc) *Command {
	if commandFunc == nil {
		return c
	}
	c.exec = commandFunc
	return c
}

// Key is the normalized name of this [Command].
func (c *Command) Key() string {
	return c.key
}

// CommandPath returns the full invocation for this [Command].
func (c *Command) CommandPath() string {
	if len(c.set.name) == 0 {
		return c.key
	}
	return c.set.name + " " + c.key
}

// Flags returns the [flag.FlagSet] for this [Command].
func (c *Command) Flags() *flag.FlagSet {
	return c.flags
}

// Usage allows specifying a longer description of the [Command] that will be output when a help flag is passed.
// The command path is prepended, and the short description and flag usages are included around it.
func (c *Command) Usage(format string, args ...any) *Command {
	text := fmt.Sprintf(format, args...)
	if len(text) > 0 {
		text = "USAGE:\n" + c.set.name + " " + text
		if !strings.HasSuffix(text, "\n") {
			text += "\n"
		}
	}
	c.flags.Usage = func() {
		var buf strings.Builder
		buf.WriteString(c.shortUsage + "\n")
		if len(text) > 0 {
			buf.WriteString("\n" + text)
		}
		buf.WriteString("\nFLAGS\n")
		buf.WriteString(c.flags.FlagUsages())
		c.set.Printer().Print(buf.String())
	}
	return c
}

// Exec parses flags from args, runs the [CommandSet]'s pre-exec hooks, then executes the command.
// A flag parsing problem is returned as a [*UsageError].
// If the command itself returns a [*UsageError], then it's printed along with usage information before being returned.
func (c *Command) Exec(ctx context.Context, args []string) error {
	if err := c.flags.Parse(args); err != nil {
		return &UsageError{wrapped: err}
	}
	if MustGet(c.flags.GetBool("help")) {
		c.flags.Usage()
		return nil
	}
	if err := c.set.runPreExec(ctx, c); err != nil {
		return err
	}
	err := c.exec(ctx, c.flags, c.set.Printer())
	if errors.Is(err, &UsageError{}) {
		c.set.Printer().Println(err.Error())
		c.set.Printer().Println()
		c.flags.Usage()
	}
	return err
}

// CommandSet is the root of a CLI, holding every [Command] a user can call.
type CommandSet struct {
	name       string
	usage      string
	commands   map[string]*Command
	aliases    map[string]*Command
	printer    *Printer
	defaultKey string
	preExec    []PreExec
}

// NewCommandSet is used to set up a top level [CommandSet] as the root of a CLI's command structure.
// The name should be the name used to invoke the CLI, and is used in usage information.
func NewCommandSet(name string) *CommandSet {
	return &CommandSet{name: name, printer: NewPrinter()}
}

// Name is the name used to invoke the CLI.
func (s *CommandSet) Name() string {
	return s.name
}

// AddCommand adds a sub-command to this [CommandSet].
// The key parameter will be cleansed to remove spaces, and normalize to lower-case.
// Aliases may be added as a way to support shorter variants of the same [Command].
func (s *CommandSet) AddCommand(key, shortUsage string, aliases ...string) *Command {
	key = cleanseKey(key)
	cmd := newCommand(s, key, shortUsage)
	if s.commands == nil {
		s.commands = map[string]*Command{}
	}
	s.commands[key] = cmd
	for _, alias := range aliases {
		alias = cleanseKey(alias)
		if len(alias) == 0 {
			continue
		}
		if s.aliases == nil {
			s.aliases = map[string]*Command{}
		}
		s.aliases[alias] = cmd
		cmd.aliases = append(cmd.aliases, alias)
	}
	slices.Sort(cmd.aliases)
	return cmd
}

// SetDefault names the [Command] executed when no arguments are given.
func (s *CommandSet) SetDefault(key string) *CommandSet {
	s.defaultKey = cleanseKey(key)
	return s
}

// Usage sets a description printed above the command listing when a [HelpPatterns] argument is given.
func (s *CommandSet) Usage(format string, args ...any) *CommandSet {
	s.usage = fmt.Sprintf(format, args...)
	return s
}

// Printer returns the cached [Printer] for this [CommandSet].
func (s *CommandSet) Printer() *Printer {
	if s.printer == nil {
		s.printer = NewPrinter()
	}
	return s.printer
}

// Lookup finds a [Command] by key or alias.
func (s *CommandSet) Lookup(key string) (*Command, bool) {
	key = cleanseKey(key)
	if cmd, ok := s.commands[key]; ok {
		return cmd, true
	}
	cmd, ok := s.aliases[key]
	return cmd, ok
}

// Exec executes this [CommandSet].
// The first argument is expected to be the key or alias of a [Command], and the rest are passed to it.
// With no arguments, the default command is executed if one is set.
func (s *CommandSet) Exec(ctx context.Context, args []string) error {
	if len(args) == 0 {
		if len(s.defaultKey) == 0 {
			return &UsageError{wrapped: fmt.Errorf("%w: no arguments", ErrUnknownCommand)}
		}
		args = []string{s.defaultKey}
	}
	if slices.Contains(HelpPatterns, args[0]) {
		s.PrintUsage()
		return nil
	}
	cmd, ok := s.Lookup(args[0])
	if !ok {
		return &UsageError{wrapped: fmt.Errorf("%w: %s", ErrUnknownCommand, args[0])}
	}
	return cmd.Exec(ctx, args[1:])
}

// PrintUsage prints the description and command listing of this [CommandSet].
func (s *CommandSet) PrintUsage() {
	var buf strings.Builder
	buf.WriteString("USAGE:\n" + s.name + " [COMMAND] [FLAGS...] [ARGS...]\n")
	if len(s.usage) > 0 {
		buf.WriteString("\n" + strings.TrimSuffix(s.usage, "\n") + "\n")
	}
	if len(s.defaultKey) > 0 {
		buf.WriteString(fmt.Sprintf("\nWith no COMMAND, '%s' is run.\n", s.defaultKey))
	}
	buf.WriteString("\nCOMMANDS\n")
	buf.WriteString(s.CommandUsages())
	s.Printer().Print(buf.String())
}

// CommandUsages returns a string including the usage information for sub-commands in this [CommandSet].
//
// The sub-command keys will be sorted alphabetically before output.
func (s *CommandSet) CommandUsages() string {
	var (
		buf    strings.Builder
		keys   = make([]string, 0, len(s.commands))
		labels = map[string]string{}
		maxLen int
	)
	for key, cmd := range s.commands {
		keys = append(keys, key)
		labels[key] = strings.Join(append([]string{key}, cmd.aliases...), ", ")
		maxLen = max(maxLen, len(labels[key]))
	}
	slices.Sort(keys)
	fmtStr := fmt.Sprintf("  %%-%ds\t%%s\n", maxLen)
	for _, key := range keys {
		buf.WriteString(fmt.Sprintf(fmtStr, labels[key], s.commands[key].shortUsage))
	}
	return buf.String()
}
