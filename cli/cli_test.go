package cli

import (
	"bytes"
	"context"
	flag "github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"testing"
)

func testCommandSet(t *testing.T) (*CommandSet, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	set := NewCommandSet("commands")
	set.Printer().Redirect(&buf)
	return set, &buf
}

func TestCommand_Exec(t *testing.T) {
	set, buf := testCommandSet(t)
	cmd := set.AddCommand("test", "test command")
	assert.NoError(t, cmd.Exec(context.Background(), nil))
	assert.Contains(t, buf.String(), "test command", "A command without a function should print usage")

	executed := false
	cmd.Does(func(_ context.Context, flags *flag.FlagSet, _ *Printer) error {
		executed = true
		return nil
	})
	assert.NoError(t, cmd.Exec(context.Background(), nil))
	assert.True(t, executed)
}

func TestCommand_Exec_Context(t *testing.T) {
	type key struct{}
	set, _ := testCommandSet(t)
	var got any
	set.AddCommand("test", "test command").Does(func(ctx context.Context, _ *flag.FlagSet, _ *Printer) error {
		got = ctx.Value(key{})
		return nil
	})
	ctx := context.WithValue(context.Background(), key{}, "value")
	require.NoError(t, set.Exec(ctx, []string{"test"}))
	assert.Equal(t, "value", got)
}

func TestCommandSet_Exec(t *testing.T) {
	set, _ := testCommandSet(t)
	err := set.Exec(context.Background(), nil)
	assert.ErrorIs(t, err, ErrUnknownCommand)
	assert.ErrorIs(t, err, &UsageError{})

	cmd := set.AddCommand("test", "test command")
	assert.NoError(t, set.Exec(context.Background(), []string{"test"}))

	executed := false
	cmd.Does(func(_ context.Context, flags *flag.FlagSet, _ *Printer) error {
		executed = true
		return nil
	})
	assert.NoError(t, set.Exec(context.Background(), []string{"TEST"}), "Keys should match case-insensitive")
	assert.True(t, executed)

	err = set.Exec(context.Background(), []string{"Does", "not", "exist"})
	assert.ErrorIs(t, err, ErrUnknownCommand)
	assert.ErrorIs(t, err, &UsageError{})
}

func TestCommandSet_SetDefault(t *testing.T) {
	set, _ := testCommandSet(t)
	var args []string
	set.AddCommand("build", "builds things").Does(func(_ context.Context, flags *flag.FlagSet, _ *Printer) error {
		args = flags.Args()
		return nil
	})
	set.SetDefault("Build")
	require.NoError(t, set.Exec(context.Background(), nil))
	assert.Empty(t, args)
}

func TestCommandSet_AddCommand_Aliases(t *testing.T) {
	set, buf := testCommandSet(t)
	var executed int
	set.AddCommand("tasks", "Lists tasks", "ls", " ").Does(func(_ context.Context, _ *flag.FlagSet, _ *Printer) error {
		executed++
		return nil
	})
	assert.NoError(t, set.Exec(context.Background(), []string{"tasks"}))
	assert.NoError(t, set.Exec(context.Background(), []string{"ls"}))
	assert.NoError(t, set.Exec(context.Background(), []string{"LS"}))
	assert.Equal(t, 3, executed)

	cmd, ok := set.Lookup("ls")
	require.True(t, ok)
	assert.Equal(t, "tasks", cmd.Key())
	assert.Equal(t, "commands tasks", cmd.CommandPath())

	set.PrintUsage()
	assert.Contains(t, buf.String(), "tasks, ls\tLists tasks")
}

func TestCommand_Flags(t *testing.T) {
	tests := map[string]struct {
		interspersed bool
		args         []string
		verbose      bool
		rest         []string
	}{
		"Flag first": {
			args:    []string{"-v", "build", "lint"},
			verbose: true,
			rest:    []string{"build", "lint"},
		},
		"Flag after args without interspersed": {
			args: []string{"build", "-v"},
			rest: []string{"build", "-v"},
		},
		"Flag after args with interspersed": {
			interspersed: true,
			args:         []string{"build", "-v", "lint"},
			verbose:      true,
			rest:         []string{"build", "lint"},
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			set, _ := testCommandSet(t)
			var (
				verbose bool
				rest    []string
			)
			cmd := set.AddCommand("run", "runs things").Does(func(_ context.Context, flags *flag.FlagSet, _ *Printer) error {
				verbose = MustGet(flags.GetBool("verbose"))
				rest = flags.Args()
				return nil
			})
			cmd.Flags().BoolP("verbose", "v", false, "Prints more")
			cmd.Flags().SetInterspersed(tc.interspersed)
			require.NoError(t, cmd.Exec(context.Background(), tc.args))
			assert.Equal(t, tc.verbose, verbose)
			assert.Equal(t, tc.rest, rest)
		})
	}
}

func TestCommand_Exec_BadFlag(t *testing.T) {
	set, _ := testCommandSet(t)
	executed := false
	set.AddCommand("test", "test command").Does(func(_ context.Context, _ *flag.FlagSet, _ *Printer) error {
		executed = true
		return nil
	})
	err := set.Exec(context.Background(), []string{"test", "--nope"})
	assert.ErrorIs(t, err, &UsageError{})
	assert.False(t, executed)
}

func TestCommand_Help(t *testing.T) {
	set, buf := testCommandSet(t)
	executed := false
	set.AddCommand("test", "test command").Usage("test [FLAGS]").Does(func(_ context.Context, _ *flag.FlagSet, _ *Printer) error {
		executed = true
		return nil
	})
	require.NoError(t, set.Exec(context.Background(), []string{"test", "--help"}))
	assert.False(t, executed)
	assert.Contains(t, buf.String(), "USAGE:\ncommands test [FLAGS]")
}

func TestCommandSet_HelpPatterns(t *testing.T) {
	for _, pattern := range HelpPatterns {
		t.Run(pattern, func(t *testing.T) {
			set, buf := testCommandSet(t)
			set.Usage("Does many things.")
			set.SetDefault("a")
			set.AddCommand("a", "first command")
			set.AddCommand("b", "second command")
			require.NoError(t, set.Exec(context.Background(), []string{pattern}))
			out := buf.String()
			assert.Contains(t, out, "USAGE:\ncommands [COMMAND]")
			assert.Contains(t, out, "Does many things.")
			assert.Contains(t, out, "With no COMMAND, 'a' is run.")
			assert.Contains(t, out, "  a\tfirst command\n  b\tsecond command\n")
		})
	}
}
