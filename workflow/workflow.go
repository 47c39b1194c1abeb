package workflow

import (
	"context"
	"github.com/saylorsolutions/tispbuild/config"
	"github.com/saylorsolutions/tispbuild/invoke"
	"github.com/saylorsolutions/tispbuild/metrics"
	"github.com/saylorsolutions/tispbuild/task"
	"io"
	"log/slog"
	"os"
	"slices"
)

// Task names.
const (
	Deps         = "deps"
	Build        = "build"
	FastUnitTest = "fast_unit_test"
	UnitTest     = "unit_test"
	CommandTest  = "command_test"
	Test         = "test"
	Format       = "format"
	Lint         = "lint"
	Install      = "install"
	Default      = "default"
	Clean        = "clean"
)

// Options are the collaborators of a [Workflow].
type Options struct {
	Config  *config.Config
	Invoker invoke.Invoker
	Race    bool              // Race enables race detection for unit tests, see the arch package.
	PID     int               // PID names per-package coverage profiles, defaulting to [os.Getpid].
	Environ []string          // Environ is the base environment for command tests, defaulting to [os.Environ].
	Out     io.Writer         // Out receives the coverage summary, defaulting to [os.Stderr].
	Log     *slog.Logger      // Log defaults to discarding messages.
	Metrics *metrics.Recorder // Metrics may be nil.
}

// Workflow holds everything task actions need.
type Workflow struct {
	cfg     *config.Config
	invoker invoke.Invoker
	race    bool
	pid     int
	environ []string
	out     io.Writer
	log     *slog.Logger
	metrics *metrics.Recorder
}

func New(opts Options) *Workflow {
	w := &Workflow{
		cfg:     opts.Config,
		invoker: opts.Invoker,
		race:    opts.Race,
		pid:     opts.PID,
		environ: slices.Clone(opts.Environ),
		out:     opts.Out,
		log:     opts.Log,
		metrics: opts.Metrics,
	}
	if w.pid == 0 {
		w.pid = os.Getpid()
	}
	if w.environ == nil {
		w.environ = os.Environ()
	}
	if w.out == nil {
		w.out = os.Stderr
	}
	if w.log == nil {
		w.log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return w
}

var catalog = []task.Task{
	{Name: Deps, Description: "Installs developer tooling and module dependencies"},
	{Name: Build, Description: "Compiles the interpreter binary"},
	{Name: FastUnitTest, Description: "Runs all tests without coverage"},
	{Name: UnitTest, Description: "Runs library tests and merges their coverage into one report"},
	{Name: CommandTest, Deps: []string{Build}, Description: "Runs end-to-end scenarios against the built binary"},
	{Name: Test, Deps: []string{UnitTest, CommandTest}, Description: "Runs unit and command tests"},
	{Name: Format, Description: "Fixes code style in place"},
	{Name: Lint, Description: "Runs static checks and validates documentation links"},
	{Name: Install, Deps: []string{Deps, Test, Build}, Description: "Installs dependencies, tests, builds, and fetches packages"},
	{Name: Default, Deps: []string{Test, Build}, Description: "Tests and builds"},
	{Name: Clean, Description: "Removes all untracked files"},
}

// Catalog describes every task of the project in definition order.
// Actions are not bound, so the catalog is safe to use before configuration is loaded.
func Catalog() []task.Task {
	tasks := make([]task.Task, len(catalog))
	for i, t := range catalog {
		t.Deps = slices.Clone(t.Deps)
		tasks[i] = t
	}
	return tasks
}

func (w *Workflow) actions() map[string]task.Action {
	return map[string]task.Action{
		Deps:         w.deps,
		Build:        w.build,
		FastUnitTest: w.fastUnitTest,
		UnitTest:     w.unitTest,
		CommandTest:  w.commandTest,
		Format:       w.format,
		Lint:         w.lint,
		Install:      w.install,
		Clean:        w.clean,
	}
}

// Graph binds the [Catalog] to this workflow's actions.
func (w *Workflow) Graph() (*task.Graph, error) {
	g := task.NewGraph(w.log)
	actions := w.actions()
	for _, t := range Catalog() {
		t.Action = actions[t.Name]
		if err := g.Define(t); err != nil {
			return nil, err
		}
	}
	if err := g.Validate(); err != nil {
		return nil, err
	}
	return g, nil
}

func (w *Workflow) goCmd(args ...string) invoke.Command {
	return invoke.Cmd(w.cfg.GoBinary, args...)
}

// run invokes commands in order from the root directory, stopping at the first failure.
func (w *Workflow) run(ctx context.Context, cmds ...invoke.Command) error {
	for _, cmd := range cmds {
		if len(cmd.Dir) == 0 {
			cmd = cmd.InDir(w.cfg.RootDir)
		}
		if _, err := w.invoker.Invoke(ctx, cmd); err != nil {
			return err
		}
	}
	return nil
}
