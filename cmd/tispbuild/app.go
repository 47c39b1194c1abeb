package main

import (
	"context"
	"errors"
	"fmt"
	"github.com/google/uuid"
	"github.com/saylorsolutions/tispbuild/arch"
	"github.com/saylorsolutions/tispbuild/cli"
	"github.com/saylorsolutions/tispbuild/config"
	"github.com/saylorsolutions/tispbuild/env"
	"github.com/saylorsolutions/tispbuild/invoke"
	"github.com/saylorsolutions/tispbuild/metrics"
	"github.com/saylorsolutions/tispbuild/slogx"
	"github.com/saylorsolutions/tispbuild/task"
	"github.com/saylorsolutions/tispbuild/workflow"
	flag "github.com/spf13/pflag"
	"io"
	"log/slog"
	"os"
)

// invokerFactory creates the invoker for a run, and a function that releases anything it opened.
type invokerFactory func(cfg *config.Config, log *slog.Logger) (invoke.Invoker, func() error, error)

// app holds the state of one CLI invocation.
// Configuration and logging are set up by a pre-exec hook once flags are parsed.
type app struct {
	out        io.Writer
	environ    []string
	newInvoker invokerFactory

	cfg     *config.Config
	log     *slog.Logger
	closers []func() error
}

func newApp(out io.Writer, environ []string) *app {
	return &app{out: out, environ: environ, newInvoker: processInvoker}
}

func (a *app) commands() *cli.CommandSet {
	set := cli.NewCommandSet("tispbuild").
		Usage("Builds, tests, and checks the tisp interpreter.\nAny number of tasks may be given, and each task runs at most once.").
		SetDefault(workflow.Default)
	set.Printer().Redirect(a.out)
	set.PreExec(a.setup)

	tasks := set.AddCommand("tasks", "Lists every task and its dependencies", "ls").
		Usage("tasks [FLAGS]").
		Does(a.listTasks)
	tasks.Flags().StringP("config", "c", "", "Reads settings from a YAML or TOML file")

	for _, t := range workflow.Catalog() {
		cmd := set.AddCommand(t.Name, t.Description).
			Usage("%s [FLAGS] [MORE TASKS...]", t.Name).
			Does(a.runTasks(t.Name))
		flags := cmd.Flags()
		flags.SetInterspersed(true)
		flags.StringP("config", "c", "", "Reads settings from a YAML or TOML file")
		flags.BoolP("dry-run", "n", false, "Prints commands instead of running them")
		flags.BoolP("verbose", "v", false, "Logs debug information, including every command")
	}
	return set
}

// setup layers flags over the configuration file and environment, then starts logging.
func (a *app) setup(_ context.Context, cmd *cli.Command) error {
	flags := cmd.Flags()
	src := env.FromEnviron(config.EnvPrefix, a.environ)
	cfg, err := config.Load(cli.MustGet(flags.GetString("config")), src)
	if err != nil {
		return cli.WrapUsage(err)
	}
	if flags.Changed("verbose") {
		cfg.Verbose = cli.MustGet(flags.GetBool("verbose"))
	}
	if flags.Changed("dry-run") {
		cfg.DryRun = cli.MustGet(flags.GetBool("dry-run"))
	}
	if err := cfg.Validate(); err != nil {
		return cli.WrapUsage(err)
	}

	var logFile string
	if len(cfg.LogFile) > 0 {
		logFile = cfg.Path(cfg.LogFile)
	}
	log, closeLog, err := slogx.New(slogx.Options{
		Out:     a.out,
		Verbose: cfg.Verbose,
		LogFile: logFile,
		RunID:   uuid.NewString(),
	})
	if err != nil {
		return err
	}
	a.cfg, a.log = cfg, log
	a.closers = append(a.closers, closeLog)
	return nil
}

func (a *app) close() {
	for _, closer := range a.closers {
		if err := closer(); err != nil {
			a.log.Warn("Failed to close output", "error", err)
		}
	}
	a.closers = nil
}

func (a *app) listTasks(_ context.Context, _ *flag.FlagSet, printer *cli.Printer) error {
	defer a.close()
	cli.WriteTasks(printer, workflow.Catalog())
	return nil
}

// runTasks runs the named task followed by any tasks given as arguments.
func (a *app) runTasks(name string) cli.CommandFunc {
	return func(ctx context.Context, flags *flag.FlagSet, printer *cli.Printer) error {
		defer a.close()
		return a.run(ctx, printer, append([]string{name}, flags.Args()...))
	}
}

func (a *app) run(ctx context.Context, printer *cli.Printer, names []string) error {
	inv, closeInvoker, err := a.newInvoker(a.cfg, a.log)
	if err != nil {
		return err
	}
	a.closers = append(a.closers, closeInvoker)
	if a.cfg.DryRun {
		inv = &invoke.DryRunInvoker{Next: inv, Out: printer}
	}

	log := a.log
	if mod, err := a.cfg.ModulePath(); err != nil {
		log.Warn("Root directory is not a Go module", "root", a.cfg.RootDir, "error", err)
	} else {
		log = log.With("module", mod)
	}
	detector := arch.NewDetector(a.cfg.RaceArchitectures...)
	machine, race := detector.Resolve(ctx, inv, a.cfg.Arch)
	log.Debug("Race detection support", "machine", machine, "supported", detector.Architectures())
	log.Info("Starting run", "tasks", names, "machine", machine, "race", race, "dry_run", a.cfg.DryRun)

	recorder := metrics.NewRecorder()
	wf := workflow.New(workflow.Options{
		Config:  a.cfg,
		Invoker: inv,
		Race:    race,
		Environ: a.environ,
		Out:     printer,
		Log:     log,
		Metrics: recorder,
	})
	graph, err := wf.Graph()
	if err != nil {
		return err
	}
	for _, name := range names {
		if _, ok := graph.Lookup(name); !ok {
			return cli.NewUsageError("%w: %s", task.ErrUnknownTask, name)
		}
	}

	results, runErr := graph.Run(ctx, names...)
	recorder.RecordTasks(results)
	if len(results) > 0 {
		cli.WriteResults(printer, results)
	}
	if len(a.cfg.MetricsFile) > 0 {
		if err := recorder.WriteTextfile(a.cfg.Path(a.cfg.MetricsFile)); err != nil {
			log.Warn("Failed to write metrics", "error", err)
		}
	}
	if runErr != nil {
		log.Error("Run failed", "error", runErr)
		return runErr
	}
	log.Info("Run finished")
	return nil
}

// processInvoker runs real processes, copying their output to the transcript file if one is configured.
func processInvoker(cfg *config.Config, log *slog.Logger) (invoke.Invoker, func() error, error) {
	inv := invoke.NewProcessInvoker(log)
	if len(cfg.TranscriptFile) == 0 {
		return inv, func() error { return nil }, nil
	}
	f, err := os.OpenFile(cfg.Path(cfg.TranscriptFile), os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open transcript: %w", err)
	}
	inv.Transcript = f
	return inv, func() error {
		if err := f.Close(); err != nil && !errors.Is(err, os.ErrClosed) {
			return err
		}
		return nil
	}, nil
}
