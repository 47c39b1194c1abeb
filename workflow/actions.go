package workflow

import (
	"context"
	"fmt"
	"github.com/saylorsolutions/tispbuild/env"
	"github.com/saylorsolutions/tispbuild/invoke"
	"path/filepath"
)

func (w *Workflow) deps(ctx context.Context) error {
	var cmds []invoke.Command
	if len(w.cfg.Tools) > 0 {
		cmds = append(cmds, w.goCmd(append([]string{"get", "-u"}, w.cfg.Tools...)...))
	}
	cmds = append(cmds,
		invoke.Cmd(w.cfg.Linter, "--install"),
		w.goCmd("get", "-d", "-t", "./..."),
		invoke.Cmd("gem", "install", "bundler", "rubocop"),
	)
	return w.run(ctx, cmds...)
}

func (w *Workflow) build(ctx context.Context) error {
	return w.run(ctx, w.goCmd("build", "-o", w.cfg.BinaryPath, w.cfg.MainPackage))
}

func (w *Workflow) fastUnitTest(ctx context.Context) error {
	return w.run(ctx, w.goCmd("test", "./..."))
}

// commandTest runs the cucumber scenarios with the freshly built binary first on the search path.
func (w *Workflow) commandTest(ctx context.Context) error {
	binDir, err := w.cfg.BinDir()
	if err != nil {
		return fmt.Errorf("failed to resolve binary directory: %w", err)
	}
	environ := env.PrependPath(w.environ, binDir)
	examples := w.cfg.ExamplesDir
	return w.run(ctx,
		invoke.Cmd("bundle", "install"),
		invoke.Cmd("bundle", "exec", "cucumber",
			"-r", filepath.ToSlash(filepath.Join(examples, "aruba.rb")),
			examples,
		).WithEnv(environ),
	)
}

func (w *Workflow) format(ctx context.Context) error {
	if err := w.run(ctx,
		w.goCmd("fix", "./..."),
		w.goCmd("fmt", "./..."),
	); err != nil {
		return err
	}
	files, err := sourceFiles(w.cfg.RootDir, ".go")
	if err != nil {
		return err
	}
	for _, file := range files {
		if err := w.run(ctx, invoke.Cmd("goimports", "-w", file)); err != nil {
			return err
		}
	}
	return w.run(ctx, invoke.Cmd("rubocop", "-a"))
}

func (w *Workflow) lint(ctx context.Context) error {
	if err := w.run(ctx,
		invoke.Cmd(w.cfg.Linter, w.cfg.LinterArgs...),
		invoke.Cmd("rubocop"),
	); err != nil {
		return err
	}
	docs, err := sourceFiles(w.cfg.RootDir, ".md")
	if err != nil {
		return err
	}
	if len(docs) == 0 {
		w.log.Info("No documentation to check for broken links")
		return nil
	}
	return w.run(ctx, invoke.Cmd("liche", append([]string{"-v"}, docs...)...))
}

func (w *Workflow) install(ctx context.Context) error {
	return w.run(ctx, w.goCmd("get", "./..."))
}

func (w *Workflow) clean(ctx context.Context) error {
	return w.run(ctx, invoke.Cmd("git", "clean", "-dfx"))
}
