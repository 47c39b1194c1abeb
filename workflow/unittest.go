package workflow

import (
	"context"
	"errors"
	"fmt"
	"github.com/saylorsolutions/tispbuild/coverage"
	"github.com/saylorsolutions/tispbuild/invoke"
	"github.com/saylorsolutions/tispbuild/packages"
	"io/fs"
	"os"
)

// unitTest runs each library package through an instrumented test pass, folding its profile into the report before moving on.
// A failing package stops the pipeline, leaving the report with only the packages tested before it.
func (w *Workflow) unitTest(ctx context.Context) error {
	report := coverage.NewAggregator(w.cfg.Path(w.cfg.CoverageReport), w.cfg.CoverageMode)
	if err := report.BeginReport(); err != nil {
		return err
	}
	profileDir, err := w.profileDir()
	if err != nil {
		return err
	}
	profile := coverage.ProfilePath(profileDir, w.cfg.ProfilePrefix, w.pid)
	enum := &packages.Enumerator{
		Invoker:  w.invoker,
		Dir:      w.cfg.RootDir,
		GoBinary: w.cfg.GoBinary,
		Exclude:  w.cfg.Exclude,
	}
	log := w.log.With("report", report.Path())
	log.Debug("Starting coverage run", "profile", profile, "race", w.race)

	var tested int
	for pkg, err := range enum.Enumerate(ctx, w.cfg.LibraryPackages) {
		if err != nil {
			return err
		}
		if err := removeProfile(profile); err != nil {
			return err
		}
		testErr := w.run(ctx, w.testCommand(pkg, profile))
		w.metrics.RecordPackage(testErr)
		if testErr != nil {
			if err := removeProfile(profile); err != nil {
				log.Warn("Unable to remove coverage profile", "profile", profile, "error", err)
			}
			return testErr
		}
		lines, err := report.Absorb(profile)
		if err != nil {
			return err
		}
		tested++
		log.Debug("Absorbed package coverage", "package", pkg, "lines", lines)
	}
	log.Info("Coverage report written", "packages", tested, "lines", report.Lines())
	if report.Lines() > 0 {
		w.summarize(report.Path())
	}
	return nil
}

// profileDir resolves the temp dir against the root, since go test writes the profile relative to the directory it runs in.
func (w *Workflow) profileDir() (string, error) {
	if len(w.cfg.TempDir) == 0 {
		return os.TempDir(), nil
	}
	dir := w.cfg.Path(w.cfg.TempDir)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create profile directory: %w", err)
	}
	return dir, nil
}

func (w *Workflow) testCommand(pkg packages.Ref, profile string) invoke.Command {
	args := []string{"test",
		"-covermode", w.cfg.CoverageMode,
		"-coverprofile", profile,
	}
	if w.race {
		args = append(args, "-race")
	}
	args = append(args, pkg.String())
	return w.goCmd(args...)
}

// summarize reports overall coverage.
// The report is already complete at this point, so a summary problem is only logged.
func (w *Workflow) summarize(reportPath string) {
	summary, err := coverage.Summarize(reportPath)
	if err != nil {
		w.log.Warn("Unable to summarize coverage", "error", err)
		return
	}
	coverage.WriteSummary(w.out, summary)
	w.metrics.RecordCoverage(summary.Total.Ratio())
}

// removeProfile clears a profile left behind by an interrupted run of an earlier process with the same ID.
func removeProfile(profile string) error {
	if err := os.Remove(profile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}
