package invoke

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"time"
)

var (
	ErrStart = errors.New("failed to start command")
)

// Result is the outcome of a completed command.
type Result struct {
	ExitCode int
	Stdout   []byte // Stdout is only populated for a [Command] with Capture set.
	Duration time.Duration
}

// Invoker executes a [Command] to completion.
// A non-zero exit must be reported as an [*ExitError].
type Invoker interface {
	Invoke(ctx context.Context, cmd Command) (Result, error)
}

// Func adapts a function to the [Invoker] interface.
type Func func(ctx context.Context, cmd Command) (Result, error)

func (f Func) Invoke(ctx context.Context, cmd Command) (Result, error) {
	return f(ctx, cmd)
}

// ExitError reports a command that ran, but exited unsuccessfully.
type ExitError struct {
	Command Command
	Code    int   // Code is the exit status of the process, or -1 if it was terminated by a signal.
	Cause   error // Cause is set if the command was stopped because its context ended.
}

func (e *ExitError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("command '%s' stopped: %v", e.Command, e.Cause)
	}
	return fmt.Sprintf("command '%s' failed with exit status %d", e.Command, e.Code)
}

func (e *ExitError) Unwrap() error {
	return e.Cause
}

// ExitCode extracts the process exit status from an error chain containing an [*ExitError].
// Returns false if err has no [*ExitError], or the process didn't exit normally.
func ExitCode(err error) (int, bool) {
	var exitErr *ExitError
	if !errors.As(err, &exitErr) || exitErr.Code <= 0 {
		return 0, false
	}
	return exitErr.Code, true
}

var _ Invoker = (*ProcessInvoker)(nil)

// ProcessInvoker runs commands as child processes of the current process.
// The zero value streams to [os.Stdout] and [os.Stderr] and doesn't echo command lines.
type ProcessInvoker struct {
	Stdout     io.Writer    // Stdout receives verbose command output.
	Stderr     io.Writer    // Stderr receives command errors of verbose or captured commands.
	Echo       io.Writer    // Echo receives verbose command lines before they run.
	Transcript io.Writer    // Transcript receives a copy of streamed output, a line at a time, with terminal escape sequences removed.
	Log        *slog.Logger // Log receives debug information about every command, verbose or not.
}

// NewProcessInvoker creates a [ProcessInvoker] attached to the terminal, echoing command lines to [os.Stderr].
func NewProcessInvoker(log *slog.Logger) *ProcessInvoker {
	return &ProcessInvoker{
		Stdout: os.Stdout,
		Stderr: os.Stderr,
		Echo:   os.Stderr,
		Log:    log,
	}
}

func (p *ProcessInvoker) log() *slog.Logger {
	if p.Log == nil {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return p.Log
}

// streams picks the destinations for a command's output.
// A captured command's stderr still reaches the terminal, so a failing query explains itself.
// The returned flush function writes any partial transcript line, and must be called once the command exits.
func (p *ProcessInvoker) streams(c Command) (stdout io.Writer, stderr io.Writer, flush func()) {
	stdout, stderr, flush = io.Discard, io.Discard, func() {}
	if !c.Verbose && !c.Capture {
		return stdout, stderr, flush
	}
	stderr = p.Stderr
	if stderr == nil {
		stderr = os.Stderr
	}
	if c.Verbose {
		stdout = p.Stdout
		if stdout == nil {
			stdout = os.Stdout
		}
	}
	if p.Transcript == nil {
		return stdout, stderr, flush
	}
	t := newTranscript(p.Transcript)
	errLines := t.lines()
	stderr = io.MultiWriter(stderr, errLines)
	if !c.Verbose {
		return stdout, stderr, errLines.Flush
	}
	outLines := t.lines()
	stdout = io.MultiWriter(stdout, outLines)
	return stdout, stderr, func() {
		outLines.Flush()
		errLines.Flush()
	}
}

// Invoke runs the [Command] and waits for it to exit.
// If ctx ends first, the process is killed and the returned [*ExitError] wraps the context error.
func (p *ProcessInvoker) Invoke(ctx context.Context, c Command) (Result, error) {
	log := p.log().With("command", c.String())
	stdout, stderr, flush := p.streams(c)
	var captured bytes.Buffer
	if c.Capture {
		stdout = io.MultiWriter(&captured, stdout)
	}
	if c.Verbose && p.Echo != nil {
		_, _ = fmt.Fprintln(p.Echo, c.String())
	}

	cmd := exec.CommandContext(ctx, c.Program, c.Args...)
	cmd.Dir = c.Dir
	if c.Env != nil {
		cmd.Env = c.Env
	}
	cmd.Stdout = stdout
	cmd.Stderr = stderr

	log.Debug("Running command", "dir", c.Dir, "verbose", c.Verbose)
	start := time.Now()
	err := cmd.Run()
	flush()
	result := Result{Duration: time.Since(start)}
	if c.Capture {
		result.Stdout = captured.Bytes()
	}
	if err != nil {
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) {
			result.ExitCode = -1
			log.Debug("Command failed to start", "error", err)
			return result, fmt.Errorf("%w '%s': %w", ErrStart, c, err)
		}
		result.ExitCode = exitErr.ExitCode()
		log.Debug("Command failed", "exit", result.ExitCode, "duration", result.Duration)
		return result, &ExitError{Command: c, Code: result.ExitCode, Cause: ctx.Err()}
	}
	log.Debug("Command finished", "duration", result.Duration)
	return result, nil
}

// DryRunInvoker prints commands instead of running them.
// Captured commands are queries whose output drives what happens next (such as listing packages), so they are passed to Next.
type DryRunInvoker struct {
	Next Invoker
	Out  io.Writer
}

func (d *DryRunInvoker) Invoke(ctx context.Context, c Command) (Result, error) {
	if c.Capture && d.Next != nil {
		return d.Next.Invoke(ctx, c)
	}
	out := d.Out
	if out == nil {
		out = os.Stderr
	}
	_, _ = fmt.Fprintf(out, "%s (dry run)\n", c)
	return Result{}, nil
}
