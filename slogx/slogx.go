// Package slogx sets up structured logging for a build run.
package slogx

import (
	"fmt"
	"golang.org/x/term"
	"io"
	"log/slog"
	"os"
)

// Options controls where a run logs, and how much.
type Options struct {
	Out     io.Writer // Out is the console destination, defaulting to [os.Stderr].
	Verbose bool      // Verbose enables debug messages on the console.
	LogFile string    // LogFile is a path that receives every message as JSON, including debug messages.
	RunID   string    // RunID is attached to every message, to correlate a run's logs.
}

// IsTerminal reports whether w is attached to an interactive terminal.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return term.IsTerminal(int(f.Fd()))
}

// New creates a logger for a run.
// Console output is human-readable text on a terminal, and JSON otherwise so CI systems can parse it.
// The returned close function must be called to flush and close the log file, if any.
func New(opts Options) (*slog.Logger, func() error, error) {
	out := opts.Out
	if out == nil {
		out = os.Stderr
	}
	level := slog.LevelInfo
	if opts.Verbose {
		level = slog.LevelDebug
	}
	handlerOpts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if IsTerminal(out) {
		handler = slog.NewTextHandler(out, handlerOpts)
	} else {
		handler = slog.NewJSONHandler(out, handlerOpts)
	}

	closer := func() error { return nil }
	if len(opts.LogFile) > 0 {
		f, err := os.OpenFile(opts.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open log file: %w", err)
		}
		handler = MergeHandlers(handler, slog.NewJSONHandler(f, &slog.HandlerOptions{Level: slog.LevelDebug}))
		closer = f.Close
	}

	log := slog.New(handler)
	if len(opts.RunID) > 0 {
		log = log.With("run", opts.RunID)
	}
	return log, closer, nil
}
