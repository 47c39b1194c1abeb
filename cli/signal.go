package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
)

// SignalExitCtx will set up a context that will be cancelled if any of the given signals are received.
// The signal is available as the cause of the context.
// If a second signal is received, then [os.Exit] will be called with a non-zero exit code.
//
// The returned function stops listening for signals and releases the context.
func SignalExitCtx(parent context.Context, signals ...os.Signal) (context.Context, func()) {
	if len(signals) == 0 {
		panic("no signals passed to SignalExitCtx")
	}
	ctx, cancel := context.WithCancelCause(parent)
	sigs := make(chan os.Signal, 1)
	done := make(chan struct{})
	signal.Notify(sigs, signals...)
	go func() {
		select {
		case sig := <-sigs:
			cancel(fmt.Errorf("received signal: %s", sig))
		case <-done:
			return
		}
		select {
		case <-sigs:
			os.Exit(ExitError)
		case <-done:
		}
	}()
	return ctx, func() {
		signal.Stop(sigs)
		close(done)
		cancel(context.Canceled)
	}
}
