package main

import (
	"context"
	"errors"
	"fmt"
	"github.com/saylorsolutions/tispbuild/cli"
	"os"
	"syscall"
)

func main() {
	ctx, stop := cli.SignalExitCtx(context.Background(), os.Interrupt, syscall.SIGTERM)
	a := newApp(os.Stderr, os.Environ())
	err := a.commands().Exec(ctx, os.Args[1:])
	stop()
	if err != nil {
		var usageErr *cli.UsageError
		if errors.As(err, &usageErr) {
			_, _ = fmt.Fprintf(os.Stderr, "%v\nRun 'tispbuild --help' for usage.\n", err)
		} else {
			_, _ = fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
	}
	os.Exit(cli.ExitCode(err))
}
