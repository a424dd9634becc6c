package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"itemweaver/internal/cli"
)

// main is a deterministic boundary: all CLI inputs are canonicalized into an
// Invocation before any operation runs.
func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	res, err := cli.Run(ctx, os.Args[1:], cli.Streams{Out: os.Stdout, Err: os.Stderr})
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
	}
	stop()
	os.Exit(res.ExitCode)
}
