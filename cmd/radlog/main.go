package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/radhelper/loghelper/internal/interfaces/cli"
)

func main() {
	container := cli.NewCLIContainer()

	// SIGINT/SIGTERM cancel the command context; the run loop observes
	// the cancellation and tears the session down itself, so a clean
	// #END still reaches the collector without a second goroutine
	// touching the registry.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cli.Execute(ctx, container)
}
