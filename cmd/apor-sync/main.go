package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/ahmethakanbesel/apor-sync/internal/cli"
)

func main() {
	// Cancelled on SIGINT/SIGTERM so an in-flight pass stops at its next
	// blocking call and a --every loop exits.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cli.NewRootCommand().ExecuteContext(ctx); err != nil {
		slog.Error("apor-sync failed", "error", err)
		stop()
		os.Exit(1)
	}
}
