package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"marketpipe/internal/app"
)

func main() {
	os.Exit(run())
}

func run() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	application, err := app.NewApplication(ctx)
	if err != nil {
		slog.Error("Failed to initialize application", slog.String("error", err.Error()))
		return 1
	}
	defer application.Close(context.Background())

	if err := application.Run(ctx); err != nil {
		return 1
	}
	return 0
}
