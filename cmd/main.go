package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/desertthunder/mfx/internal/shared"
)

func main() {
	logger := shared.NewLogger(nil)
	shared.LoadEnv(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	runner := NewRunner(RunnerOpts{Logger: logger})
	err := runner.app().Run(ctx, os.Args)
	runner.Close()
	stop()

	if err != nil {
		logger.Fatalf("application error: %v", err)
	}
}
