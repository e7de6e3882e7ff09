package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/0xReLogic/Greeter/internal/logging"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		stop()
		logger := logging.L()
		logger.Fatal().Err(err).Msg("greeter stopped")
	}
}
