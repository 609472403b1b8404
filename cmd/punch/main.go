package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/hireconnect/hireconnect-backend-go/internal/cli"
	"github.com/hireconnect/hireconnect-backend-go/internal/pkg/logging"
)

func main() {
	cmd := cli.Command()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger := logging.New(os.Stderr, cmd.Name, slog.LevelInfo)
	ctx = logging.IntoContext(ctx, logger)

	if err := cmd.Run(ctx, os.Args); err != nil {
		logger.Error(err.Error())
		stop()
		os.Exit(1)
	}
}
