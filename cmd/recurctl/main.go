package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"focusflow/internal/cli"
	"focusflow/pkg/logger"
)

var version = "dev"

func main() {
	log := logger.NewLogger("recurctl")
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	root := cli.NewRootCmd(cli.DefaultFactory(log), version)
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		stop()
		os.Exit(1)
	}
}
