package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/tailorcv/tailorcv-cli/internal/buildinfo"
	"github.com/tailorcv/tailorcv-cli/internal/client/cli"
	"github.com/tailorcv/tailorcv-cli/internal/client/config"
	"github.com/tailorcv/tailorcv-cli/internal/logging"
)

func main() {

	buildinfo.PrintBuildData(os.Stdout)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		log.Fatalf("%v", err)
	}

	logger := logging.New(os.Stderr, cfg.LogLevel)

	app, err := cli.NewApp(cfg, logger)
	if err != nil {
		log.Fatalf("%v", err)
	}

	app.Run(ctx)
}
