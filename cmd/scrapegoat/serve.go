package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"

	"github.com/GriffinCanCode/scrapegoat/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/scrapegoat/internal/logging"
	"github.com/GriffinCanCode/scrapegoat/internal/providers/fetch"
	"github.com/GriffinCanCode/scrapegoat/internal/server"
)

func serveAction(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	// Remote callers must not read the server's files.
	cfg.Fetch.AllowFile = false

	log, err := logging.New(cfg.Log)
	if err != nil {
		return err
	}
	defer log.Sync() //nolint:errcheck

	metrics := monitoring.NewMetrics()
	fetcher, err := fetch.Build(cfg.Fetch, log, metrics)
	if err != nil {
		return err
	}
	defer fetcher.Close()

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := server.New(cfg.Server, fetcher, log.Named("server"), metrics)
	return srv.ListenAndServe(ctx)
}
