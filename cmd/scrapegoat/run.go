package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/bytedance/sonic"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/scrapegoat/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/scrapegoat/internal/interpreter"
	"github.com/GriffinCanCode/scrapegoat/internal/logging"
	"github.com/GriffinCanCode/scrapegoat/internal/providers/deliver"
	"github.com/GriffinCanCode/scrapegoat/internal/providers/fetch"
	"github.com/GriffinCanCode/scrapegoat/internal/record"
)

func runAction(c *cli.Context) error {
	if c.NArg() != 1 {
		return fmt.Errorf("expected one file, glob or query, got %d arguments", c.NArg())
	}
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	inputs, err := resolveInputs(c.Args().First())
	if err != nil {
		return err
	}

	log, err := logging.New(cfg.Log)
	if err != nil {
		return err
	}
	defer log.Sync() //nolint:errcheck

	metrics := monitoring.NewMetrics()
	if cfg.Metrics.Textfile != "" {
		defer func() {
			if werr := metrics.WriteTextfile(cfg.Metrics.Textfile); werr != nil {
				log.Warn("failed to write metrics textfile", zap.String("path", cfg.Metrics.Textfile), zap.Error(werr))
			}
		}()
	}

	fetcher, err := fetch.Build(cfg.Fetch, log, metrics)
	if err != nil {
		return err
	}
	defer fetcher.Close()

	in := interpreter.New(
		interpreter.WithFetcher(fetcher),
		interpreter.WithDeliverer(deliver.New(cfg.Output.Dir, log.Named("deliver"))),
		interpreter.WithLogger(log.Named("interpreter")),
		interpreter.WithMetrics(metrics),
	)

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	var records []record.Record
	for _, src := range inputs {
		res, err := in.RunSource(ctx, src.Source)
		if err != nil {
			return src.wrap(err)
		}
		records = append(records, res.Records...)
	}

	if c.Bool("verbose") {
		return printRecords(c, records)
	}
	return nil
}

func printRecords(c *cli.Context, records []record.Record) error {
	if records == nil {
		records = []record.Record{}
	}
	data, err := sonic.ConfigStd.MarshalIndent(records, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(c.App.Writer, string(data))
	return err
}
