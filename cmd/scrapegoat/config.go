package main

import (
	"github.com/urfave/cli/v2"

	"github.com/GriffinCanCode/scrapegoat/internal/config"
)

// loadConfig reads the environment, the optional --config file and then
// applies flag overrides.
func loadConfig(c *cli.Context) (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if path := c.String("config"); path != "" {
		cfg, err = config.LoadFile(path)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, err
	}

	if v := c.String("log-level"); v != "" {
		cfg.Log.Level = v
	}
	if v := c.String("render"); v != "" {
		cfg.Fetch.Render = v
	}
	if c.Bool("javascript") {
		cfg.Fetch.Render = config.RenderHeadless
	}
	if v := c.String("output-dir"); v != "" {
		cfg.Output.Dir = v
	}
	if v := c.String("metrics-file"); v != "" {
		cfg.Metrics.Textfile = v
	}
	if v := c.String("host"); v != "" {
		cfg.Server.Host = v
	}
	if v := c.String("port"); v != "" {
		cfg.Server.Port = v
	}
	return cfg, cfg.Validate()
}
