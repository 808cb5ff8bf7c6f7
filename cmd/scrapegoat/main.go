package main

import (
	"fmt"
	"io"
	"os"

	"github.com/urfave/cli/v2"
)

func main() {
	if err := newApp(os.Stdout, os.Stderr).Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newApp(stdout, stderr io.Writer) *cli.App {
	return &cli.App{
		Name:      "scrapegoat",
		Usage:     "run Goatspeak queries against web pages",
		UsageText: "scrapegoat [run] [options] <file|glob|query>",
		Writer:    stdout,
		ErrWriter: stderr,
		Flags:     runFlags(),
		Action:    runAction,
		Commands: []*cli.Command{
			{
				Name:      "run",
				Usage:     "execute queries and write their outputs",
				ArgsUsage: "<file|glob|query>",
				Flags:     runFlags(),
				Action:    runAction,
			},
			{
				Name:      "fmt",
				Usage:     "print queries in canonical form",
				ArgsUsage: "<file|glob|query>",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:    "write",
						Aliases: []string{"w"},
						Usage:   "rewrite files in place instead of printing",
					},
				},
				Action: fmtAction,
			},
			{
				Name:  "serve",
				Usage: "serve the HTTP API",
				Flags: []cli.Flag{
					configFlag(),
					&cli.StringFlag{Name: "host", Usage: "listen host"},
					&cli.StringFlag{Name: "port", Usage: "listen port"},
				},
				Action: serveAction,
			},
		},
	}
}

func configFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "TOML config file layered over SCRAPEGOAT_* environment settings",
	}
}

func runFlags() []cli.Flag {
	return []cli.Flag{
		configFlag(),
		&cli.BoolFlag{
			Name:    "verbose",
			Aliases: []string{"v"},
			Usage:   "print extracted records as JSON",
		},
		&cli.BoolFlag{
			Name:    "javascript",
			Aliases: []string{"j"},
			Usage:   "render pages in headless Chrome (same as --render headless)",
		},
		&cli.StringFlag{
			Name:  "render",
			Usage: "page rendering: http, headless or script",
		},
		&cli.StringFlag{
			Name:  "output-dir",
			Usage: "default directory for OUTPUT files",
		},
		&cli.StringFlag{
			Name:  "metrics-file",
			Usage: "write Prometheus metrics here after the run",
		},
		&cli.StringFlag{
			Name:  "log-level",
			Usage: "debug, info, warn or error",
		},
	}
}
