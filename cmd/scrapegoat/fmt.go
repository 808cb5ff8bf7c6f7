package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/GriffinCanCode/scrapegoat/internal/lang/parser"
)

func fmtAction(c *cli.Context) error {
	if c.NArg() != 1 {
		return fmt.Errorf("expected one file, glob or query, got %d arguments", c.NArg())
	}
	inputs, err := resolveInputs(c.Args().First())
	if err != nil {
		return err
	}

	for _, src := range inputs {
		block, err := parser.ParseSource(src.Source)
		if err != nil {
			return src.wrap(err)
		}
		out := block.String() + "\n"

		if c.Bool("write") && src.Path != "" {
			if out == src.Source {
				continue
			}
			if err := os.WriteFile(src.Path, []byte(out), 0o644); err != nil {
				return err
			}
			continue
		}
		if _, err := fmt.Fprint(c.App.Writer, out); err != nil {
			return err
		}
	}
	return nil
}
