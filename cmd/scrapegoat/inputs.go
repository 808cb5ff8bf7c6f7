package main

import (
	"fmt"
	"os"
	"sort"

	"github.com/bmatcuk/doublestar/v4"
)

// input is one query source: a file, or the raw command-line argument.
type input struct {
	// Path is empty for a query given inline.
	Path   string
	Source string
}

func (in input) wrap(err error) error {
	if in.Path == "" {
		return err
	}
	return fmt.Errorf("%s: %w", in.Path, err)
}

// resolveInputs interprets arg as a file, then as a glob of files, and
// otherwise as query source. Glob matches run in lexical order.
func resolveInputs(arg string) ([]input, error) {
	if fi, err := os.Stat(arg); err == nil && fi.Mode().IsRegular() {
		return readInputs([]string{arg})
	}

	matches, err := doublestar.FilepathGlob(arg, doublestar.WithFilesOnly())
	if err == nil && len(matches) > 0 {
		sort.Strings(matches)
		return readInputs(matches)
	}
	return []input{{Source: arg}}, nil
}

func readInputs(paths []string) ([]input, error) {
	inputs := make([]input, 0, len(paths))
	for _, p := range paths {
		data, err := os.ReadFile(p)
		if err != nil {
			return nil, err
		}
		inputs = append(inputs, input{Path: p, Source: string(data)})
	}
	return inputs, nil
}
