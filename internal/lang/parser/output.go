package parser

import (
	"slices"
	"strings"

	"github.com/GriffinCanCode/scrapegoat/internal/lang/ast"
	"github.com/GriffinCanCode/scrapegoat/internal/lang/token"
)

const (
	flagFilename = "filename"
	flagPath     = "path"
)

// OutputParser parses `OUTPUT format {--flag value};`.
type OutputParser struct {
	Flags FlagParser
}

func (p OutputParser) Parse(c *Cursor) (ast.Command, error) {
	kw, err := c.Expect(token.OUTPUT)
	if err != nil {
		return nil, err
	}
	cmd := &ast.Deliver{At: kw.Pos}

	t := c.Peek()
	format, ok := ast.ParseFormat(t.Lit)
	if t.Kind != token.IDENT || !ok {
		return nil, c.Errorf("output format (csv, json or yaml)")
	}
	c.Next()
	cmd.Format = format

	flags, err := p.Flags.Parse(c, []string{flagFilename, flagPath})
	if err != nil {
		return nil, err
	}
	cmd.Filename = flags[flagFilename]
	cmd.Path = flags[flagPath]

	if _, err := c.Expect(token.SEMICOLON); err != nil {
		return nil, err
	}
	return cmd, nil
}

// FlagParser consumes `--name value` pairs and bare `--name` switches.
type FlagParser struct{}

// Parse reads flags until the next non-flag token. Names in valued take
// a value; names in switches take none and map to "true". Each flag may
// appear once.
func (FlagParser) Parse(c *Cursor, valued []string, switches ...string) (map[string]string, error) {
	flags := make(map[string]string)
	for c.Is(token.FLAG) {
		name := c.Peek()
		isSwitch := slices.Contains(switches, name.Lit)
		if !isSwitch && !slices.Contains(valued, name.Lit) {
			return nil, c.Errorf(expectedFlags(append(slices.Clone(valued), switches...)))
		}
		if _, dup := flags[name.Lit]; dup {
			return nil, unexpected(name, "flag --"+name.Lit+" at most once")
		}
		c.Next()
		if isSwitch {
			flags[name.Lit] = "true"
			continue
		}

		v := c.Peek()
		switch v.Kind {
		case token.STRING, token.IDENT, token.NUMBER:
			c.Next()
			flags[name.Lit] = v.Lit
		default:
			return nil, c.Errorf("value for --" + name.Lit)
		}
	}
	return flags, nil
}

func expectedFlags(allowed []string) string {
	s := "flag"
	for i, a := range allowed {
		if i > 0 {
			s += " or"
		}
		s += " --" + strings.ReplaceAll(a, "_", "-")
	}
	return s
}
