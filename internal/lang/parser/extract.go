package parser

import (
	"strings"

	"github.com/GriffinCanCode/scrapegoat/internal/lang/ast"
	"github.com/GriffinCanCode/scrapegoat/internal/lang/token"
)

const (
	flagTable          = "table"
	flagIgnoreChildren = "ignore_children"
)

// ExtractParser parses `EXTRACT field {, field} {--switch};` and
// `EXTRACT --table;`.
type ExtractParser struct {
	Flags FlagParser
}

func (p ExtractParser) Parse(c *Cursor) (ast.Command, error) {
	kw, err := c.Expect(token.EXTRACT)
	if err != nil {
		return nil, err
	}
	cmd := &ast.Churn{At: kw.Pos}

	seen := make(map[string]bool)
	for !c.Is(token.FLAG) {
		at := c.Peek()
		f, err := parseField(c)
		if err != nil {
			return nil, err
		}
		if seen[f.Key()] {
			return nil, unexpected(at, "distinct field (column "+f.Key()+" is already extracted)")
		}
		seen[f.Key()] = true
		cmd.Fields = append(cmd.Fields, f)
		if _, ok := c.Accept(token.COMMA); !ok {
			break
		}
		if c.Is(token.FLAG) {
			return nil, c.Errorf("field after ,")
		}
	}

	at := c.Peek()
	flags, err := p.Flags.Parse(c, nil, flagTable, flagIgnoreChildren)
	if err != nil {
		return nil, err
	}
	cmd.Table = flags[flagTable] != ""
	cmd.IgnoreChildren = flags[flagIgnoreChildren] != ""
	switch {
	case cmd.Table && len(cmd.Fields) > 0:
		return nil, unexpected(at, "no fields with --table")
	case !cmd.Table && len(cmd.Fields) == 0:
		return nil, unexpected(at, "field (@attribute, body, tag, html or markdown)")
	}

	if _, err := c.Expect(token.SEMICOLON); err != nil {
		return nil, err
	}
	return cmd, nil
}

func parseField(c *Cursor) (ast.Field, error) {
	t := c.Peek()
	switch t.Kind {
	case token.ATTR:
		c.Next()
		return ast.Attr(strings.ToLower(t.Lit)), nil
	case token.IDENT:
		if f, ok := ast.Pseudo(t.Lit); ok {
			c.Next()
			return f, nil
		}
	}
	return ast.Field{}, c.Errorf("field (@attribute, body, tag, html or markdown)")
}
