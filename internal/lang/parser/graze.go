package parser

import (
	"strconv"
	"strings"

	"github.com/GriffinCanCode/scrapegoat/internal/lang/ast"
	"github.com/GriffinCanCode/scrapegoat/internal/lang/token"
)

// ScrapeSelectParser parses `SELECT|SCRAPE [count] (tag | *) {condition};`.
type ScrapeSelectParser struct {
	Conditions ConditionParser
}

func (p ScrapeSelectParser) Parse(c *Cursor) (ast.Command, error) {
	kw := c.Next()
	if kw.Kind != token.SELECT && kw.Kind != token.SCRAPE {
		return nil, unexpected(kw, "SELECT or SCRAPE")
	}
	cmd := &ast.Graze{At: kw.Pos, Rebase: kw.Kind == token.SELECT}

	if t, ok := c.Accept(token.NUMBER); ok {
		n, err := strconv.Atoi(t.Lit)
		if err != nil || n <= 0 {
			return nil, unexpected(t, "positive element count")
		}
		cmd.Count = n
	}

	switch t := c.Peek(); t.Kind {
	case token.STAR:
		c.Next()
		cmd.Tag = "*"
	case token.IDENT:
		c.Next()
		cmd.Tag = strings.ToLower(t.Lit)
	default:
		return nil, c.Errorf("tag name or *")
	}

	for startsCondition(c.Peek().Kind) {
		cond, err := p.Conditions.Parse(c)
		if err != nil {
			return nil, err
		}
		cmd.Conditions = append(cmd.Conditions, cond)
	}

	if _, err := c.Expect(token.SEMICOLON); err != nil {
		return nil, err
	}
	return cmd, nil
}

func startsCondition(k token.Kind) bool {
	return k == token.IF || k == token.IN || k == token.NOT
}
