package parser

import (
	"github.com/GriffinCanCode/scrapegoat/internal/lang/ast"
	"github.com/GriffinCanCode/scrapegoat/internal/lang/token"
)

// VisitParser parses `VISIT "url";` and `VISIT ("u1", "u2");`.
type VisitParser struct{}

func (VisitParser) Parse(c *Cursor) (ast.Command, error) {
	kw, err := c.Expect(token.VISIT)
	if err != nil {
		return nil, err
	}
	cmd := &ast.Fetch{At: kw.Pos}

	if _, ok := c.Accept(token.LPAREN); ok {
		for {
			u, err := c.Expect(token.STRING)
			if err != nil {
				return nil, err
			}
			cmd.URLs = append(cmd.URLs, u.Lit)
			if _, ok := c.Accept(token.COMMA); !ok {
				break
			}
		}
		if _, err := c.Expect(token.RPAREN); err != nil {
			return nil, err
		}
	} else {
		u, err := c.Expect(token.STRING)
		if err != nil {
			return nil, err
		}
		cmd.URLs = []string{u.Lit}
	}

	if _, err := c.Expect(token.SEMICOLON); err != nil {
		return nil, err
	}
	return cmd, nil
}
