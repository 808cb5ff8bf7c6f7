package parser

import (
	"strconv"
	"strings"

	"github.com/GriffinCanCode/scrapegoat/internal/errs"
	"github.com/GriffinCanCode/scrapegoat/internal/lang/ast"
	"github.com/GriffinCanCode/scrapegoat/internal/lang/token"
)

const kwLast = "last"

// ConditionParser parses one filter clause:
//
//	[NOT] IF (@attr | body) [(= | != | LIKE) literal]
//	[NOT] IN POSITION op (integer | last)
//	[NOT] IN tag
type ConditionParser struct{}

func (ConditionParser) Parse(c *Cursor) (ast.Condition, error) {
	_, negated := c.Accept(token.NOT)

	switch t := c.Next(); t.Kind {
	case token.IF:
		return parseIf(c, t.Pos, negated)
	case token.IN:
		return parseIn(c, t.Pos, negated)
	default:
		return nil, unexpected(t, "IF or IN")
	}
}

func parseIf(c *Cursor, at token.Pos, negated bool) (ast.Condition, error) {
	cond := &ast.If{At: at, Negated: negated}

	switch t := c.Peek(); {
	case t.Kind == token.ATTR:
		c.Next()
		cond.Field = ast.Attr(strings.ToLower(t.Lit))
	case t.Kind == token.IDENT && t.Lit == ast.PseudoBody:
		c.Next()
		cond.Field = ast.Body
	default:
		return nil, c.Errorf("@attribute or body")
	}

	t := c.Peek()
	if !t.Kind.IsComparison() {
		cond.Op = ast.OpExists
		return cond, nil
	}
	switch t.Kind {
	case token.EQ, token.NEQ, token.LIKE:
		cond.Op, _ = ast.OpFromToken(c.Next().Kind)
	default:
		return nil, &errs.ConditionError{Pos: t.Pos, Msg: "operator " + t.Kind.String() + " only applies to POSITION"}
	}

	v := c.Peek()
	if v.Kind != token.STRING && v.Kind != token.NUMBER {
		return nil, c.Errorf("string or number")
	}
	c.Next()
	cond.Value = v.Lit
	return cond, nil
}

func parseIn(c *Cursor, at token.Pos, negated bool) (ast.Condition, error) {
	cond := &ast.In{At: at, Negated: negated}

	switch t := c.Peek(); t.Kind {
	case token.POSITION:
		c.Next()
	case token.IDENT:
		c.Next()
		cond.Ancestor = strings.ToLower(t.Lit)
		return cond, nil
	default:
		return nil, c.Errorf("POSITION or tag name")
	}

	op := c.Peek()
	switch {
	case op.Kind == token.LIKE:
		return nil, &errs.ConditionError{Pos: op.Pos, Msg: "POSITION cannot be compared with LIKE"}
	case !op.Kind.IsComparison():
		return nil, c.Errorf("comparison operator")
	}
	c.Next()
	cond.Op, _ = ast.OpFromToken(op.Kind)

	switch v := c.Peek(); {
	case v.Kind == token.NUMBER && strings.Contains(v.Lit, "."):
		return nil, &errs.ConditionError{Pos: v.Pos, Msg: "POSITION compared with non-integer " + v.Lit}
	case v.Kind == token.NUMBER:
		c.Next()
		n, err := strconv.Atoi(v.Lit)
		if err != nil {
			return nil, &errs.ConditionError{Pos: v.Pos, Msg: "POSITION index " + v.Lit + " is out of range"}
		}
		cond.Index = n
	case v.Kind == token.IDENT && v.Lit == kwLast:
		c.Next()
		cond.Last = true
	case v.Kind == token.STRING || v.Kind == token.IDENT:
		return nil, &errs.ConditionError{Pos: v.Pos, Msg: "POSITION compared with non-integer " + strconv.Quote(v.Lit)}
	default:
		return nil, c.Errorf("integer or last")
	}
	return cond, nil
}
