package parser

import (
	"github.com/GriffinCanCode/scrapegoat/internal/errs"
	"github.com/GriffinCanCode/scrapegoat/internal/lang/token"
)

// Cursor walks a token slice. Reading past the end keeps returning the
// final EOF token.
type Cursor struct {
	toks []token.Token
	pos  int
}

// NewCursor returns a cursor at the first token. A missing trailing EOF
// is supplied.
func NewCursor(toks []token.Token) *Cursor {
	if n := len(toks); n == 0 || toks[n-1].Kind != token.EOF {
		var at token.Pos
		if n > 0 {
			at = toks[n-1].Pos
		}
		toks = append(toks[:n:n], token.Token{Kind: token.EOF, Pos: at})
	}
	return &Cursor{toks: toks}
}

// Peek returns the current token without consuming it.
func (c *Cursor) Peek() token.Token { return c.toks[c.pos] }

// PeekAt returns the token n positions ahead of the current one.
func (c *Cursor) PeekAt(n int) token.Token {
	if i := c.pos + n; i < len(c.toks) {
		return c.toks[i]
	}
	return c.toks[len(c.toks)-1]
}

// Next consumes and returns the current token.
func (c *Cursor) Next() token.Token {
	t := c.toks[c.pos]
	if c.pos < len(c.toks)-1 {
		c.pos++
	}
	return t
}

// Offset is the index of the current token.
func (c *Cursor) Offset() int { return c.pos }

// Done reports whether only EOF remains.
func (c *Cursor) Done() bool { return c.Peek().Kind == token.EOF }

// Is reports whether the current token has kind k.
func (c *Cursor) Is(k token.Kind) bool { return c.Peek().Kind == k }

// Accept consumes the current token if it has kind k.
func (c *Cursor) Accept(k token.Kind) (token.Token, bool) {
	if !c.Is(k) {
		return token.Token{}, false
	}
	return c.Next(), true
}

// Expect consumes a token of kind k or fails with a ParseError.
func (c *Cursor) Expect(k token.Kind) (token.Token, error) {
	if t, ok := c.Accept(k); ok {
		return t, nil
	}
	return token.Token{}, c.Errorf(k.String())
}

// Errorf builds a ParseError for the current token.
func (c *Cursor) Errorf(expected string) error {
	return unexpected(c.Peek(), expected)
}

func unexpected(t token.Token, expected string) error {
	return &errs.ParseError{Pos: t.Pos, Expected: expected, Actual: t}
}
