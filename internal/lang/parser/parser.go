package parser

import (
	"github.com/GriffinCanCode/scrapegoat/internal/lang/ast"
	"github.com/GriffinCanCode/scrapegoat/internal/lang/lexer"
	"github.com/GriffinCanCode/scrapegoat/internal/lang/token"
)

// Parser consumes one command from c, including its terminating ';'.
// On success the cursor sits on the token after the ';'.
type Parser interface {
	Parse(c *Cursor) (ast.Command, error)
}

// Registry maps a command keyword to the parser for that command.
type Registry struct {
	parsers map[token.Kind]Parser
}

// NewRegistry returns a registry with the built-in command parsers.
func NewRegistry() *Registry {
	r := &Registry{parsers: make(map[token.Kind]Parser)}
	graze := ScrapeSelectParser{}
	r.Register(token.VISIT, VisitParser{})
	r.Register(token.SELECT, graze)
	r.Register(token.SCRAPE, graze)
	r.Register(token.EXTRACT, ExtractParser{})
	r.Register(token.OUTPUT, OutputParser{})
	return r
}

// Register installs p for keyword, replacing any previous parser.
func (r *Registry) Register(keyword token.Kind, p Parser) {
	r.parsers[keyword] = p
}

// Lookup returns the parser registered for keyword.
func (r *Registry) Lookup(keyword token.Kind) (Parser, bool) {
	p, ok := r.parsers[keyword]
	return p, ok
}

// ParseCommand dispatches on the current keyword.
func (r *Registry) ParseCommand(c *Cursor) (ast.Command, error) {
	p, ok := r.parsers[c.Peek().Kind]
	if !ok {
		return nil, c.Errorf("command keyword")
	}
	return p.Parse(c)
}

// ParseBlock splits tokens into queries and parses every command.
//
// When the tokens contain "[label]" markers each marker opens a new
// query and commands before the first marker form an unlabelled query.
// Otherwise a VISIT that follows any other command opens a new query.
// Queries without commands are dropped.
func (r *Registry) ParseBlock(toks []token.Token) (*ast.Block, error) {
	var (
		c      = NewCursor(toks)
		marked = hasMarkers(toks)
		block  = &ast.Block{}
		cur    *ast.Query
	)
	flush := func() {
		if cur != nil && len(cur.Commands) > 0 {
			block.Queries = append(block.Queries, cur)
		}
		cur = nil
	}

	for !c.Done() {
		if t, ok := c.Accept(token.BOUNDARY); ok {
			flush()
			cur = &ast.Query{Label: t.Lit, Marked: true}
			continue
		}

		cmd, err := r.ParseCommand(c)
		if err != nil {
			return nil, err
		}
		if !marked && cur != nil && cmd.Kind() == ast.KindFetch {
			if last := cur.Commands[len(cur.Commands)-1]; last.Kind() != ast.KindFetch {
				flush()
			}
		}
		if cur == nil {
			cur = &ast.Query{}
		}
		cur.Commands = append(cur.Commands, cmd)
	}
	flush()
	return block, nil
}

func hasMarkers(toks []token.Token) bool {
	for _, t := range toks {
		if t.Kind == token.BOUNDARY {
			return true
		}
	}
	return false
}

var std = NewRegistry()

// ParseBlock parses tokens with the built-in parsers.
func ParseBlock(toks []token.Token) (*ast.Block, error) {
	return std.ParseBlock(toks)
}

// ParseSource tokenizes and parses src.
func ParseSource(src string) (*ast.Block, error) {
	toks, err := lexer.Tokenize(src)
	if err != nil {
		return nil, err
	}
	return std.ParseBlock(toks)
}
