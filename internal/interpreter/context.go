package interpreter

import (
	"github.com/GriffinCanCode/scrapegoat/internal/dom"
	"github.com/GriffinCanCode/scrapegoat/internal/lang/ast"
	"github.com/GriffinCanCode/scrapegoat/internal/record"
)

// Context is the execution state of one Query. It is created fresh for
// every Query and discarded when the Query ends.
type Context struct {
	Query *ast.Query
	// Docs are the documents loaded by the latest VISIT.
	Docs []*dom.Document
	// Selection is the current candidate set, borrowed from Docs.
	Selection []dom.Node
	Records   []record.Record
	// Outputs lists the files written by OUTPUT, in order.
	Outputs []string

	fetched bool
	grazed  bool
	churned bool
}

func newContext(q *ast.Query, docs []*dom.Document) *Context {
	ec := &Context{Query: q}
	if len(docs) > 0 {
		ec.load(docs)
	}
	return ec
}

// load replaces the documents and resets the selection to their roots.
func (ec *Context) load(docs []*dom.Document) {
	ec.Docs = docs
	ec.Selection = ec.Roots()
	ec.fetched = true
	ec.grazed = false
	ec.churned = false
}

// Roots returns the root node of every loaded document.
func (ec *Context) Roots() []dom.Node {
	roots := make([]dom.Node, len(ec.Docs))
	for i, d := range ec.Docs {
		roots[i] = d.Root()
	}
	return roots
}

// Elements returns the top-level element of every loaded document.
func (ec *Context) Elements() []dom.Node {
	els := make([]dom.Node, len(ec.Docs))
	for i, d := range ec.Docs {
		els[i] = d.Element()
	}
	return els
}

// Fetched reports whether a document is loaded.
func (ec *Context) Fetched() bool { return ec.fetched }
