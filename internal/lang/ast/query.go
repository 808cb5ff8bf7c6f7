package ast

import (
	"strconv"
	"strings"
)

// Query is one fetch-through-output pipeline of commands.
type Query struct {
	// Label is the text of the "[label]" marker that opened the query.
	Label string
	// Marked is set when the query was opened by a marker line.
	Marked   bool
	Commands []Command
}

func (q *Query) String() string {
	var b strings.Builder
	if q.Marked {
		b.WriteString("[" + q.Label + "]\n")
	}
	for i, c := range q.Commands {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(c.String())
	}
	return b.String()
}

// Name identifies the query in logs.
func (q *Query) Name(index int) string {
	if q.Label != "" {
		return q.Label
	}
	return "query#" + strconv.Itoa(index+1)
}

// Block is the ordered set of independent queries in one source text.
type Block struct {
	Queries []*Query
}

func (b *Block) String() string {
	parts := make([]string, len(b.Queries))
	for i, q := range b.Queries {
		parts[i] = q.String()
	}
	return strings.Join(parts, "\n\n")
}
