package ast

import (
	"strconv"
	"strings"

	"github.com/GriffinCanCode/scrapegoat/internal/lang/token"
)

// Kind identifies a command variant.
type Kind int

const (
	KindFetch Kind = iota + 1
	KindGraze
	KindChurn
	KindDeliver
)

func (k Kind) String() string {
	switch k {
	case KindFetch:
		return "fetch"
	case KindGraze:
		return "graze"
	case KindChurn:
		return "churn"
	case KindDeliver:
		return "deliver"
	default:
		return "kind(" + strconv.Itoa(int(k)) + ")"
	}
}

// Command is one of *Fetch, *Graze, *Churn or *Deliver.
type Command interface {
	Kind() Kind
	Pos() token.Pos
	// Keyword is the source keyword that introduced the command.
	Keyword() string
	// String renders the command as canonical source text.
	String() string
	command()
}

// Fetch is VISIT: it loads one or more documents.
type Fetch struct {
	At   token.Pos
	URLs []string
}

// Graze is SELECT (Rebase) or SCRAPE.
type Graze struct {
	At     token.Pos
	Rebase bool
	// Tag is a lowercase tag name, or "*" for any element.
	Tag string
	// Count caps the number of survivors; zero means no cap.
	Count      int
	Conditions []Condition
}

// Churn is EXTRACT.
type Churn struct {
	At     token.Pos
	Fields []Field
	// Table turns each selected <table> into one record per data row,
	// keyed by the header row. Fields is empty when Table is set.
	Table bool
	// IgnoreChildren limits body to the element's own text.
	IgnoreChildren bool
}

// Deliver is OUTPUT.
type Deliver struct {
	At       token.Pos
	Format   Format
	Filename string
	Path     string
}

func (*Fetch) command()   {}
func (*Graze) command()   {}
func (*Churn) command()   {}
func (*Deliver) command() {}

func (*Fetch) Kind() Kind   { return KindFetch }
func (*Graze) Kind() Kind   { return KindGraze }
func (*Churn) Kind() Kind   { return KindChurn }
func (*Deliver) Kind() Kind { return KindDeliver }

func (c *Fetch) Pos() token.Pos   { return c.At }
func (c *Graze) Pos() token.Pos   { return c.At }
func (c *Churn) Pos() token.Pos   { return c.At }
func (c *Deliver) Pos() token.Pos { return c.At }

func (*Fetch) Keyword() string { return token.VISIT.String() }
func (c *Graze) Keyword() string {
	if c.Rebase {
		return token.SELECT.String()
	}
	return token.SCRAPE.String()
}
func (*Churn) Keyword() string   { return token.EXTRACT.String() }
func (*Deliver) Keyword() string { return token.OUTPUT.String() }

func (c *Fetch) String() string {
	var b strings.Builder
	b.WriteString("VISIT ")
	if len(c.URLs) == 1 {
		b.WriteString(Quote(c.URLs[0]))
	} else {
		b.WriteByte('(')
		for i, u := range c.URLs {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(Quote(u))
		}
		b.WriteByte(')')
	}
	b.WriteByte(';')
	return b.String()
}

func (c *Graze) String() string {
	var b strings.Builder
	b.WriteString(c.Keyword())
	if c.Count > 0 {
		b.WriteByte(' ')
		b.WriteString(strconv.Itoa(c.Count))
	}
	b.WriteByte(' ')
	b.WriteString(c.Tag)
	for _, cond := range c.Conditions {
		b.WriteByte(' ')
		b.WriteString(cond.String())
	}
	b.WriteByte(';')
	return b.String()
}

// Matches reports whether tag passes the command's tag filter.
func (c *Graze) Matches(tag string) bool {
	return c.Tag == "*" || c.Tag == tag
}

func (c *Churn) String() string {
	parts := make([]string, len(c.Fields))
	for i, f := range c.Fields {
		parts[i] = f.String()
	}
	var b strings.Builder
	b.WriteString("EXTRACT")
	if len(parts) > 0 {
		b.WriteString(" " + strings.Join(parts, ", "))
	}
	if c.Table {
		b.WriteString(" --table")
	}
	if c.IgnoreChildren {
		b.WriteString(" --ignore-children")
	}
	b.WriteByte(';')
	return b.String()
}

func (c *Deliver) String() string {
	var b strings.Builder
	b.WriteString("OUTPUT ")
	b.WriteString(string(c.Format))
	if c.Filename != "" {
		b.WriteString(" --filename ")
		b.WriteString(Quote(c.Filename))
	}
	if c.Path != "" {
		b.WriteString(" --path ")
		b.WriteString(Quote(c.Path))
	}
	b.WriteByte(';')
	return b.String()
}

// Format is an OUTPUT serialization format.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// ParseFormat maps a case-insensitive format identifier to a Format.
func ParseFormat(s string) (Format, bool) {
	switch f := Format(strings.ToLower(s)); f {
	case FormatCSV, FormatJSON, FormatYAML:
		return f, true
	}
	return "", false
}

// Ext is the file extension for the format, including the dot.
func (f Format) Ext() string { return "." + string(f) }

// Quote renders s as a string literal the lexer reads back unchanged.
func Quote(s string) string {
	if strings.ContainsRune(s, '"') {
		return "'" + s + "'"
	}
	return `"` + s + `"`
}
