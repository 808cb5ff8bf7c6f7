package ast

import (
	"strconv"
	"strings"

	"github.com/GriffinCanCode/scrapegoat/internal/lang/token"
)

// Element is the view of a document node that conditions evaluate against.
type Element interface {
	Tag() string
	Attr(name string) (string, bool)
	Text() string
	HasAncestor(tag string) bool
}

// Op is a condition comparison operator.
type Op int

const (
	// OpExists is a bare "IF @attr" presence test.
	OpExists Op = iota
	OpEq
	OpNeq
	OpLt
	OpLte
	OpGt
	OpGte
	OpLike
)

var opText = [...]string{
	OpEq:   "=",
	OpNeq:  "!=",
	OpLt:   "<",
	OpLte:  "<=",
	OpGt:   ">",
	OpGte:  ">=",
	OpLike: "LIKE",
}

func (o Op) String() string {
	if o > OpExists && int(o) < len(opText) {
		return opText[o]
	}
	return ""
}

// OpFromToken maps a comparison token to an Op.
func OpFromToken(k token.Kind) (Op, bool) {
	switch k {
	case token.EQ:
		return OpEq, true
	case token.NEQ:
		return OpNeq, true
	case token.LT:
		return OpLt, true
	case token.LTE:
		return OpLte, true
	case token.GT:
		return OpGt, true
	case token.GTE:
		return OpGte, true
	case token.LIKE:
		return OpLike, true
	}
	return 0, false
}

func (o Op) compare(a, b int) bool {
	switch o {
	case OpEq:
		return a == b
	case OpNeq:
		return a != b
	case OpLt:
		return a < b
	case OpLte:
		return a <= b
	case OpGt:
		return a > b
	case OpGte:
		return a >= b
	}
	return false
}

// Condition is one of *If or *In. Conditions are pure predicates.
type Condition interface {
	// Positional conditions depend on the candidate's index in the
	// candidate set and must be evaluated after all others.
	Positional() bool
	Eval(el Element, index, total int) bool
	Pos() token.Pos
	String() string
	condition()
}

// If tests an attribute or the element's text.
type If struct {
	At      token.Pos
	Negated bool
	Field   Field
	Op      Op
	Value   string
}

// In tests the element's position in the candidate set, or, when
// Ancestor is set, whether it sits inside an element with that tag.
type In struct {
	At       token.Pos
	Negated  bool
	Ancestor string
	Op       Op
	// Index is zero-based; negative values count from the end.
	Index int
	Last  bool
}

func (*If) condition() {}
func (*In) condition() {}

func (c *If) Pos() token.Pos { return c.At }
func (c *In) Pos() token.Pos { return c.At }

func (*If) Positional() bool   { return false }
func (c *In) Positional() bool { return c.Ancestor == "" }

func (c *If) Eval(el Element, _, _ int) bool {
	var (
		val     string
		present bool
	)
	switch c.Field.Kind {
	case FieldBody:
		// Text always exists; a bare IF body asks for non-empty text.
		val = el.Text()
		present = c.Op != OpExists || val != ""
	default:
		val, present = el.Attr(c.Field.Name)
	}

	var ok bool
	switch c.Op {
	case OpExists:
		ok = present
	case OpEq:
		ok = present && val == c.Value
	case OpNeq:
		ok = !present || val != c.Value
	case OpLike:
		ok = present && strings.Contains(val, c.Value)
	}
	return ok != c.Negated
}

func (c *In) Eval(el Element, index, total int) bool {
	var ok bool
	if c.Ancestor != "" {
		ok = el.HasAncestor(c.Ancestor)
	} else {
		ok = c.Op.compare(index, c.resolve(total))
	}
	return ok != c.Negated
}

func (c *In) resolve(total int) int {
	switch {
	case c.Last:
		return total - 1
	case c.Index < 0:
		return total + c.Index
	}
	return c.Index
}

func (c *If) String() string {
	var b strings.Builder
	if c.Negated {
		b.WriteString("NOT ")
	}
	b.WriteString("IF ")
	b.WriteString(c.Field.String())
	if c.Op != OpExists {
		b.WriteByte(' ')
		b.WriteString(c.Op.String())
		b.WriteByte(' ')
		b.WriteString(Quote(c.Value))
	}
	return b.String()
}

func (c *In) String() string {
	var b strings.Builder
	if c.Negated {
		b.WriteString("NOT ")
	}
	b.WriteString("IN ")
	if c.Ancestor != "" {
		b.WriteString(c.Ancestor)
		return b.String()
	}
	b.WriteString("POSITION ")
	b.WriteString(c.Op.String())
	b.WriteByte(' ')
	if c.Last {
		b.WriteString("last")
	} else {
		b.WriteString(strconv.Itoa(c.Index))
	}
	return b.String()
}
