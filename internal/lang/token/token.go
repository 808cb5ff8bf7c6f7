package token

import (
	"fmt"
	"strconv"
)

// Kind classifies a lexeme.
type Kind int

const (
	ILLEGAL Kind = iota
	EOF

	literal_beg
	IDENT  // div
	ATTR   // @href
	STRING // "abc"
	NUMBER // 12
	FLAG   // --filename
	literal_end

	operator_beg
	EQ        // =
	NEQ       // !=
	LT        // <
	LTE       // <=
	GT        // >
	GTE       // >=
	SEMICOLON // ;
	COMMA     // ,
	LPAREN    // (
	RPAREN    // )
	STAR      // *
	operator_end

	BOUNDARY // [label]

	keyword_beg
	VISIT
	SELECT
	SCRAPE
	EXTRACT
	OUTPUT
	IF
	IN
	POSITION
	NOT
	LIKE
	keyword_end
)

var kinds = [...]string{
	ILLEGAL: "ILLEGAL",
	EOF:     "EOF",

	IDENT:  "IDENT",
	ATTR:   "ATTR",
	STRING: "STRING",
	NUMBER: "NUMBER",
	FLAG:   "FLAG",

	EQ:        "=",
	NEQ:       "!=",
	LT:        "<",
	LTE:       "<=",
	GT:        ">",
	GTE:       ">=",
	SEMICOLON: ";",
	COMMA:     ",",
	LPAREN:    "(",
	RPAREN:    ")",
	STAR:      "*",

	BOUNDARY: "BOUNDARY",

	VISIT:    "VISIT",
	SELECT:   "SELECT",
	SCRAPE:   "SCRAPE",
	EXTRACT:  "EXTRACT",
	OUTPUT:   "OUTPUT",
	IF:       "IF",
	IN:       "IN",
	POSITION: "POSITION",
	NOT:      "NOT",
	LIKE:     "LIKE",
}

var keywords map[string]Kind

func init() {
	keywords = make(map[string]Kind, keyword_end-keyword_beg)
	for k := keyword_beg + 1; k < keyword_end; k++ {
		keywords[kinds[k]] = k
	}
}

// Lookup maps an identifier to its keyword kind. Keywords are
// case-sensitive: only the uppercase spelling is a keyword.
func Lookup(ident string) Kind {
	if k, ok := keywords[ident]; ok {
		return k
	}
	return IDENT
}

func (k Kind) String() string {
	var s string
	if 0 <= k && k < Kind(len(kinds)) {
		s = kinds[k]
	}
	if s == "" {
		s = "token(" + strconv.Itoa(int(k)) + ")"
	}
	return s
}

func (k Kind) IsLiteral() bool  { return literal_beg < k && k < literal_end }
func (k Kind) IsOperator() bool { return operator_beg < k && k < operator_end }
func (k Kind) IsKeyword() bool  { return keyword_beg < k && k < keyword_end }

// IsComparison reports whether k may appear between a condition's left
// and right operands.
func (k Kind) IsComparison() bool {
	switch k {
	case EQ, NEQ, LT, LTE, GT, GTE, LIKE:
		return true
	}
	return false
}

// IsAction reports whether k starts a command.
func (k Kind) IsAction() bool {
	switch k {
	case VISIT, SELECT, SCRAPE, EXTRACT, OUTPUT:
		return true
	}
	return false
}

// Pos is a source position. Line and Column are 1-based, Column counts runes.
type Pos struct {
	Offset int
	Line   int
	Column int
}

// NoPos is the zero position, used for commands built outside the parser.
var NoPos = Pos{}

func (p Pos) IsValid() bool { return p.Line > 0 }

func (p Pos) String() string {
	if !p.IsValid() {
		return "-"
	}
	return fmt.Sprintf("%d:%d", p.Line, p.Column)
}

// Token is an immutable lexeme.
type Token struct {
	Kind Kind
	Lit  string
	Pos  Pos
}

func (t Token) String() string {
	switch {
	case t.Kind == EOF:
		return "EOF"
	case t.Kind.IsLiteral() || t.Kind == BOUNDARY:
		return fmt.Sprintf("%s(%q)", t.Kind, t.Lit)
	default:
		return fmt.Sprintf("%q", t.Kind.String())
	}
}
