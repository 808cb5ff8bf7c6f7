package errs

import (
	"errors"
	"fmt"

	"github.com/GriffinCanCode/scrapegoat/internal/lang/token"
)

// Kind identifies a failure class.
type Kind int

const (
	KindUnknown Kind = iota
	KindLex
	KindParse
	KindSequence
	KindCondition
	KindFetch
	KindIO
	KindMissingField
)

func (k Kind) String() string {
	switch k {
	case KindLex:
		return "lex error"
	case KindParse:
		return "parse error"
	case KindSequence:
		return "sequence error"
	case KindCondition:
		return "condition error"
	case KindFetch:
		return "fetch error"
	case KindIO:
		return "io error"
	case KindMissingField:
		return "missing field"
	default:
		return "error"
	}
}

// Positioned is implemented by every error in the taxonomy.
type Positioned interface {
	error
	Kind() Kind
	Position() token.Pos
}

// LexError reports a malformed token.
type LexError struct {
	Pos  token.Pos
	Char rune
	Msg  string
}

func (e *LexError) Error() string {
	return fmt.Sprintf("%s: %s: %s %q", e.Pos, KindLex, e.Msg, e.Char)
}
func (e *LexError) Kind() Kind          { return KindLex }
func (e *LexError) Position() token.Pos { return e.Pos }

// ParseError reports a grammar violation.
type ParseError struct {
	Pos      token.Pos
	Expected string
	Actual   token.Token
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s: %s: expected %s, got %s", e.Pos, KindParse, e.Expected, e.Actual)
}
func (e *ParseError) Kind() Kind          { return KindParse }
func (e *ParseError) Position() token.Pos { return e.Pos }

// SequenceError reports a command executed out of order.
type SequenceError struct {
	Pos     token.Pos
	Command string
	Msg     string
}

func (e *SequenceError) Error() string {
	return fmt.Sprintf("%s: %s: %s %s", e.Pos, KindSequence, e.Command, e.Msg)
}
func (e *SequenceError) Kind() Kind          { return KindSequence }
func (e *SequenceError) Position() token.Pos { return e.Pos }

// ConditionError reports a condition that cannot be evaluated.
type ConditionError struct {
	Pos token.Pos
	Msg string
}

func (e *ConditionError) Error() string {
	return fmt.Sprintf("%s: %s: %s", e.Pos, KindCondition, e.Msg)
}
func (e *ConditionError) Kind() Kind          { return KindCondition }
func (e *ConditionError) Position() token.Pos { return e.Pos }

// FetchError wraps a failure of the page fetching collaborator.
type FetchError struct {
	Pos token.Pos
	URL string
	Err error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("%s: %s: %s: %v", e.Pos, KindFetch, e.URL, e.Err)
}
func (e *FetchError) Unwrap() error       { return e.Err }
func (e *FetchError) Kind() Kind          { return KindFetch }
func (e *FetchError) Position() token.Pos { return e.Pos }

// IOError wraps an output write failure.
type IOError struct {
	Pos  token.Pos
	Path string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("%s: %s: %s: %v", e.Pos, KindIO, e.Path, e.Err)
}
func (e *IOError) Unwrap() error       { return e.Err }
func (e *IOError) Kind() Kind          { return KindIO }
func (e *IOError) Position() token.Pos { return e.Pos }

// MissingFieldError reports an extraction field absent from an element.
// It never escapes the extract step.
type MissingFieldError struct {
	Field string
	Tag   string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("%s: <%s> has no attribute %q", KindMissingField, e.Tag, e.Field)
}
func (e *MissingFieldError) Kind() Kind          { return KindMissingField }
func (e *MissingFieldError) Position() token.Pos { return token.NoPos }

// KindOf returns the taxonomy kind of err, or KindUnknown.
func KindOf(err error) Kind {
	var p Positioned
	if errors.As(err, &p) {
		return p.Kind()
	}
	return KindUnknown
}

// PositionOf returns the source position carried by err, if any.
func PositionOf(err error) (token.Pos, bool) {
	var p Positioned
	if errors.As(err, &p) && p.Position().IsValid() {
		return p.Position(), true
	}
	return token.NoPos, false
}
