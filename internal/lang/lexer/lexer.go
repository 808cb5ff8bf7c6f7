package lexer

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/GriffinCanCode/scrapegoat/internal/errs"
	"github.com/GriffinCanCode/scrapegoat/internal/lang/token"
)

const header = "!goatspeak"

type lexer struct {
	src    string
	pos    token.Pos // position of the next unread rune
	bol    bool      // only whitespace seen since the start of the line
	tokens []token.Token
}

// Tokenize converts query source into tokens. The result always ends
// with an EOF token. Identical input yields identical output.
func Tokenize(src string) ([]token.Token, error) {
	l := &lexer{
		src: src,
		pos: token.Pos{Offset: 0, Line: 1, Column: 1},
		bol: true,
	}
	l.skipHeader()
	for {
		tok, err := l.next()
		if err != nil {
			return nil, err
		}
		l.tokens = append(l.tokens, tok)
		if tok.Kind == token.EOF {
			return l.tokens, nil
		}
	}
}

func (l *lexer) peek() rune {
	if l.pos.Offset >= len(l.src) {
		return 0
	}
	r, _ := utf8.DecodeRuneInString(l.src[l.pos.Offset:])
	return r
}

func (l *lexer) peekAt(n int) rune {
	off := l.pos.Offset
	for i := 0; i < n; i++ {
		if off >= len(l.src) {
			return 0
		}
		_, size := utf8.DecodeRuneInString(l.src[off:])
		off += size
	}
	if off >= len(l.src) {
		return 0
	}
	r, _ := utf8.DecodeRuneInString(l.src[off:])
	return r
}

func (l *lexer) advance() rune {
	if l.pos.Offset >= len(l.src) {
		return 0
	}
	r, size := utf8.DecodeRuneInString(l.src[l.pos.Offset:])
	l.pos.Offset += size
	if r == '\n' {
		l.pos.Line++
		l.pos.Column = 1
		l.bol = true
	} else {
		l.pos.Column++
	}
	return r
}

func (l *lexer) eof() bool { return l.pos.Offset >= len(l.src) }

func (l *lexer) skipHeader() {
	rest := strings.TrimLeftFunc(l.src, unicode.IsSpace)
	if len(rest) < len(header) || !strings.EqualFold(rest[:len(header)], header) {
		return
	}
	for unicode.IsSpace(l.peek()) {
		l.advance()
	}
	for range header {
		l.advance()
	}
}

func (l *lexer) skipSpaceAndComments() {
	for !l.eof() {
		r := l.peek()
		switch {
		case unicode.IsSpace(r):
			l.advance()
		case r == '/' && l.peekAt(1) == '/':
			for !l.eof() && l.peek() != '\n' {
				l.advance()
			}
		default:
			return
		}
	}
}

func (l *lexer) emit(kind token.Kind, lit string, start token.Pos) token.Token {
	l.bol = false
	return token.Token{Kind: kind, Lit: lit, Pos: start}
}

func (l *lexer) fail(at token.Pos, r rune, msg string) error {
	return &errs.LexError{Pos: at, Char: r, Msg: msg}
}

func (l *lexer) next() (token.Token, error) {
	l.skipSpaceAndComments()
	start := l.pos
	if l.eof() {
		return l.emit(token.EOF, "", start), nil
	}

	ch := l.peek()
	if ch == '[' && l.bol {
		return l.boundary(start)
	}

	switch {
	case isIdentStart(ch):
		lit := l.ident()
		return l.emit(token.Lookup(lit), lit, start), nil
	case isDigit(ch):
		return l.emit(token.NUMBER, l.number(), start), nil
	}

	l.advance()
	switch ch {
	case '"', '\'':
		return l.str(ch, start)
	case '@':
		if !isIdentStart(l.peek()) {
			return token.Token{}, l.fail(start, ch, "expected attribute name after")
		}
		return l.emit(token.ATTR, l.ident(), start), nil
	case ';':
		return l.emit(token.SEMICOLON, ";", start), nil
	case ',':
		return l.emit(token.COMMA, ",", start), nil
	case '(':
		return l.emit(token.LPAREN, "(", start), nil
	case ')':
		return l.emit(token.RPAREN, ")", start), nil
	case '*':
		return l.emit(token.STAR, "*", start), nil
	case '=':
		if l.peek() == '=' {
			l.advance()
		}
		return l.emit(token.EQ, "=", start), nil
	case '!':
		if l.peek() == '=' {
			l.advance()
			return l.emit(token.NEQ, "!=", start), nil
		}
	case '<':
		if l.peek() == '=' {
			l.advance()
			return l.emit(token.LTE, "<=", start), nil
		}
		return l.emit(token.LT, "<", start), nil
	case '>':
		if l.peek() == '=' {
			l.advance()
			return l.emit(token.GTE, ">=", start), nil
		}
		return l.emit(token.GT, ">", start), nil
	case '-':
		switch r := l.peek(); {
		case r == '-':
			l.advance()
			if !isIdentStart(l.peek()) {
				return token.Token{}, l.fail(start, '-', "expected flag name after --")
			}
			name := strings.ReplaceAll(l.ident(), "-", "_")
			return l.emit(token.FLAG, name, start), nil
		case isDigit(r):
			return l.emit(token.NUMBER, "-"+l.number(), start), nil
		}
	}
	return token.Token{}, l.fail(start, ch, "unexpected character")
}

func (l *lexer) ident() string {
	from := l.pos.Offset
	for isIdentPart(l.peek()) {
		l.advance()
	}
	return l.src[from:l.pos.Offset]
}

// number reads digits with an optional fraction. Whether a fraction is
// allowed is up to the parser.
func (l *lexer) number() string {
	from := l.pos.Offset
	for isDigit(l.peek()) {
		l.advance()
	}
	if l.peek() == '.' && isDigit(l.peekAt(1)) {
		l.advance()
		for isDigit(l.peek()) {
			l.advance()
		}
	}
	return l.src[from:l.pos.Offset]
}

// str reads a quoted literal whose opening quote q was already consumed.
func (l *lexer) str(q rune, start token.Pos) (token.Token, error) {
	from := l.pos.Offset
	for {
		if l.eof() {
			return token.Token{}, l.fail(start, q, "unterminated string literal")
		}
		if l.peek() == q {
			lit := l.src[from:l.pos.Offset]
			l.advance()
			return l.emit(token.STRING, lit, start), nil
		}
		l.advance()
	}
}

// boundary reads a "[label]" line.
func (l *lexer) boundary(start token.Pos) (token.Token, error) {
	from := l.pos.Offset
	for !l.eof() && l.peek() != '\n' {
		l.advance()
	}
	line := strings.TrimRightFunc(stripComment(l.src[from:l.pos.Offset]), unicode.IsSpace)
	if !strings.HasSuffix(line, "]") {
		return token.Token{}, l.fail(start, '[', "unterminated query marker")
	}
	label := strings.TrimSpace(line[1 : len(line)-1])
	return l.emit(token.BOUNDARY, label, start), nil
}

// stripComment cuts a trailing "//" comment that is not inside quotes.
func stripComment(line string) string {
	var quote rune
	for i, r := range line {
		switch {
		case quote != 0:
			if r == quote {
				quote = 0
			}
		case r == '"' || r == '\'':
			quote = r
		case r == '/' && strings.HasPrefix(line[i:], "//"):
			return line[:i]
		}
	}
	return line
}

func isDigit(r rune) bool { return '0' <= r && r <= '9' }

func isIdentStart(r rune) bool {
	return 'a' <= r && r <= 'z' || 'A' <= r && r <= 'Z' || r == '_'
}

func isIdentPart(r rune) bool {
	return isIdentStart(r) || isDigit(r) || r == '-' || r == ':' || r == '.'
}
