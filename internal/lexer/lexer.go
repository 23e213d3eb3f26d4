// Package lexer turns Vague source text into a token stream (spec.md
// section 4.3). It is a straightforward hand-rolled scanner: the teacher
// repo has no lexer of its own (it consumes already-parsed OpenAPI
// documents), so this package is grounded on the teacher's general
// single-pass, position-tracking reader style used throughout
// internal/config's file loader rather than on a specific file.
package lexer

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/mcclowes/vague/internal/constants"
	"github.com/mcclowes/vague/internal/diagnostics"
	"github.com/mcclowes/vague/internal/token"
)

// Lexer scans one source string into tokens on demand.
type Lexer struct {
	src    string
	offset int
	line   int
	col    int
}

// New creates a Lexer over src.
func New(src string) *Lexer {
	return &Lexer{src: src, line: 1, col: 1}
}

func (l *Lexer) pos() diagnostics.Position {
	return diagnostics.Position{Line: l.line, Column: l.col, Offset: l.offset}
}

func (l *Lexer) peekByte() (byte, bool) {
	if l.offset >= len(l.src) {
		return 0, false
	}
	return l.src[l.offset], true
}

func (l *Lexer) peekByteAt(n int) (byte, bool) {
	if l.offset+n >= len(l.src) {
		return 0, false
	}
	return l.src[l.offset+n], true
}

func (l *Lexer) advance() byte {
	b := l.src[l.offset]
	l.offset++
	if b == '\n' {
		l.line++
		l.col = 1
	} else {
		l.col++
	}
	return b
}

// Next scans and returns the next token, or an EOF token at end of input.
func (l *Lexer) Next() (token.Token, error) {
	l.skipTrivia()

	start := l.pos()
	b, ok := l.peekByte()
	if !ok {
		return token.Token{Kind: token.EOF, Pos: start}, nil
	}

	switch {
	case isIdentStart(b):
		return l.scanIdent(start), nil
	case isDigit(b) || (b == '+' || b == '-') && l.signedNumberFollows():
		return l.scanNumber(start)
	case b == '"':
		return l.scanString(start)
	default:
		return l.scanPunct(start)
	}
}

// All lexes the entire source into a token slice terminated by one EOF
// token, collecting the first lex error encountered (spec.md section 7: lex
// errors are fatal, surfaced to the compile façade).
func (l *Lexer) All() ([]token.Token, error) {
	var toks []token.Token
	for {
		tok, err := l.Next()
		if err != nil {
			return toks, err
		}
		toks = append(toks, tok)
		if tok.Kind == token.EOF {
			return toks, nil
		}
	}
}

func (l *Lexer) skipTrivia() {
	for {
		b, ok := l.peekByte()
		if !ok {
			return
		}
		switch {
		case b == ' ' || b == '\t' || b == '\r' || b == '\n':
			l.advance()
		case b == '/' && l.peekIs(1, '/'):
			for {
				b, ok := l.peekByte()
				if !ok || b == '\n' {
					break
				}
				l.advance()
			}
		default:
			return
		}
	}
}

func (l *Lexer) peekIs(offset int, want byte) bool {
	b, ok := l.peekByteAt(offset)
	return ok && b == want
}

func isIdentStart(b byte) bool {
	return b == '_' || unicode.IsLetter(rune(b))
}

func isIdentPart(b byte) bool {
	return b == '_' || unicode.IsLetter(rune(b)) || isDigit(b)
}

func isDigit(b byte) bool {
	return b >= '0' && b <= '9'
}

func (l *Lexer) scanIdent(start diagnostics.Position) token.Token {
	begin := l.offset
	for {
		b, ok := l.peekByte()
		if !ok || !isIdentPart(b) {
			break
		}
		l.advance()
	}
	text := l.src[begin:l.offset]
	if constants.Keywords[text] {
		return token.Token{Kind: token.Keyword, Literal: text, Pos: start}
	}
	return token.Token{Kind: token.Ident, Literal: text, Pos: start}
}

// signedNumberFollows reports whether a leading +/- should be treated as
// part of a number literal rather than the binary/unary operator token.
// Conservatively true only when a digit directly follows the sign; the
// parser disambiguates unary-vs-binary use from grammar position, this only
// controls how far the lexer reads into one token.
func (l *Lexer) signedNumberFollows() bool {
	b, ok := l.peekByteAt(1)
	return ok && isDigit(b)
}

func (l *Lexer) scanNumber(start diagnostics.Position) (token.Token, error) {
	begin := l.offset
	if b, ok := l.peekByte(); ok && (b == '+' || b == '-') {
		l.advance()
	}
	for {
		b, ok := l.peekByte()
		if !ok || !isDigit(b) {
			break
		}
		l.advance()
	}
	// Decimal point, but not the ".." range operator.
	if b, ok := l.peekByte(); ok && b == '.' {
		if next, ok2 := l.peekByteAt(1); !ok2 || next != '.' {
			l.advance()
			for {
				b, ok := l.peekByte()
				if !ok || !isDigit(b) {
					break
				}
				l.advance()
			}
		}
	}
	text := l.src[begin:l.offset]
	return token.Token{Kind: token.Number, Literal: text, Pos: start}, nil
}

func (l *Lexer) scanString(start diagnostics.Position) (token.Token, error) {
	l.advance() // opening quote
	var b strings.Builder
	for {
		c, ok := l.peekByte()
		if !ok {
			return token.Token{}, diagnostics.NewError(diagnostics.LexError, start, "unterminated string literal")
		}
		if c == '"' {
			l.advance()
			return token.Token{Kind: token.String, Literal: b.String(), Pos: start}, nil
		}
		if c == '\\' {
			l.advance()
			esc, ok := l.peekByte()
			if !ok {
				return token.Token{}, diagnostics.NewError(diagnostics.LexError, start, "unterminated escape sequence")
			}
			l.advance()
			switch esc {
			case '\\':
				b.WriteByte('\\')
			case '"':
				b.WriteByte('"')
			case 'n':
				b.WriteByte('\n')
			case 't':
				b.WriteByte('\t')
			default:
				return token.Token{}, diagnostics.NewError(diagnostics.LexError, l.pos(), "unknown escape sequence \\%c", esc)
			}
			continue
		}
		if c < utf8.RuneSelf {
			l.advance()
			b.WriteByte(c)
			continue
		}
		// Non-ASCII byte: copy through, tracking column per byte is
		// acceptable for this DSL's error-reporting granularity.
		l.advance()
		b.WriteByte(c)
	}
}

func (l *Lexer) scanPunct(start diagnostics.Position) (token.Token, error) {
	b := l.advance()
	mk := func(k token.Kind, lit string) (token.Token, error) {
		return token.Token{Kind: k, Literal: lit, Pos: start}, nil
	}
	switch b {
	case '{':
		return mk(token.LBrace, "{")
	case '}':
		return mk(token.RBrace, "}")
	case '(':
		return mk(token.LParen, "(")
	case ')':
		return mk(token.RParen, ")")
	case '[':
		return mk(token.LBracket, "[")
	case ']':
		return mk(token.RBracket, "]")
	case ',':
		return mk(token.Comma, ",")
	case ':':
		return mk(token.Colon, ":")
	case '?':
		return mk(token.Question, "?")
	case '^':
		return mk(token.Caret, "^")
	case '|':
		return mk(token.Pipe, "|")
	case '+':
		if l.peekIs(0, '=') {
			l.advance()
			return mk(token.PlusAssign, "+=")
		}
		return mk(token.Plus, "+")
	case '-':
		return mk(token.Minus, "-")
	case '*':
		return mk(token.Star, "*")
	case '/':
		return mk(token.Slash, "/")
	case '.':
		if l.peekIs(0, '.') {
			l.advance()
			return mk(token.DotDot, "..")
		}
		return mk(token.Dot, ".")
	case '=':
		if l.peekIs(0, '=') {
			l.advance()
			return mk(token.Eq, "==")
		}
		return mk(token.Assign, "=")
	case '!':
		if l.peekIs(0, '=') {
			l.advance()
			return mk(token.NotEq, "!=")
		}
		return token.Token{}, diagnostics.NewError(diagnostics.LexError, start, "unexpected character '!'")
	case '<':
		if l.peekIs(0, '=') {
			l.advance()
			return mk(token.LtEq, "<=")
		}
		return mk(token.Lt, "<")
	case '>':
		if l.peekIs(0, '=') {
			l.advance()
			return mk(token.GtEq, ">=")
		}
		return mk(token.Gt, ">")
	default:
		return token.Token{}, diagnostics.NewError(diagnostics.LexError, start, "unexpected character %q", b)
	}
}
