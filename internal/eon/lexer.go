package eon

import (
	"fmt"
	"strings"
)

// TokenKind classifies a lexical token.
type TokenKind int

const (
	TokenEOF TokenKind = iota
	TokenWord
	TokenString
	TokenLBrace
	TokenRBrace
	TokenLBracket
	TokenRBracket
	TokenColon
	TokenSemicolon
	TokenComma
)

var tokenNames = [...]string{
	TokenEOF:       "end of input",
	TokenWord:      "word",
	TokenString:    "string",
	TokenLBrace:    "'{'",
	TokenRBrace:    "'}'",
	TokenLBracket:  "'['",
	TokenRBracket:  "']'",
	TokenColon:     "':'",
	TokenSemicolon: "';'",
	TokenComma:     "','",
}

func (k TokenKind) String() string {
	if int(k) < len(tokenNames) {
		return tokenNames[k]
	}
	return fmt.Sprintf("token(%d)", int(k))
}

// Token is a lexical unit. For strings Text holds the unquoted contents.
type Token struct {
	Kind TokenKind
	Text string
	Pos  Pos
	End  int
}

func (t Token) String() string {
	switch t.Kind {
	case TokenWord:
		return fmt.Sprintf("%q", t.Text)
	case TokenString:
		return fmt.Sprintf("string %q", t.Text)
	}
	return t.Kind.String()
}

// Lexer splits EON text into tokens. It never fails: characters that do not
// start any other token become part of a word, and a quote with no closing
// partner on the same line is an ordinary word character.
type Lexer struct {
	src  string
	base int
	off  int
	line int
	col  int
}

// NewLexer returns a lexer over src. base is the position of src[0] within the
// enclosing document, so nested lexers report document positions.
func NewLexer(src string, base Pos) *Lexer {
	if base.Line == 0 {
		base = Pos{Line: 1, Col: 1}
	}
	return &Lexer{src: src, base: base.Offset, line: base.Line, col: base.Col}
}

func (l *Lexer) pos() Pos {
	return Pos{Offset: l.base + l.off, Line: l.line, Col: l.col}
}

func (l *Lexer) advance(n int) {
	for i := 0; i < n && l.off < len(l.src); i++ {
		if l.src[l.off] == '\n' {
			l.line++
			l.col = 1
		} else {
			l.col++
		}
		l.off++
	}
}

// Next returns the next token, or a TokenEOF token at the end of input.
func (l *Lexer) Next() Token {
	for l.off < len(l.src) && isSpace(l.src[l.off]) {
		l.advance(1)
	}
	start := l.pos()
	if l.off >= len(l.src) {
		return Token{Kind: TokenEOF, Pos: start, End: l.base + l.off}
	}

	c := l.src[l.off]
	if kind, ok := punct(c); ok {
		l.advance(1)
		return Token{Kind: kind, Text: string(c), Pos: start, End: l.base + l.off}
	}
	if isQuote(c) {
		if end := closingQuote(l.src, l.off); end >= 0 {
			text := l.src[l.off+1 : end]
			l.advance(end + 1 - l.off)
			return Token{Kind: TokenString, Text: text, Pos: start, End: l.base + l.off}
		}
	}

	from := l.off
	l.advance(1)
	for l.off < len(l.src) {
		c := l.src[l.off]
		if isSpace(c) || isQuote(c) {
			break
		}
		if _, ok := punct(c); ok {
			break
		}
		l.advance(1)
	}
	return Token{Kind: TokenWord, Text: l.src[from:l.off], Pos: start, End: l.base + l.off}
}

func punct(c byte) (TokenKind, bool) {
	switch c {
	case '{':
		return TokenLBrace, true
	case '}':
		return TokenRBrace, true
	case '[':
		return TokenLBracket, true
	case ']':
		return TokenRBracket, true
	case ':':
		return TokenColon, true
	case ';':
		return TokenSemicolon, true
	case ',':
		return TokenComma, true
	}
	return 0, false
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\f' || c == '\v'
}

func isQuote(c byte) bool {
	return c == '"' || c == '\''
}

// closingQuote returns the index of the quote closing the one at s[i], looking
// no further than the end of the line, or -1 if there is none.
func closingQuote(s string, i int) int {
	rest := s[i+1:]
	if nl := strings.IndexByte(rest, '\n'); nl >= 0 {
		rest = rest[:nl]
	}
	j := strings.IndexByte(rest, s[i])
	if j < 0 {
		return -1
	}
	return i + 1 + j
}

// StripComments removes every "//" comment up to the end of its line. A marker
// inside a quoted string on the same line is kept. Line breaks are preserved so line and
// column positions in the stripped text match the original.
func StripComments(src string) string {
	if !strings.Contains(src, "//") {
		return src
	}
	var sb strings.Builder
	sb.Grow(len(src))
	i := 0
	for i < len(src) {
		c := src[i]
		switch {
		case isQuote(c):
			if end := closingQuote(src, i); end >= 0 {
				sb.WriteString(src[i : end+1])
				i = end + 1
				continue
			}
		case c == '/' && i+1 < len(src) && src[i+1] == '/':
			nl := strings.IndexByte(src[i:], '\n')
			if nl < 0 {
				return sb.String()
			}
			i += nl
			continue
		}
		sb.WriteByte(c)
		i++
	}
	return sb.String()
}
