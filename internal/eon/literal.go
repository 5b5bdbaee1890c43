package eon

import (
	"math"
	"strconv"
)

// ParseNumber parses a finite decimal number.
func ParseNumber(raw string, at Pos) (float64, error) {
	p := newTokenStream(raw, at)
	t := p.next()
	if t.Kind != TokenWord {
		return 0, syntaxErrorf(t.Pos, "expected a number, found %s", t)
	}
	v, err := parseFloat(t)
	if err != nil {
		return 0, err
	}
	if err := p.expectEnd(); err != nil {
		return 0, err
	}
	return v, nil
}

// ParseVec3 parses a bracketed literal of exactly three numbers, e.g. "[0, 18, 0]".
func ParseVec3(raw string, at Pos) (Vec3, error) {
	var v Vec3
	p := newTokenStream(raw, at)
	if _, err := p.expect(TokenLBracket); err != nil {
		return v, err
	}
	for i := range v {
		if i > 0 {
			if _, err := p.expect(TokenComma); err != nil {
				return v, err
			}
		}
		t, err := p.expect(TokenWord)
		if err != nil {
			return v, err
		}
		if v[i], err = parseFloat(t); err != nil {
			return v, err
		}
	}
	if _, err := p.expect(TokenRBracket); err != nil {
		return v, err
	}
	return v, p.expectEnd()
}

// ParseStringList parses a bracketed list of quoted strings, e.g. `["a", 'b']`.
// An empty list is valid.
func ParseStringList(raw string, at Pos) ([]string, error) {
	p := newTokenStream(raw, at)
	if _, err := p.expect(TokenLBracket); err != nil {
		return nil, err
	}
	items := []string{}
	if p.peek().Kind == TokenRBracket {
		p.next()
		return items, p.expectEnd()
	}
	for {
		t, err := p.expect(TokenString)
		if err != nil {
			return nil, err
		}
		items = append(items, t.Text)

		t = p.next()
		switch t.Kind {
		case TokenComma:
			continue
		case TokenRBracket:
			return items, p.expectEnd()
		default:
			return nil, syntaxErrorf(t.Pos, "expected ',' or ']' in list, found %s", t)
		}
	}
}

// tokenStream is a lexer with one token of lookahead.
type tokenStream struct {
	lex    *Lexer
	peeked *Token
}

func newTokenStream(raw string, at Pos) *tokenStream {
	return &tokenStream{lex: NewLexer(raw, at)}
}

func (p *tokenStream) next() Token {
	if p.peeked != nil {
		t := *p.peeked
		p.peeked = nil
		return t
	}
	return p.lex.Next()
}

func (p *tokenStream) peek() Token {
	if p.peeked == nil {
		t := p.lex.Next()
		p.peeked = &t
	}
	return *p.peeked
}

func (p *tokenStream) expect(kind TokenKind) (Token, error) {
	t := p.next()
	if t.Kind != kind {
		return t, syntaxErrorf(t.Pos, "expected %s, found %s", kind, t)
	}
	return t, nil
}

func (p *tokenStream) expectEnd() error {
	if t := p.next(); t.Kind != TokenEOF {
		return syntaxErrorf(t.Pos, "unexpected %s after value", t)
	}
	return nil
}

func parseFloat(t Token) (float64, error) {
	v, err := strconv.ParseFloat(t.Text, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, syntaxErrorf(t.Pos, "%q is not a number", t.Text)
	}
	return v, nil
}
