package eon

import "sort"

// Block keywords.
const (
	KeywordNode  = "node"
	KeywordOrbit = "orbit"
)

// Block is one `keyword "name" { body }` definition of a document.
type Block struct {
	Keyword string
	Name    string
	Pos     Pos
	Body    string
	// BodyPos is the position of Body[0] in the document.
	BodyPos Pos
}

// ScanBlocks returns every node and orbit block of comment-free src in source
// order. Text between blocks is ignored. A body ends at the first '}' outside
// quotes; a '{' before it or the end of input is a syntax error.
func ScanBlocks(src string) ([]Block, error) {
	var blocks []Block
	ts := newTokenStream(src, Pos{})
	for {
		kw := ts.next()
		if kw.Kind == TokenEOF {
			return blocks, nil
		}
		if kw.Kind != TokenWord || (kw.Text != KeywordNode && kw.Text != KeywordOrbit) {
			continue
		}
		if ts.peek().Kind != TokenString {
			continue
		}
		name := ts.next()
		if name.Text == "" {
			return nil, syntaxErrorf(name.Pos, "%s name must not be empty", kw.Text)
		}
		open := ts.next()
		if open.Kind != TokenLBrace {
			return nil, syntaxErrorf(open.Pos, "expected '{' after %s %q, found %s", kw.Text, name.Text, open)
		}

		for {
			t := ts.next()
			if t.Kind == TokenRBrace {
				blocks = append(blocks, Block{
					Keyword: kw.Text,
					Name:    name.Text,
					Pos:     kw.Pos,
					Body:    src[open.End:t.Pos.Offset],
					BodyPos: Pos{Offset: open.End, Line: open.Pos.Line, Col: open.Pos.Col + 1},
				})
				break
			}
			if t.Kind == TokenEOF {
				return nil, syntaxErrorf(kw.Pos, "%s %q is missing its closing '}'", kw.Text, name.Text)
			}
			if t.Kind == TokenLBrace {
				return nil, syntaxErrorf(t.Pos, "unexpected '{' inside %s %q; is a '}' missing?", kw.Text, name.Text)
			}
		}
	}
}

// lineIndex maps byte offsets to line and column positions.
type lineIndex []int

func newLineIndex(src string) lineIndex {
	idx := lineIndex{0}
	for i := 0; i < len(src); i++ {
		if src[i] == '\n' {
			idx = append(idx, i+1)
		}
	}
	return idx
}

func (li lineIndex) pos(offset int) Pos {
	line := sort.Search(len(li), func(i int) bool { return li[i] > offset }) - 1
	if line < 0 {
		line = 0
	}
	return Pos{Offset: offset, Line: line + 1, Col: offset - li[line] + 1}
}
