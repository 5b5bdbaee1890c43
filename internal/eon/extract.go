package eon

import "strings"

// Property is one "key: value" statement of a block body.
type Property struct {
	Key string
	// Raw is the trimmed value text with quotes intact.
	Raw string
	// Offset is the byte offset of Raw within the block.
	Offset int
}

// Value returns Raw with one matching pair of outer quotes removed.
func (p Property) Value() string {
	return unquote(p.Raw)
}

// Properties splits a block body into statements. A statement ends at ';' or
// at a line break. A value that starts with '[' runs on to the line break
// after its closing ']', so list literals may span lines. Quoted text is
// opaque. Statements without a "key:" prefix are skipped.
func Properties(block string) []Property {
	var props []Property
	start, depth := 0, 0
	// State of the current statement: past its colon, past the first
	// non-blank value byte, and whether that byte opened a list.
	colon, started, list := false, false, false
	flush := func(end int) {
		if p, ok := parseStatement(block, start, end); ok {
			props = append(props, p)
		}
		start = end + 1
		depth = 0
		colon, started, list = false, false, false
	}
	for i := 0; i < len(block); i++ {
		c := block[i]
		if colon && !started && !isSpace(c) {
			started, list = true, c == '['
		}
		switch {
		case isQuote(c):
			if end := closingQuote(block, i); end >= 0 {
				i = end
			}
		case c == ':' && !colon:
			colon = true
		case c == '[' && list:
			depth++
		case c == ']' && list && depth > 0:
			depth--
		case c == ';':
			flush(i)
		case c == '\n' && (!list || depth == 0):
			flush(i)
		}
	}
	flush(len(block))
	return props
}

// Extract returns the value of the first statement in block whose key equals
// key, ignoring case. The value is trimmed and loses one outer pair of matching
// quotes. The boolean is false when the key is absent.
func Extract(block, key string) (string, bool) {
	p, ok := lookup(block, key)
	if !ok {
		return "", false
	}
	return p.Value(), true
}

func lookup(block, key string) (Property, bool) {
	for _, p := range Properties(block) {
		if strings.EqualFold(p.Key, key) {
			return p, true
		}
	}
	return Property{}, false
}

func parseStatement(block string, start, end int) (Property, bool) {
	if start >= len(block) || start >= end {
		return Property{}, false
	}
	stmt := block[start:end]
	colon := strings.IndexByte(stmt, ':')
	if colon < 0 {
		return Property{}, false
	}
	key := strings.TrimSpace(stmt[:colon])
	if key == "" || strings.IndexFunc(key, isKeySeparator) >= 0 {
		return Property{}, false
	}

	rest := stmt[colon+1:]
	lead := len(rest) - len(strings.TrimLeft(rest, " \t\r\n\f\v"))
	raw := strings.TrimSpace(rest)
	return Property{
		Key:    key,
		Raw:    raw,
		Offset: start + colon + 1 + lead,
	}, true
}

func isKeySeparator(r rune) bool {
	return r < 0x80 && (isSpace(byte(r)) || isQuote(byte(r)))
}

func unquote(s string) string {
	if len(s) >= 2 && isQuote(s[0]) && s[len(s)-1] == s[0] {
		return s[1 : len(s)-1]
	}
	return s
}
