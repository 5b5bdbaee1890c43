package eon

import (
	"fmt"
	"strings"
)

// Result is the output of a successful compilation.
type Result struct {
	Graph *Graph
	// Source is the exact text that was compiled, kept as the last good source.
	Source      string
	Diagnostics []Diagnostic
}

var (
	nodeProperties  = []string{"pos", "size", "desc", "color"}
	orbitProperties = []string{"parent", "radius", "rot", "color", "nodes"}
)

// Compile turns EON source into a Graph. Any malformed block or literal fails
// the whole compilation with an error matching ErrSyntax and no graph.
func Compile(source string) (*Result, error) {
	src := StripComments(source)
	blocks, err := ScanBlocks(src)
	if err != nil {
		return nil, err
	}

	c := &compilation{
		lines:   newLineIndex(src),
		table:   make(map[string]*GraphNode),
		anchors: make(map[string]int),
		orbits:  make(map[string]struct{}),
		graph:   &Graph{CentralNodes: []*GraphNode{}, Orbits: []*OrbitPath{}},
	}
	for i := range blocks {
		if blocks[i].Keyword != KeywordNode {
			continue
		}
		if err := c.compileNode(&blocks[i]); err != nil {
			return nil, err
		}
	}
	for i := range blocks {
		if blocks[i].Keyword != KeywordOrbit {
			continue
		}
		if err := c.compileOrbit(&blocks[i]); err != nil {
			return nil, err
		}
	}

	return &Result{Graph: c.graph, Source: source, Diagnostics: c.diags}, nil
}

// compilation is the state of a single Compile call.
type compilation struct {
	lines lineIndex
	// table holds every node block by name; later definitions replace earlier ones.
	table   map[string]*GraphNode
	anchors map[string]int
	orbits  map[string]struct{}
	graph   *Graph
	diags   []Diagnostic
}

func (c *compilation) compileNode(b *Block) error {
	props := c.properties(b, nodeProperties)

	position, err := c.vec3(b, props, "pos")
	if err != nil {
		return err
	}
	size, err := c.number(b, props, "size", DefaultNodeSize)
	if err != nil {
		return err
	}

	n := &GraphNode{
		ID:          b.Name,
		Label:       b.Name,
		Description: DefaultDescription,
		Position:    position,
		Size:        size,
		Type:        NodeOrbit,
		Color:       c.text(props, "color"),
	}
	if desc := c.text(props, "desc"); desc != "" {
		n.Description = desc
	}
	if IsAnchorID(b.Name) {
		n.Type = NodeCentral
		n.Position = Vec3{0, position[1], 0}
	}

	if _, dup := c.table[n.ID]; dup {
		c.warn(b.Pos, CodeDuplicateNode, "node %q is defined more than once; the last definition wins", n.ID)
	}
	c.table[n.ID] = n

	if n.IsAnchor() {
		if i, ok := c.anchors[n.ID]; ok {
			c.graph.CentralNodes[i] = n
		} else {
			c.anchors[n.ID] = len(c.graph.CentralNodes)
			c.graph.CentralNodes = append(c.graph.CentralNodes, n)
		}
	}
	return nil
}

func (c *compilation) compileOrbit(b *Block) error {
	props := c.properties(b, orbitProperties)

	parent := c.text(props, "parent")
	if parent == "" {
		c.info(b.Pos, CodeMissingParent, "orbit %q has no parent and is skipped", b.Name)
		return nil
	}
	radius, err := c.number(b, props, "radius", DefaultOrbitRadius)
	if err != nil {
		return err
	}
	rotation, err := c.vec3(b, props, "rot")
	if err != nil {
		return err
	}
	labels := []string{}
	if p, ok := present(props, "nodes"); ok {
		raw, at := c.value(b, p)
		if labels, err = ParseStringList(raw, at); err != nil {
			return err
		}
	}

	memberSize := FallbackMemberSize
	switch pn, ok := c.table[parent]; {
	case !ok:
		c.warn(b.Pos, CodeUnresolvedParent, "orbit %q references undefined parent %q", b.Name, parent)
	case !pn.IsAnchor():
		memberSize = pn.Size * MemberSizeRatio
		c.warn(b.Pos, CodeUnresolvedParent, "orbit %q parent %q is not an anchor (missing %s suffix)", b.Name, parent, AnchorSuffix)
	default:
		memberSize = pn.Size * MemberSizeRatio
	}

	if _, dup := c.orbits[b.Name]; dup {
		c.warn(b.Pos, CodeDuplicateOrbit, "orbit %q is defined more than once", b.Name)
	}
	c.orbits[b.Name] = struct{}{}

	o := &OrbitPath{
		ID:        b.Name,
		Radius:    radius,
		Rotation:  rotation,
		ParentIDs: []string{parent},
		Color:     c.text(props, "color"),
		Nodes:     make([]*GraphNode, 0, len(labels)),
	}
	seen := make(map[string]struct{}, len(labels))
	for _, label := range labels {
		if _, dup := seen[label]; dup {
			c.warn(b.Pos, CodeDuplicateMember, "orbit %q lists %q more than once", b.Name, label)
		}
		seen[label] = struct{}{}
		o.Nodes = append(o.Nodes, c.member(o, label, memberSize))
	}
	c.graph.Orbits = append(c.graph.Orbits, o)
	return nil
}

// member builds the instance of label on orbit o, inheriting from a global
// node of the same name when there is one.
func (c *compilation) member(o *OrbitPath, label string, fallbackSize float64) *GraphNode {
	n := &GraphNode{
		ID:          MemberID(o.ID, label),
		Label:       label,
		Description: memberDescription(o.ID),
		Size:        fallbackSize,
		Type:        NodeOrbit,
		Color:       o.Color,
	}
	if def, ok := c.table[label]; ok {
		n.Description = def.Description
		n.Size = def.Size
		if def.Color != "" {
			n.Color = def.Color
		}
	}
	return n
}

// properties indexes the first occurrence of each key of b, lowercased, and
// reports keys outside known.
func (c *compilation) properties(b *Block, known []string) map[string]Property {
	props := make(map[string]Property)
	for _, p := range Properties(b.Body) {
		key := strings.ToLower(p.Key)
		if _, ok := props[key]; ok {
			continue
		}
		props[key] = p
		if !contains(known, key) {
			c.info(c.lines.pos(b.BodyPos.Offset+p.Offset), CodeUnknownProperty,
				"%s %q: unknown property %q is ignored", b.Keyword, b.Name, p.Key)
		}
	}
	return props
}

// value returns the unquoted value of p and the document position it starts at.
func (c *compilation) value(b *Block, p Property) (string, Pos) {
	v := p.Value()
	off := b.BodyPos.Offset + p.Offset
	if len(v) != len(p.Raw) {
		off++
	}
	return v, c.lines.pos(off)
}

func (c *compilation) text(props map[string]Property, key string) string {
	if p, ok := present(props, key); ok {
		return strings.TrimSpace(p.Value())
	}
	return ""
}

// present returns the property for key unless it is missing or blank. A blank
// value falls back to the default like an absent one.
func present(props map[string]Property, key string) (Property, bool) {
	p, ok := props[key]
	if !ok || strings.TrimSpace(p.Value()) == "" {
		return Property{}, false
	}
	return p, true
}

func (c *compilation) number(b *Block, props map[string]Property, key string, def float64) (float64, error) {
	p, ok := present(props, key)
	if !ok {
		return def, nil
	}
	raw, at := c.value(b, p)
	v, err := ParseNumber(raw, at)
	if err != nil {
		return 0, err
	}
	if v <= 0 {
		c.warn(at, CodeNonPositiveNumber, "%s %q: %s should be positive, got %g", b.Keyword, b.Name, key, v)
	}
	return v, nil
}

func (c *compilation) vec3(b *Block, props map[string]Property, key string) (Vec3, error) {
	p, ok := present(props, key)
	if !ok {
		return Vec3{}, nil
	}
	raw, at := c.value(b, p)
	return ParseVec3(raw, at)
}

func (c *compilation) warn(at Pos, code, format string, args ...any) {
	c.diags = append(c.diags, Diagnostic{Pos: at, Severity: SeverityWarning, Code: code, Msg: fmt.Sprintf(format, args...)})
}

func (c *compilation) info(at Pos, code, format string, args ...any) {
	c.diags = append(c.diags, Diagnostic{Pos: at, Severity: SeverityInfo, Code: code, Msg: fmt.Sprintf(format, args...)})
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
