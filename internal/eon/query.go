package eon

import "strings"

// Anchor returns the anchor with the given id.
func (g *Graph) Anchor(id string) (*GraphNode, bool) {
	for _, n := range g.CentralNodes {
		if n.ID == id {
			return n, true
		}
	}
	return nil, false
}

// Node looks id up among anchors and orbit members, in that order.
func (g *Graph) Node(id string) (*GraphNode, bool) {
	if n, ok := g.Anchor(id); ok {
		return n, true
	}
	for _, o := range g.Orbits {
		for _, n := range o.Nodes {
			if n.ID == id {
				return n, true
			}
		}
	}
	return nil, false
}

// OrbitsOf returns the orbits whose parents include anchorID, in source order.
func (g *Graph) OrbitsOf(anchorID string) []*OrbitPath {
	var out []*OrbitPath
	for _, o := range g.Orbits {
		for _, p := range o.ParentIDs {
			if p == anchorID {
				out = append(out, o)
				break
			}
		}
	}
	return out
}

// Ring pairs an orbit with the anchor it is drawn around.
type Ring struct {
	Anchor *GraphNode
	Orbit  *OrbitPath
}

// Rings returns the anchor-indexed view a renderer draws: every orbit whose
// first parent is a known anchor. Orbits with unresolved parents are omitted.
func (g *Graph) Rings() []Ring {
	rings := make([]Ring, 0, len(g.Orbits))
	for _, o := range g.Orbits {
		if a, ok := g.Anchor(o.Parent()); ok {
			rings = append(rings, Ring{Anchor: a, Orbit: o})
		}
	}
	return rings
}

// Stats summarizes a graph.
type Stats struct {
	Cores       int `json:"cores"`
	Orbits      int `json:"orbits"`
	Rendered    int `json:"rendered"`
	ActiveUnits int `json:"activeUnits"`
}

// Stats counts the graph's anchors, orbits and orbit members. Rendered is the
// number of orbits drawn around a known anchor.
func (g *Graph) Stats() Stats {
	s := Stats{
		Cores:    len(g.CentralNodes),
		Orbits:   len(g.Orbits),
		Rendered: len(g.Rings()),
	}
	for _, o := range g.Orbits {
		s.ActiveUnits += len(o.Nodes)
	}
	return s
}

// SearchHit is one anchor matched by Search along with its matching members.
type SearchHit struct {
	Anchor *GraphNode
	// AnchorMatched is true when the anchor itself matches the query.
	AnchorMatched bool
	Members       []*GraphNode
}

// Search matches query case-insensitively against labels and descriptions.
// Members are grouped under the anchors their orbits belong to; an anchor is
// reported when it or any of its members match. An empty query matches all.
func (g *Graph) Search(query string) []SearchHit {
	q := strings.ToLower(strings.TrimSpace(query))
	matches := func(n *GraphNode) bool {
		return q == "" ||
			strings.Contains(strings.ToLower(n.Label), q) ||
			strings.Contains(strings.ToLower(n.Description), q)
	}

	var hits []SearchHit
	for _, a := range g.CentralNodes {
		hit := SearchHit{Anchor: a, AnchorMatched: matches(a)}
		for _, o := range g.OrbitsOf(a.ID) {
			for _, n := range o.Nodes {
				if matches(n) {
					hit.Members = append(hit.Members, n)
				}
			}
		}
		if hit.AnchorMatched || len(hit.Members) > 0 {
			hits = append(hits, hit)
		}
	}
	return hits
}
