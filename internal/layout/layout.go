// Package layout computes world positions for orbit members. The compiler
// leaves member positions at the origin; a renderer places them evenly around
// each ring, tilted by the orbit rotation and centred on the parent anchor.
package layout

import (
	"math"

	"github.com/specialistvlad/eonc/internal/eon"
)

// Placement is the world position of one orbit member.
type Placement struct {
	NodeID   string   `json:"nodeId" yaml:"nodeId"`
	OrbitID  string   `json:"orbitId" yaml:"orbitId"`
	Position eon.Vec3 `json:"position" yaml:"position,flow"`
}

// Place returns placements for every member of every ring of g, in ring and
// member order. Orbits whose parent is not an anchor are not placed.
func Place(g *eon.Graph) []Placement {
	var out []Placement
	for _, r := range g.Rings() {
		out = append(out, PlaceRing(r.Anchor.Position, r.Orbit)...)
	}
	return out
}

// PlaceRing spreads the members of o evenly around a circle of o.Radius in the
// local XZ plane, applies o.Rotation and translates by center.
func PlaceRing(center eon.Vec3, o *eon.OrbitPath) []Placement {
	n := len(o.Nodes)
	out := make([]Placement, 0, n)
	for i, node := range o.Nodes {
		angle := float64(i) / float64(n) * 2 * math.Pi
		local := eon.Vec3{o.Radius * math.Cos(angle), 0, o.Radius * math.Sin(angle)}
		world := add(rotate(local, o.Rotation), center)
		out = append(out, Placement{NodeID: node.ID, OrbitID: o.ID, Position: world})
	}
	return out
}

// rotate applies Euler angles in XYZ order, i.e. the matrix Rx·Ry·Rz.
func rotate(v, euler eon.Vec3) eon.Vec3 {
	v = rotateZ(v, euler[2])
	v = rotateY(v, euler[1])
	return rotateX(v, euler[0])
}

func rotateX(v eon.Vec3, a float64) eon.Vec3 {
	s, c := math.Sincos(a)
	return eon.Vec3{v[0], v[1]*c - v[2]*s, v[1]*s + v[2]*c}
}

func rotateY(v eon.Vec3, a float64) eon.Vec3 {
	s, c := math.Sincos(a)
	return eon.Vec3{v[0]*c + v[2]*s, v[1], -v[0]*s + v[2]*c}
}

func rotateZ(v eon.Vec3, a float64) eon.Vec3 {
	s, c := math.Sincos(a)
	return eon.Vec3{v[0]*c - v[1]*s, v[0]*s + v[1]*c, v[2]}
}

func add(a, b eon.Vec3) eon.Vec3 {
	return eon.Vec3{a[0] + b[0], a[1] + b[1], a[2] + b[2]}
}
