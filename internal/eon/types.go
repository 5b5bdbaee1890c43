package eon

import "strings"

const (
	// AnchorSuffix marks a node identifier as an anchor on the vertical axis.
	// Matching is case-insensitive.
	AnchorSuffix = ".CORE"

	// DefaultNodeSize applies to node blocks without a size property.
	DefaultNodeSize = 1.0
	// DefaultOrbitRadius applies to orbit blocks without a radius property.
	DefaultOrbitRadius = 5.0
	// MemberSizeRatio scales the parent's size for members with no global definition.
	MemberSizeRatio = 0.25
	// FallbackMemberSize is used when neither the member nor the parent is defined.
	FallbackMemberSize = 0.4
	// DefaultDescription is given to node blocks without a desc property.
	DefaultDescription = "EON module"
)

// NodeType distinguishes anchors from satellite instances.
type NodeType string

const (
	NodeCentral NodeType = "central"
	NodeOrbit   NodeType = "orbit"
)

// Vec3 is a three component vector. Index 1 is the vertical axis.
type Vec3 [3]float64

// GraphNode is a single point of the topology.
type GraphNode struct {
	ID          string   `json:"id" yaml:"id"`
	Label       string   `json:"label" yaml:"label"`
	Description string   `json:"description" yaml:"description"`
	Position    Vec3     `json:"position" yaml:"position,flow"`
	Size        float64  `json:"size" yaml:"size"`
	Type        NodeType `json:"type" yaml:"type"`
	Color       string   `json:"color,omitempty" yaml:"color,omitempty"`
}

// IsAnchor reports whether the node is an anchor.
func (n *GraphNode) IsAnchor() bool {
	return n.Type == NodeCentral
}

// OrbitPath is a ring of member instances around one anchor.
type OrbitPath struct {
	ID        string       `json:"id" yaml:"id"`
	Radius    float64      `json:"radius" yaml:"radius"`
	Rotation  Vec3         `json:"rotation" yaml:"rotation,flow"`
	ParentIDs []string     `json:"parentIds" yaml:"parentIds,flow"`
	Color     string       `json:"color,omitempty" yaml:"color,omitempty"`
	Nodes     []*GraphNode `json:"nodes" yaml:"nodes"`
}

// Parent returns the first parent identifier, or "" when none is declared.
func (o *OrbitPath) Parent() string {
	if len(o.ParentIDs) == 0 {
		return ""
	}
	return o.ParentIDs[0]
}

// Graph is the compiled, render-ready topology. Both slices are in source order.
type Graph struct {
	CentralNodes []*GraphNode `json:"centralNodes" yaml:"centralNodes"`
	Orbits       []*OrbitPath `json:"orbits" yaml:"orbits"`
}

// IsAnchorID reports whether id carries the anchor suffix.
func IsAnchorID(id string) bool {
	return len(id) >= len(AnchorSuffix) &&
		strings.EqualFold(id[len(id)-len(AnchorSuffix):], AnchorSuffix)
}

// MemberID builds the composite identifier of an orbit member instance.
func MemberID(orbitID, label string) string {
	return orbitID + "_" + label
}

func memberDescription(orbitID string) string {
	return "Instance of subsystem " + orbitID
}
