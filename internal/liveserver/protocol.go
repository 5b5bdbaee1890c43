package liveserver

import (
	"github.com/specialistvlad/eonc/internal/eon"
	"github.com/specialistvlad/eonc/internal/layout"
)

// Inbound message types.
const (
	TypeCompile = "compile"
	TypeSelect  = "select"
	TypeSearch  = "search"
	TypePing    = "ping"
)

// Outbound message types.
const (
	TypeGraph   = "graph"
	TypeError   = "error"
	TypeNode    = "node"
	TypeResults = "results"
	TypePong    = "pong"
)

// Error codes carried by TypeError messages.
const (
	CodeInvalidArgument = "invalid_argument"
	CodeNotFound        = "not_found"
	CodeSyntax          = "syntax_error"
	CodeInternal        = "internal"
)

// Inbound is a message sent by an editor.
type Inbound struct {
	Type   string `json:"type"`
	DocID  string `json:"docId,omitempty"`
	Source string `json:"source,omitempty"`
	NodeID string `json:"nodeId,omitempty"`
	Query  string `json:"query,omitempty"`
}

// Outbound is a message sent to an editor. Only the fields relevant to Type
// are set.
type Outbound struct {
	Type        string             `json:"type"`
	DocID       string             `json:"docId,omitempty"`
	Seq         uint64             `json:"seq,omitempty"`
	Graph       *eon.Graph         `json:"graph,omitempty"`
	Diagnostics []eon.Diagnostic   `json:"diagnostics,omitempty"`
	Stats       *eon.Stats         `json:"stats,omitempty"`
	Layout      []layout.Placement `json:"layout,omitempty"`
	Node        *eon.GraphNode     `json:"node,omitempty"`
	Query       string             `json:"query,omitempty"`
	Hits        []SearchHit        `json:"hits,omitempty"`
	Code        string             `json:"code,omitempty"`
	Message     string             `json:"message,omitempty"`
	Detail      string             `json:"detail,omitempty"`
	Pos         *eon.Pos           `json:"pos,omitempty"`
}

// SearchHit is an anchor reported by a search, with its matching members.
// AnchorMatched is false when only members matched.
type SearchHit struct {
	Anchor        *eon.GraphNode   `json:"anchor"`
	AnchorMatched bool             `json:"anchorMatched"`
	Members       []*eon.GraphNode `json:"members,omitempty"`
}

func searchHits(hits []eon.SearchHit) []SearchHit {
	out := make([]SearchHit, 0, len(hits))
	for _, h := range hits {
		out = append(out, SearchHit{Anchor: h.Anchor, AnchorMatched: h.AnchorMatched, Members: h.Members})
	}
	return out
}
