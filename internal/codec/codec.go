// Package codec writes compiled graphs in the interchange formats renderers
// and tooling consume.
package codec

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/specialistvlad/eonc/internal/eon"
	"github.com/specialistvlad/eonc/internal/layout"
	"gopkg.in/yaml.v3"
)

// Format names an output encoding.
type Format string

const (
	JSON Format = "json"
	YAML Format = "yaml"
)

// ParseFormat accepts "json", "yaml" or "yml" in any case.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "json":
		return JSON, nil
	case "yaml", "yml":
		return YAML, nil
	default:
		return "", fmt.Errorf("unknown format %q: must be 'json' or 'yaml'", s)
	}
}

// Document is the exported form of a compilation.
type Document struct {
	Graph       *eon.Graph         `json:"graph" yaml:"graph"`
	Diagnostics []eon.Diagnostic   `json:"diagnostics,omitempty" yaml:"diagnostics,omitempty"`
	Layout      []layout.Placement `json:"layout,omitempty" yaml:"layout,omitempty"`
}

// NewDocument wraps res, adding member placements when withLayout is set.
func NewDocument(res *eon.Result, withLayout bool) *Document {
	doc := &Document{Graph: res.Graph, Diagnostics: res.Diagnostics}
	if withLayout {
		doc.Layout = layout.Place(res.Graph)
	}
	return doc
}

// Encode writes v to w in format f.
func Encode(w io.Writer, f Format, v any) error {
	switch f {
	case JSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(v); err != nil {
			return fmt.Errorf("failed to encode json: %w", err)
		}
		return nil
	case YAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return fmt.Errorf("failed to encode yaml: %w", err)
		}
		return enc.Close()
	default:
		return fmt.Errorf("unknown format %q", f)
	}
}

// DecodeGraph reads a graph previously written by Encode.
func DecodeGraph(r io.Reader, f Format) (*eon.Graph, error) {
	var g eon.Graph
	var err error
	switch f {
	case JSON:
		err = json.NewDecoder(r).Decode(&g)
	case YAML:
		err = yaml.NewDecoder(r).Decode(&g)
	default:
		return nil, fmt.Errorf("unknown format %q", f)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s graph: %w", f, err)
	}
	return &g, nil
}
