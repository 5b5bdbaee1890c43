package eon

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const axialSource = `// EON TOPOLOGY V3 - AXIAL SYSTEM
// .CORE nodes are anchors in the vertical axis (X=0, Z=0)

node "APPS.CORE" {
  pos: [0, 18, 0];
  size: 2.8;
  color: "#ffffff";
  desc: "Application execution centre";
}

orbit "SOFTWARE_LAYER" {
  parent: "APPS.CORE";
  radius: 8.5;
  rot: [0.3, 0.5, 0];
  color: "#34d399";
  nodes: ["calculadora", "terminal", "editor", "finder"];
}

node "SYSTEM.CORE" {
  pos: [0, 4, 0];
  size: 2.0;
  color: "#f8fafc";
  desc: "Low level core and drivers";
}

orbit "KERNEL_SERVICES" {
  parent: "SYSTEM.CORE";
  radius: 6.0;
  rot: [-0.2, 0.8, 0.1];
  color: "#60a5fa";
  nodes: ["scheduler", "memory_mgr", "io_bus"];
}
`

func mustCompile(t *testing.T, src string) *Result {
	t.Helper()
	res, err := Compile(src)
	require.NoError(t, err)
	require.NotNil(t, res)
	return res
}

func diagCodes(res *Result) []string {
	var codes []string
	for _, d := range res.Diagnostics {
		codes = append(codes, d.Code)
	}
	return codes
}

func TestCompile_SingleAnchor(t *testing.T) {
	res := mustCompile(t, `node "APPS.CORE" { pos: [0,18,0]; size: 2.8; }`)

	require.Len(t, res.Graph.CentralNodes, 1)
	a := res.Graph.CentralNodes[0]
	assert.Equal(t, "APPS.CORE", a.ID)
	assert.Equal(t, "APPS.CORE", a.Label)
	assert.Equal(t, NodeCentral, a.Type)
	assert.Equal(t, Vec3{0, 18, 0}, a.Position)
	assert.Equal(t, 2.8, a.Size)
	assert.Equal(t, DefaultDescription, a.Description)
	assert.Empty(t, a.Color)
	assert.Empty(t, res.Graph.Orbits)
}

func TestCompile_FreeTextEndsAtLineBreak(t *testing.T) {
	res := mustCompile(t, "node \"A.CORE\" {\n  desc: see [draft\n  size: 3\n}")

	require.Len(t, res.Graph.CentralNodes, 1)
	a := res.Graph.CentralNodes[0]
	assert.Equal(t, "see [draft", a.Description)
	assert.Equal(t, 3.0, a.Size)
}

func TestCompile_UnclosedVectorAcrossLinesFails(t *testing.T) {
	res, err := Compile("node \"A.CORE\" {\n  pos: [0, 1, 0\n  size: 3;\n}")
	assert.Nil(t, res)
	assert.ErrorIs(t, err, ErrSyntax)
}

func TestCompile_SingleQuotedBlockName(t *testing.T) {
	res := mustCompile(t, `node 'X.CORE' { pos: [0, 2, 0]; }`)

	require.Len(t, res.Graph.CentralNodes, 1)
	assert.Equal(t, "X.CORE", res.Graph.CentralNodes[0].ID)
}

func TestCompile_OrbitInheritsParentSize(t *testing.T) {
	res := mustCompile(t, `
node "APPS.CORE" { pos: [0,18,0]; size: 2.8; }
orbit "SOFTWARE_LAYER" { parent: "APPS.CORE"; radius: 8.5; nodes: ["calculadora","terminal"]; }
`)

	require.Len(t, res.Graph.Orbits, 1)
	o := res.Graph.Orbits[0]
	assert.Equal(t, "SOFTWARE_LAYER", o.ID)
	assert.Equal(t, 8.5, o.Radius)
	assert.Equal(t, Vec3{}, o.Rotation)
	assert.Equal(t, []string{"APPS.CORE"}, o.ParentIDs)

	require.Len(t, o.Nodes, 2)
	assert.Equal(t, "SOFTWARE_LAYER_calculadora", o.Nodes[0].ID)
	assert.Equal(t, "calculadora", o.Nodes[0].Label)
	assert.Equal(t, "SOFTWARE_LAYER_terminal", o.Nodes[1].ID)
	for _, n := range o.Nodes {
		assert.InDelta(t, 0.7, n.Size, 1e-9)
		assert.Equal(t, NodeOrbit, n.Type)
		assert.Equal(t, Vec3{}, n.Position)
		assert.Equal(t, "Instance of subsystem SOFTWARE_LAYER", n.Description)
	}
	assert.Empty(t, res.Diagnostics)
}

func TestCompile_AxialDocument(t *testing.T) {
	res := mustCompile(t, axialSource)

	g := res.Graph
	require.Len(t, g.CentralNodes, 2)
	assert.Equal(t, "APPS.CORE", g.CentralNodes[0].ID)
	assert.Equal(t, "SYSTEM.CORE", g.CentralNodes[1].ID)

	require.Len(t, g.Orbits, 2)
	assert.Equal(t, "SOFTWARE_LAYER", g.Orbits[0].ID)
	assert.Equal(t, Vec3{0.3, 0.5, 0}, g.Orbits[0].Rotation)
	assert.Len(t, g.Orbits[0].Nodes, 4)
	assert.Equal(t, "KERNEL_SERVICES", g.Orbits[1].ID)
	assert.Equal(t, Vec3{-0.2, 0.8, 0.1}, g.Orbits[1].Rotation)

	for _, n := range g.Orbits[1].Nodes {
		assert.Equal(t, "#60a5fa", n.Color, "members take the orbit color")
		assert.InDelta(t, 0.5, n.Size, 1e-9)
	}
	assert.Equal(t, axialSource, res.Source)
}

func TestCompile_Idempotent(t *testing.T) {
	first := mustCompile(t, axialSource)
	second := mustCompile(t, axialSource)
	assert.Equal(t, first.Graph, second.Graph)
	assert.NotSame(t, first.Graph, second.Graph)
}

func TestCompile_AnchorAxisCollapse(t *testing.T) {
	res := mustCompile(t, `
node "a.core" { pos: [7, 3, -9]; }
node "plain" { pos: [7, 3, -9]; }
`)
	require.Len(t, res.Graph.CentralNodes, 1)
	assert.Equal(t, Vec3{0, 3, 0}, res.Graph.CentralNodes[0].Position)
	assert.Equal(t, NodeCentral, res.Graph.CentralNodes[0].Type)
}

func TestCompile_AnchorDetectionIgnoresTypeKeyword(t *testing.T) {
	res := mustCompile(t, `
node "WORKER" { type: central; }
node "db.Core" { type: orbit; }
`)
	require.Len(t, res.Graph.CentralNodes, 1)
	assert.Equal(t, "db.Core", res.Graph.CentralNodes[0].ID)
	assert.Contains(t, diagCodes(res), CodeUnknownProperty)
}

func TestCompile_MemberInheritsGlobalDefinition(t *testing.T) {
	res := mustCompile(t, `
orbit "RING" {
  parent: "HUB.CORE";
  color: "#00ff00";
  nodes: ["db", "cache", "queue"];
}
node "HUB.CORE" { size: 2; }
node "db" { size: 1.5; desc: "Primary database"; color: "#ff0000"; }
node "cache" { size: 0.9; desc: "Hot keys"; }
`)
	require.Len(t, res.Graph.Orbits, 1)
	members := res.Graph.Orbits[0].Nodes
	require.Len(t, members, 3)

	db, cache, queue := members[0], members[1], members[2]
	assert.Equal(t, "RING_db", db.ID)
	assert.Equal(t, 1.5, db.Size)
	assert.Equal(t, "Primary database", db.Description)
	assert.Equal(t, "#ff0000", db.Color)

	assert.Equal(t, 0.9, cache.Size)
	assert.Equal(t, "Hot keys", cache.Description)
	assert.Equal(t, "#00ff00", cache.Color, "no global color falls back to the orbit color")

	assert.Equal(t, 0.5, queue.Size)
	assert.Equal(t, "Instance of subsystem RING", queue.Description)
	assert.Equal(t, "#00ff00", queue.Color)
}

func TestCompile_UnresolvedParentIsNotFatal(t *testing.T) {
	res := mustCompile(t, `orbit "LOST" { parent: "GHOST.CORE"; nodes: ["a"]; }`)

	require.Len(t, res.Graph.Orbits, 1)
	o := res.Graph.Orbits[0]
	assert.Equal(t, []string{"GHOST.CORE"}, o.ParentIDs)
	require.Len(t, o.Nodes, 1)
	assert.Equal(t, FallbackMemberSize, o.Nodes[0].Size)
	assert.Empty(t, res.Graph.Rings())
	assert.Contains(t, diagCodes(res), CodeUnresolvedParent)
}

func TestCompile_OrbitWithoutParentIsSkipped(t *testing.T) {
	res := mustCompile(t, `
orbit "FREE" { radius: 3; nodes: ["a"]; }
orbit "BLANK" { parent: ""; }
`)
	assert.Empty(t, res.Graph.Orbits)
	assert.Equal(t, []string{CodeMissingParent, CodeMissingParent}, diagCodes(res))
}

func TestCompile_Defaults(t *testing.T) {
	res := mustCompile(t, `
node "X.CORE" {}
orbit "O" { parent: "X.CORE"; }
`)
	a := res.Graph.CentralNodes[0]
	assert.Equal(t, DefaultNodeSize, a.Size)
	assert.Equal(t, Vec3{}, a.Position)
	assert.Equal(t, DefaultDescription, a.Description)

	o := res.Graph.Orbits[0]
	assert.Equal(t, DefaultOrbitRadius, o.Radius)
	assert.Equal(t, Vec3{}, o.Rotation)
	assert.Empty(t, o.Color)
	assert.NotNil(t, o.Nodes)
	assert.Empty(t, o.Nodes)
}

func TestCompile_DuplicateNodeLastWriteWins(t *testing.T) {
	res := mustCompile(t, `
node "A.CORE" { pos: [0, 1, 0]; size: 1; }
node "B.CORE" { pos: [0, 2, 0]; }
node "A.CORE" { pos: [0, 9, 0]; size: 4; }
orbit "R" { parent: "A.CORE"; nodes: ["x"]; }
`)
	g := res.Graph
	require.Len(t, g.CentralNodes, 2)
	assert.Equal(t, "A.CORE", g.CentralNodes[0].ID)
	assert.Equal(t, Vec3{0, 9, 0}, g.CentralNodes[0].Position)
	assert.Equal(t, 4.0, g.CentralNodes[0].Size)
	assert.Equal(t, "B.CORE", g.CentralNodes[1].ID)
	assert.Equal(t, 1.0, g.Orbits[0].Nodes[0].Size)
	assert.Contains(t, diagCodes(res), CodeDuplicateNode)
}

func TestCompile_CommentsAreStripped(t *testing.T) {
	res := mustCompile(t, `
node "A.CORE" {
  size: 3; // trailing note
  desc: "Gateway"; // another one
  color: "#fff" // no semicolon
}
`)
	a := res.Graph.CentralNodes[0]
	assert.Equal(t, 3.0, a.Size)
	assert.Equal(t, "Gateway", a.Description)
	assert.Equal(t, "#fff", a.Color)
}

func TestCompile_CommentMarkerInsideQuotesSurvives(t *testing.T) {
	res := mustCompile(t, `node "A.CORE" { desc: "see https://example.com/docs"; }`)
	assert.Equal(t, "see https://example.com/docs", res.Graph.CentralNodes[0].Description)
}

func TestCompile_QuotedValues(t *testing.T) {
	res := mustCompile(t, `
node 'A.CORE' {
  size: "2.5";
  desc: 'Single quoted; with separator';
  pos: "[0, 2, 0]";
}
orbit "O" { parent: 'A.CORE'; nodes: ['one', "two"]; }
`)
	a := res.Graph.CentralNodes[0]
	assert.Equal(t, 2.5, a.Size)
	assert.Equal(t, "Single quoted; with separator", a.Description)
	assert.Equal(t, Vec3{0, 2, 0}, a.Position)
	require.Len(t, res.Graph.Orbits[0].Nodes, 2)
	assert.Equal(t, "O_two", res.Graph.Orbits[0].Nodes[1].ID)
}

func TestCompile_CaseInsensitiveKeys(t *testing.T) {
	res := mustCompile(t, `node "A.CORE" { POS: [1, 2, 3]; Size: 5; }`)
	assert.Equal(t, Vec3{0, 2, 0}, res.Graph.CentralNodes[0].Position)
	assert.Equal(t, 5.0, res.Graph.CentralNodes[0].Size)
}

func TestCompile_MultiLineNodeList(t *testing.T) {
	res := mustCompile(t, `
node "A.CORE" {}
orbit "O" {
  parent: "A.CORE";
  nodes: [
    "one",
    "two"
  ];
  radius: 2;
}
`)
	assert.Len(t, res.Graph.Orbits[0].Nodes, 2)
	assert.Equal(t, 2.0, res.Graph.Orbits[0].Radius)
}

func TestCompile_SyntaxErrors(t *testing.T) {
	testCases := []struct {
		name string
		src  string
		line int
	}{
		{name: "pos with two numbers", src: `node "A.CORE" { pos: [0, 1]; }`, line: 1},
		{name: "pos not bracketed", src: `node "A.CORE" { pos: 0, 1, 0; }`, line: 1},
		{name: "pos unbalanced", src: "node \"A\" {\n  pos: [0, 1, 0;\n}", line: 2},
		{name: "rot with text", src: "node \"A.CORE\" {}\norbit \"O\" { parent: \"A.CORE\"; rot: [0, x, 0]; }", line: 2},
		{name: "size not numeric", src: `node "A" { size: big; }`, line: 1},
		{name: "size with suffix", src: `node "A" { size: 2.8abc; }`, line: 1},
		{name: "radius NaN", src: `orbit "O" { parent: "A"; radius: NaN; }`, line: 1},
		{name: "nodes unquoted", src: `orbit "O" { parent: "A"; nodes: [a, b]; }`, line: 1},
		{name: "nodes trailing comma", src: `orbit "O" { parent: "A"; nodes: ["a",]; }`, line: 1},
		{name: "nodes not a list", src: `orbit "O" { parent: "A"; nodes: "a"; }`, line: 1},
		{name: "missing brace", src: "node \"A\" {\n  size: 1;\n", line: 1},
		{name: "nested open brace", src: "node \"A\" {\n  size: 1;\nnode \"B\" {\n}", line: 3},
		{name: "no open brace", src: `node "A" size: 1; }`, line: 1},
		{name: "empty name", src: `node "" {}`, line: 1},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			res, err := Compile(tc.src)
			require.Error(t, err)
			assert.Nil(t, res)
			assert.True(t, errors.Is(err, ErrSyntax))

			var synErr *SyntaxError
			require.ErrorAs(t, err, &synErr)
			assert.Equal(t, tc.line, synErr.Pos.Line)
		})
	}
}

func TestCompile_MalformedOrbitDiscardsEverything(t *testing.T) {
	res, err := Compile(axialSource + "\norbit \"BAD\" { parent: \"APPS.CORE\"; rot: [1, 2]; }\n")
	require.Error(t, err)
	assert.Nil(t, res)
}

func TestCompile_ErrorPosition(t *testing.T) {
	_, err := Compile("node \"A.CORE\" {\n  pos: [0, 1, oops];\n}")
	var synErr *SyntaxError
	require.ErrorAs(t, err, &synErr)
	assert.Equal(t, Pos{Offset: 30, Line: 2, Col: 15}, synErr.Pos)
	assert.Contains(t, err.Error(), "2:15")
}

func TestCompile_StrayTextIsIgnored(t *testing.T) {
	res := mustCompile(t, `
this file describes a node for the system
node "A.CORE" { size: 2; }
trailing words
`)
	assert.Len(t, res.Graph.CentralNodes, 1)
}

func TestCompile_BraceInsideQuotedValue(t *testing.T) {
	res := mustCompile(t, `node "A.CORE" { desc: "uses {braces}"; size: 2; }`)
	assert.Equal(t, "uses {braces}", res.Graph.CentralNodes[0].Description)
	assert.Equal(t, 2.0, res.Graph.CentralNodes[0].Size)
}

func TestCompile_NonPositiveSizeIsDiagnosed(t *testing.T) {
	res := mustCompile(t, `node "A.CORE" { size: -1; }`)
	assert.Equal(t, -1.0, res.Graph.CentralNodes[0].Size)
	assert.Equal(t, []string{CodeNonPositiveNumber}, diagCodes(res))
}

func TestCompile_DuplicateMemberLabel(t *testing.T) {
	res := mustCompile(t, `node "A.CORE" {} orbit "O" { parent: "A.CORE"; nodes: ["x", "x"]; }`)
	require.Len(t, res.Graph.Orbits[0].Nodes, 2)
	assert.Contains(t, diagCodes(res), CodeDuplicateMember)
}

func TestCompile_ParentIsPlainNode(t *testing.T) {
	res := mustCompile(t, `node "hub" { size: 4; } orbit "O" { parent: "hub"; nodes: ["x"]; }`)
	o := res.Graph.Orbits[0]
	assert.Equal(t, 1.0, o.Nodes[0].Size)
	assert.Empty(t, res.Graph.Rings())
	assert.Contains(t, diagCodes(res), CodeUnresolvedParent)
}

func TestCompile_EmptySource(t *testing.T) {
	res := mustCompile(t, "")
	assert.NotNil(t, res.Graph.CentralNodes)
	assert.NotNil(t, res.Graph.Orbits)
	assert.Empty(t, res.Graph.CentralNodes)
	assert.Empty(t, res.Graph.Orbits)
}
