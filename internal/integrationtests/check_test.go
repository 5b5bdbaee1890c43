package integrationtests

import (
	"path/filepath"
	"testing"

	"github.com/specialistvlad/eonc/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const withWarnings = `node "A.CORE" { pos: [0, 1, 0]; }
node "A.CORE" { pos: [0, 2, 0]; }
orbit "R" { parent: "A.CORE"; nodes: ["x", "x"]; }
`

func TestCheck_ReportsDiagnosticsAndSummary(t *testing.T) {
	t.Parallel()

	result := testutil.RunCLI(t, map[string]string{"main.eon": withWarnings}, "check", "main.eon")
	require.NoError(t, result.Err)

	assert.Contains(t, result.Stdout, ":2:1: warning:")
	assert.Contains(t, result.Stdout, "(duplicate-node)")
	assert.Contains(t, result.Stdout, "(duplicate-member)")
	assert.Contains(t, result.Stdout, "ok: 1 cores, 1 orbits (1 rendered), 2 active units, 2 diagnostics")
}

func TestCheck_StrictFailsOnWarnings(t *testing.T) {
	t.Parallel()

	result := testutil.RunCLI(t, map[string]string{"main.eon": withWarnings}, "check", "-strict", "main.eon")
	testutil.AssertExitCode(t, result, 1)
	assert.Contains(t, result.Err.Error(), "2 warnings reported in strict mode")
}

func TestCheck_StrictPassesCleanSource(t *testing.T) {
	t.Parallel()

	result := testutil.RunCLI(t, map[string]string{"main.eon": topology}, "check", "-strict", "main.eon")
	require.NoError(t, result.Err)
	assert.Contains(t, result.Stdout, "ok: 2 cores, 2 orbits (2 rendered), 3 active units, 0 diagnostics")
}

func TestCheck_Directory(t *testing.T) {
	t.Parallel()

	dir := testutil.WriteFiles(t, map[string]string{
		"topo/a.eon":     topology,
		"topo/b.eon":     `node "A.CORE" { pos: [0, 1`,
		"topo/readme.md": "not a source",
	})
	result := testutil.RunCLI(t, nil, "check", filepath.Join(dir, "topo"))
	testutil.AssertExitCode(t, result, 1)

	assert.Contains(t, result.Stdout, "a.eon: ok: 2 cores, 2 orbits (2 rendered), 3 active units, 0 diagnostics")
	assert.Contains(t, result.Stdout, "b.eon: eon: syntax error")
	assert.Contains(t, result.Err.Error(), "1 of 2 files failed")
}
