package testutil

import (
	"errors"
	"strings"
	"testing"

	"github.com/specialistvlad/eonc/internal/cli"
	"github.com/stretchr/testify/require"
)

// AssertExitCode checks that result failed with an ExitError carrying code.
func AssertExitCode(t *testing.T, result *HarnessResult, code int) {
	t.Helper()
	var exitErr *cli.ExitError
	require.True(t, errors.As(result.Err, &exitErr), "expected an ExitError, got %v", result.Err)
	require.Equal(t, code, exitErr.Code, "unexpected exit code, message: %s", exitErr.Message)
}

// AssertLogged checks that the log output contains every fragment.
func AssertLogged(t *testing.T, result *HarnessResult, fragments ...string) {
	t.Helper()
	for _, f := range fragments {
		require.True(t, strings.Contains(result.LogOutput, f),
			"expected log output to contain %q\n--- logs ---\n%s", f, result.LogOutput)
	}
}
