package testutil

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/specialistvlad/eonc/internal/app"
	"github.com/specialistvlad/eonc/internal/cli"
	"github.com/specialistvlad/eonc/internal/hcl_adapter"
	"github.com/stretchr/testify/require"
)

// SafeBuffer is a thread-safe buffer for capturing output in tests.
type SafeBuffer struct {
	b  bytes.Buffer
	mu sync.Mutex
}

// Write implements the io.Writer interface for SafeBuffer.
func (b *SafeBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.b.Write(p)
}

// String implements the fmt.Stringer interface for SafeBuffer.
func (b *SafeBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.b.String()
}

// HarnessResult holds the outcomes of a CLI run.
type HarnessResult struct {
	Dir       string
	Stdout    string
	LogOutput string
	Err       error
}

// WriteFiles creates a temporary directory holding files, keyed by relative
// path, and returns it.
func WriteFiles(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		path := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	}
	return dir
}

// RunCLI runs eonc with args against a temporary directory holding files,
// using a default background context.
func RunCLI(t *testing.T, files map[string]string, args ...string) *HarnessResult {
	t.Helper()
	return RunCLIWithContext(context.Background(), t, files, nil, args...)
}

// RunCLIWithContext runs eonc with args. Any argument equal to a key of files
// is replaced by the absolute path of that file; so is the value of a
// "-config=" argument. Logs are written at debug level as text.
func RunCLIWithContext(ctx context.Context, t *testing.T, files map[string]string, opts []app.Option, args ...string) *HarnessResult {
	t.Helper()
	dir := WriteFiles(t, files)

	resolved := make([]string, 0, len(args)+2)
	resolved = append(resolved, "-log-level=debug", "-log-format=text")
	for _, a := range args {
		if _, ok := files[a]; ok {
			a = filepath.Join(dir, a)
		} else if name, ok := strings.CutPrefix(a, "-config="); ok {
			if _, known := files[name]; known {
				a = "-config=" + filepath.Join(dir, name)
			}
		}
		resolved = append(resolved, a)
	}

	stdout, logs := &SafeBuffer{}, &SafeBuffer{}
	loader := hcl_adapter.NewLoader(filepath.Join(dir, ".env"))
	loader.Environ = func() []string { return nil }

	err := cli.Run(ctx, resolved, stdout, logs, loader, opts...)

	if os.Getenv("EONC_TEST_LOGS") == "true" {
		t.Logf("--- Full Log Output for %s ---\n%s", t.Name(), logs.String())
	}
	return &HarnessResult{Dir: dir, Stdout: stdout.String(), LogOutput: logs.String(), Err: err}
}
