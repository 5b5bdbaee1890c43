package app

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/specialistvlad/eonc/internal/codec"
	"github.com/specialistvlad/eonc/internal/ctxlog"
	"github.com/specialistvlad/eonc/internal/eon"
	"github.com/specialistvlad/eonc/internal/fsutil"
)

// ErrStrict is returned by check in strict mode when warnings were reported.
var ErrStrict = errors.New("warnings reported in strict mode")

// SourceExtension is the extension check looks for when given a directory.
const SourceExtension = ".eon"

// compileFile reads and compiles the configured source, logging diagnostics.
func (a *App) compileFile(ctx context.Context) (*eon.Result, error) {
	return a.compilePath(ctx, a.config.SourcePath)
}

func (a *App) compilePath(ctx context.Context, path string) (*eon.Result, error) {
	logger := ctxlog.FromContext(ctx)

	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read source: %w", err)
	}
	res, err := a.cache.Compile(string(src))
	if err != nil {
		logger.Debug("Compilation failed.", "path", path, "error", err)
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	for _, d := range res.Diagnostics {
		logDiagnostic(ctx, path, d)
	}
	stats := res.Graph.Stats()
	logger.Debug("Compilation succeeded.", "path", path,
		"cores", stats.Cores, "orbits", stats.Orbits, "active_units", stats.ActiveUnits)
	return res, nil
}

func logDiagnostic(ctx context.Context, path string, d eon.Diagnostic) {
	logger := ctxlog.FromContext(ctx)
	attrs := []any{"path", path, "pos", d.Pos.String(), "code", d.Code}
	if d.Severity == eon.SeverityWarning {
		logger.Warn(d.Msg, attrs...)
		return
	}
	logger.Info(d.Msg, attrs...)
}

func (a *App) runCompile(ctx context.Context) error {
	format, err := codec.ParseFormat(a.config.Format)
	if err != nil {
		return err
	}
	res, err := a.compileFile(ctx)
	if err != nil {
		return err
	}
	if a.config.Full {
		return codec.Encode(a.outW, format, codec.NewDocument(res, true))
	}
	return codec.Encode(a.outW, format, res.Graph)
}

// runCheck compiles the source, or every source under it when it is a
// directory, and prints diagnostics with a summary per file. A file that
// fails is reported and the remaining files are still checked.
func (a *App) runCheck(ctx context.Context) error {
	paths, err := fsutil.FindSources(a.config.SourcePath, SourceExtension)
	if err != nil {
		return fmt.Errorf("failed to find sources in %s: %w", a.config.SourcePath, err)
	}
	if len(paths) == 1 {
		_, err := a.checkPath(ctx, paths[0], "")
		return err
	}

	var failed []error
	for _, path := range paths {
		if _, err := a.checkPath(ctx, path, path+": "); err != nil {
			if !errors.Is(err, eon.ErrSyntax) && !errors.Is(err, ErrStrict) {
				return err
			}
			fmt.Fprintf(a.outW, "%v\n", err)
			failed = append(failed, err)
		}
	}
	if len(failed) > 0 {
		return fmt.Errorf("%d of %d files failed: %w", len(failed), len(paths), errors.Join(failed...))
	}
	return nil
}

// checkPath checks one file. prefix is prepended to the summary line.
func (a *App) checkPath(ctx context.Context, path, prefix string) (*eon.Result, error) {
	res, err := a.compilePath(ctx, path)
	if err != nil {
		return nil, err
	}

	warnings := 0
	for _, d := range res.Diagnostics {
		if d.Severity == eon.SeverityWarning {
			warnings++
		}
		fmt.Fprintf(a.outW, "%s:%s\n", path, d)
	}
	s := res.Graph.Stats()
	fmt.Fprintf(a.outW, "%sok: %d cores, %d orbits (%d rendered), %d active units, %d diagnostics\n",
		prefix, s.Cores, s.Orbits, s.Rendered, s.ActiveUnits, len(res.Diagnostics))

	if a.config.Strict && warnings > 0 {
		return res, fmt.Errorf("%s: %d %w", path, warnings, ErrStrict)
	}
	return res, nil
}
