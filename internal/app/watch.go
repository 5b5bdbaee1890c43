package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/specialistvlad/eonc/internal/ctxlog"
	"github.com/specialistvlad/eonc/internal/session"
)

// runWatch recompiles the source whenever its content changes, until ctx is
// cancelled. Failed edits are reported while the last good graph is kept, and
// each new good graph is published when a renderer URL is configured.
func (a *App) runWatch(ctx context.Context) error {
	logger := ctxlog.FromContext(ctx).With("path", a.config.SourcePath)
	ctx = ctxlog.WithLogger(ctx, logger)

	var pub Publisher
	if a.config.Publish.URL != "" {
		p, err := a.connect(ctx, a.config.Publish.client(), a.metrics)
		if err != nil {
			return err
		}
		defer p.Close()
		pub = p
	}

	sess := session.New(a.cache.Compile)
	defer sess.Close(ctx)

	last, err := os.ReadFile(a.config.SourcePath)
	if err != nil {
		return fmt.Errorf("failed to read source: %w", err)
	}
	a.applyEdit(ctx, sess, pub, string(last))

	ticker := time.NewTicker(a.config.WatchInterval)
	defer ticker.Stop()
	logger.Info("Watching for changes", "interval", a.config.WatchInterval)

	for {
		select {
		case <-ctx.Done():
			logger.Debug("Watch stopped.")
			return nil
		case <-ticker.C:
			src, err := os.ReadFile(a.config.SourcePath)
			if err != nil {
				logger.Warn("Failed to read source; will retry.", "error", err)
				continue
			}
			if string(src) == string(last) {
				continue
			}
			last = src
			a.applyEdit(ctx, sess, pub, string(src))
		}
	}
}

func (a *App) applyEdit(ctx context.Context, sess *session.Session, pub Publisher, src string) {
	path := a.config.SourcePath
	st, err := sess.Apply(ctx, src)
	switch {
	case errors.Is(err, session.ErrSuperseded):
		return
	case err != nil:
		fmt.Fprintf(a.outW, "%s: %v\n", path, err)
		if st.Graph() != nil {
			fmt.Fprintf(a.outW, "%s: keeping last good graph (seq %d)\n", path, st.Seq)
		}
		return
	}
	res := st.Result

	for _, d := range res.Diagnostics {
		logDiagnostic(ctx, path, d)
	}
	s := res.Graph.Stats()
	fmt.Fprintf(a.outW, "%s: ok: %d cores, %d orbits, %d active units\n", path, s.Cores, s.Orbits, s.ActiveUnits)

	if pub != nil {
		if err := pub.Publish(ctx, res); err != nil {
			ctxlog.FromContext(ctx).Warn("Failed to publish graph.", "error", err)
		}
	}
}
