package app

import (
	"context"
	"fmt"

	"github.com/specialistvlad/eonc/internal/ctxlog"
)

func (a *App) runPublish(ctx context.Context) error {
	res, err := a.compileFile(ctx)
	if err != nil {
		return err
	}

	p, err := a.connect(ctx, a.config.Publish.client(), a.metrics)
	if err != nil {
		return err
	}
	defer p.Close()

	if err := p.Publish(ctx, res); err != nil {
		return fmt.Errorf("failed to publish graph: %w", err)
	}
	ctxlog.FromContext(ctx).Info("Graph published", "url", a.config.Publish.URL, "event", a.config.Publish.Event)
	return nil
}
