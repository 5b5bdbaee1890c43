package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/specialistvlad/eonc/internal/ctxlog"
	"github.com/specialistvlad/eonc/internal/liveserver"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 5 * time.Second

func (a *App) runServe(ctx context.Context) error {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Configuring live server.", "allowed_origins", a.config.AllowedOrigins)

	ln, err := net.Listen("tcp", a.config.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", a.config.Addr, err)
	}
	live := liveserver.New(logger, a.docs, a.metrics, a.config.AllowedOrigins)
	srv := &http.Server{
		Handler:           live.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	srv.RegisterOnShutdown(live.Close)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("Live server starting", "address", fmt.Sprintf("http://%s", ln.Addr()))
		// Serve returns ErrServerClosed on graceful shutdown.
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("live server failed: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()

		logger.Info("Shutting down live server...")
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("live server shutdown failed: %w", err)
		}
		logger.Debug("Live server shut down gracefully.")
		return nil
	})
	return g.Wait()
}
