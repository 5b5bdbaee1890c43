package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/specialistvlad/eonc/internal/compilecache"
	"github.com/specialistvlad/eonc/internal/ctxlog"
	"github.com/specialistvlad/eonc/internal/docstore"
	"github.com/specialistvlad/eonc/internal/eon"
	"github.com/specialistvlad/eonc/internal/metrics"
	"github.com/specialistvlad/eonc/internal/publish"
	"github.com/specialistvlad/eonc/internal/session"
)

// Publisher is the part of publish.Publisher the app depends on.
type Publisher interface {
	Publish(ctx context.Context, res *eon.Result) error
	Close() error
}

// Connector opens a Publisher to the renderer.
type Connector func(ctx context.Context, cfg publish.Config, reg *metrics.Registry) (Publisher, error)

// Option configures an App.
type Option func(*App)

// WithConnector replaces the socket.io connector, mainly for tests.
func WithConnector(c Connector) Option {
	return func(a *App) { a.connect = c }
}

// App encapsulates the application's dependencies, configuration, and lifecycle.
type App struct {
	outW    io.Writer
	logger  *slog.Logger
	config  *Config
	metrics *metrics.Registry
	cache   *compilecache.Cache
	docs    *docstore.Store
	connect Connector
}

// NewApp is the constructor for the main application. Command results are
// written to outW and logs to logW.
func NewApp(outW, logW io.Writer, cfg *Config, opts ...Option) (*App, error) {
	logger := newLogger(cfg.LogLevel, cfg.LogFormat, logW)
	logger.Debug("Logger configured successfully.")

	reg := metrics.NewRegistry()
	cache, err := compilecache.New(cfg.CacheSize, compilecache.WithMetrics(reg))
	if err != nil {
		return nil, err
	}
	docs := docstore.New(func() *session.Session {
		return session.New(cache.Compile)
	}, docstore.WithMetrics(reg))
	logger.Debug("Compile cache ready.", "size", cfg.CacheSize)

	a := &App{
		outW:    outW,
		logger:  logger,
		config:  cfg,
		metrics: reg,
		cache:   cache,
		docs:    docs,
		connect: func(ctx context.Context, c publish.Config, r *metrics.Registry) (Publisher, error) {
			return publish.Connect(ctx, c, r)
		},
	}
	for _, opt := range opts {
		opt(a)
	}
	return a, nil
}

// Run executes the configured command until it finishes or ctx is cancelled.
func (a *App) Run(ctx context.Context) error {
	ctx = ctxlog.WithLogger(ctx, a.logger.With("command", a.config.Command))
	a.logger.Debug("App.Run method started.", "command", a.config.Command, "source", a.config.SourcePath)

	var err error
	switch a.config.Command {
	case CommandCompile:
		err = a.runCompile(ctx)
	case CommandCheck:
		err = a.runCheck(ctx)
	case CommandTree:
		err = a.runTree(ctx)
	case CommandWatch:
		err = a.runWatch(ctx)
	case CommandServe:
		err = a.runServe(ctx)
	case CommandPublish:
		err = a.runPublish(ctx)
	default:
		err = fmt.Errorf("unknown command %q", a.config.Command)
	}

	a.logger.Debug("App.Run method finished.", "error", err)
	return err
}

// Metrics returns the application's metrics registry. This is primarily for testing.
func (a *App) Metrics() *metrics.Registry {
	return a.metrics
}
