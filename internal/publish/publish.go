// Package publish pushes compiled graphs to a rendering service over
// socket.io.
package publish

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/specialistvlad/eonc/internal/codec"
	"github.com/specialistvlad/eonc/internal/ctxlog"
	"github.com/specialistvlad/eonc/internal/eon"
	"github.com/specialistvlad/eonc/internal/metrics"
	"github.com/zishang520/engine.io-client-go/transports"
	"github.com/zishang520/engine.io/v2/types"
	"github.com/zishang520/socket.io-client-go/socket"
)

// DefaultEvent is emitted when Config.Event is empty.
const DefaultEvent = "topology"

// ErrClosed is returned by Publish after Close.
var ErrClosed = errors.New("publish: publisher closed")

// Config describes the renderer endpoint.
type Config struct {
	URL                string
	Namespace          string
	Event              string
	Timeout            time.Duration
	InsecureSkipVerify bool
}

// Publisher emits graphs on a connected socket.
type Publisher struct {
	event   string
	metrics *metrics.Registry

	mu         sync.Mutex
	closed     bool
	emit       func(event string, payload any)
	disconnect func()
}

// Connect dials the renderer and waits for the connection within cfg.Timeout.
// reg may be nil.
func Connect(ctx context.Context, cfg Config, reg *metrics.Registry) (*Publisher, error) {
	logger := ctxlog.FromContext(ctx).With("component", "publisher", "url", cfg.URL)
	logger.Debug("Connecting to renderer...")

	parsedURL, err := url.Parse(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse URL: %w", err)
	}
	if parsedURL.Scheme == "" || parsedURL.Host == "" {
		return nil, fmt.Errorf("invalid renderer URL %q: scheme and host are required", cfg.URL)
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	opts := socket.DefaultOptions()
	opts.SetPath(parsedURL.Path)
	if cfg.InsecureSkipVerify {
		logger.Warn("Skipping TLS certificate verification")
		opts.SetTLSClientConfig(&tls.Config{InsecureSkipVerify: true})
	}
	opts.SetTransports(types.NewSet(transports.WebSocket))

	baseURL := fmt.Sprintf("%s://%s", parsedURL.Scheme, parsedURL.Host)
	manager := socket.NewManager(baseURL, opts)
	io := manager.Socket(cfg.Namespace, opts)

	connected := make(chan error, 1)
	io.Once(types.EventName("connect"), func(...any) {
		logger.Info("Connected to renderer", "sid", io.Id())
		select {
		case connected <- nil:
		default:
		}
	})
	io.Once(types.EventName("connect_error"), func(errs ...any) {
		err := errors.New("connect_error")
		if len(errs) > 0 {
			if e, ok := errs[0].(error); ok {
				err = e
			}
		}
		logger.Debug("Renderer connection error", "error", err)
		select {
		case connected <- err:
		default:
		}
	})
	io.Connect()

	select {
	case err := <-connected:
		if err != nil {
			io.Disconnect()
			return nil, fmt.Errorf("socket.io connection failed: %w", err)
		}
	case <-ctx.Done():
		io.Disconnect()
		return nil, fmt.Errorf("context cancelled while waiting for socket.io connection: %w", ctx.Err())
	case <-time.After(timeout):
		io.Disconnect()
		return nil, fmt.Errorf("timed out after %s waiting for socket.io connection", timeout)
	}

	return newPublisher(cfg.Event, reg,
		func(event string, payload any) { io.Emit(event, payload) },
		func() { io.Disconnect() },
	), nil
}

func newPublisher(event string, reg *metrics.Registry, emit func(string, any), disconnect func()) *Publisher {
	if event == "" {
		event = DefaultEvent
	}
	return &Publisher{event: event, metrics: reg, emit: emit, disconnect: disconnect}
}

// Publish emits res as a codec.Document, including member placements.
func (p *Publisher) Publish(ctx context.Context, res *eon.Result) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	var err error
	if p.closed {
		err = ErrClosed
	} else {
		p.emit(p.event, codec.NewDocument(res, true))
		ctxlog.FromContext(ctx).Debug("Graph published.", "event", p.event,
			"anchors", len(res.Graph.CentralNodes), "orbits", len(res.Graph.Orbits))
	}
	if p.metrics != nil {
		p.metrics.RecordPublish(err)
	}
	return err
}

// Close disconnects from the renderer. It is safe to call more than once.
func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.closed {
		p.closed = true
		p.disconnect()
	}
	return nil
}
