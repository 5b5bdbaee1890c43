package integrationtests

import (
	"context"
	"sync"

	"github.com/specialistvlad/eonc/internal/app"
	"github.com/specialistvlad/eonc/internal/eon"
	"github.com/specialistvlad/eonc/internal/metrics"
	"github.com/specialistvlad/eonc/internal/publish"
)

const topology = `
// Two anchors, one shared module definition.
node "API.CORE" {
  pos: [4, 20, -4];
  size: 2;
  desc: "Public API";
  color: "#00ffff";
}

node "DATA.CORE" { pos: [0, -10, 0]; }

node "auth" { desc: "Authentication"; size: 0.3; color: "#ff0000"; }

orbit "EDGE" {
  parent: "API.CORE";
  radius: 6;
  rot: [0.2, 0, 0];
  color: "#00ff00";
  nodes: ["auth", "gateway"];
}

orbit "STORE" { parent: "DATA.CORE"; nodes: ["pg"]; }
`

// fakePublisher records what the app publishes.
type fakePublisher struct {
	mu        sync.Mutex
	cfg       publish.Config
	published chan *eon.Result
	closed    bool
}

func newFakePublisher() *fakePublisher {
	return &fakePublisher{published: make(chan *eon.Result, 16)}
}

func (f *fakePublisher) option() app.Option {
	return app.WithConnector(func(_ context.Context, cfg publish.Config, _ *metrics.Registry) (app.Publisher, error) {
		f.mu.Lock()
		f.cfg = cfg
		f.mu.Unlock()
		return f, nil
	})
}

func (f *fakePublisher) Publish(_ context.Context, res *eon.Result) error {
	f.published <- res
	return nil
}

func (f *fakePublisher) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func (f *fakePublisher) config() publish.Config {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.cfg
}

func (f *fakePublisher) isClosed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}
