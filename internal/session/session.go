// Package session holds one live EON document. Editors call Apply with the
// full text on every change; the session keeps the newest successful graph
// and the outcome of the newest call, discarding results of calls that were
// overtaken by a later one.
package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/specialistvlad/eonc/internal/ctxlog"
	"github.com/specialistvlad/eonc/internal/eon"
)

var (
	// ErrSuperseded is returned by Apply when a later call finished first.
	ErrSuperseded = errors.New("session: superseded by a newer edit")
	// ErrClosed is returned by Apply after Close.
	ErrClosed = errors.New("session: closed")
)

// Compiler turns source text into a result. eon.Compile and
// (*compilecache.Cache).Compile both satisfy it.
type Compiler func(source string) (*eon.Result, error)

// State is a snapshot of a session.
type State struct {
	// Seq numbers the most recent call whose outcome was kept. Zero means
	// nothing was applied yet.
	Seq uint64
	// Result is the last successful compilation, retained across failures.
	Result *eon.Result
	// Err is the failure of call Seq, or nil if it succeeded.
	Err       error
	UpdatedAt time.Time
}

// Graph returns the last good graph, or nil.
func (s State) Graph() *eon.Graph {
	if s.Result == nil {
		return nil
	}
	return s.Result.Graph
}

// Session is safe for concurrent use.
type Session struct {
	compile  Compiler
	observer func(State)

	mu     sync.RWMutex
	next   uint64
	state  State
	closed bool
}

// Option configures a Session.
type Option func(*Session)

// WithObserver registers fn to be called with every state the session keeps.
// fn runs on the goroutine that called Apply, outside the session lock.
func WithObserver(fn func(State)) Option {
	return func(s *Session) { s.observer = fn }
}

// New creates an empty session compiling with compile.
func New(compile Compiler, opts ...Option) *Session {
	s := &Session{compile: compile}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Apply compiles source and returns the state it kept. On success the result
// becomes the live graph; on failure the previous graph is kept and the error
// is recorded and returned alongside that state. If another Apply that
// started later has already been kept, the outcome is dropped and
// ErrSuperseded is returned with a zero State.
func (s *Session) Apply(ctx context.Context, source string) (State, error) {
	logger := ctxlog.FromContext(ctx)

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return State{}, ErrClosed
	}
	s.next++
	seq := s.next
	s.mu.Unlock()

	res, err := s.compile(source)

	s.mu.Lock()
	if seq <= s.state.Seq {
		kept := s.state.Seq
		s.mu.Unlock()
		logger.Debug("Discarding stale compilation.", "seq", seq, "kept_seq", kept)
		return State{}, ErrSuperseded
	}
	s.state.Seq = seq
	s.state.Err = err
	s.state.UpdatedAt = time.Now()
	if err == nil {
		s.state.Result = res
	}
	snapshot := s.state
	s.mu.Unlock()

	if err != nil {
		logger.Warn("Document failed to compile; keeping last good graph.", "seq", seq, "error", err)
	} else {
		logger.Debug("Document compiled.", "seq", seq,
			"anchors", len(res.Graph.CentralNodes), "orbits", len(res.Graph.Orbits),
			"diagnostics", len(res.Diagnostics))
	}
	if s.observer != nil {
		s.observer(snapshot)
	}
	return snapshot, err
}

// State returns the current snapshot.
func (s *Session) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Node looks id up in the last good graph.
func (s *Session) Node(id string) (*eon.GraphNode, bool) {
	g := s.State().Graph()
	if g == nil {
		return nil, false
	}
	return g.Node(id)
}

// Close stops the session from accepting edits. The last state stays readable.
func (s *Session) Close(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.closed {
		s.closed = true
		ctxlog.FromContext(ctx).Debug("Session closed.", "seq", s.state.Seq)
	}
	return nil
}
