// Package docstore provides an ephemeral, thread-safe, in-memory registry of
// live editing sessions keyed by document id.
//
// # Characteristics
//
//   - Ephemeral: documents live only as long as the process. Persisting
//     source text is left to the editor.
//   - Thread-safe: sessions are stored in a sync.Map. Each document is
//     independent, so concurrent connections never contend on a global lock.
//
// Document ids are random UUIDs. Ids that do not parse as UUIDs are rejected
// before any lookup.
package docstore

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/specialistvlad/eonc/internal/ctxlog"
	"github.com/specialistvlad/eonc/internal/metrics"
	"github.com/specialistvlad/eonc/internal/session"
)

var (
	ErrNotFound  = errors.New("docstore: document not found")
	ErrInvalidID = errors.New("docstore: invalid document id")
)

// Store maps document ids to sessions.
type Store struct {
	sessions   sync.Map // Key: canonical uuid string, Value: *session.Session
	count      atomic.Int64
	newSession func() *session.Session
	metrics    *metrics.Registry
}

// Option configures a Store.
type Option func(*Store)

// WithMetrics keeps the active sessions gauge of r current.
func WithMetrics(r *metrics.Registry) Option {
	return func(s *Store) { s.metrics = r }
}

// New creates an empty store that builds sessions with newSession.
func New(newSession func() *session.Session, opts ...Option) *Store {
	s := &Store{newSession: newSession}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create opens a new session under a fresh id.
func (s *Store) Create(ctx context.Context) (string, *session.Session) {
	id := uuid.NewString()
	sess := s.newSession()
	s.sessions.Store(id, sess)
	s.adjust(1)
	ctxlog.FromContext(ctx).Debug("Document created.", "doc_id", id)
	return id, sess
}

// Get returns the session for id.
func (s *Store) Get(ctx context.Context, id string) (*session.Session, error) {
	key, err := canonical(id)
	if err != nil {
		return nil, err
	}
	v, ok := s.sessions.Load(key)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	return v.(*session.Session), nil
}

// Delete closes and removes the session for id.
func (s *Store) Delete(ctx context.Context, id string) error {
	key, err := canonical(id)
	if err != nil {
		return err
	}
	v, ok := s.sessions.LoadAndDelete(key)
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	s.adjust(-1)
	ctxlog.FromContext(ctx).Debug("Document deleted.", "doc_id", key)
	return v.(*session.Session).Close(ctx)
}

// Len returns the number of open documents.
func (s *Store) Len() int {
	return int(s.count.Load())
}

// IDs returns the open document ids in sorted order.
func (s *Store) IDs() []string {
	var ids []string
	s.sessions.Range(func(k, _ any) bool {
		ids = append(ids, k.(string))
		return true
	})
	sort.Strings(ids)
	return ids
}

func (s *Store) adjust(delta int64) {
	n := s.count.Add(delta)
	if s.metrics != nil {
		s.metrics.SessionsActive.Set(float64(n))
	}
}

func canonical(id string) (string, error) {
	u, err := uuid.Parse(id)
	if err != nil {
		return "", fmt.Errorf("%w %q: %v", ErrInvalidID, id, err)
	}
	return u.String(), nil
}
