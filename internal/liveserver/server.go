// Package liveserver serves live EON editing over a websocket. Editors send
// the whole document on each change and receive the compiled graph, or a
// syntax error while the last good graph stays on screen.
package liveserver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/specialistvlad/eonc/internal/ctxlog"
	"github.com/specialistvlad/eonc/internal/docstore"
	"github.com/specialistvlad/eonc/internal/eon"
	"github.com/specialistvlad/eonc/internal/layout"
	"github.com/specialistvlad/eonc/internal/metrics"
	"github.com/specialistvlad/eonc/internal/session"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10

	// maxMessageSize bounds a single inbound document.
	maxMessageSize = 1 << 20
	sendBuffer     = 32
)

// Server handles /health, /metrics and /ws.
type Server struct {
	docs     *docstore.Store
	metrics  *metrics.Registry
	logger   *slog.Logger
	upgrader websocket.Upgrader

	// closing is cancelled by Close and ends every open websocket.
	closing context.Context
	close   context.CancelFunc
}

// New creates a server over docs. An empty allowedOrigins accepts any origin.
func New(logger *slog.Logger, docs *docstore.Store, reg *metrics.Registry, allowedOrigins []string) *Server {
	s := &Server{docs: docs, metrics: reg, logger: logger}
	s.closing, s.close = context.WithCancel(context.Background())
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     originChecker(allowedOrigins),
	}
	return s
}

// Close ends every open websocket with a going-away close frame and deletes
// the remaining documents. It is meant for http.Server.RegisterOnShutdown,
// since Shutdown does not track hijacked connections. Close is idempotent.
func (s *Server) Close() {
	if s.closing.Err() != nil {
		return
	}
	s.close()
	ids := s.docs.IDs()
	for _, id := range ids {
		_ = s.docs.Delete(context.Background(), id)
	}
	s.logger.Debug("Live server closed.", "released_documents", len(ids))
}

// Handler returns the HTTP routes of the server.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", s.healthHandler)
	mux.Handle("/metrics", s.metrics.Handler())
	mux.HandleFunc("/ws", s.wsHandler)
	return s.withLogger(mux)
}

func (s *Server) withLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := ctxlog.WithLogger(r.Context(), s.logger)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	ctxlog.FromContext(r.Context()).Debug("Health check endpoint hit.", "remote_addr", r.RemoteAddr, "path", r.URL.Path)
	w.WriteHeader(http.StatusOK)
	fmt.Fprintln(w, "OK")
}

func (s *Server) wsHandler(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		ctxlog.FromContext(r.Context()).Warn("Websocket upgrade failed.", "remote_addr", r.RemoteAddr, "error", err)
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(ctxlog.With(r.Context(), "remote_addr", r.RemoteAddr))
	defer cancel()
	stop := context.AfterFunc(s.closing, cancel)
	defer stop()
	logger := ctxlog.FromContext(ctx)

	s.metrics.ConnectionsActive.Inc()
	defer s.metrics.ConnectionsActive.Dec()
	logger.Info("Live editor connected.")

	c := &connection{
		server: s,
		conn:   conn,
		send:   make(chan Outbound, sendBuffer),
		owned:  make(map[string]struct{}),
	}
	defer c.release(ctx)

	conn.SetReadLimit(maxMessageSize)
	if err := conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		logger.Warn("Failed to set read deadline.", "error", err)
		return
	}
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	writerDone := make(chan struct{})
	go c.writeLoop(ctx, writerDone)

	for {
		var in Inbound
		if err := conn.ReadJSON(&in); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				logger.Warn("Live editor read failed.", "error", err)
			}
			break
		}
		c.handle(ctx, in)
	}
	cancel()
	<-writerDone
	logger.Info("Live editor disconnected.")
}

// connection is the state of one websocket client.
type connection struct {
	server *Server
	conn   *websocket.Conn
	send   chan Outbound
	// owned holds documents this connection created; they are deleted on
	// disconnect.
	owned map[string]struct{}
}

func (c *connection) writeLoop(ctx context.Context, done chan<- struct{}) {
	defer close(done)
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			code := websocket.CloseNormalClosure
			if c.server.closing.Err() != nil {
				code = websocket.CloseGoingAway
				// Unblock the reader if the peer never answers the close frame.
				_ = c.conn.UnderlyingConn().SetReadDeadline(time.Now().Add(writeWait))
			}
			_ = c.conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(code, ""), time.Now().Add(writeWait))
			return
		case out := <-c.send:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return
			}
			if err := c.conn.WriteJSON(out); err != nil {
				ctxlog.FromContext(ctx).Debug("Websocket write failed.", "error", err)
				return
			}
			c.server.metrics.RecordMessage("out", out.Type)
		case <-ticker.C:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return
			}
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// push queues out, dropping the oldest queued message if the client is slow.
func (c *connection) push(out Outbound) {
	select {
	case c.send <- out:
		return
	default:
	}
	select {
	case <-c.send:
	default:
	}
	select {
	case c.send <- out:
	default:
	}
}

func (c *connection) handle(ctx context.Context, in Inbound) {
	kind := strings.ToLower(strings.TrimSpace(in.Type))
	c.server.metrics.RecordMessage("in", kind)

	switch kind {
	case TypePing:
		c.push(Outbound{Type: TypePong})
	case TypeCompile:
		c.compile(ctx, in)
	case TypeSelect:
		c.selectNode(ctx, in)
	case TypeSearch:
		c.search(ctx, in)
	case "":
		c.push(errorMessage(in.DocID, CodeInvalidArgument, "type is required"))
	default:
		c.push(errorMessage(in.DocID, CodeInvalidArgument, "unsupported type: "+kind))
	}
}

func (c *connection) compile(ctx context.Context, in Inbound) {
	docID := strings.TrimSpace(in.DocID)
	var sess *session.Session
	if docID == "" {
		docID, sess = c.server.docs.Create(ctx)
		c.owned[docID] = struct{}{}
	} else {
		var err error
		if sess, err = c.server.docs.Get(ctx, docID); err != nil {
			c.push(lookupError(docID, err))
			return
		}
	}

	st, err := sess.Apply(ctxlog.With(ctx, "doc_id", docID), in.Source)
	switch {
	case errors.Is(err, session.ErrSuperseded):
		return
	case err != nil:
		c.push(compileError(docID, st.Seq, err))
		return
	}

	res := st.Result
	stats := res.Graph.Stats()
	c.push(Outbound{
		Type:        TypeGraph,
		DocID:       docID,
		Seq:         st.Seq,
		Graph:       res.Graph,
		Diagnostics: res.Diagnostics,
		Stats:       &stats,
		Layout:      layout.Place(res.Graph),
	})
}

func (c *connection) selectNode(ctx context.Context, in Inbound) {
	sess, err := c.server.docs.Get(ctx, in.DocID)
	if err != nil {
		c.push(lookupError(in.DocID, err))
		return
	}
	n, ok := sess.Node(in.NodeID)
	if !ok {
		c.push(errorMessage(in.DocID, CodeNotFound, fmt.Sprintf("node %q not found", in.NodeID)))
		return
	}
	c.push(Outbound{Type: TypeNode, DocID: in.DocID, Node: n})
}

// search matches in.Query against the last good graph of the document.
func (c *connection) search(ctx context.Context, in Inbound) {
	sess, err := c.server.docs.Get(ctx, in.DocID)
	if err != nil {
		c.push(lookupError(in.DocID, err))
		return
	}
	g := sess.State().Graph()
	if g == nil {
		c.push(errorMessage(in.DocID, CodeNotFound, "document has no compiled graph yet"))
		return
	}
	c.push(Outbound{Type: TypeResults, DocID: in.DocID, Query: in.Query, Hits: searchHits(g.Search(in.Query))})
}

// release deletes the documents this connection created.
func (c *connection) release(ctx context.Context) {
	for id := range c.owned {
		if err := c.server.docs.Delete(ctx, id); err != nil && !errors.Is(err, docstore.ErrNotFound) {
			ctxlog.FromContext(ctx).Warn("Failed to release document.", "doc_id", id, "error", err)
		}
	}
}

func errorMessage(docID, code, msg string) Outbound {
	return Outbound{Type: TypeError, DocID: docID, Code: code, Message: msg}
}

func lookupError(docID string, err error) Outbound {
	code := CodeInternal
	switch {
	case errors.Is(err, docstore.ErrInvalidID):
		code = CodeInvalidArgument
	case errors.Is(err, docstore.ErrNotFound):
		code = CodeNotFound
	}
	return errorMessage(docID, code, err.Error())
}

func compileError(docID string, seq uint64, err error) Outbound {
	out := Outbound{Type: TypeError, DocID: docID, Seq: seq, Code: CodeInternal, Message: err.Error()}
	var se *eon.SyntaxError
	if errors.As(err, &se) {
		pos := se.Pos
		out.Code = CodeSyntax
		out.Message = eon.UserMessage
		out.Detail = se.Error()
		out.Pos = &pos
	}
	return out
}

func originChecker(allowed []string) func(*http.Request) bool {
	if len(allowed) == 0 {
		return func(*http.Request) bool { return true }
	}
	set := make(map[string]struct{}, len(allowed))
	for _, o := range allowed {
		set[strings.TrimRight(o, "/")] = struct{}{}
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		_, ok := set[strings.TrimRight(origin, "/")]
		return ok
	}
}
