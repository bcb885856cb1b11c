package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/coder/websocket"

	"github.com/peekd/peekd/pkg/filter"
	"github.com/peekd/peekd/pkg/httputil"
	"github.com/peekd/peekd/pkg/requestlog"
)

const (
	// streamWriteTimeout bounds a single stream write so a stalled client
	// cannot wedge its handler past shutdown.
	streamWriteTimeout = 5 * time.Second

	// keepAliveInterval is how often an idle SSE stream emits a comment
	// so proxies keep the connection open.
	keepAliveInterval = 30 * time.Second
)

// compileStreamFilter parses the optional ?q= expression. It reports
// whether the caller may proceed; on a bad expression it has already
// written a 400.
func compileStreamFilter(w http.ResponseWriter, r *http.Request) (*filter.Program, bool) {
	q := r.URL.Query().Get("q")
	if q == "" {
		return nil, true
	}
	prog, err := filter.Compile(q)
	if err != nil {
		httputil.WriteBadRequest(w, "bad_filter", err.Error())
		return nil, false
	}
	return prog, true
}

// handleEvents serves GET /events: a Server-Sent Events stream with one
// `request` event per captured record, published after the client joined.
// No history is replayed; clients backfill via /api/requests.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	if _, ok := w.(http.Flusher); !ok {
		httputil.WriteInternalError(w, "stream_unsupported", "streaming not supported")
		return
	}

	prog, ok := compileStreamFilter(w, r)
	if !ok {
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	// Deadline-aware writes: a slow viewer times out instead of blocking
	// the handler forever.
	rc := http.NewResponseController(w)
	deadlinesSupported := true
	writeAndFlush := func(format string, args ...any) error {
		if deadlinesSupported {
			if err := rc.SetWriteDeadline(time.Now().Add(streamWriteTimeout)); err != nil {
				s.log.Debug("sse write deadlines not supported", "error", err)
				deadlinesSupported = false
			}
		}
		if _, err := fmt.Fprintf(w, format, args...); err != nil {
			return err
		}
		return rc.Flush()
	}

	sub := s.store.Subscribe()
	defer s.store.Unsubscribe(sub)

	if err := writeAndFlush("event: connected\ndata: {\"message\": \"connected to request stream\"}\n\n"); err != nil {
		return
	}

	s.log.Debug("sse subscriber joined", "remote", r.RemoteAddr)
	defer s.log.Debug("sse subscriber left", "remote", r.RemoteAddr)

	keepAlive := time.NewTicker(keepAliveInterval)
	defer keepAlive.Stop()

	ctx := r.Context()
	for {
		select {
		case rec, ok := <-sub.Records():
			if !ok {
				// server shutting down
				return
			}
			if prog != nil && !prog.Match(rec) {
				continue
			}
			data, err := json.Marshal(rec)
			if err != nil {
				continue
			}
			if err := writeAndFlush("event: request\ndata: %s\n\n", data); err != nil {
				return
			}

		case <-keepAlive.C:
			if err := writeAndFlush(": keep-alive\n\n"); err != nil {
				return
			}

		case <-ctx.Done():
			// client disconnected or server shutdown; expected, not an error
			return
		}
	}
}

// handleStreamWS serves GET /api/stream/ws: the same live record stream
// over a WebSocket, one JSON text message per record.
func (s *Server) handleStreamWS(w http.ResponseWriter, r *http.Request) {
	prog, ok := compileStreamFilter(w, r)
	if !ok {
		return
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		InsecureSkipVerify: true, // the inspector is origin-agnostic
	})
	if err != nil {
		s.log.Debug("websocket accept failed", "error", err)
		return
	}
	defer conn.Close(websocket.StatusInternalError, "stream ended")

	// We never expect client messages; CloseRead surfaces disconnects as
	// context cancellation.
	ctx := conn.CloseRead(r.Context())

	sub := s.store.Subscribe()
	defer s.store.Unsubscribe(sub)

	s.log.Debug("websocket subscriber joined", "remote", r.RemoteAddr)
	defer s.log.Debug("websocket subscriber left", "remote", r.RemoteAddr)

	for {
		select {
		case rec, ok := <-sub.Records():
			if !ok {
				conn.Close(websocket.StatusNormalClosure, "server shutting down")
				return
			}
			if prog != nil && !prog.Match(rec) {
				continue
			}
			if err := writeRecord(ctx, conn, rec); err != nil {
				return
			}

		case <-ctx.Done():
			return
		}
	}
}

func writeRecord(ctx context.Context, conn *websocket.Conn, rec *requestlog.Record) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return nil
	}
	wctx, cancel := context.WithTimeout(ctx, streamWriteTimeout)
	defer cancel()
	return conn.Write(wctx, websocket.MessageText, data)
}
