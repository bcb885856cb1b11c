// Package api provides the peekd HTTP surface: the embedded viewer, the
// request listing API, the live streams (SSE and WebSocket), and the
// catch-all capture route.
package api

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/peekd/peekd/pkg/logging"
	"github.com/peekd/peekd/pkg/requestlog"
)

// Server is the peekd HTTP server. A single listener serves both the
// inspector surface and the capture route; everything the inspector does
// not claim is captured.
type Server struct {
	store      *requestlog.MemoryStore
	capture    http.Handler
	viewer     http.Handler
	httpServer *http.Server
	port       int
	log        *slog.Logger
	startedAt  time.Time
}

// NewServer creates a Server on the given port. capture handles every
// route the inspector does not claim; viewer serves the dashboard at the
// root (may be nil to disable the UI).
func NewServer(port int, store *requestlog.MemoryStore, capture, viewer http.Handler) *Server {
	s := &Server{
		store:   store,
		capture: capture,
		viewer:  viewer,
		port:    port,
		log:     logging.Nop(),
	}

	mux := http.NewServeMux()
	s.registerRoutes(mux)

	s.httpServer = &http.Server{
		Handler: mux,
		// No global write timeout: /events and /api/stream/ws are
		// long-lived. Stream writes carry per-write deadlines instead.
		ReadHeaderTimeout: 10 * time.Second,
	}

	return s
}

// SetLogger sets the operational logger.
func (s *Server) SetLogger(log *slog.Logger) {
	if log != nil {
		s.log = log
	}
}

func (s *Server) registerRoutes(mux *http.ServeMux) {
	if s.viewer != nil {
		mux.Handle("GET /{$}", s.viewer)
	}

	// Live streams
	mux.HandleFunc("GET /events", s.handleEvents)
	mux.HandleFunc("GET /api/stream/ws", s.handleStreamWS)

	// Request log
	mux.HandleFunc("GET /api/requests", s.handleListRequests)
	mux.HandleFunc("GET /api/requests/{id}", s.handleGetRequest)
	mux.HandleFunc("DELETE /api/requests", s.handleClearRequests)

	mux.HandleFunc("GET /healthz", s.handleHealth)

	// Everything else, any method, is traffic to capture. This includes
	// non-GET hits on the inspector paths above.
	mux.Handle("/", s.capture)
}

// Start binds the listener and begins serving in a background goroutine.
// Binding is synchronous so a port conflict surfaces as the returned error.
// Request contexts derive from ctx, so cancelling it ends the long-lived
// stream handlers.
func (s *Server) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", fmt.Sprintf(":%d", s.port))
	if err != nil {
		return fmt.Errorf("bind port %d: %w", s.port, err)
	}

	s.httpServer.BaseContext = func(net.Listener) context.Context { return ctx }
	s.startedAt = time.Now()

	s.log.Info("inspector listening", "port", s.port, "maxRecords", s.store.Cap())

	go func() {
		if err := s.httpServer.Serve(ln); err != nil && err != http.ErrServerClosed {
			s.log.Error("http server error", "error", err)
		}
	}()

	return nil
}

// Stop gracefully shuts the server down. Live subscriptions are closed
// first so stream handlers drain and return instead of holding Shutdown
// open.
func (s *Server) Stop(ctx context.Context) error {
	s.store.CloseSubscribers()
	return s.httpServer.Shutdown(ctx)
}

// Port returns the configured listen port.
func (s *Server) Port() int {
	return s.port
}
