// Package capture turns inbound HTTP requests into request log records.
//
// The Handler serves the catch-all route: every request that reaches it is
// recorded and acknowledged with a small JSON body. Recording is best
// effort: malformed bodies, binary payloads, or broadcast pressure never
// cause an inbound request to fail.
package capture

import (
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/peekd/peekd/pkg/httputil"
	"github.com/peekd/peekd/pkg/logging"
	"github.com/peekd/peekd/pkg/requestlog"
)

// DefaultMaxBodyBytes caps the retained request body when no limit is
// configured.
const DefaultMaxBodyBytes = 64 << 10 // 64KiB

// Ack is the JSON acknowledgment returned for every captured request.
type Ack struct {
	Status    string    `json:"status"`
	ID        string    `json:"id,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Handler records requests into a store and fans them out via the store's
// broadcaster. It implements http.Handler.
type Handler struct {
	store        requestlog.Store
	log          *slog.Logger
	ignore       []string
	maxBodyBytes int64
}

// Option configures a Handler.
type Option func(*Handler)

// WithLogger sets the operational logger.
func WithLogger(log *slog.Logger) Option {
	return func(h *Handler) {
		if log != nil {
			h.log = log
		}
	}
}

// WithIgnoreGlobs sets doublestar patterns for paths that are acknowledged
// but not recorded. Invalid patterns are dropped at match time.
func WithIgnoreGlobs(patterns []string) Option {
	return func(h *Handler) { h.ignore = patterns }
}

// WithMaxBodyBytes caps how much of a request body is retained. Zero means
// record metadata only, no body text. Negative values are ignored and keep
// the default.
func WithMaxBodyBytes(n int64) Option {
	return func(h *Handler) {
		if n >= 0 {
			h.maxBodyBytes = n
		}
	}
}

// NewHandler creates a capture Handler writing to store.
func NewHandler(store requestlog.Store, opts ...Option) *Handler {
	h := &Handler{
		store:        store,
		log:          logging.Nop(),
		maxBodyBytes: DefaultMaxBodyBytes,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// ServeHTTP captures the request and acknowledges it. The response is
// always 200; observability must not become a source of request failures.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	now := time.Now().UTC()

	if h.ignored(r.URL.Path) {
		httputil.WriteOK(w, Ack{Status: "ignored", Timestamp: now})
		return
	}

	rec := h.record(r, now)
	h.store.Append(rec)

	h.log.Debug("request captured",
		"id", rec.ID, "method", rec.Method, "path", rec.Path, "client", rec.ClientIP)

	httputil.WriteOK(w, Ack{Status: "logged", ID: rec.ID, Timestamp: rec.Timestamp})
}

// record builds the immutable Record for r. It never fails: body read
// errors yield an empty body.
func (h *Handler) record(r *http.Request, now time.Time) *requestlog.Record {
	body, size := h.readBody(r)

	return &requestlog.Record{
		Timestamp: now,
		Method:    strings.ToUpper(r.Method),
		Path:      r.URL.Path,
		Query:     collapseValues(r.URL.Query()),
		Headers:   collapseHeaders(r.Header),
		Body:      body,
		BodySize:  size,
		ClientIP:  clientIP(r),
	}
}

// readBody drains up to maxBodyBytes+1 of the request body and returns the
// retained text and the observed size. Bytes past the cap are discarded but
// counted. Invalid UTF-8 is replaced with U+FFFD rather than stored raw or
// rejected.
func (h *Handler) readBody(r *http.Request) (string, int) {
	if r.Body == nil {
		return "", 0
	}

	limited := io.LimitReader(r.Body, h.maxBodyBytes)
	raw, err := io.ReadAll(limited)
	if err != nil {
		h.log.Warn("request body unreadable", "path", r.URL.Path, "error", err)
		return "", len(raw)
	}
	size := len(raw)

	// count (and drain) whatever exceeds the cap so keep-alive still works
	rest, err := io.Copy(io.Discard, r.Body)
	if err == nil {
		size += int(rest)
	}

	return strings.ToValidUTF8(string(raw), "�"), size
}

func (h *Handler) ignored(path string) bool {
	for _, pattern := range h.ignore {
		ok, err := doublestar.Match(pattern, path)
		if err != nil {
			h.log.Warn("bad ignore pattern", "pattern", pattern, "error", err)
			continue
		}
		if ok {
			return true
		}
	}
	return false
}

// collapseValues flattens url.Values to single values, last one wins.
func collapseValues(values map[string][]string) map[string]string {
	if len(values) == 0 {
		return nil
	}
	out := make(map[string]string, len(values))
	for key, vals := range values {
		if len(vals) > 0 {
			out[key] = vals[len(vals)-1]
		}
	}
	return out
}

// collapseHeaders flattens an http.Header, joining multi-valued headers
// with ", " under their canonical names.
func collapseHeaders(header http.Header) map[string]string {
	if len(header) == 0 {
		return nil
	}
	out := make(map[string]string, len(header))
	for key, vals := range header {
		out[http.CanonicalHeaderKey(key)] = strings.Join(vals, ", ")
	}
	return out
}

// clientIP extracts the best-effort client address: first hop of
// X-Forwarded-For, then X-Real-IP, then the connection's remote host.
// Forwarding headers are client-controlled; trust them only behind a
// well-behaved proxy.
func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	if xri := strings.TrimSpace(r.Header.Get("X-Real-IP")); xri != "" {
		return xri
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
