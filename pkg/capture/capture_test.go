package capture

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/peekd/peekd/pkg/requestlog"
)

func doCapture(t *testing.T, h *Handler, req *http.Request) Ack {
	t.Helper()
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	var ack Ack
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &ack))
	return ack
}

func TestHandler_CapturesRequest(t *testing.T) {
	store := requestlog.NewMemoryStore(10)
	h := NewHandler(store)

	req := httptest.NewRequest(http.MethodPost, "/hooks/github?ref=main", strings.NewReader(`{"ok":true}`))
	req.Header.Set("Content-Type", "application/json")
	req.RemoteAddr = "192.0.2.7:54321"

	ack := doCapture(t, h, req)
	assert.Equal(t, "logged", ack.Status)
	assert.NotEmpty(t, ack.ID)
	assert.False(t, ack.Timestamp.IsZero())

	rec := store.Get(ack.ID)
	require.NotNil(t, rec)
	assert.Equal(t, "POST", rec.Method)
	assert.Equal(t, "/hooks/github", rec.Path)
	assert.Equal(t, "main", rec.Query["ref"])
	assert.Equal(t, "application/json", rec.Headers["Content-Type"])
	assert.Equal(t, `{"ok":true}`, rec.Body)
	assert.Equal(t, 11, rec.BodySize)
	assert.Equal(t, "192.0.2.7", rec.ClientIP)
}

func TestHandler_QueryLastValueWins(t *testing.T) {
	store := requestlog.NewMemoryStore(10)
	h := NewHandler(store)

	ack := doCapture(t, h, httptest.NewRequest(http.MethodGet, "/p?k=a&k=b", nil))

	rec := store.Get(ack.ID)
	require.NotNil(t, rec)
	assert.Equal(t, "b", rec.Query["k"])
}

func TestHandler_MultiValueHeadersJoined(t *testing.T) {
	store := requestlog.NewMemoryStore(10)
	h := NewHandler(store)

	req := httptest.NewRequest(http.MethodGet, "/p", nil)
	req.Header.Add("accept", "text/html")
	req.Header.Add("Accept", "application/json")

	ack := doCapture(t, h, req)
	rec := store.Get(ack.ID)
	require.NotNil(t, rec)
	assert.Equal(t, "text/html, application/json", rec.Headers["Accept"])
}

func TestHandler_BinaryBodyReplaced(t *testing.T) {
	store := requestlog.NewMemoryStore(10)
	h := NewHandler(store)

	req := httptest.NewRequest(http.MethodPost, "/blob", strings.NewReader("ok\xff\xfe"))
	ack := doCapture(t, h, req)
	assert.Equal(t, "logged", ack.Status, "binary bodies must not fail the capture")

	rec := store.Get(ack.ID)
	require.NotNil(t, rec)
	assert.Equal(t, "ok��", rec.Body)
	assert.Equal(t, 4, rec.BodySize)
}

func TestHandler_BodyTruncatedAtCap(t *testing.T) {
	store := requestlog.NewMemoryStore(10)
	h := NewHandler(store, WithMaxBodyBytes(8))

	req := httptest.NewRequest(http.MethodPost, "/big", strings.NewReader("0123456789abcdef"))
	ack := doCapture(t, h, req)

	rec := store.Get(ack.ID)
	require.NotNil(t, rec)
	assert.Equal(t, "01234567", rec.Body)
	assert.Equal(t, 16, rec.BodySize, "original size is retained")
}

func TestHandler_ZeroBodyCapStoresNoBody(t *testing.T) {
	store := requestlog.NewMemoryStore(10)
	h := NewHandler(store, WithMaxBodyBytes(0))

	req := httptest.NewRequest(http.MethodPost, "/meta-only", strings.NewReader("0123456789"))
	ack := doCapture(t, h, req)

	rec := store.Get(ack.ID)
	require.NotNil(t, rec)
	assert.Empty(t, rec.Body)
	assert.Equal(t, 10, rec.BodySize, "original size is still counted")
}

func TestHandler_NegativeBodyCapKeepsDefault(t *testing.T) {
	store := requestlog.NewMemoryStore(10)
	h := NewHandler(store, WithMaxBodyBytes(-1))

	req := httptest.NewRequest(http.MethodPost, "/neg", strings.NewReader("hello"))
	ack := doCapture(t, h, req)

	rec := store.Get(ack.ID)
	require.NotNil(t, rec)
	assert.Equal(t, "hello", rec.Body)
}

func TestHandler_EmptyBody(t *testing.T) {
	store := requestlog.NewMemoryStore(10)
	h := NewHandler(store)

	ack := doCapture(t, h, httptest.NewRequest(http.MethodGet, "/empty", nil))
	rec := store.Get(ack.ID)
	require.NotNil(t, rec)
	assert.Empty(t, rec.Body)
	assert.Zero(t, rec.BodySize)
}

func TestHandler_ClientIPForwardedFor(t *testing.T) {
	store := requestlog.NewMemoryStore(10)
	h := NewHandler(store)

	req := httptest.NewRequest(http.MethodGet, "/p", nil)
	req.RemoteAddr = "10.0.0.1:1234"
	req.Header.Set("X-Forwarded-For", "203.0.113.5, 10.0.0.1")

	ack := doCapture(t, h, req)
	rec := store.Get(ack.ID)
	require.NotNil(t, rec)
	assert.Equal(t, "203.0.113.5", rec.ClientIP)
}

func TestHandler_ClientIPRealIP(t *testing.T) {
	store := requestlog.NewMemoryStore(10)
	h := NewHandler(store)

	req := httptest.NewRequest(http.MethodGet, "/p", nil)
	req.RemoteAddr = "10.0.0.1:1234"
	req.Header.Set("X-Real-IP", "198.51.100.2")

	ack := doCapture(t, h, req)
	rec := store.Get(ack.ID)
	require.NotNil(t, rec)
	assert.Equal(t, "198.51.100.2", rec.ClientIP)
}

func TestHandler_IgnoreGlobs(t *testing.T) {
	store := requestlog.NewMemoryStore(10)
	h := NewHandler(store, WithIgnoreGlobs([]string{"/favicon.ico", "/probes/**"}))

	ack := doCapture(t, h, httptest.NewRequest(http.MethodGet, "/favicon.ico", nil))
	assert.Equal(t, "ignored", ack.Status)
	assert.Empty(t, ack.ID)

	ack = doCapture(t, h, httptest.NewRequest(http.MethodGet, "/probes/live/deep", nil))
	assert.Equal(t, "ignored", ack.Status)

	ack = doCapture(t, h, httptest.NewRequest(http.MethodGet, "/captured", nil))
	assert.Equal(t, "logged", ack.Status)

	assert.Equal(t, 1, store.Count())
}

func TestHandler_MethodUppercased(t *testing.T) {
	store := requestlog.NewMemoryStore(10)
	h := NewHandler(store)

	req := httptest.NewRequest("get", "/p", nil)
	ack := doCapture(t, h, req)

	rec := store.Get(ack.ID)
	require.NotNil(t, rec)
	assert.Equal(t, "GET", rec.Method)
}
