package trace

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"economoney/internal/log"
)

func newTestMiddleware(buf *bytes.Buffer) *Middleware {
	logger := log.New(log.Config{Handler: slog.NewTextHandler(buf, nil), Component: log.ComponentApp})
	return NewMiddleware(func(*http.Request) string { return "10.0.0.1" }, logger)
}

func TestMiddleware_AssignsRequestID(t *testing.T) {
	var buf bytes.Buffer
	m := newTestMiddleware(&buf)

	var seen string
	h := m.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetRequestID(r.Context())
		assert.Equal(t, log.ComponentHTTP, log.FromContext(r.Context()).Component())
		w.WriteHeader(http.StatusTeapot)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/events", nil))

	assert.True(t, strings.HasPrefix(seen, "req_"))
	assert.Equal(t, seen, rec.Header().Get(HeaderRequestID))
	assert.Contains(t, buf.String(), "status_code=418")
	assert.Contains(t, buf.String(), "client_ip=10.0.0.1")
	assert.Contains(t, buf.String(), "level=WARN")
	assert.Equal(t, int64(1), m.GetMetrics().TotalRequests)
}

func TestMiddleware_KeepsIncomingRequestID(t *testing.T) {
	m := newTestMiddleware(&bytes.Buffer{})
	h := m.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set(HeaderRequestID, "upstream-123")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, "upstream-123", rec.Header().Get(HeaderRequestID))

	req = httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set(HeaderRequestID, strings.Repeat("x", 100))
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.True(t, strings.HasPrefix(rec.Header().Get(HeaderRequestID), "req_"))
}

func TestMiddleware_CountsFailures(t *testing.T) {
	m := newTestMiddleware(&bytes.Buffer{})
	h := m.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, int64(1), m.GetMetrics().FailedRequests)
}

func TestGetRequestID_Missing(t *testing.T) {
	assert.Empty(t, GetRequestID(httptest.NewRequest(http.MethodGet, "/", nil).Context()))
}
