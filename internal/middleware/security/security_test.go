package security

import (
	"crypto/tls"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractClientIP(t *testing.T) {
	tests := []struct {
		name       string
		remoteAddr string
		xff        string
		xri        string
		want       string
	}{
		{"direct public peer", "203.0.113.9:4000", "", "", "203.0.113.9"},
		{"public peer cannot spoof", "203.0.113.9:4000", "1.2.3.4", "", "203.0.113.9"},
		{"trusted proxy forwards", "10.0.0.5:4000", "198.51.100.7, 10.0.0.5", "", "198.51.100.7"},
		{"trusted proxy real ip", "127.0.0.1:4000", "", "198.51.100.8", "198.51.100.8"},
		{"invalid forwarded value", "192.168.1.2:80", "garbage", "", "192.168.1.2"},
		{"no port", "198.51.100.1", "", "", "198.51.100.1"},
	}
	c := NewClientIPResolver()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodPost, "/events", nil)
			r.RemoteAddr = tt.remoteAddr
			if tt.xff != "" {
				r.Header.Set("X-Forwarded-For", tt.xff)
			}
			if tt.xri != "" {
				r.Header.Set("X-Real-IP", tt.xri)
			}
			assert.Equal(t, tt.want, c.ExtractClientIP(r))
		})
	}
}

func TestAddTrustedProxy(t *testing.T) {
	c := NewClientIPResolver()
	require.Error(t, c.AddTrustedProxy("not-a-cidr"))
	require.NoError(t, c.AddTrustedProxy("203.0.113.0/24"))

	r := httptest.NewRequest(http.MethodPost, "/events", nil)
	r.RemoteAddr = "203.0.113.9:4000"
	r.Header.Set("X-Forwarded-For", "1.2.3.4")
	assert.Equal(t, "1.2.3.4", c.ExtractClientIP(r))
}

func TestHeadersMiddleware(t *testing.T) {
	h := NewHeadersMiddleware(DefaultHeadersConfig()).Middleware(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))
	assert.Empty(t, rec.Header().Get("Strict-Transport-Security"))

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.TLS = &tls.ConnectionState{}
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, "max-age=31536000; includeSubDomains", rec.Header().Get("Strict-Transport-Security"))
}
