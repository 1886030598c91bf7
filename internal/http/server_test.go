package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"economoney/internal/chat"
	"economoney/internal/core"
	"economoney/internal/services"
	"economoney/internal/storage/memory"
)

type fakePinger struct{ err error }

func (f fakePinger) Ping(context.Context) error { return f.err }

func newTestServer(t *testing.T, perMinute int, store Pinger) *Server {
	t.Helper()
	mem := memory.New()
	balances := services.NewBalanceService(mem, core.MustMoney("2000"))
	reports := services.NewReportService(balances, 0)
	ledger := services.NewLedgerService(balances, nil, reports)
	bot := chat.NewBot(ledger, reports, services.NewSessionStore(), core.FixedClock(core.NewDay(2025, 3, 1)), "₽")
	if store == nil {
		store = mem
	}
	srv := NewServer(":0", bot, store, Options{RateLimitPerMinute: perMinute})
	t.Cleanup(func() { _ = srv.Shutdown(context.Background()) })
	return srv
}

func postEvent(srv *Server, body string) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/events", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	srv.Handler.ServeHTTP(rr, req)
	return rr
}

func decodeReply(t *testing.T, rr *httptest.ResponseRecorder) chat.Reply {
	t.Helper()
	var reply chat.Reply
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &reply))
	return reply
}

func TestEvents_ExpenseDialog(t *testing.T) {
	srv := newTestServer(t, 60, nil)

	rr := postEvent(srv, `{"user_id":123,"text":"500"}`)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "application/json; charset=utf-8", rr.Header().Get("Content-Type"))
	reply := decodeReply(t, rr)
	require.NotNil(t, reply.Menu)
	assert.Equal(t, "cat_Groceries", reply.Menu.Rows[0][0].Data)

	rr = postEvent(srv, `{"user_id":123,"callback":"cat_Groceries"}`)
	require.Equal(t, http.StatusOK, rr.Code)
	reply = decodeReply(t, rr)
	assert.Contains(t, reply.Text, "Left for today: 1500.00 ₽")
	assert.Equal(t, chat.CallbackStatsDay, reply.Menu.Rows[0][0].Data)

	rr = postEvent(srv, `{"user_id":123,"callback":"cat_Groceries"}`)
	reply = decodeReply(t, rr)
	assert.True(t, reply.Alert)
	assert.Nil(t, reply.Menu)
	assert.Contains(t, rr.Body.String(), `"alert":true`)
}

func TestEvents_BadRequests(t *testing.T) {
	srv := newTestServer(t, 60, nil)

	tests := []struct {
		name string
		body string
		want string
	}{
		{"malformed json", `{"user_id":`, "malformed JSON"},
		{"wrong type", `{"user_id":"abc"}`, "malformed JSON"},
		{"missing user", `{"text":"500"}`, "missing user_id"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := postEvent(srv, tt.body)
			assert.Equal(t, http.StatusBadRequest, rr.Code)
			var er errorResponse
			require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &er))
			assert.Equal(t, tt.want, er.Error)
			assert.NotEmpty(t, er.RequestID)
		})
	}

	t.Run("too large", func(t *testing.T) {
		body := `{"user_id":1,"text":"` + strings.Repeat("a", maxBodyBytes) + `"}`
		assert.Equal(t, http.StatusRequestEntityTooLarge, postEvent(srv, body).Code)
	})

	t.Run("wrong method", func(t *testing.T) {
		rr := httptest.NewRecorder()
		srv.Handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/events", nil))
		assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)
		assert.Equal(t, http.MethodPost, rr.Header().Get("Allow"))
	})
}

func TestEvents_RateLimitPerUser(t *testing.T) {
	srv := newTestServer(t, 2, nil)

	for i := 0; i < 2; i++ {
		assert.Equal(t, http.StatusOK, postEvent(srv, `{"user_id":1,"text":"hi"}`).Code)
	}
	rr := postEvent(srv, `{"user_id":1,"text":"hi"}`)
	assert.Equal(t, http.StatusTooManyRequests, rr.Code)
	assert.Equal(t, "60", rr.Header().Get("Retry-After"))

	assert.Equal(t, http.StatusOK, postEvent(srv, `{"user_id":2,"text":"hi"}`).Code)
}

func TestHealthAndReady(t *testing.T) {
	srv := newTestServer(t, 60, nil)
	for _, path := range []string{"/healthz", "/readyz"} {
		rr := httptest.NewRecorder()
		srv.Handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusOK, rr.Code, path)
		assert.Equal(t, "nosniff", rr.Header().Get("X-Content-Type-Options"))
		assert.NotEmpty(t, rr.Header().Get("X-Request-ID"))
	}
}

func TestReady_StoreDown(t *testing.T) {
	srv := newTestServer(t, 60, fakePinger{err: errors.New("connection refused")})

	rr := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
	assert.Contains(t, rr.Body.String(), `"store":"unavailable"`)
	assert.NotContains(t, rr.Body.String(), "connection refused")

	rr = httptest.NewRecorder()
	srv.Handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
}
