// Package http exposes the chat dialog as a JSON webhook.
package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"economoney/internal/chat"
	"economoney/internal/log"
	"economoney/internal/middleware/ratelimit"
	"economoney/internal/middleware/security"
	"economoney/internal/middleware/trace"
)

const maxBodyBytes = 64 << 10

// EventHandler answers one chat event.
type EventHandler interface {
	Handle(ctx context.Context, ev chat.Event) chat.Reply
}

// Pinger reports whether the ledger store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Options struct {
	RateLimitPerMinute int
	Logger             *log.Logger
}

type Server struct {
	http.Server
	bot          EventHandler
	store        Pinger
	limiter      *ratelimit.Limiter
	trace        *trace.Middleware
	started      time.Time
	shutdownOnce sync.Once
}

func NewServer(addr string, bot EventHandler, store Pinger, opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}

	mux := http.NewServeMux()
	resolver := security.NewClientIPResolver()
	s := &Server{
		bot:     bot,
		store:   store,
		limiter: ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: opts.RateLimitPerMinute}),
		trace:   trace.NewMiddleware(resolver.ExtractClientIP, logger),
		started: time.Now(),
	}

	mux.HandleFunc("/events", s.handleEvents)
	mux.HandleFunc("/healthz", s.handleHealth)
	mux.HandleFunc("/readyz", s.handleReady)

	headers := security.NewHeadersMiddleware(security.DefaultHeadersConfig())
	s.Server = http.Server{
		Addr:              addr,
		Handler:           s.trace.Middleware(headers.Middleware(mux)),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s
}

// Shutdown stops the listener and the rate limiter cleanup.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.limiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}
