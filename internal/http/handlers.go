package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"economoney/internal/chat"
	"economoney/internal/log"
	"economoney/internal/middleware/trace"
)

type errorResponse struct {
	Error     string `json:"error"`
	RequestID string `json:"request_id,omitempty"`
}

// handleEvents answers POST /events with the bot reply.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		s.writeError(w, r, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var ev chat.Event
	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(body).Decode(&ev); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.writeError(w, r, http.StatusRequestEntityTooLarge, "request body too large")
			return
		}
		log.FromContext(r.Context()).WarnContext(r.Context(), "Malformed event",
			log.FieldError, err,
			log.FieldErrorType, log.ErrorTypeValidation)
		s.writeError(w, r, http.StatusBadRequest, "malformed JSON")
		return
	}
	if ev.UserID == 0 {
		s.writeError(w, r, http.StatusBadRequest, "missing user_id")
		return
	}

	if !s.limiter.Allow(strconv.FormatInt(ev.UserID, 10)) {
		log.FromContext(r.Context()).WarnContext(r.Context(), "Rate limit exceeded",
			log.FieldUserID, ev.UserID,
			log.FieldErrorType, log.ErrorTypeRateLimit)
		w.Header().Set("Retry-After", "60")
		s.writeError(w, r, http.StatusTooManyRequests, "rate limit exceeded")
		return
	}

	reply := s.bot.Handle(r.Context(), ev)
	writeJSON(w, http.StatusOK, reply)
}

// handleHealth performs basic liveness check
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"uptime":    time.Since(s.started).Round(time.Second).String(),
	})
}

// handleReady pings the ledger store.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	status, code := "ready", http.StatusOK
	checks := map[string]any{}

	if s.store == nil {
		checks["store"] = "not_configured"
		status, code = "not_ready", http.StatusServiceUnavailable
	} else if err := s.store.Ping(ctx); err != nil {
		log.FromContext(ctx).ErrorContext(ctx, "Readiness check failed",
			log.FieldError, err,
			log.FieldErrorType, log.ErrorTypeDatabase)
		checks["store"] = "unavailable"
		status, code = "not_ready", http.StatusServiceUnavailable
	} else {
		checks["store"] = "ok"
	}

	rl := s.limiter.GetMetrics()
	checks["rate_limiter"] = map[string]any{
		"active_clients": rl.ClientCount,
		"rejected":       rl.TotalHits,
	}
	tm := s.trace.GetMetrics()
	checks["requests"] = map[string]any{
		"total":  tm.TotalRequests,
		"failed": tm.FailedRequests,
	}

	writeJSON(w, code, map[string]any{
		"status":    status,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"checks":    checks,
	})
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, code int, msg string) {
	writeJSON(w, code, errorResponse{Error: msg, RequestID: trace.GetRequestID(r.Context())})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
