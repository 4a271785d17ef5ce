package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	assistantx "github.com/thanarat/shopagent/agent/assistant"
	contractx "github.com/thanarat/shopagent/agent/contract"
	threadx "github.com/thanarat/shopagent/agent/thread"
)

type chatRequest struct {
	ThreadID  string `json:"thread_id"`
	UserInput string `json:"user_input"`
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Error().Err(err).Msg("encode json response")
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, map[string]string{"error": msg})
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if strings.TrimSpace(req.ThreadID) == "" {
		s.writeError(w, http.StatusBadRequest, "thread_id is required")
		return
	}
	if strings.TrimSpace(req.UserInput) == "" {
		s.writeError(w, http.StatusBadRequest, "user_input is required")
		return
	}

	result, err := s.answerer.Answer(r.Context(), req.ThreadID, req.UserInput)
	if err != nil {
		switch {
		case errors.Is(err, assistantx.ErrInvalidMessage), errors.Is(err, threadx.ErrInvalidThreadID):
			s.writeError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, contractx.ErrLoopLimitExceeded),
			errors.Is(err, contractx.ErrUnknownTool),
			errors.Is(err, contractx.ErrInvalidCriteria),
			errors.Is(err, contractx.ErrValidation):
			// The loop produced a defined fallback answer; report it as a
			// failure outcome, not a transport error.
			s.writeJSON(w, http.StatusOK, result)
		case errors.Is(err, contractx.ErrUpstreamTimeout):
			s.writeError(w, http.StatusGatewayTimeout, "reasoning engine timed out, retry the request")
		case errors.Is(err, contractx.ErrUpstreamError):
			s.writeError(w, http.StatusBadGateway, "reasoning engine unavailable, retry the request")
		default:
			s.logger.Error().Err(err).Str("thread_id", req.ThreadID).Msg("chat query failed")
			s.writeError(w, http.StatusInternalServerError, "internal error")
		}
		return
	}

	s.writeJSON(w, http.StatusOK, result)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (s *Server) requestLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", requestID)

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()
		next.ServeHTTP(rec, r)

		s.logger.Info().
			Str("request_id", requestID).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", rec.status).
			Dur("duration", time.Since(start)).
			Msg("request handled")
	})
}
