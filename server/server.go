// Package server exposes the assistant over HTTP: a single chat endpoint
// plus a health probe.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	assistantx "github.com/thanarat/shopagent/agent/assistant"
)

// Answerer is what the chat handler needs from the agent loop.
type Answerer interface {
	Answer(ctx context.Context, threadID, text string) (assistantx.Result, error)
}

type Server struct {
	router   *mux.Router
	answerer Answerer
	logger   zerolog.Logger
	server   *http.Server
}

// New creates a fully-wired Server ready to Start().
func New(addr string, answerer Answerer, logger zerolog.Logger) *Server {
	srv := &Server{
		router:   mux.NewRouter(),
		answerer: answerer,
		logger:   logger,
	}
	srv.server = &http.Server{
		Addr:         addr,
		Handler:      srv.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 120 * time.Second,
	}
	srv.registerRoutes()
	return srv
}

// Start blocks serving HTTP until shutdown or a fatal error.
func (s *Server) Start() error {
	s.logger.Info().Str("addr", s.server.Addr).Msg("http server starting")
	return s.server.ListenAndServe()
}

// Shutdown drains in-flight requests and stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}
