// Package server provides the HTTP API for Arka.
package server

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/hyperjump/arka/internal/config"
	"github.com/hyperjump/arka/internal/models"
	"go.uber.org/zap"
)

// ChatAnswerer answers a user question.
type ChatAnswerer interface {
	Answer(ctx context.Context, query string) (*models.ConversationTurn, error)
}

// StatusReporter reports collection and ingestion status.
type StatusReporter interface {
	Status(ctx context.Context) (*models.Status, error)
}

// Server is the HTTP server for the Arka API.
type Server struct {
	chat   ChatAnswerer   // nil until the service is initialized
	status StatusReporter // optional
	config *config.ServerConfig
	logger *zap.Logger
	server *http.Server
}

// NewServer creates a server. chat may be nil, in which case /chat answers 503.
func NewServer(chat ChatAnswerer, status StatusReporter, cfg *config.ServerConfig, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg == nil {
		cfg = &config.ServerConfig{}
	}
	return &Server{
		chat:   chat,
		status: status,
		config: cfg,
		logger: logger,
	}
}

// Handler returns the router with every route and middleware installed.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(middleware.Compress(5))
	r.Use(middleware.SetHeader("Access-Control-Allow-Origin", "*"))

	r.Post("/chat", s.handleChat)
	r.Options("/chat", s.handlePreflight)
	r.Get("/health", s.handleHealth)
	r.Get("/api/v1/status", s.handleStatus)

	if dir := s.config.StaticDir; dir != "" {
		if info, err := os.Stat(dir); err == nil && info.IsDir() {
			r.Handle("/*", http.FileServer(http.Dir(dir)))
		} else {
			s.logger.Warn("static directory not found, frontend disabled", zap.String("dir", dir))
		}
	}
	return r
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	s.server = &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.logger.Info("Starting server", zap.String("addr", addr))
	return s.server.ListenAndServe()
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}
