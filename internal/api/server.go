// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package api is the HTTP surface of the gateway: it accepts uploads,
// hands them to the media service and streams results back.
package api

import (
	"net/http"
	"sync"

	"github.com/ManuGH/ffgate/internal/api/middleware"
	"github.com/ManuGH/ffgate/internal/config"
	"github.com/ManuGH/ffgate/internal/health"
	"github.com/ManuGH/ffgate/internal/log"
	"github.com/ManuGH/ffgate/internal/media"
	"github.com/ManuGH/ffgate/internal/ratelimit"
	"github.com/ManuGH/ffgate/internal/workspace"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// Deps are the collaborators the server dispatches to.
type Deps struct {
	Media     *media.Service
	Workspace *workspace.Workspace
	Health    *health.Manager
	// JobLimiter throttles process-spawning routes; nil disables it.
	JobLimiter *ratelimit.Limiter
}

// Server owns the router and the reloadable part of the configuration.
type Server struct {
	mu  sync.RWMutex
	cfg config.AppConfig

	media  *media.Service
	ws     *workspace.Workspace
	health *health.Manager
	jobs   *ratelimit.Limiter

	router chi.Router
	logger zerolog.Logger
}

// New builds the server and its routes.
func New(cfg config.AppConfig, deps Deps) *Server {
	hm := deps.Health
	if hm == nil {
		hm = health.NewManager(cfg.Version)
	}
	s := &Server{
		cfg:    cfg,
		media:  deps.Media,
		ws:     deps.Workspace,
		health: hm,
		jobs:   deps.JobLimiter,
		logger: log.WithComponent("api"),
	}
	s.router = s.routes()
	return s
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// HealthManager exposes the health manager so the daemon can register checks.
func (s *Server) HealthManager() *health.Manager {
	return s.health
}

// ApplyConfig swaps in settings that can change at runtime (the API key).
// Everything else requires a restart.
func (s *Server) ApplyConfig(cfg config.AppConfig) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cfg.Auth = cfg.Auth
	s.cfg.Log = cfg.Log
}

func (s *Server) config() config.AppConfig {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg
}

func (s *Server) routes() chi.Router {
	cfg := s.cfg

	tracingService := ""
	if cfg.Tracing.Enabled {
		tracingService = cfg.Log.Service
		if tracingService == "" {
			tracingService = "ffgate"
		}
	}

	r := middleware.NewRouter(middleware.StackConfig{
		EnableSecurityHeaders: true,
		EnableMetrics:         true,
		TracingService:        tracingService,
		EnableLogging:         true,
	})
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, r, http.StatusNotFound, "not found", "")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, r, http.StatusMethodNotAllowed, "method not allowed", "")
	})

	// Probes: never authenticated, never rate limited.
	r.Get("/health", s.handleHealth)
	r.Get("/healthz", s.health.ServeHealth)
	r.Get("/readyz", s.health.ServeReady)

	r.Group(func(r chi.Router) {
		r.Use(s.authMiddleware)
		r.Use(middleware.APIRateLimit(cfg.RateLimit.Enabled, cfg.RateLimit.RequestsPerMinute))

		r.Group(func(r chi.Router) {
			r.Use(middleware.JobRateLimit(s.jobs, ratelimit.ClassTranscode))
			r.Post("/compress/custom", s.handleCompressCustom)
			r.Post("/compress/{format}", s.handleCompress)
			r.Post("/convert/{format}", s.handleConvert)
			r.Post("/extract-audio/{format}", s.handleExtractAudio)
			r.Post("/split", s.handleSplit)
			r.Post("/trim", s.handleTrim)
		})

		r.With(middleware.JobRateLimit(s.jobs, ratelimit.ClassProbe)).
			Post("/metadata", s.handleMetadata)
	})

	return r
}
