// Package web provides the JSON HTTP API of the screening workbench.
package web

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/JonMunkholm/checkbench/internal/approval"
	"github.com/JonMunkholm/checkbench/internal/config"
	"github.com/JonMunkholm/checkbench/internal/core"
	mw "github.com/JonMunkholm/checkbench/internal/web/middleware"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Server is the HTTP server for the workbench.
type Server struct {
	wb      *core.Workbench
	queue   *approval.Queue
	metrics http.Handler
	cfg     *config.Config
	router  *chi.Mux
	server  *http.Server
}

// NewServer wires routes and middleware. metrics may be nil, in which case
// /metrics is not mounted. ctx bounds background work such as rate limiter
// cleanup.
func NewServer(ctx context.Context, cfg *config.Config, wb *core.Workbench, queue *approval.Queue, metrics http.Handler) *Server {
	s := &Server{
		wb:      wb,
		queue:   queue,
		metrics: metrics,
		cfg:     cfg,
		router:  chi.NewRouter(),
	}
	s.setupMiddleware()
	s.setupRoutes(ctx)
	return s
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(mw.TrustedRealIP(s.cfg.Security.TrustedProxies))
	s.router.Use(mw.Operator)
	s.router.Use(mw.Logger)
	s.router.Use(middleware.Recoverer)
	if s.cfg.Server.RequestTimeout > 0 {
		s.router.Use(middleware.Timeout(s.cfg.Server.RequestTimeout))
	}
	s.router.Use(securityHeaders)
}

func (s *Server) setupRoutes(ctx context.Context) {
	s.router.Get("/healthz", s.handleHealth)
	if s.metrics != nil {
		s.router.Method(http.MethodGet, "/metrics", s.metrics)
	}

	limit := func(r chi.Router, perMinute int) {
		if s.cfg.Rate.Enabled {
			r.Use(mw.NewRateLimiter(ctx, perMinute, time.Minute).Middleware)
		}
	}

	s.router.Route("/api", func(r chi.Router) {
		r.Use(mw.APIKeyAuth(&s.cfg.Security))
		limit(r, s.cfg.Rate.RequestsPerMinute)

		r.Post("/sessions", s.handleOpenSession)
		r.Route("/sessions/{sessionID}", func(r chi.Router) {
			r.Get("/", s.handleGetSession)
			r.Delete("/", s.handleCloseSession)
			r.Get("/audit", s.handleAuditLog)

			r.Group(func(r chi.Router) {
				limit(r, s.cfg.Rate.ImportLimit)
				r.Post("/imports", s.handleImport)
			})
			r.Get("/imports/{importID}", s.handleGetImport)
			r.Delete("/imports/{importID}", s.handleDiscardImport)
			r.Post("/imports/{importID}/accept", s.handleAcceptImport)

			r.Get("/entries", s.handleView)
			r.Post("/entries", s.handleAddManual)
			r.Delete("/entries", s.handleRemoveEntries)

			r.Post("/selection/toggle", s.handleToggleSelect)
			r.Post("/selection/all", s.handleSelectAll)
			r.Delete("/selection", s.handleClearSelection)

			r.Get("/export", s.handleExport)
			r.Post("/submit", s.handleSubmit)
		})

		r.Get("/applications", s.handleListApplications)
		r.Get("/applications/{appID}", s.handleGetApplication)
		r.Group(func(r chi.Router) {
			r.Use(mw.RequireRole(mw.RoleApproval))
			r.Post("/applications/{appID}/approve", s.handleApprove)
			r.Post("/applications/{appID}/reject", s.handleReject)
		})
	})
}

// Start begins listening for HTTP requests.
func (s *Server) Start(addr string) error {
	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  s.cfg.Server.ReadTimeout,
		WriteTimeout: s.cfg.Server.WriteTimeout,
		IdleTimeout:  s.cfg.Server.IdleTimeout,
	}

	slog.Info("starting server", "addr", addr)
	return s.server.ListenAndServe()
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// Router returns the underlying chi router for testing.
func (s *Server) Router() *chi.Mux {
	return s.router
}

type healthResponse struct {
	Status   string                   `json:"status"`
	Sessions int                      `json:"sessions"`
	Imports  core.ImportLimiterStatus `json:"imports"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{
		Status:   "ok",
		Sessions: s.wb.SessionCount(),
		Imports:  s.wb.Limiter().Status(),
	})
}

// securityHeaders adds hardening headers to all responses.
func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		w.Header().Set("Cache-Control", "no-store")
		next.ServeHTTP(w, r)
	})
}

// writeJSON encodes v with the given status. Encoding errors are only
// logged since the header is already sent.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("json encode error", "error", err)
	}
}
