// Package api provides the visual-bible REST API server.
package api

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/jnthodge/visual-bible/core/scripture"
	"github.com/jnthodge/visual-bible/internal/logging"
	"github.com/jnthodge/visual-bible/internal/metrics"
	"github.com/jnthodge/visual-bible/internal/project"
	"github.com/jnthodge/visual-bible/internal/server"
)

const (
	shutdownTimeout  = 10 * time.Second
	slowRequestAfter = 2 * time.Second
)

// Server serves the project, reference and book endpoints.
type Server struct {
	cfg       Config
	projects  *project.Service
	resolver  *scripture.Resolver
	metrics   *metrics.Collector
	hub       *Hub
	limiter   *RateLimiter
	wsLimiter *WebSocketRateLimiter
}

// Option configures a Server.
type Option func(*Server)

// WithMetrics exposes m at /metrics and records request outcomes in it.
func WithMetrics(m *metrics.Collector) Option {
	return func(s *Server) { s.metrics = m }
}

// WithHub serves progress events from h at /ws. The same hub is normally
// passed to project.WithNotifier.
func WithHub(h *Hub) Option {
	return func(s *Server) { s.hub = h }
}

// New creates a server. It does not listen until ListenAndServe.
func New(cfg Config, projects *project.Service, resolver *scripture.Resolver, opts ...Option) *Server {
	s := &Server{
		cfg:       cfg.withDefaults(),
		projects:  projects,
		resolver:  resolver,
		wsLimiter: NewWebSocketRateLimiter(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.hub == nil {
		s.hub = NewHub()
	}
	if s.cfg.RateLimitRequests > 0 {
		burst := s.cfg.RateLimitBurst
		if burst <= 0 {
			burst = 10
		}
		s.limiter = NewRateLimiter(RateLimiterConfig{
			RequestsPerMinute: s.cfg.RateLimitRequests,
			BurstSize:         burst,
		})
	}
	return s
}

// Hub returns the progress hub.
func (s *Server) Hub() *Hub {
	return s.hub
}

// Close releases background resources.
func (s *Server) Close() {
	if s.limiter != nil {
		s.limiter.Stop()
	}
}

func (s *Server) routes() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /{$}", s.handleRoot)
	mux.HandleFunc("GET /health", s.handleHealth)
	if s.metrics != nil {
		mux.Handle("GET /metrics", s.metrics.Handler())
	}

	ws := DefaultWebSocketSecurityConfig()
	ws.AllowedOrigins = s.cfg.AllowedOrigins
	ws.RequireAuth = s.cfg.Auth.Enabled
	ws.AuthConfig = s.cfg.Auth
	mux.Handle("GET /ws", SecureWebSocketHandler(s.hub, ws, s.wsLimiter))

	mux.HandleFunc("GET /api/books", s.handleBooks)
	mux.HandleFunc("POST /api/references/resolve", s.handleResolve)

	mux.HandleFunc("POST /api/projects", s.handleCreateProject)
	mux.HandleFunc("GET /api/projects", s.handleListProjects)
	mux.HandleFunc("POST /api/projects/import", s.handleImportProject)
	mux.HandleFunc("GET /api/projects/{id}", s.handleGetProject)
	mux.HandleFunc("DELETE /api/projects/{id}", s.handleDeleteProject)
	mux.HandleFunc("GET /api/projects/{id}/image", s.handleProjectImage)
	mux.HandleFunc("GET /api/projects/{id}/export", s.handleExportProject)

	return mux
}

// Handler returns the routed handler wrapped in the middleware chain:
// request ID and logging outermost, then CORS, rate limiting, auth and
// security headers.
func (s *Server) Handler() http.Handler {
	var handler http.Handler = server.SlowRequestMiddleware(slowRequestAfter, s.routes())
	handler = server.SecurityHeadersWithCSP(server.APICSPConfig(), handler)
	handler = AuthMiddleware(s.cfg.Auth, handler)
	if s.limiter != nil {
		handler = s.limiter.Middleware(handler)
	}
	handler = server.CORSMiddlewareWithConfig(server.CORSConfig{AllowedOrigins: s.cfg.AllowedOrigins}, handler)

	var observe logging.StatusObserver
	if s.metrics != nil {
		observe = s.metrics.ObserveRequest
	}
	handler = logging.ObservedLoggingMiddleware(observe)(handler)
	return logging.RequestIDMiddleware(handler)
}

// ListenAndServe runs the hub and the HTTP server until ctx is done, then
// shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	if err := s.cfg.Validate(); err != nil {
		return fmt.Errorf("invalid server config: %w", err)
	}
	if s.cfg.TLS.Enabled {
		for _, f := range []string{s.cfg.TLS.CertFile, s.cfg.TLS.KeyFile} {
			if _, err := os.Stat(f); err != nil {
				return fmt.Errorf("TLS file not found: %w", err)
			}
		}
	}
	defer s.Close()

	hubCtx, stopHub := context.WithCancel(ctx)
	defer stopHub()
	go s.hub.Run(hubCtx)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", s.cfg.Port),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	s.logStartup()

	errCh := make(chan error, 1)
	go func() {
		if s.cfg.TLS.Enabled {
			errCh <- srv.ListenAndServeTLS(s.cfg.TLS.CertFile, s.cfg.TLS.KeyFile)
		} else {
			errCh <- srv.ListenAndServe()
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logging.Info("shutting down", "timeout", shutdownTimeout.String())
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	if err := <-errCh; err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) logStartup() {
	protocol, wsProtocol := "http", "ws"
	if s.cfg.TLS.Enabled {
		protocol, wsProtocol = "https", "wss"
		logging.Info("TLS enabled", "cert_file", s.cfg.TLS.CertFile)
	} else {
		logging.Warn("TLS disabled - using plain HTTP",
			"recommendation", "consider using TLS or reverse proxy for production")
	}
	logging.ServerStartup("rest_api", protocol, s.cfg.Port,
		"websocket_protocol", wsProtocol,
		"version", s.cfg.Version)

	logging.SecurityEvent("authentication_configured", "api", "enabled", s.cfg.Auth.Enabled)
	if s.limiter != nil {
		logging.Info("rate limiting enabled",
			"requests_per_minute", s.cfg.RateLimitRequests,
			"burst_size", s.limiter.config.BurstSize)
	}
	mode := "permissive"
	if len(s.cfg.AllowedOrigins) > 0 {
		mode = "restricted"
	}
	logging.SecurityEvent("cors_configured", "api", "mode", mode,
		"allowed_origins_count", len(s.cfg.AllowedOrigins))
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	respond(w, http.StatusOK, map[string]interface{}{
		"name":    "visual-bible",
		"version": s.cfg.Version,
		"endpoints": []string{
			"GET /health",
			"GET /api/books",
			"POST /api/references/resolve",
			"POST /api/projects",
			"GET /api/projects",
			"GET /api/projects/{id}",
			"DELETE /api/projects/{id}",
			"GET /api/projects/{id}/image",
			"GET /api/projects/{id}/export",
			"POST /api/projects/import",
			"GET /ws",
		},
	})
}
