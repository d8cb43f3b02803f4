// Package api assembles the HTTP surface: the public API server with its
// middleware chain, and the separate operational server for health probes
// and metrics.
package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/Robertorri/HopVerk1/pkg/auth"
	"github.com/Robertorri/HopVerk1/pkg/config"
	"github.com/Robertorri/HopVerk1/pkg/gallery"
	"github.com/Robertorri/HopVerk1/pkg/httputil"
	"github.com/Robertorri/HopVerk1/pkg/middleware"
	"github.com/Robertorri/HopVerk1/pkg/observability"
)

// Deps carries everything the server needs to route requests
type Deps struct {
	Auth          *auth.Handlers
	Gallery       *gallery.Handlers
	Authenticator *middleware.Authenticator
	RateLimiter   *middleware.RateLimiter
	Metrics       *observability.Metrics
	Health        *observability.HealthChecker
	Logger        *observability.Logger
}

// Server hosts the public API and the operational endpoints
type Server struct {
	api  *http.Server
	ops  *http.Server
	log  *observability.Logger
	conf config.ServerConfig
}

// NewServer wires the middleware chain and routes.
// Request flow: recovery, request ID, logging, rate limit, then routing.
// The rate limiter runs after logging so rejected requests still appear in
// the request log and metrics.
func NewServer(conf config.ServerConfig, deps Deps) (*Server, error) {
	if deps.Auth == nil || deps.Gallery == nil {
		return nil, fmt.Errorf("auth and gallery handlers are required")
	}
	if deps.Authenticator == nil {
		return nil, fmt.Errorf("authenticator is required")
	}

	router := mux.NewRouter()
	router.Use(
		middleware.Recovery(deps.Logger),
		middleware.RequestID(deps.Logger),
		middleware.Logging(deps.Metrics),
	)
	if deps.RateLimiter != nil {
		router.Use(deps.RateLimiter.Middleware)
	}

	router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		httputil.WriteNotFound(w, "Not found")
	})

	deps.Auth.RegisterRoutes(router)

	authed := router.NewRoute().Subrouter()
	authed.Use(deps.Authenticator.Require)

	admin := router.NewRoute().Subrouter()
	admin.Use(deps.Authenticator.Require, middleware.RequireRole(auth.RoleAdmin))

	deps.Gallery.RegisterRoutes(authed, admin)

	opsRouter := mux.NewRouter()
	if deps.Health != nil {
		opsRouter.HandleFunc("/healthz", deps.Health.Liveness).Methods(http.MethodGet)
		opsRouter.HandleFunc("/readyz", deps.Health.Readiness).Methods(http.MethodGet)
	}
	if deps.Metrics != nil {
		opsRouter.Handle("/metrics", deps.Metrics.Handler()).Methods(http.MethodGet)
	}

	return &Server{
		api: &http.Server{
			Addr:         conf.Host + ":" + conf.Port,
			Handler:      router,
			ReadTimeout:  conf.ReadTimeout,
			WriteTimeout: conf.WriteTimeout,
			IdleTimeout:  conf.IdleTimeout,
		},
		ops: &http.Server{
			Addr:         conf.Host + ":" + conf.HealthPort,
			Handler:      opsRouter,
			ReadTimeout:  conf.ReadTimeout,
			WriteTimeout: conf.WriteTimeout,
			IdleTimeout:  conf.IdleTimeout,
		},
		log:  deps.Logger,
		conf: conf,
	}, nil
}

// Handler returns the public API handler, for tests
func (s *Server) Handler() http.Handler {
	return s.api.Handler
}

// ListenAPI serves the public API until the server is shut down
func (s *Server) ListenAPI() error {
	s.log.WithField("addr", s.api.Addr).Info("API server listening")
	if err := s.api.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("api server failed: %w", err)
	}
	return nil
}

// ListenOps serves health probes and metrics until the server is shut down
func (s *Server) ListenOps() error {
	s.log.WithField("addr", s.ops.Addr).Info("ops server listening")
	if err := s.ops.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("ops server failed: %w", err)
	}
	return nil
}

// Shutdown drains both listeners within the configured timeout
func (s *Server) Shutdown(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.conf.ShutdownTimeout)
	defer cancel()

	var firstErr error
	if err := s.api.Shutdown(ctx); err != nil {
		firstErr = fmt.Errorf("api server shutdown: %w", err)
	}
	if err := s.ops.Shutdown(ctx); err != nil && firstErr == nil {
		firstErr = fmt.Errorf("ops server shutdown: %w", err)
	}
	return firstErr
}
