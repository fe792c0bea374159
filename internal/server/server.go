package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/hongminglow/recruit-portal/internal/account"
	"github.com/hongminglow/recruit-portal/internal/config"
	"github.com/hongminglow/recruit-portal/internal/http/handlers"
	"github.com/hongminglow/recruit-portal/internal/http/respond"
	"github.com/hongminglow/recruit-portal/internal/middleware"
	"github.com/hongminglow/recruit-portal/internal/requests"
)

// Deps are the services the HTTP layer exposes.
type Deps struct {
	Accounts *account.Service
	Requests *requests.Service
	Metrics  http.Handler
	Logger   *slog.Logger
}

// Server wraps an http.Server with configured routes.
type Server struct {
	inner   *http.Server
	limiter *middleware.RateLimiter
}

// New wires up middleware, routes, and returns a ready server.
func New(cfg config.Config, deps Deps) *Server {
	limiter := middleware.NewRateLimiter(cfg.LoginRatePerMinute, 5*time.Minute, deps.Logger)
	sessions := middleware.NewSessions(cfg.SessionSecret, cfg.JWTTTL, deps.Accounts, deps.Logger)

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.Recovery(deps.Logger))
	r.Use(sessions.Middleware)
	r.Use(middleware.Logging(deps.Logger))
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		respond.Error(w, http.StatusNotFound, "not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		respond.Error(w, http.StatusMethodNotAllowed, "method not allowed")
	})

	handlers.NewHealthHandler(time.Now(), cfg.StorageBackend).Routes(r)
	handlers.NewLookupHandler().Routes(r)
	handlers.NewAuthHandler(deps.Accounts, sessions, deps.Logger).Routes(r, limiter.Middleware)
	handlers.NewRequestHandler(deps.Requests, cfg.MaxUploadBytes, deps.Logger).Routes(r)
	if deps.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", deps.Metrics)
	}

	handler := middleware.CORS(cfg.CORSOrigins, r)

	httpServer := &http.Server{
		Addr:              cfg.HTTPAddress(),
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	return &Server{inner: httpServer, limiter: limiter}
}

// Handler exposes the fully wrapped router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.inner.Handler
}

// Start begins serving HTTP traffic.
func (s *Server) Start() error {
	return s.inner.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.limiter.Stop()
	return s.inner.Shutdown(ctx)
}
