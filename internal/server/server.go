package server

import (
	"context"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/yourusername/auth-starter/internal/auth"
	"github.com/yourusername/auth-starter/internal/config"
	"github.com/yourusername/auth-starter/internal/http/handlers"
	"github.com/yourusername/auth-starter/internal/http/respond"
	"github.com/yourusername/auth-starter/internal/middleware"
	"github.com/yourusername/auth-starter/internal/storage"
)

// Server wraps an http.Server with configured routes.
type Server struct {
	inner *http.Server
}

// New wires up middleware, routes, and returns a ready server.
func New(cfg config.Config, store storage.UserStore, logger zerolog.Logger) *Server {
	return &Server{inner: &http.Server{
		Addr:              cfg.HTTPAddress(),
		Handler:           Handler(cfg, store, logger),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}}
}

// Handler assembles the full middleware chain and route table. Split off from
// New so tests can exercise the real stack without binding a port.
func Handler(cfg config.Config, store storage.UserStore, logger zerolog.Logger) http.Handler {
	mux := http.NewServeMux()

	// Unknown routes fall through to the catch-all and get a JSON 404.
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		respond.Error(w, http.StatusNotFound, "route "+r.URL.Path+" not found")
	})

	handlers.NewHealthHandler(time.Now()).Register(mux)

	tokens := auth.NewTokenManager(cfg.JWTSecret, cfg.JWTIssuer, cfg.JWTTTL)
	sessions := auth.NewSessionTransport(cfg.IsProduction(), cfg.CookieSameSite, cfg.JWTTTL)
	handlers.NewAuthHandler(store, tokens, sessions, logger).Register(mux)

	chain := middleware.CORS(cfg.CORSOrigins, middleware.Logging(logger, mux))
	return middleware.Recover(logger, cfg.IsProduction(), chain)
}

// Start begins serving HTTP traffic.
func (s *Server) Start() error {
	return s.inner.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.inner.Shutdown(ctx)
}
