package httpserver

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/Checkmk/checkmk-sub072/internal/config"
	"github.com/Checkmk/checkmk-sub072/internal/httpserver/deps"
	"github.com/Checkmk/checkmk-sub072/internal/httpserver/mw"
	"github.com/Checkmk/checkmk-sub072/internal/httpserver/routes"
	"github.com/Checkmk/checkmk-sub072/internal/logger"
)

// Server wraps the HTTP server and its dependencies.
type Server struct {
	http   *http.Server
	logger logger.Logger
}

// NewRouter builds the router with global middlewares and all registered
// routes.
func NewRouter(requestTimeout time.Duration, d deps.Deps) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(requestTimeout))
	r.Use(mw.Log(d.Logger))

	routes.RegisterAll(r, d)
	return r
}

// New builds the HTTP server (router, middlewares, route registration).
func New(cfg *config.Config, loggerClient logger.Logger, d deps.Deps) *Server {
	s := &http.Server{
		Addr:              cfg.ListenPort,
		Handler:           NewRouter(cfg.RequestTimeout, d),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		// a single-host discovery may run up to the request timeout
		WriteTimeout:   cfg.RequestTimeout + 5*time.Second,
		IdleTimeout:    60 * time.Second,
		MaxHeaderBytes: 1 << 20,
	}

	return &Server{
		http:   s,
		logger: loggerClient,
	}
}

// Start runs the HTTP server (blocks until error or shutdown).
func (s *Server) Start() error {
	s.logger.Info("HTTP server listening", logger.String("addr", s.http.Addr))
	err := s.http.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Stop gracefully shuts down the server with the provided context deadline.
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("HTTP server shutting down")
	return s.http.Shutdown(ctx)
}
