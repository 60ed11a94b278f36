// Package web serves analysis sessions over a JSON API.
package web

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/buemura/contractlens/internal/rules"
	"github.com/buemura/contractlens/internal/web/sessions"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// Server is the HTTP server for the ContractLens API.
type Server struct {
	router   chi.Router
	addr     string
	registry *rules.Registry
	manager  *sessions.Manager
	logger   *zap.SugaredLogger
}

// NewServer builds a new Server with middleware and routes configured.
func NewServer(addr string, manager *sessions.Manager, reg *rules.Registry, logger *zap.SugaredLogger) *Server {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	s := &Server{
		router:   chi.NewRouter(),
		addr:     addr,
		registry: reg,
		manager:  manager,
		logger:   logger,
	}

	s.router.Use(middleware.Logger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.Timeout(60 * time.Second))

	s.registerRoutes()

	return s
}

// Start listens on the configured address until ctx is cancelled, then
// shuts down and disposes every session.
func (s *Server) Start(ctx context.Context) error {
	srv := &http.Server{Addr: s.addr, Handler: s.router}
	errCh := make(chan error, 1)
	go func() {
		s.logger.Infow("listening", "addr", s.addr)
		errCh <- srv.ListenAndServe()
	}()

	defer s.manager.Close()
	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}

// Router exposes the chi.Router for testing.
func (s *Server) Router() chi.Router {
	return s.router
}
