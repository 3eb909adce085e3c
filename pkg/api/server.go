package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/iamdhrv/bigbluebutton/internal/logger"
	"github.com/iamdhrv/bigbluebutton/pkg/config"
	"github.com/iamdhrv/bigbluebutton/pkg/mapping"
)

// Server provides the operational HTTP API.
//
// The server exposes a liveness probe and read-only visibility into the
// live user mapping index. It supports graceful shutdown with a
// configurable timeout.
type Server struct {
	server       *http.Server
	config       config.ServerConfig
	shutdownOnce sync.Once
}

// NewServer creates a new API HTTP server.
//
// The server is created in a stopped state. Call Start() to begin serving
// requests.
func NewServer(cfg config.ServerConfig, registry *mapping.Registry) *Server {
	router := NewRouter(registry)

	server := &http.Server{
		Addr:         cfg.ListenAddress,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  2 * time.Minute,
	}

	return &Server{
		server: server,
		config: cfg,
	}
}

// Start starts the API HTTP server and blocks until the context is
// cancelled or an error occurs.
//
// When the context is cancelled, Start initiates graceful shutdown with the
// configured shutdown timeout and returns.
func (s *Server) Start(ctx context.Context) error {
	errChan := make(chan error, 1)
	go func() {
		logger.Info("API server listening", "address", s.config.ListenAddress)

		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			select {
			case errChan <- err:
			default:
				// Context was cancelled, error is not needed
			}
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("API server shutdown signal received")
		// Don't reuse the cancelled ctx: it would abort shutdown immediately
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.config.ShutdownTimeout)
		defer cancel()
		return s.Stop(shutdownCtx)
	case err := <-errChan:
		return fmt.Errorf("API server failed: %w", err)
	}
}

// Stop initiates graceful shutdown of the API server.
//
// Stop is safe to call multiple times and safe to call concurrently with
// Start().
func (s *Server) Stop(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		logger.Debug("shutting down API server")
		err = s.server.Shutdown(ctx)
		if err != nil {
			err = fmt.Errorf("API server shutdown: %w", err)
			return
		}
		logger.Info("API server stopped")
	})
	return err
}
