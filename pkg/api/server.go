// Package api serves the string table codec and backup store over HTTP.
//
// Every route under /api/v1 requires the X-API-Key header. /metrics is open
// for scraping.
package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/ssargent/stfkit/pkg/logging"
	"github.com/ssargent/stfkit/pkg/storage"
	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

// Router builds the HTTP handler with all routes configured
func (s *Server) Router() http.Handler {
	metrics := s.metrics

	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestSize(s.config.maxBody()))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		ExposedHeaders:   []string{"Content-Disposition"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	// Prometheus metrics endpoint (unprotected for scraping)
	r.Handle("/metrics", metrics.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(metrics.InstrumentAuthMiddleware(apiKeyMiddleware(s.config.APIKey)))

		r.Get("/health", metrics.InstrumentHandler("GET", "/api/v1/health", s.handleHealth))

		// Codec
		r.Post("/decode", metrics.InstrumentHandler("POST", "/api/v1/decode", s.handleDecode))
		r.Post("/encode", metrics.InstrumentHandler("POST", "/api/v1/encode", s.handleEncode))
		r.Post("/inspect", metrics.InstrumentHandler("POST", "/api/v1/inspect", s.handleInspect))

		// Backups
		r.Post("/backups", metrics.InstrumentHandler("POST", "/api/v1/backups", s.handleCreateBackup))
		r.Get("/backups", metrics.InstrumentHandler("GET", "/api/v1/backups", s.handleListBackups))
		r.Get("/backups/{id}", metrics.InstrumentHandler("GET", "/api/v1/backups/{id}", s.handleGetBackup))
		r.Delete("/backups/{id}", metrics.InstrumentHandler("DELETE", "/api/v1/backups/{id}", s.handleDeleteBackup))
	})

	return r
}

// StartServer serves the API until ctx is cancelled, then drains
// in-flight requests before returning.
func StartServer(ctx context.Context, backend storage.Backend, config ServerConfig, logger *zap.Logger) error {
	logger = logging.OrNop(logger)
	server := NewServer(backend, config, NewMetrics(), logger)

	srv := &http.Server{
		Addr:              config.Addr(),
		Handler:           server.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting STF REST API server",
			zap.String("addr", srv.Addr),
			zap.String("metrics", "http://"+srv.Addr+"/metrics"))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
