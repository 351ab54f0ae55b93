// Package server exposes the analysis pipeline over HTTP.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/FCMSStudent/laterr-sub000/pkg/config"
	"github.com/FCMSStudent/laterr-sub000/pkg/observability"
	"github.com/FCMSStudent/laterr-sub000/pkg/pipeline"
)

// Server is the HTTP front end.
type Server struct {
	cfg      config.ServerConfig
	analyzer *pipeline.Analyzer
	metrics  *observability.Metrics
	http     *http.Server
}

func New(cfg config.ServerConfig, analyzer *pipeline.Analyzer, metrics *observability.Metrics) *Server {
	s := &Server{cfg: cfg, analyzer: analyzer, metrics: metrics}

	r := chi.NewRouter()
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.RequestID)
	r.Use(requestLogger)
	r.Use(chimiddleware.Recoverer)
	if metrics != nil {
		r.Use(metrics.Middleware)
	}

	r.Get("/health", s.handleHealth)
	if metrics != nil {
		r.Method(http.MethodGet, "/metrics", metrics.Handler())
	}

	r.Group(func(r chi.Router) {
		r.Use(s.requireAuth)
		r.Post("/v1/analyze", s.handleAnalyze)
		r.Post("/v1/embed", s.handleEmbed)
	})

	s.http = &http.Server{
		Addr:              cfg.Address(),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Start serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		slog.Info("HTTP server listening", "address", s.http.Addr)
		if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	slog.Info("shutting down HTTP server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return s.http.Shutdown(shutdownCtx)
}

// Handler exposes the router for tests.
func (s *Server) Handler() http.Handler { return s.http.Handler }

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		slog.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start),
			"request_id", chimiddleware.GetReqID(r.Context()))
	})
}
