// Package server expone la calculadora como API JSON y monta el cache manager
// offline como handler catch-all.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/alejandrodnm/profitcalc/internal/calculator"
	"github.com/alejandrodnm/profitcalc/internal/offline"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const shutdownTimeout = 10 * time.Second

// Server conecta las rutas con el servicio de cálculo y el cache manager.
type Server struct {
	svc     *calculator.Service
	cache   *offline.Manager
	metrics prometheus.Gatherer
}

// New crea un Server. Con metrics nil no se monta /metrics.
func New(svc *calculator.Service, cache *offline.Manager, metrics prometheus.Gatherer) *Server {
	return &Server{svc: svc, cache: cache, metrics: metrics}
}

// Router arma el router chi.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.RequestID,
		middleware.RealIP,
		requestLogger,
		middleware.Recoverer,
	)

	r.Get("/healthz", s.handleHealth)
	if s.metrics != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.metrics, promhttp.HandlerOpts{}))
	}

	r.Route("/api", func(r chi.Router) {
		r.Post("/calculate", s.handleCalculate)
		r.Post("/suggest-price", s.handleSuggest)
		r.Get("/history", s.handleHistory)
		r.Post("/history", s.handleSaveHistory)
		r.Get("/settings", s.handleGetSettings)
		r.Put("/settings", s.handlePutSettings)
		r.Post("/feedback", s.handleFeedback)
		r.Post("/subscribe", s.handleSubscribe)
		r.Get("/platforms", s.handlePlatforms)
		r.Get("/version", s.handleVersion)
	})

	if s.cache != nil {
		r.Post("/sw/message", s.cache.MessageHandler().ServeHTTP)
		r.Get("/sw/status", s.handleCacheStatus)
		r.NotFound(s.cache.ServeHTTP)
	}
	return r
}

// Run escucha en addr hasta que ctx se cancela y después hace shutdown ordenado.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("http server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server.Run: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server.Run: shutdown: %w", err)
	}
	slog.Info("http server stopped")
	return nil
}
