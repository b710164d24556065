// Package httpserver exposes the operational surface a long-running
// controller needs but that the reconciliation contract itself doesn't
// call for: a liveness probe and a Prometheus scrape endpoint.
package httpserver

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-logr/logr"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Server is a small chi router serving /healthz and /metrics.
type Server struct {
	addr string
	http *http.Server
	log  logr.Logger
}

// New builds a Server listening on addr, serving metrics registered
// against reg.
func New(addr string, reg *prometheus.Registry, log logr.Logger) *Server {
	r := chi.NewRouter()
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	return &Server{
		addr: addr,
		http: &http.Server{Addr: addr, Handler: r},
		log:  log.WithValues("component", "httpserver"),
	}
}

// Run starts the server and blocks until ctx is done, at which point it
// shuts the server down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.log.Info("listening", "addr", s.addr)
		if err := s.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.http.Shutdown(shutdownCtx)
	}
}
