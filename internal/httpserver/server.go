// Package httpserver exposes the conversion contract over HTTP: a
// legacy /convert endpoint returning raw SVG and a JSON-RPC /rpc
// endpoint, plus Prometheus metrics. The listener survives individual
// request failures indefinitely.
package httpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/eqsvg/eqsvg/internal/store"
	"github.com/eqsvg/eqsvg/internal/typeset"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
)

// Server is the persistent HTTP adapter. Requests are handled
// independently; the only shared state is the bitmap store, which is
// internally synchronised.
type Server struct {
	backend typeset.Backend
	store   *store.Store
	logger  *logrus.Logger
	port    int
}

// New creates an HTTP adapter serving the given backend.
func New(port int, backend typeset.Backend, logger *logrus.Logger) *Server {
	return &Server{
		backend: backend,
		store:   store.New(),
		logger:  logger,
		port:    port,
	}
}

// Handler builds the route table. Exposed for tests.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/convert", instrument("convert", http.HandlerFunc(s.handleConvert)))
	mux.Handle("/rpc", instrument("rpc", http.HandlerFunc(s.handleRPC)))
	mux.Handle("/metrics", promhttp.Handler())
	return s.withRecovery(mux)
}

// Run starts the listener and blocks until ctx is cancelled or the
// listener fails. Shutdown drains in-flight requests with a timeout.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:           fmt.Sprintf(":%d", s.port),
		Handler:        s.Handler(),
		ReadTimeout:    30 * time.Second,
		WriteTimeout:   30 * time.Second,
		IdleTimeout:    120 * time.Second,
		MaxHeaderBytes: 1 << 20,
	}

	s.logger.WithField("port", s.port).Info("Starting HTTP server")

	serverErr := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			select {
			case serverErr <- err:
			case <-ctx.Done():
			}
		}
	}()

	select {
	case err := <-serverErr:
		return fmt.Errorf("HTTP server failed: %w", err)
	case <-ctx.Done():
		s.logger.Info("Shutdown signal received, stopping HTTP server")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		s.logger.WithError(err).Error("HTTP server shutdown failed")
		return err
	}

	s.logger.Info("HTTP server stopped gracefully")
	return nil
}

// withRecovery turns any panic escaping a handler into a 500 response
// so a single bad request can never take the listener down.
func (s *Server) withRecovery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				s.logger.WithFields(logrus.Fields{
					"panic": rec,
					"path":  r.URL.Path,
				}).Error("Recovered from handler panic")
				s.logger.Debug(string(debug.Stack()))
				writeJSONError(w, http.StatusInternalServerError, "internal server error")
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// errorBody is the JSON error envelope used by the legacy endpoint.
type errorBody struct {
	Error string `json:"error"`
}

func writeJSONError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(errorBody{Error: msg})
}
