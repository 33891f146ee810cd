// Package api serves indexed tables over a read-only REST API.
package api

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/ssargent/tabula/pkg/logging"
)

const defaultShutdownTimeout = 10 * time.Second

// NewRouter builds the HTTP handler. gatherer backs /metrics; nil uses the
// default Prometheus registry.
func NewRouter(server *Server, gatherer prometheus.Gatherer) http.Handler {
	metrics := server.metrics

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(requestLogger(server.logger))
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	// Prometheus metrics endpoint (unprotected for scraping)
	if gatherer == nil {
		r.Handle("/metrics", promhttp.Handler())
	} else {
		r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(metrics.InstrumentAuthMiddleware(apiKeyMiddleware(server.config.APIKey)))

		r.Get("/health", metrics.InstrumentHandler("GET", "/api/v1/health", server.handleHealth))

		r.Get("/tables", metrics.InstrumentHandler("GET", "/api/v1/tables", server.handleListTables))
		r.Get("/tables/{id}", metrics.InstrumentHandler("GET", "/api/v1/tables/{id}", server.handleGetTable))
		r.Get("/tables/{id}/rows", metrics.InstrumentHandler("GET", "/api/v1/tables/{id}/rows", server.handleRows))
		r.Get("/tables/{id}/rows/{row}", metrics.InstrumentHandler("GET", "/api/v1/tables/{id}/rows/{row}", server.handleRow))
		r.Get("/tables/{id}/search", metrics.InstrumentHandler("GET", "/api/v1/tables/{id}/search", server.handleSearch))
	})

	return r
}

// StartServer serves the API until ctx is canceled, then shuts down
// gracefully. Metrics register with registry, which also backs /metrics.
func StartServer(ctx context.Context, tables TableStore, config ServerConfig, registry *prometheus.Registry, logger *logging.Logger) error {
	logger = logging.OrNoop(logger)
	if registry == nil {
		registry = prometheus.NewRegistry()
	}

	server := NewServer(tables, config, NewMetrics(registry), logger)
	addr := net.JoinHostPort(config.Bind, strconv.Itoa(config.Port))

	srv := &http.Server{
		Addr:              addr,
		Handler:           NewRouter(server, registry),
		ReadHeaderTimeout: 10 * time.Second,
	}

	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	logger.InfoContext(ctx, "starting tabula REST API server",
		"addr", listener.Addr().String(),
	)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(listener)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	timeout := config.ShutdownTimeout
	if timeout <= 0 {
		timeout = defaultShutdownTimeout
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	logger.InfoContext(ctx, "shutting down REST API server")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down server: %w", err)
	}
	return nil
}
