// Package api provides factory implementations for dependency injection
package api

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/ssargent/tabula/pkg/logging"
)

// DefaultServerFactory is the default implementation of ServerFactory
type DefaultServerFactory struct {
	registry *prometheus.Registry
}

// NewServerFactory creates a server factory whose servers register metrics
// in registry and expose it on /metrics. A nil registry uses a fresh one.
func NewServerFactory(registry *prometheus.Registry) ServerFactory {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}
	return &DefaultServerFactory{registry: registry}
}

// CreateServerStarter creates a server starter
func (f *DefaultServerFactory) CreateServerStarter() ServerStarter {
	return &DefaultServerStarter{registry: f.registry}
}

// DefaultServerStarter is the default implementation of ServerStarter
type DefaultServerStarter struct {
	registry *prometheus.Registry
}

// StartServer starts the API server with the given configuration
func (s *DefaultServerStarter) StartServer(ctx context.Context, tables TableStore, config ServerConfig, logger *logging.Logger) error {
	return StartServer(ctx, tables, config, s.registry, logger)
}
