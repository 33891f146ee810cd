// Package di provides dependency injection container
package di

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/ssargent/tabula/pkg/api" //nolint:depguard
	"github.com/ssargent/tabula/pkg/arraycache"
	"github.com/ssargent/tabula/pkg/catalog"
	"github.com/ssargent/tabula/pkg/config"
	"github.com/ssargent/tabula/pkg/logging"
	"github.com/ssargent/tabula/pkg/table"
)

// Container holds all the dependencies for the application
type Container struct {
	serverFactory api.ServerFactory
	registry      *prometheus.Registry

	config  *config.Config
	logger  *logging.Logger
	catalog *catalog.Catalog
	service *arraycache.Service
	manager *table.Manager
}

// NewContainer creates a new dependency injection container
func NewContainer() *Container {
	registry := prometheus.NewRegistry()
	return &Container{
		registry:      registry,
		serverFactory: api.NewServerFactory(registry),
		config:        config.DefaultConfig(),
		logger:        logging.NoopLogger(),
	}
}

// Configure sets the configuration and logger used by lazily built services
func (c *Container) Configure(cfg *config.Config, logger *logging.Logger) {
	c.config = cfg
	c.logger = logging.OrNoop(logger)
}

// Config returns the active configuration
func (c *Container) Config() *config.Config {
	return c.config
}

// Logger returns the application logger
func (c *Container) Logger() *logging.Logger {
	return c.logger
}

// Registry returns the Prometheus registry shared by the cache and the API
func (c *Container) Registry() *prometheus.Registry {
	return c.registry
}

// GetServerFactory returns the server factory
func (c *Container) GetServerFactory() api.ServerFactory {
	return c.serverFactory
}

// SetServerFactory allows overriding the server factory (for testing)
func (c *Container) SetServerFactory(factory api.ServerFactory) {
	c.serverFactory = factory
}

// Service returns the array cache service, creating it on first use
func (c *Container) Service() *arraycache.Service {
	if c.service == nil {
		opts := c.config.CacheOptions()
		opts.Registerer = c.registry
		opts.Logger = c.logger
		c.service = arraycache.NewService(opts)
	}
	return c.service
}

// Manager returns the table manager, opening the catalog on first use
func (c *Container) Manager() (*table.Manager, error) {
	if c.manager != nil {
		return c.manager, nil
	}

	if err := os.MkdirAll(c.config.DataDir, 0750); err != nil {
		return nil, fmt.Errorf("failed to create data dir: %w", err)
	}
	cat, err := catalog.Open(filepath.Join(c.config.DataDir, "catalog"))
	if err != nil {
		return nil, err
	}

	c.catalog = cat
	c.manager = table.NewManager(cat, c.Service(), c.config.DataDir, c.logger)
	return c.manager, nil
}

// Close releases opened services
func (c *Container) Close() error {
	var errs []error
	if c.catalog != nil {
		errs = append(errs, c.catalog.Close())
		c.catalog = nil
		c.manager = nil
	}
	return errors.Join(errs...)
}
