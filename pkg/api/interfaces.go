// Package api provides interfaces for dependency injection
package api

import (
	"context"

	"github.com/ssargent/tabula/pkg/catalog"
	"github.com/ssargent/tabula/pkg/logging"
	"github.com/ssargent/tabula/pkg/table"
)

// TableStore is the read side of the table manager used by the API
type TableStore interface {
	List() ([]*catalog.Entry, error)
	Lookup(ref string) (*catalog.Entry, error)
	Open(ref string) (*table.Table, error)
}

// ServerStarter defines the interface for starting the API server
type ServerStarter interface {
	// StartServer serves until ctx is canceled
	StartServer(ctx context.Context, tables TableStore, config ServerConfig, logger *logging.Logger) error
}

// ServerFactory creates server instances
type ServerFactory interface {
	// CreateServerStarter creates a server starter
	CreateServerStarter() ServerStarter
}
