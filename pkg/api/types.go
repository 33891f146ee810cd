package api

import (
	"time"

	"github.com/ssargent/tabula/pkg/catalog"
	"github.com/ssargent/tabula/pkg/schema"
)

const (
	defaultRowLimit = 100
	maxRowLimit     = 1000
)

// APIResponse represents a standard API response
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// ServerConfig holds configuration for the API server
type ServerConfig struct {
	Bind   string
	Port   int
	APIKey string // empty disables authentication

	ShutdownTimeout time.Duration
}

// TableSummary is the list view of a table
type TableSummary struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	SourcePath string    `json:"source_path"`
	Records    int64     `json:"records"`
	Columns    int       `json:"columns"`
	CreatedAt  time.Time `json:"created_at"`
}

func summarize(e *catalog.Entry) TableSummary {
	return TableSummary{
		ID:         e.ID.String(),
		Name:       e.Name,
		SourcePath: e.SourcePath,
		Records:    e.Records,
		Columns:    e.MaxColumns,
		CreatedAt:  e.CreatedAt,
	}
}

// RowsResponse is one page of rows
type RowsResponse struct {
	Offset  int64              `json:"offset"`
	Limit   int64              `json:"limit"`
	Total   int64              `json:"total"`
	Columns []schema.FieldAttr `json:"columns"`
	Rows    [][]schema.Value   `json:"rows"`
}

// RowResponse is a single row
type RowResponse struct {
	Row    int64          `json:"row"`
	Values []schema.Value `json:"values"`
}

// SearchResponse lists matching row numbers
type SearchResponse struct {
	Column  string  `json:"column"`
	Query   string  `json:"query"`
	Matches uint64  `json:"matches"`
	Rows    []int64 `json:"rows"` // at most limit entries
}
