package locator

import (
	"errors"
	"fmt"
	"time"

	"github.com/ssargent/tabula/pkg/logging"
	"github.com/ssargent/tabula/pkg/schema"
	"github.com/ssargent/tabula/pkg/tokenizer"
)

// ErrCanceled is returned when a build stops because cancellation was requested.
var ErrCanceled = errors.New("locator: build canceled")

// PartialSuffix is appended to the index path while a build is in progress.
const PartialSuffix = ".partial"

// Config describes one index build.
type Config struct {
	SourcePath  string
	IndexPath   string
	Tokenizer   tokenizer.Config
	HasHeader   bool // First record names the columns and is not indexed
	DetectTypes bool // Infer integer and decimal columns; otherwise all strings

	Factory tokenizer.Factory // nil uses tokenizer.DefaultFactory
	Logger  *logging.Logger
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if c.SourcePath == "" {
		return fmt.Errorf("locator: source path is required")
	}
	if c.IndexPath == "" {
		return fmt.Errorf("locator: index path is required")
	}
	if c.IndexPath == c.SourcePath {
		return fmt.Errorf("locator: index path must differ from source path")
	}
	return c.Tokenizer.Validate()
}

// ProgressSink receives build progress and is polled for cancellation.
type ProgressSink interface {
	// Report receives the completed fraction in [0, 1]. Values never decrease.
	Report(fraction float64)
	// Canceled reports whether the build should stop.
	Canceled() bool
}

// Result describes a finished index.
type Result struct {
	IndexPath  string             `json:"index_path"`
	Records    int64              `json:"records"`
	Fields     []schema.FieldAttr `json:"fields"`
	MaxColumns int                `json:"max_columns"`
	Stats      tokenizer.Stats    `json:"stats"`
	SourceSize int64              `json:"source_size"`
	Elapsed    time.Duration      `json:"elapsed"`
}
