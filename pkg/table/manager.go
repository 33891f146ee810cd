// Package table ties the catalog, index builder and cursors together into
// named, browsable tables.
package table

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ssargent/tabula/pkg/arraycache"
	"github.com/ssargent/tabula/pkg/catalog"
	"github.com/ssargent/tabula/pkg/cursor"
	"github.com/ssargent/tabula/pkg/locator"
	"github.com/ssargent/tabula/pkg/logging"
	"github.com/ssargent/tabula/pkg/tokenizer"
)

var (
	// ErrStale is returned when a source file changed after it was indexed.
	ErrStale = errors.New("table: source changed since it was indexed")
	// ErrUnknownColumn is returned for a column name the table does not have.
	ErrUnknownColumn = errors.New("table: unknown column")
)

// BuildOptions control how a source is indexed.
type BuildOptions struct {
	Tokenizer   tokenizer.Config
	HasHeader   bool
	DetectTypes bool
}

// DefaultBuildOptions returns CSV with a header row and type detection.
func DefaultBuildOptions() BuildOptions {
	return BuildOptions{
		Tokenizer:   tokenizer.DefaultConfig(),
		HasHeader:   true,
		DetectTypes: true,
	}
}

// Manager builds, opens and removes tables under a data directory.
type Manager struct {
	catalog *catalog.Catalog
	svc     *arraycache.Service
	dataDir string
	logger  *logging.Logger
}

// NewManager creates a manager. Index files live in dataDir/indexes.
func NewManager(cat *catalog.Catalog, svc *arraycache.Service, dataDir string, logger *logging.Logger) *Manager {
	return &Manager{
		catalog: cat,
		svc:     svc,
		dataDir: dataDir,
		logger:  logging.OrNoop(logger).WithComponent("table"),
	}
}

// IndexDir returns the directory holding index files.
func (m *Manager) IndexDir() string {
	return filepath.Join(m.dataDir, "indexes")
}

// Build indexes source and registers it as a table. An empty name uses the
// source file name.
func (m *Manager) Build(ctx context.Context, name, source string, opts BuildOptions, sink locator.ProgressSink) (*catalog.Entry, error) {
	job, err := m.Start(ctx, name, source, opts, sink)
	if err != nil {
		return nil, err
	}
	return job.Wait()
}

// Start begins indexing source in the background. The table is registered
// when the returned job's Wait succeeds.
func (m *Manager) Start(ctx context.Context, name, source string, opts BuildOptions, sink locator.ProgressSink) (*BuildJob, error) {
	source, err := filepath.Abs(source)
	if err != nil {
		return nil, fmt.Errorf("table: invalid source path: %w", err)
	}
	info, err := os.Stat(source)
	if err != nil {
		return nil, fmt.Errorf("table: failed to stat source: %w", err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("table: source %s is a directory", source)
	}
	if name == "" {
		name = filepath.Base(source)
	}

	if err := os.MkdirAll(m.IndexDir(), 0750); err != nil {
		return nil, fmt.Errorf("table: failed to create index directory: %w", err)
	}

	digest, err := Fingerprint(source)
	if err != nil {
		return nil, err
	}

	id := catalog.NewID()
	indexPath := filepath.Join(m.IndexDir(), id.String()+".idx")

	builder, err := locator.NewBuilder(locator.Config{
		SourcePath:  source,
		IndexPath:   indexPath,
		Tokenizer:   opts.Tokenizer,
		HasHeader:   opts.HasHeader,
		DetectTypes: opts.DetectTypes,
		Logger:      m.logger,
	}, m.svc)
	if err != nil {
		return nil, err
	}

	return &BuildJob{
		Job:     locator.Start(ctx, builder, sink),
		manager: m,
		entry: &catalog.Entry{
			ID:            id,
			Name:          name,
			SourcePath:    source,
			SourceSize:    info.Size(),
			SourceModTime: info.ModTime(),
			SourceDigest:  digest,
			IndexPath:     indexPath,
			Tokenizer:     opts.Tokenizer,
			HasHeader:     opts.HasHeader,
			DetectTypes:   opts.DetectTypes,
		},
	}, nil
}

// BuildJob is an index build that registers its table on success.
type BuildJob struct {
	*locator.Job
	manager *Manager
	entry   *catalog.Entry
}

// Wait blocks until the build finishes and registers the table.
func (j *BuildJob) Wait() (*catalog.Entry, error) {
	res, err := j.Job.Wait()
	if err != nil {
		return nil, err
	}

	entry := j.entry
	entry.Fields = res.Fields
	entry.Records = res.Records
	entry.MaxColumns = res.MaxColumns
	entry.Stats = res.Stats
	entry.CreatedAt = time.Now().UTC()
	if err := j.manager.catalog.Put(entry); err != nil {
		_ = os.Remove(entry.IndexPath)
		return nil, err
	}

	j.manager.logger.WithTable(entry.ID.String()).Info("table registered",
		"name", entry.Name,
		"records", entry.Records,
		"columns", entry.MaxColumns,
	)
	return entry, nil
}

// List returns all tables in creation order.
func (m *Manager) List() ([]*catalog.Entry, error) {
	return m.catalog.List()
}

// Lookup resolves a table by ID or name.
func (m *Manager) Lookup(ref string) (*catalog.Entry, error) {
	return m.catalog.Lookup(ref)
}

// Open opens a table for reading. It fails with ErrStale if the source file
// no longer matches the size, modification time or fingerprint recorded at
// build time.
func (m *Manager) Open(ref string) (*Table, error) {
	entry, err := m.catalog.Lookup(ref)
	if err != nil {
		return nil, err
	}

	info, err := os.Stat(entry.SourcePath)
	if err != nil {
		return nil, fmt.Errorf("table: failed to stat source: %w", err)
	}
	if info.Size() != entry.SourceSize || !info.ModTime().Equal(entry.SourceModTime) {
		return nil, fmt.Errorf("%w: %s", ErrStale, entry.SourcePath)
	}
	if entry.SourceDigest != 0 {
		digest, err := Fingerprint(entry.SourcePath)
		if err != nil {
			return nil, err
		}
		if digest != entry.SourceDigest {
			return nil, fmt.Errorf("%w: %s", ErrStale, entry.SourcePath)
		}
	}

	c, err := cursor.Open(cursor.Config{
		IndexPath:  entry.IndexPath,
		SourcePath: entry.SourcePath,
		Tokenizer:  entry.Tokenizer,
		Fields:     entry.Fields,
		MaxColumns: entry.MaxColumns,
	}, m.svc)
	m.logger.LogOpen(context.Background(), entry.IndexPath, entry.Records, err)
	if err != nil {
		return nil, err
	}
	return &Table{entry: entry, cursor: c}, nil
}

// Delete removes a table's index file and catalog entry.
func (m *Manager) Delete(ref string) error {
	entry, err := m.catalog.Lookup(ref)
	if err != nil {
		return err
	}
	if err := os.Remove(entry.IndexPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("table: failed to remove index: %w", err)
	}
	return m.catalog.Delete(entry.ID)
}

// ColumnIndex returns the position of the named column, ignoring case.
func ColumnIndex(entry *catalog.Entry, column string) (int, error) {
	for i, f := range entry.Fields {
		if strings.EqualFold(f.Name, column) {
			return i, nil
		}
	}
	return -1, fmt.Errorf("%w: %q", ErrUnknownColumn, column)
}
