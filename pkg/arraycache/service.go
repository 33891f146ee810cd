package arraycache

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/ssargent/tabula/pkg/arraystore"
	"github.com/ssargent/tabula/pkg/logging"
	"golang.org/x/sync/semaphore"
)

const (
	// DefaultStageSize is the writer staging capacity in elements.
	DefaultStageSize = 1024
	// DefaultWindowSize is the reader window capacity in elements.
	DefaultWindowSize = 1024

	minWindowSize = 16
)

// Options configures a Service.
type Options struct {
	StageSize    int   // Writer staging capacity in elements
	WindowSize   int   // Reader window capacity in elements
	BufferSize   int   // Underlying store writer buffer in elements
	MemoryBudget int64 // Bytes shared by all open reader windows (0 = unlimited)
	SyncOnClose  bool  // fsync stores when a writer closes

	Registerer prometheus.Registerer // nil leaves metrics unregistered
	Logger     *logging.Logger
}

// DefaultOptions returns the standard sizing with durable closes.
func DefaultOptions() Options {
	return Options{
		StageSize:   DefaultStageSize,
		WindowSize:  DefaultWindowSize,
		BufferSize:  arraystore.DefaultBufferSize,
		SyncOnClose: true,
	}
}

// Service creates cached writers and readers and owns their shared budget.
type Service struct {
	opts    Options
	budget  *semaphore.Weighted // nil if unlimited
	metrics *Metrics
	logger  *logging.Logger
}

// NewService creates a cache service. Zero sizes fall back to the defaults.
func NewService(opts Options) *Service {
	if opts.StageSize <= 0 {
		opts.StageSize = DefaultStageSize
	}
	if opts.WindowSize <= 0 {
		opts.WindowSize = DefaultWindowSize
	}
	if opts.BufferSize <= 0 {
		opts.BufferSize = arraystore.DefaultBufferSize
	}

	s := &Service{
		opts:    opts,
		metrics: NewMetrics(opts.Registerer),
		logger:  logging.OrNoop(opts.Logger).WithComponent("arraycache"),
	}
	if opts.MemoryBudget > 0 {
		s.budget = semaphore.NewWeighted(opts.MemoryBudget)
	}
	return s
}

// Options returns the effective options.
func (s *Service) Options() Options {
	return s.opts
}

// Metrics returns the service's collectors.
func (s *Service) Metrics() *Metrics {
	return s.metrics
}

// reserveWindow picks the largest window, halving from the configured size,
// that fits the memory budget. The returned byte count must be released.
func (s *Service) reserveWindow(path string) (int, int64) {
	size := s.opts.WindowSize
	if s.budget == nil {
		return size, 0
	}
	for {
		bytes := int64(size) * arraystore.ElementSize
		if s.budget.TryAcquire(bytes) {
			if size < s.opts.WindowSize {
				s.logger.Warn("window reduced by memory budget",
					"path", path,
					"requested", s.opts.WindowSize,
					"granted", size,
				)
			}
			s.metrics.windowBytes.Add(float64(bytes))
			return size, bytes
		}
		if size <= minWindowSize {
			s.logger.Warn("memory budget exhausted, using unaccounted window",
				"path", path,
				"size", size,
			)
			return size, 0
		}
		size = max(size/2, minWindowSize)
	}
}

func (s *Service) releaseWindow(bytes int64) {
	if bytes == 0 || s.budget == nil {
		return
	}
	s.budget.Release(bytes)
	s.metrics.windowBytes.Sub(float64(bytes))
}

// CreateLongWriter creates a staged writer for a new int64 store.
func (s *Service) CreateLongWriter(path string) (*LongWriter, error) {
	return NewWriter[int64](s, path)
}

// OpenLongReader opens a windowed reader over an int64 store.
func (s *Service) OpenLongReader(path string) (*LongReader, error) {
	return NewReader[int64](s, path)
}

// CreateDoubleWriter creates a staged writer for a new float64 store.
func (s *Service) CreateDoubleWriter(path string) (*DoubleWriter, error) {
	return NewWriter[float64](s, path)
}

// OpenDoubleReader opens a windowed reader over a float64 store.
func (s *Service) OpenDoubleReader(path string) (*DoubleReader, error) {
	return NewReader[float64](s, path)
}
