package locator

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/ssargent/tabula/pkg/arraycache"
	"github.com/ssargent/tabula/pkg/logging"
	"github.com/ssargent/tabula/pkg/rangeindex"
	"github.com/ssargent/tabula/pkg/schema"
	"github.com/ssargent/tabula/pkg/tokenizer"
	"golang.org/x/time/rate"
)

// Builder indexes one source file.
type Builder struct {
	cfg    Config
	svc    *arraycache.Service
	logger *logging.Logger
}

// NewBuilder creates a builder that writes its index through svc.
func NewBuilder(cfg Config, svc *arraycache.Service) (*Builder, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if svc == nil {
		return nil, fmt.Errorf("locator: cache service is required")
	}
	if cfg.Factory == nil {
		cfg.Factory = tokenizer.DefaultFactory
	}
	return &Builder{
		cfg:    cfg,
		svc:    svc,
		logger: logging.OrNoop(cfg.Logger).WithComponent("locator").WithPath(cfg.SourcePath),
	}, nil
}

// Config returns the build configuration.
func (b *Builder) Config() Config {
	return b.cfg
}

// Build scans the source and writes the index. sink may be nil. A canceled
// build returns ErrCanceled and leaves no index behind.
func (b *Builder) Build(ctx context.Context, sink ProgressSink) (*Result, error) {
	start := time.Now()

	src, err := os.Open(b.cfg.SourcePath)
	if err != nil {
		return nil, fmt.Errorf("locator: failed to open source: %w", err)
	}
	defer src.Close()

	info, err := src.Stat()
	if err != nil {
		return nil, fmt.Errorf("locator: failed to stat source: %w", err)
	}
	size := info.Size()

	tok, err := b.cfg.Factory(src, b.cfg.Tokenizer, 0)
	if err != nil {
		return nil, err
	}

	partial := b.cfg.IndexPath + PartialSuffix
	index, err := rangeindex.Create(b.svc, partial)
	if err != nil {
		return nil, fmt.Errorf("locator: failed to create index: %w", err)
	}

	res, err := b.scan(ctx, sink, tok, index, size)
	if err != nil {
		_ = index.Abort()
		if errors.Is(err, ErrCanceled) {
			b.logger.LogCanceled(ctx, b.cfg.SourcePath, index.Len())
		} else {
			b.logger.LogBuild(ctx, b.cfg.SourcePath, index.Len(), time.Since(start), err)
		}
		return nil, err
	}

	if err := index.Close(); err != nil {
		_ = index.Abort()
		_ = os.Remove(partial)
		return nil, fmt.Errorf("locator: failed to commit index: %w", err)
	}
	if err := os.Rename(partial, b.cfg.IndexPath); err != nil {
		_ = os.Remove(partial)
		return nil, fmt.Errorf("locator: failed to install index: %w", err)
	}

	if sink != nil {
		sink.Report(1)
	}
	res.IndexPath = b.cfg.IndexPath
	res.SourceSize = size
	res.Elapsed = time.Since(start)
	b.logger.LogBuild(ctx, b.cfg.SourcePath, res.Records, res.Elapsed, nil)
	return res, nil
}

func (b *Builder) scan(ctx context.Context, sink ProgressSink, tok tokenizer.Tokenizer, index *rangeindex.Writer, size int64) (*Result, error) {
	detector := schema.NewDetector(b.cfg.DetectTypes)
	progressLog := rate.Sometimes{Interval: time.Second}
	headerPending := b.cfg.HasHeader
	var progress float64

	for {
		if ctx.Err() != nil || (sink != nil && sink.Canceled()) {
			return nil, ErrCanceled
		}

		fields, err := tok.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("locator: failed to read %s: %w", b.cfg.SourcePath, err)
		}
		begin, end := tok.Span()

		if headerPending {
			headerPending = false
			detector.SetHeader(fields)
		} else {
			if err := index.Add(rangeindex.Range{Begin: begin, End: end}); err != nil {
				return nil, fmt.Errorf("locator: failed to write index: %w", err)
			}
			detector.Observe(fields)
		}

		if size > 0 {
			if p := float64(end) / float64(size); p > progress {
				progress = p
			}
		}
		if sink != nil {
			sink.Report(progress)
		}
		progressLog.Do(func() {
			b.logger.DebugContext(ctx, "indexing",
				"records", index.Len(),
				"progress", progress,
			)
		})
	}

	return &Result{
		Records:    index.Len(),
		Fields:     detector.Fields(),
		MaxColumns: detector.MaxColumns(),
		Stats:      tok.Stats(),
	}, nil
}
