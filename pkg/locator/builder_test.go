package locator

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/ssargent/tabula/pkg/arraycache"
	"github.com/ssargent/tabula/pkg/arraystore"
	"github.com/ssargent/tabula/pkg/rangeindex"
	"github.com/ssargent/tabula/pkg/schema"
	"github.com/ssargent/tabula/pkg/tokenizer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleCSV = "id,name,score\n1,alice,9.5\n2,bob,7\n3,carol,8.25\n4,dave,6\n"

func newTestService() *arraycache.Service {
	opts := arraycache.DefaultOptions()
	opts.StageSize = 4
	opts.WindowSize = 4
	opts.SyncOnClose = false
	return arraycache.NewService(opts)
}

func newTestConfig(t *testing.T, content string) Config {
	t.Helper()
	dir := t.TempDir()
	source := filepath.Join(dir, "source.csv")
	require.NoError(t, os.WriteFile(source, []byte(content), 0600))

	return Config{
		SourcePath:  source,
		IndexPath:   filepath.Join(dir, "source.idx"),
		Tokenizer:   tokenizer.DefaultConfig(),
		HasHeader:   true,
		DetectTypes: true,
	}
}

type recordingSink struct {
	reports     []float64
	cancelAfter int
}

func (s *recordingSink) Report(fraction float64) {
	s.reports = append(s.reports, fraction)
}

func (s *recordingSink) Canceled() bool {
	return s.cancelAfter > 0 && len(s.reports) >= s.cancelAfter
}

func TestBuild_HeaderSkipped(t *testing.T) {
	cfg := newTestConfig(t, sampleCSV)
	b, err := NewBuilder(cfg, newTestService())
	require.NoError(t, err)

	res, err := b.Build(context.Background(), nil)
	require.NoError(t, err)

	assert.Equal(t, int64(4), res.Records)
	assert.Equal(t, 3, res.MaxColumns)
	assert.Equal(t, cfg.IndexPath, res.IndexPath)
	assert.Equal(t, int64(len(sampleCSV)), res.SourceSize)
	assert.Equal(t, []schema.FieldAttr{
		{Name: "id", Type: schema.TypeInteger},
		{Name: "name", Type: schema.TypeString},
		{Name: "score", Type: schema.TypeDecimal},
	}, res.Fields)
	assert.Equal(t, int64(5), res.Stats.Records)

	store, err := arraystore.Open[int64](cfg.IndexPath)
	require.NoError(t, err)
	defer store.Close()
	assert.Equal(t, int64(8), store.Len())

	first, err := store.Get(0)
	require.NoError(t, err)
	assert.Equal(t, int64(len("id,name,score\n")), first)

	_, err = os.Stat(cfg.IndexPath + PartialSuffix)
	assert.True(t, os.IsNotExist(err))
}

func TestBuild_WithoutHeader(t *testing.T) {
	cfg := newTestConfig(t, sampleCSV)
	cfg.HasHeader = false
	b, err := NewBuilder(cfg, newTestService())
	require.NoError(t, err)

	res, err := b.Build(context.Background(), nil)
	require.NoError(t, err)

	assert.Equal(t, int64(5), res.Records)
	assert.Equal(t, "Column 1", res.Fields[0].Name)
	assert.Equal(t, schema.TypeString, res.Fields[0].Type)
}

func TestBuild_RangesRetokenize(t *testing.T) {
	content := "a,b\n\"x,1\",2\r\n\n\"multi\nline\",3\nlast,4"
	cfg := newTestConfig(t, content)
	svc := newTestService()
	b, err := NewBuilder(cfg, svc)
	require.NoError(t, err)

	_, err = b.Build(context.Background(), nil)
	require.NoError(t, err)

	full, err := tokenizer.NewReader(strings.NewReader(content), cfg.Tokenizer)
	require.NoError(t, err)
	_, err = full.Next() // header
	require.NoError(t, err)

	index, err := rangeindex.Open(svc, cfg.IndexPath)
	require.NoError(t, err)
	defer index.Close()
	require.Equal(t, int64(3), index.Len())

	src, err := os.Open(cfg.SourcePath)
	require.NoError(t, err)
	defer src.Close()

	for r := int64(0); r < index.Len(); r++ {
		expected, err := full.Next()
		require.NoError(t, err)

		rng, err := index.Range(r)
		require.NoError(t, err)

		section := io.NewSectionReader(src, rng.Begin, rng.Len())
		tok, err := tokenizer.NewReaderOffset(section, cfg.Tokenizer, rng.Begin)
		require.NoError(t, err)
		actual, err := tok.Next()
		require.NoError(t, err)
		assert.Equal(t, expected, actual, "record %d", r)
	}
}

func TestBuild_ProgressMonotonic(t *testing.T) {
	cfg := newTestConfig(t, sampleCSV)
	b, err := NewBuilder(cfg, newTestService())
	require.NoError(t, err)

	sink := &recordingSink{}
	_, err = b.Build(context.Background(), sink)
	require.NoError(t, err)

	require.NotEmpty(t, sink.reports)
	for i := 1; i < len(sink.reports); i++ {
		assert.GreaterOrEqual(t, sink.reports[i], sink.reports[i-1])
	}
	assert.Equal(t, 1.0, sink.reports[len(sink.reports)-1])
}

func TestBuild_CanceledBySink(t *testing.T) {
	cfg := newTestConfig(t, sampleCSV)
	b, err := NewBuilder(cfg, newTestService())
	require.NoError(t, err)

	sink := &recordingSink{cancelAfter: 2}
	res, err := b.Build(context.Background(), sink)
	assert.Nil(t, res)
	assert.ErrorIs(t, err, ErrCanceled)
	assert.Len(t, sink.reports, 2)

	_, err = os.Stat(cfg.IndexPath)
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(cfg.IndexPath + PartialSuffix)
	assert.True(t, os.IsNotExist(err))

	_, err = arraystore.Open[int64](cfg.IndexPath)
	assert.Error(t, err)
}

func TestBuild_CanceledByContext(t *testing.T) {
	cfg := newTestConfig(t, sampleCSV)
	b, err := NewBuilder(cfg, newTestService())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = b.Build(ctx, nil)
	assert.True(t, errors.Is(err, ErrCanceled))
}

func TestBuild_ParseErrorAborts(t *testing.T) {
	cfg := newTestConfig(t, "a,b\n1,2\n\"broken,3\n")
	b, err := NewBuilder(cfg, newTestService())
	require.NoError(t, err)

	_, err = b.Build(context.Background(), nil)
	var parseErr *tokenizer.ParseError
	require.True(t, errors.As(err, &parseErr))
	assert.Equal(t, int64(8), parseErr.Offset)
	assert.False(t, errors.Is(err, ErrCanceled))

	_, err = os.Stat(cfg.IndexPath)
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(cfg.IndexPath + PartialSuffix)
	assert.True(t, os.IsNotExist(err))
}

func TestBuild_EmptySource(t *testing.T) {
	cfg := newTestConfig(t, "")
	b, err := NewBuilder(cfg, newTestService())
	require.NoError(t, err)

	sink := &recordingSink{}
	res, err := b.Build(context.Background(), sink)
	require.NoError(t, err)
	assert.Equal(t, int64(0), res.Records)
	assert.Empty(t, res.Fields)
	assert.Equal(t, []float64{1}, sink.reports)
}

func TestBuild_MissingSource(t *testing.T) {
	cfg := newTestConfig(t, sampleCSV)
	cfg.SourcePath = filepath.Join(t.TempDir(), "missing.csv")
	b, err := NewBuilder(cfg, newTestService())
	require.NoError(t, err)

	_, err = b.Build(context.Background(), nil)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestNewBuilder_Validation(t *testing.T) {
	svc := newTestService()

	_, err := NewBuilder(Config{IndexPath: "x.idx", Tokenizer: tokenizer.DefaultConfig()}, svc)
	assert.Error(t, err)

	_, err = NewBuilder(Config{SourcePath: "x.csv", IndexPath: "x.csv", Tokenizer: tokenizer.DefaultConfig()}, svc)
	assert.Error(t, err)

	_, err = NewBuilder(Config{SourcePath: "x.csv", IndexPath: "x.idx", Tokenizer: tokenizer.DefaultConfig()}, nil)
	assert.Error(t, err)
}

type blockingSink struct {
	once    sync.Once
	entered chan struct{}
	release chan struct{}
}

func (s *blockingSink) Report(float64) {
	s.once.Do(func() {
		close(s.entered)
		<-s.release
	})
}

func (s *blockingSink) Canceled() bool { return false }

func TestJob_Completes(t *testing.T) {
	cfg := newTestConfig(t, sampleCSV)
	b, err := NewBuilder(cfg, newTestService())
	require.NoError(t, err)

	job := Start(context.Background(), b, nil)
	res, err := job.Wait()
	require.NoError(t, err)
	assert.Equal(t, int64(4), res.Records)
	assert.Equal(t, 1.0, job.Progress())

	select {
	case <-job.Done():
	default:
		t.Fatal("job not done after Wait")
	}
}

func TestJob_Cancel(t *testing.T) {
	cfg := newTestConfig(t, sampleCSV)
	b, err := NewBuilder(cfg, newTestService())
	require.NoError(t, err)

	sink := &blockingSink{entered: make(chan struct{}), release: make(chan struct{})}
	job := Start(context.Background(), b, sink)

	<-sink.entered
	job.Cancel()
	close(sink.release)

	res, err := job.Wait()
	assert.Nil(t, res)
	assert.ErrorIs(t, err, ErrCanceled)

	_, err = os.Stat(cfg.IndexPath)
	assert.True(t, os.IsNotExist(err))
}
