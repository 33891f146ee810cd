package cursor

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/ssargent/tabula/pkg/arraycache"
	"github.com/ssargent/tabula/pkg/arraystore"
	"github.com/ssargent/tabula/pkg/locator"
	"github.com/ssargent/tabula/pkg/schema"
	"github.com/ssargent/tabula/pkg/tokenizer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleCSV = "id,name,score\n1,alice,9.5\n2,bob,7\n3,carol,8.25\n4,dave,6\n"

func newTestService() *arraycache.Service {
	opts := arraycache.DefaultOptions()
	opts.WindowSize = 4
	opts.SyncOnClose = false
	return arraycache.NewService(opts)
}

func buildCursor(t *testing.T, content string, svc *arraycache.Service) *Cursor {
	t.Helper()
	dir := t.TempDir()
	source := filepath.Join(dir, "source.csv")
	require.NoError(t, os.WriteFile(source, []byte(content), 0600))

	b, err := locator.NewBuilder(locator.Config{
		SourcePath:  source,
		IndexPath:   filepath.Join(dir, "source.idx"),
		Tokenizer:   tokenizer.DefaultConfig(),
		HasHeader:   true,
		DetectTypes: true,
	}, svc)
	require.NoError(t, err)

	res, err := b.Build(context.Background(), nil)
	require.NoError(t, err)

	c, err := Open(Config{
		IndexPath:  res.IndexPath,
		SourcePath: source,
		Tokenizer:  tokenizer.DefaultConfig(),
		Fields:     res.Fields,
		MaxColumns: res.MaxColumns,
	}, svc)
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })
	return c
}

func TestCursor_FirstDataRow(t *testing.T) {
	c := buildCursor(t, sampleCSV, newTestService())

	assert.Equal(t, int64(4), c.RecordSize())
	assert.Equal(t, 3, c.MaxColumns())

	values, err := c.Record(0)
	require.NoError(t, err)
	assert.Equal(t, []schema.Value{int64(1), "alice", 9.5}, values)

	values, err = c.Record(3)
	require.NoError(t, err)
	assert.Equal(t, []schema.Value{int64(4), "dave", float64(6)}, values)
}

func TestCursor_OrderIndependent(t *testing.T) {
	c := buildCursor(t, sampleCSV, newTestService())

	var sequential [][]schema.Value
	for r := int64(0); r < c.RecordSize(); r++ {
		values, err := c.Record(r)
		require.NoError(t, err)
		sequential = append(sequential, values)
	}

	for _, r := range []int64{3, 0, 2, 2, 1, 3} {
		values, err := c.Record(r)
		require.NoError(t, err)
		assert.Equal(t, sequential[r], values, "row %d", r)
	}
}

func TestCursor_CachedRowSkipsIndex(t *testing.T) {
	c := buildCursor(t, sampleCSV, newTestService())

	_, err := c.Record(1)
	require.NoError(t, err)
	before := c.IndexStats()

	_, err = c.Record(1)
	require.NoError(t, err)
	assert.Equal(t, before, c.IndexStats())
}

func TestCursor_PadsShortRows(t *testing.T) {
	c := buildCursor(t, "a,b,c\n1,2\n1,2,3,4\n", newTestService())

	assert.Equal(t, 4, c.MaxColumns())
	values, err := c.Record(0)
	require.NoError(t, err)
	assert.Equal(t, []schema.Value{int64(1), int64(2), nil, nil}, values)
	assert.Equal(t, "Column 4", c.Fields()[3].Name)
}

func TestCursor_BOMAndQuotedFields(t *testing.T) {
	c := buildCursor(t, "\xEF\xBB\xBFname,notes\n\"Smith, J\",\"line one\nline two\"\nLee,\n", newTestService())

	values, err := c.Record(0)
	require.NoError(t, err)
	assert.Equal(t, []schema.Value{"Smith, J", "line one\nline two"}, values)

	values, err = c.Record(1)
	require.NoError(t, err)
	assert.Equal(t, []schema.Value{"Lee", nil}, values)
	assert.Equal(t, "name", c.Fields()[0].Name)
}

func TestCursor_Bounds(t *testing.T) {
	c := buildCursor(t, sampleCSV, newTestService())

	_, err := c.Record(4)
	assert.ErrorIs(t, err, arraystore.ErrIndexOutOfBounds)

	_, err = c.Record(-1)
	var boundsErr *arraystore.IndexBoundsError
	assert.ErrorAs(t, err, &boundsErr)
}

func TestSearchCursor_IndependentCache(t *testing.T) {
	c := buildCursor(t, sampleCSV, newTestService())
	search, err := c.OpenSearchCursor()
	require.NoError(t, err)

	main, err := c.Record(0)
	require.NoError(t, err)
	found, err := search.Record(2)
	require.NoError(t, err)

	assert.Equal(t, "alice", main[1])
	assert.Equal(t, "carol", found[1])

	again, err := c.Record(0)
	require.NoError(t, err)
	assert.Equal(t, "alice", again[1])
}

func TestSearchCursor_CloseKeepsShared(t *testing.T) {
	c := buildCursor(t, sampleCSV, newTestService())
	search, err := c.OpenSearchCursor()
	require.NoError(t, err)

	require.NoError(t, search.Close())
	require.NoError(t, search.Close())

	_, err = search.Record(0)
	assert.ErrorIs(t, err, arraystore.ErrClosed)

	values, err := c.Record(1)
	require.NoError(t, err)
	assert.Equal(t, "bob", values[1])
}

func TestSearchCursor_FailsAfterPrimaryClose(t *testing.T) {
	c := buildCursor(t, sampleCSV, newTestService())
	search, err := c.OpenSearchCursor()
	require.NoError(t, err)

	require.NoError(t, c.Close())
	require.NoError(t, c.Close())

	_, err = search.Record(0)
	assert.ErrorIs(t, err, arraystore.ErrClosed)

	_, err = c.OpenSearchCursor()
	assert.ErrorIs(t, err, arraystore.ErrClosed)
}

func TestSearchCursor_Concurrent(t *testing.T) {
	c := buildCursor(t, sampleCSV, newTestService())
	search, err := c.OpenSearchCursor()
	require.NoError(t, err)

	var wg sync.WaitGroup
	for _, cur := range []*Cursor{c, search} {
		wg.Add(1)
		go func(cur *Cursor) {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				row := int64(i % 4)
				values, err := cur.Record(row)
				if assert.NoError(t, err) {
					assert.Equal(t, row+1, values[0])
				}
			}
		}(cur)
	}
	wg.Wait()
}

func TestOpen_MissingSource(t *testing.T) {
	c := buildCursor(t, sampleCSV, newTestService())
	cfg := c.shared.cfg
	cfg.SourcePath = filepath.Join(t.TempDir(), "gone.csv")

	_, err := Open(cfg, newTestService())
	assert.ErrorIs(t, err, os.ErrNotExist)
}
