package rangeindex

import (
	"path/filepath"
	"sync"
	"testing"

	"github.com/ssargent/tabula/pkg/arraycache"
	"github.com/ssargent/tabula/pkg/arraystore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newService() *arraycache.Service {
	opts := arraycache.DefaultOptions()
	opts.StageSize = 8
	opts.WindowSize = 8
	opts.SyncOnClose = false
	return arraycache.NewService(opts)
}

func TestRoundTrip(t *testing.T) {
	svc := newService()
	path := filepath.Join(t.TempDir(), "ranges.idx")

	w, err := Create(svc, path)
	require.NoError(t, err)

	var want []Range
	offset := int64(0)
	for i := 0; i < 50; i++ {
		r := Range{Begin: offset, End: offset + int64(i%7) + 1}
		want = append(want, r)
		require.NoError(t, w.Add(r))
		offset = r.End + 1
	}
	assert.Equal(t, int64(50), w.Len())
	require.NoError(t, w.Close())

	x, err := Open(svc, path)
	require.NoError(t, err)
	defer x.Close()

	require.Equal(t, int64(50), x.Len())
	for i := len(want) - 1; i >= 0; i-- {
		got, err := x.Range(int64(i))
		require.NoError(t, err)
		assert.Equal(t, want[i], got)
	}

	// Elements are stored pairwise in the backing store
	store, err := arraystore.Open[int64](path)
	require.NoError(t, err)
	defer store.Close()
	assert.Equal(t, int64(100), store.Len())
	end, err := store.Get(7)
	require.NoError(t, err)
	assert.Equal(t, want[3].End, end)
}

func TestWriter_RejectsOutOfOrder(t *testing.T) {
	w, err := Create(newService(), filepath.Join(t.TempDir(), "bad.idx"))
	require.NoError(t, err)
	defer w.Abort()

	require.NoError(t, w.Add(Range{Begin: 10, End: 20}))
	assert.Error(t, w.Add(Range{Begin: 15, End: 30}))
	assert.Error(t, w.Add(Range{Begin: 40, End: 30}))
	assert.NoError(t, w.Add(Range{Begin: 20, End: 20}))
}

func TestReader_Bounds(t *testing.T) {
	svc := newService()
	path := filepath.Join(t.TempDir(), "one.idx")
	w, err := Create(svc, path)
	require.NoError(t, err)
	require.NoError(t, w.Add(Range{Begin: 0, End: 5}))
	require.NoError(t, w.Close())

	x, err := Open(svc, path)
	require.NoError(t, err)
	defer x.Close()

	_, err = x.Range(1)
	assert.ErrorIs(t, err, arraystore.ErrIndexOutOfBounds)
	_, err = x.Range(-1)
	assert.ErrorIs(t, err, arraystore.ErrIndexOutOfBounds)
}

func TestOpen_RejectsOddCount(t *testing.T) {
	svc := newService()
	path := filepath.Join(t.TempDir(), "odd.idx")

	w, err := svc.CreateLongWriter(path)
	require.NoError(t, err)
	require.NoError(t, w.AddAll([]int64{1, 2, 3}, 0, 3))
	require.NoError(t, w.Close())

	x, err := Open(svc, path)
	assert.ErrorIs(t, err, arraystore.ErrFormat)
	assert.Nil(t, x)
}

func TestReader_ConcurrentLookups(t *testing.T) {
	svc := newService()
	path := filepath.Join(t.TempDir(), "conc.idx")
	w, err := Create(svc, path)
	require.NoError(t, err)
	for i := int64(0); i < 500; i++ {
		require.NoError(t, w.Add(Range{Begin: i * 10, End: i*10 + 9}))
	}
	require.NoError(t, w.Close())

	x, err := Open(svc, path)
	require.NoError(t, err)
	defer x.Close()

	var wg sync.WaitGroup
	for g := 0; g < 4; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := int64(g); i < 500; i += 4 {
				r, err := x.Range(i)
				assert.NoError(t, err)
				assert.Equal(t, Range{Begin: i * 10, End: i*10 + 9}, r)
			}
		}(g)
	}
	wg.Wait()
}
