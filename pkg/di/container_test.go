package di

import (
	"path/filepath"
	"testing"

	"github.com/ssargent/tabula/pkg/config"
	"github.com/ssargent/tabula/pkg/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContainer_ManagerIsLazyAndShared(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.DataDir = filepath.Join(t.TempDir(), "data")

	c := NewContainer()
	c.Configure(cfg, logging.NoopLogger())

	m1, err := c.Manager()
	require.NoError(t, err)
	m2, err := c.Manager()
	require.NoError(t, err)
	assert.Same(t, m1, m2)
	assert.DirExists(t, filepath.Join(cfg.DataDir, "catalog"))

	assert.Same(t, c.Service(), c.Service())
	assert.NoError(t, c.Close())
	assert.NoError(t, c.Close())
}

func TestContainer_ServiceUsesConfig(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Cache.WindowSize = 32

	c := NewContainer()
	c.Configure(cfg, nil)

	assert.Equal(t, 32, c.Service().Options().WindowSize)
	assert.NotNil(t, c.Logger())
	assert.NotNil(t, c.GetServerFactory())
}

func TestContainer_CacheMetricsRegistered(t *testing.T) {
	c := NewContainer()
	c.Service().Metrics()

	families, err := c.Registry().Gather()
	require.NoError(t, err)

	var names []string
	for _, mf := range families {
		names = append(names, mf.GetName())
	}
	assert.Contains(t, names, "tabula_cache_window_bytes")
}
