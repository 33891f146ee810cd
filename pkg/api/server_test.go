package api

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/ssargent/tabula/pkg/arraycache"
	"github.com/ssargent/tabula/pkg/catalog"
	"github.com/ssargent/tabula/pkg/table"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const peopleCSV = "id,name,city\n1,Alice,Berlin\n2,Bob,Boston\n3,Carol,berlin\n4,Dave,Paris\n"

// setupTestServer builds one table and returns a router over it
func setupTestServer(t *testing.T, apiKey string) (http.Handler, *catalog.Entry, *prometheus.Registry) {
	t.Helper()
	dir := t.TempDir()

	cat, err := catalog.Open(filepath.Join(dir, "catalog"))
	require.NoError(t, err)
	t.Cleanup(func() { cat.Close() })

	opts := arraycache.DefaultOptions()
	opts.SyncOnClose = false
	manager := table.NewManager(cat, arraycache.NewService(opts), dir, nil)

	source := filepath.Join(dir, "people.csv")
	require.NoError(t, os.WriteFile(source, []byte(peopleCSV), 0600))
	entry, err := manager.Build(context.Background(), "people", source, table.DefaultBuildOptions(), nil)
	require.NoError(t, err)

	registry := prometheus.NewRegistry()
	server := NewServer(manager, ServerConfig{APIKey: apiKey}, NewMetrics(registry), nil)
	return NewRouter(server, registry), entry, registry
}

func doRequest(t *testing.T, h http.Handler, path, apiKey string) (*httptest.ResponseRecorder, APIResponse) {
	t.Helper()
	req := httptest.NewRequest("GET", path, nil)
	if apiKey != "" {
		req.Header.Set("X-API-Key", apiKey)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	var response APIResponse
	if w.Header().Get("Content-Type") == "application/json" {
		require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
	}
	return w, response
}

func TestRouter_MetricsUnprotected(t *testing.T) {
	h, _, _ := setupTestServer(t, "secret")

	_, _ = doRequest(t, h, "/api/v1/health", "secret")

	req := httptest.NewRequest("GET", "/metrics", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "tabula_http_requests_total")
	assert.Contains(t, w.Body.String(), "tabula_health_checks_total")
}

func TestRouter_RequiresAPIKey(t *testing.T) {
	h, _, _ := setupTestServer(t, "secret")

	w, response := doRequest(t, h, "/api/v1/tables", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.False(t, response.Success)

	w, _ = doRequest(t, h, "/api/v1/tables", "wrong")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w, _ = doRequest(t, h, "/api/v1/tables", "secret")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRouter_OpenWithoutKey(t *testing.T) {
	h, _, _ := setupTestServer(t, "")

	w, response := doRequest(t, h, "/api/v1/health", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, response.Success)
}

func TestStartServer_ShutsDownOnCancel(t *testing.T) {
	dir := t.TempDir()
	cat, err := catalog.Open(filepath.Join(dir, "catalog"))
	require.NoError(t, err)
	defer cat.Close()
	manager := table.NewManager(cat, arraycache.NewService(arraycache.DefaultOptions()), dir, nil)

	// Reserve a free port
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := l.Addr().(*net.TCPAddr).Port
	require.NoError(t, l.Close())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- StartServer(ctx, manager, ServerConfig{Bind: "127.0.0.1", Port: port}, nil, nil)
	}()

	url := "http://127.0.0.1:" + strconv.Itoa(port) + "/api/v1/health"
	require.Eventually(t, func() bool {
		resp, err := http.Get(url)
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 5*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}
