package api

import (
	"encoding/json"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/granule-data/maskfill/internal/config"
	"github.com/granule-data/maskfill/internal/db"
)

// asc4x4Tens is a 4x4 unit-cell grid, top-left corner at (0, 0), every
// sample 10. The center of cell (r, c) sits at (c+0.5, -(r+0.5)).
const asc4x4Tens = `ncols 4
nrows 4
xllcorner 0
yllcorner -4
cellsize 1
10 10 10 10
10 10 10 10
10 10 10 10
10 10 10 10
`

// westHalf covers world x 0..2, y -4..0: columns 0 and 1 of the grid.
const westHalf = `{"type":"Polygon","coordinates":[[[0,0],[2,0],[2,-4],[0,-4],[0,0]]]}`

func writeFixture(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// newTestServer builds a server over a fresh cache database with the
// default configuration and no path confinement.
func newTestServer(t *testing.T) *Server {
	t.Helper()
	database, err := db.NewDB(filepath.Join(t.TempDir(), "cache.db"))
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })
	require.NoError(t, database.EnsureSchema())
	return NewServer(database, config.EmptyRunConfig(), "")
}

func TestHome(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)

	w := httptest.NewRecorder()
	s.ServeMux().ServeHTTP(w, httptest.NewRequest("GET", "/", nil))
	assert.Equal(t, 200, w.Code)
	assert.Contains(t, w.Body.String(), "Mask Fill Agent")
}

func TestConfigEndpoint(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)

	w := httptest.NewRecorder()
	s.ServeMux().ServeHTTP(w, httptest.NewRequest("GET", "/config", nil))
	require.Equal(t, 200, w.Code)

	var cfg map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &cfg))
	assert.Equal(t, float64(-9999), cfg["default_fill"])
	assert.Equal(t, "ignore_and_delete", cfg["mask_grid_cache"])
	assert.Equal(t, ":8080", cfg["listen_addr"])
}

func TestConfigEndpointRejectsPost(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)

	w := httptest.NewRecorder()
	s.ServeMux().ServeHTTP(w, httptest.NewRequest("POST", "/config", nil))
	assert.Equal(t, 405, w.Code)
}

func TestCacheStatsEmpty(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)

	w := httptest.NewRecorder()
	s.ServeMux().ServeHTTP(w, httptest.NewRequest("GET", "/cache/stats", nil))
	require.Equal(t, 200, w.Code)

	var stats cacheStats
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &stats))
	assert.Zero(t, stats.Count)
	assert.Zero(t, stats.BlobBytes)
	assert.Empty(t, stats.Recent)
}
