package maskfill

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequestValidate(t *testing.T) {
	dir := t.TempDir()
	in := writeFixture(t, dir, "speed.asc", asc4x4Tens)
	regionPath := writeFixture(t, dir, "west.geojson", westHalf)

	valid := Request{RasterPaths: []string{in}, RegionPath: regionPath}
	require.NoError(t, valid.Validate())

	cases := []struct {
		name    string
		mutate  func(r *Request)
		param   string
		missing bool
	}{
		{"no rasters", func(r *Request) { r.RasterPaths = nil }, "FILE_URLS", true},
		{"no region", func(r *Request) { r.RegionPath = "" }, "SHAPEFILE", true},
		{"unsupported raster container", func(r *Request) {
			r.RasterPaths = []string{filepath.Join(dir, "x.tif")}
		}, "FILE_URLS", false},
		{"raster does not exist", func(r *Request) {
			r.RasterPaths = []string{filepath.Join(dir, "ghost.asc")}
		}, "FILE_URLS", false},
		{"remote raster URL", func(r *Request) {
			r.RasterPaths = []string{"https://example.com/granule.nc"}
		}, "FILE_URLS", false},
		{"remote region URL", func(r *Request) {
			r.RegionPath = "s3://bucket/region.shp"
		}, "SHAPEFILE", false},
		{"unsupported region format", func(r *Request) {
			r.RegionPath = filepath.Join(dir, "r.gpkg")
		}, "SHAPEFILE", false},
		{"region does not exist", func(r *Request) {
			r.RegionPath = filepath.Join(dir, "ghost.geojson")
		}, "SHAPEFILE", false},
		{"bad cache mode", func(r *Request) { r.CacheMode = "sometimes" }, "MASK_GRID_CACHE", false},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			req := valid
			c.mutate(&req)
			err := req.Validate()
			var perr *ParameterError
			require.ErrorAs(t, err, &perr)
			assert.Equal(t, c.param, perr.Name)
			assert.Equal(t, c.missing, perr.Missing)
		})
	}
}

func TestRunBatchIsolationAndOrder(t *testing.T) {
	dir := t.TempDir()
	good1 := writeFixture(t, dir, "a.asc", asc4x4Tens)
	bad := writeFixture(t, dir, "b.asc", "this is not a grid\n")
	good2 := writeFixture(t, dir, "c.asc", asc4x4Tens)
	regionPath := writeFixture(t, dir, "west.geojson", westHalf)
	outDir := filepath.Join(dir, "out")

	outcomes, err := (&Runner{Workers: 2}).Run(context.Background(), Request{
		RasterPaths: []string{good1, bad, good2},
		RegionPath:  regionPath,
		OutputDir:   outDir,
		DefaultFill: -1,
	})
	require.NoError(t, err)
	require.Len(t, outcomes, 3)

	assert.Equal(t, good1, outcomes[0].Input)
	assert.Equal(t, bad, outcomes[1].Input)
	assert.Equal(t, good2, outcomes[2].Input)

	assert.NoError(t, outcomes[0].Err)
	assert.NoError(t, outcomes[2].Err)
	var ferr *FormatError
	require.ErrorAs(t, outcomes[1].Err, &ferr, "one bad file fails alone")

	assert.FileExists(t, filepath.Join(outDir, "a_mf.asc"))
	assert.NoFileExists(t, filepath.Join(outDir, "b_mf.asc"))
	assert.FileExists(t, filepath.Join(outDir, "c_mf.asc"))
	assert.Equal(t, 1, Failed(outcomes))

	entries, err := os.ReadDir(outDir)
	require.NoError(t, err)
	for _, e := range entries {
		assert.NotContains(t, e.Name(), ".tmp", "leftover temp file")
	}
}

func TestRunCancelledContext(t *testing.T) {
	dir := t.TempDir()
	paths := []string{
		writeFixture(t, dir, "a.asc", asc4x4Tens),
		writeFixture(t, dir, "b.asc", asc4x4Tens),
		writeFixture(t, dir, "c.asc", asc4x4Tens),
	}
	regionPath := writeFixture(t, dir, "west.geojson", westHalf)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	outcomes, err := (&Runner{Workers: 2}).Run(ctx, Request{
		RasterPaths: paths,
		RegionPath:  regionPath,
		OutputDir:   dir,
		DefaultFill: -1,
	})
	require.NoError(t, err)
	require.Len(t, outcomes, 3, "cancelled files still get outcomes")
	for i, o := range outcomes {
		assert.Equal(t, paths[i], o.Input)
		assert.ErrorIs(t, o.Err, context.Canceled, "file %d", i)
	}
	for _, name := range []string{"a_mf.asc", "b_mf.asc", "c_mf.asc"} {
		assert.NoFileExists(t, filepath.Join(dir, name))
	}
}

func TestRunMalformedRegion(t *testing.T) {
	dir := t.TempDir()
	in := writeFixture(t, dir, "speed.asc", asc4x4Tens)
	outDir := filepath.Join(dir, "out")

	t.Run("unclosed ring", func(t *testing.T) {
		badRegion := writeFixture(t, dir, "open.geojson",
			`{"type":"Polygon","coordinates":[[[0,0],[2,0],[2,-4],[0,-4]]]}`)
		outcomes, err := (&Runner{Workers: 1}).Run(context.Background(), Request{
			RasterPaths: []string{in},
			RegionPath:  badRegion,
			OutputDir:   outDir,
			DefaultFill: -1,
		})
		var gerr *GeometryError
		require.ErrorAs(t, err, &gerr)
		assert.Nil(t, outcomes)
		assert.NoDirExists(t, outDir, "nothing is written when the region is unusable")
	})

	t.Run("non-polygonal geometry", func(t *testing.T) {
		badRegion := writeFixture(t, dir, "line.geojson",
			`{"type":"LineString","coordinates":[[0,0],[2,0]]}`)
		_, err := (&Runner{Workers: 1}).Run(context.Background(), Request{
			RasterPaths: []string{in},
			RegionPath:  badRegion,
			OutputDir:   outDir,
			DefaultFill: -1,
		})
		var gerr *GeometryError
		require.ErrorAs(t, err, &gerr)
	})

	t.Run("unreadable container", func(t *testing.T) {
		badRegion := writeFixture(t, dir, "broken.geojson", `{not json`)
		_, err := (&Runner{Workers: 1}).Run(context.Background(), Request{
			RasterPaths: []string{in},
			RegionPath:  badRegion,
			OutputDir:   outDir,
			DefaultFill: -1,
		})
		var ferr *FormatError
		require.ErrorAs(t, err, &ferr, "a bad container is a format error, not a geometry error")
	})
}

func TestRunFailureKeepsPreviousOutput(t *testing.T) {
	dir := t.TempDir()
	outDir := filepath.Join(dir, "out")
	require.NoError(t, os.MkdirAll(outDir, 0o755))
	previous := filepath.Join(outDir, "speed_mf.asc")
	require.NoError(t, os.WriteFile(previous, []byte("previous successful run"), 0o644))

	bad := writeFixture(t, dir, "speed.asc", "garbage header\n")
	regionPath := writeFixture(t, dir, "west.geojson", westHalf)

	outcomes, err := (&Runner{Workers: 1}).Run(context.Background(), Request{
		RasterPaths: []string{bad},
		RegionPath:  regionPath,
		OutputDir:   outDir,
		DefaultFill: -1,
	})
	require.NoError(t, err)
	require.Len(t, outcomes, 1)
	require.Error(t, outcomes[0].Err)

	data, err := os.ReadFile(previous)
	require.NoError(t, err)
	assert.Equal(t, "previous successful run", string(data),
		"a failed run must not clobber the previous run's output")
}

func TestRunOutputDirUnusable(t *testing.T) {
	dir := t.TempDir()
	in := writeFixture(t, dir, "speed.asc", asc4x4Tens)
	regionPath := writeFixture(t, dir, "west.geojson", westHalf)
	blocker := writeFixture(t, dir, "blocker", "")

	outcomes, err := (&Runner{Workers: 1}).Run(context.Background(), Request{
		RasterPaths: []string{in},
		RegionPath:  regionPath,
		OutputDir:   blocker, // a plain file where a directory is needed
		DefaultFill: -1,
	})
	var ioErr *IOError
	require.ErrorAs(t, err, &ioErr)
	assert.Nil(t, outcomes)
}

func TestRunManyFilesAcrossWorkers(t *testing.T) {
	dir := t.TempDir()
	regionPath := writeFixture(t, dir, "west.geojson", westHalf)
	var paths []string
	for i := 0; i < 8; i++ {
		paths = append(paths, writeFixture(t, dir, "in"+strings.Repeat("x", i)+".asc", asc4x4Tens))
	}
	outDir := filepath.Join(dir, "out")

	outcomes, err := (&Runner{Workers: 4}).Run(context.Background(), Request{
		RasterPaths: paths,
		RegionPath:  regionPath,
		OutputDir:   outDir,
		DefaultFill: -1,
	})
	require.NoError(t, err)
	require.Len(t, outcomes, len(paths))
	for i, o := range outcomes {
		assert.Equal(t, paths[i], o.Input, "outcomes keep input order")
		assert.NoError(t, o.Err)
		assert.FileExists(t, o.Output)
	}
	assert.Zero(t, Failed(outcomes))
}
