package maskfill

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ctessum/geom"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/granule-data/maskfill/internal/crs"
	"github.com/granule-data/maskfill/internal/db"
	"github.com/granule-data/maskfill/internal/mask"
	"github.com/granule-data/maskfill/internal/monitoring"
	"github.com/granule-data/maskfill/internal/raster"
	"github.com/granule-data/maskfill/internal/region"
)

// asc4x4Tens is a 4x4 unit-cell grid, top-left corner at (0, 0), southern
// extent y = -4, every sample 10. The center of cell (r, c) sits at
// (c+0.5, -(r+0.5)).
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

// westHalf covers world x 0..2, y -4..0: columns 0 and 1 of the 4x4 grid.
const westHalf = `{"type":"Polygon","coordinates":[[[0,0],[2,0],[2,-4],[0,-4],[0,0]]]}`

// wholeGrid covers the 4x4 grid with margin on every side.
const wholeGrid = `{"type":"Polygon","coordinates":[[[-1,1],[5,1],[5,-5],[-1,-5],[-1,1]]]}`

// farAway does not intersect the 4x4 grid at all.
const farAway = `{"type":"Polygon","coordinates":[[[100,100],[101,100],[101,99],[100,99],[100,100]]]}`

// noFeatures is a legal region that masks everything out.
const noFeatures = `{"type":"FeatureCollection","features":[]}`

func writeFixture(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func newTestCache(t *testing.T) *db.DB {
	t.Helper()
	d, err := db.NewDB(filepath.Join(t.TempDir(), "cache.db"))
	require.NoError(t, err)
	t.Cleanup(func() { d.Close() })
	require.NoError(t, d.EnsureSchema())
	return d
}

// captureLogs redirects package logging into a slice for the duration of
// the test. Tests using it must not run in parallel.
func captureLogs(t *testing.T) *[]string {
	t.Helper()
	old := monitoring.Logf
	var logs []string
	monitoring.SetLogger(func(format string, v ...interface{}) {
		logs = append(logs, fmt.Sprintf(format, v...))
	})
	t.Cleanup(func() { monitoring.SetLogger(old) })
	return &logs
}

// attrNum unwraps a numeric attribute that a container codec may have
// stored as a one-element slice.
func attrNum(t *testing.T, attrs map[string]interface{}, key string) float64 {
	t.Helper()
	switch v := attrs[key].(type) {
	case float64:
		return v
	case []float64:
		require.Len(t, v, 1, "attribute %s", key)
		return v[0]
	default:
		t.Fatalf("attribute %s has unexpected type %T", key, attrs[key])
		return 0
	}
}

func runOne(t *testing.T, req Request, r *Runner) Outcome {
	t.Helper()
	outcomes, err := r.Run(context.Background(), req)
	require.NoError(t, err)
	require.Len(t, outcomes, 1)
	return outcomes[0]
}

func TestProcessWestHalfScenario(t *testing.T) {
	dir := t.TempDir()
	in := writeFixture(t, dir, "speed.asc", asc4x4Tens)
	regionPath := writeFixture(t, dir, "west.geojson", westHalf)

	o := runOne(t, Request{
		RasterPaths: []string{in},
		RegionPath:  regionPath,
		OutputDir:   dir,
		DefaultFill: -1,
	}, &Runner{Workers: 1})
	require.NoError(t, o.Err)
	assert.Equal(t, filepath.Join(dir, "speed_mf.asc"), o.Output)
	assert.InDelta(t, 0.5, o.Coverage, 1e-12)

	g, err := raster.Decode(o.Output)
	require.NoError(t, err)
	for r := 0; r < 4; r++ {
		for c := 0; c < 4; c++ {
			want := 10.0
			if c >= 2 {
				want = -1.0
			}
			assert.Equal(t, want, g.Bands[0].Value(r, c), "cell (%d,%d)", r, c)
		}
	}
}

func TestProcessIsIdempotent(t *testing.T) {
	dir := t.TempDir()
	in := writeFixture(t, dir, "speed.asc", asc4x4Tens)
	regionPath := writeFixture(t, dir, "west.geojson", westHalf)
	runner := &Runner{Workers: 1}

	first := runOne(t, Request{
		RasterPaths: []string{in},
		RegionPath:  regionPath,
		OutputDir:   dir,
		DefaultFill: -1,
	}, runner)
	require.NoError(t, first.Err)

	second := runOne(t, Request{
		RasterPaths: []string{first.Output},
		RegionPath:  regionPath,
		OutputDir:   dir,
		DefaultFill: -1,
	}, runner)
	require.NoError(t, second.Err)
	assert.Equal(t, filepath.Join(dir, "speed_mf_mf.asc"), second.Output)

	a, err := os.ReadFile(first.Output)
	require.NoError(t, err)
	b, err := os.ReadFile(second.Output)
	require.NoError(t, err)
	assert.Equal(t, a, b, "masking an already masked file changes nothing")
}

func TestProcessCopyOrFillInvariant(t *testing.T) {
	dir := t.TempDir()
	var sb strings.Builder
	sb.WriteString("ncols 4\nnrows 4\nxllcorner 0\nyllcorner -4\ncellsize 1\n")
	for r := 0; r < 4; r++ {
		for c := 0; c < 4; c++ {
			if c > 0 {
				sb.WriteByte(' ')
			}
			fmt.Fprintf(&sb, "%d", r*4+c+1)
		}
		sb.WriteByte('\n')
	}
	in := writeFixture(t, dir, "ramp.asc", sb.String())
	// A triangle cutting across the grid, so the mask is irregular.
	regionPath := writeFixture(t, dir, "wedge.geojson",
		`{"type":"Polygon","coordinates":[[[0,0],[4,0],[0,-4],[0,0]]]}`)

	o := runOne(t, Request{
		RasterPaths: []string{in},
		RegionPath:  regionPath,
		OutputDir:   dir,
		DefaultFill: -1,
	}, &Runner{Workers: 1})
	require.NoError(t, o.Err)

	inGrid, err := raster.Decode(in)
	require.NoError(t, err)
	outGrid, err := raster.Decode(o.Output)
	require.NoError(t, err)
	kept := 0
	for r := 0; r < 4; r++ {
		for c := 0; c < 4; c++ {
			got := outGrid.Bands[0].Value(r, c)
			if got == -1 {
				continue
			}
			kept++
			assert.Equal(t, inGrid.Bands[0].Value(r, c), got,
				"cell (%d,%d) is neither the input value nor the fill", r, c)
		}
	}
	assert.Greater(t, kept, 0, "the wedge must keep some cells")
	assert.Less(t, kept, 16, "the wedge must fill some cells")
}

func TestProcessFullCoverageIdentity(t *testing.T) {
	dir := t.TempDir()
	in := writeFixture(t, dir, "speed.asc", asc4x4Tens)
	regionPath := writeFixture(t, dir, "all.geojson", wholeGrid)

	o := runOne(t, Request{
		RasterPaths: []string{in},
		RegionPath:  regionPath,
		OutputDir:   dir,
		DefaultFill: -1,
	}, &Runner{Workers: 1})
	require.NoError(t, o.Err)
	assert.InDelta(t, 1.0, o.Coverage, 1e-12)

	g, err := raster.Decode(o.Output)
	require.NoError(t, err)
	for r := 0; r < 4; r++ {
		for c := 0; c < 4; c++ {
			assert.Equal(t, 10.0, g.Bands[0].Value(r, c))
		}
	}
}

func TestProcessEmptyRegionFillsEverything(t *testing.T) {
	dir := t.TempDir()
	in := writeFixture(t, dir, "speed.asc", asc4x4Tens)
	regionPath := writeFixture(t, dir, "none.geojson", noFeatures)

	o := runOne(t, Request{
		RasterPaths: []string{in},
		RegionPath:  regionPath,
		OutputDir:   dir,
		DefaultFill: -1,
	}, &Runner{Workers: 1})
	require.NoError(t, o.Err)
	assert.Zero(t, o.Coverage)

	g, err := raster.Decode(o.Output)
	require.NoError(t, err)
	for r := 0; r < 4; r++ {
		for c := 0; c < 4; c++ {
			assert.Equal(t, -1.0, g.Bands[0].Value(r, c))
		}
	}
}

func TestProcessDisjointRegionWarnsAndFills(t *testing.T) {
	logs := captureLogs(t)
	dir := t.TempDir()
	in := writeFixture(t, dir, "speed.asc", asc4x4Tens)
	regionPath := writeFixture(t, dir, "elsewhere.geojson", farAway)

	o := runOne(t, Request{
		RasterPaths: []string{in},
		RegionPath:  regionPath,
		OutputDir:   dir,
		DefaultFill: -1,
	}, &Runner{Workers: 1})
	require.NoError(t, o.Err, "a disjoint region is a valid run, not a failure")
	assert.Zero(t, o.Coverage)

	found := false
	for _, line := range *logs {
		if strings.Contains(line, "does not cover") {
			found = true
		}
	}
	assert.True(t, found, "expected a warning about the disjoint region, logs: %v", *logs)
}

func TestProcessRespectsNoDataFill(t *testing.T) {
	dir := t.TempDir()
	// NODATA_VALUE -5: masking must fill with the raster's own no-data
	// value, not the request default.
	in := writeFixture(t, dir, "speed.asc", `ncols 4
nrows 4
xllcorner 0
yllcorner -4
cellsize 1
NODATA_VALUE -5
10 10 10 10
10 -5 10 10
10 10 10 10
10 10 10 10
`)
	regionPath := writeFixture(t, dir, "west.geojson", westHalf)

	o := runOne(t, Request{
		RasterPaths: []string{in},
		RegionPath:  regionPath,
		OutputDir:   dir,
		DefaultFill: -9999,
	}, &Runner{Workers: 1})
	require.NoError(t, o.Err)

	g, err := raster.Decode(o.Output)
	require.NoError(t, err)
	assert.Equal(t, -5.0, g.Bands[0].Value(0, 3), "outside cells take the raster's no-data value")
	assert.Equal(t, -5.0, g.Bands[0].Value(1, 1), "no-data inside the region passes through unchanged")
	assert.Equal(t, 10.0, g.Bands[0].Value(1, 0))
}

func TestProcessReprojectionError(t *testing.T) {
	dir := t.TempDir()
	in := writeFixture(t, dir, "grid.asc", asc4x4Tens)
	// A sidecar naming a projection the transform library does not know:
	// the region cannot be brought into the grid's system.
	writeFixture(t, dir, "grid.prj", "+proj=nosuchproj +lat_0=0 +lon_0=0")

	p := &Pipeline{
		Region: &region.Region{
			CRS: crs.LonLatWGS84,
			Polygons: []geom.Polygon{{{
				{X: 0, Y: 0}, {X: 2, Y: 0}, {X: 2, Y: -4}, {X: 0, Y: -4}, {X: 0, Y: 0},
			}}},
			Source: "inline",
		},
		Mode:        CacheIgnoreAndDelete,
		OutputDir:   dir,
		DefaultFill: -1,
	}
	o := p.Process(context.Background(), in)
	var rpErr *ReprojectionError
	require.ErrorAs(t, o.Err, &rpErr)
	assert.NoFileExists(t, filepath.Join(dir, "grid_mf.asc"))
}

func TestProcessSkipsReprojectionForEqualCRS(t *testing.T) {
	dir := t.TempDir()
	in := writeFixture(t, dir, "grid.asc", asc4x4Tens)
	// Same CRS as GeoJSON, spelled differently: normalization must see
	// through it and keep the region coordinates bit-exact.
	writeFixture(t, dir, "grid.prj", "+no_defs +datum=WGS84 +proj=longlat +ellps=WGS84")
	regionPath := writeFixture(t, dir, "west.geojson", westHalf)

	o := runOne(t, Request{
		RasterPaths: []string{in},
		RegionPath:  regionPath,
		OutputDir:   dir,
		DefaultFill: -1,
	}, &Runner{Workers: 1})
	require.NoError(t, o.Err)
	assert.InDelta(t, 0.5, o.Coverage, 1e-12)
}

func TestProcessNetCDFPreservesMetadata(t *testing.T) {
	dir := t.TempDir()

	g := raster.NewGrid(4, 4, raster.NorthUp(0, 0, 1, -1))
	g.CRS = crs.LonLatWGS84
	g.Attrs["title"] = "velocity sweep"
	u := g.Bands[0]
	u.Name = "u"
	u.Attrs["units"] = "m/s"
	u.Attrs["_FillValue"] = -9999.0
	v := raster.NewBand("v", 4, 4)
	v.Attrs["units"] = "m/s"
	g.Bands = append(g.Bands, v)
	g.NoData, g.HasNoData = -9999, true
	for r := 0; r < 4; r++ {
		for c := 0; c < 4; c++ {
			u.SetValue(r, c, float64(r*4+c+1))
			v.SetValue(r, c, float64(100-r*4-c))
		}
	}
	// Pre-existing no-data inside the region.
	u.SetValue(2, 1, -9999)

	in := filepath.Join(dir, "wind.nc")
	f, err := os.Create(in)
	require.NoError(t, err)
	require.NoError(t, raster.EncodeTo(g, in, f))
	require.NoError(t, f.Close())

	regionPath := writeFixture(t, dir, "west.geojson", westHalf)
	o := runOne(t, Request{
		RasterPaths: []string{in},
		RegionPath:  regionPath,
		OutputDir:   dir,
		DefaultFill: -1,
	}, &Runner{Workers: 1})
	require.NoError(t, o.Err)
	assert.Equal(t, filepath.Join(dir, "wind_mf.nc"), o.Output)

	got, err := raster.Decode(o.Output)
	require.NoError(t, err)
	require.Len(t, got.Bands, 2, "both bands must survive")

	// Same mask on every band; fill comes from _FillValue, not the
	// request default.
	for r := 0; r < 4; r++ {
		for c := 0; c < 4; c++ {
			if c < 2 {
				assert.Equal(t, u.Value(r, c), got.Bands[0].Value(r, c), "u (%d,%d)", r, c)
				assert.Equal(t, v.Value(r, c), got.Bands[1].Value(r, c), "v (%d,%d)", r, c)
			} else {
				assert.Equal(t, -9999.0, got.Bands[0].Value(r, c), "u (%d,%d)", r, c)
				assert.Equal(t, -9999.0, got.Bands[1].Value(r, c), "v (%d,%d)", r, c)
			}
		}
	}

	assert.Equal(t, "velocity sweep", got.Attrs["title"])
	assert.Equal(t, "m/s", got.Bands[0].Attrs["units"])
	assert.Equal(t, g.XCoords, got.XCoords)
	assert.Equal(t, g.YCoords, got.YCoords)

	// Observed statistics over the kept half of u: values 1,2,5,6,13,14
	// (row 2 kept the no-data cell, which is not an observation) and 9.
	obs := []float64{1, 2, 5, 6, 9, 13, 14}
	sum := 0.0
	for _, x := range obs {
		sum += x
	}
	assert.Equal(t, 14.0, attrNum(t, got.Bands[0].Attrs, "observed_max"))
	assert.Equal(t, 1.0, attrNum(t, got.Bands[0].Attrs, "observed_min"))
	assert.InDelta(t, sum/float64(len(obs)), attrNum(t, got.Bands[0].Attrs, "observed_mean"), 1e-12)
}

func TestProcessNetCDFEmptyRegionDropsObservedStats(t *testing.T) {
	dir := t.TempDir()

	g := raster.NewGrid(2, 2, raster.NorthUp(0, 0, 1, -1))
	g.CRS = crs.LonLatWGS84
	b := g.Bands[0]
	b.Name = "speed"
	b.Attrs["observed_max"] = 99.0
	b.Attrs["observed_min"] = 1.0
	b.Attrs["observed_mean"] = 50.0
	b.SetValue(0, 0, 99)
	b.SetValue(1, 1, 1)

	in := filepath.Join(dir, "speed.nc")
	f, err := os.Create(in)
	require.NoError(t, err)
	require.NoError(t, raster.EncodeTo(g, in, f))
	require.NoError(t, f.Close())

	regionPath := writeFixture(t, dir, "none.geojson", noFeatures)
	o := runOne(t, Request{
		RasterPaths: []string{in},
		RegionPath:  regionPath,
		OutputDir:   dir,
		DefaultFill: -7,
	}, &Runner{Workers: 1})
	require.NoError(t, o.Err)

	got, err := raster.Decode(o.Output)
	require.NoError(t, err)
	assert.Equal(t, -7.0, got.Bands[0].Value(0, 0))
	assert.NotContains(t, got.Bands[0].Attrs, "observed_max",
		"a band with no observations must not carry stale statistics")
	assert.NotContains(t, got.Bands[0].Attrs, "observed_min")
	assert.NotContains(t, got.Bands[0].Attrs, "observed_mean")
}

// --- Cache participation ---

func TestCacheUseAndSave(t *testing.T) {
	dir := t.TempDir()
	in := writeFixture(t, dir, "speed.asc", asc4x4Tens)
	regionPath := writeFixture(t, dir, "west.geojson", westHalf)
	cache := newTestCache(t)
	runner := &Runner{Workers: 1, Cache: cache}
	req := Request{
		RasterPaths: []string{in},
		RegionPath:  regionPath,
		OutputDir:   dir,
		DefaultFill: -1,
		CacheMode:   CacheUseAndSave,
	}

	first := runOne(t, req, runner)
	require.NoError(t, first.Err)
	assert.False(t, first.CacheHit)
	count, _, err := cache.MaskStats()
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)

	firstGrid, err := raster.Decode(first.Output)
	require.NoError(t, err)
	firstVals := append([]float64(nil), firstGrid.Bands[0].Data.Elements...)

	second := runOne(t, req, runner)
	require.NoError(t, second.Err)
	assert.True(t, second.CacheHit)

	secondGrid, err := raster.Decode(second.Output)
	require.NoError(t, err)
	assert.Equal(t, firstVals, secondGrid.Bands[0].Data.Elements,
		"a cached mask must mask exactly like a fresh one")
}

func TestCacheIgnoreAndDeleteClearsEntry(t *testing.T) {
	dir := t.TempDir()
	in := writeFixture(t, dir, "speed.asc", asc4x4Tens)
	regionPath := writeFixture(t, dir, "west.geojson", westHalf)
	cache := newTestCache(t)
	runner := &Runner{Workers: 1, Cache: cache}

	prime := runOne(t, Request{
		RasterPaths: []string{in},
		RegionPath:  regionPath,
		OutputDir:   dir,
		DefaultFill: -1,
		CacheMode:   CacheIgnoreAndSave,
	}, runner)
	require.NoError(t, prime.Err)
	count, _, err := cache.MaskStats()
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)

	o := runOne(t, Request{
		RasterPaths: []string{in},
		RegionPath:  regionPath,
		OutputDir:   dir,
		DefaultFill: -1,
		CacheMode:   CacheIgnoreAndDelete,
	}, runner)
	require.NoError(t, o.Err)
	assert.False(t, o.CacheHit, "ignore_and_delete never reads")
	count, _, err = cache.MaskStats()
	require.NoError(t, err)
	assert.Zero(t, count, "ignore_and_delete clears the entry")
}

func TestCacheIgnoreAndSaveNeverReads(t *testing.T) {
	dir := t.TempDir()
	in := writeFixture(t, dir, "speed.asc", asc4x4Tens)
	regionPath := writeFixture(t, dir, "west.geojson", westHalf)
	cache := newTestCache(t)
	runner := &Runner{Workers: 1, Cache: cache}
	req := Request{
		RasterPaths: []string{in},
		RegionPath:  regionPath,
		OutputDir:   dir,
		DefaultFill: -1,
		CacheMode:   CacheIgnoreAndSave,
	}

	first := runOne(t, req, runner)
	require.NoError(t, first.Err)
	second := runOne(t, req, runner)
	require.NoError(t, second.Err)
	assert.False(t, second.CacheHit, "ignore_and_save recomputes even when an entry exists")
	count, _, err := cache.MaskStats()
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)
}

func TestCacheUseDoesNotStore(t *testing.T) {
	dir := t.TempDir()
	in := writeFixture(t, dir, "speed.asc", asc4x4Tens)
	regionPath := writeFixture(t, dir, "west.geojson", westHalf)
	cache := newTestCache(t)
	runner := &Runner{Workers: 1, Cache: cache}

	o := runOne(t, Request{
		RasterPaths: []string{in},
		RegionPath:  regionPath,
		OutputDir:   dir,
		DefaultFill: -1,
		CacheMode:   CacheUse,
	}, runner)
	require.NoError(t, o.Err)
	assert.False(t, o.CacheHit)
	count, _, err := cache.MaskStats()
	require.NoError(t, err)
	assert.Zero(t, count, "use_cache computes on a miss but stores nothing")
}

func TestCacheUseDeleteConsumesEntry(t *testing.T) {
	dir := t.TempDir()
	in := writeFixture(t, dir, "speed.asc", asc4x4Tens)
	regionPath := writeFixture(t, dir, "west.geojson", westHalf)
	cache := newTestCache(t)
	runner := &Runner{Workers: 1, Cache: cache}

	prime := runOne(t, Request{
		RasterPaths: []string{in},
		RegionPath:  regionPath,
		OutputDir:   dir,
		DefaultFill: -1,
		CacheMode:   CacheIgnoreAndSave,
	}, runner)
	require.NoError(t, prime.Err)

	o := runOne(t, Request{
		RasterPaths: []string{in},
		RegionPath:  regionPath,
		OutputDir:   dir,
		DefaultFill: -1,
		CacheMode:   CacheUseDelete,
	}, runner)
	require.NoError(t, o.Err)
	assert.True(t, o.CacheHit)
	count, _, err := cache.MaskStats()
	require.NoError(t, err)
	assert.Zero(t, count, "use_cache_delete removes the row after reading it")
}

func TestCacheMaskGridOnly(t *testing.T) {
	dir := t.TempDir()
	in := writeFixture(t, dir, "speed.asc", asc4x4Tens)
	regionPath := writeFixture(t, dir, "west.geojson", westHalf)
	cache := newTestCache(t)
	runner := &Runner{Workers: 1, Cache: cache}

	o := runOne(t, Request{
		RasterPaths: []string{in},
		RegionPath:  regionPath,
		OutputDir:   dir,
		DefaultFill: -1,
		CacheMode:   CacheMaskGridOnly,
	}, runner)
	require.NoError(t, o.Err)
	assert.Empty(t, o.Output)
	assert.InDelta(t, 0.5, o.Coverage, 1e-12)
	assert.NoFileExists(t, filepath.Join(dir, "speed_mf.asc"))

	count, _, err := cache.MaskStats()
	require.NoError(t, err)
	assert.EqualValues(t, 1, count, "maskgrid_only persists the mask for later runs")
}

func TestCacheCorruptEntryIsDroppedAndRecomputed(t *testing.T) {
	logs := captureLogs(t)
	dir := t.TempDir()
	in := writeFixture(t, dir, "speed.asc", asc4x4Tens)
	regionPath := writeFixture(t, dir, "west.geojson", westHalf)
	cache := newTestCache(t)

	g, err := raster.Decode(in)
	require.NoError(t, err)
	key := mask.CacheKey(g.CRS, g.Transform, g.Rows(), g.Cols(), regionPath, mask.Options{})
	require.NoError(t, cache.PutMask(db.MaskRecord{
		Key: key, Transform: g.Transform.String(), Rows: 4, Cols: 4,
		RegionPath: regionPath, Blob: []byte("not a mask blob"),
	}))

	o := runOne(t, Request{
		RasterPaths: []string{in},
		RegionPath:  regionPath,
		OutputDir:   dir,
		DefaultFill: -1,
		CacheMode:   CacheUse,
	}, &Runner{Workers: 1, Cache: cache})
	require.NoError(t, o.Err, "a corrupt cache entry must not fail the run")
	assert.False(t, o.CacheHit)
	assert.InDelta(t, 0.5, o.Coverage, 1e-12)

	count, _, err := cache.MaskStats()
	require.NoError(t, err)
	assert.Zero(t, count, "the corrupt row is removed")

	found := false
	for _, line := range *logs {
		if strings.Contains(line, "corrupt mask cache entry") {
			found = true
		}
	}
	assert.True(t, found, "expected a log line about the dropped entry, logs: %v", *logs)
}
