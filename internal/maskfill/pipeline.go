package maskfill

import (
	"context"
	"os"
	"time"

	"github.com/granule-data/maskfill/internal/crs"
	"github.com/granule-data/maskfill/internal/db"
	"github.com/granule-data/maskfill/internal/fsutil"
	"github.com/granule-data/maskfill/internal/mask"
	"github.com/granule-data/maskfill/internal/monitoring"
	"github.com/granule-data/maskfill/internal/raster"
	"github.com/granule-data/maskfill/internal/region"
)

// Pipeline holds what every file in a run shares: the loaded region, the
// cache handle, and the fill and burn options. It is safe for concurrent
// Process calls; per-file state never leaves the call.
type Pipeline struct {
	Region      *region.Region
	Cache       *db.DB // nil disables cache participation entirely
	Mode        CacheMode
	OutputDir   string
	DefaultFill float64
	AllTouched  bool
}

// Outcome reports one file's result. Every input gets exactly one,
// success or failure.
type Outcome struct {
	Input    string
	Output   string // empty on failure and in maskgrid_only runs
	Coverage float64
	CacheHit bool
	Duration time.Duration
	Err      error
}

// Process runs the pipeline for one raster file.
func (p *Pipeline) Process(ctx context.Context, rasterPath string) Outcome {
	start := time.Now()
	out := Outcome{Input: rasterPath}
	out.Err = p.process(ctx, rasterPath, &out)
	out.Duration = time.Since(start)
	return out
}

func (p *Pipeline) process(ctx context.Context, rasterPath string, out *Outcome) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	g, err := raster.Decode(rasterPath)
	if err != nil {
		return &FormatError{Path: rasterPath, Err: err}
	}

	reg, err := p.regionForGrid(g)
	if err != nil {
		return err
	}

	m, hit, err := p.resolveMask(g, reg)
	if err != nil {
		return err
	}
	out.CacheHit = hit
	out.Coverage = m.Fraction()
	if out.Coverage == 0 {
		monitoring.Logf("region %s does not cover any cell of %s; output will be all fill",
			reg.Source, rasterPath)
	}
	if p.Mode.SkipsRaster() {
		return nil
	}

	fill := p.DefaultFill
	if g.HasNoData {
		fill = g.NoData
	}
	for _, b := range g.Bands {
		if err := m.Apply(b, fill); err != nil {
			return err
		}
		updateObservedStats(b, fill)
	}

	outPath := OutputPath(p.OutputDir, rasterPath)
	err = fsutil.WriteAtomic(outPath, func(f *os.File) error {
		return raster.EncodeTo(g, outPath, f)
	})
	if err != nil {
		return &IOError{Path: outPath, Err: err}
	}
	out.Output = outPath
	return nil
}

// regionForGrid reconciles the region's coordinate system with the
// grid's. Matching systems skip reprojection, keeping region coordinates
// bit-exact; so does a side that declares no system at all, which treats
// the two as already aligned. Differing declared systems go through
// proj, and the absence of a transform between them is a reprojection
// error. A shapefile whose sidecar is WKT rather than PROJ4 has no
// canonical string to compare, so it always reprojects.
func (p *Pipeline) regionForGrid(g *raster.Grid) (*region.Region, error) {
	reg := p.Region
	if g.CRS == "" || !reg.HasCRS() {
		return reg, nil
	}
	if reg.CRS != "" && crs.Equal(reg.CRS, g.CRS) {
		return reg, nil
	}
	rp, err := reg.Reproject(g.CRS)
	if err != nil {
		from := reg.CRS
		if from == "" {
			from = reg.Source
		}
		return nil, &ReprojectionError{From: from, To: g.CRS, Err: err}
	}
	return rp, nil
}

// resolveMask produces the mask for the grid's geometry, consulting the
// cache per the configured mode. Cache trouble degrades to computing
// fresh: a broken cache slows a run down, it never fails one.
func (p *Pipeline) resolveMask(g *raster.Grid, reg *region.Region) (*mask.Mask, bool, error) {
	opts := mask.Options{AllTouched: p.AllTouched}
	rows, cols := g.Rows(), g.Cols()
	key := mask.CacheKey(g.CRS, g.Transform, rows, cols, reg.Source, opts)

	if p.Cache != nil && p.Mode.readsCache() {
		if m := p.readCached(key, rows, cols); m != nil {
			if p.Mode.clearsEntry() {
				p.deleteEntry(key)
			}
			return m, true, nil
		}
	}

	m, err := mask.Rasterize(reg, g.Transform, rows, cols, opts)
	if err != nil {
		return nil, false, &GeometryError{Path: reg.Source, Err: err}
	}

	if p.Cache != nil {
		switch {
		case p.Mode.savesMask():
			p.saveEntry(key, g, reg, m)
		case p.Mode == CacheIgnoreAndDelete:
			p.deleteEntry(key)
		}
	}
	return m, false, nil
}

// readCached loads and decodes the cache row for key, dropping rows that
// are corrupt or shaped for a different grid.
func (p *Pipeline) readCached(key string, rows, cols int) *mask.Mask {
	rec, err := p.Cache.GetMask(key)
	if err != nil {
		monitoring.Logf("mask cache read failed for %s: %v", key, err)
		return nil
	}
	if rec == nil {
		return nil
	}
	m, err := mask.Deserialize(rec.Blob)
	if err != nil {
		monitoring.Logf("dropping corrupt mask cache entry %s: %v", key, err)
		p.deleteEntry(key)
		return nil
	}
	if m.Rows != rows || m.Cols != cols {
		monitoring.Logf("dropping mask cache entry %s: shape %dx%d does not match grid %dx%d",
			key, m.Rows, m.Cols, rows, cols)
		p.deleteEntry(key)
		return nil
	}
	return m
}

func (p *Pipeline) saveEntry(key string, g *raster.Grid, reg *region.Region, m *mask.Mask) {
	blob, err := m.Serialize()
	if err != nil {
		monitoring.Logf("mask cache serialize failed for %s: %v", key, err)
		return
	}
	rec := db.MaskRecord{
		Key:         key,
		CRS:         g.CRS,
		Transform:   g.Transform.String(),
		Rows:        m.Rows,
		Cols:        m.Cols,
		RegionPath:  reg.Source,
		AllTouched:  p.AllTouched,
		CellsInside: m.CountInside(),
		Blob:        blob,
	}
	if err := p.Cache.PutMask(rec); err != nil {
		monitoring.Logf("mask cache write failed for %s: %v", key, err)
	}
}

func (p *Pipeline) deleteEntry(key string) {
	if err := p.Cache.DeleteMask(key); err != nil {
		monitoring.Logf("mask cache delete failed for %s: %v", key, err)
	}
}
