package maskfill

import (
	"context"
	"fmt"
	"path/filepath"
	"runtime"
	"strings"
	"sync"

	"github.com/granule-data/maskfill/internal/db"
	"github.com/granule-data/maskfill/internal/fsutil"
	"github.com/granule-data/maskfill/internal/raster"
	"github.com/granule-data/maskfill/internal/region"
)

// Request is a full mask-fill run as submitted from the CLI or the
// service API: the rasters to process, the region to keep, and the
// options shared by every file.
type Request struct {
	RasterPaths []string
	RegionPath  string
	OutputDir   string
	DefaultFill float64
	CacheMode   CacheMode
	AllTouched  bool
}

// Validate rejects a request before any file is touched. Failures are
// parameter errors carrying the argument name, so the agent response can
// report the right exception code.
func (req *Request) Validate() error {
	if len(req.RasterPaths) == 0 {
		return &ParameterError{Name: "FILE_URLS", Missing: true}
	}
	if req.RegionPath == "" {
		return &ParameterError{Name: "SHAPEFILE", Missing: true}
	}
	for _, p := range req.RasterPaths {
		if hasURLScheme(p) {
			return &ParameterError{
				Name:   "FILE_URLS",
				Reason: fmt.Sprintf("remote URLs are not supported; stage %s locally first", p),
			}
		}
		if _, ok := raster.FormatFor(p); !ok {
			return &ParameterError{
				Name:   "FILE_URLS",
				Reason: fmt.Sprintf("unsupported raster container %q in %s", filepath.Ext(p), p),
			}
		}
		if !fsutil.Exists(p) {
			return &ParameterError{Name: "FILE_URLS", Reason: fmt.Sprintf("input %s does not exist", p)}
		}
	}
	if hasURLScheme(req.RegionPath) {
		return &ParameterError{
			Name:   "SHAPEFILE",
			Reason: fmt.Sprintf("remote URLs are not supported; stage %s locally first", req.RegionPath),
		}
	}
	switch ext := strings.ToLower(filepath.Ext(req.RegionPath)); ext {
	case ".shp", ".geojson", ".json", ".fgb":
	default:
		return &ParameterError{
			Name:   "SHAPEFILE",
			Reason: fmt.Sprintf("unsupported region format %q (want .shp, .geojson or .fgb)", ext),
		}
	}
	if !fsutil.Exists(req.RegionPath) {
		return &ParameterError{Name: "SHAPEFILE", Reason: fmt.Sprintf("region %s does not exist", req.RegionPath)}
	}
	if _, err := ParseCacheMode(string(req.CacheMode)); err != nil {
		return &ParameterError{Name: "MASK_GRID_CACHE", Reason: err.Error()}
	}
	return nil
}

// hasURLScheme reports whether p looks like a URL rather than a local
// path. The original service passed its FILE_URLS parameters straight to
// the filesystem, so anything with a scheme deserves an explicit
// rejection instead of a confusing not-found error.
func hasURLScheme(p string) bool {
	i := strings.Index(p, "://")
	return i > 0 && !strings.ContainsAny(p[:i], `/\`)
}

// Runner executes batches against the worker pool. The zero value runs
// with one worker per CPU and no cache.
type Runner struct {
	// Workers bounds the number of files processed concurrently.
	// Zero or negative means one per CPU.
	Workers int
	// Cache is the mask cache handle, shared by all workers. Optional.
	Cache *db.DB
}

// Run validates the request, loads the region once, and processes every
// raster. A failure on one file never stops the others; the returned
// outcomes are in input order, one per raster. The error return is for
// run-level failures (bad request, unreadable region, unusable output
// directory) that stop the batch before per-file work starts.
func (r *Runner) Run(ctx context.Context, req Request) ([]Outcome, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if req.CacheMode == "" {
		req.CacheMode = CacheIgnoreAndDelete
	}

	reg, err := region.Load(req.RegionPath)
	if err != nil {
		return nil, classifyRegionError(req.RegionPath, err)
	}

	if req.OutputDir != "" && !req.CacheMode.SkipsRaster() {
		if err := fsutil.EnsureDir(req.OutputDir); err != nil {
			return nil, &IOError{Path: req.OutputDir, Err: err}
		}
	}

	p := &Pipeline{
		Region:      reg,
		Cache:       r.Cache,
		Mode:        req.CacheMode,
		OutputDir:   req.OutputDir,
		DefaultFill: req.DefaultFill,
		AllTouched:  req.AllTouched,
	}

	outcomes := make([]Outcome, len(req.RasterPaths))
	workers := r.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if workers > len(req.RasterPaths) {
		workers = len(req.RasterPaths)
	}

	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				outcomes[i] = p.Process(ctx, req.RasterPaths[i])
			}
		}()
	}

	// Cancellation stops handing out files; whatever a worker already
	// holds runs to completion.
	scheduled := len(req.RasterPaths)
feed:
	for i := range req.RasterPaths {
		select {
		case jobs <- i:
		case <-ctx.Done():
			scheduled = i
			break feed
		}
	}
	close(jobs)
	wg.Wait()

	for i := scheduled; i < len(req.RasterPaths); i++ {
		outcomes[i] = Outcome{Input: req.RasterPaths[i], Err: ctx.Err()}
	}
	return outcomes, nil
}

// Failed reports how many outcomes carry an error.
func Failed(outcomes []Outcome) int {
	n := 0
	for _, o := range outcomes {
		if o.Err != nil {
			n++
		}
	}
	return n
}
