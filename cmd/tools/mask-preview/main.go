// Package main provides a visual check on mask-fill inputs and the mask
// cache: it renders a raster band, a freshly rasterized region mask, or
// a cached mask blob as a heatmap PNG.
package main

import (
	"flag"
	"fmt"
	"log"
	"math"
	"os"
	"path/filepath"
	"strings"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	_ "modernc.org/sqlite"

	"github.com/granule-data/maskfill/internal/crs"
	"github.com/granule-data/maskfill/internal/db"
	"github.com/granule-data/maskfill/internal/mask"
	"github.com/granule-data/maskfill/internal/raster"
	"github.com/granule-data/maskfill/internal/region"
)

var (
	in         = flag.String("in", "", "Raster file to render")
	band       = flag.Int("band", 0, "Band index to render")
	regionPath = flag.String("region", "", "Region file; renders the rasterized mask for -in instead of its samples")
	allTouched = flag.Bool("all-touched", false, "Rasterize with all-touched containment")
	cachePath  = flag.String("cache-db", "", "Mask cache database; renders the mask under -key, or lists entries")
	key        = flag.String("key", "", "Cache key of the mask to render (with -cache-db)")
	out        = flag.String("out", "", "Output PNG path (default: derived from the input)")
)

func main() {
	flag.Parse()

	switch {
	case *cachePath != "" && *key != "":
		renderCachedMask(*cachePath, *key, *out)
	case *cachePath != "":
		listCache(*cachePath)
	case *in != "" && *regionPath != "":
		renderRegionMask(*in, *regionPath, *allTouched, *out)
	case *in != "":
		renderBand(*in, *band, *out)
	default:
		fmt.Fprintln(os.Stderr, "Usage: mask-preview -in raster.nc [-band N] [-region region.shp] [-out preview.png]")
		fmt.Fprintln(os.Stderr, "       mask-preview -cache-db maskfill-cache.db [-key <mask key>]")
		flag.PrintDefaults()
		os.Exit(1)
	}
}

// renderBand plots one band's samples, drawing fill cells as gaps.
func renderBand(path string, idx int, out string) {
	g, err := raster.Decode(path)
	if err != nil {
		log.Fatalf("Failed to decode %s: %v", path, err)
	}
	if idx < 0 || idx >= len(g.Bands) {
		log.Fatalf("Band %d out of range: %s has %d band(s)", idx, path, len(g.Bands))
	}

	plotted := g.Clone()
	b := plotted.Bands[idx]
	if fill, ok := fillOf(plotted, b); ok {
		for r := 0; r < b.Rows(); r++ {
			for c := 0; c < b.Cols(); c++ {
				if b.Value(r, c) == fill {
					b.SetValue(r, c, math.NaN())
				}
			}
		}
	}

	if out == "" {
		out = derivedName(path, fmt.Sprintf("_band%d.png", idx))
	}
	title := fmt.Sprintf("%s [%s]", filepath.Base(path), b.Name)
	savePNG(plotted.View(idx), title, out)
}

// renderRegionMask rasterizes the region onto the raster's grid and plots
// the resulting mask, reconciling CRSes the way the pipeline does.
func renderRegionMask(rasterPath, regionPath string, allTouched bool, out string) {
	g, err := raster.Decode(rasterPath)
	if err != nil {
		log.Fatalf("Failed to decode %s: %v", rasterPath, err)
	}
	reg, err := region.Load(regionPath)
	if err != nil {
		log.Fatalf("Failed to load region %s: %v", regionPath, err)
	}
	if g.CRS != "" && reg.HasCRS() && !(reg.CRS != "" && crs.Equal(reg.CRS, g.CRS)) {
		if reg, err = reg.Reproject(g.CRS); err != nil {
			log.Fatalf("Failed to reproject %s onto %s: %v", regionPath, rasterPath, err)
		}
	}

	m, err := mask.Rasterize(reg, g.Transform, g.Rows(), g.Cols(), mask.Options{AllTouched: allTouched})
	if err != nil {
		log.Fatalf("Failed to rasterize %s: %v", regionPath, err)
	}
	log.Printf("%d of %d cells inside (%.1f%%)", m.CountInside(), g.Rows()*g.Cols(), 100*m.Fraction())

	if out == "" {
		out = derivedName(rasterPath, "_mask.png")
	}
	title := fmt.Sprintf("%s over %s", filepath.Base(regionPath), filepath.Base(rasterPath))
	savePNG(maskView(m, g.Transform), title, out)
}

// renderCachedMask loads a mask blob from the cache and plots it.
func renderCachedMask(cachePath, key, out string) {
	database, err := db.NewDB(cachePath)
	if err != nil {
		log.Fatalf("Failed to open cache %s: %v", cachePath, err)
	}
	defer database.Close()

	rec, err := database.GetMask(key)
	if err != nil {
		log.Fatalf("Failed to load mask %s: %v", key, err)
	}
	if rec == nil {
		log.Fatalf("No cached mask under key %s", key)
	}

	m, err := mask.Deserialize(rec.Blob)
	if err != nil {
		log.Fatalf("Cached mask %s is corrupt: %v", key, err)
	}
	tr, err := raster.ParseAffine(rec.Transform)
	if err != nil {
		log.Fatalf("Cached mask %s: %v", key, err)
	}

	if out == "" {
		out = strings.TrimSuffix(filepath.Base(rec.RegionPath), filepath.Ext(rec.RegionPath)) + "_mask.png"
	}
	title := fmt.Sprintf("cached mask %s (%s)", shortKey(key), filepath.Base(rec.RegionPath))
	savePNG(maskView(m, tr), title, out)
}

// listCache prints the cache entries so the operator can pick a key.
func listCache(cachePath string) {
	database, err := db.NewDB(cachePath)
	if err != nil {
		log.Fatalf("Failed to open cache %s: %v", cachePath, err)
	}
	defer database.Close()

	records, err := database.ListMasks(50)
	if err != nil {
		log.Fatalf("Failed to list cache %s: %v", cachePath, err)
	}
	if len(records) == 0 {
		fmt.Println("cache is empty")
		return
	}

	fmt.Println("=== Cached Masks ===")
	for _, rec := range records {
		fmt.Printf("%s  %dx%d  inside=%d  uses=%d  %s\n",
			rec.Key, rec.Rows, rec.Cols, rec.CellsInside, rec.UseCount, rec.RegionPath)
	}
	fmt.Printf("\n%d entr(ies); pass -key to render one\n", len(records))
}

// maskView wraps a mask as a plottable grid: 1 inside, 0 outside.
func maskView(m *mask.Mask, tr raster.Affine) raster.BandView {
	b := raster.NewBand("mask", m.Rows, m.Cols)
	for r := 0; r < m.Rows; r++ {
		for c := 0; c < m.Cols; c++ {
			if m.At(r, c) {
				b.SetValue(r, c, 1)
			}
		}
	}
	return raster.BandView{Band: b, Transform: tr}
}

func savePNG(view raster.BandView, title, out string) {
	h := plotter.NewHeatMap(view, palette.Heat(12, 255))
	if h.Min == h.Max {
		// A uniform grid still deserves a color.
		h.Max = h.Min + 1
	}

	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "x"
	p.Y.Label.Text = "y"
	p.Add(h)

	if err := p.Save(10*vg.Inch, 8*vg.Inch, out); err != nil {
		log.Fatalf("Failed to save %s: %v", out, err)
	}
	fmt.Printf("✓ wrote %s\n", out)
}

func derivedName(path, suffix string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base)) + suffix
}

func shortKey(key string) string {
	if len(key) > 12 {
		return key[:12]
	}
	return key
}
