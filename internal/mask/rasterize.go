package mask

import (
	"fmt"
	"math"
	"sort"

	"github.com/ctessum/geom"
	"github.com/ctessum/geom/index/rtree"

	"github.com/granule-data/maskfill/internal/raster"
	"github.com/granule-data/maskfill/internal/region"
)

// Options control how region geometry maps to cells.
type Options struct {
	// AllTouched retains every cell the region boundary passes through in
	// addition to the cells whose centers fall inside. The default keeps
	// only center-inside cells.
	AllTouched bool
}

// Rasterize burns a region, already in the grid's CRS, onto a grid
// geometry. Polygons are rasterized independently and unioned, so
// overlapping polygons do not cancel; holes within a polygon are
// respected through even-odd counting across its rings.
func Rasterize(reg *region.Region, tr raster.Affine, rows, cols int, opts Options) (*Mask, error) {
	if rows <= 0 || cols <= 0 {
		return nil, fmt.Errorf("rasterize: invalid grid shape %dx%d", rows, cols)
	}
	m := New(rows, cols)
	if reg.Empty() {
		return m, nil
	}

	inv, err := tr.Invert()
	if err != nil {
		return nil, fmt.Errorf("rasterize: %w", err)
	}

	// Prune polygons that cannot touch the raster extent. The tree pays
	// off on multi-feature regions; it also makes the fully disjoint case
	// a no-op.
	tree := rtree.NewTree(25, 50)
	for _, poly := range reg.Polygons {
		tree.Insert(poly)
	}
	for _, hit := range tree.SearchIntersect(gridBounds(tr, rows, cols)) {
		poly, ok := hit.(geom.Polygon)
		if !ok {
			return nil, fmt.Errorf("rasterize: unexpected index entry %T", hit)
		}
		pix := toPixelSpace(poly, inv)
		fillPolygon(m, pix)
		if opts.AllTouched {
			traceBoundary(m, pix)
		}
	}
	return m, nil
}

// gridBounds is the world-space extent of the raster, from its corners.
// Corner order is irrelevant; min/max absorb axis flips.
func gridBounds(tr raster.Affine, rows, cols int) *geom.Bounds {
	b := &geom.Bounds{
		Min: geom.Point{X: math.Inf(1), Y: math.Inf(1)},
		Max: geom.Point{X: math.Inf(-1), Y: math.Inf(-1)},
	}
	for _, corner := range [4][2]float64{{0, 0}, {float64(cols), 0}, {0, float64(rows)}, {float64(cols), float64(rows)}} {
		x, y := tr.Apply(corner[0], corner[1])
		b.Min.X = math.Min(b.Min.X, x)
		b.Min.Y = math.Min(b.Min.Y, y)
		b.Max.X = math.Max(b.Max.X, x)
		b.Max.Y = math.Max(b.Max.Y, y)
	}
	return b
}

// toPixelSpace maps a polygon's rings through the inverse geotransform,
// so ring coordinates become fractional (col, row) positions.
func toPixelSpace(poly geom.Polygon, inv raster.Affine) geom.Polygon {
	out := make(geom.Polygon, len(poly))
	for i, ring := range poly {
		pr := make([]geom.Point, len(ring))
		for j, pt := range ring {
			col, row := inv.Apply(pt.X, pt.Y)
			pr[j] = geom.Point{X: col, Y: row}
		}
		out[i] = pr
	}
	return out
}

// fillPolygon scan-converts one polygon in pixel space: for each row of
// cell centers (row + 0.5), edge crossings across all rings are collected
// and sorted, and cells between alternating pairs are set. The half-open
// crossing rule (min <= y < max) counts each vertex once.
func fillPolygon(m *Mask, poly geom.Polygon) {
	var xs []float64
	for row := 0; row < m.Rows; row++ {
		y := float64(row) + 0.5
		xs = xs[:0]
		for _, ring := range poly {
			for i := 0; i < len(ring)-1; i++ {
				y1, y2 := ring[i].Y, ring[i+1].Y
				if (y1 <= y && y < y2) || (y2 <= y && y < y1) {
					x1, x2 := ring[i].X, ring[i+1].X
					xs = append(xs, x1+(y-y1)*(x2-x1)/(y2-y1))
				}
			}
		}
		if len(xs) < 2 {
			continue
		}
		sort.Float64s(xs)
		for i := 0; i+1 < len(xs); i += 2 {
			// A cell is in iff its center col+0.5 lies in [xs[i], xs[i+1]).
			cStart := int(math.Ceil(xs[i] - 0.5))
			cEnd := int(math.Ceil(xs[i+1]-0.5)) - 1
			if cStart < 0 {
				cStart = 0
			}
			if cEnd > m.Cols-1 {
				cEnd = m.Cols - 1
			}
			for c := cStart; c <= cEnd; c++ {
				m.set(row, c)
			}
		}
	}
}

// traceBoundary marks every cell each ring segment passes through, the
// all-touched complement to center testing.
func traceBoundary(m *Mask, poly geom.Polygon) {
	for _, ring := range poly {
		for i := 0; i < len(ring)-1; i++ {
			traceSegment(m, ring[i].X, ring[i].Y, ring[i+1].X, ring[i+1].Y)
		}
	}
}

// traceSegment walks the cells a segment crosses using grid traversal
// (Amanatides & Woo): advance to whichever cell boundary the ray reaches
// first until the end cell is marked.
func traceSegment(m *Mask, x0, y0, x1, y1 float64) {
	cx, cy := int(math.Floor(x0)), int(math.Floor(y0))
	ex, ey := int(math.Floor(x1)), int(math.Floor(y1))
	dx, dy := x1-x0, y1-y0

	stepX, stepY := 0, 0
	tMaxX, tMaxY := math.Inf(1), math.Inf(1)
	tDeltaX, tDeltaY := math.Inf(1), math.Inf(1)
	if dx > 0 {
		stepX, tMaxX, tDeltaX = 1, (float64(cx+1)-x0)/dx, 1/dx
	} else if dx < 0 {
		stepX, tMaxX, tDeltaX = -1, (float64(cx)-x0)/dx, -1/dx
	}
	if dy > 0 {
		stepY, tMaxY, tDeltaY = 1, (float64(cy+1)-y0)/dy, 1/dy
	} else if dy < 0 {
		stepY, tMaxY, tDeltaY = -1, (float64(cy)-y0)/dy, -1/dy
	}

	// Bounded by the cell distance plus slack for boundary-exact starts.
	limit := abs(ex-cx) + abs(ey-cy) + 4
	for n := 0; n < limit; n++ {
		markClamped(m, cy, cx)
		if cx == ex && cy == ey {
			return
		}
		if tMaxX < tMaxY {
			cx += stepX
			tMaxX += tDeltaX
		} else {
			cy += stepY
			tMaxY += tDeltaY
		}
	}
	markClamped(m, ey, ex)
}

func markClamped(m *Mask, row, col int) {
	if row < 0 || row >= m.Rows || col < 0 || col >= m.Cols {
		return
	}
	m.set(row, col)
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
