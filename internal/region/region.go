// Package region loads and validates the vector geometry a raster is
// masked against. Geometry parsing is delegated to the format libraries
// (shapefile, GeoJSON, FlatGeobuf); this package normalizes their output
// to a polygon set with a CRS and enforces the well-formedness rules the
// rasterizer depends on.
package region

import (
	"errors"
	"fmt"

	"github.com/ctessum/geom"
	"github.com/ctessum/geom/proj"
	"github.com/paulmach/orb"

	"github.com/granule-data/maskfill/internal/crs"
)

// ErrGeometry marks region content that is structurally invalid: unclosed
// or collapsed rings, non-polygonal features. Container-level decode
// failures are reported as plain errors and classified separately.
var ErrGeometry = errors.New("invalid region geometry")

// Region is a polygon set in a single CRS. An empty polygon set is valid
// and masks everything out.
//
// CRS is the PROJ4 form when the source states one in terms this package
// can canonicalize. SR is the parsed spatial reference when the source
// carries one in another encoding (a shapefile's WKT sidecar); it is what
// Reproject transforms from when set. Both may be empty, in which case the
// region is taken to already be in the raster's CRS.
type Region struct {
	Polygons []geom.Polygon
	CRS      string
	SR       *proj.SR
	Source   string // path the region was loaded from
}

// Empty reports whether the region contains no polygons.
func (r *Region) Empty() bool { return len(r.Polygons) == 0 }

// Validate enforces ring well-formedness: every ring closed (first vertex
// equals last), at least 4 vertices including the closure, and non-zero
// area. Returns an ErrGeometry-tagged error naming the offending ring.
func (r *Region) Validate() error {
	for pi, poly := range r.Polygons {
		if len(poly) == 0 {
			return fmt.Errorf("%w: polygon %d has no rings", ErrGeometry, pi)
		}
		for ri, ring := range poly {
			if len(ring) < 4 {
				return fmt.Errorf("%w: polygon %d ring %d has %d vertices, need at least 4",
					ErrGeometry, pi, ri, len(ring))
			}
			if ring[0] != ring[len(ring)-1] {
				return fmt.Errorf("%w: polygon %d ring %d is not closed", ErrGeometry, pi, ri)
			}
			if ringArea(ring) == 0 {
				return fmt.Errorf("%w: polygon %d ring %d has zero area", ErrGeometry, pi, ri)
			}
		}
	}
	return nil
}

// ringArea is the shoelace area of a closed ring (sign dropped).
func ringArea(ring []geom.Point) float64 {
	var sum float64
	for i := 0; i < len(ring)-1; i++ {
		sum += ring[i].X*ring[i+1].Y - ring[i+1].X*ring[i].Y
	}
	if sum < 0 {
		sum = -sum
	}
	return sum / 2
}

// Bounds returns the bounding box of all polygons, or nil for an empty
// region.
func (r *Region) Bounds() *geom.Bounds {
	var b *geom.Bounds
	for _, poly := range r.Polygons {
		pb := poly.Bounds()
		if b == nil {
			b = &geom.Bounds{Min: pb.Min, Max: pb.Max}
			continue
		}
		if pb.Min.X < b.Min.X {
			b.Min.X = pb.Min.X
		}
		if pb.Min.Y < b.Min.Y {
			b.Min.Y = pb.Min.Y
		}
		if pb.Max.X > b.Max.X {
			b.Max.X = pb.Max.X
		}
		if pb.Max.Y > b.Max.Y {
			b.Max.Y = pb.Max.Y
		}
	}
	return b
}

// HasCRS reports whether the region's spatial reference is known in any
// form.
func (r *Region) HasCRS() bool { return r.CRS != "" || r.SR != nil }

// Reproject returns a copy of the region transformed into the target CRS.
// The region's own CRS must be known; a failed transform is reported to
// the caller, which surfaces it as a reprojection failure.
func (r *Region) Reproject(targetProj4 string) (*Region, error) {
	srcSR := r.SR
	if srcSR == nil {
		if r.CRS == "" {
			return nil, fmt.Errorf("region %s carries no CRS, cannot reproject", r.Source)
		}
		var err error
		srcSR, err = crs.Parse(r.CRS)
		if err != nil {
			return nil, err
		}
	}
	dstSR, err := crs.Parse(targetProj4)
	if err != nil {
		return nil, err
	}
	t, err := srcSR.NewTransform(dstSR)
	if err != nil {
		return nil, fmt.Errorf("build transform for %s: %w", r.Source, err)
	}
	out := &Region{CRS: targetProj4, Source: r.Source, Polygons: make([]geom.Polygon, len(r.Polygons))}
	for i, poly := range r.Polygons {
		tg, err := poly.Transform(t)
		if err != nil {
			return nil, fmt.Errorf("reproject polygon %d of %s: %w", i, r.Source, err)
		}
		tp, ok := tg.(geom.Polygon)
		if !ok {
			return nil, fmt.Errorf("reproject polygon %d of %s: transform produced %T", i, r.Source, tg)
		}
		out.Polygons[i] = tp
	}
	return out, nil
}

// ToOrb converts the polygon set to an orb.MultiPolygon, the form the
// planar containment predicates take.
func (r *Region) ToOrb() orb.MultiPolygon {
	mp := make(orb.MultiPolygon, len(r.Polygons))
	for i, poly := range r.Polygons {
		op := make(orb.Polygon, len(poly))
		for j, ring := range poly {
			or := make(orb.Ring, len(ring))
			for k, pt := range ring {
				or[k] = orb.Point{pt.X, pt.Y}
			}
			op[j] = or
		}
		mp[i] = op
	}
	return mp
}

// polygonsFromOrb flattens an orb geometry into geom polygons. Anything
// non-polygonal is an ErrGeometry error; the masking region must be areal.
func polygonsFromOrb(g orb.Geometry) ([]geom.Polygon, error) {
	switch t := g.(type) {
	case orb.Polygon:
		return []geom.Polygon{polygonFromOrb(t)}, nil
	case orb.MultiPolygon:
		out := make([]geom.Polygon, len(t))
		for i, p := range t {
			out[i] = polygonFromOrb(p)
		}
		return out, nil
	case orb.Collection:
		var out []geom.Polygon
		for _, child := range t {
			polys, err := polygonsFromOrb(child)
			if err != nil {
				return nil, err
			}
			out = append(out, polys...)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("%w: %s geometry cannot mask an area", ErrGeometry, g.GeoJSONType())
	}
}

func polygonFromOrb(p orb.Polygon) geom.Polygon {
	out := make(geom.Polygon, len(p))
	for i, ring := range p {
		gr := make([]geom.Point, len(ring))
		for j, pt := range ring {
			gr[j] = geom.Point{X: pt[0], Y: pt[1]}
		}
		out[i] = gr
	}
	return out
}

// polygonsFromGeom flattens a decoded geom value into polygons, rejecting
// non-areal geometry.
func polygonsFromGeom(g geom.Geom) ([]geom.Polygon, error) {
	switch t := g.(type) {
	case geom.Polygon:
		return []geom.Polygon{t}, nil
	case geom.MultiPolygon:
		return append([]geom.Polygon(nil), t...), nil
	default:
		return nil, fmt.Errorf("%w: %T geometry cannot mask an area", ErrGeometry, g)
	}
}
