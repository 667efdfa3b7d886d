package region

import (
	"fmt"

	flatgeobuf "github.com/flatgeobuf/flatgeobuf/src/go"
	"github.com/flatgeobuf/flatgeobuf/src/go/flattypes"
	"github.com/paulmach/orb"

	"github.com/granule-data/maskfill/internal/crs"
)

// loadFlatGeobuf reads every feature of a FlatGeobuf file. The official
// Go implementation only exposes features through the spatial index, so
// "read everything" is a search over the header envelope; files written
// without an index are rejected.
func loadFlatGeobuf(path string) (*Region, error) {
	fgb, err := flatgeobuf.New(path)
	if err != nil {
		return nil, fmt.Errorf("open flatgeobuf %s: %w", path, err)
	}
	h := fgb.Header()
	if h == nil {
		return nil, fmt.Errorf("flatgeobuf %s: missing header", path)
	}

	r := &Region{}
	var c flattypes.Crs
	if h.Crs(&c) != nil {
		if p, ok := crs.EPSG(int(c.Code())); ok {
			r.CRS = p
		}
	}

	if h.FeaturesCount() == 0 {
		return r, nil
	}
	if h.IndexNodeSize() == 0 {
		return nil, fmt.Errorf("flatgeobuf %s: no spatial index, cannot enumerate features", path)
	}

	// Everything means a search over the header envelope, or over the
	// widest representable box when the writer left the envelope out.
	minX, minY, maxX, maxY := -1e308, -1e308, 1e308, 1e308
	if h.EnvelopeLength() >= 4 {
		minX, minY, maxX, maxY = h.Envelope(0), h.Envelope(1), h.Envelope(2), h.Envelope(3)
	}
	features, err := fgb.Search(minX, minY, maxX, maxY)
	if err != nil {
		return nil, fmt.Errorf("read flatgeobuf %s: %w", path, err)
	}
	for _, f := range features {
		var fg flattypes.Geometry
		g := f.Geometry(&fg)
		if g == nil {
			continue
		}
		og := orbFromFGB(g, h.GeometryType())
		if og == nil {
			return nil, fmt.Errorf("%s: %w: unsupported geometry type %s",
				path, ErrGeometry, flattypes.EnumNamesGeometryType[h.GeometryType()])
		}
		polys, err := polygonsFromOrb(og)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		r.Polygons = append(r.Polygons, polys...)
	}
	return r, nil
}

// orbFromFGB decodes a FlatGeobuf geometry into orb form. Geometries
// declare their type in the header when homogeneous; heterogeneous files
// carry it per geometry.
func orbFromFGB(g *flattypes.Geometry, headerType flattypes.GeometryType) orb.Geometry {
	t := g.Type()
	if t == flattypes.GeometryTypeUnknown {
		t = headerType
	}
	switch t {
	case flattypes.GeometryTypePolygon:
		return polygonFromXYEnds(g)
	case flattypes.GeometryTypeMultiPolygon:
		return multiPolygonFromParts(g)
	default:
		return nil
	}
}

// polygonFromXYEnds splits the flat coordinate array at each ring end
// index. A missing ends array means a single ring.
func polygonFromXYEnds(g *flattypes.Geometry) orb.Polygon {
	xyLen := g.XyLength()
	if xyLen < 2 {
		return orb.Polygon{}
	}
	endsLen := g.EndsLength()
	if endsLen == 0 {
		ring := make(orb.Ring, 0, xyLen/2)
		for i := 0; i+1 < xyLen; i += 2 {
			ring = append(ring, orb.Point{g.Xy(i), g.Xy(i + 1)})
		}
		return orb.Polygon{ring}
	}
	poly := make(orb.Polygon, 0, endsLen)
	start := uint32(0)
	for i := 0; i < endsLen; i++ {
		end := g.Ends(i)
		ring := make(orb.Ring, 0, end-start)
		for j := start; j < end; j++ {
			idx := int(j) * 2
			if idx+1 < xyLen {
				ring = append(ring, orb.Point{g.Xy(idx), g.Xy(idx + 1)})
			}
		}
		poly = append(poly, ring)
		start = end
	}
	return poly
}

// multiPolygonFromParts decodes each part as a polygon; a part-less
// geometry degrades to a single polygon.
func multiPolygonFromParts(g *flattypes.Geometry) orb.MultiPolygon {
	partsLen := g.PartsLength()
	if partsLen == 0 {
		poly := polygonFromXYEnds(g)
		if len(poly) > 0 {
			return orb.MultiPolygon{poly}
		}
		return orb.MultiPolygon{}
	}
	mp := make(orb.MultiPolygon, 0, partsLen)
	for i := 0; i < partsLen; i++ {
		var part flattypes.Geometry
		if g.Parts(&part, i) {
			if poly := polygonFromXYEnds(&part); len(poly) > 0 {
				mp = append(mp, poly)
			}
		}
	}
	return mp
}
