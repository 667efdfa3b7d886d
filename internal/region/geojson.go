package region

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/paulmach/orb/geojson"

	"github.com/granule-data/maskfill/internal/crs"
)

// loadGeoJSON reads a GeoJSON document: a FeatureCollection, a single
// Feature, or a bare geometry. RFC 7946 fixes the CRS to WGS84
// longitude/latitude.
func loadGeoJSON(path string) (*Region, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	var head struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	r := &Region{CRS: crs.LonLatWGS84}
	switch head.Type {
	case "FeatureCollection":
		fc, err := geojson.UnmarshalFeatureCollection(data)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
		for _, f := range fc.Features {
			if f.Geometry == nil {
				continue
			}
			polys, err := polygonsFromOrb(f.Geometry)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", path, err)
			}
			r.Polygons = append(r.Polygons, polys...)
		}
	case "Feature":
		f, err := geojson.UnmarshalFeature(data)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
		if f.Geometry != nil {
			polys, err := polygonsFromOrb(f.Geometry)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", path, err)
			}
			r.Polygons = polys
		}
	case "":
		return nil, fmt.Errorf("parse %s: missing GeoJSON type", path)
	default:
		g, err := geojson.UnmarshalGeometry(data)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
		polys, err := polygonsFromOrb(g.Geometry())
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		r.Polygons = polys
	}
	return r, nil
}
