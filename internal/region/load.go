package region

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Load reads a region file, dispatching on extension, and validates the
// geometry before returning. Supported: .shp, .geojson/.json, .fgb.
func Load(path string) (*Region, error) {
	var (
		r   *Region
		err error
	)
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".shp":
		r, err = loadShapefile(path)
	case ".geojson", ".json":
		r, err = loadGeoJSON(path)
	case ".fgb":
		r, err = loadFlatGeobuf(path)
	default:
		return nil, fmt.Errorf("unsupported region format %q (want .shp, .geojson or .fgb)", ext)
	}
	if err != nil {
		return nil, err
	}
	r.Source = path
	if err := r.Validate(); err != nil {
		return nil, err
	}
	return r, nil
}
