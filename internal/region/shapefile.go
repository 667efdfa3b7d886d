package region

import (
	"fmt"
	"os"
	"strings"

	"github.com/ctessum/geom/encoding/shp"
)

// loadShapefile reads every row of a shapefile as polygon geometry. The
// spatial reference comes from the .prj sidecar when one exists; a
// sidecar holding PROJ4 text additionally sets the canonical CRS string.
func loadShapefile(path string) (*Region, error) {
	d, err := shp.NewDecoder(path)
	if err != nil {
		return nil, fmt.Errorf("open shapefile %s: %w", path, err)
	}
	defer d.Close()

	r := &Region{}
	prjPath := strings.TrimSuffix(path, ".shp") + ".prj"
	if _, statErr := os.Stat(prjPath); statErr == nil {
		sr, err := d.SR()
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", prjPath, err)
		}
		r.SR = sr
		if raw, err := os.ReadFile(prjPath); err == nil {
			if s := strings.TrimSpace(string(raw)); strings.HasPrefix(s, "+") {
				r.CRS = s
			}
		}
	}

	for {
		g, _, more := d.DecodeRowFields()
		if !more {
			break
		}
		if g == nil {
			continue
		}
		polys, err := polygonsFromGeom(g)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		r.Polygons = append(r.Polygons, polys...)
	}
	if err := d.Error(); err != nil {
		return nil, fmt.Errorf("decode shapefile %s: %w", path, err)
	}
	return r, nil
}
