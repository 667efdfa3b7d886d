package crs

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsGeographic(t *testing.T) {
	t.Parallel()

	assert.True(t, IsGeographic("degrees_east"))
	assert.True(t, IsGeographic("Degrees_North"))
	assert.True(t, IsGeographic("degrees"))
	assert.False(t, IsGeographic("m"))
	assert.False(t, IsGeographic("km"))
	assert.False(t, IsGeographic(""))
}

func TestFromGridMappingLatLon(t *testing.T) {
	t.Parallel()

	got, err := FromGridMapping(map[string]interface{}{
		"grid_mapping_name": "latitude_longitude",
	})
	require.NoError(t, err)
	assert.Equal(t, LonLatWGS84, got)
}

func TestFromGridMappingPolarStereographic(t *testing.T) {
	t.Parallel()

	// The NSIDC sea-ice grid layout: north pole, 70N true scale, -45
	// central meridian, no ellipsoid attributes.
	got, err := FromGridMapping(map[string]interface{}{
		"grid_mapping_name":                     "polar_stereographic",
		"latitude_of_projection_origin":         90.0,
		"standard_parallel":                     70.0,
		"straight_vertical_longitude_from_pole": -45.0,
	})
	require.NoError(t, err)
	assert.Equal(t, "+proj=stere +lat_0=90 +lat_ts=70 +lon_0=-45 +k=1 +x_0=0 +y_0=0 +ellps=WGS84 +units=m +no_defs", got)

	// Without a standard parallel the true-scale latitude defaults to the
	// projection origin.
	got, err = FromGridMapping(map[string]interface{}{
		"grid_mapping_name":              "polar_stereographic",
		"latitude_of_projection_origin":  -90.0,
		"longitude_of_projection_origin": 0.0,
	})
	require.NoError(t, err)
	assert.Contains(t, got, "+lat_0=-90 +lat_ts=-90")

	_, err = FromGridMapping(map[string]interface{}{
		"grid_mapping_name": "polar_stereographic",
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrCFCompliance)
}

func TestFromGridMappingLAEA(t *testing.T) {
	t.Parallel()

	// EASE-Grid 2.0 North declares the full WGS84 ellipsoid.
	got, err := FromGridMapping(map[string]interface{}{
		"grid_mapping_name":              "lambert_azimuthal_equal_area",
		"latitude_of_projection_origin":  90.0,
		"longitude_of_projection_origin": 0.0,
		"semi_major_axis":                6378137.0,
		"semi_minor_axis":                6356752.314245,
	})
	require.NoError(t, err)
	assert.Equal(t, "+proj=laea +lat_0=90 +lon_0=0 +x_0=0 +y_0=0 +a=6.378137e+06 +b=6.356752314245e+06 +units=m +no_defs", got)

	_, err = FromGridMapping(map[string]interface{}{
		"grid_mapping_name":             "lambert_azimuthal_equal_area",
		"latitude_of_projection_origin": 90.0,
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "longitude_of_projection_origin")
}

func TestFromGridMappingMercatorDefaults(t *testing.T) {
	t.Parallel()

	got, err := FromGridMapping(map[string]interface{}{
		"grid_mapping_name": "mercator",
	})
	require.NoError(t, err)
	assert.Equal(t, "+proj=merc +lon_0=0 +lat_ts=0 +x_0=0 +y_0=0 +ellps=WGS84 +units=m +no_defs", got)
}

func TestFromGridMappingTransverseMercator(t *testing.T) {
	t.Parallel()

	got, err := FromGridMapping(map[string]interface{}{
		"grid_mapping_name":                "transverse_mercator",
		"longitude_of_central_meridian":    -123.0,
		"latitude_of_projection_origin":    0.0,
		"scale_factor_at_central_meridian": 0.9996,
		"false_easting":                    500000.0,
	})
	require.NoError(t, err)
	assert.Contains(t, got, "+proj=tmerc")
	assert.Contains(t, got, "+lon_0=-123")
	assert.Contains(t, got, "+k=0.9996")
	assert.Contains(t, got, "+x_0=500000")

	_, err = FromGridMapping(map[string]interface{}{
		"grid_mapping_name": "transverse_mercator",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "longitude_of_central_meridian")
}

func TestFromGridMappingLCC(t *testing.T) {
	t.Parallel()

	// Two standard parallels arrive as a vector attribute.
	got, err := FromGridMapping(map[string]interface{}{
		"grid_mapping_name":             "lambert_conformal_conic",
		"latitude_of_projection_origin": 40.0,
		"longitude_of_central_meridian": -97.0,
		"standard_parallel":             []float64{33, 45},
	})
	require.NoError(t, err)
	assert.Contains(t, got, "+lat_1=33 +lat_2=45")

	// A single parallel serves as both.
	got, err = FromGridMapping(map[string]interface{}{
		"grid_mapping_name":             "lambert_conformal_conic",
		"latitude_of_projection_origin": 40.0,
		"longitude_of_central_meridian": -97.0,
		"standard_parallel":             40.0,
	})
	require.NoError(t, err)
	assert.Contains(t, got, "+lat_1=40 +lat_2=40")

	_, err = FromGridMapping(map[string]interface{}{
		"grid_mapping_name":             "lambert_conformal_conic",
		"latitude_of_projection_origin": 40.0,
		"longitude_of_central_meridian": -97.0,
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "standard_parallel")
}

func TestFromGridMappingUnsupported(t *testing.T) {
	t.Parallel()

	_, err := FromGridMapping(map[string]interface{}{
		"grid_mapping_name": "geostationary",
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrCFCompliance)
	assert.Contains(t, err.Error(), `unsupported grid_mapping_name "geostationary"`)

	_, err = FromGridMapping(map[string]interface{}{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "lacks grid_mapping_name")
}

func TestFromGridMappingNullPaddedName(t *testing.T) {
	t.Parallel()

	// Container string attributes arrive null-padded.
	got, err := FromGridMapping(map[string]interface{}{
		"grid_mapping_name": "latitude_longitude\x00\x00",
	})
	require.NoError(t, err)
	assert.Equal(t, LonLatWGS84, got)
}

func TestEllipsoid(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "+ellps=WGS84", ellipsoid(map[string]interface{}{}))
	assert.Equal(t, "+a=6.371e+06 +b=6.371e+06", ellipsoid(map[string]interface{}{
		"earth_radius": 6371000.0,
	}))
	assert.Equal(t, "+a=6.378137e+06 +rf=298.257223563", ellipsoid(map[string]interface{}{
		"semi_major_axis":    6378137.0,
		"inverse_flattening": 298.257223563,
	}))
	// A major axis alone means a sphere.
	assert.Equal(t, "+a=6.378137e+06 +b=6.378137e+06", ellipsoid(map[string]interface{}{
		"semi_major_axis": 6378137.0,
	}))
}

func TestAttrNumberPair(t *testing.T) {
	t.Parallel()

	attrs := map[string]interface{}{
		"pair":   []float64{33, 45},
		"single": 40.0,
		"vec32":  []float32{10, 20},
	}

	a, b, ok := attrNumberPair(attrs, "pair")
	require.True(t, ok)
	assert.Equal(t, 33.0, a)
	assert.Equal(t, 45.0, b)

	a, b, ok = attrNumberPair(attrs, "single")
	require.True(t, ok)
	assert.Equal(t, 40.0, a)
	assert.Equal(t, 40.0, b)

	a, b, ok = attrNumberPair(attrs, "vec32")
	require.True(t, ok)
	assert.Equal(t, 10.0, a)
	assert.Equal(t, 20.0, b)

	_, _, ok = attrNumberPair(attrs, "absent")
	assert.False(t, ok)
}
