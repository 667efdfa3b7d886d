package crs

import (
	"errors"
	"fmt"
	"strings"
)

// ErrCFCompliance marks metadata that violates the CF conventions the
// codec relies on (missing coordinate variables, absent or unsupported
// grid_mapping, contradictory units). Callers surface it within the
// format-error family.
var ErrCFCompliance = errors.New("CF compliance violation")

func cfErrorf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: "+format, append([]interface{}{ErrCFCompliance}, args...)...)
}

// IsGeographic reports whether a coordinate variable's units declare
// geographic (degree-measured) axes, which imply LonLatWGS84 without any
// grid_mapping variable.
func IsGeographic(units string) bool {
	return strings.Contains(strings.ToLower(units), "degrees")
}

// FromGridMapping translates a CF grid-mapping variable's attributes to a
// PROJ4 string. The supported mappings cover the projections the mask-fill
// inputs actually use; anything else is a compliance error rather than a
// guess.
func FromGridMapping(attrs map[string]interface{}) (string, error) {
	name, ok := attrString(attrs, "grid_mapping_name")
	if !ok {
		return "", cfErrorf("grid mapping variable lacks grid_mapping_name")
	}

	switch name {
	case "latitude_longitude":
		return LonLatWGS84, nil

	case "polar_stereographic":
		lat0, ok := attrNumber(attrs, "latitude_of_projection_origin")
		if !ok {
			return "", cfErrorf("polar_stereographic lacks latitude_of_projection_origin")
		}
		latTS, ok := attrNumber(attrs, "standard_parallel")
		if !ok {
			latTS = lat0
		}
		lon0, ok := attrNumber(attrs, "straight_vertical_longitude_from_pole")
		if !ok {
			lon0, _ = attrNumber(attrs, "longitude_of_projection_origin")
		}
		return fmt.Sprintf("+proj=stere +lat_0=%g +lat_ts=%g +lon_0=%g +k=1 +x_0=%g +y_0=%g %s +units=m +no_defs",
			lat0, latTS, lon0,
			attrNumberOr(attrs, "false_easting", 0),
			attrNumberOr(attrs, "false_northing", 0),
			ellipsoid(attrs)), nil

	case "lambert_azimuthal_equal_area":
		lat0, ok := attrNumber(attrs, "latitude_of_projection_origin")
		if !ok {
			return "", cfErrorf("lambert_azimuthal_equal_area lacks latitude_of_projection_origin")
		}
		lon0, ok := attrNumber(attrs, "longitude_of_projection_origin")
		if !ok {
			return "", cfErrorf("lambert_azimuthal_equal_area lacks longitude_of_projection_origin")
		}
		return fmt.Sprintf("+proj=laea +lat_0=%g +lon_0=%g +x_0=%g +y_0=%g %s +units=m +no_defs",
			lat0, lon0,
			attrNumberOr(attrs, "false_easting", 0),
			attrNumberOr(attrs, "false_northing", 0),
			ellipsoid(attrs)), nil

	case "mercator":
		lon0 := attrNumberOr(attrs, "longitude_of_projection_origin", 0)
		latTS := attrNumberOr(attrs, "standard_parallel", 0)
		return fmt.Sprintf("+proj=merc +lon_0=%g +lat_ts=%g +x_0=%g +y_0=%g %s +units=m +no_defs",
			lon0, latTS,
			attrNumberOr(attrs, "false_easting", 0),
			attrNumberOr(attrs, "false_northing", 0),
			ellipsoid(attrs)), nil

	case "transverse_mercator":
		lat0 := attrNumberOr(attrs, "latitude_of_projection_origin", 0)
		lon0, ok := attrNumber(attrs, "longitude_of_central_meridian")
		if !ok {
			return "", cfErrorf("transverse_mercator lacks longitude_of_central_meridian")
		}
		k := attrNumberOr(attrs, "scale_factor_at_central_meridian", 1)
		return fmt.Sprintf("+proj=tmerc +lat_0=%g +lon_0=%g +k=%g +x_0=%g +y_0=%g %s +units=m +no_defs",
			lat0, lon0, k,
			attrNumberOr(attrs, "false_easting", 0),
			attrNumberOr(attrs, "false_northing", 0),
			ellipsoid(attrs)), nil

	case "lambert_conformal_conic":
		lat0, ok := attrNumber(attrs, "latitude_of_projection_origin")
		if !ok {
			return "", cfErrorf("lambert_conformal_conic lacks latitude_of_projection_origin")
		}
		lon0, ok := attrNumber(attrs, "longitude_of_central_meridian")
		if !ok {
			return "", cfErrorf("lambert_conformal_conic lacks longitude_of_central_meridian")
		}
		lat1, lat2, ok := attrNumberPair(attrs, "standard_parallel")
		if !ok {
			return "", cfErrorf("lambert_conformal_conic lacks standard_parallel")
		}
		return fmt.Sprintf("+proj=lcc +lat_1=%g +lat_2=%g +lat_0=%g +lon_0=%g +x_0=%g +y_0=%g %s +units=m +no_defs",
			lat1, lat2, lat0, lon0,
			attrNumberOr(attrs, "false_easting", 0),
			attrNumberOr(attrs, "false_northing", 0),
			ellipsoid(attrs)), nil
	}

	return "", cfErrorf("unsupported grid_mapping_name %q", name)
}

// ellipsoid renders the datum portion of a PROJ4 string from the CF
// ellipsoid attributes, defaulting to WGS84 when none are present.
func ellipsoid(attrs map[string]interface{}) string {
	a, haveA := attrNumber(attrs, "semi_major_axis")
	if !haveA {
		if r, ok := attrNumber(attrs, "earth_radius"); ok {
			return fmt.Sprintf("+a=%g +b=%g", r, r)
		}
		return "+ellps=WGS84"
	}
	if b, ok := attrNumber(attrs, "semi_minor_axis"); ok {
		return fmt.Sprintf("+a=%g +b=%g", a, b)
	}
	if rf, ok := attrNumber(attrs, "inverse_flattening"); ok {
		return fmt.Sprintf("+a=%g +rf=%g", a, rf)
	}
	return fmt.Sprintf("+a=%g +b=%g", a, a)
}

func attrString(attrs map[string]interface{}, key string) (string, bool) {
	v, ok := attrs[key]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	if !ok {
		return "", false
	}
	return strings.TrimRight(s, "\x00"), true
}

func attrNumber(attrs map[string]interface{}, key string) (float64, bool) {
	v, ok := attrs[key]
	if !ok {
		return 0, false
	}
	return coerceNumber(v)
}

func attrNumberOr(attrs map[string]interface{}, key string, fallback float64) float64 {
	if v, ok := attrNumber(attrs, key); ok {
		return v
	}
	return fallback
}

// attrNumberPair reads an attribute that may hold one or two numbers
// (standard_parallel is either); a single value is returned for both.
func attrNumberPair(attrs map[string]interface{}, key string) (float64, float64, bool) {
	v, ok := attrs[key]
	if !ok {
		return 0, 0, false
	}
	switch t := v.(type) {
	case []float64:
		if len(t) >= 2 {
			return t[0], t[1], true
		}
		if len(t) == 1 {
			return t[0], t[0], true
		}
	case []float32:
		if len(t) >= 2 {
			return float64(t[0]), float64(t[1]), true
		}
		if len(t) == 1 {
			return float64(t[0]), float64(t[0]), true
		}
	default:
		if f, ok := coerceNumber(v); ok {
			return f, f, true
		}
	}
	return 0, 0, false
}

func coerceNumber(v interface{}) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case float32:
		return float64(t), true
	case int:
		return float64(t), true
	case int32:
		return float64(t), true
	case int16:
		return float64(t), true
	case []float64:
		if len(t) > 0 {
			return t[0], true
		}
	case []float32:
		if len(t) > 0 {
			return float64(t[0]), true
		}
	case []int32:
		if len(t) > 0 {
			return float64(t[0]), true
		}
	case []int16:
		if len(t) > 0 {
			return float64(t[0]), true
		}
	}
	return 0, false
}
