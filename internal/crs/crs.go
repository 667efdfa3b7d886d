// Package crs reconciles coordinate reference systems for mask-fill
// processing. PROJ4 strings are the canonical form; parsing and the actual
// transform math are delegated to github.com/ctessum/geom/proj.
package crs

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/ctessum/geom/proj"
)

// LonLatWGS84 is the PROJ4 form of geographic WGS84 coordinates, the CRS
// implied by coordinate variables measured in degrees and by GeoJSON input.
const LonLatWGS84 = "+proj=longlat +ellps=WGS84 +datum=WGS84 +no_defs"

// WebMercator is the spherical Mercator PROJ4 used by slippy-map tooling.
const WebMercator = "+proj=merc +a=6378137 +b=6378137 +lat_ts=0.0 +lon_0=0.0 " +
	"+x_0=0.0 +y_0=0 +k=1.0 +units=m +nadgrids=@null +no_defs"

// Parse resolves a PROJ4 string to a spatial reference.
func Parse(proj4 string) (*proj.SR, error) {
	if strings.TrimSpace(proj4) == "" {
		return nil, fmt.Errorf("empty projection string")
	}
	sr, err := proj.Parse(proj4)
	if err != nil {
		return nil, fmt.Errorf("parse projection %q: %w", proj4, err)
	}
	return sr, nil
}

// NewTransform returns the coordinate transform from src to dst.
func NewTransform(srcProj4, dstProj4 string) (proj.Transformer, error) {
	src, err := Parse(srcProj4)
	if err != nil {
		return nil, err
	}
	dst, err := Parse(dstProj4)
	if err != nil {
		return nil, err
	}
	t, err := src.NewTransform(dst)
	if err != nil {
		return nil, fmt.Errorf("no transform from %q to %q: %w", srcProj4, dstProj4, err)
	}
	return t, nil
}

// Equal reports whether two PROJ4 strings describe the same CRS: identical
// normalized parameter sets, insensitive to token order and numeric
// formatting. Equal CRS skip reprojection entirely, which preserves the
// exact-copy guarantee (no round trip through transform math).
func Equal(a, b string) bool {
	return Normalize(a) == Normalize(b)
}

// Normalize renders a PROJ4 string with sorted parameters and canonical
// numeric formatting.
func Normalize(proj4 string) string {
	params := map[string]string{}
	for _, tok := range strings.Fields(proj4) {
		tok = strings.TrimPrefix(tok, "+")
		if tok == "" {
			continue
		}
		key, val, found := strings.Cut(tok, "=")
		if !found {
			params[key] = ""
			continue
		}
		params[key] = normalizeValue(val)
	}
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var b strings.Builder
	for i, k := range keys {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteByte('+')
		b.WriteString(k)
		if v := params[k]; v != "" {
			b.WriteByte('=')
			b.WriteString(v)
		}
	}
	return b.String()
}

// epsgProj4 covers the EPSG codes vector sources in the wild actually
// declare. Codes outside this table are reported as unknown rather than
// guessed at.
var epsgProj4 = map[int]string{
	4326: LonLatWGS84,
	4269: "+proj=longlat +ellps=GRS80 +datum=NAD83 +no_defs",
	3857: WebMercator,
}

// EPSG returns the PROJ4 form of a known EPSG code.
func EPSG(code int) (string, bool) {
	p, ok := epsgProj4[code]
	return p, ok
}

// normalizeValue canonicalizes numeric parameter values (and each element
// of comma-separated lists such as +towgs84) so 0, 0.0 and 0.000 compare
// equal; non-numeric values pass through lower-cased.
func normalizeValue(v string) string {
	parts := strings.Split(v, ",")
	for i, p := range parts {
		if f, err := strconv.ParseFloat(p, 64); err == nil {
			parts[i] = strconv.FormatFloat(f, 'g', -1, 64)
		} else {
			parts[i] = strings.ToLower(p)
		}
	}
	return strings.Join(parts, ",")
}
