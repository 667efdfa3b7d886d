// Package maskfill runs the mask-fill pipeline: decode a raster,
// reconcile the region's coordinate system with the grid, rasterize the
// region through the mask cache, overwrite every outside cell with the
// fill value, and write the result atomically into the output directory.
package maskfill

import (
	"errors"
	"fmt"

	"github.com/granule-data/maskfill/internal/region"
)

// Failures are reported in four families so callers can map them to exit
// codes and agent-response exception codes without matching on message
// text. Each family wraps its cause; errors.Is and errors.As see through
// the chain.

// FormatError marks a raster or vector container that could not be
// decoded, CF metadata the NetCDF codec cannot interpret included.
type FormatError struct {
	Path string
	Err  error
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("cannot decode %s: %v", e.Path, e.Err)
}

func (e *FormatError) Unwrap() error { return e.Err }

// GeometryError marks region content that decoded but cannot mask an
// area: non-polygonal features, unclosed or collapsed rings.
type GeometryError struct {
	Path string
	Err  error
}

func (e *GeometryError) Error() string {
	return fmt.Sprintf("unusable region geometry in %s: %v", e.Path, e.Err)
}

func (e *GeometryError) Unwrap() error { return e.Err }

// ReprojectionError marks a region and raster whose coordinate systems
// could not be reconciled.
type ReprojectionError struct {
	From string
	To   string
	Err  error
}

func (e *ReprojectionError) Error() string {
	return fmt.Sprintf("cannot reproject region from %q to %q: %v", e.From, e.To, e.Err)
}

func (e *ReprojectionError) Unwrap() error { return e.Err }

// IOError marks an output that could not be written.
type IOError struct {
	Path string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("cannot write %s: %v", e.Path, e.Err)
}

func (e *IOError) Unwrap() error { return e.Err }

// ParameterError marks a request rejected before any file was touched: a
// required argument that is absent, or an argument whose value cannot be
// used.
type ParameterError struct {
	Name    string
	Missing bool
	Reason  string
}

func (e *ParameterError) Error() string {
	if e.Missing {
		return fmt.Sprintf("missing required parameter %s", e.Name)
	}
	return fmt.Sprintf("invalid parameter %s: %s", e.Name, e.Reason)
}

// classifyRegionError sorts a region loading failure into the geometry
// family when the content was structurally bad, the format family when
// the container itself could not be read.
func classifyRegionError(path string, err error) error {
	if errors.Is(err, region.ErrGeometry) {
		return &GeometryError{Path: path, Err: err}
	}
	return &FormatError{Path: path, Err: err}
}
