// Package raster models gridded geospatial data: a stack of equally shaped
// sample bands, an affine pixel-to-map transform, a coordinate reference
// system, and the no-data metadata needed for mask-fill processing.
package raster

import (
	"fmt"
	"math"

	"github.com/ctessum/sparse"
)

// Affine maps pixel (col, row) space to map (x, y) space:
//
//	x = A*col + B*row + C
//	y = D*col + E*row + F
//
// C and F locate the outer corner of the top-left pixel, so the center of
// sample (row, col) sits at Apply(col+0.5, row+0.5). E is negative for
// north-up grids.
type Affine struct {
	A, B, C, D, E, F float64
}

// NorthUp returns the transform for an axis-aligned grid whose top-left
// corner is (xMin, yMax). cellHeight must be negative for a north-up grid;
// callers that pass a positive height get a south-up grid, which is legal.
func NorthUp(xMin, yMax, cellWidth, cellHeight float64) Affine {
	return Affine{A: cellWidth, B: 0, C: xMin, D: 0, E: cellHeight, F: yMax}
}

// Apply maps fractional pixel coordinates to map coordinates.
func (a Affine) Apply(col, row float64) (x, y float64) {
	return a.A*col + a.B*row + a.C, a.D*col + a.E*row + a.F
}

// PixelCenter returns the map coordinates of the center of sample (row, col).
func (a Affine) PixelCenter(row, col int) (x, y float64) {
	return a.Apply(float64(col)+0.5, float64(row)+0.5)
}

// Invert returns the transform from map coordinates back to fractional
// pixel coordinates. Degenerate transforms (zero determinant) have no
// inverse.
func (a Affine) Invert() (Affine, error) {
	det := a.A*a.E - a.B*a.D
	if det == 0 {
		return Affine{}, fmt.Errorf("affine transform %v is not invertible", a)
	}
	return Affine{
		A: a.E / det,
		B: -a.B / det,
		C: (a.B*a.F - a.E*a.C) / det,
		D: -a.D / det,
		E: a.A / det,
		F: (a.D*a.C - a.A*a.F) / det,
	}, nil
}

// String renders the six coefficients in a stable form suitable for cache
// digests and log lines.
func (a Affine) String() string {
	return fmt.Sprintf("%g,%g,%g,%g,%g,%g", a.A, a.B, a.C, a.D, a.E, a.F)
}

// ParseAffine reads the String form back. Cache records store transforms
// this way.
func ParseAffine(s string) (Affine, error) {
	var a Affine
	n, err := fmt.Sscanf(s, "%g,%g,%g,%g,%g,%g", &a.A, &a.B, &a.C, &a.D, &a.E, &a.F)
	if err != nil || n != 6 {
		return Affine{}, fmt.Errorf("malformed affine transform %q", s)
	}
	return a, nil
}

// Band is one layer of samples. Values are held as float64 regardless of
// the on-disk sample type; DType records the original type so encoders can
// restore it.
type Band struct {
	Name  string
	Data  *sparse.DenseArray // Shape[0] = rows, Shape[1] = cols
	DType string             // "float64", "float32", "int32", "int16", "uint8"
	Attrs map[string]interface{}
}

// NewBand allocates a zeroed band of the given shape.
func NewBand(name string, rows, cols int) *Band {
	return &Band{
		Name:  name,
		Data:  sparse.ZerosDense(rows, cols),
		DType: "float64",
		Attrs: map[string]interface{}{},
	}
}

// Rows returns the number of grid rows in the band.
func (b *Band) Rows() int { return b.Data.Shape[0] }

// Cols returns the number of grid columns in the band.
func (b *Band) Cols() int { return b.Data.Shape[1] }

// Value returns the sample at (row, col).
func (b *Band) Value(row, col int) float64 { return b.Data.Get(row, col) }

// SetValue stores the sample at (row, col).
func (b *Band) SetValue(row, col int, v float64) { b.Data.Set(v, row, col) }

// FillValue reports the band's own no-data value from its _FillValue
// attribute, if one is attached.
func (b *Band) FillValue() (float64, bool) {
	v, ok := b.Attrs["_FillValue"]
	if !ok {
		return 0, false
	}
	f, ok := attrFloat(v)
	return f, ok
}

// attrFloat coerces the scalar attribute representations produced by the
// codecs into a float64.
func attrFloat(v interface{}) (float64, bool) {
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

// Grid is a raster dataset: one or more bands sharing dimensions and
// transform, plus the georeferencing and attribute metadata carried through
// mask-fill unchanged.
type Grid struct {
	Bands     []*Band
	Transform Affine
	CRS       string // PROJ4
	NoData    float64
	HasNoData bool
	Attrs     map[string]interface{}

	// Dimension names and coordinate vectors, kept so encoders can
	// reproduce the source layout exactly. NewGrid synthesizes them from
	// the transform.
	XDim, YDim       string
	XCoords, YCoords []float64

	// Container layout carried through from decode so the output file
	// reproduces the input's structure: dimension order and lengths, and
	// the variables that are not gridded bands (coordinates, grid-mapping
	// scalars, ancillary tables). Aux data is written back byte-for-byte.
	DimOrder []string
	DimLens  map[string]int
	Aux      []*AuxVar
}

// AuxVar is a non-band variable carried through mask-fill unchanged.
// Data holds the typed slice exactly as the codec read it; nil for
// zero-dimensional variables.
type AuxVar struct {
	Name  string
	Dims  []string
	Data  interface{}
	Attrs map[string]interface{}
}

// NewGrid builds a single-band grid with the given shape and transform,
// synthesizing pixel-center coordinate vectors. Intended for construction
// in code and in tests; the codecs build grids directly from file metadata.
func NewGrid(rows, cols int, tr Affine) *Grid {
	g := &Grid{
		Bands:     []*Band{NewBand("band_1", rows, cols)},
		Transform: tr,
		Attrs:     map[string]interface{}{},
		XDim:      "x",
		YDim:      "y",
	}
	g.XCoords = make([]float64, cols)
	g.YCoords = make([]float64, rows)
	for c := 0; c < cols; c++ {
		x, _ := tr.Apply(float64(c)+0.5, 0.5)
		g.XCoords[c] = x
	}
	for r := 0; r < rows; r++ {
		_, y := tr.Apply(0.5, float64(r)+0.5)
		g.YCoords[r] = y
	}
	return g
}

// Rows returns the grid height. Zero for a grid with no bands.
func (g *Grid) Rows() int {
	if len(g.Bands) == 0 {
		return 0
	}
	return g.Bands[0].Rows()
}

// Cols returns the grid width. Zero for a grid with no bands.
func (g *Grid) Cols() int {
	if len(g.Bands) == 0 {
		return 0
	}
	return g.Bands[0].Cols()
}

// Validate checks the cross-band shape invariant.
func (g *Grid) Validate() error {
	if len(g.Bands) == 0 {
		return fmt.Errorf("grid has no bands")
	}
	rows, cols := g.Rows(), g.Cols()
	if rows <= 0 || cols <= 0 {
		return fmt.Errorf("grid has degenerate shape %dx%d", rows, cols)
	}
	for _, b := range g.Bands {
		if b.Rows() != rows || b.Cols() != cols {
			return fmt.Errorf("band %q shape %dx%d differs from grid shape %dx%d",
				b.Name, b.Rows(), b.Cols(), rows, cols)
		}
	}
	return nil
}

// Clone returns a deep copy of the grid: fresh band arrays and attribute
// maps, same metadata.
func (g *Grid) Clone() *Grid {
	out := &Grid{
		Transform: g.Transform,
		CRS:       g.CRS,
		NoData:    g.NoData,
		HasNoData: g.HasNoData,
		Attrs:     copyAttrs(g.Attrs),
		XDim:      g.XDim,
		YDim:      g.YDim,
		XCoords:   append([]float64(nil), g.XCoords...),
		YCoords:   append([]float64(nil), g.YCoords...),
		DimOrder:  append([]string(nil), g.DimOrder...),
		Aux:       g.Aux,
	}
	if g.DimLens != nil {
		out.DimLens = make(map[string]int, len(g.DimLens))
		for k, v := range g.DimLens {
			out.DimLens[k] = v
		}
	}
	out.Bands = make([]*Band, len(g.Bands))
	for i, b := range g.Bands {
		nb := &Band{
			Name:  b.Name,
			Data:  sparse.ZerosDense(b.Rows(), b.Cols()),
			DType: b.DType,
			Attrs: copyAttrs(b.Attrs),
		}
		copy(nb.Data.Elements, b.Data.Elements)
		out.Bands[i] = nb
	}
	return out
}

func copyAttrs(in map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

// BandView adapts one band for heatmap plotting: Dims, Z, X and Y follow
// the gonum/plot GridXYZ convention, with X/Y giving pixel-center map
// coordinates.
type BandView struct {
	Band      *Band
	Transform Affine
}

// View returns a plottable view of band i.
func (g *Grid) View(i int) BandView {
	return BandView{Band: g.Bands[i], Transform: g.Transform}
}

// Dims returns the number of columns and rows.
func (v BandView) Dims() (c, r int) { return v.Band.Cols(), v.Band.Rows() }

// Z returns the sample at column c, row r. Rows are counted upward from the
// bottom of the plot, so the grid's top row is drawn at the top.
func (v BandView) Z(c, r int) float64 {
	return v.Band.Value(v.Band.Rows()-1-r, c)
}

// X returns the map x coordinate of column c's pixel center.
func (v BandView) X(c int) float64 {
	x, _ := v.Transform.PixelCenter(0, c)
	return x
}

// Y returns the map y coordinate of row r's pixel center, in bottom-up
// plot order.
func (v BandView) Y(r int) float64 {
	_, y := v.Transform.PixelCenter(v.Band.Rows()-1-r, 0)
	return y
}

// ApproxEqual reports whether two transforms match within tol on every
// coefficient. Used when reconciling coordinate vectors against declared
// transforms.
func (a Affine) ApproxEqual(b Affine, tol float64) bool {
	return math.Abs(a.A-b.A) <= tol &&
		math.Abs(a.B-b.B) <= tol &&
		math.Abs(a.C-b.C) <= tol &&
		math.Abs(a.D-b.D) <= tol &&
		math.Abs(a.E-b.E) <= tol &&
		math.Abs(a.F-b.F) <= tol
}
