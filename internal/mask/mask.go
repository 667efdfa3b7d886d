// Package mask rasterizes a polygon region onto a raster's pixel grid
// and applies the result to band data. A mask is a per-cell boolean
// aligned with a specific grid shape and geotransform: true means the
// cell is retained, false means it is overwritten with the fill value.
package mask

import (
	"fmt"

	"github.com/granule-data/maskfill/internal/raster"
)

// Mask is the rasterized form of a region on one grid geometry.
type Mask struct {
	Rows, Cols int
	Inside     []bool // row-major, Rows*Cols
}

// New returns an all-outside mask of the given shape.
func New(rows, cols int) *Mask {
	return &Mask{Rows: rows, Cols: cols, Inside: make([]bool, rows*cols)}
}

// At reports whether the cell at (row, col) is inside the region.
func (m *Mask) At(row, col int) bool { return m.Inside[row*m.Cols+col] }

func (m *Mask) set(row, col int) { m.Inside[row*m.Cols+col] = true }

// CountInside returns the number of retained cells.
func (m *Mask) CountInside() int {
	n := 0
	for _, in := range m.Inside {
		if in {
			n++
		}
	}
	return n
}

// Fraction returns the retained share of the grid, in [0, 1].
func (m *Mask) Fraction() float64 {
	if len(m.Inside) == 0 {
		return 0
	}
	return float64(m.CountInside()) / float64(len(m.Inside))
}

// Apply overwrites every outside cell of the band with fill. Cells inside
// the region keep their values, fill values included; applying the same
// mask twice changes nothing.
func (m *Mask) Apply(b *raster.Band, fill float64) error {
	if b.Rows() != m.Rows || b.Cols() != m.Cols {
		return fmt.Errorf("mask shape %dx%d does not match band %q shape %dx%d",
			m.Rows, m.Cols, b.Name, b.Rows(), b.Cols())
	}
	for r := 0; r < m.Rows; r++ {
		for c := 0; c < m.Cols; c++ {
			if !m.Inside[r*m.Cols+c] {
				b.SetValue(r, c, fill)
			}
		}
	}
	return nil
}
