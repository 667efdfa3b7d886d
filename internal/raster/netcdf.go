package raster

import (
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/ctessum/cdf"
	"github.com/ctessum/sparse"

	"github.com/granule-data/maskfill/internal/crs"
)

// NetCDF classic codec. Bands are the 2D variables laid out over the
// primary (y, x) dimension pair; coordinate variables supply the affine
// transform per the CF conventions (uniform pixel-center coordinates);
// CRS comes from degree-measured coordinate units, a grid_mapping
// variable, or a global proj4 attribute, in that order. Everything that is
// not a band (coordinates, grid-mapping scalars, ancillary variables) is
// carried through encode untouched.

func init() {
	RegisterFormat(&Format{
		Name:       "netcdf",
		Extensions: []string{".nc", ".nc4", ".cdf"},
		Decode:     decodeNC,
		Encode:     encodeNC,
	})
}

func decodeNC(path string) (*Grid, error) {
	ff, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer ff.Close()

	f, err := cdf.Open(ff)
	if err != nil {
		return nil, fmt.Errorf("open netcdf: %w", err)
	}

	vars := f.Header.Variables()
	coordVar := map[string]bool{}
	for _, v := range vars {
		dims := f.Header.Dimensions(v)
		if len(dims) == 1 && dims[0] == v {
			coordVar[v] = true
		}
	}

	// The primary grid is the dimension pair of the first 2D variable
	// backed by coordinate variables on both axes.
	var yDim, xDim string
	for _, v := range vars {
		dims := f.Header.Dimensions(v)
		if coordVar[v] || len(dims) != 2 {
			continue
		}
		if !coordVar[dims[0]] || !coordVar[dims[1]] {
			return nil, fmt.Errorf("%w: variable %q lacks coordinate variables for dimensions %v",
				crs.ErrCFCompliance, v, dims)
		}
		yDim, xDim = dims[0], dims[1]
		break
	}
	if yDim == "" {
		return nil, fmt.Errorf("no 2D gridded variables found")
	}

	yCoords, err := readCoord(f, yDim)
	if err != nil {
		return nil, err
	}
	xCoords, err := readCoord(f, xDim)
	if err != nil {
		return nil, err
	}
	tr, err := transformFromCoords(xCoords, yCoords)
	if err != nil {
		return nil, err
	}

	g := &Grid{
		Attrs:   readAttrs(f, ""),
		XDim:    xDim,
		YDim:    yDim,
		XCoords: xCoords,
		YCoords: yCoords,
		DimLens: map[string]int{},
	}
	g.Transform = tr

	for _, v := range vars {
		dims := f.Header.Dimensions(v)
		lens := f.Header.Lengths(v)
		for i, d := range dims {
			if _, seen := g.DimLens[d]; !seen {
				g.DimOrder = append(g.DimOrder, d)
				g.DimLens[d] = lens[i]
			}
		}

		if !coordVar[v] && len(dims) == 2 && dims[0] == yDim && dims[1] == xDim {
			b, err := readBand(f, v, lens[0], lens[1])
			if err != nil {
				return nil, err
			}
			g.Bands = append(g.Bands, b)
			continue
		}

		data, err := readRaw(f, v)
		if err != nil {
			return nil, err
		}
		g.Aux = append(g.Aux, &AuxVar{
			Name:  v,
			Dims:  dims,
			Data:  data,
			Attrs: readAttrs(f, v),
		})
	}
	if len(g.Bands) == 0 {
		return nil, fmt.Errorf("no 2D gridded variables found")
	}

	proj4, err := resolveCRS(g)
	if err != nil {
		return nil, err
	}
	g.CRS = proj4

	if fill, ok := g.Bands[0].FillValue(); ok {
		g.NoData = fill
		g.HasNoData = true
	}
	return g, nil
}

// transformFromCoords derives the affine transform from pixel-center
// coordinate vectors: cell size from the first coordinate step, origin
// half a cell outward from the first center.
func transformFromCoords(xCoords, yCoords []float64) (Affine, error) {
	if len(xCoords) < 2 || len(yCoords) < 2 {
		return Affine{}, fmt.Errorf("%w: need at least 2 coordinates per axis to derive cell size (got %dx%d)",
			crs.ErrCFCompliance, len(xCoords), len(yCoords))
	}
	cw := xCoords[1] - xCoords[0]
	ch := yCoords[1] - yCoords[0]
	if cw == 0 || ch == 0 {
		return Affine{}, fmt.Errorf("%w: zero cell size in coordinate variables", crs.ErrCFCompliance)
	}
	return Affine{
		A: cw, B: 0, C: xCoords[0] - cw/2,
		D: 0, E: ch, F: yCoords[0] - ch/2,
	}, nil
}

// resolveCRS picks the grid's PROJ4: degree units on the x coordinate mean
// geographic WGS84; otherwise the first band's grid_mapping variable is
// translated; a global proj4 attribute is the escape hatch for files
// produced outside CF tooling.
func resolveCRS(g *Grid) (string, error) {
	for _, aux := range g.Aux {
		if aux.Name != g.XDim {
			continue
		}
		if units, ok := aux.Attrs["units"].(string); ok && crs.IsGeographic(units) {
			return crs.LonLatWGS84, nil
		}
	}

	if gm, ok := g.Bands[0].Attrs["grid_mapping"].(string); ok {
		for _, aux := range g.Aux {
			if aux.Name == gm {
				return crs.FromGridMapping(aux.Attrs)
			}
		}
		return "", fmt.Errorf("%w: grid_mapping variable %q not present", crs.ErrCFCompliance, gm)
	}

	if p, ok := g.Attrs["proj4"].(string); ok && p != "" {
		return p, nil
	}
	return "", fmt.Errorf("%w: no units, grid_mapping or proj4 metadata to locate the grid", crs.ErrCFCompliance)
}

func readCoord(f *cdf.File, name string) ([]float64, error) {
	raw, err := readRaw(f, name)
	if err != nil {
		return nil, err
	}
	vals, _, ok := toFloats(raw)
	if !ok {
		return nil, fmt.Errorf("%w: coordinate variable %q is not numeric", crs.ErrCFCompliance, name)
	}
	return vals, nil
}

func readBand(f *cdf.File, name string, rows, cols int) (*Band, error) {
	raw, err := readRaw(f, name)
	if err != nil {
		return nil, err
	}
	vals, dtype, ok := toFloats(raw)
	if !ok {
		return nil, fmt.Errorf("variable %q has unsupported sample type %T", name, raw)
	}
	if len(vals) != rows*cols {
		return nil, fmt.Errorf("variable %q has %d samples for a %dx%d grid", name, len(vals), rows, cols)
	}
	b := &Band{
		Name:  name,
		Data:  sparse.ZerosDense(rows, cols),
		DType: dtype,
		Attrs: readAttrs(f, name),
	}
	copy(b.Data.Elements, vals)
	return b, nil
}

// readRaw reads a whole variable as the typed slice the container stores.
func readRaw(f *cdf.File, name string) (interface{}, error) {
	n := 1
	for _, l := range f.Header.Lengths(name) {
		n *= l
	}
	r := f.Reader(name, nil, nil)
	buf := r.Zero(n)
	if _, err := r.Read(buf); err != nil && err != io.EOF {
		return nil, fmt.Errorf("read variable %q: %w", name, err)
	}
	return buf, nil
}

func readAttrs(f *cdf.File, v string) map[string]interface{} {
	attrs := map[string]interface{}{}
	for _, name := range f.Header.Attributes(v) {
		attrs[name] = f.Header.GetAttribute(v, name)
	}
	return attrs
}

// toFloats widens a typed sample slice to float64, reporting the source
// type so encode can restore it. Conversion through float64 is exact for
// every supported sample type.
func toFloats(raw interface{}) ([]float64, string, bool) {
	switch t := raw.(type) {
	case []float64:
		return t, "float64", true
	case []float32:
		out := make([]float64, len(t))
		for i, v := range t {
			out[i] = float64(v)
		}
		return out, "float32", true
	case []int32:
		out := make([]float64, len(t))
		for i, v := range t {
			out[i] = float64(v)
		}
		return out, "int32", true
	case []int16:
		out := make([]float64, len(t))
		for i, v := range t {
			out[i] = float64(v)
		}
		return out, "int16", true
	case []int8:
		out := make([]float64, len(t))
		for i, v := range t {
			out[i] = float64(v)
		}
		return out, "int8", true
	}
	return nil, "", false
}

// fromFloats narrows float64 samples back to the band's container type.
func fromFloats(vals []float64, dtype string) interface{} {
	switch dtype {
	case "float32":
		out := make([]float32, len(vals))
		for i, v := range vals {
			out[i] = float32(v)
		}
		return out
	case "int32":
		out := make([]int32, len(vals))
		for i, v := range vals {
			out[i] = int32(v)
		}
		return out
	case "int16":
		out := make([]int16, len(vals))
		for i, v := range vals {
			out[i] = int16(v)
		}
		return out
	case "int8":
		out := make([]int8, len(vals))
		for i, v := range vals {
			out[i] = int8(v)
		}
		return out
	default:
		return append([]float64(nil), vals...)
	}
}

func dtypeTemplate(dtype string) interface{} {
	switch dtype {
	case "float32":
		return []float32{0}
	case "int32":
		return []int32{0}
	case "int16":
		return []int16{0}
	case "int8":
		return []int8{0}
	default:
		return []float64{0}
	}
}

// templateOf builds a one-element template slice matching raw's type for
// header definition.
func templateOf(raw interface{}) interface{} {
	switch raw.(type) {
	case []float64:
		return []float64{0}
	case []float32:
		return []float32{0}
	case []int32:
		return []int32{0}
	case []int16:
		return []int16{0}
	case []int8:
		return []int8{0}
	case string:
		return " "
	}
	return []float64{0}
}

func encodeNC(g *Grid, f *os.File) error {
	dimOrder := g.DimOrder
	dimLens := g.DimLens
	synthesizeCoords := false
	if len(dimOrder) == 0 {
		// Grid built in code: lay out (y, x) dims and emit coordinate
		// variables from the stored center vectors.
		dimOrder = []string{g.YDim, g.XDim}
		dimLens = map[string]int{g.YDim: g.Rows(), g.XDim: g.Cols()}
		synthesizeCoords = true
	}
	lens := make([]int, len(dimOrder))
	for i, d := range dimOrder {
		lens[i] = dimLens[d]
	}

	h := cdf.NewHeader(dimOrder, lens)

	globals := copyAttrs(g.Attrs)
	if synthesizeCoords && g.CRS != "" && !crs.Equal(g.CRS, crs.LonLatWGS84) {
		globals["proj4"] = g.CRS
	}
	for _, k := range sortedKeys(globals) {
		h.AddAttribute("", k, normalizeAttr(globals[k]))
	}

	if synthesizeCoords {
		h.AddVariable(g.YDim, []string{g.YDim}, []float64{0})
		h.AddVariable(g.XDim, []string{g.XDim}, []float64{0})
		if g.CRS != "" && crs.Equal(g.CRS, crs.LonLatWGS84) {
			h.AddAttribute(g.YDim, "units", "degrees_north")
			h.AddAttribute(g.XDim, "units", "degrees_east")
		}
	}
	for _, aux := range g.Aux {
		h.AddVariable(aux.Name, aux.Dims, templateOf(aux.Data))
		for _, k := range sortedKeys(aux.Attrs) {
			h.AddAttribute(aux.Name, k, normalizeAttr(aux.Attrs[k]))
		}
	}
	for _, b := range g.Bands {
		h.AddVariable(b.Name, []string{g.YDim, g.XDim}, dtypeTemplate(b.DType))
		for _, k := range sortedKeys(b.Attrs) {
			h.AddAttribute(b.Name, k, normalizeAttr(b.Attrs[k]))
		}
	}
	h.Define()

	nf, err := cdf.Create(f, h)
	if err != nil {
		return fmt.Errorf("create netcdf: %w", err)
	}

	write := func(name string, data interface{}) error {
		w := nf.Writer(name, nil, nil)
		if _, err := w.Write(data); err != nil {
			return fmt.Errorf("write variable %q: %w", name, err)
		}
		return nil
	}
	if synthesizeCoords {
		if err := write(g.YDim, append([]float64(nil), g.YCoords...)); err != nil {
			return err
		}
		if err := write(g.XDim, append([]float64(nil), g.XCoords...)); err != nil {
			return err
		}
	}
	for _, aux := range g.Aux {
		if aux.Data == nil {
			continue
		}
		if err := write(aux.Name, aux.Data); err != nil {
			return err
		}
	}
	for _, b := range g.Bands {
		if err := write(b.Name, fromFloats(b.Data.Elements, b.DType)); err != nil {
			return err
		}
	}
	return nil
}

func sortedKeys(m map[string]interface{}) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// normalizeAttr wraps bare scalar attribute values in the slice forms the
// container writer expects; values read from a container are already in
// those forms and pass through.
func normalizeAttr(v interface{}) interface{} {
	switch t := v.(type) {
	case float64:
		return []float64{t}
	case float32:
		return []float32{t}
	case int:
		return []int32{int32(t)}
	case int32:
		return []int32{t}
	case int16:
		return []int16{t}
	}
	return v
}
