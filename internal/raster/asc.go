package raster

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// ESRI ASCII grid codec. Single band, plain text: NCOLS/NROWS, a lower-left
// corner (or center) registration, CELLSIZE, optional NODATA_VALUE, then
// row-major samples from the top row down. Header keys are
// case-insensitive. A sidecar .prj holding a PROJ4 string supplies the CRS;
// WKT sidecars are ignored (CRS translation is delegated, not parsed here).

func init() {
	RegisterFormat(&Format{
		Name:       "esri-ascii",
		Extensions: []string{".asc"},
		Decode:     decodeASC,
		Encode:     encodeASC,
	})
}

func decodeASC(path string) (*Grid, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 1024*1024), 16*1024*1024)
	sc.Split(bufio.ScanWords)
	next := func() (string, bool) {
		if !sc.Scan() {
			return "", false
		}
		return sc.Text(), true
	}

	var (
		ncols, nrows         int
		xll, yll, cellSize   float64
		nodata               float64
		hasNodata, centerReg bool
		haveCols, haveRows   bool
		haveX, haveY, haveCS bool
	)

	// Header: key/value word pairs until the first bare number.
	var firstSample string
	for {
		tok, ok := next()
		if !ok {
			return nil, fmt.Errorf("truncated header")
		}
		key := strings.ToUpper(tok)
		switch key {
		case "NCOLS", "NROWS":
			val, ok := next()
			if !ok {
				return nil, fmt.Errorf("missing value for %s", key)
			}
			n, err := strconv.Atoi(val)
			if err != nil || n <= 0 {
				return nil, fmt.Errorf("invalid %s %q", key, val)
			}
			if key == "NCOLS" {
				ncols, haveCols = n, true
			} else {
				nrows, haveRows = n, true
			}
		case "XLLCORNER", "XLLCENTER", "YLLCORNER", "YLLCENTER", "CELLSIZE", "NODATA_VALUE":
			val, ok := next()
			if !ok {
				return nil, fmt.Errorf("missing value for %s", key)
			}
			v, err := strconv.ParseFloat(val, 64)
			if err != nil {
				return nil, fmt.Errorf("invalid %s %q", key, val)
			}
			switch key {
			case "XLLCORNER":
				xll, haveX = v, true
			case "XLLCENTER":
				xll, haveX, centerReg = v, true, true
			case "YLLCORNER":
				yll, haveY = v, true
			case "YLLCENTER":
				yll, haveY, centerReg = v, true, true
			case "CELLSIZE":
				cellSize, haveCS = v, true
			case "NODATA_VALUE":
				nodata, hasNodata = v, true
			}
		default:
			if _, err := strconv.ParseFloat(tok, 64); err != nil {
				return nil, fmt.Errorf("unexpected header token %q", tok)
			}
			firstSample = tok
		}
		if firstSample != "" {
			break
		}
	}

	if !haveCols || !haveRows || !haveX || !haveY || !haveCS {
		return nil, fmt.Errorf("incomplete header (need NCOLS, NROWS, XLL*, YLL*, CELLSIZE)")
	}
	if cellSize <= 0 {
		return nil, fmt.Errorf("CELLSIZE must be positive, got %g", cellSize)
	}
	if centerReg {
		xll -= cellSize / 2
		yll -= cellSize / 2
	}

	g := NewGrid(nrows, ncols, NorthUp(xll, yll+float64(nrows)*cellSize, cellSize, -cellSize))
	b := g.Bands[0]
	total := nrows * ncols
	parse := func(tok string, i int) error {
		v, err := strconv.ParseFloat(tok, 64)
		if err != nil {
			return fmt.Errorf("invalid sample %q at index %d", tok, i)
		}
		b.Data.Elements[i] = v
		return nil
	}
	if err := parse(firstSample, 0); err != nil {
		return nil, err
	}
	for i := 1; i < total; i++ {
		tok, ok := next()
		if !ok {
			return nil, fmt.Errorf("truncated data: got %d of %d samples", i, total)
		}
		if err := parse(tok, i); err != nil {
			return nil, err
		}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}

	if hasNodata {
		g.NoData = nodata
		g.HasNoData = true
		b.Attrs["_FillValue"] = nodata
	}
	if proj4, ok := readPRJSidecar(path); ok {
		g.CRS = proj4
	}
	return g, nil
}

// readPRJSidecar returns the contents of path's .prj sidecar when it holds
// a PROJ4 string. ESRI WKT sidecars are skipped.
func readPRJSidecar(path string) (string, bool) {
	prj := strings.TrimSuffix(path, ".asc") + ".prj"
	data, err := os.ReadFile(prj)
	if err != nil {
		return "", false
	}
	s := strings.TrimSpace(string(data))
	if strings.HasPrefix(s, "+") {
		return s, true
	}
	return "", false
}

func encodeASC(g *Grid, f *os.File) error {
	if len(g.Bands) != 1 {
		return fmt.Errorf("esri-ascii holds a single band, grid has %d", len(g.Bands))
	}
	tr := g.Transform
	if tr.B != 0 || tr.D != 0 {
		return fmt.Errorf("esri-ascii requires an axis-aligned transform, got %s", tr.String())
	}
	if tr.A <= 0 || tr.E >= 0 || tr.A != -tr.E {
		return fmt.Errorf("esri-ascii requires square north-up cells, got %s", tr.String())
	}
	rows, cols := g.Rows(), g.Cols()
	cellSize := tr.A
	yll := tr.F + float64(rows)*tr.E

	w := bufio.NewWriter(f)
	fmt.Fprintf(w, "NCOLS %d\n", cols)
	fmt.Fprintf(w, "NROWS %d\n", rows)
	fmt.Fprintf(w, "XLLCORNER %s\n", formatSample(tr.C))
	fmt.Fprintf(w, "YLLCORNER %s\n", formatSample(yll))
	fmt.Fprintf(w, "CELLSIZE %s\n", formatSample(cellSize))
	if g.HasNoData {
		fmt.Fprintf(w, "NODATA_VALUE %s\n", formatSample(g.NoData))
	}
	b := g.Bands[0]
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			if c > 0 {
				if err := w.WriteByte(' '); err != nil {
					return err
				}
			}
			if _, err := w.WriteString(formatSample(b.Value(r, c))); err != nil {
				return err
			}
		}
		if err := w.WriteByte('\n'); err != nil {
			return err
		}
	}
	return w.Flush()
}

// formatSample renders a sample with the shortest representation that
// parses back to the identical float64, preserving the exact-copy
// guarantee across a text round trip.
func formatSample(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
