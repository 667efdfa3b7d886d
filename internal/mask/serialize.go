package mask

import (
	"bytes"
	"compress/gzip"
	"crypto/sha256"
	"encoding/gob"
	"encoding/hex"
	"fmt"
	"io"
	"path/filepath"

	"github.com/granule-data/maskfill/internal/crs"
	"github.com/granule-data/maskfill/internal/raster"
)

// Serialize encodes the mask as a gzip-compressed gob blob, the form the
// cache stores.
func (m *Mask) Serialize() ([]byte, error) {
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	if err := gob.NewEncoder(zw).Encode(m); err != nil {
		return nil, fmt.Errorf("failed to encode mask: %w", err)
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("failed to compress mask: %w", err)
	}
	return buf.Bytes(), nil
}

// Deserialize decodes a blob produced by Serialize.
func Deserialize(data []byte) (*Mask, error) {
	zr, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decompress mask: %w", err)
	}
	defer zr.Close()
	var m Mask
	if err := gob.NewDecoder(zr).Decode(&m); err != nil {
		return nil, fmt.Errorf("failed to decode mask: %w", err)
	}
	if m.Rows*m.Cols != len(m.Inside) {
		return nil, fmt.Errorf("corrupt mask blob: shape %dx%d does not match %d cells",
			m.Rows, m.Cols, len(m.Inside))
	}
	return &m, nil
}

// CacheKey identifies a mask by everything that determines its cell
// pattern: the grid's CRS (canonicalized), geotransform and shape, the
// region source path (absolute), and the burn rule. Two rasters sharing
// all five reuse the same cached mask.
func CacheKey(crsProj4 string, tr raster.Affine, rows, cols int, regionPath string, opts Options) string {
	abs, err := filepath.Abs(regionPath)
	if err != nil {
		abs = regionPath
	}
	h := sha256.New224()
	io.WriteString(h, crs.Normalize(crsProj4))
	io.WriteString(h, "|")
	io.WriteString(h, tr.String())
	fmt.Fprintf(h, "|%dx%d|%s|touched=%t", rows, cols, abs, opts.AllTouched)
	return hex.EncodeToString(h.Sum(nil))
}
