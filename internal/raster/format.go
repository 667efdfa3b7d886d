package raster

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Format is a raster container codec. Decode reads a whole file; Encode
// writes a grid into an already-open file handle so callers can control
// temp-file placement and atomic renames.
type Format struct {
	Name       string
	Extensions []string
	Decode     func(path string) (*Grid, error)
	Encode     func(g *Grid, f *os.File) error
}

var formats = map[string]*Format{}

// RegisterFormat adds a codec to the registry. Called from codec init
// functions; later registrations win for a contested extension.
func RegisterFormat(f *Format) {
	for _, ext := range f.Extensions {
		formats[strings.ToLower(ext)] = f
	}
}

// FormatFor resolves the codec for a path by extension.
func FormatFor(path string) (*Format, bool) {
	f, ok := formats[strings.ToLower(filepath.Ext(path))]
	return f, ok
}

// SupportedExtensions lists the registered extensions, sorted, for
// validation messages.
func SupportedExtensions() []string {
	exts := make([]string, 0, len(formats))
	for ext := range formats {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}

// Decode reads a raster file with the codec registered for its extension.
// GeoTIFF and HDF5 containers are delegated to external tooling, so an
// unregistered extension is an unsupported-container error.
func Decode(path string) (*Grid, error) {
	f, ok := FormatFor(path)
	if !ok {
		return nil, fmt.Errorf("unsupported raster container %q (supported: %s)",
			filepath.Ext(path), strings.Join(SupportedExtensions(), ", "))
	}
	g, err := f.Decode(path)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", f.Name, err)
	}
	if err := g.Validate(); err != nil {
		return nil, fmt.Errorf("decode %s: %w", f.Name, err)
	}
	return g, nil
}

// EncodeTo writes the grid into f using the codec registered for path's
// extension. The extension decides the container; f is where the bytes go.
func EncodeTo(g *Grid, path string, f *os.File) error {
	format, ok := FormatFor(path)
	if !ok {
		return fmt.Errorf("unsupported raster container %q", filepath.Ext(path))
	}
	if err := format.Encode(g, f); err != nil {
		return fmt.Errorf("encode %s: %w", format.Name, err)
	}
	return nil
}
