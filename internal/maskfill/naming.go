package maskfill

import (
	"path/filepath"
	"strings"
)

// OutputName derives an output file name from the input: the _mf marker
// goes before the extension, so velocity.nc becomes velocity_mf.nc.
// Extensionless inputs get the marker appended.
func OutputName(inputPath string) string {
	base := filepath.Base(inputPath)
	ext := filepath.Ext(base)
	return strings.TrimSuffix(base, ext) + "_mf" + ext
}

// OutputPath places the derived name in the output directory.
func OutputPath(outputDir, inputPath string) string {
	return filepath.Join(outputDir, OutputName(inputPath))
}
