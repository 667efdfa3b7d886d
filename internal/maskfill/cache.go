package maskfill

import (
	"fmt"
	"strings"
)

// CacheMode selects how the mask cache participates in a run. The cache
// keys a rasterized mask by everything that determines its cell pattern,
// so a hit is exact; the modes decide whether rows are read, written or
// cleared.
type CacheMode string

const (
	// CacheIgnoreAndDelete computes the mask fresh and clears any cached
	// row for its key. The default: runs pick up region edits
	// immediately and leave no stale entries behind.
	CacheIgnoreAndDelete CacheMode = "ignore_and_delete"

	// CacheIgnoreAndSave computes fresh and stores the result.
	CacheIgnoreAndSave CacheMode = "ignore_and_save"

	// CacheUse reads a cached mask when present, computing (but not
	// storing) otherwise.
	CacheUse CacheMode = "use_cache"

	// CacheUseAndSave reads when present, computes and stores otherwise.
	CacheUseAndSave CacheMode = "use_and_save"

	// CacheUseDelete reads when present, then removes the row: a
	// one-shot hand-off from a priming run.
	CacheUseDelete CacheMode = "use_cache_delete"

	// CacheMaskGridOnly computes (or reads) and persists the mask
	// without producing an output raster: the priming pass itself.
	CacheMaskGridOnly CacheMode = "maskgrid_only"
)

// ParseCacheMode resolves a flag value, defaulting the empty string.
func ParseCacheMode(s string) (CacheMode, error) {
	switch m := CacheMode(strings.ToLower(strings.TrimSpace(s))); m {
	case "":
		return CacheIgnoreAndDelete, nil
	case CacheIgnoreAndDelete, CacheIgnoreAndSave, CacheUse, CacheUseAndSave,
		CacheUseDelete, CacheMaskGridOnly:
		return m, nil
	default:
		return "", fmt.Errorf("unknown cache mode %q (want one of %s)", s, strings.Join(CacheModeNames(), ", "))
	}
}

// CacheModeNames lists the accepted mode values for flag help and
// validation messages.
func CacheModeNames() []string {
	return []string{
		string(CacheIgnoreAndDelete),
		string(CacheIgnoreAndSave),
		string(CacheUse),
		string(CacheUseAndSave),
		string(CacheUseDelete),
		string(CacheMaskGridOnly),
	}
}

// readsCache reports whether the mode consults existing rows.
func (m CacheMode) readsCache() bool {
	switch m {
	case CacheUse, CacheUseAndSave, CacheUseDelete, CacheMaskGridOnly:
		return true
	}
	return false
}

// savesMask reports whether a freshly computed mask is persisted.
func (m CacheMode) savesMask() bool {
	switch m {
	case CacheIgnoreAndSave, CacheUseAndSave, CacheMaskGridOnly:
		return true
	}
	return false
}

// clearsEntry reports whether the row for the key is removed:
// ignore_and_delete clears without reading, use_cache_delete after.
func (m CacheMode) clearsEntry() bool {
	return m == CacheIgnoreAndDelete || m == CacheUseDelete
}

// SkipsRaster reports whether the run stops after the mask is persisted,
// producing no output raster.
func (m CacheMode) SkipsRaster() bool { return m == CacheMaskGridOnly }
