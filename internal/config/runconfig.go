package config

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/granule-data/maskfill/internal/maskfill"
)

// DefaultConfigPath is the path to the canonical run defaults file.
// This is the single source of truth for all default run values.
const DefaultConfigPath = "config/maskfill.defaults.json"

// RunConfig represents the root configuration for mask-fill runs. The
// schema matches the service's /v1/config endpoint so the same JSON can
// be used for both startup configuration and inspection. All fields are
// pointers so a partial file overrides only what it names; the Get*
// accessors supply the defaults for everything else.
type RunConfig struct {
	// Fill params
	DefaultFill *float64 `json:"default_fill,omitempty"`
	AllTouched  *bool    `json:"all_touched,omitempty"`

	// Cache params
	MaskGridCache *string `json:"mask_grid_cache,omitempty"`
	CacheDB       *string `json:"cache_db,omitempty"`

	// Run params
	OutputDir *string `json:"output_dir,omitempty"`
	Workers   *int    `json:"workers,omitempty"` // 0 means one per CPU

	// Service params
	ListenAddr      *string `json:"listen_addr,omitempty"`
	ShutdownTimeout *string `json:"shutdown_timeout,omitempty"` // duration string like "5s"
}

// Helper functions to create pointers
func ptrFloat64(v float64) *float64 { return &v }
func ptrBool(v bool) *bool          { return &v }
func ptrString(v string) *string    { return &v }
func ptrInt(v int) *int             { return &v }

// EmptyRunConfig returns a RunConfig with all fields set to nil.
// Use LoadRunConfig to load actual values from the defaults file.
func EmptyRunConfig() *RunConfig {
	return &RunConfig{}
}

// DefaultRunConfig returns a RunConfig with every field pinned to its
// default, the values the Get* accessors fall back to. The service uses
// it to render the effective configuration.
func DefaultRunConfig() *RunConfig {
	return &RunConfig{
		DefaultFill:     ptrFloat64(-9999),
		AllTouched:      ptrBool(false),
		MaskGridCache:   ptrString(string(maskfill.CacheIgnoreAndDelete)),
		CacheDB:         ptrString("maskfill-cache.db"),
		OutputDir:       ptrString("."),
		Workers:         ptrInt(0),
		ListenAddr:      ptrString(":8080"),
		ShutdownTimeout: ptrString("5s"),
	}
}

// Effective returns a copy with every field pinned to the value the
// Get* accessor would report, explicit or default. The service renders
// this as its configuration view.
func (c *RunConfig) Effective() *RunConfig {
	return &RunConfig{
		DefaultFill:     ptrFloat64(c.GetDefaultFill()),
		AllTouched:      ptrBool(c.GetAllTouched()),
		MaskGridCache:   ptrString(string(c.GetMaskGridCache())),
		CacheDB:         ptrString(c.GetCacheDB()),
		OutputDir:       ptrString(c.GetOutputDir()),
		Workers:         ptrInt(c.GetWorkers()),
		ListenAddr:      ptrString(c.GetListenAddr()),
		ShutdownTimeout: ptrString(c.GetShutdownTimeout().String()),
	}
}

// LoadRunConfig loads a RunConfig from a JSON file.
// The file is validated to ensure it has a .json extension and is under
// the max file size. Fields omitted from the JSON file retain their
// default values, so partial configs are safe.
func LoadRunConfig(path string) (*RunConfig, error) {
	// Validate the config file path.
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	// Check file size for safety (max 1MB)
	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024 // 1MB
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Parse JSON into empty config. The Get* methods provide fallback
	// defaults for any fields not specified in the JSON.
	cfg := EmptyRunConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	// Validate the configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// MustLoadDefaultConfig loads the canonical run defaults from DefaultConfigPath.
// It searches for the file in the current directory and common parent directories.
// Panics if the file cannot be loaded, intended for test setup.
func MustLoadDefaultConfig() *RunConfig {
	// Try paths from current dir up to repo root
	candidates := []string{
		DefaultConfigPath,
		"../../" + DefaultConfigPath,    // from internal/config/
		"../../../" + DefaultConfigPath, // deeper packages
	}
	for _, path := range candidates {
		if cfg, err := LoadRunConfig(path); err == nil {
			return cfg
		}
	}
	panic("cannot find " + DefaultConfigPath + " - run tests from repository root")
}

// Validate checks that the configuration values are valid.
func (c *RunConfig) Validate() error {
	// Validate DefaultFill if set
	if c.DefaultFill != nil {
		if math.IsNaN(*c.DefaultFill) || math.IsInf(*c.DefaultFill, 0) {
			return fmt.Errorf("default_fill must be a finite number, got %f", *c.DefaultFill)
		}
	}

	// Validate MaskGridCache names a known mode if set
	if c.MaskGridCache != nil && *c.MaskGridCache != "" {
		if _, err := maskfill.ParseCacheMode(*c.MaskGridCache); err != nil {
			return fmt.Errorf("invalid mask_grid_cache: %w", err)
		}
	}

	// Validate Workers if set
	if c.Workers != nil {
		if *c.Workers < 0 {
			return fmt.Errorf("workers must be non-negative, got %d", *c.Workers)
		}
	}

	// Validate ShutdownTimeout can be parsed if set
	if c.ShutdownTimeout != nil && *c.ShutdownTimeout != "" {
		if _, err := time.ParseDuration(*c.ShutdownTimeout); err != nil {
			return fmt.Errorf("invalid shutdown_timeout '%s': %w", *c.ShutdownTimeout, err)
		}
	}

	return nil
}

// GetDefaultFill returns the default_fill value or the default.
func (c *RunConfig) GetDefaultFill() float64 {
	if c.DefaultFill == nil {
		return -9999 // default
	}
	return *c.DefaultFill
}

// GetAllTouched returns the all_touched value or the default.
func (c *RunConfig) GetAllTouched() bool {
	if c.AllTouched == nil {
		return false // default: center-point containment
	}
	return *c.AllTouched
}

// GetMaskGridCache parses and returns the MaskGridCache as a CacheMode.
func (c *RunConfig) GetMaskGridCache() maskfill.CacheMode {
	if c.MaskGridCache == nil || *c.MaskGridCache == "" {
		return maskfill.CacheIgnoreAndDelete // default
	}
	mode, err := maskfill.ParseCacheMode(*c.MaskGridCache)
	if err != nil {
		return maskfill.CacheIgnoreAndDelete // default on parse error
	}
	return mode
}

// GetCacheDB returns the cache_db path or the default.
func (c *RunConfig) GetCacheDB() string {
	if c.CacheDB == nil || *c.CacheDB == "" {
		return "maskfill-cache.db" // default
	}
	return *c.CacheDB
}

// GetOutputDir returns the output_dir value or the default.
func (c *RunConfig) GetOutputDir() string {
	if c.OutputDir == nil || *c.OutputDir == "" {
		return "." // default: current directory
	}
	return *c.OutputDir
}

// GetWorkers returns the workers value or the default.
func (c *RunConfig) GetWorkers() int {
	if c.Workers == nil {
		return 0 // default: one per CPU
	}
	return *c.Workers
}

// GetListenAddr returns the listen_addr value or the default.
func (c *RunConfig) GetListenAddr() string {
	if c.ListenAddr == nil || *c.ListenAddr == "" {
		return ":8080" // default
	}
	return *c.ListenAddr
}

// GetShutdownTimeout parses and returns the ShutdownTimeout as a time.Duration.
func (c *RunConfig) GetShutdownTimeout() time.Duration {
	if c.ShutdownTimeout == nil || *c.ShutdownTimeout == "" {
		return 5 * time.Second // default
	}
	d, err := time.ParseDuration(*c.ShutdownTimeout)
	if err != nil {
		return 5 * time.Second // default on parse error
	}
	return d
}
