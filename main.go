// Command maskfill fills every raster cell outside a region polygon with
// a no-data value, preserving the cells inside. It takes one or more
// raster files and one region file, writes each result next to the input
// name with an _mf suffix, and reports either a plain-text summary or
// the agent-response XML the upstream ordering system consumes.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/granule-data/maskfill/internal/config"
	"github.com/granule-data/maskfill/internal/db"
	"github.com/granule-data/maskfill/internal/maskfill"
	"github.com/granule-data/maskfill/internal/report"
	"github.com/granule-data/maskfill/internal/version"
)

// multiFlag collects a repeatable flag, splitting each value on commas.
type multiFlag []string

func (m *multiFlag) String() string { return strings.Join(*m, ",") }

func (m *multiFlag) Set(v string) error {
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			*m = append(*m, part)
		}
	}
	return nil
}

var (
	fileURLs    multiFlag
	shapefile   = flag.String("SHAPEFILE", "", "Region file (.shp, .geojson or .fgb) whose polygons keep their raster cells")
	outputDir   = flag.String("OUTPUT_DIR", "", "Directory for the _mf output files (default: config output_dir, else the current directory)")
	defaultFill = flag.String("DEFAULT_FILL", "", "Fill value for rasters that carry no no-data value (default: config default_fill, else -9999)")
	cacheMode   = flag.String("MASK_GRID_CACHE", "", "Mask cache mode: ignore_and_delete, ignore_and_save, use_cache, use_and_save, use_cache_delete or maskgrid_only")
	cacheDB     = flag.String("CACHE_DB", "", "Mask cache database path (default: config cache_db, else maskfill-cache.db)")
	allTouched  = flag.Bool("ALL_TOUCHED", false, "Count any cell the region touches as inside, not only cells whose center it covers")
	xmlOut      = flag.Bool("XML", false, "Write the agent-response XML to stdout instead of the plain-text summary")
	configPath  = flag.String("config", "", "Path to a JSON run-defaults file")
	workers     = flag.Int("workers", 0, "Files processed concurrently (0 = one per CPU; overrides the config file)")
	showVersion = flag.Bool("version", false, "Print version and exit")
)

func main() {
	flag.Var(&fileURLs, "FILE_URLS", "Raster file(s) to process; comma-separated, may be repeated")
	flag.Parse()

	if *showVersion {
		fmt.Printf("maskfill %s (%s, built %s)\n", version.Version, version.GitSHA, version.BuildTime)
		return
	}

	os.Exit(run())
}

func run() int {
	cfg := loadConfig()

	// flag.Visit only sees flags given on the command line, which is what
	// lets an explicit zero value beat the config file.
	set := make(map[string]bool)
	flag.Visit(func(f *flag.Flag) { set[f.Name] = true })

	req := maskfill.Request{
		RasterPaths: fileURLs,
		RegionPath:  *shapefile,
		OutputDir:   *outputDir,
		AllTouched:  *allTouched,
	}
	if req.OutputDir == "" {
		req.OutputDir = cfg.GetOutputDir()
	}
	if !set["ALL_TOUCHED"] {
		req.AllTouched = cfg.GetAllTouched()
	}

	req.DefaultFill = cfg.GetDefaultFill()
	if *defaultFill != "" {
		fill, err := strconv.ParseFloat(strings.TrimSpace(*defaultFill), 64)
		if err != nil {
			return finish(req.RegionPath, nil, &maskfill.ParameterError{
				Name:   "DEFAULT_FILL",
				Reason: fmt.Sprintf("%q is not numeric", *defaultFill),
			})
		}
		req.DefaultFill = fill
	}

	req.CacheMode = cfg.GetMaskGridCache()
	if *cacheMode != "" {
		mode, err := maskfill.ParseCacheMode(*cacheMode)
		if err != nil {
			return finish(req.RegionPath, nil, &maskfill.ParameterError{Name: "MASK_GRID_CACHE", Reason: err.Error()})
		}
		req.CacheMode = mode
	}

	dbPath := cfg.GetCacheDB()
	if *cacheDB != "" {
		dbPath = *cacheDB
	}
	database, err := db.NewDB(dbPath)
	if err != nil {
		return finish(req.RegionPath, nil, fmt.Errorf("open mask cache %s: %w", dbPath, err))
	}
	defer database.Close()
	if err := database.EnsureSchema(); err != nil {
		return finish(req.RegionPath, nil, fmt.Errorf("prepare mask cache %s: %w", dbPath, err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	w := cfg.GetWorkers()
	if set["workers"] {
		w = *workers
	}
	runner := &maskfill.Runner{Workers: w, Cache: database}
	outcomes, runErr := runner.Run(ctx, req)
	return finish(req.RegionPath, outcomes, runErr)
}

// finish renders the run in the selected format and returns the process
// exit status: 0 all files succeeded, 1 invalid parameter, 2 missing
// parameter, 3 region matched no data, 4 anything else.
func finish(regionPath string, outcomes []maskfill.Outcome, runErr error) int {
	doc, status := report.AgentXML(regionPath, outcomes, runErr)
	if *xmlOut {
		os.Stdout.Write(doc)
		return status
	}
	if runErr == nil || len(outcomes) > 0 {
		report.WriteText(os.Stdout, outcomes)
	}
	if runErr != nil {
		fmt.Fprintf(os.Stderr, "maskfill: %v\n", runErr)
	}
	return status
}

// loadConfig reads the file named by -config, else the checked-in
// defaults file when present, else the built-in defaults.
func loadConfig() *config.RunConfig {
	if *configPath != "" {
		cfg, err := config.LoadRunConfig(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "maskfill: load config %s: %v\n", *configPath, err)
			os.Exit(4)
		}
		return cfg
	}
	cfg, err := config.LoadRunConfig(config.DefaultConfigPath)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			fmt.Fprintf(os.Stderr, "maskfill: load config %s: %v\n", config.DefaultConfigPath, err)
			os.Exit(4)
		}
		return config.EmptyRunConfig()
	}
	return cfg
}
