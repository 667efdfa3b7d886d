// Command maskfilld exposes the mask-fill pipeline as an HTTP agent:
// jobs arrive as JSON on /v1/jobs, run through the same pipeline as the
// maskfill CLI, and answer with the ESI agent-response XML. Admin and
// debugging routes (tailsql console over the cache database, backup
// download, coverage chart) live under /debug/.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"log"
	"net/http"
	"os/signal"
	"sync"
	"syscall"

	_ "modernc.org/sqlite"

	"github.com/granule-data/maskfill/api"
	"github.com/granule-data/maskfill/internal/config"
	"github.com/granule-data/maskfill/internal/db"
	"github.com/granule-data/maskfill/internal/version"
)

var (
	configPath  = flag.String("config", "", "Path to a JSON run-defaults file")
	listen      = flag.String("listen", "", "Listen address (overrides the config file)")
	cacheDB     = flag.String("cache-db", "", "Mask cache database path (overrides the config file)")
	dataDir     = flag.String("data-dir", "", "Restrict job file paths to this directory")
	autoMigrate = flag.Bool("auto-migrate", false, "Apply pending cache schema migrations on startup")
	showVersion = flag.Bool("version", false, "Print version and exit")
)

func main() {
	flag.Parse()

	if *showVersion {
		fmt.Printf("maskfilld %s (%s, built %s)\n", version.Version, version.GitSHA, version.BuildTime)
		return
	}

	cfg := loadConfig()

	dbPath := cfg.GetCacheDB()
	if *cacheDB != "" {
		dbPath = *cacheDB
	}

	// The migrate subcommand manages the cache schema and exits.
	if flag.Arg(0) == "migrate" {
		db.RunMigrateCommand(flag.Args()[1:], dbPath)
		return
	}

	addr := cfg.GetListenAddr()
	if *listen != "" {
		addr = *listen
	}
	if addr == "" {
		log.Fatal("Listen address is required")
	}

	database, err := db.NewDBWithMigrationCheck(dbPath, *autoMigrate)
	if err != nil {
		log.Fatalf("Failed to open mask cache %s: %v", dbPath, err)
	}
	defer database.Close()

	apiServer := api.NewServer(database, cfg, *dataDir)
	if *dataDir != "" {
		log.Printf("confining job paths to %s", *dataDir)
	}

	var wg sync.WaitGroup
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// HTTP server goroutine
	wg.Add(1)
	go func() {
		defer wg.Done()

		mux := http.NewServeMux()

		// mount the admin debugging routes (accessible only in dev mode or over Tailscale)
		database.AttachAdminRoutes(mux)
		mux.HandleFunc("/debug/coverage", apiServer.HandleCoverage)

		// mount the versioned API handlers
		mux.Handle("/v1/", http.StripPrefix("/v1", apiServer.ServeMux()))
		mux.HandleFunc("/", home)

		h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			log.Printf("got request %q", r.URL.Path)
			mux.ServeHTTP(w, r)
		})

		server := &http.Server{
			Addr:    addr,
			Handler: h,
		}

		// Start server in a goroutine so it doesn't block
		go func() {
			if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Fatalf("failed to start server: %v", err)
			}
		}()

		// Wait for context cancellation to shut down server
		<-ctx.Done()
		log.Println("shutting down HTTP server...")

		// Create a shutdown context with a timeout
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.GetShutdownTimeout())
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Printf("HTTP server shutdown error: %v", err)
		}

		log.Printf("HTTP server routine stopped")
	}()

	log.Printf("maskfilld %s listening on %s (cache %s)", version.Version, addr, dbPath)

	// Wait for all goroutines to finish
	wg.Wait()
	log.Printf("Graceful shutdown complete")
}

// loadConfig reads the file named by -config, else the checked-in
// defaults file when present, else the built-in defaults.
func loadConfig() *config.RunConfig {
	if *configPath != "" {
		cfg, err := config.LoadRunConfig(*configPath)
		if err != nil {
			log.Fatalf("Failed to load config %s: %v", *configPath, err)
		}
		return cfg
	}
	cfg, err := config.LoadRunConfig(config.DefaultConfigPath)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			log.Fatalf("Failed to load config %s: %v", config.DefaultConfigPath, err)
		}
		return config.EmptyRunConfig()
	}
	return cfg
}

func home(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	fmt.Fprintf(w, "maskfilld %s\n\n", version.Version)
	fmt.Fprintln(w, "API routes under /v1/:")
	fmt.Fprintln(w, "  POST /v1/jobs         submit a mask-fill job")
	fmt.Fprintln(w, "  GET  /v1/jobs         recent jobs")
	fmt.Fprintln(w, "  GET  /v1/jobs/{id}    one job with its files")
	fmt.Fprintln(w, "  GET  /v1/config       effective run defaults")
	fmt.Fprintln(w, "  GET  /v1/cache/stats  mask cache totals")
	fmt.Fprintln(w, "Debug routes under /debug/ (tailsql console, coverage chart).")
}
