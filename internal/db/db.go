// Package db manages the SQLite database behind the mask cache and the
// agent's job ledger.
package db

import (
	"compress/gzip"
	"database/sql"
	"fmt"
	"io"
	"io/fs"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/tailscale/tailsql/server/tailsql"
	_ "modernc.org/sqlite"
	"tailscale.com/tsweb"
)

type DB struct {
	*sql.DB
}

// pragmas applied to every database we open. WAL keeps the cache readable
// while a batch run writes; the busy timeout rides out the CLI and the
// agent sharing one file.
var pragmas = []string{
	"PRAGMA journal_mode=WAL",
	"PRAGMA busy_timeout=5000",
	"PRAGMA synchronous=NORMAL",
	"PRAGMA temp_store=MEMORY",
	"PRAGMA foreign_keys=ON",
}

func NewDB(path string) (*DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}
	return &DB{db}, nil
}

// EnsureSchema creates all tables if they do not exist. The batch CLI
// uses this to bring up an ad-hoc cache file without touching the
// migration bookkeeping; the server path goes through
// NewDBWithMigrationCheck instead.
func (db *DB) EnsureSchema() error {
	if _, err := db.Exec(schemaSQL); err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}
	return nil
}

// NewDBWithMigrationCheck opens the database for the agent. A database
// without migration bookkeeping gets the full schema and is baselined at
// the latest version; an existing one is either migrated up (autoMigrate)
// or refused with instructions when migrations are pending.
func NewDBWithMigrationCheck(path string, autoMigrate bool) (*DB, error) {
	migrationsFS, err := MigrationsFS()
	if err != nil {
		return nil, fmt.Errorf("failed to get migrations filesystem: %w", err)
	}

	// Refuse to start if schema.sql and the migrations have drifted apart;
	// both paths must produce the same database.
	latestVersion, err := getSchemaConsistencyResult(migrationsFS)
	if err != nil {
		return nil, err
	}

	db, err := NewDB(path)
	if err != nil {
		return nil, err
	}

	var hasMigrationsTable bool
	err = db.QueryRow(`
		SELECT COUNT(*) > 0
		FROM sqlite_master
		WHERE type='table' AND name='schema_migrations'
	`).Scan(&hasMigrationsTable)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to check for schema_migrations table: %w", err)
	}

	if !hasMigrationsTable {
		return db.adoptUnversionedDatabase(migrationsFS, latestVersion, autoMigrate)
	}

	if autoMigrate {
		if err := db.MigrateUp(migrationsFS); err != nil {
			db.Close()
			return nil, fmt.Errorf("auto-migration failed: %w", err)
		}
		return db, nil
	}

	if shouldExit, err := db.CheckAndPromptMigrations(migrationsFS); shouldExit {
		db.Close()
		return nil, err
	}
	return db, nil
}

// adoptUnversionedDatabase brings a database without migration bookkeeping
// into the migration flow. An empty file gets the full schema; a database
// with tables (created by the CLI's EnsureSchema, or by an older build) is
// version-detected first so we never baseline a schema we don't recognize.
func (db *DB) adoptUnversionedDatabase(migrationsFS fs.FS, latestVersion uint, autoMigrate bool) (*DB, error) {
	var userTables int
	err := db.QueryRow(`
		SELECT COUNT(*)
		FROM sqlite_master
		WHERE type='table' AND name NOT LIKE 'sqlite_%'
	`).Scan(&userTables)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to inspect database: %w", err)
	}

	if userTables == 0 {
		if err := db.EnsureSchema(); err != nil {
			db.Close()
			return nil, err
		}
		if err := db.BaselineAtVersion(latestVersion); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to baseline fresh database: %w", err)
		}
		return db, nil
	}

	version, score, diffs, err := db.DetectSchemaVersion(migrationsFS)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to detect schema version: %w", err)
	}
	if score != 100 {
		db.Close()
		return nil, fmt.Errorf("database has no migration history and its schema matches no known version (best: v%d at %d%%, %s); run 'maskfilld migrate detect' to inspect",
			version, score, strings.Join(diffs, "; "))
	}

	if err := db.BaselineAtVersion(version); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to baseline database at detected version %d: %w", version, err)
	}
	if version == latestVersion {
		return db, nil
	}

	if autoMigrate {
		if err := db.MigrateUp(migrationsFS); err != nil {
			db.Close()
			return nil, fmt.Errorf("auto-migration failed: %w", err)
		}
		return db, nil
	}

	db.Close()
	return nil, fmt.Errorf("database baselined at version %d but version %d is available; run 'maskfilld migrate up'", version, latestVersion)
}

func (db *DB) AttachAdminRoutes(mux *http.ServeMux) {
	debug := tsweb.Debugger(mux)
	// create a tailSQL instance and point it to our DB
	tsql, err := tailsql.NewServer(tailsql.Options{
		RoutePrefix: "/debug/tailsql/",
	})
	if err != nil {
		log.Fatalf("failed to create tailsql server: %v", err)
	}
	tsql.SetDB("sqlite://maskfill.db", db.DB, &tailsql.DBOptions{
		Label: "Mask Cache DB",
	})

	// mount the tailSQL server on the debug /tailsql path
	debug.Handle("tailsql/", "SQL live debugging", tsql.NewMux())

	debug.Handle("backup", "Create and download a backup of the database now", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		unixTime := time.Now().Unix()
		backupPath := fmt.Sprintf("maskfill-backup-%d.db", unixTime)
		if _, err := db.DB.Exec("VACUUM INTO ?", backupPath); err != nil {
			http.Error(w, fmt.Sprintf("Failed to create backup: %v", err), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s", backupPath))
		w.Header().Set("Content-Type", "application/octet-stream")
		w.Header().Set("Content-Encoding", "gzip")

		backupFile, err := os.Open(backupPath)
		if err != nil {
			http.Error(w, fmt.Sprintf("Failed to open backup file: %v", err), http.StatusInternalServerError)
			return
		}

		// close the backup file after sending it
		// and remove it from the filesystem
		defer func() {
			backupFile.Close()
			if err := os.Remove(backupPath); err != nil {
				log.Printf("Failed to remove backup file: %v", err)
			}
		}()

		gzipWriter := gzip.NewWriter(w)
		defer gzipWriter.Close()

		// Copy the backup file content to the gzip writer
		if _, err := io.Copy(gzipWriter, backupFile); err != nil {
			http.Error(w, fmt.Sprintf("Failed to write backup file: %v", err), http.StatusInternalServerError)
			return
		}
	}))
}
