package db

import (
	"database/sql"
	"fmt"
	"io/fs"
	"strings"
	"sync"
)

// DevMode re-runs the schema.sql consistency check on every database open
// instead of caching the result, so schema edits are caught immediately
// when running from a source checkout. Set by the agent's -dev flag.
var DevMode bool

var (
	prodSchemaConsistencyOnce sync.Once
	prodSchemaConsistencyErr  error
	prodLatestVersion         uint
)

// getSchemaConsistencyResult validates that schema.sql matches the
// migrations and returns the latest migration version. In production the
// result is computed once per process; both the embedded schema and the
// embedded migrations are fixed at build time, so it cannot change.
func getSchemaConsistencyResult(migrationsFS fs.FS) (uint, error) {
	if DevMode {
		return validateSchemaSQLConsistency(migrationsFS)
	}
	prodSchemaConsistencyOnce.Do(func() {
		prodLatestVersion, prodSchemaConsistencyErr = validateSchemaSQLConsistency(migrationsFS)
	})
	return prodLatestVersion, prodSchemaConsistencyErr
}

// validateSchemaSQLConsistency builds one scratch database from schema.sql
// and another by replaying every migration, then diffs the two. Returns
// the latest migration version on success.
func validateSchemaSQLConsistency(migrationsFS fs.FS) (uint, error) {
	latest, err := GetLatestMigrationVersion(migrationsFS)
	if err != nil {
		return 0, fmt.Errorf("failed to get latest migration version: %w", err)
	}

	schemaDB, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		return 0, fmt.Errorf("failed to open temp schema database: %w", err)
	}
	defer schemaDB.Close()

	if _, err := schemaDB.Exec(schemaSQL); err != nil {
		return 0, fmt.Errorf("failed to initialize temp schema database: %w", err)
	}

	fromSchema, err := schemaObjects(schemaDB)
	if err != nil {
		return 0, fmt.Errorf("failed to read temp schema database: %w", err)
	}

	fromMigrations, err := schemaObjectsAtMigration(migrationsFS, latest)
	if err != nil {
		return 0, fmt.Errorf("failed to get schema at migration v%d: %w", latest, err)
	}

	score, diffs := compareSchemas(fromMigrations, fromSchema)
	if score != 100 {
		return 0, fmt.Errorf("schema.sql is out of sync with migration v%d: %s",
			latest, strings.Join(diffs, "; "))
	}
	return latest, nil
}

// schemaObjectsAtMigration replays migrations up to version v in an
// in-memory database and returns its schema objects.
func schemaObjectsAtMigration(migrationsFS fs.FS, v uint) (map[string]string, error) {
	scratch, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to open scratch database: %w", err)
	}
	defer scratch.Close()

	sdb := &DB{scratch}
	if err := sdb.MigrateTo(migrationsFS, v); err != nil {
		return nil, fmt.Errorf("failed to replay migrations to version %d: %w", v, err)
	}
	return schemaObjects(scratch)
}
