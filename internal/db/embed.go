package db

import (
	"embed"
	"io/fs"
	"os"
)

//go:embed migrations/*.sql
var embeddedMigrations embed.FS

// schemaSQL is the consolidated schema, kept in step with the migrations.
// EnsureSchema executes it directly; validateSchemaSQLConsistency verifies
// it still matches what the migrations produce.
//
//go:embed schema.sql
var schemaSQL string

// MigrationsFS returns the migrations filesystem: the working tree copy
// when running from a source checkout, so new migrations are picked up
// without a rebuild, and the embedded copy everywhere else.
func MigrationsFS() (fs.FS, error) {
	if info, err := os.Stat("internal/db/migrations"); err == nil && info.IsDir() {
		return os.DirFS("internal/db/migrations"), nil
	}
	return fs.Sub(embeddedMigrations, "migrations")
}
