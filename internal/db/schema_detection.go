package db

import (
	"database/sql"
	"fmt"
	"io/fs"
	"sort"
	"strings"
)

// DetectSchemaVersion finds the migration version whose schema best
// matches the live database. Used for databases created before the
// migration flow existed: each candidate version is replayed into a
// scratch in-memory database and its schema compared against the live
// one. Returns the best version, a similarity score (0-100), and the
// differences against that version.
func (db *DB) DetectSchemaVersion(migrationsFS fs.FS) (uint, int, []string, error) {
	latest, err := GetLatestMigrationVersion(migrationsFS)
	if err != nil {
		return 0, 0, nil, err
	}

	live, err := schemaObjects(db.DB)
	if err != nil {
		return 0, 0, nil, fmt.Errorf("failed to read live schema: %w", err)
	}

	var (
		bestVersion uint
		bestScore   = -1
		bestDiffs   []string
	)
	for v := uint(1); v <= latest; v++ {
		score, diffs, err := db.compareAgainstVersion(migrationsFS, v, live)
		if err != nil {
			return 0, 0, nil, err
		}
		// Prefer the highest version among equal scores: a database that
		// matches versions 3 and 4 equally was most likely created at 4.
		if score >= bestScore {
			bestVersion, bestScore, bestDiffs = v, score, diffs
		}
	}

	return bestVersion, bestScore, bestDiffs, nil
}

// compareAgainstVersion replays migrations up to version v in a scratch
// database and diffs its schema against the live objects.
func (db *DB) compareAgainstVersion(migrationsFS fs.FS, v uint, live map[string]string) (int, []string, error) {
	want, err := schemaObjectsAtMigration(migrationsFS, v)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to read schema at version %d: %w", v, err)
	}

	score, diffs := compareSchemas(want, live)
	return score, diffs, nil
}

// schemaObjects returns user tables and indexes as name -> normalized DDL.
// The migration bookkeeping table and SQLite internals are excluded.
func schemaObjects(db *sql.DB) (map[string]string, error) {
	rows, err := db.Query(`
		SELECT name, sql FROM sqlite_master
		WHERE type IN ('table', 'index')
		  AND sql IS NOT NULL
		  AND name NOT LIKE 'sqlite_%'
		  AND tbl_name != 'schema_migrations'`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	objects := make(map[string]string)
	for rows.Next() {
		var name, ddl string
		if err := rows.Scan(&name, &ddl); err != nil {
			return nil, err
		}
		objects[name] = normalizeDDL(ddl)
	}
	return objects, rows.Err()
}

// normalizeDDL collapses the formatting noise that keeps otherwise equal
// schemas from comparing equal: case, whitespace, IF NOT EXISTS, quotes.
func normalizeDDL(ddl string) string {
	s := strings.ToLower(ddl)
	s = strings.ReplaceAll(s, "if not exists ", "")
	s = strings.ReplaceAll(s, `"`, "")
	s = strings.ReplaceAll(s, "`", "")
	return strings.Join(strings.Fields(s), " ")
}

// compareSchemas scores how closely the live schema matches the expected
// one: 100 means identical object sets with identical DDL.
func compareSchemas(want, live map[string]string) (int, []string) {
	var diffs []string
	matched := 0

	names := make([]string, 0, len(want))
	for name := range want {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		liveDDL, ok := live[name]
		switch {
		case !ok:
			diffs = append(diffs, fmt.Sprintf("missing: %s", name))
		case liveDDL != want[name]:
			diffs = append(diffs, fmt.Sprintf("differs: %s", name))
		default:
			matched++
		}
	}

	extras := make([]string, 0)
	for name := range live {
		if _, ok := want[name]; !ok {
			extras = append(extras, name)
		}
	}
	sort.Strings(extras)
	for _, name := range extras {
		diffs = append(diffs, fmt.Sprintf("extra: %s", name))
	}

	total := len(want) + len(extras)
	if total == 0 {
		return 100, nil
	}
	return matched * 100 / total, diffs
}
