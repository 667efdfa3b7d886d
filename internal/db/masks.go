package db

import (
	"database/sql"
	"fmt"
)

// MaskRecord is one cached rasterized mask. Timestamps are SQLite's text
// form; they are carried for display, never parsed.
type MaskRecord struct {
	Key         string
	CRS         string
	Transform   string
	Rows        int
	Cols        int
	RegionPath  string
	AllTouched  bool
	CellsInside int
	Blob        []byte
	CreatedAt   string
	LastUsedAt  string
	UseCount    int64
}

// PutMask inserts or replaces the cached mask under its key.
func (db *DB) PutMask(rec MaskRecord) error {
	_, err := db.Exec(`
		INSERT INTO mask_grids (
			mask_key, crs, transform, rows, cols, region_path,
			all_touched, cells_inside, mask_blob
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(mask_key) DO UPDATE SET
			crs = excluded.crs,
			transform = excluded.transform,
			rows = excluded.rows,
			cols = excluded.cols,
			region_path = excluded.region_path,
			all_touched = excluded.all_touched,
			cells_inside = excluded.cells_inside,
			mask_blob = excluded.mask_blob,
			last_used_at = CURRENT_TIMESTAMP`,
		rec.Key, rec.CRS, rec.Transform, rec.Rows, rec.Cols, rec.RegionPath,
		rec.AllTouched, rec.CellsInside, rec.Blob,
	)
	if err != nil {
		return fmt.Errorf("failed to store mask %s: %w", rec.Key, err)
	}
	return nil
}

// GetMask loads a cached mask and bumps its usage accounting. Returns
// (nil, nil) when the key is absent.
func (db *DB) GetMask(key string) (*MaskRecord, error) {
	var rec MaskRecord
	err := db.QueryRow(`
		SELECT mask_key, crs, transform, rows, cols, region_path,
		       all_touched, cells_inside, mask_blob, created_at, last_used_at, use_count
		FROM mask_grids WHERE mask_key = ?`, key).Scan(
		&rec.Key, &rec.CRS, &rec.Transform, &rec.Rows, &rec.Cols, &rec.RegionPath,
		&rec.AllTouched, &rec.CellsInside, &rec.Blob, &rec.CreatedAt, &rec.LastUsedAt, &rec.UseCount,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load mask %s: %w", key, err)
	}
	if _, err := db.Exec(
		`UPDATE mask_grids SET last_used_at = CURRENT_TIMESTAMP, use_count = use_count + 1 WHERE mask_key = ?`,
		key,
	); err != nil {
		return nil, fmt.Errorf("failed to update mask usage for %s: %w", key, err)
	}
	return &rec, nil
}

// DeleteMask removes a cached mask. Deleting an absent key is not an
// error.
func (db *DB) DeleteMask(key string) error {
	if _, err := db.Exec(`DELETE FROM mask_grids WHERE mask_key = ?`, key); err != nil {
		return fmt.Errorf("failed to delete mask %s: %w", key, err)
	}
	return nil
}

// MaskStats returns the cache entry count and total blob bytes.
func (db *DB) MaskStats() (count int64, blobBytes int64, err error) {
	err = db.QueryRow(
		`SELECT COUNT(*), COALESCE(SUM(LENGTH(mask_blob)), 0) FROM mask_grids`,
	).Scan(&count, &blobBytes)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to read mask cache stats: %w", err)
	}
	return count, blobBytes, nil
}

// ListMasks returns cache entries, most recently used first, without
// their blobs.
func (db *DB) ListMasks(limit int) ([]MaskRecord, error) {
	rows, err := db.Query(`
		SELECT mask_key, crs, transform, rows, cols, region_path,
		       all_touched, cells_inside, created_at, last_used_at, use_count
		FROM mask_grids ORDER BY last_used_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []MaskRecord
	for rows.Next() {
		var rec MaskRecord
		if err := rows.Scan(
			&rec.Key, &rec.CRS, &rec.Transform, &rec.Rows, &rec.Cols, &rec.RegionPath,
			&rec.AllTouched, &rec.CellsInside, &rec.CreatedAt, &rec.LastUsedAt, &rec.UseCount,
		); err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return records, nil
}
