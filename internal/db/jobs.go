package db

import (
	"database/sql"
	"fmt"
)

// Job statuses move strictly queued -> running -> completed or failed.
const (
	JobStatusQueued    = "queued"
	JobStatusRunning   = "running"
	JobStatusCompleted = "completed"
	JobStatusFailed    = "failed"
)

// Job file outcomes.
const (
	FileStatusOK     = "ok"
	FileStatusFailed = "failed"
)

// Job is one submitted mask-fill request.
type Job struct {
	ID          string
	Status      string
	RegionPath  string
	OutputDir   string
	DefaultFill float64
	CacheMode   string
	Error       string
	CreatedAt   string
	UpdatedAt   string
}

// JobFile records the outcome of one input file within a job.
type JobFile struct {
	ID         int64
	JobID      string
	InputPath  string
	OutputPath string
	Status     string
	Error      string
	Coverage   float64
	DurationMs int64
}

func (db *DB) CreateJob(j Job) error {
	_, err := db.Exec(`
		INSERT INTO jobs (job_id, status, region_path, output_dir, default_fill, cache_mode)
		VALUES (?, ?, ?, ?, ?, ?)`,
		j.ID, j.Status, j.RegionPath, j.OutputDir, j.DefaultFill, j.CacheMode,
	)
	if err != nil {
		return fmt.Errorf("failed to create job %s: %w", j.ID, err)
	}
	return nil
}

// UpdateJobStatus moves a job to a new status, recording an error message
// for failed jobs.
func (db *DB) UpdateJobStatus(id, status, errMsg string) error {
	res, err := db.Exec(`
		UPDATE jobs SET status = ?, error = ?, updated_at = CURRENT_TIMESTAMP WHERE job_id = ?`,
		status, nullableString(errMsg), id,
	)
	if err != nil {
		return fmt.Errorf("failed to update job %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err == nil && n == 0 {
		return fmt.Errorf("job %s not found", id)
	}
	return nil
}

// GetJob returns a job by id, or (nil, nil) when it does not exist.
func (db *DB) GetJob(id string) (*Job, error) {
	var (
		j      Job
		errMsg sql.NullString
	)
	err := db.QueryRow(`
		SELECT job_id, status, region_path, output_dir, default_fill, cache_mode,
		       error, created_at, updated_at
		FROM jobs WHERE job_id = ?`, id).Scan(
		&j.ID, &j.Status, &j.RegionPath, &j.OutputDir, &j.DefaultFill, &j.CacheMode,
		&errMsg, &j.CreatedAt, &j.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load job %s: %w", id, err)
	}
	j.Error = errMsg.String
	return &j, nil
}

// ListJobs returns jobs, newest first.
func (db *DB) ListJobs(limit int) ([]Job, error) {
	rows, err := db.Query(`
		SELECT job_id, status, region_path, output_dir, default_fill, cache_mode,
		       error, created_at, updated_at
		FROM jobs ORDER BY created_at DESC, job_id LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var jobs []Job
	for rows.Next() {
		var (
			j      Job
			errMsg sql.NullString
		)
		if err := rows.Scan(
			&j.ID, &j.Status, &j.RegionPath, &j.OutputDir, &j.DefaultFill, &j.CacheMode,
			&errMsg, &j.CreatedAt, &j.UpdatedAt,
		); err != nil {
			return nil, err
		}
		j.Error = errMsg.String
		jobs = append(jobs, j)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return jobs, nil
}

// AddJobFile records one input file's outcome under a job.
func (db *DB) AddJobFile(f JobFile) (int64, error) {
	res, err := db.Exec(`
		INSERT INTO job_files (job_id, input_path, output_path, status, error, coverage, duration_ms)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		f.JobID, f.InputPath, nullableString(f.OutputPath), f.Status,
		nullableString(f.Error), f.Coverage, f.DurationMs,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to record file for job %s: %w", f.JobID, err)
	}
	return res.LastInsertId()
}

// JobFiles returns the per-file outcomes of a job in insertion order.
func (db *DB) JobFiles(jobID string) ([]JobFile, error) {
	rows, err := db.Query(`
		SELECT file_id, job_id, input_path, output_path, status, error, coverage, duration_ms
		FROM job_files WHERE job_id = ? ORDER BY file_id`, jobID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var files []JobFile
	for rows.Next() {
		var (
			f        JobFile
			outPath  sql.NullString
			errMsg   sql.NullString
			coverage sql.NullFloat64
			duration sql.NullInt64
		)
		if err := rows.Scan(
			&f.ID, &f.JobID, &f.InputPath, &outPath, &f.Status, &errMsg, &coverage, &duration,
		); err != nil {
			return nil, err
		}
		f.OutputPath = outPath.String
		f.Error = errMsg.String
		f.Coverage = coverage.Float64
		f.DurationMs = duration.Int64
		files = append(files, f)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return files, nil
}

func nullableString(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
