package api

import (
	"errors"
	"net/http"

	"github.com/granule-data/maskfill/internal/db"
	"github.com/granule-data/maskfill/internal/httputil"
	"github.com/granule-data/maskfill/internal/maskfill"
	"github.com/granule-data/maskfill/internal/report"
)

// HandleCoverage renders the coverage chart for a job's files. The
// daemon mounts it under /debug/coverage, outside the /v1 prefix.
// Query params:
//   - job (optional; defaults to the most recent job)
func (s *Server) HandleCoverage(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}

	jobID := r.URL.Query().Get("job")
	var job *db.Job
	if jobID == "" {
		jobs, err := s.db.ListJobs(1)
		if err != nil {
			httputil.WriteJSONError(w, http.StatusInternalServerError, err.Error())
			return
		}
		if len(jobs) == 0 {
			httputil.WriteJSONError(w, http.StatusNotFound, "no jobs recorded yet")
			return
		}
		job = &jobs[0]
	} else {
		j, err := s.db.GetJob(jobID)
		if err != nil {
			httputil.WriteJSONError(w, http.StatusInternalServerError, err.Error())
			return
		}
		if j == nil {
			httputil.WriteJSONError(w, http.StatusNotFound, "no such job")
			return
		}
		job = j
	}

	files, err := s.db.JobFiles(job.ID)
	if err != nil {
		httputil.WriteJSONError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if len(files) == 0 {
		httputil.WriteJSONError(w, http.StatusNotFound, "job has no recorded files")
		return
	}

	// Rebuild outcomes from the ledger; the chart only needs input,
	// coverage and pass/fail.
	outcomes := make([]maskfill.Outcome, 0, len(files))
	for _, f := range files {
		o := maskfill.Outcome{Input: f.InputPath, Output: f.OutputPath, Coverage: f.Coverage}
		if f.Status == db.FileStatusFailed {
			o.Err = errors.New(f.Error)
		}
		outcomes = append(outcomes, o)
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := report.CoverageChart(w, job.RegionPath, outcomes); err != nil {
		httputil.WriteJSONError(w, http.StatusInternalServerError, "failed to render chart: "+err.Error())
		return
	}
}
