package api

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/granule-data/maskfill/internal/db"
	"github.com/granule-data/maskfill/internal/httputil"
	"github.com/granule-data/maskfill/internal/maskfill"
	"github.com/granule-data/maskfill/internal/report"
	"github.com/granule-data/maskfill/internal/security"
)

// jobRequest is the POST /v1/jobs body. Optional fields fall back to
// the server's run configuration.
type jobRequest struct {
	FileURLs      []string `json:"file_urls"`
	Shapefile     string   `json:"shapefile"`
	OutputDir     string   `json:"output_dir,omitempty"`
	DefaultFill   *float64 `json:"default_fill,omitempty"`
	MaskGridCache string   `json:"mask_grid_cache,omitempty"`
	AllTouched    *bool    `json:"all_touched,omitempty"`
}

type jobView struct {
	ID          string  `json:"job_id"`
	Status      string  `json:"status"`
	RegionPath  string  `json:"region_path"`
	OutputDir   string  `json:"output_dir"`
	DefaultFill float64 `json:"default_fill"`
	CacheMode   string  `json:"cache_mode"`
	Error       string  `json:"error,omitempty"`
	CreatedAt   string  `json:"created_at"`
	UpdatedAt   string  `json:"updated_at"`
}

type jobFileView struct {
	InputPath  string  `json:"input_path"`
	OutputPath string  `json:"output_path,omitempty"`
	Status     string  `json:"status"`
	Error      string  `json:"error,omitempty"`
	Coverage   float64 `json:"coverage"`
	DurationMs int64   `json:"duration_ms"`
}

func viewOfJob(j db.Job) jobView {
	return jobView{
		ID:          j.ID,
		Status:      j.Status,
		RegionPath:  j.RegionPath,
		OutputDir:   j.OutputDir,
		DefaultFill: j.DefaultFill,
		CacheMode:   j.CacheMode,
		Error:       j.Error,
		CreatedAt:   j.CreatedAt,
		UpdatedAt:   j.UpdatedAt,
	}
}

func viewOfFile(f db.JobFile) jobFileView {
	return jobFileView{
		InputPath:  f.InputPath,
		OutputPath: f.OutputPath,
		Status:     f.Status,
		Error:      f.Error,
		Coverage:   f.Coverage,
		DurationMs: f.DurationMs,
	}
}

func (s *Server) handleJobs(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		s.submitJob(w, r)
	case http.MethodGet:
		s.listJobs(w, r)
	default:
		httputil.MethodNotAllowed(w)
	}
}

// submitJob runs a mask-fill request to completion and answers with the
// agent XML response. The run is recorded in the job ledger either way;
// the Maskfill-Job-Id header carries the ledger key.
func (s *Server) submitJob(w http.ResponseWriter, r *http.Request) {
	var jr jobRequest
	body := http.MaxBytesReader(w, r.Body, 1<<20)
	if err := json.NewDecoder(body).Decode(&jr); err != nil {
		perr := &maskfill.ParameterError{Name: "request body", Reason: err.Error()}
		doc, status := report.AgentXML("", nil, perr)
		s.writeAgentXML(w, httpStatusFor(status), doc)
		return
	}

	req := maskfill.Request{
		RasterPaths: jr.FileURLs,
		RegionPath:  jr.Shapefile,
		OutputDir:   jr.OutputDir,
		DefaultFill: s.cfg.GetDefaultFill(),
		CacheMode:   maskfill.CacheMode(jr.MaskGridCache),
		AllTouched:  s.cfg.GetAllTouched(),
	}
	if jr.DefaultFill != nil {
		req.DefaultFill = *jr.DefaultFill
	}
	if jr.AllTouched != nil {
		req.AllTouched = *jr.AllTouched
	}
	if req.OutputDir == "" {
		req.OutputDir = s.cfg.GetOutputDir()
	}
	if req.CacheMode == "" {
		req.CacheMode = s.cfg.GetMaskGridCache()
	}

	if err := s.confineRequest(req); err != nil {
		doc, status := report.AgentXML(req.RegionPath, nil, err)
		s.writeAgentXML(w, httpStatusFor(status), doc)
		return
	}

	jobID := uuid.NewString()
	job := db.Job{
		ID:          jobID,
		Status:      db.JobStatusQueued,
		RegionPath:  req.RegionPath,
		OutputDir:   req.OutputDir,
		DefaultFill: req.DefaultFill,
		CacheMode:   string(req.CacheMode),
	}
	if err := s.db.CreateJob(job); err != nil {
		httputil.WriteJSONError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.Header().Set("Maskfill-Job-Id", jobID)

	if err := s.db.UpdateJobStatus(jobID, db.JobStatusRunning, ""); err != nil {
		log.Printf("failed to mark job %s running: %v", jobID, err)
	}

	outcomes, runErr := s.runner.Run(r.Context(), req)
	s.recordRun(jobID, outcomes, runErr)

	doc, status := report.AgentXML(req.RegionPath, outcomes, runErr)
	s.writeAgentXML(w, httpStatusFor(status), doc)
}

// confineRequest rejects paths outside the configured data directory.
// Requests are parameter errors at this point; nothing has run yet.
func (s *Server) confineRequest(req maskfill.Request) error {
	if s.dataDir == "" {
		return nil
	}
	for _, p := range req.RasterPaths {
		if err := security.ValidatePathWithinDirectory(p, s.dataDir); err != nil {
			return &maskfill.ParameterError{Name: "FILE_URLS", Reason: err.Error()}
		}
	}
	if req.RegionPath != "" {
		if err := security.ValidatePathWithinDirectory(req.RegionPath, s.dataDir); err != nil {
			return &maskfill.ParameterError{Name: "SHAPEFILE", Reason: err.Error()}
		}
	}
	if req.OutputDir != "" {
		if err := security.ValidatePathWithinDirectory(req.OutputDir, s.dataDir); err != nil {
			return &maskfill.ParameterError{Name: "OUTPUT_DIR", Reason: err.Error()}
		}
	}
	return nil
}

// recordRun persists per-file outcomes and the job's final status. The
// ledger is best effort; a ledger write failure never fails the run.
func (s *Server) recordRun(jobID string, outcomes []maskfill.Outcome, runErr error) {
	for _, o := range outcomes {
		f := db.JobFile{
			JobID:      jobID,
			InputPath:  o.Input,
			OutputPath: o.Output,
			Status:     db.FileStatusOK,
			Coverage:   o.Coverage,
			DurationMs: o.Duration.Milliseconds(),
		}
		if o.Err != nil {
			f.Status = db.FileStatusFailed
			f.Error = o.Err.Error()
		}
		if _, err := s.db.AddJobFile(f); err != nil {
			log.Printf("failed to record file for job %s: %v", jobID, err)
		}
	}

	status, errMsg := db.JobStatusCompleted, ""
	switch {
	case runErr != nil:
		status, errMsg = db.JobStatusFailed, runErr.Error()
	case maskfill.Failed(outcomes) > 0:
		status = db.JobStatusFailed
		errMsg = fmt.Sprintf("%d of %d file(s) failed", maskfill.Failed(outcomes), len(outcomes))
	}
	if err := s.db.UpdateJobStatus(jobID, status, errMsg); err != nil {
		log.Printf("failed to finalize job %s: %v", jobID, err)
	}
}

func (s *Server) listJobs(w http.ResponseWriter, r *http.Request) {
	jobs, err := s.db.ListJobs(50)
	if err != nil {
		httputil.WriteJSONError(w, http.StatusInternalServerError, err.Error())
		return
	}
	views := make([]jobView, 0, len(jobs))
	for _, j := range jobs {
		views = append(views, viewOfJob(j))
	}
	httputil.WriteJSON(w, http.StatusOK, map[string][]jobView{"jobs": views})
}

func (s *Server) handleJobByID(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}

	id := strings.TrimPrefix(r.URL.Path, "/jobs/")
	if id == "" || strings.Contains(id, "/") {
		httputil.WriteJSONError(w, http.StatusNotFound, "no such job")
		return
	}

	job, err := s.db.GetJob(id)
	if err != nil {
		httputil.WriteJSONError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if job == nil {
		httputil.WriteJSONError(w, http.StatusNotFound, "no such job")
		return
	}
	files, err := s.db.JobFiles(id)
	if err != nil {
		httputil.WriteJSONError(w, http.StatusInternalServerError, err.Error())
		return
	}

	fileViews := make([]jobFileView, 0, len(files))
	for _, f := range files {
		fileViews = append(fileViews, viewOfFile(f))
	}
	httputil.WriteJSON(w, http.StatusOK, struct {
		Job   jobView       `json:"job"`
		Files []jobFileView `json:"files"`
	}{viewOfJob(*job), fileViews})
}
