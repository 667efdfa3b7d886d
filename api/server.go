// Package api serves the mask-fill agent's HTTP surface: job
// submission and inspection under /v1, plus the operator debug pages
// the daemon mounts under /debug.
package api

import (
	"log"
	"net/http"

	"github.com/granule-data/maskfill/internal/config"
	"github.com/granule-data/maskfill/internal/db"
	"github.com/granule-data/maskfill/internal/httputil"
	"github.com/granule-data/maskfill/internal/maskfill"
)

type Server struct {
	db      *db.DB
	runner  *maskfill.Runner
	cfg     *config.RunConfig
	dataDir string // when set, request paths must stay inside it
}

// NewServer wires the agent API over the cache database and run
// configuration. dataDir of "" disables path confinement, for
// deployments where the agent is trusted with the whole filesystem.
func NewServer(database *db.DB, cfg *config.RunConfig, dataDir string) *Server {
	return &Server{
		db:      database,
		runner:  &maskfill.Runner{Workers: cfg.GetWorkers(), Cache: database},
		cfg:     cfg,
		dataDir: dataDir,
	}
}

func (s *Server) homeHandler(w http.ResponseWriter, r *http.Request) {
	// Handle the home page
	w.Write([]byte("Welcome to the Mask Fill Agent!"))
}

func (s *Server) ServeMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/jobs", s.handleJobs)
	mux.HandleFunc("/jobs/", s.handleJobByID)
	mux.HandleFunc("/config", s.handleConfig)
	mux.HandleFunc("/cache/stats", s.handleCacheStats)
	mux.HandleFunc("/", s.homeHandler)
	return mux
}

func (s *Server) handleConfig(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, s.cfg.Effective())
}

// cacheStats is the /cache/stats response body.
type cacheStats struct {
	Count     int64            `json:"count"`
	BlobBytes int64            `json:"blob_bytes"`
	Recent    []cacheEntryView `json:"recent,omitempty"`
}

type cacheEntryView struct {
	Key         string `json:"key"`
	CRS         string `json:"crs,omitempty"`
	Rows        int    `json:"rows"`
	Cols        int    `json:"cols"`
	RegionPath  string `json:"region_path"`
	AllTouched  bool   `json:"all_touched"`
	CellsInside int    `json:"cells_inside"`
	UseCount    int64  `json:"use_count"`
	LastUsedAt  string `json:"last_used_at"`
}

func (s *Server) handleCacheStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}

	count, blobBytes, err := s.db.MaskStats()
	if err != nil {
		httputil.WriteJSONError(w, http.StatusInternalServerError, err.Error())
		return
	}
	records, err := s.db.ListMasks(20)
	if err != nil {
		httputil.WriteJSONError(w, http.StatusInternalServerError, err.Error())
		return
	}

	stats := cacheStats{Count: count, BlobBytes: blobBytes}
	for _, rec := range records {
		stats.Recent = append(stats.Recent, cacheEntryView{
			Key:         rec.Key,
			CRS:         rec.CRS,
			Rows:        rec.Rows,
			Cols:        rec.Cols,
			RegionPath:  rec.RegionPath,
			AllTouched:  rec.AllTouched,
			CellsInside: rec.CellsInside,
			UseCount:    rec.UseCount,
			LastUsedAt:  rec.LastUsedAt,
		})
	}
	httputil.WriteJSON(w, http.StatusOK, stats)
}

func (s *Server) writeAgentXML(w http.ResponseWriter, httpStatus int, doc []byte) {
	w.Header().Set("Content-Type", "application/xml; charset=utf-8")
	w.WriteHeader(httpStatus)
	if _, err := w.Write(doc); err != nil {
		log.Printf("failed to write agent response: %v", err)
	}
}

// httpStatusFor maps agent exit statuses onto HTTP statuses: parameter
// problems are the caller's fault, internal errors ours, and a
// NoMatchingData document is still a successfully produced response.
func httpStatusFor(exitStatus int) int {
	switch exitStatus {
	case 0, 3:
		return http.StatusOK
	case 1, 2:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
