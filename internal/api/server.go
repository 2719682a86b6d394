package api

import (
	"context"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	tclient "go.temporal.io/sdk/client"
	"go.temporal.io/sdk/converter"

	"taxaformer/internal/backend"
	"taxaformer/internal/config"
	"taxaformer/internal/datastore"
	"taxaformer/internal/report"
	"taxaformer/internal/session"
)

// WorkflowClient is the part of the Temporal client the API uses.
type WorkflowClient interface {
	ExecuteWorkflow(ctx context.Context, options tclient.StartWorkflowOptions, workflow interface{}, args ...interface{}) (tclient.WorkflowRun, error)
	QueryWorkflow(ctx context.Context, workflowID string, runID string, queryType string, args ...interface{}) (converter.EncodedValue, error)
}

// Deps are the collaborators built by cmd/api. Jobs and Temporal may be nil.
type Deps struct {
	Jobs     datastore.JobSource
	Backends *backend.Manager
	Sessions *session.Store
	Temporal WorkflowClient
	Logger   *log.Logger
}

type Server struct {
	cfg      config.Config
	jobs     datastore.JobSource
	backends *backend.Manager
	sessions *session.Store
	temporal WorkflowClient
	logger   *log.Logger
	now      func() time.Time
}

func NewServer(cfg config.Config, deps Deps) *Server {
	logger := deps.Logger
	if logger == nil {
		logger = log.Default()
	}
	sessions := deps.Sessions
	if sessions == nil {
		sessions = session.New(64)
	}
	return &Server{
		cfg:      cfg,
		jobs:     deps.Jobs,
		backends: deps.Backends,
		sessions: sessions,
		temporal: deps.Temporal,
		logger:   logger,
		now:      time.Now,
	}
}

func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", s.handleHealthz)
	mux.HandleFunc("/analyze", s.handleAnalyze)
	mux.HandleFunc("/jobs", s.handleJobs)
	mux.HandleFunc("/jobs/", s.handleJobScoped)
	mux.HandleFunc("/heatmap", s.handleHeatmap)
	mux.HandleFunc("/diversity", s.handleDiversity)
	mux.HandleFunc("/artifacts/", s.handleArtifactsScoped)
	return withCORS(withRequestLog(s.logger, mux))
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	out := map[string]any{"ok": true, "session_id": s.sessions.ID()}
	if s.backends != nil {
		out["backends"] = s.backends.Count()
		if remote, ok := s.backends.Remote(); ok {
			ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
			defer cancel()
			out["backend"] = "healthy"
			if err := remote.Health(ctx); err != nil {
				out["backend"] = "unavailable"
			}
		}
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) reportOptions() report.Options {
	opts := report.DefaultOptions()
	if s.cfg.TopTaxa > 0 {
		opts.TopTaxa = s.cfg.TopTaxa
	}
	opts.UniqueTaxaRank = s.cfg.UniqueTaxaRank
	if s.cfg.NoveltyThreshold > 0 {
		opts.NoveltyThreshold = s.cfg.NoveltyThreshold
	}
	if s.cfg.ReportSequences > 0 {
		opts.SequenceLimit = s.cfg.ReportSequences
	}
	opts.Now = s.now
	return opts
}
