package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	enumspb "go.temporal.io/api/enums/v1"
	tclient "go.temporal.io/sdk/client"

	"taxaformer/internal/util"
	"taxaformer/internal/workflows"
)

var errWorkflowsDisabled = errors.New("temporal client not configured")

// handleStartArtifacts starts a ReportArtifactsWorkflow for one job.
func (s *Server) handleStartArtifacts(w http.ResponseWriter, r *http.Request, jobID string) {
	if r.Method != http.MethodPost {
		writeErr(w, http.StatusMethodNotAllowed, fmt.Errorf("method not allowed"))
		return
	}
	if s.temporal == nil {
		writeErr(w, http.StatusServiceUnavailable, errWorkflowsDisabled)
		return
	}
	var req struct {
		Formats []string `json:"formats"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeErr(w, http.StatusBadRequest, fmt.Errorf("invalid json: %w", err))
		return
	}

	if _, err := s.load(r.Context(), jobID); err != nil {
		writeErr(w, statusFor(err), err)
		return
	}
	input := workflows.ReportArtifactsInput{JobID: jobID, Formats: req.Formats}
	// Cached results travel with the run; uploads never reach the worker's datastore.
	if e, ok := s.sessions.Get(jobID); ok {
		input.Result = &e.Result
		input.RawSequences = e.Result.RawSequences
	}

	runID := uuid.NewString()
	wfID := "artifacts-" + strings.ToLower(util.SafeJoin("", jobID)) + "-" + runID[:8]
	outDir := filepath.Join(util.SafeJoin(s.cfg.DataOutRoot, jobID), "runs", runID)
	input.OutDir = outDir
	we, err := s.temporal.ExecuteWorkflow(r.Context(), tclient.StartWorkflowOptions{
		ID:                                       wfID,
		TaskQueue:                                s.cfg.TemporalTaskQueue,
		WorkflowIDReusePolicy:                    enumspb.WORKFLOW_ID_REUSE_POLICY_ALLOW_DUPLICATE,
		WorkflowExecutionErrorWhenAlreadyStarted: true,
	}, workflows.ReportArtifactsWorkflow, input)
	if err != nil {
		writeErr(w, http.StatusInternalServerError, err)
		return
	}
	s.logger.Info("artifact workflow started", "job_id", jobID, "workflow_id", we.GetID())
	writeJSON(w, http.StatusAccepted, map[string]any{
		"workflow_id": we.GetID(),
		"run_id":      we.GetRunID(),
		"out_dir":     outDir,
	})
}

func (s *Server) handleArtifactsScoped(w http.ResponseWriter, r *http.Request) {
	rest := strings.Trim(strings.TrimPrefix(r.URL.Path, "/artifacts/"), "/")
	wfID, sub, _ := strings.Cut(rest, "/")
	if wfID == "" || sub != "progress" {
		writeErr(w, http.StatusNotFound, fmt.Errorf("not found"))
		return
	}
	if r.Method != http.MethodGet {
		writeErr(w, http.StatusMethodNotAllowed, fmt.Errorf("method not allowed"))
		return
	}
	if s.temporal == nil {
		writeErr(w, http.StatusServiceUnavailable, errWorkflowsDisabled)
		return
	}
	resp, err := s.temporal.QueryWorkflow(r.Context(), wfID, "", workflows.QueryGetArtifactProgress)
	if err != nil {
		writeErr(w, http.StatusNotFound, err)
		return
	}
	var prog workflows.ArtifactProgress
	if err := resp.Get(&prog); err != nil {
		writeErr(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, prog)
}
