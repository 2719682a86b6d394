package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"taxaformer/internal/backend"
	"taxaformer/internal/results"
	"taxaformer/internal/util"
)

const maxUploadBytes = 100 << 20

// handleAnalyze proxies a multipart sequence upload to the classification backend
// and keeps the normalized result in the session.
func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeErr(w, http.StatusMethodNotAllowed, fmt.Errorf("method not allowed"))
		return
	}
	if s.backends == nil {
		writeErr(w, http.StatusBadGateway, fmt.Errorf("no classification backends configured"))
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		writeErr(w, http.StatusBadRequest, fmt.Errorf("parse multipart: %w", err))
		return
	}
	f, hdr, err := r.FormFile("file")
	if err != nil {
		writeErr(w, http.StatusBadRequest, fmt.Errorf("file is required: %w", err))
		return
	}
	defer f.Close()
	content, err := io.ReadAll(f)
	if err != nil {
		writeErr(w, http.StatusBadRequest, fmt.Errorf("read upload: %w", err))
		return
	}

	var meta json.RawMessage
	if raw := strings.TrimSpace(r.FormValue("metadata")); raw != "" {
		var obj map[string]any
		if err := json.Unmarshal([]byte(raw), &obj); err != nil {
			writeErr(w, http.StatusBadRequest, fmt.Errorf("invalid metadata: %w", err))
			return
		}
		meta = json.RawMessage(raw)
	}
	digest := util.SHA256Hex(content)
	sessionID := strings.TrimSpace(r.FormValue("session_id"))
	if sessionID == "" {
		sessionID = s.sessions.ID()
	}

	resp, info, err := s.backends.Analyze(r.Context(), backend.AnalyzeRequest{
		Filename:  filepath.Base(hdr.Filename),
		Content:   content,
		SessionID: sessionID,
		Metadata:  meta,
	})
	if err != nil {
		writeErr(w, statusFor(err), err)
		return
	}

	out := map[string]any{
		"status":     resp.Status,
		"job_id":     resp.JobID,
		"backend":    info.Name,
		"fallback":   resp.Fallback,
		"session_id": sessionID,
		"sha256":     digest,
	}
	if resp.Message != "" {
		out["message"] = resp.Message
	}
	s.logger.Info("analysis received", "file", hdr.Filename, "sha256", digest, "backend", info.Name, "status", resp.Status, "fallback", resp.Fallback)
	if resp.Status == backend.StatusFailed {
		writeErr(w, http.StatusBadGateway, errors.New(resp.Message))
		return
	}
	if len(bytes.TrimSpace(resp.Data)) == 0 {
		writeJSON(w, http.StatusAccepted, out)
		return
	}
	res, err := results.Normalize(resp.Data)
	if err != nil {
		writeErr(w, http.StatusBadGateway, err)
		return
	}
	if res.Metadata.SampleName == "Unknown Sample" {
		res.Metadata.SampleName = filepath.Base(hdr.Filename)
	}
	jobID := resp.JobID
	if jobID == "" {
		jobID = "local-" + uuid.NewString()
		out["job_id"] = jobID
	}
	s.sessions.Put(jobID, res, resp.Fallback)
	out["data"] = res
	writeJSON(w, http.StatusOK, out)
}
