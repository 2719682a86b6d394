package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"taxaformer/internal/fasta"
	"taxaformer/internal/util"
)

// HTTPClassifier talks to the remote classification service.
type HTTPClassifier struct {
	baseURL string
	client  *http.Client
}

func NewHTTPClassifier(baseURL string, timeout time.Duration) *HTTPClassifier {
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	return &HTTPClassifier{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

func (h *HTTPClassifier) info() Info {
	return Info{Name: "remote", URL: h.baseURL}
}

// Analyze validates the file locally, then posts it as multipart form data to /analyze.
func (h *HTTPClassifier) Analyze(ctx context.Context, req AnalyzeRequest) (AnalyzeResponse, Info, error) {
	if _, err := fasta.Validate(req.Filename, req.Content); err != nil {
		return AnalyzeResponse{}, h.info(), err
	}

	buf := &bytes.Buffer{}
	mw := multipart.NewWriter(buf)
	fw, err := mw.CreateFormFile("file", req.Filename)
	if err != nil {
		return AnalyzeResponse{}, h.info(), fmt.Errorf("create form file: %w", err)
	}
	if _, err := fw.Write(req.Content); err != nil {
		return AnalyzeResponse{}, h.info(), fmt.Errorf("write form file: %w", err)
	}
	if req.SessionID != "" {
		_ = mw.WriteField("session_id", req.SessionID)
	}
	if len(bytes.TrimSpace(req.Metadata)) > 0 {
		_ = mw.WriteField("metadata", string(req.Metadata))
	}
	if err := mw.Close(); err != nil {
		return AnalyzeResponse{}, h.info(), fmt.Errorf("close multipart: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, h.baseURL+"/analyze", buf)
	if err != nil {
		return AnalyzeResponse{}, h.info(), err
	}
	httpReq.Header.Set("Content-Type", mw.FormDataContentType())

	var out AnalyzeResponse
	if err := h.do(httpReq, &out); err != nil {
		return AnalyzeResponse{}, h.info(), err
	}
	if out.Status == "" {
		out.Status = StatusSuccess
	}
	return out, h.info(), nil
}

// JobStatus fetches a stored job from the backend and reports it as a completed analysis.
func (h *HTTPClassifier) JobStatus(ctx context.Context, jobID string) (AnalyzeResponse, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, h.baseURL+"/jobs/"+url.PathEscape(jobID), nil)
	if err != nil {
		return AnalyzeResponse{}, err
	}
	var row struct {
		ID             string          `json:"id"`
		Status         string          `json:"status"`
		AnalysisResult json.RawMessage `json:"analysis_result"`
		Result         json.RawMessage `json:"result"`
	}
	if err := h.do(httpReq, &row); err != nil {
		return AnalyzeResponse{}, err
	}
	out := AnalyzeResponse{Status: row.Status, JobID: row.ID, Data: row.AnalysisResult}
	if len(out.Data) == 0 {
		out.Data = row.Result
	}
	if out.JobID == "" {
		out.JobID = jobID
	}
	if out.Status == "" {
		out.Status = StatusProcessing
		if len(out.Data) > 0 {
			out.Status = StatusSuccess
		}
	}
	return out, nil
}

// Health returns nil when the backend answers its health probe.
func (h *HTTPClassifier) Health(ctx context.Context) error {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, h.baseURL+"/health", nil)
	if err != nil {
		return err
	}
	var body map[string]any
	return h.do(httpReq, &body)
}

func (h *HTTPClassifier) do(req *http.Request, out any) error {
	resp, err := h.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", util.ErrUpstreamUnavailable, err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &StatusError{Code: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode backend response: %w", err)
	}
	return nil
}
