package datastore

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"taxaformer/internal/models"
	"taxaformer/internal/util"
)

// JobSource is the read-only view of stored analysis jobs.
type JobSource interface {
	ListJobs(ctx context.Context, limit int) ([]models.JobRow, error)
	GetJob(ctx context.Context, jobID string) (models.JobRow, error)
}

// RESTClient reads analysis_jobs through a PostgREST endpoint.
type RESTClient struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

func NewRESTClient(baseURL, apiKey string, timeout time.Duration) *RESTClient {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &RESTClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		http:    &http.Client{Timeout: timeout},
	}
}

type restRow struct {
	ID             string          `json:"id"`
	Filename       string          `json:"filename"`
	TotalSequences *int            `json:"total_sequences"`
	CreatedAt      time.Time       `json:"created_at"`
	AnalysisResult json.RawMessage `json:"analysis_result"`
}

func (r restRow) toModel() models.JobRow {
	j := models.JobRow{JobID: r.ID, Filename: r.Filename, CreatedAt: r.CreatedAt}
	if r.TotalSequences != nil {
		j.TotalSequences = *r.TotalSequences
	}
	if len(r.AnalysisResult) > 0 && string(r.AnalysisResult) != "null" {
		j.Result = r.AnalysisResult
	}
	return j
}

func (c *RESTClient) ListJobs(ctx context.Context, limit int) ([]models.JobRow, error) {
	if limit <= 0 {
		limit = 50
	}
	q := url.Values{}
	q.Set("select", "id,filename,total_sequences,created_at")
	q.Set("order", "created_at.desc")
	q.Set("limit", strconv.Itoa(limit))
	var rows []restRow
	if err := c.get(ctx, q, &rows); err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}
	out := make([]models.JobRow, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toModel())
	}
	return out, nil
}

func (c *RESTClient) GetJob(ctx context.Context, jobID string) (models.JobRow, error) {
	q := url.Values{}
	q.Set("select", "id,filename,total_sequences,created_at,analysis_result")
	q.Set("id", "eq."+jobID)
	var rows []restRow
	if err := c.get(ctx, q, &rows); err != nil {
		return models.JobRow{}, fmt.Errorf("get job: %w", err)
	}
	if len(rows) == 0 {
		return models.JobRow{}, fmt.Errorf("job %s: %w", jobID, util.ErrNotFound)
	}
	return rows[0].toModel(), nil
}

func (c *RESTClient) get(ctx context.Context, q url.Values, out any) error {
	endpoint := c.baseURL + "/rest/v1/analysis_jobs?" + q.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("apikey", c.apiKey)
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", util.ErrUpstreamUnavailable, err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<20))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: datastore status %d: %s", util.ErrUpstreamUnavailable, resp.StatusCode, truncate(string(body), 300))
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode datastore response: %w", err)
	}
	return nil
}

func truncate(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
