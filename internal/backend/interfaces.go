package backend

import (
	"context"
	"encoding/json"
)

// Response statuses reported by the classification backend.
const (
	StatusSuccess    = "success"
	StatusQueued     = "queued"
	StatusProcessing = "processing"
	StatusFailed     = "error"
)

type Info struct {
	Name string `json:"name"`
	URL  string `json:"url,omitempty"`
}

type AnalyzeRequest struct {
	Filename  string
	Content   []byte
	SessionID string
	// Metadata is forwarded verbatim as the "metadata" form field when non-empty.
	Metadata json.RawMessage
}

type AnalyzeResponse struct {
	Status   string          `json:"status"`
	Data     json.RawMessage `json:"data,omitempty"`
	Message  string          `json:"message,omitempty"`
	JobID    string          `json:"job_id,omitempty"`
	Fallback bool            `json:"fallback,omitempty"`
}

// Classifier submits sequence files for taxonomic classification.
type Classifier interface {
	Analyze(ctx context.Context, req AnalyzeRequest) (AnalyzeResponse, Info, error)
}
