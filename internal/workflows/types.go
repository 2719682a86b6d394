package workflows

import (
	"encoding/json"

	"taxaformer/internal/models"
)

type ReportArtifactsInput struct {
	JobID   string   `json:"job_id"`
	OutDir  string   `json:"out_dir"`
	Formats []string `json:"formats,omitempty"`

	// Result, when set, is used instead of fetching the job from the datastore.
	Result       *models.AnalysisResult `json:"result,omitempty"`
	RawSequences json.RawMessage        `json:"raw_sequences,omitempty"`
}

type ReportBatchInput struct {
	JobIDs                []string `json:"job_ids"`
	OutRoot               string   `json:"out_root"`
	Formats               []string `json:"formats,omitempty"`
	MaxConcurrentChildren int      `json:"max_concurrent_children"`
}

// ArtifactProgress is returned by the GetArtifactProgress query.
type ArtifactProgress struct {
	JobID       string            `json:"job_id"`
	OutDir      string            `json:"out_dir"`
	CurrentStep string            `json:"current_step"`
	Status      string            `json:"status"`
	FailReason  string            `json:"fail_reason,omitempty"`
	Fallback    bool              `json:"fallback"`
	Steps       map[string]string `json:"steps"`
	Artifacts   []string          `json:"artifacts"`
}

type BatchProgress struct {
	Total         int               `json:"total"`
	Done          int               `json:"done"`
	Failed        int               `json:"failed"`
	PerJob        map[string]string `json:"per_job_status"`
	ChildWorkflow map[string]string `json:"child_workflow_ids,omitempty"`
}
