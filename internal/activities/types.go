package activities

import (
	"encoding/json"

	"taxaformer/internal/models"
)

// Artifact formats produced by the report workflow.
const (
	FormatPDF  = "pdf"
	FormatCSV  = "csv"
	FormatJSON = "json"
	FormatPNG  = "png"
)

// AllFormats is used when a run names no formats.
var AllFormats = []string{FormatPDF, FormatCSV, FormatJSON, FormatPNG}

type FetchResultInput struct {
	JobID string `json:"job_id"`
}

type FetchResultOutput struct {
	JobID    string                 `json:"job_id"`
	Filename string                 `json:"filename"`
	Result   *models.AnalysisResult `json:"result,omitempty"`
	Fallback bool                   `json:"fallback"`

	// RawSequences carries Result.RawSequences, which AnalysisResult omits from JSON.
	RawSequences json.RawMessage `json:"raw_sequences,omitempty"`
}

type RenderReportInput struct {
	JobID  string                 `json:"job_id"`
	OutDir string                 `json:"out_dir"`
	Result *models.AnalysisResult `json:"result,omitempty"`
}

type RenderReportOutput struct {
	Path  string `json:"path"`
	Pages int    `json:"pages"`
}

type WriteExportsInput struct {
	JobID   string                `json:"job_id"`
	OutDir  string                `json:"out_dir"`
	Formats []string              `json:"formats"`
	Result  models.AnalysisResult `json:"result"`

	// RawSequences is written verbatim as the JSON export when present.
	RawSequences json.RawMessage `json:"raw_sequences,omitempty"`
}

type WriteChartsInput struct {
	JobID  string                `json:"job_id"`
	OutDir string                `json:"out_dir"`
	Result models.AnalysisResult `json:"result"`
}

// ArtifactsOutput lists the files an activity wrote.
type ArtifactsOutput struct {
	Paths []string `json:"paths"`
}

type WriteManifestInput struct {
	JobID    string         `json:"job_id"`
	OutDir   string         `json:"out_dir"`
	Manifest map[string]any `json:"manifest"`
}

type WriteManifestOutput struct {
	Path string `json:"path"`
}
