package models

import (
	"encoding/json"
	"time"
)

// NoveltyThreshold is the novelty score above which a sequence counts as potentially novel.
const NoveltyThreshold = 0.15

// UnknownLabel is the group key for missing or empty labels.
const UnknownLabel = "Unknown"

type SequenceRecord struct {
	Accession               string  `json:"accession"`
	Taxonomy                string  `json:"taxonomy"`
	Confidence              float64 `json:"confidence"`
	NoveltyScore            float64 `json:"noveltyScore"`
	Status                  string  `json:"status"`
	Length                  int     `json:"length"`
	NearestNeighborTaxonomy string  `json:"nearestNeighborTaxonomy,omitempty"`
	NearestNeighborDist     float64 `json:"nearestNeighborDist,omitempty"`
}

// MetaField is one flattened entry of user-supplied sample metadata.
type MetaField struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

type ResultMetadata struct {
	SampleName      string      `json:"sampleName"`
	TotalSequences  int         `json:"totalSequences"`
	ProcessingTime  string      `json:"processingTime"`
	AvgConfidence   float64     `json:"avgConfidence"`
	AvgNoveltyScore float64     `json:"avgNoveltyScore"`
	UserMetadata    []MetaField `json:"userMetadata,omitempty"`
}

// AnalysisResult is the normalized form of a backend data payload.
type AnalysisResult struct {
	Metadata  ResultMetadata   `json:"metadata"`
	Sequences []SequenceRecord `json:"sequences"`
	// RawSequences is the sequences array exactly as the backend sent it.
	// Empty for results built from typed records.
	RawSequences json.RawMessage `json:"-"`
}

type TaxonomySummaryEntry struct {
	Name       string  `json:"name"`
	Value      int     `json:"value"`
	Percentage float64 `json:"percentage"`
	Color      string  `json:"color"`
}

type BucketCount struct {
	Category string `json:"category"`
	Value    int    `json:"value"`
}

type StatusEntry struct {
	Name       string  `json:"name"`
	Value      int     `json:"value"`
	Percentage float64 `json:"percentage"`
	Color      string  `json:"color"`
}

type SankeyNode struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

type SankeyEdge struct {
	From   string `json:"from"`
	To     string `json:"to"`
	Weight int    `json:"weight"`
	Source int    `json:"source"`
	Target int    `json:"target"`
}

type SankeyGraph struct {
	Nodes []SankeyNode `json:"nodes"`
	Edges []SankeyEdge `json:"edges"`
}

type ReportMetadata struct {
	SampleName     string      `json:"sampleName"`
	TotalSequences int         `json:"totalSequences"`
	ProcessingTime string      `json:"processingTime"`
	AvgConfidence  float64     `json:"avgConfidence"`
	UserMetadata   []MetaField `json:"userMetadata,omitempty"`
}

type ReportStats struct {
	UniqueTaxa       int     `json:"uniqueTaxa"`
	PotentiallyNovel int     `json:"potentiallyNovel"`
	AvgNoveltyScore  float64 `json:"avgNoveltyScore"`
}

// ReportData feeds both the on-screen report and the PDF generator.
// A nil Metadata means nothing was loaded.
type ReportData struct {
	Metadata            *ReportMetadata        `json:"metadata"`
	TaxonomySummary     []TaxonomySummaryEntry `json:"taxonomySummary"`
	FullTaxonomy        []TaxonomySummaryEntry `json:"fullTaxonomy"`
	Sequences           []SequenceRecord       `json:"sequences"`
	Stats               ReportStats            `json:"stats"`
	NoveltyHistogram    []BucketCount          `json:"noveltyHistogram"`
	ConfidenceHistogram []BucketCount          `json:"confidenceHistogram"`
	StatusComposition   []StatusEntry          `json:"statusComposition"`
	GeneratedAt         time.Time              `json:"generatedAt"`
}

// JobRow is one row of the results datastore.
type JobRow struct {
	JobID          string          `json:"job_id"`
	Filename       string          `json:"filename"`
	TotalSequences int             `json:"total_sequences"`
	CreatedAt      time.Time       `json:"created_at"`
	Result         json.RawMessage `json:"result,omitempty"`
}
