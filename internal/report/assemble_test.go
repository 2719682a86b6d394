package report

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taxaformer/internal/models"
)

var fixedNow = func() time.Time { return time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC) }

func opts() Options {
	o := DefaultOptions()
	o.Now = fixedNow
	return o
}

func sampleResult() *models.AnalysisResult {
	taxa := []string{
		"Eukaryota;Alveolata;Ciliophora",
		"Eukaryota;Alveolata;Dinoflagellata",
		"Eukaryota;Chlorophyta",
		"Eukaryota;Fungi",
		"Eukaryota;Rhizaria",
		"Eukaryota;Stramenopiles",
		"Eukaryota;Haptophyta",
		"Eukaryota",
	}
	novelty := []float64{0, 0.05, 0.1, 0.15, 0.2, 0.25, 0.3, 0.35}
	seqs := make([]models.SequenceRecord, 0, len(taxa))
	for i, t := range taxa {
		seqs = append(seqs, models.SequenceRecord{
			Accession:    string(rune('A' + i)),
			Taxonomy:     t,
			Confidence:   0.5,
			NoveltyScore: novelty[i],
			Status:       "Known",
		})
	}
	return &models.AnalysisResult{
		Metadata: models.ResultMetadata{
			SampleName: "reef.fasta", TotalSequences: 500, ProcessingTime: "3.2s",
			AvgConfidence: 88.1, AvgNoveltyScore: 0.12,
			UserMetadata: []models.MetaField{{Key: "depth", Value: "30"}},
		},
		Sequences: seqs,
	}
}

func TestAssembleUsesUpstreamMetadata(t *testing.T) {
	res := sampleResult()
	data := FromResult(res, opts())
	require.NotNil(t, data.Metadata)
	assert.Equal(t, "reef.fasta", data.Metadata.SampleName)
	assert.Equal(t, 500, data.Metadata.TotalSequences)
	assert.Equal(t, 88.1, data.Metadata.AvgConfidence)
	assert.Equal(t, 0.12, data.Stats.AvgNoveltyScore)
	assert.Equal(t, fixedNow(), data.GeneratedAt)
}

func TestAssembleStatsAndTruncation(t *testing.T) {
	res := sampleResult()
	data := FromResult(res, opts())

	assert.Len(t, data.TaxonomySummary, 6)
	assert.Len(t, data.FullTaxonomy, 7)
	assert.Equal(t, "Alveolata", data.TaxonomySummary[0].Name)
	assert.Equal(t, 2, data.TaxonomySummary[0].Value)

	// Unknown (the single-token record) is not a distinct taxon.
	assert.Equal(t, 6, data.Stats.UniqueTaxa)
	// scores 0.20, 0.25, 0.30, 0.35 exceed 0.15
	assert.Equal(t, 4, data.Stats.PotentiallyNovel)
	assert.Len(t, data.Sequences, 8)
	assert.Len(t, data.StatusComposition, 1)
	require.Len(t, data.NoveltyHistogram, 6)
}

func TestAssembleComputesMissingAverages(t *testing.T) {
	res := &models.AnalysisResult{
		Metadata: models.ResultMetadata{SampleName: "x"},
		Sequences: []models.SequenceRecord{
			{Taxonomy: "a;b", Confidence: 0.9, NoveltyScore: 0.1},
			{Taxonomy: "a;c", Confidence: 0.7, NoveltyScore: 0.3},
		},
	}
	data := FromResult(res, opts())
	assert.Equal(t, 2, data.Metadata.TotalSequences)
	assert.Equal(t, 80.0, data.Metadata.AvgConfidence)
	assert.InDelta(t, 0.2, data.Stats.AvgNoveltyScore, 1e-9)
	assert.Equal(t, 1, data.Stats.PotentiallyNovel)
	assert.Equal(t, 0.0, res.Metadata.AvgConfidence)
}

func TestAssembleSequenceLimitAndRank(t *testing.T) {
	res := sampleResult()
	o := opts()
	o.SequenceLimit = 3
	o.UniqueTaxaRank = 0
	data := Assemble(res, res.Sequences, o)
	require.Len(t, data.Sequences, 3)
	assert.Equal(t, "A", data.Sequences[0].Accession)
	assert.Equal(t, 1, data.Stats.UniqueTaxa)

	data.Sequences[0].Accession = "changed"
	assert.Equal(t, "A", res.Sequences[0].Accession)
}

func TestAssembleWithoutResult(t *testing.T) {
	data := Assemble(nil, nil, opts())
	assert.Nil(t, data.Metadata)
	assert.Empty(t, data.TaxonomySummary)
	assert.NotNil(t, data.Sequences)
}
