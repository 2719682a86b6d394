package report

import (
	"math"
	"time"

	"taxaformer/internal/aggregate"
	"taxaformer/internal/models"
)

// Options tune assembly. Use DefaultOptions and override fields; UniqueTaxaRank 0 means domain.
type Options struct {
	TopTaxa          int
	UniqueTaxaRank   int
	NoveltyThreshold float64
	SequenceLimit    int
	Now              func() time.Time
}

// DefaultOptions returns the settings the dashboard report uses.
func DefaultOptions() Options {
	return Options{
		TopTaxa:          6,
		UniqueTaxaRank:   1,
		NoveltyThreshold: models.NoveltyThreshold,
		SequenceLimit:    20,
	}
}

func (o Options) withDefaults() Options {
	if o.TopTaxa <= 0 {
		o.TopTaxa = 6
	}
	if o.UniqueTaxaRank < 0 {
		o.UniqueTaxaRank = 1
	}
	if o.NoveltyThreshold <= 0 {
		o.NoveltyThreshold = models.NoveltyThreshold
	}
	if o.SequenceLimit <= 0 {
		o.SequenceLimit = 20
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	return o
}

// Assemble merges a normalized result with the sequence rows into ReportData.
// A nil result yields ReportData with nil Metadata. Inputs are never modified.
func Assemble(result *models.AnalysisResult, sequences []models.SequenceRecord, opts Options) models.ReportData {
	opts = opts.withDefaults()
	data := models.ReportData{
		TaxonomySummary:     []models.TaxonomySummaryEntry{},
		FullTaxonomy:        []models.TaxonomySummaryEntry{},
		Sequences:           []models.SequenceRecord{},
		NoveltyHistogram:    aggregate.ByBucket(sequences, aggregate.Novelty, aggregate.NoveltyBuckets()),
		ConfidenceHistogram: aggregate.ByBucket(sequences, aggregate.Confidence, aggregate.ConfidenceBuckets()),
		StatusComposition:   aggregate.StatusComposition(sequences),
		GeneratedAt:         opts.Now().UTC(),
	}
	if result == nil {
		return data
	}

	meta := result.Metadata
	if meta.TotalSequences == 0 {
		meta.TotalSequences = len(sequences)
	}
	if meta.AvgConfidence == 0 || meta.AvgNoveltyScore == 0 {
		conf := make([]float64, 0, len(sequences))
		nov := make([]float64, 0, len(sequences))
		for _, s := range sequences {
			conf = append(conf, s.Confidence)
			nov = append(nov, s.NoveltyScore)
		}
		if meta.AvgConfidence == 0 {
			meta.AvgConfidence = math.Round(aggregate.Mean(conf)*10000) / 100
		}
		if meta.AvgNoveltyScore == 0 {
			meta.AvgNoveltyScore = aggregate.Mean(nov)
		}
	}
	data.Metadata = &models.ReportMetadata{
		SampleName:     meta.SampleName,
		TotalSequences: meta.TotalSequences,
		ProcessingTime: meta.ProcessingTime,
		AvgConfidence:  meta.AvgConfidence,
		UserMetadata:   append([]models.MetaField(nil), meta.UserMetadata...),
	}

	full := aggregate.RankCounts(sequences, opts.UniqueTaxaRank)
	data.FullTaxonomy = full
	top := full
	if len(top) > opts.TopTaxa {
		top = top[:opts.TopTaxa]
	}
	data.TaxonomySummary = append([]models.TaxonomySummaryEntry(nil), top...)

	limit := min(opts.SequenceLimit, len(sequences))
	data.Sequences = append(data.Sequences, sequences[:limit]...)

	data.Stats = models.ReportStats{
		UniqueTaxa:       aggregate.UniqueLabels(sequences, opts.UniqueTaxaRank),
		PotentiallyNovel: aggregate.PotentiallyNovel(sequences, opts.NoveltyThreshold),
		AvgNoveltyScore:  meta.AvgNoveltyScore,
	}
	return data
}

// FromResult assembles a report over the result's own sequences.
func FromResult(result *models.AnalysisResult, opts Options) models.ReportData {
	if result == nil {
		return Assemble(nil, nil, opts)
	}
	return Assemble(result, result.Sequences, opts)
}
