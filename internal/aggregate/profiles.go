package aggregate

import (
	"gonum.org/v1/gonum/stat"

	"taxaformer/internal/models"
	"taxaformer/internal/palette"
	"taxaformer/internal/taxonomy"
)

// TaxonProfile is one axis of the radar/rainbow views.
type TaxonProfile struct {
	Name          string  `json:"name"`
	Count         int     `json:"count"`
	AvgConfidence float64 `json:"avgConfidence"`
	AvgNovelty    float64 `json:"avgNovelty"`
	Color         string  `json:"color"`
}

// TopProfiles summarises the topN most frequent taxa at rankIndex.
func TopProfiles(records []models.SequenceRecord, rankIndex, topN int) []TaxonProfile {
	top := ByRank(records, rankIndex, topN)
	conf := make(map[string][]float64, len(top))
	nov := make(map[string][]float64, len(top))
	for _, e := range top {
		conf[e.Name] = nil
	}
	for _, r := range records {
		key := taxonomy.GroupKey(r.Taxonomy, rankIndex)
		if _, ok := conf[key]; !ok {
			continue
		}
		conf[key] = append(conf[key], r.Confidence)
		nov[key] = append(nov[key], r.NoveltyScore)
	}
	out := make([]TaxonProfile, 0, len(top))
	for i, e := range top {
		out = append(out, TaxonProfile{
			Name:          e.Name,
			Count:         e.Value,
			AvgConfidence: Mean(conf[e.Name]),
			AvgNovelty:    Mean(nov[e.Name]),
			Color:         palette.Color(i),
		})
	}
	return out
}

// Mean is stat.Mean with an empty-input guard.
func Mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	return stat.Mean(xs, nil)
}

// PotentiallyNovel counts records whose novelty score exceeds threshold.
func PotentiallyNovel(records []models.SequenceRecord, threshold float64) int {
	n := 0
	for _, r := range records {
		if r.NoveltyScore > threshold {
			n++
		}
	}
	return n
}
