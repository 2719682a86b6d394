package results

import (
	"sort"
	"strings"

	"taxaformer/internal/models"
)

// Query describes one filtered view of a result. Zero values disable each filter.
type Query struct {
	Search        string
	Status        string
	MinConfidence float64
	NovelOnly     bool
	Threshold     float64
}

// Filter returns the records matching q in their original order. records is not modified.
func Filter(records []models.SequenceRecord, q Query) []models.SequenceRecord {
	search := strings.ToLower(strings.TrimSpace(q.Search))
	status := strings.ToLower(strings.TrimSpace(q.Status))
	threshold := q.Threshold
	if threshold <= 0 {
		threshold = models.NoveltyThreshold
	}
	out := make([]models.SequenceRecord, 0, len(records))
	for _, r := range records {
		if search != "" &&
			!strings.Contains(strings.ToLower(r.Accession), search) &&
			!strings.Contains(strings.ToLower(r.Taxonomy), search) &&
			!strings.Contains(strings.ToLower(r.Status), search) {
			continue
		}
		if status != "" && status != "all" && strings.ToLower(strings.TrimSpace(r.Status)) != status {
			continue
		}
		if r.Confidence < q.MinConfidence {
			continue
		}
		if q.NovelOnly && r.NoveltyScore <= threshold {
			continue
		}
		out = append(out, r)
	}
	return out
}

// Sort returns a sorted copy. Unknown fields fall back to accession order.
func Sort(records []models.SequenceRecord, field string, desc bool) []models.SequenceRecord {
	out := make([]models.SequenceRecord, len(records))
	copy(out, records)
	var less func(a, b models.SequenceRecord) int
	switch strings.ToLower(field) {
	case "confidence":
		less = func(a, b models.SequenceRecord) int { return cmpFloat(a.Confidence, b.Confidence) }
	case "novelty", "noveltyscore", "novelty_score":
		less = func(a, b models.SequenceRecord) int { return cmpFloat(a.NoveltyScore, b.NoveltyScore) }
	case "length":
		less = func(a, b models.SequenceRecord) int { return a.Length - b.Length }
	case "taxonomy":
		less = func(a, b models.SequenceRecord) int { return strings.Compare(a.Taxonomy, b.Taxonomy) }
	case "status":
		less = func(a, b models.SequenceRecord) int { return strings.Compare(a.Status, b.Status) }
	default:
		less = func(a, b models.SequenceRecord) int { return strings.Compare(a.Accession, b.Accession) }
	}
	sort.SliceStable(out, func(i, j int) bool {
		c := less(out[i], out[j])
		if desc {
			return c > 0
		}
		return c < 0
	})
	return out
}

func cmpFloat(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}
