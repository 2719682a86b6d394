package aggregate

import (
	"math"
	"strings"

	"taxaformer/internal/models"
	"taxaformer/internal/palette"
)

// Bucket is the half-open range [Min, Max). When Max is +Inf the bucket is open upward.
type Bucket struct {
	Label string
	Min   float64
	Max   float64
}

func (b Bucket) contains(v float64) bool {
	return v >= b.Min && v < b.Max
}

// NoveltyBuckets are the novelty-score histogram bins. Scores below 0.15 fall outside.
func NoveltyBuckets() []Bucket {
	return []Bucket{
		{Label: "0.15-0.17", Min: 0.15, Max: 0.17},
		{Label: "0.17-0.19", Min: 0.17, Max: 0.19},
		{Label: "0.19-0.21", Min: 0.19, Max: 0.21},
		{Label: "0.21-0.23", Min: 0.21, Max: 0.23},
		{Label: "0.23-0.25", Min: 0.23, Max: 0.25},
		{Label: "0.25+", Min: 0.25, Max: math.Inf(1)},
	}
}

// ConfidenceBuckets partition the whole real line.
func ConfidenceBuckets() []Bucket {
	return []Bucket{
		{Label: "<0.5", Min: math.Inf(-1), Max: 0.5},
		{Label: "0.5-0.8", Min: 0.5, Max: 0.8},
		{Label: ">=0.8", Min: 0.8, Max: math.Inf(1)},
	}
}

// Novelty and Confidence extract the histogram values of a record.
func Novelty(r models.SequenceRecord) float64    { return r.NoveltyScore }
func Confidence(r models.SequenceRecord) float64 { return r.Confidence }

// ByBucket counts records per bucket. The last bucket always extends to +Inf.
// A record matches at most one bucket; values outside every bucket are skipped.
func ByBucket(records []models.SequenceRecord, extract func(models.SequenceRecord) float64, buckets []Bucket) []models.BucketCount {
	out := make([]models.BucketCount, len(buckets))
	for i, b := range buckets {
		out[i].Category = b.Label
	}
	if len(buckets) == 0 {
		return out
	}
	last := len(buckets) - 1
	for _, r := range records {
		v := extract(r)
		if math.IsNaN(v) {
			continue
		}
		for i, b := range buckets {
			if i == last {
				if v >= b.Min {
					out[i].Value++
				}
				break
			}
			if b.contains(v) {
				out[i].Value++
				break
			}
		}
	}
	return out
}

// StatusComposition groups records by status in first-seen order.
func StatusComposition(records []models.SequenceRecord) []models.StatusEntry {
	index := make(map[string]int)
	out := make([]models.StatusEntry, 0)
	for _, r := range records {
		status := strings.TrimSpace(r.Status)
		if status == "" {
			status = models.UnknownLabel
		}
		i, ok := index[status]
		if !ok {
			i = len(out)
			index[status] = i
			out = append(out, models.StatusEntry{Name: status, Color: palette.Color(i)})
		}
		out[i].Value++
	}
	for i := range out {
		out[i].Percentage = percentage(out[i].Value, len(records))
	}
	return out
}
