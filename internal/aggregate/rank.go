package aggregate

import (
	"math"
	"sort"

	"taxaformer/internal/models"
	"taxaformer/internal/palette"
	"taxaformer/internal/taxonomy"
)

type labelCount struct {
	label string
	count int
}

// RankCounts groups records by their label at rankIndex. The result covers every record,
// sorted by count descending then label ascending.
func RankCounts(records []models.SequenceRecord, rankIndex int) []models.TaxonomySummaryEntry {
	counts := make(map[string]int)
	for _, r := range records {
		counts[taxonomy.GroupKey(r.Taxonomy, rankIndex)]++
	}
	sorted := sortCounts(counts)
	out := make([]models.TaxonomySummaryEntry, 0, len(sorted))
	for i, c := range sorted {
		out = append(out, models.TaxonomySummaryEntry{
			Name:       c.label,
			Value:      c.count,
			Percentage: percentage(c.count, len(records)),
			Color:      palette.Color(i),
		})
	}
	return out
}

// ByRank is RankCounts truncated to the topN largest groups. topN <= 0 keeps all.
func ByRank(records []models.SequenceRecord, rankIndex, topN int) []models.TaxonomySummaryEntry {
	all := RankCounts(records, rankIndex)
	if topN > 0 && len(all) > topN {
		all = all[:topN]
	}
	return all
}

// UniqueLabels counts distinct non-empty labels at rankIndex.
func UniqueLabels(records []models.SequenceRecord, rankIndex int) int {
	seen := make(map[string]struct{})
	for _, r := range records {
		if label := taxonomy.LabelAt(r.Taxonomy, rankIndex); label != "" {
			seen[label] = struct{}{}
		}
	}
	return len(seen)
}

func sortCounts(counts map[string]int) []labelCount {
	out := make([]labelCount, 0, len(counts))
	for label, n := range counts {
		out = append(out, labelCount{label: label, count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].count == out[j].count {
			return out[i].label < out[j].label
		}
		return out[i].count > out[j].count
	})
	return out
}

func percentage(n, total int) float64 {
	if total <= 0 {
		return 0
	}
	return math.Round(float64(n)/float64(total)*10000) / 100
}
