package taxonomy

import (
	"iter"
	"regexp"
	"slices"
	"strings"

	"taxaformer/internal/models"
)

// Label widths used by the different views.
const (
	ShortLabel  = 25
	TableLabel  = 35
	LegendLabel = 40
)

// Ranks maps rank names to their position in a taxonomy string.
var Ranks = map[string]int{
	"domain":  0,
	"phylum":  1,
	"class":   2,
	"order":   3,
	"family":  4,
	"genus":   5,
	"species": 6,
}

var rankCode = regexp.MustCompile(`^[A-Za-z]{1,2}__`)

// RankIndex resolves a rank name, defaulting to phylum.
func RankIndex(name string) int {
	if idx, ok := Ranks[strings.ToLower(strings.TrimSpace(name))]; ok {
		return idx
	}
	return Ranks["phylum"]
}

// Labels yields the cleaned rank labels of a semicolon-delimited taxonomy string,
// coarsest first. A token that cleans down to nothing keeps its position as "".
func Labels(raw string) iter.Seq[string] {
	return func(yield func(string) bool) {
		for tok := range strings.SplitSeq(raw, ";") {
			tok = strings.TrimSpace(tok)
			if tok == "" {
				continue
			}
			if !yield(Clean(tok)) {
				return
			}
		}
	}
}

// Split collects Labels into a slice.
func Split(raw string) []string {
	return slices.Collect(Labels(raw))
}

// Clean strips a space-delimited prefix ("ACC123 Eukaryota") and a rank code ("p__").
func Clean(token string) string {
	token = strings.TrimSpace(token)
	if i := strings.IndexByte(token, ' '); i >= 0 {
		token = token[i+1:]
	}
	token = rankCode.ReplaceAllString(token, "")
	return strings.TrimSpace(token)
}

// LabelAt returns the label at rank position idx, or "" when absent.
func LabelAt(raw string, idx int) string {
	if idx < 0 {
		return ""
	}
	i := 0
	for label := range Labels(raw) {
		if i == idx {
			return label
		}
		i++
	}
	return ""
}

// Truncate shortens labels longer than width runes and appends "...".
func Truncate(label string, width int) string {
	if width <= 0 {
		return label
	}
	r := []rune(label)
	if len(r) <= width {
		return label
	}
	return string(r[:width]) + "..."
}

// GroupKey is LabelAt with empty labels folded into "Unknown".
func GroupKey(raw string, idx int) string {
	if label := LabelAt(raw, idx); label != "" {
		return label
	}
	return models.UnknownLabel
}
