package results

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"taxaformer/internal/aggregate"
	"taxaformer/internal/models"
	"taxaformer/internal/util"
)

const defaultSampleName = "Unknown Sample"

type fields map[string]json.RawMessage

// Normalize decodes a backend data payload into a fully populated AnalysisResult.
// Only undecodable JSON is an error; absent or mistyped fields take defaults.
func Normalize(raw []byte) (models.AnalysisResult, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return FromRecords(defaultSampleName, nil), nil
	}
	var top fields
	if err := json.Unmarshal(raw, &top); err != nil {
		return models.AnalysisResult{}, fmt.Errorf("decode analysis result: %w", err)
	}

	var (
		rawSeqs  []fields
		verbatim json.RawMessage
	)
	if v, ok := top.lookup("sequences"); ok {
		// A non-array sequences field counts as no sequences.
		if err := json.Unmarshal(v, &rawSeqs); err == nil {
			verbatim = append(json.RawMessage(nil), v...)
		}
	}
	seqs := make([]models.SequenceRecord, 0, len(rawSeqs))
	for i, s := range rawSeqs {
		if s == nil {
			continue
		}
		seqs = append(seqs, normalizeSequence(s, i))
	}

	var meta fields
	if v, ok := top.lookup("metadata"); ok {
		_ = json.Unmarshal(v, &meta)
	}
	return models.AnalysisResult{
		Metadata:     normalizeMetadata(meta, seqs),
		Sequences:    seqs,
		RawSequences: verbatim,
	}, nil
}

// FromRecords wraps already-typed records, computing metadata from them.
func FromRecords(sampleName string, records []models.SequenceRecord) models.AnalysisResult {
	if records == nil {
		records = []models.SequenceRecord{}
	}
	meta := normalizeMetadata(nil, records)
	if strings.TrimSpace(sampleName) != "" {
		meta.SampleName = sampleName
	}
	return models.AnalysisResult{Metadata: meta, Sequences: records}
}

func normalizeSequence(f fields, i int) models.SequenceRecord {
	r := models.SequenceRecord{
		Accession:               f.str("accession", "id", "sequence_id", "sequenceId", "Sequence_ID"),
		Taxonomy:                f.str("taxonomy", "predicted_taxonomy", "predictedTaxonomy", "Predicted_Taxonomy"),
		Confidence:              f.num("confidence"),
		NoveltyScore:            f.num("noveltyScore", "novelty_score", "Novelty_Score"),
		Status:                  f.str("status", "Status"),
		Length:                  int(f.num("length", "sequence_length")),
		NearestNeighborTaxonomy: f.str("nearestNeighborTaxonomy", "nearest_neighbor_taxonomy", "Nearest_Neighbor_Taxonomy"),
		NearestNeighborDist:     f.num("nearestNeighborDist", "nearest_neighbor_dist", "Nearest_Neighbor_Dist"),
	}
	if r.Accession == "" {
		r.Accession = fmt.Sprintf("SEQ_%03d", i+1)
	}
	if strings.TrimSpace(r.Taxonomy) == "" {
		r.Taxonomy = models.UnknownLabel
	}
	if r.Confidence > 1 && r.Confidence <= 100 {
		r.Confidence /= 100
	}
	r.Confidence = clamp(r.Confidence, 0, 1)
	if r.NoveltyScore < 0 {
		r.NoveltyScore = 0
	}
	if r.Length < 0 {
		r.Length = 0
	}
	return r
}

func normalizeMetadata(f fields, seqs []models.SequenceRecord) models.ResultMetadata {
	m := models.ResultMetadata{
		SampleName:     f.str("sampleName", "sample_name", "filename"),
		ProcessingTime: f.str("processingTime", "processing_time"),
	}
	if m.SampleName == "" {
		m.SampleName = defaultSampleName
	}
	if m.ProcessingTime == "" {
		m.ProcessingTime = "N/A"
	}

	if n, ok := f.numOK("totalSequences", "total_sequences"); ok && n >= 0 {
		m.TotalSequences = int(n)
	} else {
		m.TotalSequences = len(seqs)
	}

	conf := make([]float64, 0, len(seqs))
	nov := make([]float64, 0, len(seqs))
	for _, s := range seqs {
		conf = append(conf, s.Confidence)
		nov = append(nov, s.NoveltyScore)
	}
	if v, ok := f.numOK("avgConfidence", "avg_confidence", "averageConfidence"); ok {
		if v <= 1 {
			v *= 100
		}
		m.AvgConfidence = round2(v)
	} else {
		m.AvgConfidence = round2(aggregate.Mean(conf) * 100)
	}
	if v, ok := f.numOK("avgNoveltyScore", "avg_novelty_score", "avgNovelty"); ok {
		m.AvgNoveltyScore = v
	} else {
		m.AvgNoveltyScore = aggregate.Mean(nov)
	}

	if v, ok := f.lookup("userMetadata", "user_metadata"); ok {
		var flat []models.MetaField
		if err := json.Unmarshal(v, &flat); err == nil && isFlat(flat) {
			m.UserMetadata = flat
		} else {
			m.UserMetadata = FlattenMetadata(v)
		}
	}
	return m
}

// isFlat reports whether a decoded array already holds key/value pairs.
func isFlat(fs []models.MetaField) bool {
	for _, f := range fs {
		if f.Key == "" {
			return false
		}
	}
	return len(fs) > 0
}

// FlattenMetadata turns arbitrary JSON into sorted dotted key/value pairs.
func FlattenMetadata(raw json.RawMessage) []models.MetaField {
	var v any
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&v); err != nil {
		return nil
	}
	out := make([]models.MetaField, 0)
	var walk func(prefix string, v any)
	walk = func(prefix string, v any) {
		switch x := v.(type) {
		case map[string]any:
			for k, child := range x {
				key := k
				if prefix != "" {
					key = prefix + "." + k
				}
				walk(key, child)
			}
		case []any:
			parts := make([]string, 0, len(x))
			for _, e := range x {
				parts = append(parts, scalarString(e))
			}
			out = append(out, models.MetaField{Key: prefix, Value: strings.Join(parts, ", ")})
		case nil:
		default:
			if prefix == "" {
				prefix = "value"
			}
			if s := scalarString(x); s != "" {
				out = append(out, models.MetaField{Key: prefix, Value: s})
			}
		}
	}
	walk("", v)
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

func scalarString(v any) string {
	switch x := v.(type) {
	case string:
		return util.SanitizeText(x)
	case json.Number:
		return x.String()
	case bool:
		return strconv.FormatBool(x)
	case nil:
		return ""
	default:
		b, _ := json.Marshal(x)
		return string(b)
	}
}

func (f fields) lookup(keys ...string) (json.RawMessage, bool) {
	for _, k := range keys {
		if v, ok := f[k]; ok && len(v) > 0 && string(v) != "null" {
			return v, true
		}
	}
	return nil, false
}

func (f fields) str(keys ...string) string {
	v, ok := f.lookup(keys...)
	if !ok {
		return ""
	}
	var s string
	if err := json.Unmarshal(v, &s); err == nil {
		return util.SanitizeText(s)
	}
	var n json.Number
	if err := json.Unmarshal(v, &n); err == nil {
		return n.String()
	}
	return ""
}

func (f fields) num(keys ...string) float64 {
	n, _ := f.numOK(keys...)
	return n
}

func (f fields) numOK(keys ...string) (float64, bool) {
	v, ok := f.lookup(keys...)
	if !ok {
		return 0, false
	}
	var n float64
	if err := json.Unmarshal(v, &n); err == nil && !math.IsNaN(n) && !math.IsInf(n, 0) {
		return n, true
	}
	var s string
	if err := json.Unmarshal(v, &s); err == nil {
		return ParseNumber(s)
	}
	return 0, false
}

// ParseNumber reads a float leniently ("0.95", " 12.5s ", "87%"); failure yields 0,false.
func ParseNumber(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "%")
	s = strings.TrimSuffix(s, "s")
	n, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(n) || math.IsInf(n, 0) {
		return 0, false
	}
	return n, true
}

func clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) {
		return lo
	}
	return math.Max(lo, math.Min(hi, v))
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
