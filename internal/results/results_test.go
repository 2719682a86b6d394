package results

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taxaformer/internal/models"
)

func TestNormalizeCamelCase(t *testing.T) {
	raw := `{
	  "metadata": {"sampleName": "reef.fasta", "totalSequences": 120, "processingTime": "12.40s", "avgConfidence": 91.5,
	    "userMetadata": {"sampleId": "TEST_001", "depth": 3500, "location": {"lat": 22.1, "lon": 71.9}, "tags": ["a", "b"]}},
	  "sequences": [
	    {"accession": "SEQ_001", "taxonomy": "Eukaryota; Alveolata", "confidence": 0.95, "noveltyScore": 0.2, "status": "Novel", "length": 420},
	    {"accession": "SEQ_002", "taxonomy": "Eukaryota; Fungi", "confidence": "0.5", "noveltyScore": "bad", "status": "Known"}
	  ]
	}`
	res, err := Normalize([]byte(raw))
	require.NoError(t, err)
	assert.Equal(t, "reef.fasta", res.Metadata.SampleName)
	assert.Equal(t, 120, res.Metadata.TotalSequences)
	assert.Equal(t, "12.40s", res.Metadata.ProcessingTime)
	assert.Equal(t, 91.5, res.Metadata.AvgConfidence)
	assert.Equal(t, []models.MetaField{
		{Key: "depth", Value: "3500"},
		{Key: "location.lat", Value: "22.1"},
		{Key: "location.lon", Value: "71.9"},
		{Key: "sampleId", Value: "TEST_001"},
		{Key: "tags", Value: "a, b"},
	}, res.Metadata.UserMetadata)

	require.Len(t, res.Sequences, 2)
	assert.Equal(t, models.SequenceRecord{
		Accession: "SEQ_001", Taxonomy: "Eukaryota; Alveolata", Confidence: 0.95,
		NoveltyScore: 0.2, Status: "Novel", Length: 420,
	}, res.Sequences[0])
	assert.Equal(t, 0.5, res.Sequences[1].Confidence)
	assert.Equal(t, 0.0, res.Sequences[1].NoveltyScore)
}

func TestNormalizeSnakeCaseAndDefaults(t *testing.T) {
	raw := `{"sequences": [
	  {"id": "A1", "predicted_taxonomy": "Bacteria", "confidence": 87, "novelty_score": 0.3,
	   "nearest_neighbor_taxonomy": "Bacteria;Firmicutes", "nearest_neighbor_dist": 0.12},
	  {"taxonomy": "", "confidence": -1},
	  null
	]}`
	res, err := Normalize([]byte(raw))
	require.NoError(t, err)
	require.Len(t, res.Sequences, 2)
	a := res.Sequences[0]
	assert.Equal(t, "A1", a.Accession)
	assert.Equal(t, 0.87, a.Confidence)
	assert.Equal(t, "Bacteria;Firmicutes", a.NearestNeighborTaxonomy)
	assert.Equal(t, 0.12, a.NearestNeighborDist)

	b := res.Sequences[1]
	assert.Equal(t, "SEQ_002", b.Accession)
	assert.Equal(t, models.UnknownLabel, b.Taxonomy)
	assert.Equal(t, 0.0, b.Confidence)

	assert.Equal(t, "Unknown Sample", res.Metadata.SampleName)
	assert.Equal(t, 2, res.Metadata.TotalSequences)
	assert.Equal(t, 43.5, res.Metadata.AvgConfidence)
	assert.InDelta(t, 0.15, res.Metadata.AvgNoveltyScore, 1e-9)
	assert.Equal(t, "N/A", res.Metadata.ProcessingTime)
}

func TestNormalizeMissingPieces(t *testing.T) {
	for _, raw := range []string{``, `null`, `{}`, `{"sequences": "oops", "metadata": 5}`} {
		res, err := Normalize([]byte(raw))
		require.NoError(t, err, raw)
		assert.NotNil(t, res.Sequences, raw)
		assert.Empty(t, res.Sequences, raw)
		assert.Equal(t, 0, res.Metadata.TotalSequences, raw)
	}
	_, err := Normalize([]byte(`{not json`))
	assert.Error(t, err)
}

func TestParseNumber(t *testing.T) {
	for in, want := range map[string]float64{"0.95": 0.95, " 12.5s ": 12.5, "87%": 87} {
		got, ok := ParseNumber(in)
		assert.True(t, ok, in)
		assert.Equal(t, want, got, in)
	}
	_, ok := ParseNumber("n/a")
	assert.False(t, ok)
}

func sampleRecords() []models.SequenceRecord {
	return []models.SequenceRecord{
		{Accession: "SEQ_003", Taxonomy: "Eukaryota;Fungi", Confidence: 0.6, NoveltyScore: 0.1, Status: "Known", Length: 300},
		{Accession: "SEQ_001", Taxonomy: "Eukaryota;Alveolata", Confidence: 0.9, NoveltyScore: 0.22, Status: "Novel", Length: 500},
		{Accession: "SEQ_002", Taxonomy: "Bacteria;Firmicutes", Confidence: 0.4, NoveltyScore: 0.16, Status: "Novel", Length: 410},
	}
}

func TestFilterDoesNotMutate(t *testing.T) {
	records := sampleRecords()
	before := append([]models.SequenceRecord(nil), records...)

	got := Filter(records, Query{Search: "eukaryota"})
	assert.Len(t, got, 2)
	got = Filter(records, Query{Status: "novel", MinConfidence: 0.5})
	require.Len(t, got, 1)
	assert.Equal(t, "SEQ_001", got[0].Accession)
	assert.Len(t, Filter(records, Query{NovelOnly: true}), 2)
	assert.Len(t, Filter(records, Query{Status: "all"}), 3)
	assert.Equal(t, before, records)
}

func TestSort(t *testing.T) {
	records := sampleRecords()
	byConf := Sort(records, "confidence", true)
	assert.Equal(t, []string{"SEQ_001", "SEQ_003", "SEQ_002"}, accessions(byConf))
	assert.Equal(t, []string{"SEQ_001", "SEQ_002", "SEQ_003"}, accessions(Sort(records, "", false)))
	assert.Equal(t, []string{"SEQ_003", "SEQ_002", "SEQ_001"}, accessions(Sort(records, "length", false)))
	assert.Equal(t, "SEQ_003", records[0].Accession)
}

func accessions(rs []models.SequenceRecord) []string {
	out := make([]string, 0, len(rs))
	for _, r := range rs {
		out = append(out, r.Accession)
	}
	return out
}

func TestNormalizeKeepsFlattenedMetadata(t *testing.T) {
	raw := `{"metadata": {"userMetadata": [{"key": "site.name", "value": "Reef"}]}, "sequences": []}`
	res, err := Normalize([]byte(raw))
	require.NoError(t, err)
	assert.Equal(t, []models.MetaField{{Key: "site.name", Value: "Reef"}}, res.Metadata.UserMetadata)
}

func TestNormalizeKeepsReceivedSequences(t *testing.T) {
	res, err := Normalize([]byte(`{"sequences": [{"sequence_id": "S1", "cluster": "C7"}]}`))
	require.NoError(t, err)
	assert.JSONEq(t, `[{"sequence_id": "S1", "cluster": "C7"}]`, string(res.RawSequences))
	assert.Equal(t, "S1", res.Sequences[0].Accession)

	res, err = Normalize([]byte(`{"sequences": "oops"}`))
	require.NoError(t, err)
	assert.Empty(t, res.RawSequences)
}
