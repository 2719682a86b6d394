package backend

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"

	"taxaformer/internal/fasta"
	"taxaformer/internal/models"
	"taxaformer/internal/results"
)

// sampleTaxa is the reference pool the synthetic results draw from.
var sampleTaxa = []string{
	"Eukaryota;Alveolata;Ciliophora;Spirotrichea;Choreotrichida",
	"Eukaryota;Alveolata;Dinoflagellata;Dinophyceae;Gymnodiniales",
	"Eukaryota;Stramenopiles;Bacillariophyta;Mediophyceae;Thalassiosirales",
	"Eukaryota;Chlorophyta;Mamiellophyceae;Mamiellales;Micromonas",
	"Eukaryota;Rhizaria;Radiolaria;Polycystinea;Spumellaria",
	"Eukaryota;Opisthokonta;Metazoa;Cnidaria;Hydrozoa",
	"Eukaryota;Haptophyta;Prymnesiophyceae;Isochrysidales;Noelaerhabdaceae",
	"Eukaryota;Cryptophyta;Cryptophyceae;Pyrenomonadales;Geminigeraceae",
}

const defaultSampleSize = 24

// MockClassifier fabricates a deterministic result. It stands in for the real
// backend when that is unreachable and is the source of the dashboard's sample data.
type MockClassifier struct {
	size int
}

func NewMockClassifier(size int) *MockClassifier {
	if size <= 0 {
		size = defaultSampleSize
	}
	return &MockClassifier{size: size}
}

func (m *MockClassifier) Analyze(ctx context.Context, req AnalyzeRequest) (AnalyzeResponse, Info, error) {
	_ = ctx
	info := Info{Name: "mock"}
	n := m.size
	if recs, err := fasta.Parse(bytes.NewReader(req.Content)); err == nil && len(recs) > 0 {
		n = len(recs)
	}
	name := req.Filename
	if name == "" {
		name = "sample_data.fasta"
	}
	res := SampleResult(name, n)
	if len(req.Metadata) > 0 {
		res.Metadata.UserMetadata = results.FlattenMetadata(req.Metadata)
	}
	data, err := json.Marshal(res)
	if err != nil {
		return AnalyzeResponse{}, info, fmt.Errorf("encode sample result: %w", err)
	}
	return AnalyzeResponse{Status: StatusSuccess, Data: data, Message: "sample data"}, info, nil
}

// SampleResult builds n synthetic sequences seeded by name.
func SampleResult(name string, n int) models.AnalysisResult {
	if n <= 0 {
		n = defaultSampleSize
	}
	seqs := make([]models.SequenceRecord, 0, n)
	for i := 0; i < n; i++ {
		u := seeded(name, i)
		taxon := sampleTaxa[int(u[0]%uint32(len(sampleTaxa)))]
		novelty := math.Round(float64(u[1]%3500)/100) / 100
		status := "Known"
		if novelty > models.NoveltyThreshold {
			status = "Novel"
		}
		seqs = append(seqs, models.SequenceRecord{
			Accession:               fmt.Sprintf("SEQ_%03d", i+1),
			Taxonomy:                taxon,
			Confidence:              0.55 + float64(u[2]%45)/100,
			NoveltyScore:            novelty,
			Status:                  status,
			Length:                  300 + int(u[3]%900),
			NearestNeighborTaxonomy: taxon,
			NearestNeighborDist:     novelty,
		})
	}
	res := results.FromRecords(name, seqs)
	res.Metadata.ProcessingTime = "0.00s"
	return res
}

func seeded(name string, i int) [4]uint32 {
	h := sha256.Sum256(fmt.Appendf(nil, "%s#%d", name, i))
	var out [4]uint32
	for k := range out {
		out[k] = binary.BigEndian.Uint32(h[k*4 : k*4+4])
	}
	return out
}
