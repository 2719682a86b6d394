package sankey

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taxaformer/internal/models"
	"taxaformer/internal/taxonomy"
)

func recs(taxa ...string) []models.SequenceRecord {
	out := make([]models.SequenceRecord, 0, len(taxa))
	for _, t := range taxa {
		out = append(out, models.SequenceRecord{Taxonomy: t})
	}
	return out
}

func TestBuildAccumulatesWeights(t *testing.T) {
	g := Build(recs(
		"Eukaryota;Alveolata;X",
		"Eukaryota;Alveolata;Y",
		"Eukaryota;Chlorophyta;Z",
	), 0)
	require.Len(t, g.Edges, 5)
	assert.Equal(t, models.SankeyEdge{From: "Eukaryota", To: "Alveolata", Weight: 2, Source: 2, Target: 0}, g.Edges[0])
	assert.Equal(t, "Alveolata", g.Edges[1].From)
	assert.Equal(t, "X", g.Edges[1].To)
	assert.Equal(t, 1, g.Edges[1].Weight)

	names := make([]string, 0, len(g.Nodes))
	for _, n := range g.Nodes {
		names = append(names, n.Name)
	}
	assert.Equal(t, []string{"Alveolata", "Chlorophyta", "Eukaryota", "X", "Y", "Z"}, names)
}

func TestBuildEdgeCountPerRecord(t *testing.T) {
	g := Build(recs("a;b;c;d"), 0)
	assert.Len(t, g.Edges, 3)

	limited := Build(recs("a;b;c;d"), 2)
	require.Len(t, limited.Edges, 1)
	assert.Equal(t, "a", limited.Edges[0].From)
	assert.Equal(t, "b", limited.Edges[0].To)
}

func TestSelfLoopsPreserved(t *testing.T) {
	g := Build(recs("Fungi;Fungi"), 0)
	require.Len(t, g.Edges, 1)
	assert.Equal(t, "Fungi", g.Edges[0].From)
	assert.Equal(t, "Fungi", g.Edges[0].To)
	assert.Len(t, g.Nodes, 1)
}

func TestWeightConservation(t *testing.T) {
	records := recs(
		"Eukaryota;Alveolata;Dinophyceae",
		"Eukaryota;p__;Dinophyceae",
		"Eukaryota;Metazoa",
		"Bacteria",
		"Eukaryota;Alveolata;Ciliophora;Spirotrichea",
	)
	g := Build(records, 0)

	want := 0
	for _, r := range records {
		labels := taxonomy.Split(r.Taxonomy)
		for pos := 0; pos+1 < len(labels); pos++ {
			if labels[pos] != "" && labels[pos+1] != "" {
				want++
			}
		}
	}
	total := 0
	for _, e := range g.Edges {
		total += e.Weight
	}
	assert.Equal(t, 6, want)
	assert.Equal(t, want, total)

	// Origins at the root rank carry one unit per record with a non-empty second rank.
	fromRoot := 0
	for _, e := range g.Edges {
		if e.From == "Eukaryota" {
			fromRoot += e.Weight
		}
	}
	assert.Equal(t, 3, fromRoot)
}

func TestEmptyGraphPlaceholder(t *testing.T) {
	g := Build(recs("Eukaryota", "Bacteria", "Archaea"), 0)
	assert.Empty(t, g.Edges)

	shown := WithPlaceholder(g)
	require.Len(t, shown.Edges, 1)
	assert.Equal(t, models.SankeyEdge{From: Placeholder, To: Placeholder, Weight: 1}, shown.Edges[0])

	real := Build(recs("a;b"), 0)
	assert.Equal(t, real, WithPlaceholder(real))
}

func TestTruncatedDoesNotMutate(t *testing.T) {
	g := Build(recs("Eukaryota;Stramenopiles_incertae_sedis_lineage"), 0)
	short := Truncated(g, 10)
	assert.Equal(t, "Stramenopi...", short.Edges[0].To)
	assert.Equal(t, "Stramenopiles_incertae_sedis_lineage", g.Edges[0].To)
}
