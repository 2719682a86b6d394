package sankey

import (
	"sort"

	"taxaformer/internal/models"
	"taxaformer/internal/taxonomy"
)

// Placeholder labels the single edge drawn when a data set has no transitions.
const Placeholder = "No data"

type edgeKey struct {
	from, to string
}

// Build derives weighted edges between adjacent rank labels. maxRanks limits how many
// leading ranks of each taxonomy are considered; zero or less means all of them.
// Edges keep first-seen order; nodes are sorted by name.
func Build(records []models.SequenceRecord, maxRanks int) models.SankeyGraph {
	weights := make(map[edgeKey]int)
	order := make([]edgeKey, 0)
	for _, r := range records {
		prev, havePrev := "", false
		i := 0
		for label := range taxonomy.Labels(r.Taxonomy) {
			if maxRanks > 0 && i >= maxRanks {
				break
			}
			i++
			if havePrev && prev != "" && label != "" {
				k := edgeKey{from: prev, to: label}
				if _, ok := weights[k]; !ok {
					order = append(order, k)
				}
				weights[k]++
			}
			prev, havePrev = label, true
		}
	}

	names := make(map[string]struct{})
	for _, k := range order {
		names[k.from] = struct{}{}
		names[k.to] = struct{}{}
	}
	g := models.SankeyGraph{
		Nodes: make([]models.SankeyNode, 0, len(names)),
		Edges: make([]models.SankeyEdge, 0, len(order)),
	}
	sorted := make([]string, 0, len(names))
	for n := range names {
		sorted = append(sorted, n)
	}
	sort.Strings(sorted)
	ids := make(map[string]int, len(sorted))
	for i, n := range sorted {
		ids[n] = i
		g.Nodes = append(g.Nodes, models.SankeyNode{ID: i, Name: n})
	}
	for _, k := range order {
		g.Edges = append(g.Edges, models.SankeyEdge{
			From:   k.from,
			To:     k.to,
			Weight: weights[k],
			Source: ids[k.from],
			Target: ids[k.to],
		})
	}
	return g
}

// WithPlaceholder substitutes a single "No data" edge for an empty graph.
// Use it only where the graph is handed to a renderer.
func WithPlaceholder(g models.SankeyGraph) models.SankeyGraph {
	if len(g.Edges) > 0 {
		return g
	}
	return models.SankeyGraph{
		Nodes: []models.SankeyNode{{ID: 0, Name: Placeholder}},
		Edges: []models.SankeyEdge{{From: Placeholder, To: Placeholder, Weight: 1}},
	}
}

// Truncated returns a copy of g with node and edge labels shortened for display.
func Truncated(g models.SankeyGraph, width int) models.SankeyGraph {
	out := models.SankeyGraph{
		Nodes: make([]models.SankeyNode, len(g.Nodes)),
		Edges: make([]models.SankeyEdge, len(g.Edges)),
	}
	for i, n := range g.Nodes {
		n.Name = taxonomy.Truncate(n.Name, width)
		out.Nodes[i] = n
	}
	for i, e := range g.Edges {
		e.From = taxonomy.Truncate(e.From, width)
		e.To = taxonomy.Truncate(e.To, width)
		out.Edges[i] = e
	}
	return out
}
