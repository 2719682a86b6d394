package aggregate

import (
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"taxaformer/internal/models"
	"taxaformer/internal/taxonomy"
)

// Sample is one analysed file taking part in a multi-sample comparison.
type Sample struct {
	Name    string
	Records []models.SequenceRecord
}

type HeatmapData struct {
	Samples []string `json:"samples"`
	Taxa    []string `json:"taxa"`
	Matrix  [][]int  `json:"matrix"`
}

// Heatmap tabulates per-sample counts at rankIndex over the sorted union of taxa.
func Heatmap(samples []Sample, rankIndex int) HeatmapData {
	perSample := make([]map[string]int, len(samples))
	union := make(map[string]struct{})
	out := HeatmapData{Samples: make([]string, 0, len(samples))}
	for i, s := range samples {
		counts := make(map[string]int)
		for _, r := range s.Records {
			key := taxonomy.GroupKey(r.Taxonomy, rankIndex)
			counts[key]++
			union[key] = struct{}{}
		}
		perSample[i] = counts
		out.Samples = append(out.Samples, s.Name)
	}
	out.Taxa = sortedKeys(union)
	out.Matrix = make([][]int, len(samples))
	for i := range samples {
		row := make([]int, len(out.Taxa))
		for j, taxon := range out.Taxa {
			row[j] = perSample[i][taxon]
		}
		out.Matrix[i] = row
	}
	return out
}

type Diversity struct {
	Samples           []string     `json:"samples"`
	Dissimilarity     [][]float64  `json:"dissimilarity_matrix"`
	Similarity        [][]float64  `json:"similarity_matrix"`
	PCoA              [][2]float64 `json:"pcoa"`
	ExplainedVariance []float64    `json:"explained_variance"`
}

// BetaDiversity compares samples by Bray-Curtis dissimilarity over full taxonomy
// strings and projects the abundance vectors onto their first two principal components.
func BetaDiversity(samples []Sample) Diversity {
	union := make(map[string]struct{})
	perSample := make([]map[string]int, len(samples))
	out := Diversity{Samples: make([]string, 0, len(samples))}
	for i, s := range samples {
		counts := make(map[string]int)
		for _, r := range s.Records {
			counts[r.Taxonomy]++
			union[r.Taxonomy] = struct{}{}
		}
		perSample[i] = counts
		out.Samples = append(out.Samples, s.Name)
	}
	taxa := sortedKeys(union)
	n, m := len(samples), len(taxa)
	vectors := make([][]float64, n)
	for i := range samples {
		v := make([]float64, m)
		for j, t := range taxa {
			v[j] = float64(perSample[i][t])
		}
		vectors[i] = v
	}

	out.Dissimilarity = make([][]float64, n)
	out.Similarity = make([][]float64, n)
	for i := 0; i < n; i++ {
		out.Dissimilarity[i] = make([]float64, n)
		out.Similarity[i] = make([]float64, n)
		for j := 0; j < n; j++ {
			if i != j {
				out.Dissimilarity[i][j] = BrayCurtis(vectors[i], vectors[j])
			}
			out.Similarity[i][j] = 1 - out.Dissimilarity[i][j]
		}
	}
	out.PCoA, out.ExplainedVariance = project2D(vectors, m)
	return out
}

// BrayCurtis returns sum|u-v| / sum|u+v|, or 0 when both vectors are empty.
func BrayCurtis(u, v []float64) float64 {
	if len(u) == 0 {
		return 0
	}
	sum := make([]float64, len(u))
	floats.AddTo(sum, u, v)
	den := 0.0
	for _, x := range sum {
		if x < 0 {
			x = -x
		}
		den += x
	}
	if den == 0 {
		return 0
	}
	return floats.Distance(u, v, 1) / den
}

func project2D(vectors [][]float64, cols int) ([][2]float64, []float64) {
	n := len(vectors)
	coords := make([][2]float64, n)
	if n < 2 || cols == 0 {
		return coords, []float64{}
	}
	data := mat.NewDense(n, cols, nil)
	for i, v := range vectors {
		data.SetRow(i, v)
	}
	var pc stat.PC
	if ok := pc.PrincipalComponents(data, nil); !ok {
		return coords, []float64{}
	}
	var vecs mat.Dense
	pc.VectorsTo(&vecs)
	vars := pc.VarsTo(nil)

	_, k := vecs.Dims()
	if k > 2 {
		k = 2
	}
	centered := mat.DenseCopyOf(data)
	for j := 0; j < cols; j++ {
		col := mat.Col(nil, j, data)
		mean := stat.Mean(col, nil)
		for i := 0; i < n; i++ {
			centered.Set(i, j, col[i]-mean)
		}
	}
	var proj mat.Dense
	proj.Mul(centered, vecs.Slice(0, cols, 0, k))
	for i := 0; i < n; i++ {
		for c := 0; c < k; c++ {
			coords[i][c] = proj.At(i, c)
		}
	}

	total := floats.Sum(vars)
	ratios := make([]float64, k)
	if total > 0 {
		for c := 0; c < k; c++ {
			ratios[c] = vars[c] / total
		}
	}
	return coords, ratios
}

func sortedKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
