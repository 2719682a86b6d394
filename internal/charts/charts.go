package charts

import (
	"bytes"
	"fmt"
	"image/color"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"taxaformer/internal/models"
	"taxaformer/internal/palette"
	"taxaformer/internal/taxonomy"
)

// Supported output formats.
const (
	PNG = "png"
	SVG = "svg"
)

var (
	width  = 8 * vg.Inch
	height = 4 * vg.Inch
)

type bar struct {
	label string
	value float64
	color color.Color
}

// Composition draws one bar per taxonomy group in the group's palette colour.
func Composition(entries []models.TaxonomySummaryEntry, format string) ([]byte, error) {
	bars := make([]bar, 0, len(entries))
	for _, e := range entries {
		bars = append(bars, bar{
			label: taxonomy.Truncate(e.Name, taxonomy.ShortLabel),
			value: float64(e.Value),
			color: palette.RGB(e.Color),
		})
	}
	return render("Taxonomic Composition", "Sequences", bars, format)
}

// Histogram draws bucket counts, colouring buckets by position.
func Histogram(title string, buckets []models.BucketCount, format string) ([]byte, error) {
	bars := make([]bar, 0, len(buckets))
	for i, b := range buckets {
		bars = append(bars, bar{label: b.Category, value: float64(b.Value), color: palette.RGB(palette.Color(i))})
	}
	return render(title, "Sequences", bars, format)
}

func CompositionPNG(entries []models.TaxonomySummaryEntry) ([]byte, error) {
	return Composition(entries, PNG)
}

func HistogramPNG(title string, buckets []models.BucketCount) ([]byte, error) {
	return Histogram(title, buckets, PNG)
}

func render(title, yLabel string, bars []bar, format string) ([]byte, error) {
	if format != PNG && format != SVG {
		return nil, fmt.Errorf("unsupported chart format %q", format)
	}
	p := plot.New()
	p.Title.Text = title
	p.Y.Label.Text = yLabel
	p.Y.Min = 0

	if len(bars) == 0 {
		p.Title.Text = title + " (no data)"
		p.X.Min, p.X.Max = 0, 1
		p.Y.Max = 1
	}

	names := make([]string, 0, len(bars))
	for i, b := range bars {
		bc, err := plotter.NewBarChart(plotter.Values{b.value}, vg.Points(28))
		if err != nil {
			return nil, fmt.Errorf("bar %s: %w", b.label, err)
		}
		bc.XMin = float64(i)
		bc.Color = b.color
		bc.LineStyle.Width = 0
		p.Add(bc)
		names = append(names, b.label)
	}
	if len(names) > 0 {
		p.NominalX(names...)
		p.X.Tick.Label.Rotation = 0.5
		p.X.Tick.Label.XAlign = -0.5
	}

	writer, err := p.WriterTo(width, height, format)
	if err != nil {
		return nil, fmt.Errorf("chart writer: %w", err)
	}
	var buf bytes.Buffer
	if _, err := writer.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("render chart: %w", err)
	}
	return buf.Bytes(), nil
}
