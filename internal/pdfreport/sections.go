package pdfreport

import (
	"fmt"
	"strconv"
	"strings"

	"taxaformer/internal/models"
	"taxaformer/internal/taxonomy"
)

// Section names in the order they are rendered.
const (
	SectionCover       = "Cover"
	SectionSummary     = "Executive Summary"
	SectionStatistics  = "Statistics Overview"
	SectionCharts      = "Charts"
	SectionDataTable   = "Data Table"
	SectionMethodology = "Methodology"
)

// Sections lists every section of a report.
var Sections = []string{
	SectionCover,
	SectionSummary,
	SectionStatistics,
	SectionCharts,
	SectionDataTable,
	SectionMethodology,
}

// TableRows is the number of sequences listed in the data table.
const TableRows = 10

const (
	reportTitle     = "Taxaformer Analysis Report"
	noChartData     = "No data available for this chart."
	maxCoverMetaRow = 12
)

type sectionFunc func(l *Layout, d models.ReportData)

var sectionRenderers = map[string]sectionFunc{
	SectionCover:       renderCover,
	SectionSummary:     renderSummary,
	SectionStatistics:  renderStatistics,
	SectionCharts:      renderCharts,
	SectionDataTable:   renderDataTable,
	SectionMethodology: renderMethodology,
}

func renderCover(l *Layout, d models.ReportData) {
	m := d.Metadata
	l.Advance(40)
	l.c.SetFont(true, 26)
	l.c.SetTextColor(ink)
	l.c.Text(Margin, l.y, reportTitle)
	l.Advance(10)
	l.c.SetFont(false, 13)
	l.c.SetTextColor(muted)
	l.c.Text(Margin, l.y, "DNA Sequence Taxonomic Classification")
	l.c.SetDrawColor(accent)
	l.c.Line(Margin, l.y+5, Margin+60, l.y+5)
	l.Advance(20)

	l.KeyValue([][2]string{
		{"Sample", m.SampleName},
		{"Generated", d.GeneratedAt.Format("January 2, 2006 15:04 MST")},
		{"Total sequences", strconv.Itoa(m.TotalSequences)},
		{"Processing time", m.ProcessingTime},
		{"Average confidence", fmt.Sprintf("%.1f%%", m.AvgConfidence)},
	}, 11)

	if len(m.UserMetadata) == 0 {
		return
	}
	l.Advance(6)
	l.Heading("Sample Metadata", 12)
	pairs := make([][2]string, 0, min(len(m.UserMetadata), maxCoverMetaRow))
	for _, f := range m.UserMetadata {
		if len(pairs) == maxCoverMetaRow {
			break
		}
		pairs = append(pairs, [2]string{f.Key, fitText(l.c, f.Value, ContentWidth-60)})
	}
	l.KeyValue(pairs, 9.5)
	if extra := len(m.UserMetadata) - len(pairs); extra > 0 {
		l.Note(fmt.Sprintf("%d more metadata fields omitted.", extra), 8.5)
	}
}

func renderSummary(l *Layout, d models.ReportData) {
	m := d.Metadata
	l.Heading(SectionSummary, 16)
	l.Paragraph(fmt.Sprintf(
		"This report summarizes the taxonomic classification of %d DNA sequences from sample %q. "+
			"Sequences were assigned a taxonomy, a classifier confidence and a novelty score measuring "+
			"their distance from known reference sequences.",
		m.TotalSequences, m.SampleName), 10)

	l.Heading("Key Findings", 12)
	if len(d.TaxonomySummary) > 0 {
		top := d.TaxonomySummary[0]
		l.Bullet(fmt.Sprintf("The dominant group is %s with %d sequences (%.1f%% of classified sequences).",
			taxonomy.Truncate(top.Name, taxonomy.LegendLabel), top.Value, top.Percentage), 10)
	}
	l.Bullet(fmt.Sprintf("%d distinct taxa were identified at the top grouping rank.", d.Stats.UniqueTaxa), 10)
	l.Bullet(fmt.Sprintf("%d sequences (%s) have a novelty score above %.2f and may represent undescribed taxa.",
		d.Stats.PotentiallyNovel, shareOf(d.Stats.PotentiallyNovel, m.TotalSequences), models.NoveltyThreshold), 10)
	l.Bullet(fmt.Sprintf("Average classifier confidence was %.1f%%; average novelty score was %.3f.",
		m.AvgConfidence, d.Stats.AvgNoveltyScore), 10)
	for _, s := range d.StatusComposition {
		l.Bullet(fmt.Sprintf("Status %s: %d sequences (%.1f%%).", s.Name, s.Value, s.Percentage), 10)
	}
}

func renderStatistics(l *Layout, d models.ReportData) {
	m := d.Metadata
	l.Heading(SectionStatistics, 16)
	l.StatCards([]StatCard{
		{Value: strconv.Itoa(m.TotalSequences), Label: "Total Sequences", Description: "Sequences submitted for classification"},
		{Value: strconv.Itoa(d.Stats.UniqueTaxa), Label: "Unique Taxa", Description: "Distinct groups at the top grouping rank"},
		{Value: strconv.Itoa(d.Stats.PotentiallyNovel), Label: "Potentially Novel", Description: fmt.Sprintf("Novelty score above %.2f", models.NoveltyThreshold)},
		{Value: fmt.Sprintf("%.1f%%", m.AvgConfidence), Label: "Avg Confidence", Description: "Mean classifier certainty"},
		{Value: fmt.Sprintf("%.3f", d.Stats.AvgNoveltyScore), Label: "Avg Novelty Score", Description: "Mean distance from known references"},
		{Value: m.ProcessingTime, Label: "Processing Time", Description: "Backend analysis duration"},
	})

	if len(d.TaxonomySummary) == 0 {
		return
	}
	l.Heading("Top Taxonomic Groups", 12)
	rows := make([][]string, 0, len(d.TaxonomySummary))
	for i, e := range d.TaxonomySummary {
		rows = append(rows, []string{
			strconv.Itoa(i + 1),
			taxonomy.Truncate(e.Name, taxonomy.LegendLabel),
			strconv.Itoa(e.Value),
			fmt.Sprintf("%.1f%%", e.Percentage),
		})
	}
	l.Table([]Column{{"#", 12}, {"Group", 98}, {"Sequences", 35}, {"Share", 35}}, rows)
}

func renderCharts(l *Layout, d models.ReportData) {
	l.Heading(SectionCharts, 16)

	comp := make([]BarItem, 0, len(d.TaxonomySummary))
	for _, e := range d.TaxonomySummary {
		comp = append(comp, BarItem{Label: taxonomy.Truncate(e.Name, taxonomy.ShortLabel), Value: float64(e.Value)})
	}
	l.TextChart("Taxonomic Composition", comp, noChartData)
	l.TextChart("Novelty Score Distribution", bucketItems(d.NoveltyHistogram), noChartData)
	l.TextChart("Confidence Distribution", bucketItems(d.ConfidenceHistogram), noChartData)

	status := make([]BarItem, 0, len(d.StatusComposition))
	for _, s := range d.StatusComposition {
		status = append(status, BarItem{Label: s.Name, Value: float64(s.Value)})
	}
	l.TextChart("Status Composition", status, noChartData)
}

// bucketItems drops all-zero histograms so they render as placeholders.
func bucketItems(buckets []models.BucketCount) []BarItem {
	items := make([]BarItem, 0, len(buckets))
	total := 0
	for _, b := range buckets {
		items = append(items, BarItem{Label: b.Category, Value: float64(b.Value)})
		total += b.Value
	}
	if total == 0 {
		return nil
	}
	return items
}

// TableColumns are the fixed columns of the sequence table.
var TableColumns = []Column{
	{Title: "Accession", Width: 30},
	{Title: "Taxonomy", Width: 78},
	{Title: "Confidence", Width: 24},
	{Title: "Novelty", Width: 22},
	{Title: "Status", Width: 26},
}

// TableRow coerces one record to the table's cell strings.
func TableRow(r models.SequenceRecord) []string {
	return []string{
		r.Accession,
		taxonomy.Truncate(r.Taxonomy, taxonomy.TableLabel),
		fmt.Sprintf("%.1f%%", r.Confidence*100),
		strconv.FormatFloat(r.NoveltyScore, 'f', 3, 64),
		strings.TrimSpace(r.Status),
	}
}

func renderDataTable(l *Layout, d models.ReportData) {
	l.Heading("Sequence Data", 16)
	if len(d.Sequences) == 0 {
		l.Note("No sequences were available for this sample.", 9)
		return
	}
	n := min(len(d.Sequences), TableRows)
	rows := make([][]string, 0, n)
	for _, r := range d.Sequences[:n] {
		rows = append(rows, TableRow(r))
	}
	l.Table(TableColumns, rows)
	l.Note(fmt.Sprintf("Showing %d of %d sequences. The complete set is available in the CSV and JSON exports.",
		n, d.Metadata.TotalSequences), 8.5)
}

func renderMethodology(l *Layout, d models.ReportData) {
	l.Heading(SectionMethodology, 16)
	l.Heading("Classification", 12)
	l.Paragraph("Sequences were uploaded in FASTA format to the classification backend, which embeds "+
		"each sequence and assigns a taxonomy from domain to species by comparison with a reference "+
		"database. Each assignment carries a confidence between 0 and 1.", 10)
	l.Heading("Novelty Scoring", 12)
	l.Paragraph(fmt.Sprintf("The novelty score is the distance between a sequence and its nearest reference "+
		"neighbour. Sequences scoring above %.2f are flagged as potentially novel. Novelty histograms use "+
		"bins of width 0.02 from 0.15 with an open-ended bin above 0.25.", models.NoveltyThreshold), 10)
	l.Heading("Aggregation", 12)
	l.Paragraph("Taxonomic composition counts sequences per label at the grouping rank after removing rank "+
		"prefixes such as \"p__\". Sequences with no label at that rank are counted as Unknown. Groups are "+
		"ordered by count, with ties broken alphabetically. Confidence is binned as below 0.5, 0.5 to 0.8, "+
		"and 0.8 or above.", 10)
	l.Heading("Limitations", 12)
	l.Paragraph("Assignments depend on the coverage of the reference database. A high novelty score may "+
		"indicate an undescribed organism, a sequencing artefact or a gap in the references, and should be "+
		"confirmed independently.", 10)
	l.Note(fmt.Sprintf("Report generated %s.", d.GeneratedAt.Format("2006-01-02 15:04 MST")), 8.5)
}

func shareOf(n, total int) string {
	if total <= 0 {
		return "0.0%"
	}
	return fmt.Sprintf("%.1f%%", float64(n)/float64(total)*100)
}
