package pdfreport

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taxaformer/internal/models"
	"taxaformer/internal/report"
	"taxaformer/internal/util"
)

func reportData(n int) models.ReportData {
	taxa := []string{
		"Eukaryota;Alveolata;Ciliophora;Spirotrichea",
		"Eukaryota;Chlorophyta;Mamiellophyceae",
		"Eukaryota;Stramenopiles;Bacillariophyta;Mediophyceae;Thalassiosirales;Thalassiosiraceae",
		"Bacteria;Proteobacteria",
	}
	seqs := make([]models.SequenceRecord, 0, n)
	for i := 0; i < n; i++ {
		status := "Known"
		if i%3 == 0 {
			status = "Novel"
		}
		seqs = append(seqs, models.SequenceRecord{
			Accession:    fmt.Sprintf("SEQ_%03d", i+1),
			Taxonomy:     taxa[i%len(taxa)],
			Confidence:   0.5 + float64(i%5)/10,
			NoveltyScore: 0.1 + float64(i%8)/40,
			Status:       status,
			Length:       400 + i,
		})
	}
	res := &models.AnalysisResult{
		Metadata: models.ResultMetadata{
			SampleName: "reef_sample.fasta", TotalSequences: n, ProcessingTime: "4.20s",
			AvgConfidence: 71.5, AvgNoveltyScore: 0.19,
			UserMetadata: []models.MetaField{{Key: "depth", Value: "30"}, {Key: "location.lat", Value: "22.1"}},
		},
		Sequences: seqs,
	}
	o := report.DefaultOptions()
	o.Now = func() time.Time { return time.Date(2024, 5, 1, 9, 30, 0, 0, time.UTC) }
	return report.FromResult(res, o)
}

func TestRenderRequiresMetadata(t *testing.T) {
	rec := &recorder{}
	_, err := Render(models.ReportData{}, rec)
	require.ErrorIs(t, err, util.ErrMissingMetadata)
	assert.Empty(t, rec.ops)

	doc, err := Generate(models.ReportData{})
	require.ErrorIs(t, err, util.ErrMissingMetadata)
	assert.Nil(t, doc)
}

func TestRenderSectionsInOrder(t *testing.T) {
	rec := &recorder{}
	pages, err := Render(reportData(20), rec)
	require.NoError(t, err)
	assert.Equal(t, len(Sections), pages)
	assert.Equal(t, pages, rec.pages())

	assert.Contains(t, rec.pageTexts(1), reportTitle)
	assert.Contains(t, rec.pageTexts(2), SectionSummary)
	assert.Contains(t, rec.pageTexts(3), SectionStatistics)
	assert.Contains(t, rec.pageTexts(4), SectionCharts)
	assert.Contains(t, rec.pageTexts(5), "Sequence Data")
	assert.Contains(t, rec.pageTexts(6), SectionMethodology)
}

func TestRunningHeaderAfterFirstPage(t *testing.T) {
	rec := &recorder{}
	_, err := Render(reportData(5), rec)
	require.NoError(t, err)
	assert.NotContains(t, rec.pageTexts(1), "Page 1")
	for p := 2; p <= rec.pages(); p++ {
		texts := rec.pageTexts(p)
		require.NotEmpty(t, texts)
		assert.Equal(t, reportTitle+" - reef_sample.fasta", texts[0])
		assert.Equal(t, fmt.Sprintf("Page %d", p), texts[1])
	}
}

func TestTableListsAtMostTenRows(t *testing.T) {
	rec := &recorder{}
	_, err := Render(reportData(20), rec)
	require.NoError(t, err)
	table := rec.pageTexts(5)
	assert.Contains(t, table, "SEQ_010")
	assert.NotContains(t, table, "SEQ_011")
	assert.True(t, rec.hasText("Showing 10 of 20 sequences."))
}

func TestTableRowTruncatesTaxonomy(t *testing.T) {
	long := "Eukaryota;Stramenopiles;Bacillariophyta;Mediophyceae"
	row := TableRow(models.SequenceRecord{Accession: "A", Taxonomy: long, Confidence: 0.875, NoveltyScore: 0.2, Status: " Novel "})
	assert.Equal(t, long[:35]+"...", row[1])
	assert.Equal(t, "87.5%", row[2])
	assert.Equal(t, "0.200", row[3])
	assert.Equal(t, "Novel", row[4])

	short := TableRow(models.SequenceRecord{Taxonomy: "Bacteria"})
	assert.Equal(t, "Bacteria", short[1])
}

func TestEmptySectionsRenderPlaceholders(t *testing.T) {
	data := report.Assemble(&models.AnalysisResult{Metadata: models.ResultMetadata{SampleName: "empty"}}, nil, report.DefaultOptions())
	rec := &recorder{}
	pages, err := Render(data, rec)
	require.NoError(t, err)
	assert.Equal(t, len(Sections), pages)

	placeholders := 0
	for _, s := range rec.pageTexts(4) {
		if s == noChartData {
			placeholders++
		}
	}
	assert.Equal(t, 4, placeholders)
	assert.True(t, rec.hasText("No sequences were available for this sample."))
}

func TestTextBar(t *testing.T) {
	bar := TextBar(2, 4, BarLength)
	assert.Equal(t, BarLength, utf8.RuneCountInString(bar))
	assert.Equal(t, strings.Repeat("█", 15)+strings.Repeat("░", 15), bar)
	assert.Equal(t, strings.Repeat("█", 30), TextBar(4, 4, BarLength))
	assert.Equal(t, strings.Repeat("░", 30), TextBar(3, 0, BarLength))
	assert.Equal(t, strings.Repeat("█", 30), TextBar(9, 4, BarLength))
	assert.Equal(t, "", TextBar(1, 1, 0))
}

func TestChartBarsScaleToSeriesMaximum(t *testing.T) {
	rec := &recorder{}
	l := NewLayout(rec, "t")
	l.NewPage()
	l.TextChart("Groups", []BarItem{{"a", 10}, {"b", 5}}, noChartData)
	assert.True(t, rec.hasText(strings.Repeat("█", 30)))
	assert.True(t, rec.hasText(strings.Repeat("█", 15)+strings.Repeat("░", 15)))
	assert.True(t, rec.hasText("5 (33.3%)"))
}

func TestCheckSpaceBreaksPages(t *testing.T) {
	rec := &recorder{}
	l := NewLayout(rec, "Title")
	assert.True(t, l.CheckSpace(10))
	assert.Equal(t, 1, l.Page())
	assert.False(t, l.CheckSpace(10))

	l.Advance(l.Remaining() - 5)
	assert.True(t, l.CheckSpace(10))
	assert.Equal(t, 2, l.Page())
	assert.Equal(t, headerTop, l.Cursor())
	assert.True(t, rec.hasText("Page 2"))
}

func TestParagraphWrapsAndPaginates(t *testing.T) {
	rec := &recorder{}
	l := NewLayout(rec, "Title")
	l.NewPage()
	start := l.Cursor()
	lines := l.Paragraph(strings.Repeat("word ", 40), 10)
	assert.Greater(t, lines, 1)
	assert.InDelta(t, start+float64(lines)*lineHeight(10)+1.5, l.Cursor(), 1e-9)

	for _, line := range l.Wrap(strings.Repeat("word ", 40), 10, ContentWidth) {
		assert.LessOrEqual(t, rec.TextWidth(line), ContentWidth)
	}

	l.Paragraph(strings.Repeat("filler text that keeps going ", 400), 10)
	assert.Greater(t, l.Page(), 1)
}

func TestStatCardsTwoColumns(t *testing.T) {
	rec := &recorder{}
	l := NewLayout(rec, "t")
	l.NewPage()
	start := l.Cursor()
	l.StatCards([]StatCard{{"1", "a", "x"}, {"2", "b", "y"}, {"3", "c", "z"}})
	var rects []op
	for _, o := range rec.ops {
		if o.kind == "rect" {
			rects = append(rects, o)
		}
	}
	require.Len(t, rects, 3)
	assert.Equal(t, rects[0].y, rects[1].y)
	assert.Greater(t, rects[1].x, rects[0].x)
	assert.Equal(t, rects[0].x, rects[2].x)
	assert.Equal(t, start+2*(cardHeight+cardGap), l.Cursor())
}

func TestGenerateProducesReadablePDF(t *testing.T) {
	doc, err := Generate(reportData(20))
	require.NoError(t, err)
	assert.Equal(t, "taxaformer-report-reef_sample-2024-05-01.pdf", doc.Name)
	assert.True(t, bytes.HasPrefix(doc.Bytes, []byte("%PDF-")))

	r, err := pdf.NewReader(bytes.NewReader(doc.Bytes), int64(len(doc.Bytes)))
	require.NoError(t, err)
	assert.Equal(t, doc.Pages, r.NumPage())
	assert.Equal(t, len(Sections), r.NumPage())
}

func TestDownloadWritesWholeDocument(t *testing.T) {
	doc, err := Generate(reportData(3))
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "out", "report.pdf")
	got, err := Download(doc, path)
	require.NoError(t, err)
	assert.Equal(t, path, got)
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, doc.Bytes, b)

	_, err = Download(nil, path)
	assert.Error(t, err)
}

func TestGenerateFailureLeavesNoFile(t *testing.T) {
	dir := t.TempDir()
	doc, err := Generate(models.ReportData{})
	require.True(t, errors.Is(err, util.ErrMissingMetadata))
	_, err = Download(doc, filepath.Join(dir, "report.pdf"))
	require.Error(t, err)
	entries, _ := os.ReadDir(dir)
	assert.Empty(t, entries)
}
