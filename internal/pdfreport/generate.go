package pdfreport

import (
	"bytes"
	"fmt"

	"taxaformer/internal/models"
	"taxaformer/internal/util"
)

// Document is a fully built report held in memory.
type Document struct {
	Name  string
	Bytes []byte
	Pages int
}

// Render draws every section onto c, each starting on a new page. It fails with
// util.ErrMissingMetadata before touching c when data has no metadata.
func Render(data models.ReportData, c Canvas) (int, error) {
	if data.Metadata == nil {
		return 0, util.ErrMissingMetadata
	}
	l := NewLayout(c, fmt.Sprintf("%s - %s", reportTitle, data.Metadata.SampleName))
	for _, name := range Sections {
		l.NewPage()
		sectionRenderers[name](l, data)
	}
	return l.Page(), nil
}

// Generate builds the PDF for data. Nothing is written anywhere; use Download to persist it.
func Generate(data models.ReportData) (*Document, error) {
	if data.Metadata == nil {
		return nil, fmt.Errorf("generate report: %w", util.ErrMissingMetadata)
	}
	c := newFpdfCanvas(reportTitle, data.GeneratedAt)
	pages, err := Render(data, c)
	if err != nil {
		return nil, fmt.Errorf("generate report: %w", err)
	}
	var buf bytes.Buffer
	if _, err := c.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("generate report: %w", err)
	}
	return &Document{
		Name:  util.ReportFileName(data.Metadata.SampleName, data.GeneratedAt.Format("2006-01-02")),
		Bytes: buf.Bytes(),
		Pages: pages,
	}, nil
}

// Download writes doc to path atomically. An empty path uses the document's own name.
func Download(doc *Document, path string) (string, error) {
	if doc == nil || len(doc.Bytes) == 0 {
		return "", fmt.Errorf("download report: empty document")
	}
	if path == "" {
		path = doc.Name
	}
	if err := util.WriteBytesAtomic(path, doc.Bytes); err != nil {
		return "", fmt.Errorf("download report: %w", err)
	}
	return path, nil
}
