package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"taxaformer/internal/report"
)

const resultJSON = `{"metadata":{"sampleName":"reef.fasta"},"sequences":[
 {"accession":"SEQ_001","taxonomy":"Eukaryota;Alveolata","confidence":0.9,"noveltyScore":0.2,"status":"Novel"},
 {"accession":"SEQ_002","taxonomy":"Eukaryota;Fungi","confidence":0.6,"noveltyScore":0.05,"status":"Known"}]}`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return p
}

func TestLoadResultFormats(t *testing.T) {
	dir := t.TempDir()
	res, err := loadResult(writeFile(t, dir, "a.json", resultJSON))
	if err != nil || len(res.Sequences) != 2 || res.Metadata.SampleName != "reef.fasta" {
		t.Fatalf("json load = %+v, %v", res.Metadata, err)
	}
	csv := "Sequence_ID,Predicted_Taxonomy,Novelty_Score,Status,Nearest_Neighbor_Taxonomy,Nearest_Neighbor_Dist\n\"A\",\"E;Fungi\",0.3,\"Novel\",\"\",0\n"
	res, err = loadResult(writeFile(t, dir, "b.csv", csv))
	if err != nil || len(res.Sequences) != 1 || res.Metadata.SampleName != "b.csv" {
		t.Fatalf("csv load = %+v, %v", res.Metadata, err)
	}
	if _, err := loadResult(writeFile(t, dir, "c.txt", "x")); err == nil {
		t.Fatalf("expected unsupported file error")
	}
}

func TestRenderAndExport(t *testing.T) {
	dir := t.TempDir()
	in := writeFile(t, dir, "a.json", resultJSON)
	out := filepath.Join(dir, "out.pdf")
	path, pages, err := renderFile(in, out, report.DefaultOptions())
	if err != nil || path != out || pages != 6 {
		t.Fatalf("render = %q, %d, %v", path, pages, err)
	}

	var sb strings.Builder
	if err := exportFile(in, "csv", "-", &sb); err != nil {
		t.Fatalf("export: %v", err)
	}
	if lines := strings.Split(strings.TrimSpace(sb.String()), "\n"); len(lines) != 3 {
		t.Fatalf("csv lines = %d", len(lines))
	}
	jsonOut := filepath.Join(dir, "seqs.json")
	if err := exportFile(in, "json", jsonOut, nil); err != nil {
		t.Fatalf("export json: %v", err)
	}
	if b, _ := os.ReadFile(jsonOut); !strings.HasPrefix(string(b), "[") {
		t.Fatalf("json export = %q", b)
	}
}

func TestRenderDir(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.json", resultJSON)
	writeFile(t, dir, "b.json", `{not json`)
	writeFile(t, dir, "notes.md", "ignored")
	out := filepath.Join(dir, "reports")
	summary, err := renderDir(dir, out, report.DefaultOptions(), 2, false)
	if err != nil {
		t.Fatalf("renderDir: %v", err)
	}
	if len(summary.Rendered) != 1 || filepath.Base(summary.Rendered[0]) != "a.json.pdf" {
		t.Fatalf("rendered = %v", summary.Rendered)
	}
	if len(summary.Failed) != 1 || filepath.Base(summary.Failed[0].Input) != "b.json" {
		t.Fatalf("failed = %+v", summary.Failed)
	}
	idx, err := os.ReadFile(filepath.Join(out, "index.jsonl"))
	if err != nil {
		t.Fatalf("read index: %v", err)
	}
	if lines := strings.Split(strings.TrimSpace(string(idx)), "\n"); len(lines) != 2 || !strings.Contains(lines[1], `"error"`) {
		t.Fatalf("index = %q", idx)
	}
}

func TestRenderDirKeepsSameStemApart(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "x.json", resultJSON)
	writeFile(t, dir, "x.csv", "Sequence_ID,Predicted_Taxonomy,Novelty_Score,Status\n\"A\",\"E;Fungi\",0.3,\"Novel\"\n")
	out := filepath.Join(dir, "reports")
	summary, err := renderDir(dir, out, report.DefaultOptions(), 2, false)
	if err != nil {
		t.Fatalf("renderDir: %v", err)
	}
	if len(summary.Rendered) != 2 || summary.Rendered[0] == summary.Rendered[1] {
		t.Fatalf("rendered = %v", summary.Rendered)
	}
	for _, name := range []string{"x.json.pdf", "x.csv.pdf"} {
		if _, err := os.Stat(filepath.Join(out, name)); err != nil {
			t.Fatalf("missing %s: %v", name, err)
		}
	}
}
