package fasta

import (
	"errors"
	"strings"
	"testing"

	"taxaformer/internal/util"
)

func TestParseSimple(t *testing.T) {
	input := "junk\n>seq1\nATGC\nAT GC\n>seq2 18S rRNA partial\nGGTT\n\n>empty\n"
	recs, err := Parse(strings.NewReader(input))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(recs) != 3 {
		t.Fatalf("expected 3 records, got %d", len(recs))
	}
	if recs[0].ID != "seq1" || recs[0].Sequence != "ATGCATGC" {
		t.Fatalf("unexpected first record: %+v", recs[0])
	}
	if recs[1].ID != "seq2" || recs[1].Description != "18S rRNA partial" || recs[1].Sequence != "GGTT" {
		t.Fatalf("unexpected second record: %+v", recs[1])
	}
	if recs[2].Sequence != "" {
		t.Fatalf("expected empty sequence, got %q", recs[2].Sequence)
	}
}

func TestCountFASTQ(t *testing.T) {
	input := "@r1\nACGT\n+\nIIII\n@r2\nACGT\n+\n@III\n"
	n, err := CountFASTQ(strings.NewReader(input))
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 2 {
		t.Fatalf("expected 2 reads, got %d", n)
	}
}

func TestValidate(t *testing.T) {
	if n, err := Validate("sample.FASTA", []byte(">a\nACGT\n>b\nAC\n")); err != nil || n != 2 {
		t.Fatalf("fasta: n=%d err=%v", n, err)
	}
	if n, err := Validate("reads.fq", []byte("@r1\nACGT\n+\nIIII\n")); err != nil || n != 1 {
		t.Fatalf("fastq: n=%d err=%v", n, err)
	}
	if n, err := Validate("reads.txt", []byte("@r1\nACGT\n+\nIIII\n")); err != nil || n != 1 {
		t.Fatalf("txt fastq: n=%d err=%v", n, err)
	}
	if _, err := Validate("notes.docx", []byte(">a\nAC\n")); !errors.Is(err, util.ErrUnsupportedFile) {
		t.Fatalf("expected unsupported file, got %v", err)
	}
	if _, err := Validate("empty.fa", []byte("nothing here")); !errors.Is(err, util.ErrNoSequences) {
		t.Fatalf("expected no sequences, got %v", err)
	}
}
