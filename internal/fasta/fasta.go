package fasta

import (
	"bufio"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"taxaformer/internal/util"
)

// Record is one FASTA entry. ID is the header up to the first space.
type Record struct {
	ID          string
	Description string
	Sequence    string
}

// AllowedExtensions are the upload types the classification backend accepts.
var AllowedExtensions = []string{".fasta", ".fa", ".fastq", ".fq", ".txt"}

const maxLine = 16 * 1024 * 1024

// Parse reads FASTA records from r. Sequence lines are concatenated with
// whitespace removed; text before the first header is ignored.
func Parse(r io.Reader) ([]Record, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLine)
	var (
		out []Record
		cur *Record
		seq strings.Builder
	)
	flush := func() {
		if cur != nil {
			cur.Sequence = seq.String()
			out = append(out, *cur)
		}
		seq.Reset()
	}
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if strings.HasPrefix(line, ">") {
			flush()
			header := strings.TrimSpace(line[1:])
			id, desc, _ := strings.Cut(header, " ")
			cur = &Record{ID: id, Description: strings.TrimSpace(desc)}
			continue
		}
		if cur != nil {
			seq.WriteString(strings.Join(strings.Fields(line), ""))
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("scan fasta: %w", err)
	}
	flush()
	return out, nil
}

// CountFASTQ counts four-line FASTQ records whose header starts with '@'.
func CountFASTQ(r io.Reader) (int, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLine)
	n, line := 0, 0
	for sc.Scan() {
		text := strings.TrimSpace(sc.Text())
		if text == "" {
			continue
		}
		if line%4 == 0 && strings.HasPrefix(text, "@") {
			n++
		}
		line++
	}
	if err := sc.Err(); err != nil {
		return 0, fmt.Errorf("scan fastq: %w", err)
	}
	return n, nil
}

// CheckExtension reports util.ErrUnsupportedFile for names outside AllowedExtensions.
func CheckExtension(filename string) (string, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	for _, allowed := range AllowedExtensions {
		if ext == allowed {
			return ext, nil
		}
	}
	return "", fmt.Errorf("%w: %q (allowed: %s)", util.ErrUnsupportedFile, filename, strings.Join(AllowedExtensions, ", "))
}

// Validate checks an upload before it is sent for classification and returns its
// sequence count. Plain .txt uploads may hold either format.
func Validate(filename string, content []byte) (int, error) {
	ext, err := CheckExtension(filename)
	if err != nil {
		return 0, err
	}
	var n int
	switch ext {
	case ".fastq", ".fq":
		n, err = CountFASTQ(strings.NewReader(string(content)))
	default:
		var recs []Record
		recs, err = Parse(strings.NewReader(string(content)))
		n = len(recs)
		if err == nil && n == 0 && ext == ".txt" {
			n, err = CountFASTQ(strings.NewReader(string(content)))
		}
	}
	if err != nil {
		return 0, err
	}
	if n == 0 {
		return 0, fmt.Errorf("%w: %s", util.ErrNoSequences, filename)
	}
	return n, nil
}
