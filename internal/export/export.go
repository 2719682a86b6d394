package export

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"taxaformer/internal/models"
	"taxaformer/internal/results"
)

// Header is the fixed CSV column contract.
var Header = []string{
	"Sequence_ID",
	"Predicted_Taxonomy",
	"Novelty_Score",
	"Status",
	"Nearest_Neighbor_Taxonomy",
	"Nearest_Neighbor_Dist",
}

// WriteJSON writes the sequences array pretty-printed with a two-space indent.
func WriteJSON(w io.Writer, sequences []models.SequenceRecord) error {
	if sequences == nil {
		sequences = []models.SequenceRecord{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(sequences); err != nil {
		return fmt.Errorf("encode sequences: %w", err)
	}
	return nil
}

// WriteResultJSON writes the sequences array as the backend sent it, pretty-printed.
// Results without a received array (CSV input, mock data) are encoded from the records.
func WriteResultJSON(w io.Writer, res models.AnalysisResult) error {
	if len(bytes.TrimSpace(res.RawSequences)) == 0 {
		return WriteJSON(w, res.Sequences)
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, res.RawSequences, "", "  "); err != nil {
		return fmt.Errorf("indent sequences: %w", err)
	}
	buf.WriteByte('\n')
	if _, err := buf.WriteTo(w); err != nil {
		return fmt.Errorf("write sequences: %w", err)
	}
	return nil
}

// WriteCSV writes one row per record. String columns are always quoted; numbers never are.
func WriteCSV(w io.Writer, records []models.SequenceRecord) error {
	bw := bufio.NewWriter(w)
	if _, err := bw.WriteString(strings.Join(Header, ",") + "\n"); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, r := range records {
		line := strings.Join([]string{
			quote(r.Accession),
			quote(r.Taxonomy),
			formatFloat(r.NoveltyScore),
			quote(r.Status),
			quote(r.NearestNeighborTaxonomy),
			formatFloat(r.NearestNeighborDist),
		}, ",")
		if _, err := bw.WriteString(line + "\n"); err != nil {
			return fmt.Errorf("write csv row %s: %w", r.Accession, err)
		}
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return nil
}

// ReadCSV parses rows written by WriteCSV. Columns are matched by header name;
// a missing column reads as "", an unparsable number as 0, and undecodable lines are skipped.
func ReadCSV(r io.Reader) ([]models.SequenceRecord, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.TrimLeadingSpace = true

	head, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return []models.SequenceRecord{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}
	cols := make(map[string]int, len(head))
	for i, h := range head {
		cols[strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))] = i
	}
	cell := func(row []string, name string) string {
		i, ok := cols[name]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}
	num := func(row []string, name string) float64 {
		v, _ := results.ParseNumber(cell(row, name))
		return v
	}

	out := make([]models.SequenceRecord, 0)
	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var perr *csv.ParseError
			if errors.As(err, &perr) {
				continue
			}
			return out, fmt.Errorf("read csv: %w", err)
		}
		if len(row) == 1 && strings.TrimSpace(row[0]) == "" {
			continue
		}
		out = append(out, models.SequenceRecord{
			Accession:               cell(row, "Sequence_ID"),
			Taxonomy:                cell(row, "Predicted_Taxonomy"),
			NoveltyScore:            num(row, "Novelty_Score"),
			Status:                  cell(row, "Status"),
			NearestNeighborTaxonomy: cell(row, "Nearest_Neighbor_Taxonomy"),
			NearestNeighborDist:     num(row, "Nearest_Neighbor_Dist"),
		})
	}
	return out, nil
}

func quote(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
