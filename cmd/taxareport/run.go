package main

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"gopkg.in/cheggaaa/pb.v1"

	"taxaformer/internal/config"
	"taxaformer/internal/export"
	"taxaformer/internal/models"
	"taxaformer/internal/pdfreport"
	"taxaformer/internal/report"
	"taxaformer/internal/results"
	"taxaformer/internal/util"
)

func reportOptions(cfg config.Config) report.Options {
	opts := report.DefaultOptions()
	if cfg.TopTaxa > 0 {
		opts.TopTaxa = cfg.TopTaxa
	}
	opts.UniqueTaxaRank = cfg.UniqueTaxaRank
	if cfg.NoveltyThreshold > 0 {
		opts.NoveltyThreshold = cfg.NoveltyThreshold
	}
	if cfg.ReportSequences > 0 {
		opts.SequenceLimit = cfg.ReportSequences
	}
	return opts
}

// loadResult reads a backend JSON payload or a sequence CSV export.
func loadResult(path string) (models.AnalysisResult, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return models.AnalysisResult{}, fmt.Errorf("read %s: %w", path, err)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		res, err := results.Normalize(b)
		if err != nil {
			return models.AnalysisResult{}, err
		}
		if res.Metadata.SampleName == "Unknown Sample" {
			res.Metadata.SampleName = filepath.Base(path)
		}
		return res, nil
	case ".csv":
		recs, err := export.ReadCSV(bytes.NewReader(b))
		if err != nil {
			return models.AnalysisResult{}, err
		}
		return results.FromRecords(filepath.Base(path), recs), nil
	default:
		return models.AnalysisResult{}, fmt.Errorf("%s: %w", path, util.ErrUnsupportedFile)
	}
}

func renderFile(input, out string, opts report.Options) (string, int, error) {
	res, err := loadResult(input)
	if err != nil {
		return "", 0, err
	}
	doc, err := pdfreport.Generate(report.FromResult(&res, opts))
	if err != nil {
		return "", 0, err
	}
	path, err := pdfreport.Download(doc, out)
	if err != nil {
		return "", 0, err
	}
	return path, doc.Pages, nil
}

func exportFile(input, format, out string, stdout io.Writer) error {
	res, err := loadResult(input)
	if err != nil {
		return err
	}
	write := func(w io.Writer) error {
		if format == "json" {
			return export.WriteResultJSON(w, res)
		}
		return export.WriteCSV(w, res.Sequences)
	}
	if out == "" || out == "-" {
		return write(stdout)
	}
	return util.WriteWithAtomic(out, write)
}

type batchFailure struct {
	Input string
	Err   error
}

type indexRow struct {
	Input  string `json:"input"`
	Output string `json:"output,omitempty"`
	Error  string `json:"error,omitempty"`
}

type batchSummary struct {
	Rendered []string
	Failed   []batchFailure
}

// renderDir renders every .json and .csv file in dir into outDir using ncpu workers
// and records the outcome per input in outDir/index.jsonl.
func renderDir(dir, outDir string, opts report.Options, ncpu int, progress bool) (batchSummary, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return batchSummary{}, fmt.Errorf("read input dir: %w", err)
	}
	inputs := make([]string, 0)
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(e.Name())) {
		case ".json", ".csv":
			inputs = append(inputs, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(inputs)
	if err := util.EnsureDir(outDir); err != nil {
		return batchSummary{}, err
	}

	index := make(map[string]indexRow, len(inputs))
	var pbar *pb.ProgressBar
	if progress {
		pbar = pb.StartNew(len(inputs))
		defer pbar.Finish()
	}

	jobs := make(chan string)
	var (
		mu      sync.Mutex
		wg      sync.WaitGroup
		summary batchSummary
	)
	for i := 0; i < max(ncpu, 1); i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for in := range jobs {
				path, _, err := renderFile(in, filepath.Join(outDir, reportName(in)), opts)
				mu.Lock()
				if err != nil {
					summary.Failed = append(summary.Failed, batchFailure{Input: in, Err: err})
					index[in] = indexRow{Input: in, Error: err.Error()}
				} else {
					summary.Rendered = append(summary.Rendered, path)
					index[in] = indexRow{Input: in, Output: path}
				}
				mu.Unlock()
				if pbar != nil {
					pbar.Increment()
				}
			}
		}()
	}
	for _, in := range inputs {
		jobs <- in
	}
	close(jobs)
	wg.Wait()
	sort.Strings(summary.Rendered)
	sort.Slice(summary.Failed, func(i, j int) bool { return summary.Failed[i].Input < summary.Failed[j].Input })

	rows := make([]indexRow, 0, len(inputs))
	for _, in := range inputs {
		rows = append(rows, index[in])
	}
	if err := util.WriteJSONLinesAtomic(filepath.Join(outDir, "index.jsonl"), rows); err != nil {
		return summary, err
	}
	return summary, nil
}

// reportName keeps the source extension so x.json and x.csv render to different files.
func reportName(input string) string {
	return filepath.Base(input) + ".pdf"
}
