package activities

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"slices"
	"strings"

	"go.temporal.io/sdk/activity"

	"taxaformer/internal/aggregate"
	"taxaformer/internal/charts"
	"taxaformer/internal/config"
	"taxaformer/internal/datastore"
	"taxaformer/internal/export"
	"taxaformer/internal/pdfreport"
	"taxaformer/internal/report"
	"taxaformer/internal/util"
)

type Activities struct {
	cfg  config.Config
	jobs datastore.JobSource
}

func New(cfg config.Config, jobs datastore.JobSource) *Activities {
	return &Activities{cfg: cfg, jobs: jobs}
}

func (a *Activities) FetchResultActivity(ctx context.Context, in FetchResultInput) (FetchResultOutput, error) {
	loaded, err := datastore.Resolve(ctx, a.jobs, in.JobID)
	if err != nil {
		return FetchResultOutput{}, err
	}
	if loaded.Fallback {
		activity.GetLogger(ctx).Warn("datastore unavailable, using sample result", "job_id", in.JobID)
	}
	out := FetchResultOutput{
		JobID:    loaded.Job.JobID,
		Filename: loaded.Job.Filename,
		Result:   loaded.Result,
		Fallback: loaded.Fallback,
	}
	if loaded.Result != nil {
		out.RawSequences = loaded.Result.RawSequences
	}
	return out, nil
}

// RenderReportActivity writes the PDF report. A job without a stored result fails
// with util.ErrMissingMetadata and nothing is written.
func (a *Activities) RenderReportActivity(ctx context.Context, in RenderReportInput) (RenderReportOutput, error) {
	data := report.FromResult(in.Result, a.reportOptions())
	doc, err := pdfreport.Generate(data)
	if err != nil {
		return RenderReportOutput{}, err
	}
	path, err := pdfreport.Download(doc, filepath.Join(a.outDir(in.OutDir, in.JobID), doc.Name))
	if err != nil {
		return RenderReportOutput{}, err
	}
	activity.GetLogger(ctx).Info("report rendered", "job_id", in.JobID, "path", path, "pages", doc.Pages)
	return RenderReportOutput{Path: path, Pages: doc.Pages}, nil
}

func (a *Activities) WriteExportsActivity(ctx context.Context, in WriteExportsInput) (ArtifactsOutput, error) {
	_ = ctx
	dir := a.outDir(in.OutDir, in.JobID)
	res := in.Result
	res.RawSequences = in.RawSequences
	seqs := res.Sequences
	out := ArtifactsOutput{Paths: make([]string, 0, 2)}
	if wants(in.Formats, FormatCSV) {
		path := filepath.Join(dir, "sequences.csv")
		if err := util.WriteWithAtomic(path, func(w io.Writer) error { return export.WriteCSV(w, seqs) }); err != nil {
			return ArtifactsOutput{}, fmt.Errorf("write csv export: %w", err)
		}
		out.Paths = append(out.Paths, path)
	}
	if wants(in.Formats, FormatJSON) {
		path := filepath.Join(dir, "sequences.json")
		if err := util.WriteWithAtomic(path, func(w io.Writer) error { return export.WriteResultJSON(w, res) }); err != nil {
			return ArtifactsOutput{}, fmt.Errorf("write json export: %w", err)
		}
		out.Paths = append(out.Paths, path)
	}
	return out, nil
}

func (a *Activities) WriteChartsActivity(ctx context.Context, in WriteChartsInput) (ArtifactsOutput, error) {
	_ = ctx
	dir := a.outDir(in.OutDir, in.JobID)
	seqs := in.Result.Sequences
	rank := a.cfg.UniqueTaxaRank

	type chart struct {
		name   string
		render func() ([]byte, error)
	}
	list := []chart{
		{"composition.png", func() ([]byte, error) {
			return charts.CompositionPNG(aggregate.ByRank(seqs, rank, a.topTaxa()))
		}},
		{"novelty.png", func() ([]byte, error) {
			return charts.HistogramPNG("Novelty Score Distribution", aggregate.ByBucket(seqs, aggregate.Novelty, aggregate.NoveltyBuckets()))
		}},
		{"confidence.png", func() ([]byte, error) {
			return charts.HistogramPNG("Confidence Distribution", aggregate.ByBucket(seqs, aggregate.Confidence, aggregate.ConfidenceBuckets()))
		}},
	}
	out := ArtifactsOutput{Paths: make([]string, 0, len(list))}
	for _, c := range list {
		b, err := c.render()
		if err != nil {
			return ArtifactsOutput{}, fmt.Errorf("render %s: %w", c.name, err)
		}
		path := filepath.Join(dir, c.name)
		if err := util.WriteBytesAtomic(path, b); err != nil {
			return ArtifactsOutput{}, err
		}
		out.Paths = append(out.Paths, path)
	}
	return out, nil
}

func (a *Activities) WriteManifestActivity(ctx context.Context, in WriteManifestInput) (WriteManifestOutput, error) {
	_ = ctx
	path := filepath.Join(a.outDir(in.OutDir, in.JobID), "manifest.json")
	if err := util.WriteJSONAtomic(path, in.Manifest); err != nil {
		return WriteManifestOutput{}, err
	}
	return WriteManifestOutput{Path: path}, nil
}

func (a *Activities) reportOptions() report.Options {
	opts := report.DefaultOptions()
	opts.TopTaxa = a.topTaxa()
	opts.UniqueTaxaRank = a.cfg.UniqueTaxaRank
	if a.cfg.NoveltyThreshold > 0 {
		opts.NoveltyThreshold = a.cfg.NoveltyThreshold
	}
	if a.cfg.ReportSequences > 0 {
		opts.SequenceLimit = a.cfg.ReportSequences
	}
	return opts
}

func (a *Activities) topTaxa() int {
	if a.cfg.TopTaxa > 0 {
		return a.cfg.TopTaxa
	}
	return 6
}

// outDir keeps every artifact under the configured data root.
func (a *Activities) outDir(dir, jobID string) string {
	if strings.TrimSpace(dir) != "" {
		return dir
	}
	return util.SafeJoin(a.cfg.DataOutRoot, jobID)
}

func wants(formats []string, f string) bool {
	return len(formats) == 0 || slices.Contains(formats, f)
}
