package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"taxaformer/internal/aggregate"
	"taxaformer/internal/backend"
	"taxaformer/internal/charts"
	"taxaformer/internal/datastore"
	"taxaformer/internal/export"
	"taxaformer/internal/models"
	"taxaformer/internal/pdfreport"
	"taxaformer/internal/report"
	"taxaformer/internal/results"
	"taxaformer/internal/sankey"
	"taxaformer/internal/taxonomy"
	"taxaformer/internal/util"
)

const sampleJobID = "sample"

func (s *Server) handleJobs(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeErr(w, http.StatusMethodNotAllowed, fmt.Errorf("method not allowed"))
		return
	}
	limit := queryInt(r, "limit", 50)
	if s.jobs != nil {
		jobs, err := s.jobs.ListJobs(r.Context(), limit)
		if err == nil {
			writeJSON(w, http.StatusOK, map[string]any{"jobs": jobs, "fallback": false})
			return
		}
		s.logger.Warn("datastore unavailable, listing sample job", "err", err)
	}
	res := backend.SampleResult("sample_data.fasta", 0)
	writeJSON(w, http.StatusOK, map[string]any{
		"jobs": []models.JobRow{{
			JobID:          sampleJobID,
			Filename:       res.Metadata.SampleName,
			TotalSequences: res.Metadata.TotalSequences,
			CreatedAt:      s.now().UTC(),
		}},
		"fallback": true,
	})
}

// load returns a job from the session cache or the datastore.
func (s *Server) load(ctx context.Context, jobID string) (datastore.Loaded, error) {
	if e, ok := s.sessions.Get(jobID); ok {
		res := e.Result
		return datastore.Loaded{
			Job:      models.JobRow{JobID: jobID, Filename: res.Metadata.SampleName, TotalSequences: res.Metadata.TotalSequences, CreatedAt: e.LoadedAt},
			Result:   &res,
			Fallback: e.Fallback,
		}, nil
	}
	var (
		loaded datastore.Loaded
		err    error
	)
	if jobID == sampleJobID {
		loaded, err = datastore.Resolve(ctx, nil, jobID)
	} else {
		loaded, err = datastore.Resolve(ctx, s.jobs, jobID)
	}
	if errors.Is(err, util.ErrNotFound) {
		loaded, err = s.loadFromBackend(ctx, jobID, err)
	}
	if err != nil {
		return datastore.Loaded{}, err
	}
	// Sample results stand in only while the datastore is down.
	if loaded.Result != nil && !loaded.Fallback {
		s.sessions.Put(jobID, *loaded.Result, false)
	}
	return loaded, nil
}

// loadFromBackend asks the classification backend for a job the datastore does not know.
func (s *Server) loadFromBackend(ctx context.Context, jobID string, notFound error) (datastore.Loaded, error) {
	if s.backends == nil {
		return datastore.Loaded{}, notFound
	}
	remote, ok := s.backends.Remote()
	if !ok {
		return datastore.Loaded{}, notFound
	}
	st, err := remote.JobStatus(ctx, jobID)
	if err != nil {
		if backend.ClassifyError(err) == backend.ErrorRejected {
			return datastore.Loaded{}, notFound
		}
		return datastore.Loaded{}, err
	}
	out := datastore.Loaded{Job: models.JobRow{JobID: jobID}}
	if len(st.Data) == 0 {
		return out, nil
	}
	res, err := results.Normalize(st.Data)
	if err != nil {
		return datastore.Loaded{}, err
	}
	out.Job.Filename = res.Metadata.SampleName
	out.Job.TotalSequences = res.Metadata.TotalSequences
	out.Result = &res
	return out, nil
}

func records(l datastore.Loaded) []models.SequenceRecord {
	if l.Result == nil {
		return []models.SequenceRecord{}
	}
	return l.Result.Sequences
}

func (s *Server) handleJobScoped(w http.ResponseWriter, r *http.Request) {
	rest := strings.Trim(strings.TrimPrefix(r.URL.Path, "/jobs/"), "/")
	jobID, sub, _ := strings.Cut(rest, "/")
	if jobID == "" {
		writeErr(w, http.StatusNotFound, fmt.Errorf("not found"))
		return
	}
	if sub == "artifacts" {
		s.handleStartArtifacts(w, r, jobID)
		return
	}
	if r.Method != http.MethodGet {
		writeErr(w, http.StatusMethodNotAllowed, fmt.Errorf("method not allowed"))
		return
	}

	loaded, err := s.load(r.Context(), jobID)
	if err != nil {
		writeErr(w, statusFor(err), err)
		return
	}
	seqs := records(loaded)

	switch sub {
	case "":
		job := loaded.Job
		job.Result = nil
		status := "completed"
		if loaded.Result == nil {
			status = "pending"
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"job": job, "status": status, "result": loaded.Result, "fallback": loaded.Fallback,
		})
	case "sequences":
		view := results.Sort(results.Filter(seqs, viewQuery(r, s.cfg.NoveltyThreshold)), r.URL.Query().Get("sort"), queryBool(r, "desc"))
		writeJSON(w, http.StatusOK, map[string]any{"sequences": view, "total": len(seqs), "shown": len(view), "fallback": loaded.Fallback})
	case "composition":
		rank := s.rankParam(r)
		top := queryInt(r, "top", 0)
		entries := aggregate.RankCounts(seqs, rank)
		if top > 0 {
			entries = aggregate.ByRank(seqs, rank, top)
		}
		writeJSON(w, http.StatusOK, map[string]any{"rank": rank, "entries": entries, "fallback": loaded.Fallback})
	case "buckets":
		kind := strings.ToLower(r.URL.Query().Get("kind"))
		var buckets []models.BucketCount
		switch kind {
		case "", "novelty":
			kind = "novelty"
			buckets = aggregate.ByBucket(seqs, aggregate.Novelty, aggregate.NoveltyBuckets())
		case "confidence":
			buckets = aggregate.ByBucket(seqs, aggregate.Confidence, aggregate.ConfidenceBuckets())
		default:
			writeErr(w, http.StatusBadRequest, fmt.Errorf("unknown bucket kind %q", kind))
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"kind": kind, "buckets": buckets, "fallback": loaded.Fallback})
	case "status":
		writeJSON(w, http.StatusOK, map[string]any{"statuses": aggregate.StatusComposition(seqs), "fallback": loaded.Fallback})
	case "sankey":
		g := sankey.WithPlaceholder(sankey.Build(seqs, queryInt(r, "max_ranks", 5)))
		if width := queryInt(r, "label_width", 0); width > 0 {
			g = sankey.Truncated(g, width)
		}
		writeJSON(w, http.StatusOK, map[string]any{"graph": g, "fallback": loaded.Fallback})
	case "hierarchy":
		writeJSON(w, http.StatusOK, map[string]any{"root": aggregate.Hierarchy(seqs), "fallback": loaded.Fallback})
	case "profiles":
		writeJSON(w, http.StatusOK, map[string]any{
			"profiles": aggregate.TopProfiles(seqs, s.rankParam(r), queryInt(r, "top", 6)), "fallback": loaded.Fallback,
		})
	case "report":
		writeJSON(w, http.StatusOK, report.FromResult(loaded.Result, s.reportOptions()))
	case "report.pdf":
		s.writeReportPDF(w, loaded)
	case "export.csv":
		view := results.Sort(results.Filter(seqs, viewQuery(r, s.cfg.NoveltyThreshold)), r.URL.Query().Get("sort"), queryBool(r, "desc"))
		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
		w.Header().Set("Content-Disposition", attachment(exportName(loaded, "csv")))
		if err := export.WriteCSV(w, view); err != nil {
			s.logger.Error("write csv export", "job_id", jobID, "err", err)
		}
	case "export.json":
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Content-Disposition", attachment(exportName(loaded, "json")))
		res := models.AnalysisResult{Sequences: seqs}
		if loaded.Result != nil {
			res = *loaded.Result
		}
		if err := export.WriteResultJSON(w, res); err != nil {
			s.logger.Error("write json export", "job_id", jobID, "err", err)
		}
	case "charts/composition.png", "charts/composition.svg":
		format := chartFormat(sub)
		b, err := charts.Composition(aggregate.ByRank(seqs, s.rankParam(r), queryInt(r, "top", 6)), format)
		s.writeChart(w, b, format, err)
	case "charts/novelty.png", "charts/novelty.svg":
		format := chartFormat(sub)
		b, err := charts.Histogram("Novelty Score Distribution", aggregate.ByBucket(seqs, aggregate.Novelty, aggregate.NoveltyBuckets()), format)
		s.writeChart(w, b, format, err)
	case "charts/confidence.png", "charts/confidence.svg":
		format := chartFormat(sub)
		b, err := charts.Histogram("Confidence Distribution", aggregate.ByBucket(seqs, aggregate.Confidence, aggregate.ConfidenceBuckets()), format)
		s.writeChart(w, b, format, err)
	default:
		writeErr(w, http.StatusNotFound, fmt.Errorf("not found"))
	}
}

func (s *Server) writeReportPDF(w http.ResponseWriter, loaded datastore.Loaded) {
	doc, err := pdfreport.Generate(report.FromResult(loaded.Result, s.reportOptions()))
	if err != nil {
		writeErr(w, statusFor(err), err)
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", attachment(doc.Name))
	w.Header().Set("Content-Length", strconv.Itoa(len(doc.Bytes)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(doc.Bytes)
}

func (s *Server) writeChart(w http.ResponseWriter, b []byte, format string, err error) {
	if err != nil {
		writeErr(w, http.StatusInternalServerError, err)
		return
	}
	ct := "image/png"
	if format == charts.SVG {
		ct = "image/svg+xml"
	}
	w.Header().Set("Content-Type", ct)
	_, _ = w.Write(b)
}

func (s *Server) handleHeatmap(w http.ResponseWriter, r *http.Request) {
	samples, fallback, ok := s.loadSamples(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"heatmap": aggregate.Heatmap(samples, s.rankParam(r)), "fallback": fallback})
}

func (s *Server) handleDiversity(w http.ResponseWriter, r *http.Request) {
	samples, fallback, ok := s.loadSamples(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"diversity": aggregate.BetaDiversity(samples), "fallback": fallback})
}

func (s *Server) loadSamples(w http.ResponseWriter, r *http.Request) ([]aggregate.Sample, bool, bool) {
	if r.Method != http.MethodGet {
		writeErr(w, http.StatusMethodNotAllowed, fmt.Errorf("method not allowed"))
		return nil, false, false
	}
	ids := splitList(r.URL.Query().Get("job_ids"))
	if len(ids) == 0 {
		writeErr(w, http.StatusBadRequest, errors.New("job_ids is required"))
		return nil, false, false
	}
	samples := make([]aggregate.Sample, 0, len(ids))
	fallback := false
	for _, id := range ids {
		loaded, err := s.load(r.Context(), id)
		if err != nil {
			writeErr(w, statusFor(err), err)
			return nil, false, false
		}
		fallback = fallback || loaded.Fallback
		name := loaded.Job.Filename
		if name == "" {
			name = id
		}
		samples = append(samples, aggregate.Sample{Name: name, Records: records(loaded)})
	}
	return samples, fallback, true
}

// rankParam reads ?rank= as a rank name or index, defaulting to the configured rank.
func (s *Server) rankParam(r *http.Request) int {
	raw := strings.TrimSpace(r.URL.Query().Get("rank"))
	if raw == "" {
		return s.cfg.UniqueTaxaRank
	}
	if n, err := strconv.Atoi(raw); err == nil && n >= 0 {
		return n
	}
	return taxonomy.RankIndex(raw)
}

func viewQuery(r *http.Request, threshold float64) results.Query {
	q := r.URL.Query()
	minConf, _ := results.ParseNumber(q.Get("min_confidence"))
	return results.Query{
		Search:        q.Get("search"),
		Status:        q.Get("status"),
		MinConfidence: minConf,
		NovelOnly:     queryBool(r, "novel_only"),
		Threshold:     threshold,
	}
}

func queryInt(r *http.Request, key string, def int) int {
	n, err := strconv.Atoi(strings.TrimSpace(r.URL.Query().Get(key)))
	if err != nil || n < 0 {
		return def
	}
	return n
}

func queryBool(r *http.Request, key string) bool {
	b, _ := strconv.ParseBool(r.URL.Query().Get(key))
	return b
}

func splitList(raw string) []string {
	out := make([]string, 0)
	for p := range strings.SplitSeq(raw, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func chartFormat(sub string) string {
	if strings.HasSuffix(sub, ".svg") {
		return charts.SVG
	}
	return charts.PNG
}

func exportName(l datastore.Loaded, ext string) string {
	base := "taxaformer-export"
	if l.Result != nil {
		base = strings.TrimSuffix(util.ReportFileName(l.Result.Metadata.SampleName, "sequences"), ".pdf")
		base = strings.Replace(base, "taxaformer-report-", "taxaformer-", 1)
	}
	return base + "." + ext
}

func attachment(name string) string {
	return fmt.Sprintf("attachment; filename=%q", name)
}
