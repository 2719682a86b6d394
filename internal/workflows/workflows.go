package workflows

import (
	"fmt"
	"path"
	"slices"
	"strings"
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	"taxaformer/internal/activities"
	"taxaformer/internal/util"
)

const (
	QueryGetArtifactProgress = "GetArtifactProgress"
	QueryGetBatchProgress    = "GetBatchProgress"
)

// Step names reported in ArtifactProgress.Steps.
const (
	StepFetch    = "fetch_result"
	StepReport   = "render_report"
	StepExports  = "write_exports"
	StepCharts   = "write_charts"
	StepManifest = "write_manifest"
)

const (
	statusProcessing = "processing"
	statusDone       = "done"
	statusFailed     = "failed"
	statusSkipped    = "skipped"
	statusCompleted  = "completed"
)

func ReportArtifactsWorkflow(ctx workflow.Context, input ReportArtifactsInput) (string, error) {
	progress := ArtifactProgress{
		JobID:       input.JobID,
		OutDir:      input.OutDir,
		CurrentStep: "init",
		Status:      statusProcessing,
		Steps:       map[string]string{},
		Artifacts:   []string{},
	}
	if err := workflow.SetQueryHandler(ctx, QueryGetArtifactProgress, func() (ArtifactProgress, error) {
		return progress, nil
	}); err != nil {
		return "", err
	}

	ao := workflow.ActivityOptions{
		StartToCloseTimeout: 2 * time.Minute,
		RetryPolicy:         &temporal.RetryPolicy{MaximumAttempts: 1},
	}
	ctx = workflow.WithActivityOptions(ctx, ao)
	logger := workflow.GetLogger(ctx)
	formats := normalizeFormats(input.Formats)

	begin := func(step string) {
		progress.CurrentStep = step
		progress.Steps[step] = statusProcessing
	}

	begin(StepFetch)
	fetched := activities.FetchResultOutput{JobID: input.JobID, Result: input.Result, RawSequences: input.RawSequences}
	if input.Result == nil {
		if err := workflow.ExecuteActivity(ctx, "FetchResultActivity", activities.FetchResultInput{JobID: input.JobID}).Get(ctx, &fetched); err != nil {
			progress.Steps[StepFetch] = statusFailed
			progress.Status = statusFailed
			progress.FailReason = err.Error()
			return "", err
		}
	}
	progress.Steps[StepFetch] = statusDone
	progress.Fallback = fetched.Fallback

	if fetched.Result == nil {
		progress.FailReason = "analysis result is not available yet"
		return finishFailed(ctx, &progress, formats), nil
	}

	if slices.Contains(formats, activities.FormatPDF) {
		begin(StepReport)
		var rendered activities.RenderReportOutput
		err := workflow.ExecuteActivity(ctx, "RenderReportActivity", activities.RenderReportInput{
			JobID: input.JobID, OutDir: input.OutDir, Result: fetched.Result,
		}).Get(ctx, &rendered)
		if err != nil {
			if isMissingMetadataError(err) {
				progress.Steps[StepReport] = statusFailed
				progress.FailReason = "report data has no metadata"
				return finishFailed(ctx, &progress, formats), nil
			}
			progress.Steps[StepReport] = statusFailed
			progress.Status = statusFailed
			progress.FailReason = err.Error()
			return "", err
		}
		progress.Steps[StepReport] = statusDone
		progress.Artifacts = append(progress.Artifacts, rendered.Path)
	}

	if slices.Contains(formats, activities.FormatCSV) || slices.Contains(formats, activities.FormatJSON) {
		begin(StepExports)
		var exported activities.ArtifactsOutput
		if err := workflow.ExecuteActivity(ctx, "WriteExportsActivity", activities.WriteExportsInput{
			JobID: input.JobID, OutDir: input.OutDir, Formats: formats,
			Result: *fetched.Result, RawSequences: fetched.RawSequences,
		}).Get(ctx, &exported); err != nil {
			return fail(&progress, StepExports, err)
		}
		progress.Steps[StepExports] = statusDone
		progress.Artifacts = append(progress.Artifacts, exported.Paths...)
	}

	if slices.Contains(formats, activities.FormatPNG) {
		begin(StepCharts)
		var drawn activities.ArtifactsOutput
		if err := workflow.ExecuteActivity(ctx, "WriteChartsActivity", activities.WriteChartsInput{
			JobID: input.JobID, OutDir: input.OutDir, Result: *fetched.Result,
		}).Get(ctx, &drawn); err != nil {
			return fail(&progress, StepCharts, err)
		}
		progress.Steps[StepCharts] = statusDone
		progress.Artifacts = append(progress.Artifacts, drawn.Paths...)
	}

	progress.Status = statusCompleted
	writeManifest(ctx, &progress, formats)
	logger.Info("report artifacts written", "job_id", input.JobID, "artifacts", len(progress.Artifacts), "fallback", progress.Fallback)
	return progress.Status, nil
}

// ReportBatchWorkflow runs one ReportArtifactsWorkflow child per job, a bounded number at a time.
func ReportBatchWorkflow(ctx workflow.Context, input ReportBatchInput) (string, error) {
	progress := BatchProgress{
		Total:         len(input.JobIDs),
		PerJob:        map[string]string{},
		ChildWorkflow: map[string]string{},
	}
	if err := workflow.SetQueryHandler(ctx, QueryGetBatchProgress, func() (BatchProgress, error) {
		return progress, nil
	}); err != nil {
		return "", err
	}
	maxChildren := input.MaxConcurrentChildren
	if maxChildren <= 0 {
		maxChildren = 3
	}
	parentID := workflow.GetInfo(ctx).WorkflowExecution.ID

	for i := 0; i < len(input.JobIDs); i += maxChildren {
		end := min(i+maxChildren, len(input.JobIDs))
		futures := make([]workflow.ChildWorkflowFuture, 0, end-i)
		batch := input.JobIDs[i:end]
		for _, jobID := range batch {
			progress.PerJob[jobID] = statusProcessing
			workflowID := parentID + "-" + sanitizeID(jobID)
			childCtx := workflow.WithChildOptions(ctx, workflow.ChildWorkflowOptions{WorkflowID: workflowID})
			outDir := ""
			if input.OutRoot != "" {
				outDir = path.Join(input.OutRoot, sanitizeID(jobID))
			}
			futures = append(futures, workflow.ExecuteChildWorkflow(childCtx, ReportArtifactsWorkflow, ReportArtifactsInput{
				JobID: jobID, OutDir: outDir, Formats: input.Formats,
			}))
			progress.ChildWorkflow[jobID] = workflowID
		}
		for idx, f := range futures {
			var childStatus string
			jobID := batch[idx]
			if err := f.Get(ctx, &childStatus); err != nil {
				progress.Failed++
				progress.PerJob[jobID] = statusFailed
				continue
			}
			if childStatus == statusFailed {
				progress.Failed++
			}
			progress.Done++
			progress.PerJob[jobID] = childStatus
		}
	}
	workflow.GetLogger(ctx).Info("report batch finished", "total", progress.Total, "done", progress.Done, "failed", progress.Failed)
	return statusCompleted, nil
}

func fail(progress *ArtifactProgress, step string, err error) (string, error) {
	progress.Steps[step] = statusFailed
	progress.Status = statusFailed
	progress.FailReason = err.Error()
	return "", fmt.Errorf("%s: %w", step, err)
}

// finishFailed marks the run failed without failing the workflow; remaining steps are skipped.
func finishFailed(ctx workflow.Context, progress *ArtifactProgress, formats []string) string {
	for _, step := range []string{StepReport, StepExports, StepCharts} {
		if _, ok := progress.Steps[step]; !ok {
			progress.Steps[step] = statusSkipped
		}
	}
	progress.Status = statusFailed
	writeManifest(ctx, progress, formats)
	workflow.GetLogger(ctx).Warn("report artifacts failed", "job_id", progress.JobID, "reason", progress.FailReason)
	return progress.Status
}

func writeManifest(ctx workflow.Context, progress *ArtifactProgress, formats []string) {
	progress.CurrentStep = StepManifest
	progress.Steps[StepManifest] = statusProcessing
	manifest := map[string]any{
		"job_id":       progress.JobID,
		"status":       progress.Status,
		"fail_reason":  progress.FailReason,
		"fallback":     progress.Fallback,
		"formats":      formats,
		"artifacts":    progress.Artifacts,
		"steps":        progress.Steps,
		"generated_at": workflow.Now(ctx),
	}
	var out activities.WriteManifestOutput
	err := workflow.ExecuteActivity(ctx, "WriteManifestActivity", activities.WriteManifestInput{
		JobID: progress.JobID, OutDir: progress.OutDir, Manifest: manifest,
	}).Get(ctx, &out)
	if err != nil {
		progress.Steps[StepManifest] = statusFailed
		return
	}
	progress.Steps[StepManifest] = statusDone
	progress.Artifacts = append(progress.Artifacts, out.Path)
}

func normalizeFormats(in []string) []string {
	out := make([]string, 0, len(activities.AllFormats))
	for _, f := range in {
		f = strings.ToLower(strings.TrimSpace(f))
		if slices.Contains(activities.AllFormats, f) && !slices.Contains(out, f) {
			out = append(out, f)
		}
	}
	if len(out) == 0 {
		return slices.Clone(activities.AllFormats)
	}
	return out
}

func isMissingMetadataError(err error) bool {
	return err != nil && strings.Contains(err.Error(), util.ErrMissingMetadata.Error())
}

func sanitizeID(s string) string {
	s = strings.ToLower(s)
	s = strings.ReplaceAll(s, "_", "-")
	s = strings.ReplaceAll(s, ".", "-")
	s = strings.ReplaceAll(s, "/", "-")
	return s
}
