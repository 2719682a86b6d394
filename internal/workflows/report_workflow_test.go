package workflows

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/testsuite"

	"taxaformer/internal/activities"
	"taxaformer/internal/models"
)

func registerActivityName[T any](env *testsuite.TestWorkflowEnvironment, name string, fn T) {
	env.RegisterActivityWithOptions(fn, activity.RegisterOptions{Name: name})
}

func registerAll(env *testsuite.TestWorkflowEnvironment) {
	registerActivityName(env, "FetchResultActivity", func(context.Context, activities.FetchResultInput) (activities.FetchResultOutput, error) {
		return activities.FetchResultOutput{}, nil
	})
	registerActivityName(env, "RenderReportActivity", func(context.Context, activities.RenderReportInput) (activities.RenderReportOutput, error) {
		return activities.RenderReportOutput{}, nil
	})
	registerActivityName(env, "WriteExportsActivity", func(context.Context, activities.WriteExportsInput) (activities.ArtifactsOutput, error) {
		return activities.ArtifactsOutput{}, nil
	})
	registerActivityName(env, "WriteChartsActivity", func(context.Context, activities.WriteChartsInput) (activities.ArtifactsOutput, error) {
		return activities.ArtifactsOutput{}, nil
	})
	registerActivityName(env, "WriteManifestActivity", func(context.Context, activities.WriteManifestInput) (activities.WriteManifestOutput, error) {
		return activities.WriteManifestOutput{}, nil
	})
}

func sampleResult() *models.AnalysisResult {
	return &models.AnalysisResult{
		Metadata:  models.ResultMetadata{SampleName: "reef.fasta", TotalSequences: 1},
		Sequences: []models.SequenceRecord{{Accession: "A", Taxonomy: "E;Fungi", Confidence: 0.9}},
	}
}

func queryProgress(t *testing.T, env *testsuite.TestWorkflowEnvironment) ArtifactProgress {
	t.Helper()
	val, err := env.QueryWorkflow(QueryGetArtifactProgress)
	require.NoError(t, err)
	var p ArtifactProgress
	require.NoError(t, val.Get(&p))
	return p
}

func TestReportArtifactsWorkflowSuccess(t *testing.T) {
	var ts testsuite.WorkflowTestSuite
	env := ts.NewTestWorkflowEnvironment()
	env.RegisterWorkflow(ReportArtifactsWorkflow)
	registerAll(env)

	env.OnActivity("FetchResultActivity", mock.Anything, activities.FetchResultInput{JobID: "j1"}).Return(activities.FetchResultOutput{JobID: "j1", Result: sampleResult()}, nil)
	env.OnActivity("RenderReportActivity", mock.Anything, mock.Anything).Return(activities.RenderReportOutput{Path: "/out/report.pdf", Pages: 6}, nil)
	env.OnActivity("WriteExportsActivity", mock.Anything, mock.Anything).Return(activities.ArtifactsOutput{Paths: []string{"/out/sequences.csv", "/out/sequences.json"}}, nil)
	env.OnActivity("WriteChartsActivity", mock.Anything, mock.Anything).Return(activities.ArtifactsOutput{Paths: []string{"/out/composition.png"}}, nil)
	env.OnActivity("WriteManifestActivity", mock.Anything, mock.Anything).Return(activities.WriteManifestOutput{Path: "/out/manifest.json"}, nil)

	env.ExecuteWorkflow(ReportArtifactsWorkflow, ReportArtifactsInput{JobID: "j1", OutDir: "/out"})
	require.True(t, env.IsWorkflowCompleted())
	require.NoError(t, env.GetWorkflowError())

	var out string
	require.NoError(t, env.GetWorkflowResult(&out))
	require.Equal(t, "completed", out)

	p := queryProgress(t, env)
	require.Equal(t, "completed", p.Status)
	require.Equal(t, []string{"/out/report.pdf", "/out/sequences.csv", "/out/sequences.json", "/out/composition.png", "/out/manifest.json"}, p.Artifacts)
	for _, step := range []string{StepFetch, StepReport, StepExports, StepCharts, StepManifest} {
		require.Equal(t, "done", p.Steps[step], step)
	}
}

func TestReportArtifactsWorkflowMissingMetadataFailsGracefully(t *testing.T) {
	var ts testsuite.WorkflowTestSuite
	env := ts.NewTestWorkflowEnvironment()
	env.RegisterWorkflow(ReportArtifactsWorkflow)
	registerAll(env)

	env.OnActivity("FetchResultActivity", mock.Anything, mock.Anything).Return(activities.FetchResultOutput{JobID: "j1", Result: sampleResult()}, nil)
	env.OnActivity("RenderReportActivity", mock.Anything, mock.Anything).Return(activities.RenderReportOutput{}, errors.New("generate report: report data has no metadata"))
	env.OnActivity("WriteManifestActivity", mock.Anything, mock.Anything).Return(activities.WriteManifestOutput{Path: "/out/manifest.json"}, nil)

	env.ExecuteWorkflow(ReportArtifactsWorkflow, ReportArtifactsInput{JobID: "j1", OutDir: "/out"})
	require.True(t, env.IsWorkflowCompleted())
	require.NoError(t, env.GetWorkflowError())

	var out string
	require.NoError(t, env.GetWorkflowResult(&out))
	require.Equal(t, "failed", out)

	p := queryProgress(t, env)
	require.Equal(t, "failed", p.Steps[StepReport])
	require.Equal(t, "skipped", p.Steps[StepExports])
	require.Equal(t, "skipped", p.Steps[StepCharts])
	require.Equal(t, "done", p.Steps[StepManifest])
}

func TestReportArtifactsWorkflowPendingJob(t *testing.T) {
	var ts testsuite.WorkflowTestSuite
	env := ts.NewTestWorkflowEnvironment()
	env.RegisterWorkflow(ReportArtifactsWorkflow)
	registerAll(env)

	env.OnActivity("FetchResultActivity", mock.Anything, mock.Anything).Return(activities.FetchResultOutput{JobID: "j1"}, nil)
	env.OnActivity("WriteManifestActivity", mock.Anything, mock.Anything).Return(activities.WriteManifestOutput{}, nil)

	env.ExecuteWorkflow(ReportArtifactsWorkflow, ReportArtifactsInput{JobID: "j1", Formats: []string{"csv"}})
	require.NoError(t, env.GetWorkflowError())
	var out string
	require.NoError(t, env.GetWorkflowResult(&out))
	require.Equal(t, "failed", out)
}

func TestReportArtifactsWorkflowOnlyRequestedFormats(t *testing.T) {
	var ts testsuite.WorkflowTestSuite
	env := ts.NewTestWorkflowEnvironment()
	env.RegisterWorkflow(ReportArtifactsWorkflow)
	registerAll(env)

	env.OnActivity("FetchResultActivity", mock.Anything, mock.Anything).Return(activities.FetchResultOutput{JobID: "j1", Result: sampleResult()}, nil)
	env.OnActivity("WriteExportsActivity", mock.Anything, mock.Anything).Return(activities.ArtifactsOutput{Paths: []string{"/out/sequences.json"}}, nil)
	env.OnActivity("WriteManifestActivity", mock.Anything, mock.Anything).Return(activities.WriteManifestOutput{Path: "/out/manifest.json"}, nil)

	env.ExecuteWorkflow(ReportArtifactsWorkflow, ReportArtifactsInput{JobID: "j1", OutDir: "/out", Formats: []string{" JSON ", "gif"}})
	require.NoError(t, env.GetWorkflowError())
	p := queryProgress(t, env)
	require.Equal(t, []string{"/out/sequences.json", "/out/manifest.json"}, p.Artifacts)
	_, rendered := p.Steps[StepReport]
	require.False(t, rendered)
}

func TestReportBatchWorkflowCountsChildren(t *testing.T) {
	var ts testsuite.WorkflowTestSuite
	env := ts.NewTestWorkflowEnvironment()
	env.RegisterWorkflow(ReportBatchWorkflow)
	env.RegisterWorkflow(ReportArtifactsWorkflow)
	registerAll(env)

	env.OnActivity("FetchResultActivity", mock.Anything, activities.FetchResultInput{JobID: "ok"}).Return(activities.FetchResultOutput{JobID: "ok", Result: sampleResult()}, nil)
	env.OnActivity("FetchResultActivity", mock.Anything, activities.FetchResultInput{JobID: "pending"}).Return(activities.FetchResultOutput{JobID: "pending"}, nil)
	env.OnActivity("FetchResultActivity", mock.Anything, activities.FetchResultInput{JobID: "gone"}).Return(activities.FetchResultOutput{}, errors.New("job gone: not found"))
	env.OnActivity("WriteExportsActivity", mock.Anything, mock.Anything).Return(activities.ArtifactsOutput{}, nil)
	env.OnActivity("WriteManifestActivity", mock.Anything, mock.Anything).Return(activities.WriteManifestOutput{}, nil)

	env.ExecuteWorkflow(ReportBatchWorkflow, ReportBatchInput{JobIDs: []string{"ok", "pending", "gone"}, Formats: []string{"csv"}, MaxConcurrentChildren: 2})
	require.True(t, env.IsWorkflowCompleted())
	require.NoError(t, env.GetWorkflowError())

	val, err := env.QueryWorkflow(QueryGetBatchProgress)
	require.NoError(t, err)
	var p BatchProgress
	require.NoError(t, val.Get(&p))
	require.Equal(t, 3, p.Total)
	require.Equal(t, 2, p.Done)
	require.Equal(t, 2, p.Failed)
	require.Equal(t, "completed", p.PerJob["ok"])
	require.Equal(t, "failed", p.PerJob["pending"])
	require.Equal(t, "failed", p.PerJob["gone"])
}

func TestReportArtifactsWorkflowUsesSuppliedResult(t *testing.T) {
	var ts testsuite.WorkflowTestSuite
	env := ts.NewTestWorkflowEnvironment()
	env.RegisterWorkflow(ReportArtifactsWorkflow)
	registerAll(env)

	raw := []byte(`[{"sequence_id":"A"}]`)
	env.OnActivity("FetchResultActivity", mock.Anything, mock.Anything).Return(activities.FetchResultOutput{}, errors.New("job local-1: not found"))
	env.OnActivity("WriteExportsActivity", mock.Anything, mock.MatchedBy(func(in activities.WriteExportsInput) bool {
		return string(in.RawSequences) == string(raw) && in.Result.Metadata.SampleName == "reef.fasta"
	})).Return(activities.ArtifactsOutput{Paths: []string{"/out/sequences.json"}}, nil)
	env.OnActivity("WriteManifestActivity", mock.Anything, mock.Anything).Return(activities.WriteManifestOutput{Path: "/out/manifest.json"}, nil)

	env.ExecuteWorkflow(ReportArtifactsWorkflow, ReportArtifactsInput{
		JobID: "local-1", OutDir: "/out", Formats: []string{"json"}, Result: sampleResult(), RawSequences: raw,
	})
	require.True(t, env.IsWorkflowCompleted())
	require.NoError(t, env.GetWorkflowError())

	p := queryProgress(t, env)
	require.Equal(t, "completed", p.Status)
	require.Equal(t, "done", p.Steps[StepFetch])
	require.Equal(t, []string{"/out/sequences.json", "/out/manifest.json"}, p.Artifacts)
}
