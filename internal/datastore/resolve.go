package datastore

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"taxaformer/internal/backend"
	"taxaformer/internal/models"
	"taxaformer/internal/results"
	"taxaformer/internal/util"
)

// Loaded is a job together with its normalized result. Result is nil while the
// job has no stored analysis.
type Loaded struct {
	Job      models.JobRow
	Result   *models.AnalysisResult
	Fallback bool
}

// Resolve reads and normalizes one job. A missing job is util.ErrNotFound; any other
// datastore failure yields the sample result flagged as a fallback.
func Resolve(ctx context.Context, src JobSource, jobID string) (Loaded, error) {
	jobID = strings.TrimSpace(jobID)
	if jobID == "" {
		return Loaded{}, fmt.Errorf("job id is required: %w", util.ErrNotFound)
	}
	if src == nil {
		return sample(jobID), nil
	}
	job, err := src.GetJob(ctx, jobID)
	if errors.Is(err, util.ErrNotFound) {
		return Loaded{}, err
	}
	if err != nil {
		if ctx.Err() != nil {
			return Loaded{}, ctx.Err()
		}
		return sample(jobID), nil
	}
	out := Loaded{Job: job}
	if len(job.Result) == 0 {
		return out, nil
	}
	res, err := results.Normalize(job.Result)
	if err != nil {
		return Loaded{}, fmt.Errorf("job %s: %w", jobID, err)
	}
	if res.Metadata.SampleName == "Unknown Sample" && job.Filename != "" {
		res.Metadata.SampleName = job.Filename
	}
	out.Result = &res
	return out, nil
}

func sample(jobID string) Loaded {
	res := backend.SampleResult("sample_data.fasta", 0)
	return Loaded{
		Job: models.JobRow{
			JobID:          jobID,
			Filename:       res.Metadata.SampleName,
			TotalSequences: res.Metadata.TotalSequences,
		},
		Result:   &res,
		Fallback: true,
	}
}
