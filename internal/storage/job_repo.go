package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"taxaformer/internal/models"
	"taxaformer/internal/util"
)

// JobRepo reads the analysis_jobs table written by the classification backend.
type JobRepo struct {
	db *DB
}

func NewJobRepo(db *DB) *JobRepo {
	return &JobRepo{db: db}
}

// ListJobs returns the newest jobs first, without their result payloads.
func (r *JobRepo) ListJobs(ctx context.Context, limit int) ([]models.JobRow, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.db.Pool.Query(ctx, `
SELECT id::text, COALESCE(filename,''), COALESCE(total_sequences, 0), created_at
FROM analysis_jobs
ORDER BY created_at DESC
LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}
	defer rows.Close()

	out := make([]models.JobRow, 0)
	for rows.Next() {
		var j models.JobRow
		if err := rows.Scan(&j.JobID, &j.Filename, &j.TotalSequences, &j.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan job: %w", err)
		}
		out = append(out, j)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate jobs: %w", err)
	}
	return out, nil
}

// GetJob returns one job with its raw result. A missing row is util.ErrNotFound.
func (r *JobRepo) GetJob(ctx context.Context, jobID string) (models.JobRow, error) {
	var (
		j      models.JobRow
		result []byte
	)
	err := r.db.Pool.QueryRow(ctx, `
SELECT id::text, COALESCE(filename,''), COALESCE(total_sequences, 0), created_at, analysis_result
FROM analysis_jobs
WHERE id::text = $1`, jobID).Scan(&j.JobID, &j.Filename, &j.TotalSequences, &j.CreatedAt, &result)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.JobRow{}, fmt.Errorf("job %s: %w", jobID, util.ErrNotFound)
	}
	if err != nil {
		return models.JobRow{}, fmt.Errorf("get job: %w", err)
	}
	j.Result = result
	return j, nil
}
