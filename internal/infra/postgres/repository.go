package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/linkhub/linkhub-thumbnail-service/internal/domain/entity"
)

type JobRepository struct {
	pool *pgxpool.Pool
}

func NewJobRepository(pool *pgxpool.Pool) *JobRepository {
	return &JobRepository{pool: pool}
}

func (r *JobRepository) Create(ctx context.Context, job *entity.ThumbnailJob) error {
	query := `
		INSERT INTO thumbnail_jobs (
			id, video_id, video_url, status, frames_analyzed,
			thumbnail_count, primary_key, video_duration, attempt,
			max_attempts, error_message, created_at, updated_at, completed_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)`

	_, err := r.pool.Exec(ctx, query,
		job.ID, job.VideoID, job.VideoURL, string(job.Status), job.FramesAnalyzed,
		job.ThumbnailCount, job.PrimaryKey, job.VideoDuration, job.Attempt,
		job.MaxAttempts, job.ErrorMessage, job.CreatedAt, job.UpdatedAt, job.CompletedAt,
	)
	if err != nil {
		return fmt.Errorf("insert job: %w", err)
	}
	return nil
}

func (r *JobRepository) Update(ctx context.Context, job *entity.ThumbnailJob) error {
	query := `
		UPDATE thumbnail_jobs SET
			status=$2, frames_analyzed=$3, thumbnail_count=$4, primary_key=$5,
			video_duration=$6, attempt=$7, error_message=$8, updated_at=$9,
			completed_at=$10
		WHERE id=$1`

	_, err := r.pool.Exec(ctx, query,
		job.ID, string(job.Status), job.FramesAnalyzed, job.ThumbnailCount,
		job.PrimaryKey, job.VideoDuration, job.Attempt, job.ErrorMessage,
		job.UpdatedAt, job.CompletedAt,
	)
	if err != nil {
		return fmt.Errorf("update job: %w", err)
	}
	return nil
}

func (r *JobRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.ThumbnailJob, error) {
	query := `
		SELECT id, video_id, video_url, status, frames_analyzed,
			thumbnail_count, primary_key, video_duration, attempt,
			max_attempts, error_message, created_at, updated_at, completed_at
		FROM thumbnail_jobs WHERE id=$1`

	job := &entity.ThumbnailJob{}
	var status string
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&job.ID, &job.VideoID, &job.VideoURL, &status, &job.FramesAnalyzed,
		&job.ThumbnailCount, &job.PrimaryKey, &job.VideoDuration, &job.Attempt,
		&job.MaxAttempts, &job.ErrorMessage, &job.CreatedAt, &job.UpdatedAt, &job.CompletedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("find job by id: %w", err)
	}
	job.Status = entity.JobStatus(status)
	return job, nil
}
