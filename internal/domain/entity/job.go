package entity

import (
	"time"

	"github.com/google/uuid"
)

type JobStatus string

const (
	JobStatusPending    JobStatus = "PENDING"
	JobStatusProcessing JobStatus = "PROCESSING"
	JobStatusCompleted  JobStatus = "COMPLETED"
	JobStatusFailed     JobStatus = "FAILED"
)

// ThumbnailJob tracks one video through the thumbnail pipeline.
type ThumbnailJob struct {
	ID             uuid.UUID
	VideoID        string
	VideoURL       string
	Status         JobStatus
	FramesAnalyzed int
	ThumbnailCount int
	PrimaryKey     string
	VideoDuration  float64
	Attempt        int
	MaxAttempts    int
	ErrorMessage   string
	CreatedAt      time.Time
	UpdatedAt      time.Time
	CompletedAt    *time.Time
}

func NewThumbnailJob(videoID, videoURL string, maxAttempts int) *ThumbnailJob {
	now := time.Now().UTC()
	return &ThumbnailJob{
		ID:          uuid.New(),
		VideoID:     videoID,
		VideoURL:    videoURL,
		Status:      JobStatusPending,
		Attempt:     0,
		MaxAttempts: maxAttempts,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

func (j *ThumbnailJob) MarkProcessing() {
	j.Status = JobStatusProcessing
	j.Attempt++
	j.UpdatedAt = time.Now().UTC()
}

func (j *ThumbnailJob) MarkCompleted(primaryKey string, thumbnailCount, framesAnalyzed int, duration float64) {
	now := time.Now().UTC()
	j.Status = JobStatusCompleted
	j.PrimaryKey = primaryKey
	j.ThumbnailCount = thumbnailCount
	j.FramesAnalyzed = framesAnalyzed
	j.VideoDuration = duration
	j.UpdatedAt = now
	j.CompletedAt = &now
}

func (j *ThumbnailJob) MarkFailed(errMsg string) {
	j.Status = JobStatusFailed
	j.ErrorMessage = errMsg
	j.UpdatedAt = time.Now().UTC()
}

func (j *ThumbnailJob) CanRetry() bool {
	return j.Attempt < j.MaxAttempts
}
