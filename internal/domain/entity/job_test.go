package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewThumbnailJob(t *testing.T) {
	job := NewThumbnailJob("vid123", "https://example.com/v.mp4", 3)

	assert.NotEqual(t, "00000000-0000-0000-0000-000000000000", job.ID.String())
	assert.Equal(t, JobStatusPending, job.Status)
	assert.Zero(t, job.Attempt)
	assert.Equal(t, 3, job.MaxAttempts)
	assert.True(t, job.CanRetry())
	assert.Nil(t, job.CompletedAt)
}

func TestJobLifecycle(t *testing.T) {
	job := NewThumbnailJob("vid123", "https://example.com/v.mp4", 3)

	job.MarkProcessing()
	assert.Equal(t, JobStatusProcessing, job.Status)
	assert.Equal(t, 1, job.Attempt)

	job.MarkCompleted("thumbnails/vid123/0.jpg", 3, 20, 34.5)
	assert.Equal(t, JobStatusCompleted, job.Status)
	assert.Equal(t, "thumbnails/vid123/0.jpg", job.PrimaryKey)
	assert.Equal(t, 3, job.ThumbnailCount)
	assert.Equal(t, 20, job.FramesAnalyzed)
	assert.Equal(t, 34.5, job.VideoDuration)
	require.NotNil(t, job.CompletedAt)
}

func TestJobRetryExhaustion(t *testing.T) {
	job := NewThumbnailJob("vid123", "https://example.com/v.mp4", 2)

	job.MarkProcessing()
	job.MarkFailed("download failed")
	assert.Equal(t, JobStatusFailed, job.Status)
	assert.Equal(t, "download failed", job.ErrorMessage)
	assert.True(t, job.CanRetry())

	job.MarkProcessing()
	job.MarkFailed("download failed")
	assert.False(t, job.CanRetry())
}
