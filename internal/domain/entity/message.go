package entity

import "github.com/google/uuid"

// ThumbnailRequestMessage is the inbound message from the thumbnail.request queue.
type ThumbnailRequestMessage struct {
	JobID     uuid.UUID `json:"job_id"`
	VideoID   string    `json:"video_id"`
	VideoURL  string    `json:"video_url"`
	UserEmail string    `json:"user_email,omitempty"`
}

// ThumbnailStatusMessage is the outbound message published to the thumbnail.status queue.
type ThumbnailStatusMessage struct {
	JobID          uuid.UUID `json:"job_id"`
	VideoID        string    `json:"video_id"`
	Status         JobStatus `json:"status"`
	ThumbnailKeys  []string  `json:"thumbnail_keys,omitempty"`
	PrimaryKey     string    `json:"primary_key,omitempty"`
	FramesAnalyzed int       `json:"frames_analyzed,omitempty"`
	Duration       float64   `json:"duration_seconds,omitempty"`
	ErrorMessage   string    `json:"error_message,omitempty"`
	Attempt        int       `json:"attempt"`
	MaxAttempts    int       `json:"max_attempts"`
}
