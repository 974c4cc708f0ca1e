package port

import "context"

type VideoMetadata struct {
	DurationSeconds float64
	SizeBytes       int64
	ContainerFormat string
}

// VideoProber extracts container metadata from a downloaded file.
type VideoProber interface {
	Probe(ctx context.Context, videoPath string) (*VideoMetadata, error)
}
