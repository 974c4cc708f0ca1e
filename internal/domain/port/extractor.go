package port

import "context"

// ExtractedFrame is one sampled still image. Index is the ordinal of the
// frame in the sampling sequence (0-based), so Timestamp = Index * interval
// holds even after downsampling thins the list.
type ExtractedFrame struct {
	Path      string
	Index     int
	Timestamp float64
}

type FrameExtractionResult struct {
	Frames []ExtractedFrame
}

// FrameExtractor samples frames from a video at a fixed time interval.
// Frames are returned in temporal order.
type FrameExtractor interface {
	ExtractFrames(ctx context.Context, videoPath string, outputDir string) (*FrameExtractionResult, error)
}
