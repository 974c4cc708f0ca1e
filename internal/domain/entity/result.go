package entity

import "time"

// ThumbnailResult pairs a rendered thumbnail file with the analysis of the
// frame it was rendered from.
type ThumbnailResult struct {
	ThumbnailPath string
	Analysis      FrameAnalysis
}

// VideoProcessingResult is the single outcome handed back to the caller.
// It is always well formed: a failed run carries Err and an empty Thumbnails
// slice rather than propagating a panic or raw error upward.
type VideoProcessingResult struct {
	VideoID        string
	Success        bool
	Thumbnails     []ThumbnailResult
	Err            error
	ProcessingTime time.Duration
	FramesAnalyzed int
	VideoDuration  float64
}

// Primary returns the thumbnail whose source frame has the highest raw
// quality score (not the combined ranking score), or nil if none rendered.
func (r *VideoProcessingResult) Primary() *ThumbnailResult {
	if len(r.Thumbnails) == 0 {
		return nil
	}
	best := &r.Thumbnails[0]
	for i := 1; i < len(r.Thumbnails); i++ {
		if r.Thumbnails[i].Analysis.QualityScore > best.Analysis.QualityScore {
			best = &r.Thumbnails[i]
		}
	}
	return best
}
