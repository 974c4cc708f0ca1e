package entity

// BoundingBox is a normalized box (all coordinates in [0,1] of image size).
type BoundingBox struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// DetectedObject is a single detection reported by the scoring service.
type DetectedObject struct {
	ClassName  string      `json:"class_name"`
	Confidence float64     `json:"confidence"`
	BBox       BoundingBox `json:"bbox"`
}

// FrameAnalysis holds the per-frame metrics used to rank extracted frames.
// All score fields are in [0,1]; BlurScore is the only one where lower is
// better. Instances are immutable once produced, whether they came from the
// scoring service or from the local fallback.
type FrameAnalysis struct {
	FrameIndex       int              `json:"frame_index"`
	Timestamp        float64          `json:"timestamp"`
	QualityScore     float64          `json:"quality_score"`
	BrightnessScore  float64          `json:"brightness_score"`
	CompositionScore float64          `json:"composition_score"`
	BlurScore        float64          `json:"blur_score"`
	HasProduct       bool             `json:"has_product"`
	DetectedObjects  []DetectedObject `json:"detected_objects"`
}

// Ranking weights for CombinedScore.
const (
	weightQuality     = 0.3
	weightComposition = 0.3
	weightBrightness  = 0.2
	weightSharpness   = 0.2
)

// CombinedScore is the weighted composite used to rank frames:
// 0.3*quality + 0.3*composition + 0.2*brightness + 0.2*(1-blur).
func (a FrameAnalysis) CombinedScore() float64 {
	return weightQuality*a.QualityScore +
		weightComposition*a.CompositionScore +
		weightBrightness*a.BrightnessScore +
		weightSharpness*(1.0-a.BlurScore)
}
