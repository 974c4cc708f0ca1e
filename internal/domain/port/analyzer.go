package port

import (
	"context"

	"github.com/linkhub/linkhub-thumbnail-service/internal/domain/entity"
)

// FrameAnalyzer scores a single frame through the external scoring service.
// Failures are reported as one of the entity.Analyzer* error types so the
// caller can decide on fallback without parsing error text.
type FrameAnalyzer interface {
	AnalyzeFrame(ctx context.Context, framePath string, frameIndex int, timestamp float64) (*entity.FrameAnalysis, error)
	Healthy(ctx context.Context) bool
}
