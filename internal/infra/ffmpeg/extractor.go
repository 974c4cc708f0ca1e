package ffmpeg

import (
	"context"
	"fmt"
	"os/exec"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/linkhub/linkhub-thumbnail-service/internal/domain/entity"
	"github.com/linkhub/linkhub-thumbnail-service/internal/domain/port"
)

type Extractor struct {
	intervalSeconds int
	maxFrames       int
	logger          *zap.Logger
}

func NewExtractor(intervalSeconds, maxFrames int, logger *zap.Logger) *Extractor {
	return &Extractor{intervalSeconds: intervalSeconds, maxFrames: maxFrames, logger: logger}
}

// ExtractFrames samples one frame every interval seconds into
// frame_%04d.jpg, so lexical order equals temporal order. When the video
// yields more than maxFrames frames, the list is thinned by a stride so the
// kept frames stay spread across the whole timeline instead of clustering
// at the start.
func (e *Extractor) ExtractFrames(ctx context.Context, videoPath string, outputDir string) (*port.FrameExtractionResult, error) {
	framePattern := filepath.Join(outputDir, "frame_%04d.jpg")
	cmd := exec.CommandContext(ctx, "ffmpeg",
		"-i", videoPath,
		"-vf", fmt.Sprintf("fps=1/%d", e.intervalSeconds),
		"-y",
		framePattern,
	)

	output, err := cmd.CombinedOutput()
	if err != nil {
		return nil, &entity.ExtractionError{Path: videoPath, Err: fmt.Errorf("ffmpeg: %w, output: %s", err, string(output))}
	}

	paths, err := filepath.Glob(filepath.Join(outputDir, "frame_*.jpg"))
	if err != nil {
		return nil, &entity.ExtractionError{Path: videoPath, Err: fmt.Errorf("glob frames: %w", err)}
	}
	if len(paths) == 0 {
		return nil, &entity.ExtractionError{Path: videoPath, Err: fmt.Errorf("no frames extracted")}
	}
	sort.Strings(paths)

	frames := make([]port.ExtractedFrame, 0, len(paths))
	for _, p := range paths {
		idx, err := frameIndexFromName(p)
		if err != nil {
			return nil, &entity.ExtractionError{Path: videoPath, Err: err}
		}
		frames = append(frames, port.ExtractedFrame{
			Path:      p,
			Index:     idx,
			Timestamp: float64(idx * e.intervalSeconds),
		})
	}

	kept := downsampleFrames(frames, e.maxFrames)

	e.logger.Info("frames extracted",
		zap.Int("extracted", len(frames)),
		zap.Int("kept", len(kept)),
		zap.Int("interval_secs", e.intervalSeconds),
	)
	return &port.FrameExtractionResult{Frames: kept}, nil
}

// frameIndexFromName recovers the 0-based sampling ordinal from a
// frame_%04d.jpg name (ffmpeg numbers from 1).
func frameIndexFromName(path string) (int, error) {
	base := filepath.Base(path)
	numPart := strings.TrimSuffix(strings.TrimPrefix(base, "frame_"), ".jpg")
	n, err := strconv.Atoi(numPart)
	if err != nil {
		return 0, fmt.Errorf("unexpected frame name %q: %w", base, err)
	}
	return n - 1, nil
}

// downsampleFrames keeps at most max frames by walking the list with a
// stride of len/max. Truncating from the front would bias the selection
// toward the opening seconds of the video.
func downsampleFrames(frames []port.ExtractedFrame, max int) []port.ExtractedFrame {
	if max <= 0 || len(frames) <= max {
		return frames
	}
	stride := len(frames) / max
	kept := make([]port.ExtractedFrame, 0, max)
	for i := 0; i < len(frames) && len(kept) < max; i += stride {
		kept = append(kept, frames[i])
	}
	return kept
}
