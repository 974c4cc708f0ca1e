package usecase

import (
	"math"
	"sort"

	"github.com/linkhub/linkhub-thumbnail-service/internal/domain/entity"
)

// selectFrames ranks analyses by combined score and greedily picks up to
// count frames that are at least minGap seconds apart. Ties rank in
// extraction order (the input is in frame-index order and the sort is
// stable; the first acceptance is exempt from the gap check). If the gap
// constraint leaves the selection short, backfill re-walks the ranking
// with the gap progressively halved, relaxing spacing only as far as
// needed, and finally appends next-best frames unconditionally. Temporal
// diversity is a preference, not a requirement. The returned frames are in
// acceptance order.
func selectFrames(analyses []entity.FrameAnalysis, count int, minGap float64) []entity.FrameAnalysis {
	if len(analyses) == 0 || count <= 0 {
		return nil
	}

	ranked := make([]entity.FrameAnalysis, len(analyses))
	copy(ranked, analyses)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].CombinedScore() > ranked[j].CombinedScore()
	})

	selected := make([]entity.FrameAnalysis, 0, count)
	picked := make(map[int]bool, count)

	accept := func(gap float64) {
		for _, f := range ranked {
			if len(selected) >= count {
				return
			}
			if picked[f.FrameIndex] {
				continue
			}
			if len(selected) > 0 && !farEnough(f.Timestamp, selected, gap) {
				continue
			}
			selected = append(selected, f)
			picked[f.FrameIndex] = true
		}
	}

	accept(minGap)
	for gap := minGap / 2; len(selected) < count && gap >= 0.01; gap /= 2 {
		accept(gap)
	}
	accept(0)

	return selected
}

func farEnough(ts float64, selected []entity.FrameAnalysis, minGap float64) bool {
	for _, s := range selected {
		if math.Abs(ts-s.Timestamp) < minGap {
			return false
		}
	}
	return true
}
