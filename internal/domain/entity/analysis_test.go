package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCombinedScoreFormula(t *testing.T) {
	tests := []struct {
		name     string
		analysis FrameAnalysis
		want     float64
	}{
		{
			name: "mixed metrics",
			analysis: FrameAnalysis{
				QualityScore:     0.8,
				CompositionScore: 0.6,
				BrightnessScore:  0.5,
				BlurScore:        0.2,
			},
			want: 0.3*0.8 + 0.3*0.6 + 0.2*0.5 + 0.2*(1-0.2),
		},
		{
			name:     "all zero scores with max blur",
			analysis: FrameAnalysis{BlurScore: 1.0},
			want:     0,
		},
		{
			name: "perfect frame",
			analysis: FrameAnalysis{
				QualityScore:     1,
				CompositionScore: 1,
				BrightnessScore:  1,
				BlurScore:        0,
			},
			want: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, tt.analysis.CombinedScore(), 1e-12)
		})
	}
}

func TestCombinedScoreIdenticalMetricsIdenticalScore(t *testing.T) {
	a := FrameAnalysis{FrameIndex: 1, Timestamp: 2, QualityScore: 0.7, CompositionScore: 0.4, BrightnessScore: 0.9, BlurScore: 0.3}
	b := FrameAnalysis{FrameIndex: 9, Timestamp: 18, QualityScore: 0.7, CompositionScore: 0.4, BrightnessScore: 0.9, BlurScore: 0.3}
	assert.Equal(t, a.CombinedScore(), b.CombinedScore())
}
