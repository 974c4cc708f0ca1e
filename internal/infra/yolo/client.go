package yolo

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/linkhub/linkhub-thumbnail-service/internal/domain/entity"
)

// Client talks to the YOLO scoring sidecar. Failures are classified into
// the typed analyzer errors: deadline expiry, transport-level unreachability
// and non-2xx responses are distinct outcomes, so the caller's fallback
// decision never depends on error text.
type Client struct {
	baseURL string
	http    *http.Client
	timeout time.Duration
	logger  *zap.Logger
}

func NewClient(baseURL string, timeout time.Duration, logger *zap.Logger) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{},
		timeout: timeout,
		logger:  logger,
	}
}

type analyzeRequest struct {
	FramePath  string  `json:"frame_path"`
	FrameIndex int     `json:"frame_index"`
	Timestamp  float64 `json:"timestamp"`
}

type analyzeResponse struct {
	FrameIndex       int                     `json:"frame_index"`
	Timestamp        float64                 `json:"timestamp"`
	HasProduct       bool                    `json:"has_product"`
	QualityScore     float64                 `json:"quality_score"`
	BrightnessScore  float64                 `json:"brightness_score"`
	CompositionScore float64                 `json:"composition_score"`
	BlurScore        float64                 `json:"blur_score"`
	DetectedObjects  []entity.DetectedObject `json:"detected_objects"`
}

func (c *Client) AnalyzeFrame(ctx context.Context, framePath string, frameIndex int, timestamp float64) (*entity.FrameAnalysis, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	body, err := json.Marshal(analyzeRequest{
		FramePath:  framePath,
		FrameIndex: frameIndex,
		Timestamp:  timestamp,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal analyze request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/analyze", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build analyze request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, &entity.AnalyzerTimeoutError{Err: err}
		}
		return nil, &entity.AnalyzerUnreachableError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return nil, &entity.AnalyzerHTTPError{Status: resp.StatusCode, Detail: string(detail)}
	}

	var parsed analyzeResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, &entity.AnalyzerHTTPError{Status: resp.StatusCode, Detail: "unparsable response: " + err.Error()}
	}

	analysis := &entity.FrameAnalysis{
		FrameIndex:       frameIndex,
		Timestamp:        timestamp,
		QualityScore:     clamp01(parsed.QualityScore),
		BrightnessScore:  clamp01(parsed.BrightnessScore),
		CompositionScore: clamp01(parsed.CompositionScore),
		BlurScore:        clamp01(parsed.BlurScore),
		HasProduct:       parsed.HasProduct,
		DetectedObjects:  parsed.DetectedObjects,
	}
	if analysis.DetectedObjects == nil {
		analysis.DetectedObjects = []entity.DetectedObject{}
	}
	return analysis, nil
}

// Healthy hits the sidecar's liveness endpoint with a short deadline.
func (c *Client) Healthy(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return false
	}
	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Debug("scoring service health check failed", zap.Error(err))
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
