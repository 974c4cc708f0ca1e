package entity

import (
	"errors"
	"fmt"
)

// Pipeline error taxonomy. Fatal stage errors are wrapped into a
// PipelineFailure and carried inside the VideoProcessingResult; per-item
// errors (analysis, rendering) are recovered locally and never reach the
// caller.

// DownloadError reports a failed video acquisition.
type DownloadError struct {
	URL    string
	Output string
	Err    error
}

func (e *DownloadError) Error() string {
	return fmt.Sprintf("download %s: %v", e.URL, e.Err)
}

func (e *DownloadError) Unwrap() error { return e.Err }

// ProbeError reports an unparsable or corrupt video file.
type ProbeError struct {
	Path string
	Err  error
}

func (e *ProbeError) Error() string {
	return fmt.Sprintf("probe %s: %v", e.Path, e.Err)
}

func (e *ProbeError) Unwrap() error { return e.Err }

// ValidationError reports a video that violates the processing policy.
type ValidationError struct {
	Dimension string
	Limit     float64
	Actual    float64
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("video %s %.2f exceeds limit %.2f", e.Dimension, e.Actual, e.Limit)
}

// ExtractionError reports that frame sampling produced no frames.
type ExtractionError struct {
	Path string
	Err  error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("extract frames from %s: %v", e.Path, e.Err)
}

func (e *ExtractionError) Unwrap() error { return e.Err }

// ErrNoSuitableFrame is returned when selection yields zero candidates.
var ErrNoSuitableFrame = errors.New("no suitable frame candidates")

// RenderError reports a failed thumbnail render. It drops only the affected
// candidate; the batch continues.
type RenderError struct {
	SourcePath string
	Err        error
}

func (e *RenderError) Error() string {
	return fmt.Sprintf("render %s: %v", e.SourcePath, e.Err)
}

func (e *RenderError) Unwrap() error { return e.Err }

// Analyzer outcome variants. The oracle triggers its fallback on any of
// these; keeping them as distinct types makes that decision exhaustive and
// testable without inspecting error text.

// AnalyzerUnreachableError means the scoring service could not be reached
// at the transport level (connection refused, DNS failure, reset).
type AnalyzerUnreachableError struct {
	Err error
}

func (e *AnalyzerUnreachableError) Error() string {
	return fmt.Sprintf("analyzer unreachable: %v", e.Err)
}

func (e *AnalyzerUnreachableError) Unwrap() error { return e.Err }

// AnalyzerHTTPError means the scoring service answered with a non-success
// status.
type AnalyzerHTTPError struct {
	Status int
	Detail string
}

func (e *AnalyzerHTTPError) Error() string {
	return fmt.Sprintf("analyzer returned status %d: %s", e.Status, e.Detail)
}

// AnalyzerTimeoutError means the per-frame analysis deadline elapsed.
type AnalyzerTimeoutError struct {
	Err error
}

func (e *AnalyzerTimeoutError) Error() string {
	return fmt.Sprintf("analyzer timed out: %v", e.Err)
}

func (e *AnalyzerTimeoutError) Unwrap() error { return e.Err }

// PipelineStage identifies where a fatal failure occurred.
type PipelineStage string

const (
	StageAcquiring  PipelineStage = "acquiring"
	StageValidating PipelineStage = "validating"
	StageExtracting PipelineStage = "extracting"
	StageAnalyzing  PipelineStage = "analyzing"
	StageSelecting  PipelineStage = "selecting"
	StageRendering  PipelineStage = "rendering"
)

// PipelineFailure is the terminal error wrapping the first fatal cause.
type PipelineFailure struct {
	Stage PipelineStage
	Err   error
}

func (e *PipelineFailure) Error() string {
	return fmt.Sprintf("pipeline failed in %s stage: %v", e.Stage, e.Err)
}

func (e *PipelineFailure) Unwrap() error { return e.Err }
