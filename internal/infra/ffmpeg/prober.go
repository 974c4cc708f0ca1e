package ffmpeg

import (
	"context"
	"encoding/json"
	"os"
	"os/exec"
	"strconv"

	"go.uber.org/zap"

	"github.com/linkhub/linkhub-thumbnail-service/internal/domain/entity"
	"github.com/linkhub/linkhub-thumbnail-service/internal/domain/port"
)

type Prober struct {
	ffprobePath string
	logger      *zap.Logger
}

func NewProber(logger *zap.Logger) *Prober {
	return &Prober{ffprobePath: "ffprobe", logger: logger}
}

func (p *Prober) Probe(ctx context.Context, videoPath string) (*port.VideoMetadata, error) {
	cmd := exec.CommandContext(ctx, p.ffprobePath,
		"-v", "quiet",
		"-print_format", "json",
		"-show_format",
		"-show_streams",
		videoPath,
	)

	output, err := cmd.CombinedOutput()
	if err != nil {
		return nil, &entity.ProbeError{Path: videoPath, Err: err}
	}

	meta, err := parseProbeOutput(output)
	if err != nil {
		return nil, &entity.ProbeError{Path: videoPath, Err: err}
	}

	// ffprobe's format.size is absent for some containers; the local file
	// is authoritative anyway.
	if info, err := os.Stat(videoPath); err == nil {
		meta.SizeBytes = info.Size()
	}

	p.logger.Debug("video probed",
		zap.String("path", videoPath),
		zap.Float64("duration_secs", meta.DurationSeconds),
		zap.Int64("size_bytes", meta.SizeBytes),
		zap.String("format", meta.ContainerFormat),
	)
	return meta, nil
}

// probeResult matches ffprobe JSON output structure.
type probeResult struct {
	Format struct {
		FormatName string `json:"format_name"`
		Duration   string `json:"duration"`
		Size       string `json:"size"`
	} `json:"format"`
}

func parseProbeOutput(output []byte) (*port.VideoMetadata, error) {
	var probe probeResult
	if err := json.Unmarshal(output, &probe); err != nil {
		return nil, err
	}

	duration, err := strconv.ParseFloat(probe.Format.Duration, 64)
	if err != nil {
		return nil, err
	}

	meta := &port.VideoMetadata{
		DurationSeconds: duration,
		ContainerFormat: probe.Format.FormatName,
	}
	if size, err := strconv.ParseInt(probe.Format.Size, 10, 64); err == nil {
		meta.SizeBytes = size
	}
	return meta, nil
}
