package ytdlp

import (
	"context"
	"fmt"
	"os"
	"os/exec"

	"go.uber.org/zap"

	"github.com/linkhub/linkhub-thumbnail-service/internal/domain/entity"
)

// Downloader fetches remote videos with yt-dlp. The size cap is enforced by
// the tool itself (--max-filesize makes it skip oversized sources), with a
// stat of the result as the backstop.
type Downloader struct {
	binPath   string
	maxSizeMB int
	logger    *zap.Logger
}

func NewDownloader(binPath string, maxSizeMB int, logger *zap.Logger) *Downloader {
	return &Downloader{binPath: binPath, maxSizeMB: maxSizeMB, logger: logger}
}

func (d *Downloader) Download(ctx context.Context, url string, destPath string) error {
	cmd := exec.CommandContext(ctx, d.binPath,
		"--no-playlist",
		"--max-filesize", fmt.Sprintf("%dM", d.maxSizeMB),
		"-f", "best[ext=mp4]/best",
		"--merge-output-format", "mp4",
		"-o", destPath,
		url,
	)

	output, err := cmd.CombinedOutput()
	if err != nil {
		return &entity.DownloadError{URL: url, Output: string(output), Err: err}
	}

	info, err := os.Stat(destPath)
	if err != nil {
		return &entity.DownloadError{URL: url, Output: string(output), Err: fmt.Errorf("no output file: %w", err)}
	}
	if info.Size() == 0 {
		return &entity.DownloadError{URL: url, Output: string(output), Err: fmt.Errorf("downloaded file is empty")}
	}
	if maxBytes := int64(d.maxSizeMB) * 1024 * 1024; info.Size() > maxBytes {
		return &entity.DownloadError{URL: url, Err: fmt.Errorf("downloaded file %d bytes exceeds cap %d", info.Size(), maxBytes)}
	}

	d.logger.Info("video downloaded",
		zap.String("url", url),
		zap.Int64("size_bytes", info.Size()),
	)
	return nil
}
