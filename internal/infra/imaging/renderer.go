package imaging

import (
	"context"
	"fmt"
	"image"
	"image/jpeg"
	_ "image/png"
	"os"

	"github.com/nfnt/resize"
	"go.uber.org/zap"

	"github.com/linkhub/linkhub-thumbnail-service/internal/domain/port"
)

// Renderer turns a source frame into a thumbnail: center-crop to the target
// aspect ratio, Lanczos resize to the exact dimensions, re-encode as JPEG.
type Renderer struct {
	logger *zap.Logger
}

func NewRenderer(logger *zap.Logger) *Renderer {
	return &Renderer{logger: logger}
}

func (r *Renderer) Render(ctx context.Context, sourcePath string, destPath string, spec port.RenderSpec) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if spec.Width <= 0 || spec.Height <= 0 {
		return fmt.Errorf("invalid target dimensions %dx%d", spec.Width, spec.Height)
	}
	quality := spec.Quality
	if quality < 1 || quality > 100 {
		quality = 85
	}

	src, err := os.Open(sourcePath)
	if err != nil {
		return fmt.Errorf("open source image: %w", err)
	}
	img, _, err := image.Decode(src)
	src.Close()
	if err != nil {
		return fmt.Errorf("decode source image: %w", err)
	}

	cropped := centerCrop(img, spec.Width, spec.Height)
	scaled := resize.Resize(uint(spec.Width), uint(spec.Height), cropped, resize.Lanczos3)

	dest, err := os.Create(destPath)
	if err != nil {
		return fmt.Errorf("create thumbnail file: %w", err)
	}
	if err := jpeg.Encode(dest, scaled, &jpeg.Options{Quality: quality}); err != nil {
		dest.Close()
		return fmt.Errorf("encode thumbnail: %w", err)
	}
	if err := dest.Close(); err != nil {
		return fmt.Errorf("close thumbnail file: %w", err)
	}

	info, err := os.Stat(destPath)
	if err != nil {
		return fmt.Errorf("stat thumbnail: %w", err)
	}
	if info.Size() == 0 {
		return fmt.Errorf("rendered thumbnail is empty")
	}

	r.logger.Debug("thumbnail rendered",
		zap.String("source", sourcePath),
		zap.String("dest", destPath),
		zap.Int64("size_bytes", info.Size()),
	)
	return nil
}

// centerCrop returns the largest centered sub-rectangle of img matching the
// w:h aspect ratio.
func centerCrop(img image.Image, w, h int) image.Image {
	bounds := img.Bounds()
	srcW := bounds.Dx()
	srcH := bounds.Dy()

	cropW := srcW
	cropH := srcW * h / w
	if cropH > srcH {
		cropH = srcH
		cropW = srcH * w / h
	}

	x0 := bounds.Min.X + (srcW-cropW)/2
	y0 := bounds.Min.Y + (srcH-cropH)/2
	rect := image.Rect(x0, y0, x0+cropW, y0+cropH)

	type subImager interface {
		SubImage(r image.Rectangle) image.Image
	}
	if s, ok := img.(subImager); ok {
		return s.SubImage(rect)
	}

	out := image.NewRGBA(image.Rect(0, 0, cropW, cropH))
	for y := 0; y < cropH; y++ {
		for x := 0; x < cropW; x++ {
			out.Set(x, y, img.At(x0+x, y0+y))
		}
	}
	return out
}
