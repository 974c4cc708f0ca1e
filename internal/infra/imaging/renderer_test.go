package imaging

import (
	"context"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/linkhub/linkhub-thumbnail-service/internal/domain/port"
)

func writeJPEG(t *testing.T, path string, w, h int) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x % 256), G: uint8(y % 256), B: 120, A: 255})
		}
	}
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, jpeg.Encode(f, img, &jpeg.Options{Quality: 90}))
}

func decodeDims(t *testing.T, path string) (int, int) {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	cfg, _, err := image.DecodeConfig(f)
	require.NoError(t, err)
	return cfg.Width, cfg.Height
}

func TestRenderProducesExactDimensions(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "frame.jpg")
	dest := filepath.Join(dir, "thumb.jpg")
	writeJPEG(t, src, 1280, 720)

	r := NewRenderer(zap.NewNop())
	err := r.Render(context.Background(), src, dest, port.RenderSpec{Width: 600, Height: 800, Quality: 85})
	require.NoError(t, err)

	w, h := decodeDims(t, dest)
	assert.Equal(t, 600, w)
	assert.Equal(t, 800, h)

	info, err := os.Stat(dest)
	require.NoError(t, err)
	assert.Positive(t, info.Size())
}

func TestRenderAcceptsPNGSource(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "frame.png")
	dest := filepath.Join(dir, "thumb.jpg")

	img := image.NewRGBA(image.Rect(0, 0, 400, 300))
	f, err := os.Create(src)
	require.NoError(t, err)
	require.NoError(t, png.Encode(f, img))
	require.NoError(t, f.Close())

	r := NewRenderer(zap.NewNop())
	err = r.Render(context.Background(), src, dest, port.RenderSpec{Width: 120, Height: 160, Quality: 85})
	require.NoError(t, err)

	w, h := decodeDims(t, dest)
	assert.Equal(t, 120, w)
	assert.Equal(t, 160, h)
}

func TestRenderDefaultsBadQuality(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "frame.jpg")
	dest := filepath.Join(dir, "thumb.jpg")
	writeJPEG(t, src, 640, 480)

	r := NewRenderer(zap.NewNop())
	err := r.Render(context.Background(), src, dest, port.RenderSpec{Width: 100, Height: 100, Quality: 0})
	require.NoError(t, err)

	info, err := os.Stat(dest)
	require.NoError(t, err)
	assert.Positive(t, info.Size())
}

func TestRenderRejectsUndecodableSource(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "frame.jpg")
	require.NoError(t, os.WriteFile(src, []byte("not an image"), 0644))

	r := NewRenderer(zap.NewNop())
	err := r.Render(context.Background(), src, filepath.Join(dir, "thumb.jpg"), port.RenderSpec{Width: 100, Height: 100})
	assert.Error(t, err)
}

func TestRenderRejectsMissingSource(t *testing.T) {
	dir := t.TempDir()

	r := NewRenderer(zap.NewNop())
	err := r.Render(context.Background(), filepath.Join(dir, "absent.jpg"), filepath.Join(dir, "thumb.jpg"), port.RenderSpec{Width: 100, Height: 100})
	assert.Error(t, err)
}

func TestRenderRejectsInvalidDimensions(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "frame.jpg")
	writeJPEG(t, src, 100, 100)

	r := NewRenderer(zap.NewNop())
	err := r.Render(context.Background(), src, filepath.Join(dir, "thumb.jpg"), port.RenderSpec{Width: 0, Height: 100})
	assert.Error(t, err)
}

func TestCenterCropMatchesAspect(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 1920, 1080))

	cropped := centerCrop(img, 600, 800)
	b := cropped.Bounds()

	// 1080 tall source: tallest 3:4 crop is 810x1080.
	assert.Equal(t, 810, b.Dx())
	assert.Equal(t, 1080, b.Dy())
}
