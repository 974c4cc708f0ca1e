package port

import "context"

type RenderSpec struct {
	Width   int
	Height  int
	Quality int
}

// ThumbnailRenderer crops, resizes and recompresses one source frame into a
// final thumbnail file.
type ThumbnailRenderer interface {
	Render(ctx context.Context, sourcePath string, destPath string, spec RenderSpec) error
}
