package port

import "context"

// ThumbnailStorage uploads rendered thumbnails to durable object storage.
type ThumbnailStorage interface {
	UploadThumbnail(ctx context.Context, objectKey string, localPath string) error
}
