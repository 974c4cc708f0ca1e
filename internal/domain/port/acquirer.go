package port

import "context"

// VideoAcquirer fetches a remote video into a local file under a size cap.
type VideoAcquirer interface {
	Download(ctx context.Context, url string, destPath string) error
}
