package usecase

import (
	"fmt"
	"os"
	"path/filepath"
)

// workspace is the per-video scratch directory. It holds the downloaded
// video and the extracted frames, and is removed on every exit path of the
// pipeline.
type workspace struct {
	root string
}

func newWorkspace(baseDir, videoID string) (*workspace, error) {
	root := filepath.Join(baseDir, "video-"+videoID)
	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, fmt.Errorf("create workspace %s: %w", root, err)
	}
	return &workspace{root: root}, nil
}

func (w *workspace) Path(name string) string {
	return filepath.Join(w.root, name)
}

func (w *workspace) Mkdir(name string) (string, error) {
	dir := filepath.Join(w.root, name)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create workspace dir %s: %w", dir, err)
	}
	return dir, nil
}

func (w *workspace) Cleanup() error {
	return os.RemoveAll(w.root)
}
