package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// LocalArchive implements Archive on local disk. Outputs are written to a
// configurable directory.
type LocalArchive struct {
	dir string
}

var _ Archive = (*LocalArchive)(nil)

// NewLocalArchive creates a LocalArchive rooted at dir. If dir is empty a
// directory under os.TempDir() is used. The directory is created if it
// doesn't exist.
func NewLocalArchive(dir string) (*LocalArchive, error) {
	if dir == "" {
		dir = filepath.Join(os.TempDir(), "soundhound")
	}

	if err := os.MkdirAll(dir, 0750); err != nil {
		return nil, fmt.Errorf("create archive directory: %w", err)
	}

	return &LocalArchive{dir: dir}, nil
}

// Dir returns the archive directory path.
func (a *LocalArchive) Dir() string {
	return a.dir
}

// Archive writes data to a fresh file in the archive directory and returns
// its path.
func (a *LocalArchive) Archive(ctx context.Context, suffix string, data io.Reader) (string, error) {
	select {
	case <-ctx.Done():
		return "", fmt.Errorf("context cancelled: %w", ctx.Err())
	default:
	}

	path := filepath.Join(a.dir, Key(suffix))

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0640) // #nosec G304 - path is built from a generated key
	if err != nil {
		return "", fmt.Errorf("create archive file: %w", err)
	}

	if _, err := io.Copy(f, data); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return "", fmt.Errorf("write archive file: %w", err)
	}

	if err := f.Close(); err != nil {
		_ = os.Remove(path)
		return "", fmt.Errorf("close archive file: %w", err)
	}

	return path, nil
}
