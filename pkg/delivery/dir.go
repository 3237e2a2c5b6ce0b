package delivery

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// DirFallback saves offered files into a directory, by default
// ~/Downloads. Existing files are never overwritten; a numeric suffix is
// added instead ("mdi-home (1).png").
type DirFallback struct {
	Dir string
}

// DefaultDownloadsDir returns ~/Downloads, or the working directory when
// the home directory is unknown.
func DefaultDownloadsDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, "Downloads")
}

// Offer writes payload into the directory and returns the file path.
func (f DirFallback) Offer(ctx context.Context, filename, _ string, payload []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	dir := f.Dir
	if dir == "" {
		dir = DefaultDownloadsDir()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create downloads dir: %w", err)
	}

	ext := filepath.Ext(filename)
	base := strings.TrimSuffix(filename, ext)
	for i := 0; i < 1000; i++ {
		name := filename
		if i > 0 {
			name = fmt.Sprintf("%s (%d)%s", base, i, ext)
		}
		path := filepath.Join(dir, name)
		file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if os.IsExist(err) {
			continue
		}
		if err != nil {
			return "", err
		}
		if _, err := file.Write(payload); err != nil {
			file.Close()
			os.Remove(path)
			return "", err
		}
		return path, file.Close()
	}
	return "", fmt.Errorf("too many copies of %s in %s", filename, dir)
}

var _ Fallback = DirFallback{}
