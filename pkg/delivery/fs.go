package delivery

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
)

// FS is the filesystem bridge used for native writes.
type FS interface {
	Exists(path string) (bool, error)
	MkdirAll(path string) error
	Join(elem ...string) string
	WriteFile(path string, data []byte) error
}

// OSFS is the local filesystem.
type OSFS struct{}

func (OSFS) Exists(path string) (bool, error) {
	_, err := os.Stat(path)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	return false, err
}

func (OSFS) MkdirAll(path string) error { return os.MkdirAll(path, 0o755) }

func (OSFS) Join(elem ...string) string { return filepath.Join(elem...) }

func (OSFS) WriteFile(path string, data []byte) error { return os.WriteFile(path, data, 0o644) }

var _ FS = OSFS{}
