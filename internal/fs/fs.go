// Package fs defines the filesystem abstraction used by retrificator.
// It provides the FS interface and the Entry/FileInfo types shared across the system.
package fs

import (
	"context"
	"io"
	"time"
)

// Entry is one item of a directory listing. Symlinks are resolved, so a link
// to a directory reports IsDir.
type Entry struct {
	Name      string
	IsDir     bool
	IsRegular bool
}

type FileInfo struct {
	Path  string
	Size  int64
	IsDir bool

	MTime time.Time // last modification
	ATime time.Time // last access
	BTime time.Time // creation; falls back to MTime where the platform has no birth time
}

type FS interface {
	ReadDir(path string) ([]Entry, error)
	Stat(path string) (FileInfo, error)
	Open(path string) (io.ReadCloser, error)
	ReadFile(path string) ([]byte, error)
	WriteFileAtomic(ctx context.Context, path string, data []byte) error
	Rename(ctx context.Context, oldPath, newPath string) error
	Remove(path string) error
}
