package fs

import (
	"context"
	"io"
	"os"
	"path/filepath"
)

// OSFS is the concrete implementation of FS backed by the local OS filesystem.
// Platform-specific details (access and birth times) live in build-tagged files.
type OSFS struct{}

func New() *OSFS {
	return &OSFS{}
}

func (o *OSFS) ReadDir(path string) ([]Entry, error) {
	dirents, err := os.ReadDir(path)
	if err != nil {
		return nil, err
	}

	entries := make([]Entry, 0, len(dirents))
	for _, d := range dirents {
		mode := d.Type()
		if mode&os.ModeSymlink != 0 {
			st, err := os.Stat(filepath.Join(path, d.Name()))
			if err != nil {
				// dangling link
				continue
			}
			mode = st.Mode().Type()
		}
		entries = append(entries, Entry{
			Name:      d.Name(),
			IsDir:     mode.IsDir(),
			IsRegular: mode.IsRegular(),
		})
	}
	return entries, nil
}

func (o *OSFS) Stat(path string) (FileInfo, error) {
	st, err := os.Stat(path)
	if err != nil {
		return FileInfo{}, err
	}

	atime, btime := fileTimes(path, st)
	return FileInfo{
		Path:  path,
		Size:  st.Size(),
		IsDir: st.IsDir(),
		MTime: st.ModTime(),
		ATime: atime,
		BTime: btime,
	}, nil
}

func (o *OSFS) Open(path string) (io.ReadCloser, error) {
	return os.Open(path)
}

func (o *OSFS) ReadFile(path string) ([]byte, error) {
	return os.ReadFile(path)
}

func (o *OSFS) WriteFileAtomic(ctx context.Context, path string, data []byte) error {
	return writeAtomic(ctx, path, data)
}

func (o *OSFS) Rename(ctx context.Context, oldPath, newPath string) error {
	return renameWithRetry(ctx, oldPath, newPath)
}

func (o *OSFS) Remove(path string) error {
	return os.Remove(path)
}
