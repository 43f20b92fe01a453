package fs

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// writeAtomic writes data into a temp file next to path and renames it into
// place, so a failed write never clobbers the previous content.
func writeAtomic(ctx context.Context, path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", dir, err)
	}

	tmp := filepath.Join(dir, ".tmp-"+filepath.Base(path))
	if err := writeOnce(tmp, data); err != nil {
		_ = os.Remove(tmp)
		return err
	}

	if err := renameWithRetry(ctx, tmp, path); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return nil
}

func writeOnce(path string, data []byte) error {
	out, err := os.Create(path)
	if err != nil {
		return err
	}

	if _, err := out.Write(data); err != nil {
		_ = out.Close()
		return err
	}
	if err := out.Sync(); err != nil {
		_ = out.Close()
		return err
	}
	return out.Close()
}

// renameWithRetry moves a live artifact to its archive name and finalizes
// state writes.
func renameWithRetry(ctx context.Context, oldPath, newPath string) error {
	return retry(ctx, "rename", func() error {
		return os.Rename(oldPath, newPath)
	})
}
