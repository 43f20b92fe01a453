package scheduler

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// probe tests whether fsnotify reliably reports file creation in dir by
// creating and renaming a hidden file there.
func probe(dir string) (ok bool, reason string) {
	st, err := os.Stat(dir)
	if err != nil {
		return false, fmt.Sprintf("stat failed: %v", err)
	}
	if !st.IsDir() {
		return false, "not a directory"
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return false, fmt.Sprintf("fsnotify unavailable: %v", err)
	}
	defer w.Close()

	if err := w.Add(dir); err != nil {
		return false, fmt.Sprintf("cannot watch directory: %v", err)
	}

	tmp := filepath.Join(dir, ".retrificator-probe.tmp")
	final := filepath.Join(dir, ".retrificator-probe")

	f, err := os.Create(tmp)
	if err != nil {
		return false, fmt.Sprintf("cannot create temp file: %v", err)
	}
	f.Close()

	if err := os.Rename(tmp, final); err != nil {
		os.Remove(tmp)
		return false, fmt.Sprintf("rename failed: %v", err)
	}
	defer os.Remove(final)

	timeout := time.After(200 * time.Millisecond)
	for {
		select {
		case ev := <-w.Events:
			if ev.Op&(fsnotify.Rename|fsnotify.Create) != 0 {
				return true, ""
			}
		case <-timeout:
			return false, "no events received"
		}
	}
}
