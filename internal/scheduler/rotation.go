package scheduler

import (
	"context"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/raoulx24/retrificator/internal/container"
)

// rotationDebounce is how long the logs directory must stay quiet after a
// new access log appears before a pass is triggered.
var rotationDebounce = 2 * time.Second

// watchRotation triggers a pass when a new access log shows up, using
// fsnotify when the logs directory supports it and polling otherwise.
func (s *Scheduler) watchRotation(ctx context.Context) {
	ok, reason := probe(s.logsDir)
	if !ok {
		s.log.Warn("fsnotify disabled, polling for rotated logs", "dir", s.logsDir, "reason", reason)
		s.poll(ctx)
		return
	}

	if err := s.watchNotify(ctx); err != nil {
		s.log.Warn("fsnotify watch failed, falling back to polling", "dir", s.logsDir, "error", err)
		s.poll(ctx)
	}
}

func (s *Scheduler) watchNotify(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	if err := watcher.Add(s.logsDir); err != nil {
		return err
	}
	s.log.Info("watching for rotated access logs", "dir", s.logsDir, "mode", "fsnotify")

	var debounce *time.Timer
	defer func() {
		if debounce != nil {
			debounce.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-watcher.Events:
			if !ok {
				s.log.Error("events channel closed")
				return nil
			}
			if ev.Op&(fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			if !container.IsAccessLog(filepath.Base(ev.Name), s.marker) {
				continue
			}
			s.log.Debug("access log event", "name", ev.Name, "op", ev.Op)

			if debounce != nil {
				debounce.Stop()
			}
			debounce = time.AfterFunc(rotationDebounce, func() { s.trigger("rotation") })

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			s.log.Error("fsnotify error", "error", err)
		}
	}
}
