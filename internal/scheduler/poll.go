package scheduler

import (
	"context"
	"time"

	"github.com/raoulx24/retrificator/internal/container"
)

// poll lists the logs directory on a fixed interval and triggers a pass when
// an access log appears that was not there before.
func (s *Scheduler) poll(ctx context.Context) {
	interval := s.cfg.PollInterval
	if interval <= 0 {
		interval = time.Minute
	}
	s.log.Info("watching for rotated access logs", "dir", s.logsDir, "mode", "poll", "interval", interval)

	seen := make(map[string]struct{})
	s.scan(seen)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if s.scan(seen) > 0 {
				s.trigger("rotation")
			}
		}
	}
}

// scan records access logs not yet in seen and returns how many were new.
// Logs that disappeared are dropped from seen.
func (s *Scheduler) scan(seen map[string]struct{}) int {
	entries, err := s.fs.ReadDir(s.logsDir)
	if err != nil {
		s.log.Debug("reading logs dir failed", "dir", s.logsDir, "error", err)
		return 0
	}

	present := make(map[string]struct{}, len(entries))
	added := 0
	for _, e := range entries {
		if !e.IsRegular || !container.IsAccessLog(e.Name, s.marker) {
			continue
		}
		present[e.Name] = struct{}{}
		if _, ok := seen[e.Name]; !ok {
			seen[e.Name] = struct{}{}
			added++
		}
	}
	for name := range seen {
		if _, ok := present[name]; !ok {
			delete(seen, name)
		}
	}
	return added
}
