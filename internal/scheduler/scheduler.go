// Package scheduler decides when the daemon runs a retrification pass: on
// start, on a cron schedule, and when the container rotates its access logs.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/raoulx24/retrificator/internal/config"
	"github.com/raoulx24/retrificator/internal/fs"
	"github.com/raoulx24/retrificator/internal/mailbox"
	"github.com/raoulx24/retrificator/internal/worker"
)

// Scheduler posts jobs into the worker mailbox. Triggers that fire while a
// job is still pending are coalesced by the mailbox.
type Scheduler struct {
	cfg     config.ScheduleConfig
	logsDir string
	marker  string

	fs  fs.FS
	log *slog.Logger
	mb  *mailbox.Mailbox[worker.Job]
	now func() time.Time
}

// New creates a scheduler watching the logs directory of the container.
func New(cfg config.ScheduleConfig, ct config.ContainerConfig, filesystem fs.FS, log *slog.Logger, mb *mailbox.Mailbox[worker.Job]) *Scheduler {
	if filesystem == nil {
		filesystem = fs.New()
	}
	return &Scheduler{
		cfg:     cfg,
		logsDir: ct.LogsPath(),
		marker:  ct.AccessLogMarker,
		fs:      filesystem,
		log:     log.With("component", "scheduler"),
		mb:      mb,
		now:     time.Now,
	}
}

// Start runs the configured triggers until ctx is done.
func (s *Scheduler) Start(ctx context.Context) error {
	if s.cfg.RunOnStart {
		s.trigger("start")
	}

	var c *cron.Cron
	if s.cfg.Cron != "" {
		c = cron.New()
		if _, err := c.AddFunc(s.cfg.Cron, func() { s.trigger("cron") }); err != nil {
			return fmt.Errorf("schedule %q: %w", s.cfg.Cron, err)
		}
		c.Start()
		s.log.Info("cron schedule active", "cron", s.cfg.Cron)
	}

	if s.cfg.OnLogRotation {
		go s.watchRotation(ctx)
	}

	<-ctx.Done()
	if c != nil {
		<-c.Stop().Done()
	}
	return nil
}

func (s *Scheduler) trigger(source string) {
	if s.mb.Put(worker.Job{Trigger: source, At: s.now()}) {
		s.log.Debug("pending pass coalesced", "trigger", source)
		return
	}
	s.log.Debug("pass triggered", "trigger", source)
}
