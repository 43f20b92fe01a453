// Package retention runs retrification passes: it decides which deployed
// applications are stale and archives them by renaming their live package.
package retention

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"

	"github.com/raoulx24/retrificator/internal/fs"
	"github.com/raoulx24/retrificator/internal/metrics"
	"github.com/raoulx24/retrificator/internal/state"
	"github.com/raoulx24/retrificator/internal/tracker"
	"github.com/raoulx24/retrificator/internal/webapp"
)

// Inventory lists what is deployed in a container and where its access logs are.
type Inventory interface {
	Webapps() ([]webapp.Webapp, error)
	AccessLogs() ([]string, error)
}

type Engine struct {
	inv     Inventory
	tracker *tracker.Tracker
	store   *state.Store
	fs      fs.FS
	log     *slog.Logger
	metrics *metrics.Metrics
	now     func() time.Time
}

// New creates an engine. metrics may be nil.
func New(inv Inventory, tr *tracker.Tracker, store *state.Store, filesystem fs.FS, log *slog.Logger, m *metrics.Metrics) *Engine {
	if filesystem == nil {
		filesystem = fs.New()
	}
	if log == nil {
		log = slog.Default()
	}
	return &Engine{
		inv:     inv,
		tracker: tr,
		store:   store,
		fs:      filesystem,
		log:     log,
		metrics: m,
		now:     time.Now,
	}
}

// WithClock replaces the engine's time source.
func (e *Engine) WithClock(now func() time.Time) *Engine {
	e.now = now
	return e
}

// Run executes one pass: orphan cleanup, state pruning, access-age and
// deploy-age rules, archival, then saving the state. Failures on single
// applications are logged and do not stop the pass; an error is returned
// only when the container cannot be listed or the state cannot be saved.
func (e *Engine) Run(ctx context.Context, p Policy) (Report, error) {
	started := e.now()
	rep := Report{
		RunID:   uuid.NewString(),
		Started: started,
		DryRun:  p.DryRun,
	}
	log := e.log.With("run", rep.RunID)
	log.Info("retrification pass started", "policy", p)

	err := e.run(ctx, log, p, &rep)
	e.metrics.RecordPass(e.now().Sub(started), err)
	if err != nil {
		log.Error("retrification pass failed", "error", err)
		return rep, err
	}

	log.Info("retrification pass complete",
		"webapps", rep.Webapps,
		"archived", len(rep.Archived),
		"failed", len(rep.Failed),
		"orphans_removed", len(rep.OrphansRemoved),
		"logs_read", rep.Tracking.LogsRead,
	)
	return rep, nil
}

func (e *Engine) run(ctx context.Context, log *slog.Logger, p Policy, rep *Report) error {
	st, err := e.store.Load()
	if err != nil {
		log.Error("loading state failed, starting from empty state", "error", err)
	}

	apps, err := e.inv.Webapps()
	if err != nil {
		return err
	}
	warnDirOnly(log, apps)

	if p.CleanupOrphanArchives {
		if e.cleanupOrphans(log, apps, p.DryRun, rep) > 0 {
			// relist so archive paths no longer point at removed files
			if apps, err = e.inv.Webapps(); err != nil {
				return err
			}
		}
	}
	rep.Webapps = len(apps)
	e.recordInventory(apps)

	if p.PruneStaleState {
		rep.PrunedState = st.RetainApps(webapp.Names(apps))
		if len(rep.PrunedState) > 0 {
			log.Debug("forgot undeployed webapps", "webapps", rep.PrunedState)
		}
	}

	now := e.now()
	d := newDecisions()

	if p.AccessAge > 0 {
		e.track(log, st, rep)
		e.applyAccessAge(log, apps, st, p, now, d)
	}
	if p.DeployAge > 0 {
		e.applyDeployAge(log, apps, p, now, d)
	}
	rep.Protected = d.protectedNames()

	for _, app := range d.selected() {
		e.archive(ctx, log, app, st, p.DryRun, rep)
	}
	e.metrics.SetTracked(len(st.LastAccess))

	if p.DryRun {
		log.Info("dry run, state not saved")
		return nil
	}
	// archives done above must not lose their state update to a shutdown
	if err := e.store.Save(context.WithoutCancel(ctx), st); err != nil {
		return fmt.Errorf("saving state: %w", err)
	}
	rep.StateSaved = true
	return nil
}

func warnDirOnly(log *slog.Logger, apps []webapp.Webapp) {
	for _, app := range apps {
		if app.DirOnly() {
			log.Warn("webapp has only a deployed directory and will never be archived", "webapp", app.Name)
		}
	}
}

// cleanupOrphans removes archived packages of applications that are live
// again and returns how many were removed.
func (e *Engine) cleanupOrphans(log *slog.Logger, apps []webapp.Webapp, dryRun bool, rep *Report) int {
	removed := 0
	for _, app := range apps {
		if !app.HasWar() || !app.HasRetroWar() {
			continue
		}
		if dryRun {
			log.Info("would remove orphan archive", "webapp", app.Name, "path", app.RetroWar)
			rep.OrphansRemoved = append(rep.OrphansRemoved, app.Name)
			continue
		}
		if err := e.fs.Remove(app.RetroWar); err != nil {
			log.Error("orphan archive cleanup failed", "webapp", app.Name, "path", app.RetroWar, "error", err)
			continue
		}
		removed++
		rep.OrphansRemoved = append(rep.OrphansRemoved, app.Name)
		e.metrics.RecordOrphanRemoved()
		log.Debug("orphan archive removed", "webapp", app.Name, "path", app.RetroWar)
	}
	return removed
}

func (e *Engine) recordInventory(apps []webapp.Webapp) {
	var live, archived, dirOnly int
	for _, app := range apps {
		switch {
		case app.HasWar():
			live++
		case app.HasRetroWar():
			archived++
		case app.DirOnly():
			dirOnly++
		}
	}
	e.metrics.SetInventory(live, archived, dirOnly)
}

// track merges new access logs into st. A listing failure leaves st as it is.
func (e *Engine) track(log *slog.Logger, st *state.State, rep *Report) {
	logs, err := e.inv.AccessLogs()
	if err != nil {
		log.Error("listing access logs failed", "error", err)
		return
	}
	rep.Tracking = e.tracker.Update(st, logs)
	e.metrics.RecordTracking(rep.Tracking.LogsRead, rep.Tracking.ParseErrors)
}

// applyAccessAge selects live applications whose last recorded access is
// older than the threshold and protects the others. Applications without any
// recorded access are left to the deploy-age rule.
func (e *Engine) applyAccessAge(log *slog.Logger, apps []webapp.Webapp, st *state.State, p Policy, now time.Time, d *decisions) {
	threshold := now.Add(-p.AccessAge).UnixMilli()

	for _, app := range apps {
		if !app.HasWar() || p.Ignored(app.Name) {
			continue
		}
		last, ok := st.Latest(app.Name)
		if !ok {
			continue
		}

		lastAt := time.UnixMilli(last)
		if last < threshold {
			log.Debug("access age exceeded", "webapp", app.Name, "last_access", humanize.RelTime(lastAt, now, "ago", "from now"))
			d.archive(app)
		} else {
			log.Debug("recently accessed", "webapp", app.Name, "last_access", humanize.RelTime(lastAt, now, "ago", "from now"))
			d.protect(app.Name)
		}
	}
}

// applyDeployAge selects live applications deployed before the threshold.
// The deploy time is the latest of the package's creation, access and
// modification times.
func (e *Engine) applyDeployAge(log *slog.Logger, apps []webapp.Webapp, p Policy, now time.Time, d *decisions) {
	threshold := now.Add(-p.DeployAge)

	for _, app := range apps {
		if !app.HasWar() || p.Ignored(app.Name) || d.isProtected(app.Name) {
			continue
		}

		info, err := e.fs.Stat(app.War)
		if err != nil {
			log.Error("reading deploy time failed", "webapp", app.Name, "path", app.War, "error", err)
			continue
		}

		deployed := latest(info.BTime, info.ATime, info.MTime)
		if deployed.Before(threshold) {
			log.Debug("deploy age exceeded", "webapp", app.Name, "deployed", humanize.RelTime(deployed, now, "ago", "from now"))
			d.archive(app)
		} else {
			d.protect(app.Name)
		}
	}
}

// archive renames the live package to its archive path. On success the
// application's last access is forgotten, so a redeploy starts fresh.
func (e *Engine) archive(ctx context.Context, log *slog.Logger, app webapp.Webapp, st *state.State, dryRun bool, rep *Report) {
	log = log.With("webapp", app.Name)
	target := app.ArchivePath()

	if _, err := e.fs.Stat(app.War); err != nil {
		log.Error("archiving failed, live package not found", "path", app.War, "error", err)
		rep.Failed = append(rep.Failed, app.Name)
		e.metrics.RecordArchiveFailure()
		return
	}

	if dryRun {
		log.Info("would archive webapp", "from", app.War, "to", target)
		rep.Archived = append(rep.Archived, app.Name)
		return
	}

	if _, err := e.fs.Stat(target); err == nil {
		if err := e.fs.Remove(target); err != nil {
			log.Warn("removing existing archive failed, will try to overwrite it", "path", target, "error", err)
		}
	}

	if err := e.fs.Rename(ctx, app.War, target); err != nil {
		log.Error("archiving failed", "from", app.War, "to", target, "error", err)
		rep.Failed = append(rep.Failed, app.Name)
		e.metrics.RecordArchiveFailure()
		return
	}

	st.Forget(app.Name)
	rep.Archived = append(rep.Archived, app.Name)
	e.metrics.RecordArchived()
	log.Info("webapp archived", "from", app.War, "to", target)
}

func latest(ts ...time.Time) time.Time {
	var newest time.Time
	for _, t := range ts {
		if t.After(newest) {
			newest = t
		}
	}
	return newest
}
