package main

import (
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/raoulx24/retrificator/internal/accesslog"
	"github.com/raoulx24/retrificator/internal/config"
	"github.com/raoulx24/retrificator/internal/container"
	"github.com/raoulx24/retrificator/internal/fs"
	"github.com/raoulx24/retrificator/internal/metrics"
	"github.com/raoulx24/retrificator/internal/retention"
	"github.com/raoulx24/retrificator/internal/state"
	"github.com/raoulx24/retrificator/internal/tracker"
)

// app holds everything a pass needs, built from one configuration.
type app struct {
	cfg      *config.Config
	log      *slog.Logger
	registry *prometheus.Registry
	engine   *retention.Engine
}

func newApp(cfg *config.Config, log *slog.Logger) *app {
	filesystem := fs.New()
	registry := prometheus.NewRegistry()

	tr := tracker.New(filesystem, accesslog.NewParser(accesslog.DefaultLayout()), log.With("component", "tracker"))
	engine := retention.New(
		container.New(cfg.Container, filesystem),
		tr,
		state.NewStore(cfg.State.FilePath(), filesystem),
		filesystem,
		log.With("component", "retention"),
		metrics.New(registry),
	)

	return &app{
		cfg:      cfg,
		log:      log,
		registry: registry,
		engine:   engine,
	}
}

// policy reads the ignore list and builds the pass policy from cfg.
func policy(cfg *config.Config) (retention.Policy, error) {
	ignore, err := config.ReadIgnoreList(cfg.State.IgnoreFilePath())
	if err != nil {
		return retention.Policy{}, err
	}
	p, err := retention.PolicyFromConfig(cfg.Retention, ignore)
	if err != nil {
		return retention.Policy{}, fmt.Errorf("%s: %w", cfg.State.IgnoreFilePath(), err)
	}
	return p, nil
}

// writeTextfile dumps the registry for the node_exporter textfile collector.
func (a *app) writeTextfile() {
	path := a.cfg.Metrics.Textfile
	if path == "" {
		return
	}
	if err := prometheus.WriteToTextfile(path, a.registry); err != nil {
		a.log.Error("writing metrics textfile failed", "path", path, "error", err)
	}
}
