package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/raoulx24/retrificator/internal/mailbox"
	"github.com/raoulx24/retrificator/internal/retention"
	"github.com/raoulx24/retrificator/internal/scheduler"
	"github.com/raoulx24/retrificator/internal/worker"
)

var daemonCmd = &cobra.Command{
	Use:   "daemon",
	Short: "Run retrification passes on a schedule",
	Long: `Run retrification passes until interrupted.

Passes are triggered on start (schedule.runOnStart), on a cron schedule
(schedule.cron) and when the container rotates its access logs
(schedule.onLogRotation). Only one pass runs at a time; triggers arriving
during a pass collapse into a single follow-up pass.

SIGHUP reloads the retention settings and the ignore list.`,
	Args: cobra.NoArgs,
	RunE: runDaemon,
}

func init() {
	rootCmd.AddCommand(daemonCmd)
}

func runDaemon(cmd *cobra.Command, args []string) error {
	cfg, err := loadValidConfig(cmd)
	if err != nil {
		return err
	}
	if cfg.Schedule.Cron == "" && !cfg.Schedule.OnLogRotation && !cfg.Schedule.RunOnStart {
		return errors.New("no trigger configured: set schedule.cron, schedule.onLogRotation or schedule.runOnStart")
	}

	log, closeLog, err := newLogger(cfg, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer closeLog()

	p, err := policy(cfg)
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	a := newApp(cfg, log)
	mb := mailbox.New[worker.Job]()

	w := worker.New(p, a.engine, log, mb)
	w.OnPass = func(retention.Report, error) { a.writeTextfile() }
	workerDone := make(chan struct{})
	go func() {
		defer close(workerDone)
		w.Start(ctx)
	}()

	sched := scheduler.New(cfg.Schedule, cfg.Container, nil, log, mb)
	schedErr := make(chan error, 1)
	go func() { schedErr <- sched.Start(ctx) }()

	if cfg.Metrics.Listen != "" {
		srv := serveMetrics(a, cfg.Metrics.Listen)
		defer func() {
			shutdownCtx, done := context.WithTimeout(context.Background(), 5*time.Second)
			defer done()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	go reloadOnHangup(ctx, cmd, a, w)

	log.Info("daemon started", "webapps", cfg.Container.WebappsPath(), "state", cfg.State.FilePath())
	var runErr error
	select {
	case <-ctx.Done():
	case err := <-schedErr:
		if err != nil {
			runErr = err
			cancel()
		}
		<-ctx.Done()
	}

	log.Info("shutting down, waiting for a running pass to finish")
	<-workerDone
	return runErr
}

func serveMetrics(a *app, addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(a.registry, promhttp.HandlerOpts{}))
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		a.log.Info("serving metrics", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.log.Error("metrics server failed", "error", err)
		}
	}()
	return srv
}

// reloadOnHangup rebuilds the policy on SIGHUP from the config file, the
// flags and the ignore list, and hands it to the worker. Paths and the
// schedule keep their startup values.
func reloadOnHangup(ctx context.Context, cmd *cobra.Command, a *app, w *worker.Worker) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGHUP)
	defer signal.Stop(sigCh)

	for {
		select {
		case <-ctx.Done():
			return
		case <-sigCh:
		}

		cfg, err := loadValidConfig(cmd)
		if err != nil {
			a.log.Error("config reload failed", "error", err)
			continue
		}
		cfg.State = a.cfg.State

		p, err := policy(cfg)
		if err != nil {
			a.log.Error("config reload failed", "error", err)
			continue
		}
		w.UpdatePolicy(p)
		a.log.Info("config reloaded", "policy", p)
	}
}
