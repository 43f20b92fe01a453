// Package worker runs retrification passes one at a time for jobs taken from
// a mailbox.
package worker

import (
	"context"
	"log/slog"
	"sync"

	"github.com/raoulx24/retrificator/internal/mailbox"
	"github.com/raoulx24/retrificator/internal/retention"
)

// Runner executes a single pass.
type Runner interface {
	Run(ctx context.Context, p retention.Policy) (retention.Report, error)
}

// Worker serializes passes: a trigger arriving while a pass runs is kept in
// the mailbox and coalesced with any later one.
type Worker struct {
	mu     sync.RWMutex
	policy retention.Policy
	runner Runner
	log    *slog.Logger
	mb     *mailbox.Mailbox[Job]

	// OnPass, when set, is called after every pass.
	OnPass func(retention.Report, error)
}

// New creates a worker using the policy and mailbox.
func New(p retention.Policy, runner Runner, log *slog.Logger, mb *mailbox.Mailbox[Job]) *Worker {
	return &Worker{
		policy: p,
		runner: runner,
		log:    log.With("component", "worker"),
		mb:     mb,
	}
}

// Start runs the worker loop until ctx is done. It returns once the pass in
// progress, if any, has finished.
func (w *Worker) Start(ctx context.Context) {
	w.log.Info("starting worker")
	for {
		job, ok := w.mb.Take(ctx)
		if !ok {
			w.log.Info("worker stopped")
			return
		}
		w.Handle(ctx, job)
	}
}

// Handle runs one pass for job with the current policy. A started pass runs
// to completion even if ctx is canceled meanwhile, so its renames and its
// state save are never split.
func (w *Worker) Handle(ctx context.Context, job Job) {
	w.mu.RLock()
	p := w.policy
	w.mu.RUnlock()

	w.log.Debug("pass requested", "trigger", job.Trigger, "at", job.At)
	rep, err := w.runner.Run(context.WithoutCancel(ctx), p)
	if err != nil {
		w.log.Error("pass failed", "trigger", job.Trigger, "error", err)
	}
	if w.OnPass != nil {
		w.OnPass(rep, err)
	}
}

// UpdatePolicy hot-reloads the policy used by subsequent passes.
func (w *Worker) UpdatePolicy(p retention.Policy) {
	w.mu.Lock()
	w.policy = p
	w.mu.Unlock()
}
