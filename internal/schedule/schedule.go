// Package schedule triggers reconciliation cycles on a fixed interval.
package schedule

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/agenthands/tally/internal/core/model"
)

type Reconciler interface {
	Reconcile(ctx context.Context) (*model.ReconcileResult, error)
}

// Runner calls Reconcile once per Interval, each call bounded by Timeout.
// A failed cycle is logged and the next tick retries from a fresh read.
type Runner struct {
	Reconciler Reconciler
	Interval   time.Duration
	Timeout    time.Duration

	logger *zap.Logger
}

func NewRunner(r Reconciler, interval, timeout time.Duration, logger *zap.Logger) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{Reconciler: r, Interval: interval, Timeout: timeout, logger: logger}
}

// Run blocks until ctx is done and returns its error.
func (r *Runner) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.Interval)
	defer ticker.Stop()

	r.logger.Info("reconcile scheduler started", zap.Duration("interval", r.Interval))
	for {
		select {
		case <-ctx.Done():
			r.logger.Info("reconcile scheduler stopped")
			return ctx.Err()
		case <-ticker.C:
			r.tick(ctx)
		}
	}
}

func (r *Runner) tick(ctx context.Context) {
	callCtx, cancel := ctx, context.CancelFunc(func() {})
	if r.Timeout > 0 {
		callCtx, cancel = context.WithTimeout(ctx, r.Timeout)
	}
	defer cancel()

	result, err := r.Reconciler.Reconcile(callCtx)
	if err != nil {
		r.logger.Error("scheduled reconcile failed", zap.Error(err))
		return
	}
	r.logger.Info("scheduled reconcile finished",
		zap.String("cycle_id", result.CycleID),
		zap.Bool("updated", result.Updated),
		zap.String("error", result.Error))
}
