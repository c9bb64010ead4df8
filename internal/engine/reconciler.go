package engine

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/NJCinnamond/sports-betting-dapp/internal/domain"
)

const reconcileLockKey = "reconcile"

// Reconciler drives periodic lifecycle reconciliation over every known
// fixture. It is the clock the state machine otherwise lacks: without it a
// fixture only moves when a stake, delivery, or explicit call touches it.
//
// With a LockManager set, instances sharing one fixture set elect a leader
// per tick; losers simply skip the pass.
type Reconciler struct {
	engine   *Engine
	locks    domain.LockManager
	interval time.Duration
	logger   *slog.Logger
}

// NewReconciler creates a Reconciler ticking at interval (minimum 1s). locks
// may be nil for single-instance deployments.
func NewReconciler(engine *Engine, locks domain.LockManager, interval time.Duration, logger *slog.Logger) *Reconciler {
	if interval < time.Second {
		interval = time.Second
	}
	return &Reconciler{
		engine:   engine,
		locks:    locks,
		interval: interval,
		logger:   logger.With(slog.String("component", "reconciler")),
	}
}

// Run blocks, reconciling all fixtures every tick until ctx is canceled.
func (r *Reconciler) Run(ctx context.Context) error {
	r.logger.InfoContext(ctx, "reconciler started", slog.Duration("interval", r.interval))

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.logger.InfoContext(ctx, "reconciler stopped")
			return ctx.Err()
		case now := <-ticker.C:
			r.tick(ctx, now)
		}
	}
}

func (r *Reconciler) tick(ctx context.Context, now time.Time) {
	if r.locks != nil {
		unlock, err := r.locks.Acquire(ctx, reconcileLockKey, r.interval)
		if errors.Is(err, domain.ErrLockHeld) {
			return
		}
		if err != nil {
			r.logger.WarnContext(ctx, "reconcile lock acquire failed",
				slog.String("error", err.Error()),
			)
			return
		}
		defer unlock()
	}
	r.engine.ReconcileAll(ctx, now)
}
