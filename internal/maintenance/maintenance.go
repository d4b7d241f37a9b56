// Package maintenance runs periodic housekeeping on the local store.
package maintenance

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

type Store interface {
	PruneTurns(ctx context.Context, keep int) (int64, error)
	CountFlaggedScheduleItems(ctx context.Context) (int, error)
}

// Report is the outcome of one housekeeping pass.
type Report struct {
	Pruned  int64
	Flagged int
}

type Runner struct {
	store  Store
	keep   int
	spec   string
	logger *zap.Logger

	cron   *cron.Cron
	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.Mutex
	started bool
}

// New prepares a runner that trims the chat log to keep rows on the cron
// schedule spec (standard five fields or descriptors such as "@hourly").
func New(store Store, keep int, spec string, loc *time.Location, logger *zap.Logger) *Runner {
	if loc == nil {
		loc = time.UTC
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Runner{
		store:  store,
		keep:   keep,
		spec:   spec,
		logger: logger,
		cron:   cron.New(cron.WithLocation(loc)),
		ctx:    ctx,
		cancel: cancel,
	}
}

func (r *Runner) Start() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.started {
		return nil
	}
	if _, err := r.cron.AddFunc(r.spec, func() {
		if _, err := r.RunOnce(r.ctx); err != nil {
			r.logger.Error("maintenance failed", zap.Error(err))
		}
	}); err != nil {
		return fmt.Errorf("maintenance schedule %q: %w", r.spec, err)
	}
	r.cron.Start()
	r.started = true
	r.logger.Info("maintenance scheduled", zap.String("spec", r.spec), zap.Int("keep_turns", r.keep))
	return nil
}

// Stop waits for a running pass to finish.
func (r *Runner) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.started {
		<-r.cron.Stop().Done()
		r.started = false
	}
	r.cancel()
}

func (r *Runner) IsRunning() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.started
}

// RunOnce prunes the chat log and reports malformed schedule rows.
func (r *Runner) RunOnce(ctx context.Context) (Report, error) {
	var rep Report
	if r.keep > 0 {
		n, err := r.store.PruneTurns(ctx, r.keep)
		if err != nil {
			return rep, fmt.Errorf("prune chat log: %w", err)
		}
		rep.Pruned = n
	}
	flagged, err := r.store.CountFlaggedScheduleItems(ctx)
	if err != nil {
		return rep, fmt.Errorf("count flagged items: %w", err)
	}
	rep.Flagged = flagged

	r.logger.Info("maintenance done", zap.Int64("pruned_turns", rep.Pruned), zap.Int("flagged_items", rep.Flagged))
	if flagged > 0 {
		r.logger.Warn("schedule has malformed items", zap.Int("count", flagged))
	}
	return rep, nil
}
