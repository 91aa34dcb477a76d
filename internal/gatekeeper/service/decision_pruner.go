package service

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/doorward/gatekeeper/internal/gatekeeper/store"
)

// DecisionPruner deletes audit entries older than the retention period
// from a background goroutine.  Retention 0 disables pruning.
type DecisionPruner struct {
	store     store.DecisionStore
	retention time.Duration
	interval  time.Duration
	logger    *log.Logger
	cancel    context.CancelFunc
	done      chan struct{}
}

type PrunerConfig struct {
	// RetentionDays is how many days of decisions to keep.  0 keeps
	// everything (the pruner will not start).
	RetentionDays int

	// IntervalHours is how often the pruner runs.  Defaults to 6.
	IntervalHours int
}

func NewDecisionPruner(s store.DecisionStore, cfg PrunerConfig, logger *log.Logger) *DecisionPruner {
	interval := time.Duration(cfg.IntervalHours) * time.Hour
	if interval <= 0 {
		interval = 6 * time.Hour
	}
	return &DecisionPruner{
		store:     s,
		retention: time.Duration(cfg.RetentionDays) * 24 * time.Hour,
		interval:  interval,
		logger:    logger,
		done:      make(chan struct{}),
	}
}

// Start begins the loop: one prune immediately to clear any backlog,
// then one per interval until ctx is cancelled or Stop is called.
func (p *DecisionPruner) Start(ctx context.Context) {
	if p.retention <= 0 {
		p.logger.Info("decision pruner disabled (retention=0)")
		close(p.done)
		return
	}

	ctx, p.cancel = context.WithCancel(ctx)
	go p.loop(ctx)

	p.logger.WithFields(log.Fields{
		"retention": p.retention,
		"interval":  p.interval,
	}).Info("decision pruner started")
}

// Stop signals the pruner to exit and waits for it to finish.
func (p *DecisionPruner) Stop() {
	if p.cancel != nil {
		p.cancel()
	}
	<-p.done
}

func (p *DecisionPruner) loop(ctx context.Context) {
	defer close(p.done)

	p.prune(ctx)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.prune(ctx)
		}
	}
}

func (p *DecisionPruner) prune(ctx context.Context) {
	cutoff := time.Now().UTC().Add(-p.retention)
	deleted, err := p.store.PruneOlderThan(ctx, cutoff)
	if err != nil {
		p.logger.WithError(err).Error("decision prune failed")
		return
	}
	if deleted > 0 {
		p.logger.WithFields(log.Fields{
			"deleted": deleted,
			"cutoff":  cutoff.Format(time.RFC3339),
		}).Info("pruned old decisions")
	}
}
