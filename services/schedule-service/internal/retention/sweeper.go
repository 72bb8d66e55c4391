package retention

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

type SchedulePurger interface {
	DeleteExpired(ctx context.Context, cutoff time.Time) (int64, error)
}

type OutboxPurger interface {
	PurgePublished(ctx context.Context, cutoff time.Time) (int64, error)
}

// Sweeper deletes schedules that finished more than the retention period ago,
// and published outbox rows older than the same period.
type Sweeper struct {
	schedules SchedulePurger
	outbox    OutboxPurger
	retention time.Duration
	logger    *slog.Logger
	now       func() time.Time
}

func NewSweeper(schedules SchedulePurger, outbox OutboxPurger, retention time.Duration, logger *slog.Logger) *Sweeper {
	return &Sweeper{
		schedules: schedules,
		outbox:    outbox,
		retention: retention,
		logger:    logger,
		now:       time.Now,
	}
}

func (s *Sweeper) Sweep(ctx context.Context) error {
	cutoff := s.now().UTC().Add(-s.retention)

	n, err := s.schedules.DeleteExpired(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("delete expired schedules: %w", err)
	}
	var purged int64
	if s.outbox != nil {
		purged, err = s.outbox.PurgePublished(ctx, cutoff)
		if err != nil {
			return fmt.Errorf("purge outbox: %w", err)
		}
	}
	s.logger.Info("retention sweep done", "cutoff", cutoff, "schedules_deleted", n, "outbox_purged", purged)
	return nil
}

// Run sweeps on the cron spec (standard five fields or @descriptors) until ctx
// is cancelled. Overlapping runs are skipped.
func (s *Sweeper) Run(ctx context.Context, spec string) error {
	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
	if _, err := c.AddFunc(spec, func() {
		if err := s.Sweep(ctx); err != nil {
			s.logger.Error("retention sweep failed", "err", err)
		}
	}); err != nil {
		return fmt.Errorf("retention cron %q: %w", spec, err)
	}

	c.Start()
	s.logger.Info("retention sweeper started", "cron", spec, "retention", s.retention.String())
	<-ctx.Done()
	<-c.Stop().Done()
	return nil
}
