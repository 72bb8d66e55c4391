package summary

import (
	"context"
	"errors"
	"log/slog"

	"github.com/groupslot/groupslot/libs/syncgw"
)

type Cache interface {
	Get(ctx context.Context, scheduleUUID string) (Summary, bool, error)
	Put(ctx context.Context, s Summary) error
	Invalidate(ctx context.Context, scheduleUUID string) error
}

// Service serves summaries cache-aside and refreshes them on events.
type Service struct {
	builder *Builder
	cache   Cache
	logger  *slog.Logger
}

func NewService(builder *Builder, cache Cache, logger *slog.Logger) *Service {
	return &Service{builder: builder, cache: cache, logger: logger}
}

func (s *Service) Get(ctx context.Context, scheduleUUID string) (Summary, error) {
	if cached, ok, err := s.cache.Get(ctx, scheduleUUID); err != nil {
		s.logger.Warn("summary cache read failed", "err", err, "schedule_uuid", scheduleUUID)
	} else if ok {
		return cached, nil
	}

	sum, err := s.builder.Build(ctx, scheduleUUID)
	if err != nil {
		return Summary{}, err
	}
	if err := s.cache.Put(ctx, sum); err != nil {
		s.logger.Warn("summary cache write failed", "err", err, "schedule_uuid", scheduleUUID)
	}
	return sum, nil
}

// Refresh rebuilds the cached summary. A schedule that no longer exists is
// evicted instead.
func (s *Service) Refresh(ctx context.Context, scheduleUUID string) error {
	sum, err := s.builder.Build(ctx, scheduleUUID)
	if errors.Is(err, syncgw.ErrNotFound) {
		return s.cache.Invalidate(ctx, scheduleUUID)
	}
	if err != nil {
		return err
	}
	return s.cache.Put(ctx, sum)
}
