package summary

import (
	"context"
	"fmt"
	"time"

	"github.com/groupslot/groupslot/libs/availability"
	"github.com/groupslot/groupslot/libs/interval"
	"github.com/groupslot/groupslot/libs/syncgw"
)

// Summary is the precomputed common availability of one schedule.
type Summary struct {
	ScheduleUUID string                         `json:"schedule_uuid"`
	Title        string                         `json:"title"`
	Participants []string                       `json:"participants"`
	Common       map[string][]interval.Interval `json:"common"`
	ComputedAt   time.Time                      `json:"computed_at"`
}

type Fetcher interface {
	FetchScheduleWithAvailabilities(ctx context.Context, scheduleUUID string) (syncgw.ScheduleWithAvailabilities, error)
}

type Builder struct {
	gw  Fetcher
	now func() time.Time
}

func NewBuilder(gw Fetcher) *Builder {
	return &Builder{gw: gw, now: time.Now}
}

// Build refetches the schedule and recomputes the intervals every participant
// shares.
func (b *Builder) Build(ctx context.Context, scheduleUUID string) (Summary, error) {
	snap, err := b.gw.FetchScheduleWithAvailabilities(ctx, scheduleUUID)
	if err != nil {
		return Summary{}, fmt.Errorf("fetch schedule %s: %w", scheduleUUID, err)
	}

	timeslots, overlays, participants := snap.StoreInputs()
	store := availability.NewStore()
	store.LoadConfirmed(snap.UUID, timeslots, overlays, participants)

	names := make([]string, 0, len(participants))
	for _, p := range participants {
		names = append(names, p.Name)
	}
	return Summary{
		ScheduleUUID: snap.UUID,
		Title:        snap.Title,
		Participants: names,
		Common:       store.CommonAvailability(),
		ComputedAt:   b.now().UTC(),
	}, nil
}
