package summary

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/groupslot/groupslot/libs/interval"
	"github.com/groupslot/groupslot/libs/syncgw"
)

type fetchFunc func(ctx context.Context, id string) (syncgw.ScheduleWithAvailabilities, error)

func (f fetchFunc) FetchScheduleWithAvailabilities(ctx context.Context, id string) (syncgw.ScheduleWithAvailabilities, error) {
	return f(ctx, id)
}

func TestBuild(t *testing.T) {
	day := time.Date(2025, 7, 12, 9, 0, 0, 0, time.UTC)
	gw := fetchFunc(func(_ context.Context, id string) (syncgw.ScheduleWithAvailabilities, error) {
		return syncgw.ScheduleWithAvailabilities{
			Schedule: syncgw.Schedule{
				UUID:              id,
				Title:             "offsite",
				ScheduleTimeslots: []syncgw.ScheduleTimeslot{{ID: 1, StartTime: day, EndTime: day.Add(8 * time.Hour)}},
			},
			Availabilities: []syncgw.Availability{
				{ID: 2, GuestUserName: "B", CreatedAt: day.Add(time.Minute), AvailabilityTimeslots: []syncgw.AvailabilityTimeslot{
					{ScheduleTimeslotID: 1, StartTime: day.Add(2 * time.Hour), EndTime: day.Add(5 * time.Hour)},
				}},
				{ID: 1, GuestUserName: "A", CreatedAt: day, AvailabilityTimeslots: []syncgw.AvailabilityTimeslot{
					{ScheduleTimeslotID: 1, StartTime: day, EndTime: day.Add(3 * time.Hour)},
				}},
			},
		}, nil
	})

	s, err := NewBuilder(gw).Build(context.Background(), "s1")
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if len(s.Participants) != 2 || s.Participants[0] != "A" {
		t.Fatalf("expected participants ordered by creation, got %v", s.Participants)
	}
	want := interval.New(day.Add(2*time.Hour), day.Add(3*time.Hour))
	got := s.Common["2025-07-12"]
	if len(got) != 1 || !got[0].Equal(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestBuildNotFound(t *testing.T) {
	gw := fetchFunc(func(context.Context, string) (syncgw.ScheduleWithAvailabilities, error) {
		return syncgw.ScheduleWithAvailabilities{}, syncgw.ErrNotFound
	})
	if _, err := NewBuilder(gw).Build(context.Background(), "s1"); !errors.Is(err, syncgw.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
