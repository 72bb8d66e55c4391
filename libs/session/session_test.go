package session

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/groupslot/groupslot/libs/availability"
	"github.com/groupslot/groupslot/libs/interval"
	"github.com/groupslot/groupslot/libs/syncgw"
)

var day = time.Date(2025, 7, 12, 0, 0, 0, 0, time.UTC)

type fakeGateway struct {
	mu        sync.Mutex
	snapshots map[string]syncgw.ScheduleWithAvailabilities
	block     map[string]chan struct{}
	started   chan string
	submitted []syncgw.SubmitAvailabilityRequest
	deleted   []int64
	submitErr error
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{
		snapshots: map[string]syncgw.ScheduleWithAvailabilities{},
		block:     map[string]chan struct{}{},
	}
}

func (f *fakeGateway) FetchScheduleWithAvailabilities(ctx context.Context, scheduleUUID string) (syncgw.ScheduleWithAvailabilities, error) {
	f.mu.Lock()
	wait := f.block[scheduleUUID]
	started := f.started
	f.mu.Unlock()
	if started != nil {
		started <- scheduleUUID
	}
	if wait != nil {
		<-wait
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	snap, ok := f.snapshots[scheduleUUID]
	if !ok {
		return syncgw.ScheduleWithAvailabilities{}, syncgw.ErrNotFound
	}
	return snap, nil
}

func (f *fakeGateway) SubmitAvailability(ctx context.Context, req syncgw.SubmitAvailabilityRequest) (syncgw.Availability, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.submitErr != nil {
		return syncgw.Availability{}, f.submitErr
	}
	f.submitted = append(f.submitted, req)

	snap := f.snapshots[req.ScheduleUUID]
	av := syncgw.Availability{
		ID:                    int64(100 + len(snap.Availabilities)),
		ScheduleUUID:          req.ScheduleUUID,
		GuestUserName:         req.GuestUserName,
		CreatedAt:             day.Add(time.Duration(len(snap.Availabilities)) * time.Minute),
		AvailabilityTimeslots: req.Timeslots,
	}
	snap.Availabilities = append(snap.Availabilities, av)
	f.snapshots[req.ScheduleUUID] = snap
	return av, nil
}

func (f *fakeGateway) DeleteParticipant(ctx context.Context, scheduleUUID string, participantID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, participantID)
	return nil
}

func snapshot(uuid, title string, avs ...syncgw.Availability) syncgw.ScheduleWithAvailabilities {
	return syncgw.ScheduleWithAvailabilities{
		Schedule: syncgw.Schedule{
			UUID:  uuid,
			Title: title,
			ScheduleTimeslots: []syncgw.ScheduleTimeslot{
				{ID: 1, StartTime: day, EndTime: day.Add(6 * time.Hour)},
			},
		},
		Availabilities: avs,
	}
}

func guest(id int64, name string, created time.Time, from, to time.Duration) syncgw.Availability {
	return syncgw.Availability{
		ID:            id,
		GuestUserName: name,
		CreatedAt:     created,
		AvailabilityTimeslots: []syncgw.AvailabilityTimeslot{
			{ScheduleTimeslotID: 1, StartTime: day.Add(from), EndTime: day.Add(to)},
		},
	}
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestOpen_LoadsRosterInCreationOrder(t *testing.T) {
	gw := newFakeGateway()
	gw.snapshots["s1"] = snapshot("s1", "offsite",
		guest(2, "B", day.Add(2*time.Minute), 11*time.Hour/10, 2*time.Hour),
		guest(1, "A", day.Add(time.Minute), time.Hour, 2*time.Hour),
	)
	s := New(gw, availability.NewStore(), quietLogger())

	if err := s.Open(context.Background(), "s1"); err != nil {
		t.Fatalf("open: %v", err)
	}
	v := s.View()
	if v.Title != "offsite" || v.Loading || v.Error != "" {
		t.Fatalf("unexpected view state: %+v", v)
	}
	if len(v.Participants) != 2 || v.Participants[0].Name != "A" || v.Participants[1].Name != "B" {
		t.Fatalf("expected roster [A B], got %+v", v.Participants)
	}
	if len(v.Confirmed) != 2 {
		t.Fatalf("expected 2 confirmed overlays, got %d", len(v.Confirmed))
	}
	if v.Confirmed[0].Date != "2025-07-12" {
		t.Fatalf("expected date to be derived, got %q", v.Confirmed[0].Date)
	}
}

func TestOpen_NotFoundSetsError(t *testing.T) {
	s := New(newFakeGateway(), availability.NewStore(), quietLogger())
	err := s.Open(context.Background(), "missing")
	if !errors.Is(err, syncgw.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if s.View().Error == "" {
		t.Fatalf("expected error in view")
	}
}

func TestOpen_StaleResponseDiscarded(t *testing.T) {
	gw := newFakeGateway()
	gw.snapshots["old"] = snapshot("old", "old", guest(1, "A", day, 0, time.Hour))
	gw.snapshots["new"] = snapshot("new", "new", guest(2, "Z", day, 0, time.Hour))
	release := make(chan struct{})
	gw.block["old"] = release
	gw.started = make(chan string, 4)

	s := New(gw, availability.NewStore(), quietLogger())

	done := make(chan error, 1)
	go func() { done <- s.Open(context.Background(), "old") }()
	if got := <-gw.started; got != "old" {
		t.Fatalf("expected old fetch first, got %s", got)
	}

	if err := s.Open(context.Background(), "new"); err != nil {
		t.Fatalf("open new: %v", err)
	}
	<-gw.started
	close(release)
	if err := <-done; err != nil {
		t.Fatalf("stale open should not fail: %v", err)
	}

	v := s.View()
	if v.Title != "new" || v.ScheduleUUID != "new" {
		t.Fatalf("stale response overwrote view: %+v", v)
	}
	if len(v.Participants) != 1 || v.Participants[0].Name != "Z" {
		t.Fatalf("expected roster [Z], got %+v", v.Participants)
	}
}

func TestSave_SubmitsPendingAndReloads(t *testing.T) {
	gw := newFakeGateway()
	gw.snapshots["s1"] = snapshot("s1", "offsite", guest(1, "A", day, time.Hour, 3*time.Hour))
	store := availability.NewStore()
	s := New(gw, store, quietLogger())
	ctx := context.Background()

	if err := s.Open(ctx, "s1"); err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := s.Save(ctx); !errors.Is(err, availability.ErrNoActiveParticipant) {
		t.Fatalf("expected ErrNoActiveParticipant, got %v", err)
	}
	if err := store.RegisterSelf("B"); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := s.Save(ctx); !errors.Is(err, ErrNothingToSave) {
		t.Fatalf("expected ErrNothingToSave, got %v", err)
	}

	if err := store.BeginSelection(1, day.Add(2*time.Hour)); err != nil {
		t.Fatalf("begin: %v", err)
	}
	store.ExtendSelection(1, day.Add(4*time.Hour))
	if _, ok := store.CommitSelection(); !ok {
		t.Fatalf("expected commit")
	}

	if err := s.Save(ctx); err != nil {
		t.Fatalf("save: %v", err)
	}
	if len(gw.submitted) != 1 {
		t.Fatalf("expected one submission, got %d", len(gw.submitted))
	}
	req := gw.submitted[0]
	if req.GuestUserName != "B" || req.ScheduleUUID != "s1" || len(req.Timeslots) != 1 {
		t.Fatalf("unexpected request: %+v", req)
	}
	if !req.Timeslots[0].StartTime.Equal(day.Add(2*time.Hour)) || !req.Timeslots[0].EndTime.Equal(day.Add(4*time.Hour)) {
		t.Fatalf("unexpected interval: %+v", req.Timeslots[0])
	}

	v := s.View()
	if v.Self != "" || len(v.Pending) != 0 {
		t.Fatalf("expected identity and pending cleared, got self=%q pending=%d", v.Self, len(v.Pending))
	}
	if len(v.Participants) != 2 {
		t.Fatalf("expected reloaded roster of 2, got %+v", v.Participants)
	}
	want := interval.New(day.Add(2*time.Hour), day.Add(3*time.Hour))
	common := v.CommonAvailability["2025-07-12"]
	if len(common) != 1 || !common[0].Equal(want) {
		t.Fatalf("expected common %v, got %v", want, common)
	}
}

func TestSave_FailureKeepsPending(t *testing.T) {
	gw := newFakeGateway()
	gw.snapshots["s1"] = snapshot("s1", "offsite")
	gw.submitErr = syncgw.ErrValidation
	store := availability.NewStore()
	s := New(gw, store, quietLogger())
	ctx := context.Background()

	if err := s.Open(ctx, "s1"); err != nil {
		t.Fatalf("open: %v", err)
	}
	_ = store.RegisterSelf("A")
	_ = store.BeginSelection(1, day)
	store.ExtendSelection(1, day.Add(time.Hour))
	store.CommitSelection()

	if err := s.Save(ctx); !errors.Is(err, syncgw.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
	if len(store.Pending()) != 1 || store.Self() != "A" {
		t.Fatalf("failed save must keep local state")
	}
}

func TestRemoveParticipant(t *testing.T) {
	gw := newFakeGateway()
	gw.snapshots["s1"] = snapshot("s1", "offsite",
		guest(1, "A", day, 0, time.Hour),
		guest(2, "B", day.Add(time.Minute), 0, time.Hour),
	)
	store := availability.NewStore()
	s := New(gw, store, quietLogger())
	ctx := context.Background()
	if err := s.Open(ctx, "s1"); err != nil {
		t.Fatalf("open: %v", err)
	}

	if err := s.RemoveParticipant(ctx, 99); !errors.Is(err, availability.ErrUnknownParticipant) {
		t.Fatalf("expected ErrUnknownParticipant, got %v", err)
	}
	if err := s.RemoveParticipant(ctx, 2); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if err := s.RemoveParticipant(ctx, 1); !errors.Is(err, availability.ErrLastParticipant) {
		t.Fatalf("expected ErrLastParticipant, got %v", err)
	}
	if len(gw.deleted) != 1 || gw.deleted[0] != 2 {
		t.Fatalf("expected one remote delete of 2, got %v", gw.deleted)
	}
	for _, o := range store.Confirmed() {
		if o.ParticipantName == "B" {
			t.Fatalf("overlays of removed participant must be dropped")
		}
	}
}

func TestNoScheduleOpened(t *testing.T) {
	s := New(newFakeGateway(), availability.NewStore(), quietLogger())
	if err := s.Reload(context.Background()); !errors.Is(err, ErrNoSchedule) {
		t.Fatalf("expected ErrNoSchedule, got %v", err)
	}
	if err := s.Save(context.Background()); !errors.Is(err, ErrNoSchedule) {
		t.Fatalf("expected ErrNoSchedule, got %v", err)
	}
}

func TestOpen_FailedSwitchEmptiesStore(t *testing.T) {
	gw := newFakeGateway()
	gw.snapshots["aaaa"] = snapshot("aaaa", "first", guest(1, "A", day, 0, time.Hour))
	store := availability.NewStore()
	s := New(gw, store, quietLogger())

	if err := s.Open(context.Background(), "aaaa"); err != nil {
		t.Fatalf("open aaaa: %v", err)
	}
	if err := s.Open(context.Background(), "bbbb"); !errors.Is(err, syncgw.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	v := s.View()
	if v.ScheduleUUID != "bbbb" || v.Title != "" || v.Error == "" {
		t.Fatalf("expected empty error view for bbbb, got uuid=%q title=%q err=%q", v.ScheduleUUID, v.Title, v.Error)
	}
	if len(v.Days) != 0 || len(v.Confirmed) != 0 || len(v.Participants) != 0 {
		t.Fatalf("previous schedule still loaded: days=%d confirmed=%d participants=%d", len(v.Days), len(v.Confirmed), len(v.Participants))
	}

	if err := store.RegisterSelf("B"); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := store.BeginSelection(1, day.Add(time.Hour)); !errors.Is(err, availability.ErrUnknownTimeslot) {
		t.Fatalf("expected ErrUnknownTimeslot, got %v", err)
	}
}
