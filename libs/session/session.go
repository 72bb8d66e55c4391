package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/groupslot/groupslot/libs/availability"
	"github.com/groupslot/groupslot/libs/syncgw"
)

var (
	ErrNothingToSave = errors.New("no pending availability to save")
	ErrNoSchedule    = errors.New("no schedule opened")
)

// Gateway is the subset of the schedule service a session talks to.
type Gateway interface {
	FetchScheduleWithAvailabilities(ctx context.Context, scheduleUUID string) (syncgw.ScheduleWithAvailabilities, error)
	SubmitAvailability(ctx context.Context, req syncgw.SubmitAvailabilityRequest) (syncgw.Availability, error)
	DeleteParticipant(ctx context.Context, scheduleUUID string, participantID int64) error
}

// View extends the store snapshot with request state.
type View struct {
	availability.View
	Title   string `json:"title"`
	Loading bool   `json:"loading"`
	Error   string `json:"error,omitempty"`
}

// Session binds one Store to the schedule currently being edited. Network
// calls block the caller; the Store itself never waits on them.
type Session struct {
	gw     Gateway
	store  *availability.Store
	logger *slog.Logger

	mu           sync.Mutex
	scheduleUUID string
	title        string
	generation   uint64
	loading      bool
	lastErr      error
}

func New(gw Gateway, store *availability.Store, logger *slog.Logger) *Session {
	if logger == nil {
		logger = slog.Default()
	}
	return &Session{gw: gw, store: store, logger: logger}
}

func (s *Session) Store() *availability.Store {
	return s.store
}

// Open switches to scheduleUUID and loads it. Switching empties the store
// first, so a failed fetch leaves nothing of the previous schedule to select
// on. A response that arrives after another Open is discarded.
func (s *Session) Open(ctx context.Context, scheduleUUID string) error {
	s.mu.Lock()
	if s.scheduleUUID != scheduleUUID {
		s.store.ResetSelf()
		s.store.ClearPending()
		s.store.LoadConfirmed(scheduleUUID, nil, nil, nil)
		s.title = ""
	}
	s.scheduleUUID = scheduleUUID
	s.generation++
	s.mu.Unlock()

	return s.Reload(ctx)
}

// Reload refetches the current schedule.
func (s *Session) Reload(ctx context.Context) error {
	s.mu.Lock()
	if s.scheduleUUID == "" {
		s.mu.Unlock()
		return ErrNoSchedule
	}
	scheduleUUID := s.scheduleUUID
	gen := s.generation
	s.loading = true
	s.lastErr = nil
	s.mu.Unlock()

	snap, err := s.gw.FetchScheduleWithAvailabilities(ctx, scheduleUUID)

	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.generation {
		s.logger.Info("discarding stale schedule response", "schedule_uuid", scheduleUUID)
		return nil
	}
	s.loading = false
	if err != nil {
		s.lastErr = err
		s.logger.Error("fetch schedule failed", "err", err, "schedule_uuid", scheduleUUID)
		return fmt.Errorf("fetch schedule: %w", err)
	}

	timeslots, overlays, participants := snap.StoreInputs()
	if dropped := s.store.LoadConfirmed(snap.UUID, timeslots, overlays, participants); dropped > 0 {
		s.logger.Warn("dropped inconsistent availability", "schedule_uuid", scheduleUUID, "count", dropped)
	}
	s.title = snap.Title
	return nil
}

// Save submits the pending overlays under the active name. On success pending
// overlays and the local identity are cleared and the schedule is reloaded.
func (s *Session) Save(ctx context.Context) error {
	s.mu.Lock()
	scheduleUUID := s.scheduleUUID
	s.mu.Unlock()
	if scheduleUUID == "" {
		return ErrNoSchedule
	}

	name := s.store.Self()
	if name == "" {
		return availability.ErrNoActiveParticipant
	}
	pending := s.store.Pending()
	if len(pending) == 0 {
		return ErrNothingToSave
	}

	req := syncgw.SubmitAvailabilityRequest{
		GuestUserName: name,
		ScheduleUUID:  scheduleUUID,
		Timeslots:     make([]syncgw.AvailabilityTimeslot, 0, len(pending)),
	}
	for _, o := range pending {
		req.Timeslots = append(req.Timeslots, syncgw.AvailabilityTimeslot{
			ScheduleTimeslotID: o.TimeslotID,
			StartTime:          o.Interval.Start,
			EndTime:            o.Interval.End,
		})
	}

	if _, err := s.gw.SubmitAvailability(ctx, req); err != nil {
		s.setErr(err)
		s.logger.Error("submit availability failed", "err", err, "schedule_uuid", scheduleUUID)
		return fmt.Errorf("submit availability: %w", err)
	}
	s.logger.Info("availability saved", "schedule_uuid", scheduleUUID, "intervals", len(req.Timeslots))

	s.store.ClearPending()
	s.store.ResetSelf()
	return s.Reload(ctx)
}

// RemoveParticipant deletes a participant remotely, then locally. The last
// participant is refused before any request is made.
func (s *Session) RemoveParticipant(ctx context.Context, participantID int64) error {
	s.mu.Lock()
	scheduleUUID := s.scheduleUUID
	s.mu.Unlock()
	if scheduleUUID == "" {
		return ErrNoSchedule
	}

	p, err := s.store.CanRemoveParticipant(participantID)
	if err != nil {
		return err
	}
	if err := s.gw.DeleteParticipant(ctx, scheduleUUID, participantID); err != nil {
		s.setErr(err)
		s.logger.Error("delete participant failed", "err", err, "schedule_uuid", scheduleUUID, "participant", p.Name)
		return fmt.Errorf("delete participant: %w", err)
	}
	return s.store.RemoveParticipant(participantID)
}

func (s *Session) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()
	v := View{
		View:    s.store.Snapshot(),
		Title:   s.title,
		Loading: s.loading,
	}
	if s.lastErr != nil {
		v.Error = s.lastErr.Error()
	}
	return v
}

func (s *Session) setErr(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastErr = err
}
