package availability

import (
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/groupslot/groupslot/libs/interval"
)

// Store holds the confirmed overlays, the pending overlays, the in-progress
// selection and the participant roster of one schedule.
//
// A Store is safe for concurrent use, but it is written by a single session and
// none of its methods block on I/O.
type Store struct {
	mu sync.Mutex

	scheduleUUID string
	timeslots    map[int64]Timeslot
	order        []int64
	participants []Participant
	confirmed    []Overlay
	pending      []Overlay
	selection    *Overlay
	self         string
}

func NewStore() *Store {
	return &Store{timeslots: map[int64]Timeslot{}}
}

// LoadConfirmed replaces timeslots, confirmed overlays and roster wholesale.
// Overlays that reference an unknown timeslot or have no positive length are
// dropped; the number of dropped overlays is returned.
func (s *Store) LoadConfirmed(scheduleUUID string, timeslots []Timeslot, overlays []Overlay, participants []Participant) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.scheduleUUID = scheduleUUID
	s.timeslots = make(map[int64]Timeslot, len(timeslots))
	s.order = s.order[:0]
	for _, slot := range timeslots {
		if _, dup := s.timeslots[slot.ID]; dup {
			continue
		}
		s.timeslots[slot.ID] = slot
		s.order = append(s.order, slot.ID)
	}
	sort.SliceStable(s.order, func(i, j int) bool {
		return s.timeslots[s.order[i]].Start.Before(s.timeslots[s.order[j]].Start)
	})

	dropped := 0
	s.confirmed = make([]Overlay, 0, len(overlays))
	for _, o := range overlays {
		slot, ok := s.timeslots[o.TimeslotID]
		if !ok || !o.Interval.Valid() {
			dropped++
			continue
		}
		o.ScheduleUUID = scheduleUUID
		o.Date = slot.Date()
		s.confirmed = append(s.confirmed, o)
	}

	s.participants = append([]Participant(nil), participants...)

	if s.selection != nil {
		if _, ok := s.timeslots[s.selection.TimeslotID]; !ok {
			s.selection = nil
		}
	}
	return dropped
}

// RegisterSelf sets or renames the active participant. Renaming relabels every
// pending overlay and leaves confirmed overlays untouched.
func (s *Store) RegisterSelf(name string) error {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return ErrEmptyName
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, p := range s.participants {
		if p.Name == trimmed {
			return ErrDuplicateName
		}
	}

	s.self = trimmed
	for i := range s.pending {
		s.pending[i].ParticipantName = trimmed
	}
	if s.selection != nil {
		s.selection.ParticipantName = trimmed
	}
	return nil
}

// ResetSelf forgets the active participant, discarding any open selection.
// Pending overlays are kept; callers clear them explicitly.
func (s *Store) ResetSelf() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.self = ""
	s.selection = nil
}

// Self returns the active participant name, or "" before registration.
func (s *Store) Self() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.self
}

// SelfColumn is the column index of the active participant: always after
// every roster column.
func (s *Store) SelfColumn() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.participants)
}

// BeginSelection starts a zero-length selection at instant. A selection that
// is still open is committed first.
func (s *Store) BeginSelection(timeslotID int64, instant time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.self == "" {
		return ErrNoActiveParticipant
	}
	slot, ok := s.timeslots[timeslotID]
	if !ok {
		return ErrUnknownTimeslot
	}

	s.commitLocked()

	at := interval.Clamp(instant, slot.Start, slot.End)
	s.selection = &Overlay{
		ScheduleUUID:    s.scheduleUUID,
		TimeslotID:      slot.ID,
		Date:            slot.Date(),
		ParticipantName: s.self,
		Interval:        interval.New(at, at),
	}
	return nil
}

// ExtendSelection moves the selection end to instant, clamped to the owning
// timeslot. It is a no-op without a selection in timeslotID.
func (s *Store) ExtendSelection(timeslotID int64, instant time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.selection == nil || s.selection.TimeslotID != timeslotID {
		return false
	}
	slot := s.timeslots[timeslotID]
	s.selection.Interval.End = interval.Clamp(instant, slot.Start, slot.End)
	return true
}

// CommitSelection converts the selection into a pending overlay. The result is
// false when there was no selection or it had zero length.
func (s *Store) CommitSelection() (Overlay, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.commitLocked()
}

func (s *Store) commitLocked() (Overlay, bool) {
	if s.selection == nil {
		return Overlay{}, false
	}
	o := *s.selection
	s.selection = nil

	o.Interval = o.Interval.Ordered()
	if !o.Interval.Valid() {
		return Overlay{}, false
	}
	o.ParticipantName = s.self
	s.pending = append(s.pending, o)
	return o, true
}

// Selection returns a copy of the in-progress selection.
func (s *Store) Selection() (Overlay, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.selection == nil {
		return Overlay{}, false
	}
	return *s.selection, true
}

// DiscardPending removes pending overlays matching pred and reports how many
// were removed.
func (s *Store) DiscardPending(pred func(Overlay) bool) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.pending[:0]
	removed := 0
	for _, o := range s.pending {
		if pred(o) {
			removed++
			continue
		}
		kept = append(kept, o)
	}
	s.pending = kept
	return removed
}

func (s *Store) ClearPending() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending = nil
}

func (s *Store) Pending() []Overlay {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Overlay(nil), s.pending...)
}

func (s *Store) Confirmed() []Overlay {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Overlay(nil), s.confirmed...)
}

func (s *Store) Participants() []Participant {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Participant(nil), s.participants...)
}

func (s *Store) Timeslot(id int64) (Timeslot, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	slot, ok := s.timeslots[id]
	return slot, ok
}

// CanRemoveParticipant validates a removal without applying it, so callers can
// check before asking the backend.
func (s *Store) CanRemoveParticipant(id int64) (Participant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, p, err := s.findRemovableLocked(id)
	return p, err
}

// RemoveParticipant drops the participant and all of their confirmed overlays.
func (s *Store) RemoveParticipant(id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx, p, err := s.findRemovableLocked(id)
	if err != nil {
		return err
	}
	s.participants = append(s.participants[:idx:idx], s.participants[idx+1:]...)

	kept := s.confirmed[:0]
	for _, o := range s.confirmed {
		if o.ParticipantName == p.Name {
			continue
		}
		kept = append(kept, o)
	}
	s.confirmed = kept
	return nil
}

func (s *Store) findRemovableLocked(id int64) (int, Participant, error) {
	idx := -1
	for i, p := range s.participants {
		if p.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return -1, Participant{}, ErrUnknownParticipant
	}
	if len(s.participants) <= 1 {
		return -1, Participant{}, ErrLastParticipant
	}
	return idx, s.participants[idx], nil
}

// DayBlocks returns the timeslots in start order with their row axes.
func (s *Store) DayBlocks() []DayBlock {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dayBlocksLocked()
}

func (s *Store) dayBlocksLocked() []DayBlock {
	out := make([]DayBlock, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, newDayBlock(s.scheduleUUID, s.timeslots[id]))
	}
	return out
}

// Snapshot copies everything the renderer needs.
func (s *Store) Snapshot() View {
	s.mu.Lock()
	defer s.mu.Unlock()

	v := View{
		ScheduleUUID:       s.scheduleUUID,
		Days:               s.dayBlocksLocked(),
		Participants:       append([]Participant(nil), s.participants...),
		Confirmed:          append([]Overlay(nil), s.confirmed...),
		Pending:            append([]Overlay(nil), s.pending...),
		Self:               s.self,
		Dragging:           s.selection != nil,
		CommonAvailability: commonAvailability(s.confirmed, s.participants),
	}
	if s.selection != nil {
		sel := *s.selection
		v.Selection = &sel
	}
	return v
}
