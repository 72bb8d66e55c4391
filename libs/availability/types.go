package availability

import (
	"errors"
	"time"

	"github.com/groupslot/groupslot/libs/interval"
	"github.com/groupslot/groupslot/libs/timegrid"
)

// UnsavedParticipantID marks a participant that has not been persisted yet.
const UnsavedParticipantID int64 = -1

// DateLayout is the key format of per-day groupings.
const DateLayout = "2006-01-02"

var (
	ErrEmptyName           = errors.New("name is required")
	ErrDuplicateName       = errors.New("name is already taken")
	ErrNoActiveParticipant = errors.New("register a name before selecting time")
	ErrUnknownTimeslot     = errors.New("unknown timeslot")
	ErrUnknownParticipant  = errors.New("unknown participant")
	ErrLastParticipant     = errors.New("the last participant cannot be removed")
)

type Timeslot struct {
	ID    int64     `json:"id"`
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Date is the calendar day the timeslot belongs to, in the timeslot's own
// location.
func (t Timeslot) Date() string {
	return t.Start.Format(DateLayout)
}

func (t Timeslot) Interval() interval.Interval {
	return interval.New(t.Start, t.End)
}

type Participant struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Overlay is one participant's claimed interval inside one timeslot.
type Overlay struct {
	ScheduleUUID    string            `json:"schedule_uuid"`
	TimeslotID      int64             `json:"timeslot_id"`
	Date            string            `json:"date"`
	ParticipantName string            `json:"participant_name"`
	Interval        interval.Interval `json:"interval"`
}

// DayBlock is one timeslot together with its quantized row axis.
type DayBlock struct {
	ScheduleUUID string      `json:"schedule_uuid"`
	Timeslot     Timeslot    `json:"timeslot"`
	Ticks        []time.Time `json:"ticks"`
}

func newDayBlock(scheduleUUID string, slot Timeslot) DayBlock {
	return DayBlock{
		ScheduleUUID: scheduleUUID,
		Timeslot:     slot,
		Ticks:        timegrid.Quantize(slot.Start, slot.End),
	}
}

// View is a read-only copy of the store for the presentation layer.
type View struct {
	ScheduleUUID       string                         `json:"schedule_uuid"`
	Days               []DayBlock                     `json:"days"`
	Participants       []Participant                  `json:"participants"`
	Confirmed          []Overlay                      `json:"confirmed"`
	Pending            []Overlay                      `json:"pending"`
	Selection          *Overlay                       `json:"selection,omitempty"`
	Self               string                         `json:"self,omitempty"`
	Dragging           bool                           `json:"dragging"`
	CommonAvailability map[string][]interval.Interval `json:"common_availability"`
}
