package model

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/groupslot/groupslot/libs/syncgw"
)

// MaxTimeslots bounds one schedule, after repeat expansion.
const MaxTimeslots = 62

// ErrInvalid is wrapped by every validation failure so handlers can map the
// whole family to 400.
var ErrInvalid = errors.New("invalid input")

var (
	ErrTitleRequired    = fmt.Errorf("%w: title is required", ErrInvalid)
	ErrNoTimeslots      = fmt.Errorf("%w: at least one timeslot with end after start is required", ErrInvalid)
	ErrTooManyTimeslots = fmt.Errorf("%w: at most %d timeslots", ErrInvalid, MaxTimeslots)
	ErrNameRequired     = fmt.Errorf("%w: guest_user_name is required", ErrInvalid)
	ErrNoIntervals      = fmt.Errorf("%w: at least one interval is required", ErrInvalid)
	ErrUnknownTimeslot  = fmt.Errorf("%w: unknown schedule_timeslot_id", ErrInvalid)
	ErrEmptyInterval    = fmt.Errorf("%w: end_time must be after start_time", ErrInvalid)
	ErrOutsideTimeslot  = fmt.Errorf("%w: interval must lie inside its timeslot", ErrInvalid)
)

// SplitValidTimeslots keeps rows whose end is after start, in input order, and
// counts the rest.
func SplitValidTimeslots(in []syncgw.TimeslotInput) ([]syncgw.TimeslotInput, int) {
	valid := make([]syncgw.TimeslotInput, 0, len(in))
	ignored := 0
	for _, ts := range in {
		if !ts.EndTime.After(ts.StartTime) {
			ignored++
			continue
		}
		valid = append(valid, ts)
	}
	return valid, ignored
}

// NormalizeCreate trims the title and drops degenerate rows. It fails when
// nothing usable remains.
func NormalizeCreate(req syncgw.CreateScheduleRequest) (syncgw.CreateScheduleRequest, int, error) {
	req.Title = strings.TrimSpace(req.Title)
	if req.Title == "" {
		return req, 0, ErrTitleRequired
	}
	valid, ignored := SplitValidTimeslots(req.Timeslots)
	if len(valid) == 0 {
		return req, ignored, ErrNoTimeslots
	}
	req.Timeslots = valid
	req.Repeat = strings.TrimSpace(req.Repeat)
	return req, ignored, nil
}

// Window is a persisted schedule timeslot as seen by submission validation.
type Window struct {
	Start time.Time
	End   time.Time
}

// ValidateSubmission checks a submission against the schedule's timeslots and
// returns it with the name trimmed.
func ValidateSubmission(req syncgw.SubmitAvailabilityRequest, windows map[int64]Window) (syncgw.SubmitAvailabilityRequest, error) {
	req.GuestUserName = strings.TrimSpace(req.GuestUserName)
	if req.GuestUserName == "" {
		return req, ErrNameRequired
	}
	if len(req.Timeslots) == 0 {
		return req, ErrNoIntervals
	}
	for _, at := range req.Timeslots {
		w, ok := windows[at.ScheduleTimeslotID]
		if !ok {
			return req, fmt.Errorf("%w (%d)", ErrUnknownTimeslot, at.ScheduleTimeslotID)
		}
		if !at.EndTime.After(at.StartTime) {
			return req, ErrEmptyInterval
		}
		if at.StartTime.Before(w.Start) || at.EndTime.After(w.End) {
			return req, ErrOutsideTimeslot
		}
	}
	return req, nil
}
