package model

import (
	"errors"
	"testing"
	"time"

	"github.com/groupslot/groupslot/libs/syncgw"
)

var base = time.Date(2025, 7, 12, 9, 0, 0, 0, time.UTC)

func row(from, to time.Duration) syncgw.TimeslotInput {
	return syncgw.TimeslotInput{StartTime: base.Add(from), EndTime: base.Add(to)}
}

func TestSplitValidTimeslots(t *testing.T) {
	valid, ignored := SplitValidTimeslots([]syncgw.TimeslotInput{
		row(0, time.Hour),
		row(time.Hour, time.Hour),
		row(3*time.Hour, 2*time.Hour),
		row(24*time.Hour, 26*time.Hour),
	})
	if ignored != 2 || len(valid) != 2 {
		t.Fatalf("expected 2 valid / 2 ignored, got %d / %d", len(valid), ignored)
	}
	if !valid[1].StartTime.Equal(base.Add(24 * time.Hour)) {
		t.Fatalf("input order not kept")
	}
}

func TestNormalizeCreate(t *testing.T) {
	_, _, err := NormalizeCreate(syncgw.CreateScheduleRequest{Title: "  ", Timeslots: []syncgw.TimeslotInput{row(0, time.Hour)}})
	if !errors.Is(err, ErrTitleRequired) || !errors.Is(err, ErrInvalid) {
		t.Fatalf("expected title error, got %v", err)
	}
	_, ignored, err := NormalizeCreate(syncgw.CreateScheduleRequest{Title: "x", Timeslots: []syncgw.TimeslotInput{row(time.Hour, 0)}})
	if !errors.Is(err, ErrNoTimeslots) || ignored != 1 {
		t.Fatalf("expected no-timeslot error with 1 ignored, got %v / %d", err, ignored)
	}
	req, ignored, err := NormalizeCreate(syncgw.CreateScheduleRequest{
		Title:     " offsite ",
		Timeslots: []syncgw.TimeslotInput{row(0, time.Hour), row(time.Hour, 0)},
	})
	if err != nil || req.Title != "offsite" || len(req.Timeslots) != 1 || ignored != 1 {
		t.Fatalf("unexpected normalize result %+v / %d / %v", req, ignored, err)
	}
}

func TestValidateSubmission(t *testing.T) {
	windows := map[int64]Window{7: {Start: base, End: base.Add(6 * time.Hour)}}
	ok := syncgw.AvailabilityTimeslot{ScheduleTimeslotID: 7, StartTime: base.Add(time.Hour), EndTime: base.Add(2 * time.Hour)}

	cases := []struct {
		name string
		req  syncgw.SubmitAvailabilityRequest
		want error
	}{
		{"blank name", syncgw.SubmitAvailabilityRequest{GuestUserName: " ", Timeslots: []syncgw.AvailabilityTimeslot{ok}}, ErrNameRequired},
		{"no intervals", syncgw.SubmitAvailabilityRequest{GuestUserName: "A"}, ErrNoIntervals},
		{"unknown timeslot", syncgw.SubmitAvailabilityRequest{GuestUserName: "A", Timeslots: []syncgw.AvailabilityTimeslot{{ScheduleTimeslotID: 8, StartTime: ok.StartTime, EndTime: ok.EndTime}}}, ErrUnknownTimeslot},
		{"empty interval", syncgw.SubmitAvailabilityRequest{GuestUserName: "A", Timeslots: []syncgw.AvailabilityTimeslot{{ScheduleTimeslotID: 7, StartTime: ok.StartTime, EndTime: ok.StartTime}}}, ErrEmptyInterval},
		{"outside", syncgw.SubmitAvailabilityRequest{GuestUserName: "A", Timeslots: []syncgw.AvailabilityTimeslot{{ScheduleTimeslotID: 7, StartTime: base.Add(-time.Hour), EndTime: ok.EndTime}}}, ErrOutsideTimeslot},
	}
	for _, tc := range cases {
		if _, err := ValidateSubmission(tc.req, windows); !errors.Is(err, tc.want) {
			t.Fatalf("%s: expected %v, got %v", tc.name, tc.want, err)
		}
	}

	req, err := ValidateSubmission(syncgw.SubmitAvailabilityRequest{GuestUserName: " A ", Timeslots: []syncgw.AvailabilityTimeslot{ok}}, windows)
	if err != nil || req.GuestUserName != "A" {
		t.Fatalf("expected trimmed valid submission, got %+v / %v", req, err)
	}
}
