package syncgw

import (
	"sort"

	"github.com/groupslot/groupslot/libs/availability"
	"github.com/groupslot/groupslot/libs/interval"
)

// StoreInputs converts a fetched schedule into availability store inputs.
// Participants are ordered by creation time.
func (s ScheduleWithAvailabilities) StoreInputs() ([]availability.Timeslot, []availability.Overlay, []availability.Participant) {
	timeslots := make([]availability.Timeslot, 0, len(s.ScheduleTimeslots))
	for _, ts := range s.ScheduleTimeslots {
		timeslots = append(timeslots, availability.Timeslot{ID: ts.ID, Start: ts.StartTime, End: ts.EndTime})
	}

	avs := append([]Availability(nil), s.Availabilities...)
	sort.SliceStable(avs, func(i, j int) bool {
		return avs[i].CreatedAt.Before(avs[j].CreatedAt)
	})

	var overlays []availability.Overlay
	participants := make([]availability.Participant, 0, len(avs))
	for _, av := range avs {
		participants = append(participants, availability.Participant{ID: av.ID, Name: av.GuestUserName})
		for _, at := range av.AvailabilityTimeslots {
			overlays = append(overlays, availability.Overlay{
				ScheduleUUID:    s.UUID,
				TimeslotID:      at.ScheduleTimeslotID,
				ParticipantName: av.GuestUserName,
				Interval:        interval.New(at.StartTime, at.EndTime),
			})
		}
	}
	return timeslots, overlays, participants
}
