package syncgw

import "time"

// Event types double as Kafka topic names.
const (
	EventScheduleCreated       = "schedule.created.v1"
	EventAvailabilitySubmitted = "schedule.availability.submitted.v1"
	EventParticipantDeleted    = "schedule.participant.deleted.v1"
)

type ScheduleCreatedEvent struct {
	ScheduleUUID string    `json:"schedule_uuid"`
	Title        string    `json:"title"`
	Timeslots    int       `json:"timeslots"`
	CreatedAt    time.Time `json:"created_at"`
}

type AvailabilitySubmittedEvent struct {
	ScheduleUUID   string    `json:"schedule_uuid"`
	AvailabilityID int64     `json:"availability_id"`
	GuestUserName  string    `json:"guest_user_name"`
	Intervals      int       `json:"intervals"`
	SubmittedAt    time.Time `json:"submitted_at"`
}

type ParticipantDeletedEvent struct {
	ScheduleUUID   string    `json:"schedule_uuid"`
	AvailabilityID int64     `json:"availability_id"`
	DeletedAt      time.Time `json:"deleted_at"`
}
