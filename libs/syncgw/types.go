package syncgw

import "time"

// Wire types shared by the schedule-service handlers and the client.

type TimeslotInput struct {
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`
}

type CreateScheduleRequest struct {
	Title     string          `json:"title"`
	Timeslots []TimeslotInput `json:"timeslots"`
	// Repeat is an optional RRULE (e.g. "FREQ=DAILY;COUNT=5") applied to every
	// submitted timeslot.
	Repeat string `json:"repeat,omitempty"`
}

type ScheduleTimeslot struct {
	ID        int64     `json:"id"`
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Schedule struct {
	UUID              string             `json:"uuid"`
	Title             string             `json:"title"`
	CreatedAt         time.Time          `json:"created_at"`
	UpdatedAt         time.Time          `json:"updated_at"`
	ScheduleTimeslots []ScheduleTimeslot `json:"schedule_timeslots"`
	// Ignored counts submitted rows skipped for having end <= start.
	Ignored int `json:"ignored,omitempty"`
}

type AvailabilityTimeslot struct {
	ID                 int64     `json:"id,omitempty"`
	ScheduleTimeslotID int64     `json:"schedule_timeslot_id"`
	StartTime          time.Time `json:"start_time"`
	EndTime            time.Time `json:"end_time"`
}

type Availability struct {
	ID                    int64                  `json:"id"`
	ScheduleUUID          string                 `json:"schedule_uuid"`
	GuestUserName         string                 `json:"guest_user_name"`
	CreatedAt             time.Time              `json:"created_at"`
	UpdatedAt             time.Time              `json:"updated_at"`
	AvailabilityTimeslots []AvailabilityTimeslot `json:"availability_timeslots"`
}

type ScheduleWithAvailabilities struct {
	Schedule
	Availabilities []Availability `json:"availabilities"`
}

type SubmitAvailabilityRequest struct {
	GuestUserName string                 `json:"guest_user_name"`
	ScheduleUUID  string                 `json:"schedule_uuid"`
	Timeslots     []AvailabilityTimeslot `json:"timeslots"`
}
