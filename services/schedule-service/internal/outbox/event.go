package outbox

import (
	"encoding/json"
	"fmt"
)

// AggregateSchedule is the only aggregate this service emits events for.
const AggregateSchedule = "schedule"

// Event is the domain event envelope written to the outbox table.
// The Kafka topic name equals EventType (production-style: event per topic).
type Event struct {
	AggregateType string
	AggregateID   string
	EventType     string
	Payload       []byte
}

// NewScheduleEvent marshals payload into an event keyed by schedule uuid.
func NewScheduleEvent(scheduleUUID, eventType string, payload any) (Event, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return Event{}, fmt.Errorf("marshal %s: %w", eventType, err)
	}
	return Event{
		AggregateType: AggregateSchedule,
		AggregateID:   scheduleUUID,
		EventType:     eventType,
		Payload:       body,
	}, nil
}
