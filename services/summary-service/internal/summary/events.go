package summary

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/groupslot/groupslot/libs/httpx"
	"github.com/groupslot/groupslot/libs/kafkax"
	"github.com/groupslot/groupslot/libs/syncgw"
	"github.com/segmentio/kafka-go"
)

// Topics lists every event that changes a schedule's summary.
var Topics = []string{
	syncgw.EventScheduleCreated,
	syncgw.EventAvailabilitySubmitted,
	syncgw.EventParticipantDeleted,
}

type refresher interface {
	Refresh(ctx context.Context, scheduleUUID string) error
}

// EventHandler refreshes the summary named by an event's schedule_uuid.
// Malformed payloads are logged and skipped.
func EventHandler(svc refresher, logger *slog.Logger) kafkax.Handler {
	return func(ctx context.Context, msg kafka.Message) error {
		var payload struct {
			ScheduleUUID string `json:"schedule_uuid"`
		}
		if err := json.Unmarshal(msg.Value, &payload); err != nil {
			logger.Error("invalid event payload", "err", err, "topic", msg.Topic)
			return nil
		}
		if payload.ScheduleUUID == "" {
			logger.Error("missing schedule_uuid", "topic", msg.Topic)
			return nil
		}
		meta := kafkax.ExtractEventMeta(msg)
		ctx = httpx.ContextWithRequestID(ctx, meta.EventID)
		if err := svc.Refresh(ctx, payload.ScheduleUUID); err != nil {
			return err
		}
		logger.Info("summary refreshed", "schedule_uuid", payload.ScheduleUUID, "event_type", meta.EventType)
		return nil
	}
}
