package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/groupslot/groupslot/libs/db"
	"github.com/groupslot/groupslot/libs/syncgw"
	"github.com/groupslot/groupslot/services/schedule-service/internal/model"
	"github.com/groupslot/groupslot/services/schedule-service/internal/outbox"
	"github.com/jackc/pgx/v5"
)

var (
	ErrNotFound      = errors.New("not found")
	ErrDuplicateName = errors.New("guest_user_name already used in this schedule")
)

// EventWriter appends an event to the outbox inside tx.
type EventWriter interface {
	Insert(ctx context.Context, tx pgx.Tx, evt outbox.Event) error
}

type Repository struct {
	pool   *db.Pool
	events EventWriter
}

func NewRepository(pool *db.Pool, events EventWriter) *Repository {
	return &Repository{pool: pool, events: events}
}

func (r *Repository) CreateSchedule(ctx context.Context, title string, windows []syncgw.TimeslotInput) (syncgw.Schedule, error) {
	s := syncgw.Schedule{UUID: uuid.NewString(), Title: title}

	err := r.pool.InTx(ctx, func(tx pgx.Tx) error {
		if err := tx.QueryRow(ctx, `
			INSERT INTO schedules (uuid, title)
			VALUES ($1, $2)
			RETURNING created_at, updated_at
		`, s.UUID, s.Title).Scan(&s.CreatedAt, &s.UpdatedAt); err != nil {
			return fmt.Errorf("insert schedule: %w", err)
		}

		for _, w := range windows {
			ts := syncgw.ScheduleTimeslot{StartTime: w.StartTime, EndTime: w.EndTime}
			if err := tx.QueryRow(ctx, `
				INSERT INTO schedule_timeslots (schedule_uuid, start_time, end_time)
				VALUES ($1, $2, $3)
				RETURNING id, created_at, updated_at
			`, s.UUID, w.StartTime, w.EndTime).Scan(&ts.ID, &ts.CreatedAt, &ts.UpdatedAt); err != nil {
				return fmt.Errorf("insert timeslot: %w", err)
			}
			s.ScheduleTimeslots = append(s.ScheduleTimeslots, ts)
		}

		evt, err := outbox.NewScheduleEvent(s.UUID, syncgw.EventScheduleCreated, syncgw.ScheduleCreatedEvent{
			ScheduleUUID: s.UUID,
			Title:        s.Title,
			Timeslots:    len(s.ScheduleTimeslots),
			CreatedAt:    s.CreatedAt,
		})
		if err != nil {
			return err
		}
		return r.events.Insert(ctx, tx, evt)
	})
	if err != nil {
		return syncgw.Schedule{}, err
	}
	return s, nil
}

func (r *Repository) GetSchedule(ctx context.Context, scheduleUUID string) (syncgw.Schedule, error) {
	var s syncgw.Schedule
	err := r.pool.QueryRow(ctx, `
		SELECT uuid::text, title, created_at, updated_at
		FROM schedules
		WHERE uuid = $1
	`, scheduleUUID).Scan(&s.UUID, &s.Title, &s.CreatedAt, &s.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return syncgw.Schedule{}, ErrNotFound
	}
	if err != nil {
		return syncgw.Schedule{}, err
	}
	s.ScheduleTimeslots = []syncgw.ScheduleTimeslot{}

	rows, err := r.pool.Query(ctx, `
		SELECT id, start_time, end_time, created_at, updated_at
		FROM schedule_timeslots
		WHERE schedule_uuid = $1
		ORDER BY start_time, id
	`, scheduleUUID)
	if err != nil {
		return syncgw.Schedule{}, err
	}
	defer rows.Close()

	for rows.Next() {
		var ts syncgw.ScheduleTimeslot
		if err := rows.Scan(&ts.ID, &ts.StartTime, &ts.EndTime, &ts.CreatedAt, &ts.UpdatedAt); err != nil {
			return syncgw.Schedule{}, err
		}
		s.ScheduleTimeslots = append(s.ScheduleTimeslots, ts)
	}
	if rows.Err() != nil {
		return syncgw.Schedule{}, rows.Err()
	}
	return s, nil
}

// GetScheduleWithAvailabilities returns the schedule plus every participant,
// oldest first.
func (r *Repository) GetScheduleWithAvailabilities(ctx context.Context, scheduleUUID string) (syncgw.ScheduleWithAvailabilities, error) {
	s, err := r.GetSchedule(ctx, scheduleUUID)
	if err != nil {
		return syncgw.ScheduleWithAvailabilities{}, err
	}
	out := syncgw.ScheduleWithAvailabilities{Schedule: s, Availabilities: []syncgw.Availability{}}

	rows, err := r.pool.Query(ctx, `
		SELECT id, guest_user_name, created_at, updated_at
		FROM availabilities
		WHERE schedule_uuid = $1
		ORDER BY created_at, id
	`, scheduleUUID)
	if err != nil {
		return out, err
	}
	index := map[int64]int{}
	for rows.Next() {
		a := syncgw.Availability{ScheduleUUID: scheduleUUID, AvailabilityTimeslots: []syncgw.AvailabilityTimeslot{}}
		if err := rows.Scan(&a.ID, &a.GuestUserName, &a.CreatedAt, &a.UpdatedAt); err != nil {
			rows.Close()
			return out, err
		}
		index[a.ID] = len(out.Availabilities)
		out.Availabilities = append(out.Availabilities, a)
	}
	rows.Close()
	if rows.Err() != nil {
		return out, rows.Err()
	}

	rows, err = r.pool.Query(ctx, `
		SELECT at.id, at.availability_id, at.schedule_timeslot_id, at.start_time, at.end_time
		FROM availability_timeslots at
		JOIN availabilities a ON a.id = at.availability_id
		WHERE a.schedule_uuid = $1
		ORDER BY at.start_time, at.id
	`, scheduleUUID)
	if err != nil {
		return out, err
	}
	defer rows.Close()
	for rows.Next() {
		var (
			at             syncgw.AvailabilityTimeslot
			availabilityID int64
		)
		if err := rows.Scan(&at.ID, &availabilityID, &at.ScheduleTimeslotID, &at.StartTime, &at.EndTime); err != nil {
			return out, err
		}
		i, ok := index[availabilityID]
		if !ok {
			continue
		}
		out.Availabilities[i].AvailabilityTimeslots = append(out.Availabilities[i].AvailabilityTimeslots, at)
	}
	if rows.Err() != nil {
		return out, rows.Err()
	}
	return out, nil
}

// SubmitAvailability validates the intervals against the schedule's timeslots
// and stores them under a new participant.
func (r *Repository) SubmitAvailability(ctx context.Context, req syncgw.SubmitAvailabilityRequest) (syncgw.Availability, error) {
	var a syncgw.Availability

	err := r.pool.InTx(ctx, func(tx pgx.Tx) error {
		var exists bool
		if err := tx.QueryRow(ctx, `
			SELECT EXISTS (SELECT 1 FROM schedules WHERE uuid = $1)
		`, req.ScheduleUUID).Scan(&exists); err != nil {
			return err
		}
		if !exists {
			return ErrNotFound
		}

		windows, err := loadWindows(ctx, tx, req.ScheduleUUID)
		if err != nil {
			return err
		}
		req, err = model.ValidateSubmission(req, windows)
		if err != nil {
			return err
		}

		a = syncgw.Availability{ScheduleUUID: req.ScheduleUUID, GuestUserName: req.GuestUserName}
		err = tx.QueryRow(ctx, `
			INSERT INTO availabilities (schedule_uuid, guest_user_name)
			VALUES ($1, $2)
			RETURNING id, created_at, updated_at
		`, req.ScheduleUUID, req.GuestUserName).Scan(&a.ID, &a.CreatedAt, &a.UpdatedAt)
		if db.IsUniqueViolation(err) {
			return ErrDuplicateName
		}
		if err != nil {
			return fmt.Errorf("insert availability: %w", err)
		}

		for _, at := range req.Timeslots {
			stored := syncgw.AvailabilityTimeslot{ScheduleTimeslotID: at.ScheduleTimeslotID, StartTime: at.StartTime, EndTime: at.EndTime}
			if err := tx.QueryRow(ctx, `
				INSERT INTO availability_timeslots (availability_id, schedule_timeslot_id, start_time, end_time)
				VALUES ($1, $2, $3, $4)
				RETURNING id
			`, a.ID, at.ScheduleTimeslotID, at.StartTime, at.EndTime).Scan(&stored.ID); err != nil {
				return fmt.Errorf("insert availability timeslot: %w", err)
			}
			a.AvailabilityTimeslots = append(a.AvailabilityTimeslots, stored)
		}

		evt, err := outbox.NewScheduleEvent(req.ScheduleUUID, syncgw.EventAvailabilitySubmitted, syncgw.AvailabilitySubmittedEvent{
			ScheduleUUID:   req.ScheduleUUID,
			AvailabilityID: a.ID,
			GuestUserName:  a.GuestUserName,
			Intervals:      len(a.AvailabilityTimeslots),
			SubmittedAt:    a.CreatedAt,
		})
		if err != nil {
			return err
		}
		return r.events.Insert(ctx, tx, evt)
	})
	if err != nil {
		return syncgw.Availability{}, err
	}
	return a, nil
}

func (r *Repository) DeleteParticipant(ctx context.Context, scheduleUUID string, availabilityID int64) error {
	return r.pool.InTx(ctx, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `
			DELETE FROM availabilities
			WHERE id = $1 AND schedule_uuid = $2
		`, availabilityID, scheduleUUID)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return ErrNotFound
		}

		evt, err := outbox.NewScheduleEvent(scheduleUUID, syncgw.EventParticipantDeleted, syncgw.ParticipantDeletedEvent{
			ScheduleUUID:   scheduleUUID,
			AvailabilityID: availabilityID,
			DeletedAt:      time.Now().UTC(),
		})
		if err != nil {
			return err
		}
		return r.events.Insert(ctx, tx, evt)
	})
}

// DeleteExpired removes schedules whose last timeslot ended before cutoff.
// Schedules without timeslots count from their creation time.
func (r *Repository) DeleteExpired(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := r.pool.Exec(ctx, `
		DELETE FROM schedules s
		WHERE COALESCE(
			(SELECT max(end_time) FROM schedule_timeslots t WHERE t.schedule_uuid = s.uuid),
			s.created_at
		) < $1
	`, cutoff)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func loadWindows(ctx context.Context, tx pgx.Tx, scheduleUUID string) (map[int64]model.Window, error) {
	rows, err := tx.Query(ctx, `
		SELECT id, start_time, end_time
		FROM schedule_timeslots
		WHERE schedule_uuid = $1
	`, scheduleUUID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	windows := map[int64]model.Window{}
	for rows.Next() {
		var (
			id int64
			w  model.Window
		)
		if err := rows.Scan(&id, &w.Start, &w.End); err != nil {
			return nil, err
		}
		windows[id] = w
	}
	return windows, rows.Err()
}
