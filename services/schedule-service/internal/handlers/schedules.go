package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/groupslot/groupslot/libs/availability"
	"github.com/groupslot/groupslot/libs/syncgw"
	"github.com/groupslot/groupslot/services/schedule-service/internal/calendar"
	"github.com/groupslot/groupslot/services/schedule-service/internal/model"
	"github.com/groupslot/groupslot/services/schedule-service/internal/recurrence"
	"github.com/groupslot/groupslot/services/schedule-service/internal/storage"
)

// Store is the persistence the handlers need; *storage.Repository implements it.
type Store interface {
	CreateSchedule(ctx context.Context, title string, windows []syncgw.TimeslotInput) (syncgw.Schedule, error)
	GetSchedule(ctx context.Context, scheduleUUID string) (syncgw.Schedule, error)
	GetScheduleWithAvailabilities(ctx context.Context, scheduleUUID string) (syncgw.ScheduleWithAvailabilities, error)
	SubmitAvailability(ctx context.Context, req syncgw.SubmitAvailabilityRequest) (syncgw.Availability, error)
	DeleteParticipant(ctx context.Context, scheduleUUID string, availabilityID int64) error
}

type ScheduleHandler struct {
	store  Store
	logger *slog.Logger
	now    func() time.Time
}

func NewScheduleHandler(store Store, logger *slog.Logger) *ScheduleHandler {
	return &ScheduleHandler{store: store, logger: logger, now: time.Now}
}

func (h *ScheduleHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /schedules", h.Create)
	mux.HandleFunc("GET /schedules/{uuid}", h.Get)
	mux.HandleFunc("GET /schedules/{uuid}/with-availabilities", h.GetWithAvailabilities)
	mux.HandleFunc("GET /schedules/{uuid}/common.ics", h.CommonCalendar)
	mux.HandleFunc("POST /availabilities", h.SubmitAvailability)
	mux.HandleFunc("DELETE /availabilities/{id}", h.DeleteParticipant)
}

func (h *ScheduleHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req syncgw.CreateScheduleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}

	req, ignored, err := model.NormalizeCreate(req)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if len(req.Timeslots) > model.MaxTimeslots {
		http.Error(w, model.ErrTooManyTimeslots.Error(), http.StatusBadRequest)
		return
	}
	windows, capped, err := recurrence.Expand(req.Timeslots, req.Repeat, model.MaxTimeslots)
	if err != nil {
		http.Error(w, "invalid repeat rule", http.StatusBadRequest)
		return
	}
	if capped {
		h.logger.Warn("repeat expansion capped", "limit", model.MaxTimeslots, "repeat", req.Repeat)
	}

	s, err := h.store.CreateSchedule(r.Context(), req.Title, windows)
	if err != nil {
		h.logger.Error("create schedule failed", "err", err)
		http.Error(w, "failed to create schedule", http.StatusInternalServerError)
		return
	}
	s.Ignored = ignored
	h.logger.Info("schedule created", "schedule_uuid", s.UUID, "timeslots", len(s.ScheduleTimeslots), "ignored", ignored)
	writeJSON(w, http.StatusCreated, s)
}

func (h *ScheduleHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := scheduleUUID(w, r.PathValue("uuid"))
	if !ok {
		return
	}
	s, err := h.store.GetSchedule(r.Context(), id)
	if err != nil {
		h.writeStoreError(w, err, "load schedule")
		return
	}
	writeJSON(w, http.StatusOK, s)
}

func (h *ScheduleHandler) GetWithAvailabilities(w http.ResponseWriter, r *http.Request) {
	id, ok := scheduleUUID(w, r.PathValue("uuid"))
	if !ok {
		return
	}
	s, err := h.store.GetScheduleWithAvailabilities(r.Context(), id)
	if err != nil {
		h.writeStoreError(w, err, "load schedule")
		return
	}
	writeJSON(w, http.StatusOK, s)
}

// CommonCalendar exports the intervals every participant shares as iCalendar.
func (h *ScheduleHandler) CommonCalendar(w http.ResponseWriter, r *http.Request) {
	id, ok := scheduleUUID(w, r.PathValue("uuid"))
	if !ok {
		return
	}
	snap, err := h.store.GetScheduleWithAvailabilities(r.Context(), id)
	if err != nil {
		h.writeStoreError(w, err, "load schedule")
		return
	}

	timeslots, overlays, participants := snap.StoreInputs()
	store := availability.NewStore()
	store.LoadConfirmed(snap.UUID, timeslots, overlays, participants)

	names := make([]string, 0, len(participants))
	for _, p := range participants {
		names = append(names, p.Name)
	}
	body := calendar.Export{
		ScheduleUUID: snap.UUID,
		Title:        snap.Title,
		Participants: names,
		Common:       store.CommonAvailability(),
		GeneratedAt:  h.now(),
	}.Render()

	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+snap.UUID+`.ics"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(body))
}

func (h *ScheduleHandler) SubmitAvailability(w http.ResponseWriter, r *http.Request) {
	var req syncgw.SubmitAvailabilityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	id, ok := scheduleUUID(w, req.ScheduleUUID)
	if !ok {
		return
	}
	req.ScheduleUUID = id

	a, err := h.store.SubmitAvailability(r.Context(), req)
	if err != nil {
		h.writeStoreError(w, err, "submit availability")
		return
	}
	h.logger.Info("availability submitted", "schedule_uuid", id, "availability_id", a.ID, "intervals", len(a.AvailabilityTimeslots))
	writeJSON(w, http.StatusCreated, a)
}

func (h *ScheduleHandler) DeleteParticipant(w http.ResponseWriter, r *http.Request) {
	availabilityID, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || availabilityID <= 0 {
		http.Error(w, "invalid availability id", http.StatusBadRequest)
		return
	}
	id, ok := scheduleUUID(w, r.URL.Query().Get("schedule_uuid"))
	if !ok {
		return
	}
	if err := h.store.DeleteParticipant(r.Context(), id, availabilityID); err != nil {
		h.writeStoreError(w, err, "delete participant")
		return
	}
	h.logger.Info("participant deleted", "schedule_uuid", id, "availability_id", availabilityID)
	w.WriteHeader(http.StatusNoContent)
}

func (h *ScheduleHandler) writeStoreError(w http.ResponseWriter, err error, op string) {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		http.Error(w, "schedule not found", http.StatusNotFound)
	case errors.Is(err, storage.ErrDuplicateName):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, model.ErrInvalid):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		h.logger.Error(op+" failed", "err", err)
		http.Error(w, "failed to "+op, http.StatusInternalServerError)
	}
}

// scheduleUUID answers 422 for anything that is not a uuid, so the store is
// never asked about malformed ids.
func scheduleUUID(w http.ResponseWriter, raw string) (string, bool) {
	id, err := uuid.Parse(raw)
	if err != nil {
		http.Error(w, "schedule uuid must be a valid uuid", http.StatusUnprocessableEntity)
		return "", false
	}
	return id.String(), true
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		http.Error(w, "failed to build response", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_, _ = w.Write(body)
}
