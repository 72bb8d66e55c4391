package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/groupslot/groupslot/libs/syncgw"
	"github.com/groupslot/groupslot/services/summary-service/internal/summary"
)

type Summaries interface {
	Get(ctx context.Context, scheduleUUID string) (summary.Summary, error)
}

type SummaryHandler struct {
	svc    Summaries
	logger *slog.Logger
}

func NewSummaryHandler(svc Summaries, logger *slog.Logger) *SummaryHandler {
	return &SummaryHandler{svc: svc, logger: logger}
}

func (h *SummaryHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /summaries/{uuid}", h.Get)
}

func (h *SummaryHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("uuid"))
	if err != nil {
		http.Error(w, "schedule uuid must be a valid uuid", http.StatusUnprocessableEntity)
		return
	}
	s, err := h.svc.Get(r.Context(), id.String())
	switch {
	case errors.Is(err, syncgw.ErrNotFound):
		http.Error(w, "schedule not found", http.StatusNotFound)
		return
	case err != nil:
		h.logger.Error("summary failed", "err", err, "schedule_uuid", id.String())
		http.Error(w, "summary unavailable", http.StatusBadGateway)
		return
	}

	body, err := json.Marshal(s)
	if err != nil {
		http.Error(w, "failed to build response", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}
