package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/okian/standings/internal/domain/dedupe"
	"github.com/okian/standings/internal/domain/model"
)

const maxEventBodyBytes = 1 << 16

// EventDependencies defines the interface for event processing dependencies.
type EventDependencies interface {
	dedupe.Deduper
	Enqueue(ctx context.Context, e model.Event) bool
}

// EventsHandler handles event requests.
type EventsHandler struct {
	deps EventDependencies
}

// NewEventsHandler creates a new events handler.
func NewEventsHandler(deps EventDependencies) *EventsHandler {
	return &EventsHandler{deps: deps}
}

// eventRequest mirrors the OpenAPI schema for POST /events.
type eventRequest struct {
	EventID     string `json:"event_id"`
	SubjectID   string `json:"subject_id"`
	SubjectName string `json:"subject_name"`
	Kind        string `json:"kind"`
	Amount      uint64 `json:"amount"`
	TS          string `json:"ts"`
}

// toEvent validates the request and converts it to a model.Event.
func (e eventRequest) toEvent() (model.Event, error) {
	switch {
	case strings.TrimSpace(e.EventID) == "":
		return model.Event{}, errors.New("missing event_id")
	case strings.TrimSpace(e.SubjectID) == "":
		return model.Event{}, errors.New("missing subject_id")
	case strings.TrimSpace(e.Kind) == "":
		return model.Event{}, errors.New("missing kind")
	case strings.TrimSpace(e.TS) == "":
		return model.Event{}, errors.New("missing ts")
	case e.Amount > model.MaxAmount:
		return model.Event{}, fmt.Errorf("amount must not exceed %d", model.MaxAmount)
	}
	id, err := uuid.Parse(e.SubjectID)
	if err != nil {
		return model.Event{}, errors.New("invalid subject_id; must be a UUID")
	}
	kind, err := model.ParseKind(e.Kind)
	if err != nil {
		return model.Event{}, err
	}
	ts, err := time.Parse(time.RFC3339, e.TS)
	if err != nil {
		return model.Event{}, errors.New("invalid ts; must be RFC3339")
	}
	return model.Event{
		EventID: e.EventID,
		Subject: model.Subject{ID: id, Name: e.SubjectName},
		Kind:    kind,
		Amount:  e.Amount,
		TS:      ts,
	}, nil
}

type ackResponse struct {
	Status    string `json:"status"`
	Duplicate bool   `json:"duplicate"`
}

// HandlePostEvent handles POST /events requests.
func (h *EventsHandler) HandlePostEvent(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_event"

	var req eventRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxEventBodyBytes))
	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	ev, err := req.toEvent()
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}

	// Idempotency check - mark as seen first
	if h.deps.SeenAndRecord(r.Context(), ev.EventID) {
		writeJSON(w, http.StatusOK, ackResponse{Status: "duplicate", Duplicate: true})
		return
	}

	if ok := h.deps.Enqueue(r.Context(), ev); !ok {
		// Rollback the "seen" status since enqueue failed
		h.deps.Unrecord(r.Context(), ev.EventID)
		writeError(w, http.StatusTooManyRequests, "backpressure", NewKind(op, ErrBackpressure))
		return
	}
	writeJSON(w, http.StatusAccepted, ackResponse{Status: "accepted", Duplicate: false})
}
