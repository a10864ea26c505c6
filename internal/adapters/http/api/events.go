package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/goccy/go-json"

	"github.com/jeffweisbein/roon-wrapped-sub000/internal/domain/model"
	"github.com/jeffweisbein/roon-wrapped-sub000/pkg/metrics"
)

// eventRequest is the wire shape for POST /events. EventID is optional; when
// present it drives idempotent redelivery handling.
type eventRequest struct {
	EventID   string `json:"event_id,omitempty"`
	Artist    string `json:"artist"`
	Album     string `json:"album,omitempty"`
	Title     string `json:"title,omitempty"`
	Timestamp int64  `json:"timestamp"`
	Duration  int64  `json:"duration,omitempty"`
}

func (e eventRequest) validate() error {
	switch {
	case strings.TrimSpace(e.Artist) == "":
		return errors.New("missing artist")
	case e.Timestamp <= 0:
		return errors.New("missing or invalid timestamp; epoch milliseconds required")
	}
	return nil
}

// dedupeID is the identity used for replay suppression: the caller's
// event_id when given, otherwise a content key. Two legitimate plays of the
// same track never share a millisecond timestamp, so the fallback only
// collapses redelivered copies of one listen.
func (e eventRequest) dedupeID() string {
	if e.EventID != "" {
		return e.EventID
	}
	return fmt.Sprintf("%s|%s|%d", e.Artist, e.Title, e.Timestamp)
}

func (e eventRequest) toModel() model.PlayEvent {
	return model.PlayEvent{
		Artist:    e.Artist,
		Album:     e.Album,
		Title:     e.Title,
		Timestamp: e.Timestamp,
		Duration:  e.Duration,
	}
}

// EventsHandler handles play event intake.
type EventsHandler struct {
	deps    Dependencies
	deduper Deduper
}

// NewEventsHandler creates an events handler.
func NewEventsHandler(deps Dependencies, deduper Deduper) *EventsHandler {
	return &EventsHandler{deps: deps, deduper: deduper}
}

// HandlePostEvent handles POST /events requests.
func (h *EventsHandler) HandlePostEvent(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_event"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req eventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}

	// Redelivery check; mark as seen first.
	id := req.dedupeID()
	if h.deduper.SeenAndRecord(r.Context(), id) {
		metrics.RecordEventDuplicate()
		writeJSON(w, http.StatusOK, ackResponse{Status: "duplicate", Duplicate: true})
		return
	}

	if ok := h.deps.Enqueue(r.Context(), req.toModel()); !ok {
		// Roll back the seen mark so the client can retry this delivery.
		h.deduper.Unrecord(r.Context(), id)
		writeError(w, http.StatusTooManyRequests, "backpressure", NewKind(op, ErrBackpressure))
		return
	}
	writeJSON(w, http.StatusAccepted, ackResponse{Status: "accepted", Duplicate: false})
}
