package event

import (
	"context"
	"encoding/json"
	"errors"
	"iter"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
)

type Scheduler interface {
	Create(ctx context.Context, name, category string, startTime time.Time, duration int) (Event, error)
	Update(ctx context.Context, req UpdateRequest) ([]UpdateOutcome, error)
	Delete(ctx context.Context, key string) error
	List() []Entry
	FilterByCategory(category string) iter.Seq2[string, Event]
}

type EventDTO struct {
	Key       string `json:"key"`
	Name      string `json:"name"`
	Category  string `json:"category"`
	StartTime string `json:"startTime"`
	Duration  int    `json:"duration"`
}

type UpdateRequestDTO struct {
	Keys      []string `json:"keys"`
	Name      string   `json:"name,omitempty"`
	Category  string   `json:"category,omitempty"`
	StartTime string   `json:"startTime,omitempty"`
	// Duration is "30", "+10" or "-10".
	Duration string `json:"duration,omitempty"`
}

type UpdateOutcomeDTO struct {
	Key          string    `json:"key"`
	Status       string    `json:"status"`
	Event        *EventDTO `json:"event,omitempty"`
	StartIgnored bool      `json:"startIgnored,omitempty"`
}

type ErrorResponse struct {
	Error     string     `json:"error"`
	Conflicts []EventDTO `json:"conflicts,omitempty"`
}

type Handler struct {
	scheduler Scheduler
}

func NewHandler(scheduler Scheduler) *Handler {
	return &Handler{scheduler: scheduler}
}

func (h *Handler) ListEvents(w http.ResponseWriter, r *http.Request) {
	var events []EventDTO
	if category := r.URL.Query().Get("category"); category != "" {
		log.Debugf("Filtering events by category %s", category)
		events = []EventDTO{}
		for key, e := range h.scheduler.FilterByCategory(category) {
			events = append(events, EventToDTO(key, e))
		}
	} else {
		entries := h.scheduler.List()
		events = make([]EventDTO, 0, len(entries))
		for _, entry := range entries {
			events = append(events, EventToDTO(entry.Key, entry.Event))
		}
	}
	writeJSON(w, http.StatusOK, events)
}

func (h *Handler) CreateEvent(w http.ResponseWriter, r *http.Request) {
	var dto EventDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "Invalid request body format"})
		return
	}
	startTime, err := ParseKey(dto.StartTime)
	if err != nil {
		writeError(w, err)
		return
	}

	created, err := h.scheduler.Create(r.Context(), dto.Name, dto.Category, startTime, dto.Duration)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, EventToDTO(created.Key(), created))
}

func (h *Handler) UpdateEvents(w http.ResponseWriter, r *http.Request) {
	var dto UpdateRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "Invalid request body format"})
		return
	}
	req, err := DTOToUpdateRequest(dto)
	if err != nil {
		writeError(w, err)
		return
	}

	outcomes, err := h.scheduler.Update(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}
	result := make([]UpdateOutcomeDTO, 0, len(outcomes))
	for _, o := range outcomes {
		oDTO := UpdateOutcomeDTO{Key: o.Key, Status: string(o.Status), StartIgnored: o.StartIgnored}
		if o.Status == OutcomeUpdated {
			eDTO := EventToDTO(o.Event.Key(), o.Event)
			oDTO.Event = &eDTO
		}
		result = append(result, oDTO)
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *Handler) DeleteEvent(w http.ResponseWriter, r *http.Request) {
	key := mux.Vars(r)["key"]
	if err := h.scheduler.Delete(r.Context(), key); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func EventToDTO(key string, e Event) EventDTO {
	return EventDTO{
		Key:       key,
		Name:      e.Name,
		Category:  e.Category,
		StartTime: e.StartTime.Format(KeyLayout),
		Duration:  e.Duration,
	}
}

func DTOToUpdateRequest(dto UpdateRequestDTO) (UpdateRequest, error) {
	req := UpdateRequest{
		Keys:     dto.Keys,
		Name:     dto.Name,
		Category: dto.Category,
	}
	if dto.StartTime != "" {
		start, err := ParseKey(dto.StartTime)
		if err != nil {
			return UpdateRequest{}, err
		}
		req.NewStart = &start
	}
	if dto.Duration != "" {
		n, mode, err := ParseDurationChange(dto.Duration)
		if err != nil {
			return UpdateRequest{}, err
		}
		req.Duration = &n
		req.Mode = mode
	}
	return req, nil
}

func writeError(w http.ResponseWriter, err error) {
	var conflict *ConflictError
	switch {
	case errors.As(err, &conflict):
		conflicts := make([]EventDTO, 0, len(conflict.Conflicts))
		for _, c := range conflict.Conflicts {
			conflicts = append(conflicts, EventToDTO(c.Key(), c))
		}
		writeJSON(w, http.StatusConflict, ErrorResponse{Error: ErrConflict.Error(), Conflicts: conflicts})
	case errors.Is(err, ErrValidation):
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: err.Error()})
	case errors.Is(err, ErrNotFound):
		writeJSON(w, http.StatusNotFound, ErrorResponse{Error: err.Error()})
	default:
		log.Errorf("request failed: %v", err)
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Errorf("failed to encode response: %v", err)
	}
}
