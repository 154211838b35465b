package schedule

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"eduops/internal/api"
)

type Handlers struct {
	Repo *Repository
}

func (h Handlers) List(w http.ResponseWriter, r *http.Request) {
	from := r.URL.Query().Get("from")
	to := r.URL.Query().Get("to")

	items, err := h.Repo.List(r.Context(), from, to)
	if err != nil {
		api.WriteError(w, http.StatusInternalServerError, "INTERNAL", "internal error")
		return
	}
	if items == nil {
		items = []Record{}
	}
	api.WriteJSON(w, http.StatusOK, map[string]any{"items": items})
}

func (h Handlers) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		api.WriteError(w, http.StatusBadRequest, "VALIDATION_FAILED", "missing id")
		return
	}
	rec, err := h.Repo.GetByID(r.Context(), id)
	if err != nil {
		api.WriteError(w, http.StatusNotFound, "NOT_FOUND", "schedule not found")
		return
	}
	api.WriteJSON(w, http.StatusOK, rec)
}

type UpsertRequest struct {
	ProgramID    string `json:"programId"`
	InstructorID string `json:"instructorId"`
	Title        string `json:"title" validate:"required"`
	Date         string `json:"date" validate:"required"`
	StartTime    string `json:"startTime" validate:"required"`
	EndTime      string `json:"endTime" validate:"required"`
	Location     string `json:"location"`
}

func (req UpsertRequest) candidate(id string) TimedEvent {
	return TimedEvent{
		ID:           id,
		Date:         req.Date,
		StartTime:    req.StartTime,
		EndTime:      req.EndTime,
		InstructorID: req.InstructorID,
	}
}

// Create inserts a schedule. Conflicts with the instructor's existing
// schedule are returned as a warning alongside the created record: the
// operator may knowingly double-book, the system only surfaces it.
func (h Handlers) Create(w http.ResponseWriter, r *http.Request) {
	var req UpsertRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.WriteError(w, http.StatusBadRequest, "VALIDATION_FAILED", "invalid json")
		return
	}
	if err := api.ValidateStruct(req); err != nil {
		api.WriteError(w, http.StatusBadRequest, "VALIDATION_FAILED", err.Error())
		return
	}
	candidate := req.candidate("")
	if err := candidate.ValidateTimes(); err != nil {
		api.WriteError(w, http.StatusBadRequest, "VALIDATION_FAILED", err.Error())
		return
	}

	conflicts, err := h.conflictsFor(r, candidate, "")
	if err != nil {
		api.WriteError(w, http.StatusInternalServerError, "INTERNAL", "internal error")
		return
	}

	rec, err := h.Repo.Insert(r.Context(), req.ProgramID, req.InstructorID, req.Title, req.Date, req.StartTime, req.EndTime, req.Location)
	if err != nil {
		api.WriteError(w, http.StatusInternalServerError, "INTERNAL", "internal error")
		return
	}

	api.WriteJSON(w, http.StatusCreated, map[string]any{
		"schedule":  rec,
		"conflicts": conflicts,
	})
}

func (h Handlers) Update(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		api.WriteError(w, http.StatusBadRequest, "VALIDATION_FAILED", "missing id")
		return
	}

	var req UpsertRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.WriteError(w, http.StatusBadRequest, "VALIDATION_FAILED", "invalid json")
		return
	}
	if err := api.ValidateStruct(req); err != nil {
		api.WriteError(w, http.StatusBadRequest, "VALIDATION_FAILED", err.Error())
		return
	}
	candidate := req.candidate(id)
	if err := candidate.ValidateTimes(); err != nil {
		api.WriteError(w, http.StatusBadRequest, "VALIDATION_FAILED", err.Error())
		return
	}

	// Exclude the stored version of the schedule under edit.
	conflicts, err := h.conflictsFor(r, candidate, id)
	if err != nil {
		api.WriteError(w, http.StatusInternalServerError, "INTERNAL", "internal error")
		return
	}

	rec, err := h.Repo.Update(r.Context(), id, req.ProgramID, req.InstructorID, req.Title, req.Date, req.StartTime, req.EndTime, req.Location)
	if err != nil {
		api.WriteError(w, http.StatusNotFound, "NOT_FOUND", "schedule not found")
		return
	}

	api.WriteJSON(w, http.StatusOK, map[string]any{
		"schedule":  rec,
		"conflicts": conflicts,
	})
}

func (h Handlers) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		api.WriteError(w, http.StatusBadRequest, "VALIDATION_FAILED", "missing id")
		return
	}
	if _, err := h.Repo.GetByID(r.Context(), id); err != nil {
		api.WriteError(w, http.StatusNotFound, "NOT_FOUND", "schedule not found")
		return
	}
	if err := h.Repo.Delete(r.Context(), id); err != nil {
		api.WriteError(w, http.StatusInternalServerError, "INTERNAL", "internal error")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Conflicts returns the batch conflict set over the requested range, for
// dashboard alerts and the calendar view. Recomputed per request; the
// snapshot is the store's current state.
func (h Handlers) Conflicts(w http.ResponseWriter, r *http.Request) {
	from := r.URL.Query().Get("from")
	to := r.URL.Query().Get("to")

	events, err := h.Repo.SnapshotEvents(r.Context(), from, to)
	if err != nil {
		api.WriteError(w, http.StatusInternalServerError, "INTERNAL", "internal error")
		return
	}

	api.WriteJSON(w, http.StatusOK, map[string]any{"conflictIds": FindConflicts(events)})
}

type CheckConflictsRequest struct {
	ScheduleID   string `json:"scheduleId"` // set when editing, to exclude the stored version
	InstructorID string `json:"instructorId"`
	Date         string `json:"date" validate:"required"`
	StartTime    string `json:"startTime" validate:"required"`
	EndTime      string `json:"endTime" validate:"required"`
}

// CheckConflicts validates a candidate event without committing anything.
// The matching form and the schedule form both call this before save.
func (h Handlers) CheckConflicts(w http.ResponseWriter, r *http.Request) {
	var req CheckConflictsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.WriteError(w, http.StatusBadRequest, "VALIDATION_FAILED", "invalid json")
		return
	}
	if err := api.ValidateStruct(req); err != nil {
		api.WriteError(w, http.StatusBadRequest, "VALIDATION_FAILED", err.Error())
		return
	}
	candidate := TimedEvent{
		ID:           req.ScheduleID,
		Date:         req.Date,
		StartTime:    req.StartTime,
		EndTime:      req.EndTime,
		InstructorID: req.InstructorID,
	}
	if err := candidate.ValidateTimes(); err != nil {
		api.WriteError(w, http.StatusBadRequest, "VALIDATION_FAILED", err.Error())
		return
	}

	conflicts, err := h.conflictsFor(r, candidate, req.ScheduleID)
	if err != nil {
		api.WriteError(w, http.StatusInternalServerError, "INTERNAL", "internal error")
		return
	}

	api.WriteJSON(w, http.StatusOK, map[string]any{"conflicts": conflicts})
}

func (h Handlers) conflictsFor(r *http.Request, candidate TimedEvent, excludeID string) ([]TimedEvent, error) {
	if candidate.InstructorID == "" {
		return []TimedEvent{}, nil
	}
	// A snapshot of the candidate's date is enough; conflicts never cross days.
	events, err := h.Repo.SnapshotEvents(r.Context(), candidate.Date, candidate.Date)
	if err != nil {
		return nil, err
	}
	conflicts := FindConflictsFor(candidate, events, excludeID)
	if conflicts == nil {
		conflicts = []TimedEvent{}
	}
	return conflicts, nil
}
