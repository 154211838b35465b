package application

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"eduops/internal/adminaction"
	"eduops/internal/api"
	"eduops/internal/audit"
	"eduops/internal/history"
	"eduops/pkg/db"
)

const EntityKind = "application"

type Handlers struct {
	DB   *pgxpool.Pool
	Repo *Repository
}

func (h Handlers) List(w http.ResponseWriter, r *http.Request) {
	status := r.URL.Query().Get("status")
	if status != "" {
		if _, err := ParseStatus(status); err != nil {
			api.WriteError(w, http.StatusBadRequest, "VALIDATION_FAILED", "invalid status filter")
			return
		}
	}

	items, err := h.Repo.List(r.Context(), status)
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
		api.WriteError(w, http.StatusNotFound, "NOT_FOUND", "application not found")
		return
	}

	timeline, err := history.ListByEntity(r.Context(), h.DB, EntityKind, rec.ID)
	if err != nil {
		api.WriteError(w, http.StatusInternalServerError, "INTERNAL", "internal error")
		return
	}
	if timeline == nil {
		timeline = []history.Entry{}
	}

	api.WriteJSON(w, http.StatusOK, map[string]any{
		"application": rec,
		"history":     timeline,
	})
}

type CreateRequest struct {
	ProgramID      string `json:"programId" validate:"required,uuid"`
	ApplicantName  string `json:"applicantName" validate:"required"`
	ApplicantEmail string `json:"applicantEmail" validate:"omitempty,email"`
	InstructorID   string `json:"instructorId" validate:"omitempty,uuid"`
}

func (h Handlers) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.WriteError(w, http.StatusBadRequest, "VALIDATION_FAILED", "invalid json")
		return
	}
	if err := api.ValidateStruct(req); err != nil {
		api.WriteError(w, http.StatusBadRequest, "VALIDATION_FAILED", err.Error())
		return
	}

	now := time.Now()
	rec, err := h.Repo.Insert(r.Context(), req.ProgramID, req.ApplicantName, req.ApplicantEmail, req.InstructorID, now)
	if err != nil {
		api.WriteError(w, http.StatusInternalServerError, "INTERNAL", "internal error")
		return
	}

	actor := actorFrom(r)
	_ = db.WithTx(r.Context(), h.DB, func(tx pgx.Tx) error {
		return history.Insert(r.Context(), tx, EntityKind, rec.ID, "SUBMITTED", "Application submitted", actor, now, nil)
	})

	api.WriteJSON(w, http.StatusCreated, rec)
}

// Transitions exposes the machine to the UI: which action buttons to render
// and which one is the happy-path default.
func (h Handlers) Transitions(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		api.WriteError(w, http.StatusBadRequest, "VALIDATION_FAILED", "missing id")
		return
	}

	rec, err := h.Repo.GetByID(r.Context(), id)
	if err != nil {
		api.WriteError(w, http.StatusNotFound, "NOT_FOUND", "application not found")
		return
	}

	resp := map[string]any{
		"status":   rec.Status,
		"next":     Workflow.NextStatuses(rec.Status),
		"terminal": Workflow.IsTerminal(rec.Status),
	}
	if next, ok := Workflow.AutoAdvance(rec.Status); ok {
		resp["autoAdvance"] = next
	}
	api.WriteJSON(w, http.StatusOK, resp)
}

type PatchStatusRequest struct {
	Status string `json:"status"`
	Reason string `json:"reason,omitempty"`
}

func (h Handlers) PatchStatus(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		api.WriteError(w, http.StatusBadRequest, "VALIDATION_FAILED", "missing id")
		return
	}

	var req PatchStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.WriteError(w, http.StatusBadRequest, "VALIDATION_FAILED", "invalid json")
		return
	}

	next, err := ParseStatus(req.Status)
	if err != nil {
		api.WriteError(w, http.StatusBadRequest, "VALIDATION_FAILED", "invalid status")
		return
	}
	if requiresReason(next) && req.Reason == "" {
		api.WriteError(w, http.StatusBadRequest, "REASON_REQUIRED", "a reason is required for this transition")
		return
	}

	actor := actorFrom(r)
	err = db.WithTx(r.Context(), h.DB, func(tx pgx.Tx) error {
		rec, err := GetForUpdate(r.Context(), tx, id)
		if err != nil {
			return err
		}

		if !Workflow.CanTransition(rec.Status, next) {
			api.WriteError(w, http.StatusConflict, "INVALID_STATE_TRANSITION", "invalid state transition")
			return pgx.ErrTxCommitRollback
		}

		now := time.Now()
		if err := UpdateStatus(r.Context(), tx, rec.ID, next, req.Reason, now); err != nil {
			return err
		}

		meta := map[string]any{"from": rec.Status, "to": next}
		if req.Reason != "" {
			meta["reason"] = req.Reason
		}
		_ = audit.Insert(r.Context(), tx, EntityKind, rec.ID, "STATUS_CHANGED", actor, meta)
		_ = history.Insert(r.Context(), tx, EntityKind, rec.ID, "STATUS_CHANGED", "Status changed", actor, now, meta)

		return nil
	})

	if err != nil {
		if err == pgx.ErrTxCommitRollback {
			return
		}
		api.WriteError(w, http.StatusNotFound, "NOT_FOUND", "application not found")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

type OverrideRequest struct {
	ActionType string `json:"actionType"`
	Reason     string `json:"reason"`
}

// Override is the audited escape hatch out of terminal statuses. Only
// REOPEN_APPLICATION applies to this entity.
func (h Handlers) Override(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		api.WriteError(w, http.StatusBadRequest, "VALIDATION_FAILED", "missing id")
		return
	}

	var req OverrideRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.WriteError(w, http.StatusBadRequest, "VALIDATION_FAILED", "invalid json")
		return
	}
	if req.Reason == "" {
		api.WriteError(w, http.StatusBadRequest, "OVERRIDE_REASON_REQUIRED", "reason is required")
		return
	}
	if adminaction.ActionType(req.ActionType) != adminaction.ActionReopenApplication {
		api.WriteError(w, http.StatusBadRequest, "VALIDATION_FAILED", "invalid actionType")
		return
	}

	actor := actorFrom(r)
	err := db.WithTx(r.Context(), h.DB, func(tx pgx.Tx) error {
		rec, err := GetForUpdate(r.Context(), tx, id)
		if err != nil {
			return err
		}

		if !Workflow.IsTerminal(rec.Status) {
			api.WriteError(w, http.StatusConflict, "NOT_TERMINAL", "only decided applications can be reopened")
			return pgx.ErrTxCommitRollback
		}

		if err := Reopen(r.Context(), tx, rec.ID); err != nil {
			return err
		}

		now := time.Now()
		meta := map[string]any{"from": rec.Status, "to": StatusReviewing, "reason": req.Reason}
		_ = adminaction.Insert(r.Context(), tx, EntityKind, rec.ID, adminaction.ActionReopenApplication, req.Reason, actor, meta)
		_ = audit.Insert(r.Context(), tx, EntityKind, rec.ID, "ADMIN_OVERRIDE", actor, meta)
		_ = history.Insert(r.Context(), tx, EntityKind, rec.ID, "ADMIN_OVERRIDE", "Application reopened", actor, now, meta)

		return nil
	})

	if err != nil {
		if err == pgx.ErrTxCommitRollback {
			return
		}
		api.WriteError(w, http.StatusNotFound, "NOT_FOUND", "application not found")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h Handlers) History(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		api.WriteError(w, http.StatusBadRequest, "VALIDATION_FAILED", "missing id")
		return
	}
	if _, err := h.Repo.GetByID(r.Context(), id); err != nil {
		api.WriteError(w, http.StatusNotFound, "NOT_FOUND", "application not found")
		return
	}

	items, err := history.ListByEntity(r.Context(), h.DB, EntityKind, id)
	if err != nil {
		api.WriteError(w, http.StatusInternalServerError, "INTERNAL", "internal error")
		return
	}
	if items == nil {
		items = []history.Entry{}
	}
	api.WriteJSON(w, http.StatusOK, map[string]any{"items": items})
}

func actorFrom(r *http.Request) string {
	if u := api.UserFromContext(r.Context()); u != nil {
		return u.Email
	}
	return "system"
}
