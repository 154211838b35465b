package settlement

import (
	"context"
	"encoding/json"
	"errors"
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

const EntityKind = "settlement"

// RuleSource yields a program's settlement rule configuration. Satisfied by
// program.Repository; an interface here keeps this package independent of the
// program package.
type RuleSource interface {
	RuleForProgram(ctx context.Context, programID string) (json.RawMessage, error)
}

type Handlers struct {
	DB       *pgxpool.Pool
	Repo     *Repository
	Programs RuleSource
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
		api.WriteError(w, http.StatusNotFound, "NOT_FOUND", "settlement not found")
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
		"settlement": rec,
		"history":    timeline,
	})
}

type CreateRequest struct {
	ProgramID    string `json:"programId" validate:"required,uuid"`
	InstructorID string `json:"instructorId" validate:"required,uuid"`
	Period       string `json:"period" validate:"required,datetime=2006-01"`
	Input        Input  `json:"input"`
}

// Create opens a settlement case, snapshotting the program's rule. The rule
// is re-validated here so a settlement can never be created against a
// configuration the calculator would reject later.
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
	if err := req.Input.Validate(); err != nil {
		var verr ValidationError
		if errors.As(err, &verr) {
			api.WriteError(w, http.StatusBadRequest, verr.Code, verr.Message)
			return
		}
		api.WriteError(w, http.StatusBadRequest, "VALIDATION_FAILED", "invalid input")
		return
	}

	raw, err := h.Programs.RuleForProgram(r.Context(), req.ProgramID)
	if err != nil {
		api.WriteError(w, http.StatusNotFound, "NOT_FOUND", "program not found")
		return
	}
	if len(raw) == 0 {
		api.WriteError(w, http.StatusUnprocessableEntity, "RULE_MISSING", "program has no settlement rule configured")
		return
	}
	if _, err := ParseRule(raw); err != nil {
		var verr ValidationError
		if errors.As(err, &verr) {
			api.WriteError(w, http.StatusUnprocessableEntity, verr.Code, verr.Message)
			return
		}
		api.WriteError(w, http.StatusUnprocessableEntity, "RULE_INVALID", "program settlement rule is invalid")
		return
	}

	rec, err := h.Repo.Insert(r.Context(), req.ProgramID, req.InstructorID, req.Period, raw, req.Input)
	if err != nil {
		api.WriteError(w, http.StatusInternalServerError, "INTERNAL", "internal error")
		return
	}

	actor := actorFrom(r)
	now := time.Now()
	_ = db.WithTx(r.Context(), h.DB, func(tx pgx.Tx) error {
		return history.Insert(r.Context(), tx, EntityKind, rec.ID, "CREATED", "Settlement opened", actor, now, nil)
	})

	api.WriteJSON(w, http.StatusCreated, rec)
}

type PreviewRequest struct {
	ProgramID string `json:"programId" validate:"required,uuid"`
	Input     Input  `json:"input"`
}

// Preview runs the calculator without persisting anything, for the authoring
// form's live breakdown.
func (h Handlers) Preview(w http.ResponseWriter, r *http.Request) {
	var req PreviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.WriteError(w, http.StatusBadRequest, "VALIDATION_FAILED", "invalid json")
		return
	}
	if err := api.ValidateStruct(req); err != nil {
		api.WriteError(w, http.StatusBadRequest, "VALIDATION_FAILED", err.Error())
		return
	}
	if err := req.Input.Validate(); err != nil {
		var verr ValidationError
		if errors.As(err, &verr) {
			api.WriteError(w, http.StatusBadRequest, verr.Code, verr.Message)
			return
		}
		api.WriteError(w, http.StatusBadRequest, "VALIDATION_FAILED", "invalid input")
		return
	}

	raw, err := h.Programs.RuleForProgram(r.Context(), req.ProgramID)
	if err != nil {
		api.WriteError(w, http.StatusNotFound, "NOT_FOUND", "program not found")
		return
	}
	if len(raw) == 0 {
		api.WriteError(w, http.StatusUnprocessableEntity, "RULE_MISSING", "program has no settlement rule configured")
		return
	}
	rule, err := ParseRule(raw)
	if err != nil {
		var verr ValidationError
		if errors.As(err, &verr) {
			api.WriteError(w, http.StatusUnprocessableEntity, verr.Code, verr.Message)
			return
		}
		api.WriteError(w, http.StatusUnprocessableEntity, "RULE_INVALID", "program settlement rule is invalid")
		return
	}

	api.WriteJSON(w, http.StatusOK, Calculate(rule, req.Input))
}

func (h Handlers) Transitions(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		api.WriteError(w, http.StatusBadRequest, "VALIDATION_FAILED", "missing id")
		return
	}

	rec, err := h.Repo.GetByID(r.Context(), id)
	if err != nil {
		api.WriteError(w, http.StatusNotFound, "NOT_FOUND", "settlement not found")
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
	if next == StatusCancelled && req.Reason == "" {
		api.WriteError(w, http.StatusBadRequest, "REASON_REQUIRED", "cancellation requires a reason")
		return
	}

	h.applyTransition(w, r, id, next, req.Reason)
}

// Calculate is shorthand for the pending -> calculated transition; the
// authoring UI exposes it as its own button.
func (h Handlers) Calculate(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		api.WriteError(w, http.StatusBadRequest, "VALIDATION_FAILED", "missing id")
		return
	}
	h.applyTransition(w, r, id, StatusCalculated, "")
}

func (h Handlers) applyTransition(w http.ResponseWriter, r *http.Request, id string, next Status, reason string) {
	actor := actorFrom(r)
	err := db.WithTx(r.Context(), h.DB, func(tx pgx.Tx) error {
		rec, err := GetForUpdate(r.Context(), tx, id)
		if err != nil {
			return err
		}

		if !Workflow.CanTransition(rec.Status, next) {
			api.WriteError(w, http.StatusConflict, "INVALID_STATE_TRANSITION", "invalid state transition")
			return pgx.ErrTxCommitRollback
		}

		now := time.Now()

		// Side effect: entering calculated runs the calculator over the
		// snapshot and persists the breakdown.
		if next == StatusCalculated {
			rule, err := ParseRule(rec.Rule)
			if err != nil {
				// Snapshot was validated at creation; a failure here means the
				// stored snapshot was tampered with or predates validation.
				api.WriteError(w, http.StatusUnprocessableEntity, "RULE_INVALID", "stored settlement rule is invalid")
				return pgx.ErrTxCommitRollback
			}
			breakdown := Calculate(rule, rec.Input)
			if err := StoreCalculation(r.Context(), tx, rec.ID, breakdown, now); err != nil {
				return err
			}
		} else {
			if err := UpdateStatus(r.Context(), tx, rec.ID, next, reason, now); err != nil {
				return err
			}
		}

		meta := map[string]any{"from": rec.Status, "to": next}
		if reason != "" {
			meta["reason"] = reason
		}
		_ = audit.Insert(r.Context(), tx, EntityKind, rec.ID, "STATUS_CHANGED", actor, meta)
		_ = history.Insert(r.Context(), tx, EntityKind, rec.ID, "STATUS_CHANGED", "Status changed", actor, now, meta)

		return nil
	})

	if err != nil {
		if err == pgx.ErrTxCommitRollback {
			return
		}
		api.WriteError(w, http.StatusNotFound, "NOT_FOUND", "settlement not found")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

type OverrideRequest struct {
	ActionType string `json:"actionType"`
	Reason     string `json:"reason"`
}

// Override records payment without the approval step, for settlements paid
// manually outside the system. Requires a reason and a prior calculation.
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
	if adminaction.ActionType(req.ActionType) != adminaction.ActionMarkSettlementPaid {
		api.WriteError(w, http.StatusBadRequest, "VALIDATION_FAILED", "invalid actionType")
		return
	}

	actor := actorFrom(r)
	err := db.WithTx(r.Context(), h.DB, func(tx pgx.Tx) error {
		rec, err := GetForUpdate(r.Context(), tx, id)
		if err != nil {
			return err
		}

		switch rec.Status {
		case StatusPaid:
			api.WriteError(w, http.StatusConflict, "SETTLEMENT_ALREADY_PAID", "settlement already paid")
			return pgx.ErrTxCommitRollback
		case StatusCancelled:
			api.WriteError(w, http.StatusConflict, "SETTLEMENT_CANCELLED", "settlement is cancelled")
			return pgx.ErrTxCommitRollback
		case StatusPending:
			api.WriteError(w, http.StatusConflict, "NOT_CALCULATED", "settlement has no calculated amount to pay")
			return pgx.ErrTxCommitRollback
		}

		now := time.Now()
		if err := MarkPaidOverride(r.Context(), tx, rec.ID, now); err != nil {
			return err
		}

		meta := map[string]any{"from": rec.Status, "to": StatusPaid, "reason": req.Reason}
		_ = adminaction.Insert(r.Context(), tx, EntityKind, rec.ID, adminaction.ActionMarkSettlementPaid, req.Reason, actor, meta)
		_ = audit.Insert(r.Context(), tx, EntityKind, rec.ID, "ADMIN_OVERRIDE", actor, meta)
		_ = history.Insert(r.Context(), tx, EntityKind, rec.ID, "ADMIN_OVERRIDE", "Marked paid via override", actor, now, meta)

		return nil
	})

	if err != nil {
		if err == pgx.ErrTxCommitRollback {
			return
		}
		api.WriteError(w, http.StatusNotFound, "NOT_FOUND", "settlement not found")
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
		api.WriteError(w, http.StatusNotFound, "NOT_FOUND", "settlement not found")
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
