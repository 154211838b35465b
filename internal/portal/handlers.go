package portal

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"eduops/internal/api"
	"eduops/internal/application"
	"eduops/internal/audit"
	"eduops/internal/history"
	"eduops/pkg/config"
	"eduops/pkg/db"
)

const tokenTTL = 30 * 24 * time.Hour

type Handlers struct {
	DB   *pgxpool.Pool
	Repo *Repository
	Apps *application.Repository
	Cfg  config.Config
}

// View renders the applicant-facing snapshot of an application: the record
// itself, its timeline, and enough program context to be self-explanatory.
func (h Handlers) View(w http.ResponseWriter, r *http.Request) {
	token := chi.URLParam(r, "token")
	if token == "" {
		api.WriteError(w, http.StatusBadRequest, "VALIDATION_FAILED", "missing token")
		return
	}

	now := time.Now()

	// Read-only view (no need for FOR UPDATE).
	const q = `
SELECT a.id, a.program_id, a.applicant_name, COALESCE(a.applicant_email,''), COALESCE(a.instructor_id::text,''),
       a.status, COALESCE(a.reason,''), a.submitted_at, a.reviewed_at, a.decided_at, a.reopened_via_override,
       a.created_at, a.updated_at,
       p.name, COALESCE(p.school_name,'')
FROM portal_tokens t
JOIN applications a ON a.id = t.application_id
JOIN programs p ON p.id = a.program_id
WHERE t.token = $1 AND t.revoked_at IS NULL AND t.expires_at > $2
`
	var rec application.Record
	var programName, schoolName string
	if err := h.DB.QueryRow(r.Context(), q, token, now).Scan(
		&rec.ID, &rec.ProgramID, &rec.ApplicantName, &rec.ApplicantEmail, &rec.InstructorID,
		&rec.Status, &rec.Reason, &rec.SubmittedAt, &rec.ReviewedAt, &rec.DecidedAt, &rec.ReopenedViaOverride,
		&rec.CreatedAt, &rec.UpdatedAt,
		&programName, &schoolName,
	); err != nil {
		api.WriteError(w, http.StatusNotFound, "NOT_FOUND", "portal link not found")
		return
	}

	timeline, err := history.ListByEntity(r.Context(), h.DB, application.EntityKind, rec.ID)
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
		"program": map[string]any{
			"name":       programName,
			"schoolName": schoolName,
		},
		"operator": map[string]any{
			"supportEmail": h.Cfg.PortalSupportEmail,
		},
	})
}

type WithdrawRequest struct {
	Note string `json:"note"`
}

// Withdraw lets the applicant cancel their own application while a decision
// is still open. After a decision the link stays usable as a read-only view.
func (h Handlers) Withdraw(w http.ResponseWriter, r *http.Request) {
	token := chi.URLParam(r, "token")
	if token == "" {
		api.WriteError(w, http.StatusBadRequest, "VALIDATION_FAILED", "missing token")
		return
	}

	var req WithdrawRequest
	_ = json.NewDecoder(r.Body).Decode(&req)

	now := time.Now()
	actor := "applicant"

	err := db.WithTx(r.Context(), h.DB, func(tx pgx.Tx) error {
		tr, err := GetActiveByTokenForUpdate(r.Context(), tx, token, now)
		if err != nil {
			api.WriteError(w, http.StatusNotFound, "NOT_FOUND", "portal link not found")
			return pgx.ErrTxCommitRollback
		}

		rec, err := application.GetForUpdate(r.Context(), tx, tr.ApplicationID)
		if err != nil {
			api.WriteError(w, http.StatusNotFound, "NOT_FOUND", "application not found")
			return pgx.ErrTxCommitRollback
		}

		// Cancellation branches off reviewing only, so a still-submitted
		// application is stepped into reviewing first. Both steps are machine
		// transitions and both land in the timeline.
		from := rec.Status
		if from == application.StatusSubmitted && application.Workflow.CanTransition(from, application.StatusReviewing) {
			if err := application.UpdateStatus(r.Context(), tx, rec.ID, application.StatusReviewing, "", now); err != nil {
				return err
			}
			stepMeta := map[string]any{"from": from, "to": application.StatusReviewing}
			_ = history.Insert(r.Context(), tx, application.EntityKind, rec.ID, "STATUS_CHANGED", "Status changed", actor, now, stepMeta)
			from = application.StatusReviewing
		}

		if !application.Workflow.CanTransition(from, application.StatusCancelled) {
			api.WriteError(w, http.StatusConflict, "INVALID_STATE_TRANSITION", "application can no longer be withdrawn")
			return pgx.ErrTxCommitRollback
		}

		reason := req.Note
		if reason == "" {
			reason = "withdrawn by applicant"
		}
		if err := application.UpdateStatus(r.Context(), tx, rec.ID, application.StatusCancelled, reason, now); err != nil {
			return err
		}

		meta := map[string]any{"from": from, "to": application.StatusCancelled, "reason": reason}
		_ = audit.Insert(r.Context(), tx, application.EntityKind, rec.ID, "WITHDRAWN", actor, meta)
		_ = history.Insert(r.Context(), tx, application.EntityKind, rec.ID, "WITHDRAWN", "Applicant withdrew the application", actor, now, meta)

		_ = tr // kept locked to prevent double-action races
		return nil
	})
	if err == pgx.ErrTxCommitRollback {
		return
	}
	if err != nil {
		api.WriteError(w, http.StatusInternalServerError, "INTERNAL", "internal error")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// IssueLink mints (or returns the still-active) applicant portal token for an
// application.
func (h Handlers) IssueLink(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		api.WriteError(w, http.StatusBadRequest, "VALIDATION_FAILED", "missing id")
		return
	}

	if _, err := h.Apps.GetByID(r.Context(), id); err != nil {
		api.WriteError(w, http.StatusNotFound, "NOT_FOUND", "application not found")
		return
	}

	now := time.Now()
	if tr, err := h.Repo.GetActiveByApplication(r.Context(), id, now); err == nil {
		api.WriteJSON(w, http.StatusOK, tr)
		return
	}

	actor := "system"
	if u := api.UserFromContext(r.Context()); u != nil {
		actor = u.Email
	}

	var issued *TokenRecord
	err := db.WithTx(r.Context(), h.DB, func(tx pgx.Tx) error {
		tr, err := InsertToken(r.Context(), tx, id, now.Add(tokenTTL))
		if err != nil {
			return err
		}
		issued = tr
		_ = audit.Insert(r.Context(), tx, application.EntityKind, id, "PORTAL_LINK_ISSUED", actor, map[string]any{"expiresAt": tr.ExpiresAt})
		return nil
	})
	if err != nil {
		api.WriteError(w, http.StatusInternalServerError, "INTERNAL", "internal error")
		return
	}

	api.WriteJSON(w, http.StatusCreated, issued)
}
