package program

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"eduops/internal/api"
	"eduops/internal/settlement"
)

type Handlers struct {
	Repo *Repository
}

func (h Handlers) List(w http.ResponseWriter, r *http.Request) {
	items, err := h.Repo.List(r.Context())
	if err != nil {
		api.WriteError(w, http.StatusInternalServerError, "INTERNAL", "internal error")
		return
	}
	if items == nil {
		items = []Program{}
	}
	api.WriteJSON(w, http.StatusOK, map[string]any{"items": items})
}

func (h Handlers) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		api.WriteError(w, http.StatusBadRequest, "VALIDATION_FAILED", "missing id")
		return
	}
	p, err := h.Repo.GetByID(r.Context(), id)
	if err != nil {
		api.WriteError(w, http.StatusNotFound, "NOT_FOUND", "program not found")
		return
	}
	api.WriteJSON(w, http.StatusOK, p)
}

type CreateRequest struct {
	Name        string `json:"name" validate:"required"`
	SchoolName  string `json:"schoolName"`
	SponsorName string `json:"sponsorName"`
	StartsOn    string `json:"startsOn" validate:"omitempty,datetime=2006-01-02"`
	EndsOn      string `json:"endsOn" validate:"omitempty,datetime=2006-01-02"`
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

	p, err := h.Repo.Insert(r.Context(), req.Name, req.SchoolName, req.SponsorName, req.StartsOn, req.EndsOn)
	if err != nil {
		api.WriteError(w, http.StatusInternalServerError, "INTERNAL", "internal error")
		return
	}
	api.WriteJSON(w, http.StatusCreated, p)
}

// PutSettlementRule validates the rule fail-closed before persisting, so a
// bad configuration can never be selected by a settlement later.
func (h Handlers) PutSettlementRule(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		api.WriteError(w, http.StatusBadRequest, "VALIDATION_FAILED", "missing id")
		return
	}

	var raw json.RawMessage
	if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
		api.WriteError(w, http.StatusBadRequest, "VALIDATION_FAILED", "invalid json")
		return
	}

	rule, err := settlement.ParseRule(raw)
	if err != nil {
		var verr settlement.ValidationError
		if errors.As(err, &verr) {
			api.WriteError(w, http.StatusUnprocessableEntity, verr.Code, verr.Message)
			return
		}
		api.WriteError(w, http.StatusBadRequest, "VALIDATION_FAILED", "invalid rule")
		return
	}

	// Re-encode the parsed rule so what's stored is normalized (version
	// defaulted, unknown fields dropped).
	normalized, err := json.Marshal(rule)
	if err != nil {
		api.WriteError(w, http.StatusInternalServerError, "INTERNAL", "internal error")
		return
	}

	p, err := h.Repo.SetSettlementRule(r.Context(), id, normalized)
	if err != nil {
		api.WriteError(w, http.StatusNotFound, "NOT_FOUND", "program not found")
		return
	}
	api.WriteJSON(w, http.StatusOK, p)
}
