package http

import (
	"encoding/json"
	"net/http"
	"time"

	"fintrack/internal/core"
	"fintrack/internal/store"
)

type recurringRequest struct {
	Amount      core.Money           `json:"amount"`
	Description string               `json:"description"`
	Category    string               `json:"category"`
	Type        core.TransactionType `json:"type"`
	Frequency   core.Frequency       `json:"frequency"`
	StartDate   core.Date            `json:"startDate"`
	Active      bool                 `json:"active"`
}

type recurringJSON struct {
	ID          string               `json:"id"`
	Amount      core.Money           `json:"amount"`
	Description string               `json:"description"`
	Category    string               `json:"category"`
	Type        core.TransactionType `json:"type"`
	Frequency   core.Frequency       `json:"frequency"`
	StartDate   core.Date            `json:"startDate"`
	Active      bool                 `json:"active"`
	LastRun     *time.Time           `json:"lastRun,omitempty"`
	CreatedAt   time.Time            `json:"createdAt"`
}

func toRecurringJSON(rule store.RecurringRule) recurringJSON {
	out := recurringJSON{
		ID:          rule.ID,
		Amount:      rule.Amount,
		Description: rule.Description,
		Category:    rule.Category,
		Type:        rule.Type,
		Frequency:   rule.Frequency,
		StartDate:   rule.StartDate,
		Active:      rule.Active,
		CreatedAt:   rule.CreatedAt,
	}
	if !rule.LastRun.IsZero() {
		lastRun := rule.LastRun
		out.LastRun = &lastRun
	}
	return out
}

func (r recurringRequest) fields() store.RecurringFields {
	return store.RecurringFields{
		Amount:      r.Amount,
		Description: r.Description,
		Category:    r.Category,
		Type:        r.Type,
		Frequency:   r.Frequency,
		StartDate:   r.StartDate,
		Active:      r.Active,
	}
}

func (s *Server) handleListRecurring(w http.ResponseWriter, r *http.Request) {
	rules, err := s.recurring.List(r.Context(), identityFrom(r.Context()))
	if err != nil {
		FromError(err).Write(w)
		return
	}

	out := make([]recurringJSON, len(rules))
	for i, rule := range rules {
		out[i] = toRecurringJSON(rule)
	}
	NewJSONResponse().Payload(out).Write(w)
}

func (s *Server) handleCreateRecurring(w http.ResponseWriter, r *http.Request) {
	var req recurringRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		ErrorResponse(http.StatusBadRequest, CodeValidation, "invalid request body").Write(w)
		return
	}

	id, err := s.recurring.Create(r.Context(), identityFrom(r.Context()), req.fields())
	if err != nil {
		FromError(err).Write(w)
		return
	}
	NewJSONResponse().Status(http.StatusCreated).Payload(map[string]string{"id": id}).Write(w)
}

func (s *Server) handleUpdateRecurring(w http.ResponseWriter, r *http.Request) {
	var req recurringRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		ErrorResponse(http.StatusBadRequest, CodeValidation, "invalid request body").Write(w)
		return
	}

	if err := s.recurring.Update(r.Context(), identityFrom(r.Context()), r.PathValue("id"), req.fields()); err != nil {
		FromError(err).Write(w)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleDeleteRecurring(w http.ResponseWriter, r *http.Request) {
	if err := s.recurring.Delete(r.Context(), identityFrom(r.Context()), r.PathValue("id")); err != nil {
		FromError(err).Write(w)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
