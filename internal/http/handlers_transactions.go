package http

import (
	"encoding/json"
	"net/http"
	"time"

	"fintrack/internal/core"
	"fintrack/internal/store"
)

type transactionRequest struct {
	Amount      core.Money           `json:"amount"`
	Description string               `json:"description"`
	Category    string               `json:"category"`
	Type        core.TransactionType `json:"type"`
	Date        core.Date            `json:"date"`
}

type transactionJSON struct {
	ID          string               `json:"id"`
	Amount      core.Money           `json:"amount"`
	Description string               `json:"description"`
	Category    string               `json:"category"`
	Type        core.TransactionType `json:"type"`
	Date        core.Date            `json:"date"`
	CreatedAt   time.Time            `json:"createdAt"`
}

func toTransactionJSON(t core.Transaction) transactionJSON {
	return transactionJSON{
		ID:          t.ID,
		Amount:      t.Amount,
		Description: t.Description,
		Category:    t.Category,
		Type:        t.Type,
		Date:        t.Date,
		CreatedAt:   t.CreatedAt,
	}
}

func toTransactionList(txns []core.Transaction) []transactionJSON {
	out := make([]transactionJSON, len(txns))
	for i, t := range txns {
		out[i] = toTransactionJSON(t)
	}
	return out
}

func (r transactionRequest) fields() store.TransactionFields {
	return store.TransactionFields{
		Amount:      r.Amount,
		Description: r.Description,
		Category:    r.Category,
		Type:        r.Type,
		Date:        r.Date,
	}
}

// parseOrder reads ?orderBy= and ?dir= with newest-first defaults.
func parseOrder(r *http.Request) store.Order {
	order := store.Order{Field: store.OrderByDate, Direction: store.Descending}
	if r.URL.Query().Get("orderBy") == string(store.OrderByCreatedAt) {
		order.Field = store.OrderByCreatedAt
	}
	if r.URL.Query().Get("dir") == string(store.Ascending) {
		order.Direction = store.Ascending
	}
	return order
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	identity := identityFrom(r.Context())

	txns, err := s.txns.List(r.Context(), identity, parseOrder(r))
	if err != nil {
		FromError(err).Write(w)
		return
	}

	// Month partition filter; empty or absent means the full list.
	if month := r.URL.Query().Get("month"); month != "" {
		txns = core.FilterByPartition(txns, month)
	}

	NewJSONResponse().Payload(toTransactionList(txns)).Write(w)
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	var req transactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		ErrorResponse(http.StatusBadRequest, CodeValidation, "invalid request body").Write(w)
		return
	}

	id, err := s.txns.Create(r.Context(), identityFrom(r.Context()), req.fields())
	if err != nil {
		FromError(err).Write(w)
		return
	}

	NewJSONResponse().Status(http.StatusCreated).Payload(map[string]string{"id": id}).Write(w)
}

func (s *Server) handleUpdateTransaction(w http.ResponseWriter, r *http.Request) {
	var req transactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		ErrorResponse(http.StatusBadRequest, CodeValidation, "invalid request body").Write(w)
		return
	}

	if err := s.txns.Update(r.Context(), identityFrom(r.Context()), r.PathValue("id"), req.fields()); err != nil {
		FromError(err).Write(w)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	if err := s.txns.Delete(r.Context(), identityFrom(r.Context()), r.PathValue("id")); err != nil {
		FromError(err).Write(w)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleMonths(w http.ResponseWriter, r *http.Request) {
	keys, err := s.txns.Months(r.Context(), identityFrom(r.Context()))
	if err != nil {
		FromError(err).Write(w)
		return
	}

	selected := core.DefaultPartition(keys, r.URL.Query().Get("selected"))
	NewJSONResponse().Payload(map[string]any{
		"months":   keys,
		"selected": selected,
	}).Write(w)
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	txns, err := s.txns.Search(r.Context(), identityFrom(r.Context()), r.URL.Query().Get("q"))
	if err != nil {
		FromError(err).Write(w)
		return
	}
	NewJSONResponse().Payload(toTransactionList(txns)).Write(w)
}

func (s *Server) handleLedger(w http.ResponseWriter, r *http.Request) {
	asOf := core.DateOf(time.Now())
	if raw := r.URL.Query().Get("asOf"); raw != "" {
		parsed, err := core.ParseDate(raw)
		if err != nil {
			ErrorResponse(http.StatusUnprocessableEntity, CodeValidation, "asOf must be YYYY-MM-DD").Write(w)
			return
		}
		asOf = parsed
	}

	snap, err := s.txns.Ledger(r.Context(), identityFrom(r.Context()), asOf)
	if err != nil {
		FromError(err).Write(w)
		return
	}
	NewJSONResponse().Payload(snap).Write(w)
}
