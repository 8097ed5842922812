package http

import (
	"encoding/json"
	"net/http"

	"fintrack/internal/core"
)

type categoryRequest struct {
	Name string `json:"name"`
}

type categoryJSON struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

func toCategoryList(cats []core.Category) []categoryJSON {
	out := make([]categoryJSON, len(cats))
	for i, c := range cats {
		out[i] = categoryJSON{ID: c.ID, Name: c.Name}
	}
	return out
}

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	cats, err := s.registry.List(r.Context(), identityFrom(r.Context()))
	if err != nil {
		FromError(err).Write(w)
		return
	}
	NewJSONResponse().Payload(toCategoryList(cats)).Write(w)
}

func (s *Server) handleCreateCategory(w http.ResponseWriter, r *http.Request) {
	var req categoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		ErrorResponse(http.StatusBadRequest, CodeValidation, "invalid request body").Write(w)
		return
	}

	cat, err := s.registry.Add(r.Context(), identityFrom(r.Context()), req.Name)
	if err != nil {
		FromError(err).Write(w)
		return
	}
	NewJSONResponse().Status(http.StatusCreated).Payload(categoryJSON{ID: cat.ID, Name: cat.Name}).Write(w)
}

func (s *Server) handleRenameCategory(w http.ResponseWriter, r *http.Request) {
	var req categoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		ErrorResponse(http.StatusBadRequest, CodeValidation, "invalid request body").Write(w)
		return
	}

	if err := s.registry.Rename(r.Context(), identityFrom(r.Context()), r.PathValue("id"), req.Name); err != nil {
		FromError(err).Write(w)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleDeleteCategory(w http.ResponseWriter, r *http.Request) {
	if err := s.registry.Delete(r.Context(), identityFrom(r.Context()), r.PathValue("id")); err != nil {
		FromError(err).Write(w)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
