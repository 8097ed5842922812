package http

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"
)

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type sessionResponse struct {
	Token     string    `json:"token"`
	Identity  string    `json:"identity"`
	ExpiresAt time.Time `json:"expiresAt"`
}

func (s *Server) handleSignUp(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		ErrorResponse(http.StatusBadRequest, CodeValidation, "invalid request body").Write(w)
		return
	}

	sess, err := s.auth.SignUp(r.Context(), req.Email, req.Password)
	if err != nil {
		FromError(err).Write(w)
		return
	}

	// A fresh account gets the default category set before the first
	// response, so its first category snapshot is never empty.
	if _, err := s.registry.EnsureDefaults(r.Context(), sess.Identity); err != nil {
		slog.ErrorContext(r.Context(), "Failed to seed default categories",
			"identity", sess.Identity,
			"error", err)
	}

	NewJSONResponse().Status(http.StatusCreated).Payload(sessionResponse{
		Token:     sess.Token,
		Identity:  sess.Identity,
		ExpiresAt: sess.ExpiresAt,
	}).Write(w)
}

func (s *Server) handleSignIn(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		ErrorResponse(http.StatusBadRequest, CodeValidation, "invalid request body").Write(w)
		return
	}

	sess, err := s.auth.SignIn(r.Context(), req.Email, req.Password)
	if err != nil {
		FromError(err).Write(w)
		return
	}

	// Seeding is idempotent; accounts that predate the default set pick it
	// up on their next sign-in.
	if _, err := s.registry.EnsureDefaults(r.Context(), sess.Identity); err != nil {
		slog.ErrorContext(r.Context(), "Failed to seed default categories",
			"identity", sess.Identity,
			"error", err)
	}

	NewJSONResponse().Payload(sessionResponse{
		Token:     sess.Token,
		Identity:  sess.Identity,
		ExpiresAt: sess.ExpiresAt,
	}).Write(w)
}

func (s *Server) handleSignOut(w http.ResponseWriter, r *http.Request) {
	token := bearerToken(r)
	if token == "" {
		ErrorResponse(http.StatusUnauthorized, CodeAuth, "authentication required").Write(w)
		return
	}

	if err := s.auth.SignOut(r.Context(), token); err != nil {
		FromError(err).Write(w)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
