package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"fintrack/internal/auth"
	"fintrack/internal/core"
	"fintrack/internal/store"
)

func TestFromErrorClassification(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"invalid amount", core.ErrInvalidAmount, http.StatusUnprocessableEntity, CodeValidation},
		{"empty description", fmt.Errorf("create transaction: %w", core.ErrEmptyDescription), http.StatusUnprocessableEntity, CodeValidation},
		{"invalid frequency", core.ErrInvalidFrequency, http.StatusUnprocessableEntity, CodeValidation},
		{"not found", fmt.Errorf("update transaction: %w", store.ErrNotFound), http.StatusNotFound, CodeNotFound},
		{"email in use", store.ErrEmailInUse, http.StatusBadRequest, auth.CodeEmailInUse},
		{"invalid credential", &auth.Error{Code: auth.CodeInvalidCredential, Message: "nope"}, http.StatusUnauthorized, auth.CodeInvalidCredential},
		{"weak password", &auth.Error{Code: auth.CodeWeakPassword, Message: "short"}, http.StatusBadRequest, auth.CodeWeakPassword},
		{"unknown", errors.New("disk on fire"), http.StatusInternalServerError, CodeRemoteOperation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			FromError(tt.err).Write(rec)

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			var env errorEnvelope
			if err := json.NewDecoder(rec.Body).Decode(&env); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if env.Error.Code != tt.wantCode {
				t.Errorf("code = %q, want %q", env.Error.Code, tt.wantCode)
			}
		})
	}
}

func TestResponseBuilder(t *testing.T) {
	rec := httptest.NewRecorder()
	NewJSONResponse().
		Status(http.StatusCreated).
		Header("Location", "/api/transactions/abc").
		Payload(map[string]string{"id": "abc"}).
		Write(rec)

	if rec.Code != http.StatusCreated {
		t.Errorf("status = %d", rec.Code)
	}
	if rec.Header().Get("Location") != "/api/transactions/abc" {
		t.Error("missing Location header")
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json; charset=utf-8" {
		t.Errorf("content type = %q", ct)
	}

	var body map[string]string
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["id"] != "abc" {
		t.Errorf("body = %v", body)
	}
}

func TestRequireMethod(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	if b := RequireMethod(req, http.MethodGet, http.MethodPost); b != nil {
		t.Error("expected nil for allowed method")
	}
	if b := RequireMethod(req, http.MethodPost); b == nil {
		t.Error("expected builder for disallowed method")
	}
}
