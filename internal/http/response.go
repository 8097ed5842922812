// Package http exposes the JSON API and the SSE snapshot streams.
//
// This file implements a builder for JSON responses and the mapping from
// domain errors to HTTP status codes and stable error codes.
package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"fintrack/internal/auth"
	"fintrack/internal/core"
	"fintrack/internal/store"
)

// Error codes carried in the response envelope.
const (
	CodeValidation      = "validation"
	CodeAuth            = "auth"
	CodeNotFound        = "not-found"
	CodeRemoteOperation = "remote-operation"
)

// JSONResponseBuilder provides a fluent API for building JSON responses.
type JSONResponseBuilder struct {
	statusCode int
	headers    map[string]string
	payload    any
}

// NewJSONResponse creates a new response builder with default 200 status.
func NewJSONResponse() *JSONResponseBuilder {
	return &JSONResponseBuilder{
		statusCode: http.StatusOK,
		headers:    make(map[string]string),
	}
}

// Status sets the HTTP status code for the response.
func (b *JSONResponseBuilder) Status(code int) *JSONResponseBuilder {
	b.statusCode = code
	return b
}

// Header adds a custom header to the response.
func (b *JSONResponseBuilder) Header(name, value string) *JSONResponseBuilder {
	b.headers[name] = value
	return b
}

// Payload sets the body, serialized as JSON on Write.
func (b *JSONResponseBuilder) Payload(v any) *JSONResponseBuilder {
	b.payload = v
	return b
}

// Write sends the built response to the http.ResponseWriter.
func (b *JSONResponseBuilder) Write(w http.ResponseWriter) {
	for name, value := range b.headers {
		w.Header().Set(name, value)
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(b.statusCode)
	if b.payload != nil {
		if err := json.NewEncoder(w).Encode(b.payload); err != nil {
			slog.Error("Failed to encode response payload", "error", err)
		}
	}
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type errorEnvelope struct {
	Error errorBody `json:"error"`
}

// ErrorResponse creates an error response with a stable code.
func ErrorResponse(statusCode int, code, message string) *JSONResponseBuilder {
	return NewJSONResponse().
		Status(statusCode).
		Payload(errorEnvelope{Error: errorBody{Code: code, Message: message}})
}

// MethodNotAllowedError creates a 405 response naming the allowed methods.
func MethodNotAllowedError(allowedMethods string) *JSONResponseBuilder {
	return ErrorResponse(http.StatusMethodNotAllowed, CodeValidation, "method not allowed").
		Header("Allow", allowedMethods)
}

var validationErrors = []error{
	core.ErrInvalidAmount,
	core.ErrEmptyDescription,
	core.ErrEmptyCategory,
	core.ErrInvalidType,
	core.ErrInvalidDate,
	core.ErrEmptyName,
	core.ErrInvalidFrequency,
}

// FromError classifies err into the API error taxonomy.
func FromError(err error) *JSONResponseBuilder {
	var ae *auth.Error
	if errors.As(err, &ae) {
		status := http.StatusBadRequest
		if ae.Code == auth.CodeInvalidCredential {
			status = http.StatusUnauthorized
		}
		return ErrorResponse(status, ae.Code, ae.Message)
	}

	if errors.Is(err, store.ErrNotFound) {
		return ErrorResponse(http.StatusNotFound, CodeNotFound, "record not found")
	}
	if errors.Is(err, store.ErrEmailInUse) {
		return ErrorResponse(http.StatusBadRequest, auth.CodeEmailInUse, "the email address is already in use by another account")
	}

	for _, sentinel := range validationErrors {
		if errors.Is(err, sentinel) {
			return ErrorResponse(http.StatusUnprocessableEntity, CodeValidation, sentinel.Error())
		}
	}

	return ErrorResponse(http.StatusInternalServerError, CodeRemoteOperation, "operation failed")
}

// RequireMethod checks the request method against the allowed set. Returns
// an error response builder when it does not match, nil otherwise.
func RequireMethod(r *http.Request, methods ...string) *JSONResponseBuilder {
	for _, m := range methods {
		if r.Method == m {
			return nil
		}
	}
	return MethodNotAllowedError(strings.Join(methods, ", "))
}
