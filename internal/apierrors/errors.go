// Package apierrors provides structured API error handling.
package apierrors

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/ecotrack/backend/internal/correlation"
)

// APIError represents a structured API error.
type APIError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	StatusCode int    `json:"-"`
	Details    any    `json:"details,omitempty"`
	RequestID  string `json:"request_id,omitempty"`
}

func (e *APIError) Error() string {
	return e.Message
}

// Write writes the error response.
func (e *APIError) Write(w http.ResponseWriter, r *http.Request) {
	e.RequestID = correlation.GetID(r.Context())

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(e.StatusCode)
	json.NewEncoder(w).Encode(e)
}

func newError(status int, code, message string) *APIError {
	return &APIError{Code: code, Message: message, StatusCode: status}
}

func NewBadRequestError(message string) *APIError {
	return newError(http.StatusBadRequest, "BAD_REQUEST", message)
}

func NewUnauthorizedError(message string) *APIError {
	return newError(http.StatusUnauthorized, "UNAUTHORIZED", message)
}

func NewForbiddenError(message string) *APIError {
	return newError(http.StatusForbidden, "FORBIDDEN", message)
}

// NewNotFoundError reports a missing resource; id may be empty.
func NewNotFoundError(resource, id string) *APIError {
	e := newError(http.StatusNotFound, "NOT_FOUND", resource+" not found")
	if id != "" {
		e.Details = map[string]string{"id": id}
	}
	return e
}

func NewValidationError(message string, details any) *APIError {
	e := newError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", message)
	e.Details = details
	return e
}

func NewInternalError(message string) *APIError {
	return newError(http.StatusInternalServerError, "INTERNAL_ERROR", message)
}

func NewRateLimitError() *APIError {
	return newError(http.StatusTooManyRequests, "RATE_LIMIT_EXCEEDED", "Rate limit exceeded, please try again later")
}

// FromError converts a standard error to an APIError.
func FromError(err error) *APIError {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr
	}
	return NewInternalError("An unexpected error occurred")
}

// Recoverer turns a panic into a logged 500 response.
func Recoverer(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil || rec == http.ErrAbortHandler {
					if rec != nil {
						panic(rec)
					}
					return
				}
				correlation.Logger(r.Context(), logger).Error("panic recovered",
					"error", fmt.Sprint(rec), "path", r.URL.Path, "stack", string(debug.Stack()))
				NewInternalError("Internal server error").Write(w, r)
			}()
			next.ServeHTTP(w, r)
		})
	}
}
