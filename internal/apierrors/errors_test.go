package apierrors

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ecotrack/backend/internal/correlation"
)

func TestWriteIncludesRequestID(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req = req.WithContext(correlation.WithID(req.Context(), "cid-9"))
	rec := httptest.NewRecorder()

	NewNotFoundError("User", "").Write(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
	var body APIError
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if body.Code != "NOT_FOUND" || body.Message != "User not found" || body.RequestID != "cid-9" {
		t.Fatalf("body = %+v", body)
	}
	if body.Details != nil {
		t.Fatalf("details = %v, want none for empty id", body.Details)
	}
}

func TestFromError(t *testing.T) {
	wrapped := fmt.Errorf("handler: %w", NewForbiddenError("nope"))
	if got := FromError(wrapped); got.StatusCode != http.StatusForbidden {
		t.Fatalf("FromError(wrapped) status = %d, want 403", got.StatusCode)
	}
	if got := FromError(errors.New("db down")); got.StatusCode != http.StatusInternalServerError {
		t.Fatalf("FromError(plain) status = %d, want 500", got.StatusCode)
	}
}

func TestRecoverer(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	h := Recoverer(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("kaboom")
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
}
