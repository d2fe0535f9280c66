// Package handler contains the HTTP handlers for impact, chat, comparison,
// export, admin and system endpoints.
package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/ecotrack/backend/internal/apierrors"
	"github.com/ecotrack/backend/internal/model"
)

// maxBodyBytes caps JSON request bodies.
const maxBodyBytes = 1 << 20

// Page size bounds shared by every paginated endpoint.
const (
	UserPageSize  = 10
	AdminPageSize = 20
	MaxPageSize   = 100
)

// writeJSON writes a JSON response
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// MessageResponse is a plain confirmation body.
type MessageResponse struct {
	Message string `json:"message"`
}

// decodeJSON reads a single JSON object from the request body.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) *apierrors.APIError {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		var typeErr *json.UnmarshalTypeError
		switch {
		case errors.Is(err, io.EOF):
			return apierrors.NewBadRequestError("request body is empty")
		case errors.As(err, &typeErr):
			return apierrors.NewValidationError("invalid field type", map[string]string{
				"field":   typeErr.Field,
				"message": "must be " + typeErr.Type.String(),
			})
		default:
			return apierrors.NewBadRequestError("invalid request body")
		}
	}
	return nil
}

// queryInt parses an optional integer query parameter.
func queryInt(r *http.Request, name string, def int) (int, bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, true
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false
	}
	return v, true
}

// parsePagination reads page and page_size. Out-of-range values are rejected
// rather than clamped.
func parsePagination(r *http.Request, defaultSize int) (model.Pagination, *apierrors.APIError) {
	page, ok := queryInt(r, "page", 1)
	if !ok || page < 1 {
		return model.Pagination{}, apierrors.NewValidationError("page must be an integer >= 1", nil)
	}
	size, ok := queryInt(r, "page_size", defaultSize)
	if !ok || size < 1 || size > MaxPageSize {
		return model.Pagination{}, apierrors.NewValidationError("page_size must be an integer between 1 and 100", nil)
	}
	return model.Pagination{Page: page, PageSize: size}, nil
}
