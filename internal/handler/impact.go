package handler

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/ecotrack/backend/internal/apierrors"
	"github.com/ecotrack/backend/internal/auth"
	"github.com/ecotrack/backend/internal/correlation"
	"github.com/ecotrack/backend/internal/impact"
	"github.com/ecotrack/backend/internal/scoring"
)

// ImpactHandler serves the signed-in user's impact endpoints.
type ImpactHandler struct {
	svc    *impact.Service
	logger *slog.Logger
}

func NewImpactHandler(svc *impact.Service, logger *slog.Logger) *ImpactHandler {
	return &ImpactHandler{svc: svc, logger: logger}
}

// Calculate handles POST /impact/calculate.
func (h *ImpactHandler) Calculate(w http.ResponseWriter, r *http.Request) {
	user := auth.UserFromContext(r.Context())

	var in scoring.Input
	if apiErr := decodeJSON(w, r, &in); apiErr != nil {
		apiErr.Write(w, r)
		return
	}

	entry, err := h.svc.Calculate(r.Context(), user.ID, in)
	if err != nil {
		var ve *scoring.ValidationError
		if errors.As(err, &ve) {
			apierrors.NewValidationError("invalid lifestyle input", ve.Fields).Write(w, r)
			return
		}
		correlation.Logger(r.Context(), h.logger).Error("failed to calculate impact", "error", err)
		apierrors.NewInternalError("failed to calculate impact").Write(w, r)
		return
	}

	writeJSON(w, http.StatusCreated, entry.Response())
}

// History handles GET /impact/history.
func (h *ImpactHandler) History(w http.ResponseWriter, r *http.Request) {
	user := auth.UserFromContext(r.Context())

	p, apiErr := parsePagination(r, UserPageSize)
	if apiErr != nil {
		apiErr.Write(w, r)
		return
	}

	page, err := h.svc.History(r.Context(), user.ID, p)
	if err != nil {
		correlation.Logger(r.Context(), h.logger).Error("failed to load history", "error", err)
		apierrors.NewInternalError("failed to load history").Write(w, r)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

// Export handles GET /impact/history/export.
func (h *ImpactHandler) Export(w http.ResponseWriter, r *http.Request) {
	user := auth.UserFromContext(r.Context())

	days, ok := queryInt(r, "days", impact.DefaultExportDays)
	if !ok || days < 1 || days > impact.MaxExportDays {
		apierrors.NewValidationError("days must be an integer between 1 and 365", nil).Write(w, r)
		return
	}

	logs, err := h.svc.Export(r.Context(), user.ID, days)
	if err != nil {
		correlation.Logger(r.Context(), h.logger).Error("failed to export history", "error", err)
		apierrors.NewInternalError("failed to export history").Write(w, r)
		return
	}

	filename := fmt.Sprintf("ecotrack-impact-%s.csv", time.Now().UTC().Format("2006-01-02"))
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	if err := impact.EncodeCSV(w, logs); err != nil {
		correlation.Logger(r.Context(), h.logger).Warn("csv export interrupted", "error", err)
	}
}

// ChatRequest is the payload for POST /impact/chat.
type ChatRequest struct {
	Message string `json:"message"`
}

// ChatResponse is the reply to a chat question.
type ChatResponse struct {
	Response string `json:"response"`
}

// Chat handles POST /impact/chat.
func (h *ImpactHandler) Chat(w http.ResponseWriter, r *http.Request) {
	user := auth.UserFromContext(r.Context())

	var req ChatRequest
	if apiErr := decodeJSON(w, r, &req); apiErr != nil {
		apiErr.Write(w, r)
		return
	}

	reply, err := h.svc.Chat(r.Context(), user.ID, req.Message)
	switch {
	case errors.Is(err, impact.ErrEmptyMessage):
		apierrors.NewValidationError("message must not be empty", nil).Write(w, r)
		return
	case err != nil:
		correlation.Logger(r.Context(), h.logger).Error("chat failed", "error", err)
		apierrors.NewInternalError("failed to answer question").Write(w, r)
		return
	}
	writeJSON(w, http.StatusOK, ChatResponse{Response: reply})
}

// Comparison handles GET /impact/comparison.
func (h *ImpactHandler) Comparison(w http.ResponseWriter, r *http.Request) {
	user := auth.UserFromContext(r.Context())

	cmp, err := h.svc.Compare(r.Context(), user.ID)
	switch {
	case errors.Is(err, impact.ErrNoLogs):
		apierrors.NewNotFoundError("Impact data", "").Write(w, r)
		return
	case err != nil:
		correlation.Logger(r.Context(), h.logger).Error("comparison failed", "error", err)
		apierrors.NewInternalError("failed to build comparison").Write(w, r)
		return
	}
	writeJSON(w, http.StatusOK, cmp)
}
