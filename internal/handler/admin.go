package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/ecotrack/backend/internal/apierrors"
	"github.com/ecotrack/backend/internal/auth"
	"github.com/ecotrack/backend/internal/correlation"
	"github.com/ecotrack/backend/internal/model"
	"github.com/ecotrack/backend/internal/repository"
)

// AdminHandler serves the admin-only endpoints. Callers must mount it behind
// auth.RequireAdmin.
type AdminHandler struct {
	users  repository.UserRepository
	logs   repository.ImpactLogRepository
	logger *slog.Logger
}

func NewAdminHandler(users repository.UserRepository, logs repository.ImpactLogRepository, logger *slog.Logger) *AdminHandler {
	return &AdminHandler{users: users, logs: logs, logger: logger}
}

// ListUsers handles GET /admin/users.
func (h *AdminHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	p, apiErr := parsePagination(r, AdminPageSize)
	if apiErr != nil {
		apiErr.Write(w, r)
		return
	}

	users, total, err := h.users.List(r.Context(), p)
	if err != nil {
		h.internal(w, r, "failed to list users", err)
		return
	}
	infos := make([]model.UserInfo, 0, len(users))
	for _, u := range users {
		infos = append(infos, u.AdminInfo())
	}
	writeJSON(w, http.StatusOK, model.NewPage(infos, total, p))
}

// DeleteUser handles DELETE /admin/users/{id}.
func (h *AdminHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		apierrors.NewBadRequestError("Invalid user ID").Write(w, r)
		return
	}

	admin := auth.UserFromContext(r.Context())
	if admin == nil {
		apierrors.NewUnauthorizedError("Not authenticated").Write(w, r)
		return
	}
	if admin.ID == id {
		apierrors.NewBadRequestError("Cannot delete your own account").Write(w, r)
		return
	}

	if err := h.users.Delete(r.Context(), id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			apierrors.NewNotFoundError("User", "").Write(w, r)
			return
		}
		h.internal(w, r, "failed to delete user", err)
		return
	}

	correlation.Logger(r.Context(), h.logger).Info("user deleted", "user_id", id, "by", admin.ID)
	writeJSON(w, http.StatusOK, MessageResponse{Message: "User deleted successfully"})
}

// ListLogs handles GET /admin/logs.
func (h *AdminHandler) ListLogs(w http.ResponseWriter, r *http.Request) {
	p, apiErr := parsePagination(r, AdminPageSize)
	if apiErr != nil {
		apiErr.Write(w, r)
		return
	}

	views, total, err := h.logs.ListWithOwners(r.Context(), p)
	if err != nil {
		h.internal(w, r, "failed to list logs", err)
		return
	}
	writeJSON(w, http.StatusOK, model.NewPage(views, total, p))
}

// Stats handles GET /admin/stats.
func (h *AdminHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.logs.Stats(r.Context())
	if err != nil {
		h.internal(w, r, "failed to compute stats", err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (h *AdminHandler) internal(w http.ResponseWriter, r *http.Request, msg string, err error) {
	correlation.Logger(r.Context(), h.logger).Error(msg, "error", err)
	apierrors.NewInternalError(msg).Write(w, r)
}
