package auth

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/ecotrack/backend/internal/apierrors"
	"github.com/ecotrack/backend/internal/correlation"
	"github.com/ecotrack/backend/internal/model"
	"github.com/ecotrack/backend/internal/repository"
)

type contextKey int

const userContextKey contextKey = iota

// Middleware validates the bearer token and loads the token's user into the
// request context.
func Middleware(jwtMgr *JWTManager, users repository.UserRepository, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			scheme, token, ok := strings.Cut(header, " ")
			if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
				apierrors.NewUnauthorizedError("Not authenticated").Write(w, r)
				return
			}

			claims, err := jwtMgr.ValidateToken(strings.TrimSpace(token))
			if err != nil {
				apierrors.NewUnauthorizedError("Could not validate credentials").Write(w, r)
				return
			}
			userID, _ := claims.UserID()

			user, err := users.GetByID(r.Context(), userID)
			if err != nil {
				correlation.Logger(r.Context(), logger).Error("failed to load token user", "user_id", userID, "error", err)
				apierrors.NewInternalError("failed to load user").Write(w, r)
				return
			}
			if user == nil {
				apierrors.NewUnauthorizedError("User not found").Write(w, r)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
		})
	}
}

// RequireRole restricts access to users whose role is in the allowed set.
// The user's stored role is checked, not the role claim in the token.
func RequireRole(allowed ...model.Role) func(http.Handler) http.Handler {
	allowedSet := make(map[model.Role]bool, len(allowed))
	for _, r := range allowed {
		allowedSet[r] = true
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user := UserFromContext(r.Context())
			if user == nil {
				apierrors.NewUnauthorizedError("Not authenticated").Write(w, r)
				return
			}
			if !allowedSet[user.Role] {
				apierrors.NewForbiddenError("Admin access required").Write(w, r)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireAdmin is RequireRole(model.RoleAdmin).
func RequireAdmin(next http.Handler) http.Handler {
	return RequireRole(model.RoleAdmin)(next)
}

// WithUser stores the authenticated user in ctx.
func WithUser(ctx context.Context, user *model.User) context.Context {
	return context.WithValue(ctx, userContextKey, user)
}

// UserFromContext returns the user stored by the auth middleware, or nil.
func UserFromContext(ctx context.Context) *model.User {
	user, _ := ctx.Value(userContextKey).(*model.User)
	return user
}
