// Package correlation propagates a per-request correlation ID through
// contexts, response headers and log records.
package correlation

import (
	"context"
	"log/slog"
	"net/http"
	"regexp"

	"github.com/google/uuid"
)

type contextKey struct{}

// HeaderName is the HTTP header for correlation IDs.
const HeaderName = "X-Correlation-ID"

// LogKey is the attribute name used in log records.
const LogKey = "correlation_id"

// Client-supplied IDs are accepted only if they look like an opaque token.
var validID = regexp.MustCompile(`^[A-Za-z0-9._-]{1,128}$`)

// Middleware reuses a well-formed incoming X-Correlation-ID or generates one,
// stores it in the request context and echoes it on the response.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(HeaderName)
		if !validID.MatchString(id) {
			id = uuid.NewString()
		}
		w.Header().Set(HeaderName, id)
		next.ServeHTTP(w, r.WithContext(WithID(r.Context(), id)))
	})
}

// GetID retrieves the correlation ID from context.
func GetID(ctx context.Context) string {
	id, _ := ctx.Value(contextKey{}).(string)
	return id
}

// WithID adds a correlation ID to the context.
func WithID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, contextKey{}, id)
}

// Logger returns base annotated with the context's correlation ID, or base
// itself when there is none.
func Logger(ctx context.Context, base *slog.Logger) *slog.Logger {
	if id := GetID(ctx); id != "" {
		return base.With(LogKey, id)
	}
	return base
}
