package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/ecotrack/backend/internal/advice"
	"github.com/ecotrack/backend/internal/auth"
	"github.com/ecotrack/backend/internal/impact"
	"github.com/ecotrack/backend/internal/model"
	"github.com/ecotrack/backend/internal/repository/repotest"
	"github.com/ecotrack/backend/internal/scoring"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type testEnv struct {
	store  *repotest.Store
	router chi.Router
	user   *model.User
	admin  *model.User
}

// asUser injects the user named by the X-Test-User header.
func (e *testEnv) asUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u := e.user
		if r.Header.Get("X-Test-User") == "admin" {
			u = e.admin
		}
		next.ServeHTTP(w, r.WithContext(auth.WithUser(r.Context(), u)))
	})
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	store := repotest.NewStore()
	env := &testEnv{
		store: store,
		user:  &model.User{BaseEntity: model.NewBaseEntity(), Email: "user@example.com", FullName: "Plain User", Role: model.RoleUser},
		admin: &model.User{BaseEntity: model.NewBaseEntity(), Email: "admin@example.com", FullName: "Admin", Role: model.RoleAdmin},
	}
	env.admin.CreatedAt = env.user.CreatedAt.Add(time.Second)
	for _, u := range []*model.User{env.user, env.admin} {
		if err := store.Users().Create(context.Background(), u); err != nil {
			t.Fatal(err)
		}
	}

	gen := advice.New(advice.Config{}, nil, quietLogger())
	svc := impact.NewService(store.Logs(), gen, nil, quietLogger())
	ih := NewImpactHandler(svc, quietLogger())
	ah := NewAdminHandler(store.Users(), store.Logs(), quietLogger())

	r := chi.NewRouter()
	r.Group(func(r chi.Router) {
		r.Use(env.asUser)
		r.Post("/impact/calculate", ih.Calculate)
		r.Get("/impact/history", ih.History)
		r.Get("/impact/history/export", ih.Export)
		r.Post("/impact/chat", ih.Chat)
		r.Get("/impact/comparison", ih.Comparison)
		r.Route("/admin", func(r chi.Router) {
			r.Use(auth.RequireAdmin)
			r.Get("/users", ah.ListUsers)
			r.Delete("/users/{id}", ah.DeleteUser)
			r.Get("/logs", ah.ListLogs)
			r.Get("/stats", ah.Stats)
		})
	})
	env.router = r
	return env
}

func (e *testEnv) do(method, path, as string, body any) *httptest.ResponseRecorder {
	var rdr io.Reader = http.NoBody
	switch b := body.(type) {
	case nil:
	case string:
		rdr = strings.NewReader(b)
	default:
		var buf bytes.Buffer
		json.NewEncoder(&buf).Encode(b)
		rdr = &buf
	}
	req := httptest.NewRequest(method, path, rdr)
	if as != "" {
		req.Header.Set("X-Test-User", as)
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(rec.Body).Decode(&v); err != nil {
		t.Fatalf("decode %T: %v (body %q)", v, err, rec.Body.String())
	}
	return v
}

func (e *testEnv) seed(t *testing.T, owner uuid.UUID, carbon float64, created time.Time) *model.ImpactLog {
	t.Helper()
	l := model.NewImpactLog(owner, scoring.Input{TransportMethod: "bus", DietType: "veg"},
		scoring.Scores{Carbon: carbon, Rating: scoring.OverallRating(carbon)}, []string{"tip"}, "")
	l.CreatedAt = created
	if err := e.store.Logs().Create(context.Background(), l); err != nil {
		t.Fatal(err)
	}
	return l
}

