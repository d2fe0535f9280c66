package auth

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/ecotrack/backend/internal/model"
	"github.com/ecotrack/backend/internal/repository/repotest"
)

type testEnv struct {
	store   *repotest.Store
	jwt     *JWTManager
	handler *Handler
	mux     http.Handler
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	jwtMgr, err := NewJWTManager("test-secret", time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	store := repotest.NewStore()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	h := NewHandler(jwtMgr, store.Users(), logger)
	h.cost = bcrypt.MinCost

	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth/signup", h.Signup)
	mux.HandleFunc("POST /auth/login", h.Login)
	authed := Middleware(jwtMgr, store.Users(), logger)
	mux.Handle("GET /auth/me", authed(http.HandlerFunc(h.Me)))
	mux.Handle("GET /admin/ping", authed(RequireAdmin(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))))

	return &testEnv{store: store, jwt: jwtMgr, handler: h, mux: mux}
}

func (e *testEnv) do(method, path, token string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.mux.ServeHTTP(rec, req)
	return rec
}

func decodeToken(t *testing.T, rec *httptest.ResponseRecorder) TokenResponse {
	t.Helper()
	var resp TokenResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode token response: %v", err)
	}
	return resp
}

func TestSignupNormalizesAndAssignsUserRole(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(http.MethodPost, "/auth/signup", "", map[string]string{
		"email": "  Ada@Example.COM ", "password": "secret1", "full_name": "Ada Lovelace",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body)
	}
	resp := decodeToken(t, rec)
	if resp.TokenType != "bearer" || resp.AccessToken == "" {
		t.Fatalf("token response = %+v", resp)
	}
	if resp.User.Email != "ada@example.com" || resp.User.Role != model.RoleUser || resp.User.FullName != "Ada Lovelace" {
		t.Fatalf("user = %+v", resp.User)
	}
}

func TestSignupValidation(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		name string
		body map[string]string
	}{
		{"bad email", map[string]string{"email": "not-an-email", "password": "secret1", "full_name": "Ada"}},
		{"short password", map[string]string{"email": "a@b.io", "password": "12345", "full_name": "Ada"}},
		{"short name", map[string]string{"email": "a@b.io", "password": "secret1", "full_name": " A "}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.do(http.MethodPost, "/auth/signup", "", tt.body)
			if rec.Code != http.StatusUnprocessableEntity {
				t.Fatalf("status = %d, want 422", rec.Code)
			}
		})
	}
}

func TestSignupDuplicateEmail(t *testing.T) {
	env := newTestEnv(t)
	body := map[string]string{"email": "dup@example.com", "password": "secret1", "full_name": "Dup"}
	if rec := env.do(http.MethodPost, "/auth/signup", "", body); rec.Code != http.StatusCreated {
		t.Fatalf("first signup status = %d", rec.Code)
	}

	body["email"] = "DUP@example.com"
	rec := env.do(http.MethodPost, "/auth/signup", "", body)
	if rec.Code != http.StatusBadRequest || !strings.Contains(rec.Body.String(), "Email already registered") {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body)
	}
}

func TestLogin(t *testing.T) {
	env := newTestEnv(t)
	long := strings.Repeat("p", 80)
	env.do(http.MethodPost, "/auth/signup", "", map[string]string{
		"email": "grace@example.com", "password": long, "full_name": "Grace Hopper",
	})

	rec := env.do(http.MethodPost, "/auth/login", "", map[string]string{"email": "Grace@example.com", "password": long})
	if rec.Code != http.StatusOK {
		t.Fatalf("login status = %d, body = %s", rec.Code, rec.Body)
	}

	// Only the first 72 bytes take part in the hash.
	rec = env.do(http.MethodPost, "/auth/login", "", map[string]string{"email": "grace@example.com", "password": long[:72] + "different"})
	if rec.Code != http.StatusOK {
		t.Fatalf("truncated login status = %d", rec.Code)
	}

	for _, body := range []map[string]string{
		{"email": "grace@example.com", "password": "wrong-password"},
		{"email": "nobody@example.com", "password": long},
	} {
		rec := env.do(http.MethodPost, "/auth/login", "", body)
		if rec.Code != http.StatusUnauthorized || !strings.Contains(rec.Body.String(), "Invalid email or password") {
			t.Fatalf("status = %d, body = %s", rec.Code, rec.Body)
		}
	}
}

func TestMeAndMiddleware(t *testing.T) {
	env := newTestEnv(t)
	resp := decodeToken(t, env.do(http.MethodPost, "/auth/signup", "", map[string]string{
		"email": "me@example.com", "password": "secret1", "full_name": "Me Myself",
	}))

	rec := env.do(http.MethodGet, "/auth/me", resp.AccessToken, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("me status = %d", rec.Code)
	}
	var info model.UserInfo
	json.NewDecoder(rec.Body).Decode(&info)
	if info.Email != "me@example.com" || info.CreatedAt == nil {
		t.Fatalf("me = %+v", info)
	}

	if rec := env.do(http.MethodGet, "/auth/me", "", nil); rec.Code != http.StatusUnauthorized {
		t.Fatalf("no token status = %d, want 401", rec.Code)
	}
	if rec := env.do(http.MethodGet, "/auth/me", "bogus", nil); rec.Code != http.StatusUnauthorized {
		t.Fatalf("bad token status = %d, want 401", rec.Code)
	}
}

func TestMiddlewareDeletedUser(t *testing.T) {
	env := newTestEnv(t)
	resp := decodeToken(t, env.do(http.MethodPost, "/auth/signup", "", map[string]string{
		"email": "gone@example.com", "password": "secret1", "full_name": "Gone",
	}))
	id, _ := uuid.Parse(resp.User.ID)
	env.store.RemoveUserOnly(id)

	rec := env.do(http.MethodGet, "/auth/me", resp.AccessToken, nil)
	if rec.Code != http.StatusUnauthorized || !strings.Contains(rec.Body.String(), "User not found") {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body)
	}
}

func TestRequireAdmin(t *testing.T) {
	env := newTestEnv(t)
	user := &model.User{BaseEntity: model.NewBaseEntity(), Email: "u@example.com", FullName: "User", Role: model.RoleUser}
	admin := &model.User{BaseEntity: model.NewBaseEntity(), Email: "a@example.com", FullName: "Admin", Role: model.RoleAdmin}
	env.store.Users().Create(t.Context(), user)
	env.store.Users().Create(t.Context(), admin)

	userToken, _ := env.jwt.GenerateToken(user.ID, user.Role)
	adminToken, _ := env.jwt.GenerateToken(admin.ID, admin.Role)

	rec := env.do(http.MethodGet, "/admin/ping", userToken, nil)
	if rec.Code != http.StatusForbidden || !strings.Contains(rec.Body.String(), "Admin access required") {
		t.Fatalf("user status = %d, body = %s", rec.Code, rec.Body)
	}
	if rec := env.do(http.MethodGet, "/admin/ping", adminToken, nil); rec.Code != http.StatusNoContent {
		t.Fatalf("admin status = %d, want 204", rec.Code)
	}
}
