package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ecotrack/backend/internal/advice"
	"github.com/ecotrack/backend/internal/auth"
	"github.com/ecotrack/backend/internal/config"
	"github.com/ecotrack/backend/internal/correlation"
	"github.com/ecotrack/backend/internal/impact"
	"github.com/ecotrack/backend/internal/model"
	"github.com/ecotrack/backend/internal/repository/repotest"
)

type okPinger struct{}

func (okPinger) PingContext(context.Context) error { return nil }

func newTestServer(t *testing.T) (*httptest.Server, *repotest.Store, *auth.JWTManager) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := repotest.NewStore()
	jwtMgr, err := auth.NewJWTManager("route-test-secret", time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	gen := advice.New(advice.Config{}, nil, logger)

	h := newRouter(routerDeps{
		cfg:     config.ServerConfig{AllowedOrigins: []string{"*"}, RequestTimeout: 5 * time.Second},
		chat:    config.ChatConfig{RatePerMinute: 60, Burst: 1},
		logger:  logger,
		db:      okPinger{},
		jwt:     jwtMgr,
		users:   store.Users(),
		logs:    store.Logs(),
		impacts: impact.NewService(store.Logs(), gen, nil, logger),
	})
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return srv, store, jwtMgr
}

func call(t *testing.T, srv *httptest.Server, method, path, token string, body any) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		json.NewEncoder(&buf).Encode(body)
	}
	req, err := http.NewRequest(method, srv.URL+path, &buf)
	if err != nil {
		t.Fatal(err)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := srv.Client().Do(req)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestUserFlow(t *testing.T) {
	srv, _, _ := newTestServer(t)

	resp := call(t, srv, http.MethodPost, "/auth/signup", "", map[string]string{
		"email": "flow@example.com", "password": "secret1", "full_name": "Flow User",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("signup status = %d", resp.StatusCode)
	}
	var tok auth.TokenResponse
	json.NewDecoder(resp.Body).Decode(&tok)

	resp = call(t, srv, http.MethodPost, "/impact/calculate", tok.AccessToken, map[string]any{
		"transport_method": "car", "transport_km": 30, "electricity_kwh": 15,
		"water_liters": 100, "diet_type": "heavy_meat", "waste_kg": 3,
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("calculate status = %d", resp.StatusCode)
	}
	var created model.ImpactResponse
	json.NewDecoder(resp.Body).Decode(&created)
	if created.CarbonScore != 22 || created.OverallRating != "Critical" || len(created.Tips) == 0 {
		t.Fatalf("calculate = %+v", created)
	}

	resp = call(t, srv, http.MethodGet, "/impact/history", tok.AccessToken, nil)
	var page model.Page[model.ImpactResponse]
	json.NewDecoder(resp.Body).Decode(&page)
	if page.Total != 1 || page.Data[0].ID != created.ID {
		t.Fatalf("history = %+v", page)
	}

	if resp := call(t, srv, http.MethodGet, "/admin/stats", tok.AccessToken, nil); resp.StatusCode != http.StatusForbidden {
		t.Fatalf("admin as user status = %d, want 403", resp.StatusCode)
	}
	if resp := call(t, srv, http.MethodGet, "/impact/history", "", nil); resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("anonymous history status = %d, want 401", resp.StatusCode)
	}
}

func TestChatIsRateLimited(t *testing.T) {
	srv, store, jwtMgr := newTestServer(t)
	user := &model.User{BaseEntity: model.NewBaseEntity(), Email: "chat@example.com", FullName: "Chatty", Role: model.RoleUser}
	store.Users().Create(context.Background(), user)
	token, _ := jwtMgr.GenerateToken(user.ID, user.Role)

	if resp := call(t, srv, http.MethodPost, "/impact/chat", token, map[string]string{"message": "hi"}); resp.StatusCode != http.StatusOK {
		t.Fatalf("first chat status = %d", resp.StatusCode)
	}
	if resp := call(t, srv, http.MethodPost, "/impact/chat", token, map[string]string{"message": "hi again"}); resp.StatusCode != http.StatusTooManyRequests {
		t.Fatalf("second chat status = %d, want 429", resp.StatusCode)
	}
}

func TestSystemRoutes(t *testing.T) {
	srv, _, _ := newTestServer(t)

	resp := call(t, srv, http.MethodGet, "/", "", nil)
	var root map[string]string
	json.NewDecoder(resp.Body).Decode(&root)
	if root["message"] != "Welcome to EcoTrack API" || root["version"] != version {
		t.Fatalf("root = %v", root)
	}
	if resp.Header.Get(correlation.HeaderName) == "" {
		t.Fatal("response should carry a correlation id")
	}

	if resp := call(t, srv, http.MethodGet, "/health", "", nil); resp.StatusCode != http.StatusOK {
		t.Fatalf("health status = %d", resp.StatusCode)
	}
}
