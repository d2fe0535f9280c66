package handler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

type pingFunc func(ctx context.Context) error

func (f pingFunc) PingContext(ctx context.Context) error { return f(ctx) }

func TestHealth(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		want   string
	}{
		{"healthy", nil, http.StatusOK, "healthy"},
		{"unhealthy", errors.New("connection refused"), http.StatusServiceUnavailable, "unhealthy"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			Health(pingFunc(func(context.Context) error { return tt.err }))(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
			if rec.Code != tt.status {
				t.Fatalf("status = %d, want %d", rec.Code, tt.status)
			}
			if got := decode[map[string]string](t, rec)["status"]; got != tt.want {
				t.Fatalf("status field = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRoot(t *testing.T) {
	rec := httptest.NewRecorder()
	Root("1.2.3")(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	body := decode[map[string]string](t, rec)
	if body["message"] != "Welcome to EcoTrack API" || body["version"] != "1.2.3" {
		t.Fatalf("body = %v", body)
	}
}
