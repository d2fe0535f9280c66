package handler

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/ecotrack/backend/internal/auth"
	"github.com/ecotrack/backend/internal/model"
)

func TestUserRateLimiterReserve(t *testing.T) {
	l := NewUserRateLimiter(60, 2)
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }

	alice, bob := uuid.New(), uuid.New()
	for i := 0; i < 2; i++ {
		if ok, _ := l.Reserve(alice); !ok {
			t.Fatalf("request %d should be allowed", i+1)
		}
	}
	ok, wait := l.Reserve(alice)
	if ok || wait <= 0 || wait > time.Second {
		t.Fatalf("third request: ok=%v wait=%v", ok, wait)
	}
	if ok, _ := l.Reserve(bob); !ok {
		t.Fatal("limits must be per user")
	}

	now = now.Add(time.Second)
	if ok, _ := l.Reserve(alice); !ok {
		t.Fatal("token should refill after a second")
	}
}

func TestUserRateLimiterSweep(t *testing.T) {
	l := NewUserRateLimiter(60, 1)
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }

	l.Reserve(uuid.New())
	now = now.Add(2 * limiterIdle)
	l.Reserve(uuid.New())
	if len(l.limiters) != 1 {
		t.Fatalf("limiters = %d, want idle entry swept", len(l.limiters))
	}
}

func TestRateLimitMiddleware(t *testing.T) {
	l := NewUserRateLimiter(1, 1)
	user := &model.User{BaseEntity: model.NewBaseEntity(), Role: model.RoleUser}
	h := l.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	call := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/impact/chat", nil)
		req = req.WithContext(auth.WithUser(req.Context(), user))
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}

	if rec := call(); rec.Code != http.StatusOK {
		t.Fatalf("first status = %d", rec.Code)
	}
	rec := call()
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("second status = %d, want 429", rec.Code)
	}
	if rec.Header().Get("Retry-After") == "" {
		t.Fatal("missing Retry-After")
	}
}
