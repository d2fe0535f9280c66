package handler

import (
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/ecotrack/backend/internal/apierrors"
	"github.com/ecotrack/backend/internal/auth"
)

// limiterIdle is how long an unused per-user limiter is kept.
const limiterIdle = 10 * time.Minute

// UserRateLimiter keeps one token bucket per user.
type UserRateLimiter struct {
	mu        sync.Mutex
	limit     rate.Limit
	burst     int
	limiters  map[uuid.UUID]*userLimiter
	lastSweep time.Time
	now       func() time.Time
}

type userLimiter struct {
	lim      *rate.Limiter
	lastSeen time.Time
}

// NewUserRateLimiter allows perMinute requests per user with the given burst.
func NewUserRateLimiter(perMinute float64, burst int) *UserRateLimiter {
	if burst < 1 {
		burst = 1
	}
	return &UserRateLimiter{
		limit:    rate.Limit(perMinute / 60),
		burst:    burst,
		limiters: make(map[uuid.UUID]*userLimiter),
		now:      time.Now,
	}
}

// Reserve takes a token for id. When none is available it returns false and
// how long until one will be.
func (l *UserRateLimiter) Reserve(id uuid.UUID) (bool, time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	l.sweep(now)

	ul, ok := l.limiters[id]
	if !ok {
		ul = &userLimiter{lim: rate.NewLimiter(l.limit, l.burst)}
		l.limiters[id] = ul
	}
	ul.lastSeen = now

	res := ul.lim.ReserveN(now, 1)
	if !res.OK() {
		return false, time.Minute
	}
	if delay := res.DelayFrom(now); delay > 0 {
		res.CancelAt(now)
		return false, delay
	}
	return true, 0
}

// sweep drops idle limiters. The caller holds l.mu.
func (l *UserRateLimiter) sweep(now time.Time) {
	if now.Sub(l.lastSweep) < limiterIdle {
		return
	}
	l.lastSweep = now
	for id, ul := range l.limiters {
		if now.Sub(ul.lastSeen) > limiterIdle {
			delete(l.limiters, id)
		}
	}
}

// Middleware rejects requests from users that ran out of tokens. It must run
// after auth.Middleware.
func (l *UserRateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user := auth.UserFromContext(r.Context())
		if user == nil {
			next.ServeHTTP(w, r)
			return
		}
		if ok, wait := l.Reserve(user.ID); !ok {
			w.Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(wait.Seconds()))))
			apierrors.NewRateLimitError().Write(w, r)
			return
		}
		next.ServeHTTP(w, r)
	})
}
