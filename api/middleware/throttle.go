package middleware

import (
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/medibill/pos-backend/api/responses"
	pkgerrors "github.com/medibill/pos-backend/pkg/errors"
	"github.com/medibill/pos-backend/pkg/logger"
)

// ThrottleConfig bounds how fast one signed-in user may call the API.
type ThrottleConfig struct {
	RequestsPerSecond float64
	Burst             int
	// EntryTTL drops limiters of users not seen for this long.
	EntryTTL time.Duration
}

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// UserThrottle keeps one token bucket per user id.
type UserThrottle struct {
	mu        sync.Mutex
	limiters  map[string]*limiterEntry
	limit     rate.Limit
	burst     int
	ttl       time.Duration
	now       func() time.Time
	lastSweep time.Time
}

func NewUserThrottle(cfg ThrottleConfig) *UserThrottle {
	ttl := cfg.EntryTTL
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &UserThrottle{
		limiters: map[string]*limiterEntry{},
		limit:    rate.Limit(cfg.RequestsPerSecond),
		burst:    cfg.Burst,
		ttl:      ttl,
		now:      time.Now,
	}
}

func (t *UserThrottle) enabled() bool {
	return t != nil && t.limit > 0 && t.burst > 0
}

// Allow spends one token from the user's bucket.
func (t *UserThrottle) Allow(userID string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	if now.Sub(t.lastSweep) >= t.ttl {
		for id, entry := range t.limiters {
			if now.Sub(entry.lastSeen) >= t.ttl {
				delete(t.limiters, id)
			}
		}
		t.lastSweep = now
	}

	entry, ok := t.limiters[userID]
	if !ok {
		entry = &limiterEntry{limiter: rate.NewLimiter(t.limit, t.burst)}
		t.limiters[userID] = entry
	}
	entry.lastSeen = now
	return entry.limiter.AllowN(now, 1)
}

// Throttle rejects requests once the authenticated user exhausts their
// bucket. Requests without a user pass untouched; it must run after Auth.
func Throttle(throttle *UserThrottle, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if !throttle.enabled() {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID := UserIDFromContext(r.Context())
			if userID != "" && !throttle.Allow(userID) {
				if logg != nil {
					logg.Warn(r.Context(), "api.throttle.blocked")
				}
				responses.WriteError(r.Context(), nil, w, pkgerrors.New(pkgerrors.CodeRateLimit, "too many requests"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
