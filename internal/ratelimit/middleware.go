package ratelimit

import (
	"net/http"
	"strconv"
	"time"

	"github.com/noah-isme/discount-engine/internal/common"
)

// Middleware enforces a Limiter per request. Key derives the limit key from
// the request; a nil Key disables enforcement. Redis failures are reported
// through OnError and the request proceeds.
type Middleware struct {
	Limiter Limiter
	Key     func(*http.Request) string
	OnError func(error)
}

func (m Middleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if m.Key == nil {
			next.ServeHTTP(w, r)
			return
		}
		decision, err := m.Limiter.Allow(r.Context(), m.Key(r))
		if err != nil {
			if m.OnError != nil {
				m.OnError(err)
			}
			next.ServeHTTP(w, r)
			return
		}

		limit := m.Limiter.Max
		if limit < 0 {
			limit = 0
		}
		headers := w.Header()
		headers.Set("X-RateLimit-Limit", strconv.Itoa(limit))
		headers.Set("X-RateLimit-Remaining", strconv.Itoa(decision.Remaining))
		headers.Set("X-RateLimit-Reset", strconv.FormatInt(decision.Reset.Unix(), 10))

		if !decision.Allowed {
			retryAfter := int(time.Until(decision.Reset).Seconds())
			if retryAfter < 0 {
				retryAfter = 0
			}
			headers.Set("Retry-After", strconv.Itoa(retryAfter))
			common.JSONError(w, http.StatusTooManyRequests, "RATE_LIMITED", "rate limit exceeded", nil)
			return
		}

		next.ServeHTTP(w, r)
	})
}
