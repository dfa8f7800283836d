package ratelimit_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/discount-engine/internal/ratelimit"
)

func newTestLimiter(t *testing.T, max int, window time.Duration) (ratelimit.Limiter, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return ratelimit.Limiter{Client: client, Prefix: "rl:", Window: window, Max: max}, mr
}

func TestAllowWithinLimit(t *testing.T) {
	limiter, _ := newTestLimiter(t, 3, time.Minute)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		decision, err := limiter.Allow(ctx, "client-a")
		require.NoError(t, err)
		require.True(t, decision.Allowed)
	}

	decision, err := limiter.Allow(ctx, "client-a")
	require.NoError(t, err)
	require.False(t, decision.Allowed)
	require.Zero(t, decision.Remaining)
}

func TestAllowIsolatesKeys(t *testing.T) {
	limiter, _ := newTestLimiter(t, 1, time.Minute)
	ctx := context.Background()

	first, err := limiter.Allow(ctx, "client-a")
	require.NoError(t, err)
	require.True(t, first.Allowed)

	blocked, err := limiter.Allow(ctx, "client-a")
	require.NoError(t, err)
	require.False(t, blocked.Allowed)

	other, err := limiter.Allow(ctx, "client-b")
	require.NoError(t, err)
	require.True(t, other.Allowed)
}

func TestAllowWindowSlides(t *testing.T) {
	limiter, mr := newTestLimiter(t, 1, time.Second)
	ctx := context.Background()

	decision, err := limiter.Allow(ctx, "client-a")
	require.NoError(t, err)
	require.True(t, decision.Allowed)

	// the zset carries a TTL of one window; fast forwarding past it drops
	// the recorded events entirely
	mr.FastForward(2 * time.Second)

	decision, err = limiter.Allow(ctx, "client-a")
	require.NoError(t, err)
	require.True(t, decision.Allowed)
}

func TestAllowDisabledWithoutClient(t *testing.T) {
	limiter := ratelimit.Limiter{Window: time.Minute, Max: 5}
	decision, err := limiter.Allow(context.Background(), "anyone")
	require.NoError(t, err)
	require.True(t, decision.Allowed)
}

func TestMiddlewareEnforcesLimit(t *testing.T) {
	limiter, _ := newTestLimiter(t, 2, time.Minute)
	mw := ratelimit.Middleware{
		Limiter: limiter,
		Key:     func(r *http.Request) string { return r.RemoteAddr },
	}
	handler := mw.Handler(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	for i := 0; i < 2; i++ {
		rr := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/discounts/run", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		handler.ServeHTTP(rr, req)
		require.Equal(t, http.StatusOK, rr.Code)
	}

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/discounts/run", nil)
	req.RemoteAddr = "10.0.0.1:1234"
	handler.ServeHTTP(rr, req)
	require.Equal(t, http.StatusTooManyRequests, rr.Code)
	require.Equal(t, "2", rr.Header().Get("X-RateLimit-Limit"))
	require.NotEmpty(t, rr.Header().Get("Retry-After"))
	require.Contains(t, rr.Body.String(), "RATE_LIMITED")
}

func TestMiddlewareProceedsOnRedisError(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", DialTimeout: 10 * time.Millisecond})
	t.Cleanup(func() { _ = client.Close() })

	var seen error
	mw := ratelimit.Middleware{
		Limiter: ratelimit.Limiter{Client: client, Prefix: "rl:", Window: time.Minute, Max: 1},
		Key:     func(r *http.Request) string { return r.RemoteAddr },
		OnError: func(err error) { seen = err },
	}
	handler := mw.Handler(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/discounts/run", nil)
	req.RemoteAddr = "10.0.0.2:1234"
	handler.ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)
	require.Error(t, seen)
}
