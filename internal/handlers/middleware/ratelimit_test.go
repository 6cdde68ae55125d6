package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestRateLimiter(t *testing.T) {
	t.Run("burst then reject", func(t *testing.T) {
		rl := NewRateLimiter(1, 2, time.Minute)
		now := time.Now()
		rl.now = func() time.Time { return now }

		require.True(t, rl.Allow("10.0.0.1"))
		require.True(t, rl.Allow("10.0.0.1"))
		require.False(t, rl.Allow("10.0.0.1"))
		require.True(t, rl.Allow("10.0.0.2"), "other clients have own bucket")

		now = now.Add(time.Second)
		require.True(t, rl.Allow("10.0.0.1"), "token is refilled")
	})

	t.Run("forget idle visitors", func(t *testing.T) {
		rl := NewRateLimiter(1, 1, time.Minute)
		now := time.Now()
		rl.now = func() time.Time { return now }
		rl.Allow("10.0.0.1")

		now = now.Add(2 * time.Minute)
		rl.Allow("10.0.0.2")

		require.Len(t, rl.visitors, 1)
		require.Contains(t, rl.visitors, "10.0.0.2")
	})
}

func TestRateLimitMiddleware(t *testing.T) {
	rl := NewRateLimiter(0.001, 1, time.Minute)
	h := RateLimitMiddleware(rl)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	send := func() *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodPost, "/api/user/login", nil)
		r.RemoteAddr = "192.0.2.1:41234"
		h.ServeHTTP(rec, r)
		return rec
	}

	require.Equal(t, http.StatusNoContent, send().Code)

	rec := send()
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	require.JSONEq(t, `{"error": "service_error", "message": "Rate limit exceeded"}`, rec.Body.String())
}

func TestRateLimitMiddleware_IgnoresForwardedHeaders(t *testing.T) {
	rl := NewRateLimiter(0.001, 1, time.Minute)
	h := RateLimitMiddleware(rl)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	send := func(forwarded string) int {
		rec := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodPost, "/api/user/login", nil)
		r.RemoteAddr = "192.0.2.1:41234"
		r.Header.Set("X-Forwarded-For", forwarded)
		r.Header.Set("X-Real-IP", forwarded)
		h.ServeHTTP(rec, r)
		return rec.Code
	}

	require.Equal(t, http.StatusNoContent, send("198.51.100.1"))
	require.Equal(t, http.StatusTooManyRequests, send("198.51.100.2"))
	require.Equal(t, http.StatusTooManyRequests, send("198.51.100.3"))
}
