package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func hit(h http.Handler, remote string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/admin/sync/mysideline", nil)
	req.RemoteAddr = remote
	h.ServeHTTP(rec, req)
	return rec
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
}

func TestRateLimiter_BlocksOverLimit(t *testing.T) {
	t.Parallel()
	rl := NewRateLimiter(time.Minute)
	defer rl.Stop()
	handler := rl.Limit(5)(okHandler())

	for i := range 5 {
		assert.Equal(t, http.StatusOK, hit(handler, "1.2.3.4:1234").Code, "request %d should be allowed", i)
	}

	rec := hit(handler, "1.2.3.4:1234")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "13", rec.Header().Get("Retry-After"))
}

func TestRateLimiter_KeysByHostNotPort(t *testing.T) {
	t.Parallel()
	rl := NewRateLimiter(time.Minute)
	defer rl.Stop()
	handler := rl.Limit(2)(okHandler())

	assert.Equal(t, http.StatusOK, hit(handler, "1.1.1.1:1000").Code)
	assert.Equal(t, http.StatusOK, hit(handler, "1.1.1.1:2000").Code)
	assert.Equal(t, http.StatusTooManyRequests, hit(handler, "1.1.1.1:3000").Code)
	assert.Equal(t, http.StatusOK, hit(handler, "2.2.2.2:1000").Code)
}

func TestRateLimiter_TokenRefill(t *testing.T) {
	t.Parallel()
	rl := NewRateLimiter(time.Minute)
	defer rl.Stop()

	// 60 per minute = 1 per second
	handler := rl.Limit(60)(okHandler())
	for range 60 {
		hit(handler, "3.3.3.3:1234")
	}
	assert.Equal(t, http.StatusTooManyRequests, hit(handler, "3.3.3.3:1234").Code)

	time.Sleep(1100 * time.Millisecond)
	assert.Equal(t, http.StatusOK, hit(handler, "3.3.3.3:1234").Code)
}

func TestRateLimiter_StopIsIdempotent(t *testing.T) {
	t.Parallel()
	rl := NewRateLimiter(time.Minute)
	rl.Stop()
	rl.Stop()
}
