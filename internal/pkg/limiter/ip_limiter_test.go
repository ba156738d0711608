package limiter

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"golang.org/x/time/rate"
)

func TestIPRateLimiter_BurstThenReject(t *testing.T) {
	l := NewIPRateLimiter(rate.Limit(0.001), 2)
	defer l.Stop()

	assert.True(t, l.Allow("10.0.0.1"))
	assert.True(t, l.Allow("10.0.0.1"))
	assert.False(t, l.Allow("10.0.0.1"))

	// separate bucket per IP
	assert.True(t, l.Allow("10.0.0.2"))
	assert.Equal(t, 2, l.Len())
}

func TestIPRateLimiter_GetLimiterIsStable(t *testing.T) {
	l := NewIPRateLimiter(rate.Limit(1), 1)
	defer l.Stop()

	assert.Same(t, l.GetLimiter("a"), l.GetLimiter("a"))
}

func TestIPRateLimiter_SweepDropsFullBuckets(t *testing.T) {
	l := NewIPRateLimiter(rate.Limit(1), 1)
	defer l.Stop()

	l.GetLimiter("idle")
	l.Allow("busy")

	removed, remaining := l.sweep(time.Now())
	assert.Equal(t, 1, removed)
	assert.Equal(t, 1, remaining)

	removed, remaining = l.sweep(time.Now().Add(time.Minute))
	assert.Equal(t, 1, removed)
	assert.Equal(t, 0, remaining)
}

func TestIPRateLimiter_Middleware(t *testing.T) {
	l := NewIPRateLimiter(rate.Limit(0.001), 1)
	defer l.Stop()

	h := l.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "192.0.2.7:5555"

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
}

func TestClientIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)

	req.RemoteAddr = "192.0.2.7:5555"
	assert.Equal(t, "192.0.2.7", ClientIP(req))

	req.RemoteAddr = ""
	assert.Equal(t, "unknown_ip", ClientIP(req))
}
