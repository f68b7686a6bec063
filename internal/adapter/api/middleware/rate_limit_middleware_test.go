package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIPRateLimiterAllowsUpToRate(t *testing.T) {
	rl := NewIPRateLimiter(3, time.Minute)

	for i := 0; i < 3; i++ {
		assert.True(t, rl.allow("203.0.113.7"), "request %d should pass", i+1)
	}
	assert.False(t, rl.allow("203.0.113.7"))

	// Other IPs have their own bucket.
	assert.True(t, rl.allow("203.0.113.8"))
}

func TestIPRateLimiterRefillsDespiteRetries(t *testing.T) {
	rl := NewIPRateLimiter(3, 50*time.Millisecond)

	for i := 0; i < 3; i++ {
		require.True(t, rl.allow("203.0.113.7"))
	}
	require.False(t, rl.allow("203.0.113.7"))

	// Retrying faster than the window must not push the refill away.
	recovered := false
	for i := 0; i < 10; i++ {
		time.Sleep(25 * time.Millisecond)
		if rl.allow("203.0.113.7") {
			recovered = true
			break
		}
	}
	assert.True(t, recovered, "client never recovered a token despite full windows elapsing")
}

func TestIPRateLimiterMiddlewareReturns429(t *testing.T) {
	rl := NewIPRateLimiter(1, time.Minute)

	e := echo.New()
	handler := rl.Middleware()(func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})

	do := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/v1/coupons/redeem", nil)
		rec := httptest.NewRecorder()
		require.NoError(t, handler(e.NewContext(req, rec)))
		return rec
	}

	assert.Equal(t, http.StatusOK, do().Code)
	assert.Equal(t, http.StatusTooManyRequests, do().Code)
}
