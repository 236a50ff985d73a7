package httpmiddleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func doRequest(handler http.Handler, remoteAddr string, header map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = remoteAddr
	for k, v := range header {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	return w
}

func TestRateLimit_UnderLimit(t *testing.T) {
	handler := RateLimit(RateLimitConfig{Max: 5, Window: time.Minute})(okHandler())

	for i := range 5 {
		w := doRequest(handler, "192.168.1.1:12345", nil)
		assert.Equal(t, http.StatusOK, w.Code, "request %d should pass", i+1)
		assert.Equal(t, "5", w.Header().Get("X-RateLimit-Limit"))
		assert.NotEmpty(t, w.Header().Get("X-RateLimit-Reset"))
	}
}

func TestRateLimit_OverLimit(t *testing.T) {
	handler := RateLimit(RateLimitConfig{Max: 2, Window: time.Minute})(okHandler())

	for range 2 {
		w := doRequest(handler, "10.0.0.1:9999", nil)
		require.Equal(t, http.StatusOK, w.Code)
	}

	w := doRequest(handler, "10.0.0.1:9999", nil)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "0", w.Header().Get("X-RateLimit-Remaining"))
	assert.NotEmpty(t, w.Header().Get("Retry-After"))

	var body map[string]any
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	assert.Equal(t, "rate limit exceeded", body["message"])
}

func TestRateLimit_KeysAreIndependent(t *testing.T) {
	handler := RateLimit(RateLimitConfig{Max: 1, Window: time.Minute})(okHandler())

	assert.Equal(t, http.StatusOK, doRequest(handler, "10.0.0.1:1234", nil).Code)
	assert.Equal(t, http.StatusOK, doRequest(handler, "10.0.0.2:1234", nil).Code)
	// Same client, different source port: still over the limit.
	assert.Equal(t, http.StatusTooManyRequests, doRequest(handler, "10.0.0.1:5678", nil).Code)
}

func TestRateLimit_ForwardedFor(t *testing.T) {
	handler := RateLimit(RateLimitConfig{Max: 1, Window: time.Minute})(okHandler())
	xff := map[string]string{"X-Forwarded-For": "203.0.113.50, 70.41.3.18"}

	assert.Equal(t, http.StatusOK, doRequest(handler, "192.168.1.1:4444", xff).Code)
	// Same forwarded client behind a different proxy hop is still limited.
	assert.Equal(t, http.StatusTooManyRequests, doRequest(handler, "192.168.1.2:5555", xff).Code)
}

func TestRateLimit_CustomKeyFunc(t *testing.T) {
	handler := RateLimit(RateLimitConfig{
		Max:    1,
		Window: time.Minute,
		KeyFunc: func(r *http.Request) string {
			return r.Header.Get("Authorization")
		},
	})(okHandler())

	tokenA := map[string]string{"Authorization": "Bearer a"}
	tokenB := map[string]string{"Authorization": "Bearer b"}

	assert.Equal(t, http.StatusOK, doRequest(handler, "10.0.0.1:1", tokenA).Code)
	assert.Equal(t, http.StatusTooManyRequests, doRequest(handler, "10.0.0.1:1", tokenA).Code)
	assert.Equal(t, http.StatusOK, doRequest(handler, "10.0.0.1:1", tokenB).Code)
}

func TestWrapOrder(t *testing.T) {
	var order []string
	tag := func(name string) Middleware {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}

	handler := Wrap(okHandler(), tag("outer"), tag("inner"))
	doRequest(handler, "10.0.0.1:1", nil)

	assert.Equal(t, []string{"outer", "inner"}, order)
}
