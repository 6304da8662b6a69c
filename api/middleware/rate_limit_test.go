package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	pkgerrors "github.com/angelmondragon/shopfront-backend/pkg/errors"
)

type fakeRateStore struct {
	mu     sync.Mutex
	counts map[string]int64
}

func newFakeRateStore() *fakeRateStore {
	return &fakeRateStore{counts: make(map[string]int64)}
}

func (f *fakeRateStore) FixedWindowAllow(_ context.Context, scope string, limit int64, _ time.Duration) (bool, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.counts[scope]++
	count := f.counts[scope]
	return count <= limit, count, nil
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestRateLimit_IPLimitTriggers(t *testing.T) {
	store := newFakeRateStore()
	policy := NewRateLimitPolicy("writes", time.Minute, 2, 0, "/api/cart")
	handler := RateLimit(policy, store, nil)(okHandler())

	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/cart", strings.NewReader(`{}`))
		req.RemoteAddr = "10.0.0.1:1234"
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if i < 2 {
			require.Equal(t, http.StatusOK, rec.Code)
			continue
		}
		require.Equal(t, http.StatusTooManyRequests, rec.Code)
		require.Equal(t, "60", rec.Header().Get("Retry-After"))

		var payload struct {
			Error struct {
				Code string `json:"code"`
			} `json:"error"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
		require.Equal(t, string(pkgerrors.CodeRateLimit), payload.Error.Code)
	}
}

func TestRateLimit_UserLimitAcrossIPs(t *testing.T) {
	store := newFakeRateStore()
	policy := NewRateLimitPolicy("writes", time.Minute, 0, 1, "/api/orders")
	handler := RateLimit(policy, store, nil)(okHandler())

	for i, ip := range []string{"10.0.0.1:1", "10.0.0.2:1"} {
		req := httptest.NewRequest(http.MethodPost, "/api/orders", strings.NewReader(`{}`))
		req = req.WithContext(WithUserID(req.Context(), "u1"))
		req.RemoteAddr = ip
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if i == 0 {
			require.Equal(t, http.StatusOK, rec.Code)
		} else {
			require.Equal(t, http.StatusTooManyRequests, rec.Code)
		}
	}
}

func TestRateLimit_SkipsReadsAndOtherPaths(t *testing.T) {
	store := newFakeRateStore()
	policy := NewRateLimitPolicy("writes", time.Minute, 1, 1, "/api/cart")
	handler := RateLimit(policy, store, nil)(okHandler())

	requests := []*http.Request{
		httptest.NewRequest(http.MethodGet, "/api/cart?userId=u1", nil),
		httptest.NewRequest(http.MethodGet, "/api/cart?userId=u1", nil),
		httptest.NewRequest(http.MethodPost, "/api/cartography", strings.NewReader(`{}`)),
		httptest.NewRequest(http.MethodPost, "/api/cartography", strings.NewReader(`{}`)),
	}
	for _, req := range requests {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code, "%s %s", req.Method, req.URL.Path)
	}
	require.Empty(t, store.counts)
}

func TestRateLimit_MatchesNestedPaths(t *testing.T) {
	policy := NewRateLimitPolicy("writes", time.Minute, 1, 0, "/api/cart")
	require.True(t, policy.applies(httptest.NewRequest(http.MethodDelete, "/api/cart/5", nil)))
	require.True(t, policy.applies(httptest.NewRequest(http.MethodPatch, "/api/cart/5", nil)))
	require.False(t, policy.applies(httptest.NewRequest(http.MethodGet, "/api/cart/5", nil)))
}

func TestRateLimit_DisabledPolicyPassesThrough(t *testing.T) {
	policy := NewRateLimitPolicy("writes", 0, 1, 1)
	handler := RateLimit(policy, newFakeRateStore(), nil)(okHandler())
	for i := 0; i < 3; i++ {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/orders", nil))
		require.Equal(t, http.StatusOK, rec.Code)
	}
}

func TestClientIPPrefersForwardedHeaders(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "192.168.1.1:5555"
	require.Equal(t, "192.168.1.1", clientIP(req))

	req.Header.Set("X-Real-IP", "172.16.0.1")
	require.Equal(t, "172.16.0.1", clientIP(req))

	req.Header.Set("X-Forwarded-For", " 203.0.113.5 , 10.0.0.1")
	require.Equal(t, "203.0.113.5", clientIP(req))
}
