package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

type fakeLimiter struct {
	counts map[string]int64
	limit  int64
	err    error
}

func (f *fakeLimiter) FixedWindowAllow(_ context.Context, scope string, limit int64, _ time.Duration) (bool, int64, error) {
	if f.err != nil {
		return false, 0, f.err
	}
	if f.counts == nil {
		f.counts = make(map[string]int64)
	}
	f.counts[scope]++
	return f.counts[scope] <= limit, f.counts[scope], nil
}

func TestRateLimitBlocksOverLimit(t *testing.T) {
	limiter := &fakeLimiter{}
	mw := RateLimit(limiter, 2, time.Minute, nil)
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	userCtx := WithUserID(context.Background(), "user-a")
	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/farmer/lots", nil).WithContext(userCtx)
		resp := httptest.NewRecorder()
		mw(handler).ServeHTTP(resp, req)
		if resp.Code != http.StatusOK {
			t.Fatalf("request %d: expected 200 got %d", i+1, resp.Code)
		}
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/farmer/lots", nil).WithContext(userCtx)
	resp := httptest.NewRecorder()
	mw(handler).ServeHTTP(resp, req)
	if resp.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429 over limit got %d", resp.Code)
	}
}

func TestRateLimitScopesPerUser(t *testing.T) {
	limiter := &fakeLimiter{}
	mw := RateLimit(limiter, 1, time.Minute, nil)
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	first := httptest.NewRequest(http.MethodGet, "/api/v1/farmer/lots", nil).
		WithContext(WithUserID(context.Background(), "user-a"))
	resp := httptest.NewRecorder()
	mw(handler).ServeHTTP(resp, first)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for first user got %d", resp.Code)
	}

	second := httptest.NewRequest(http.MethodGet, "/api/v1/farmer/lots", nil).
		WithContext(WithUserID(context.Background(), "user-b"))
	resp = httptest.NewRecorder()
	mw(handler).ServeHTTP(resp, second)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for second user got %d", resp.Code)
	}
}

func TestRateLimitFailsOpenOnLimiterError(t *testing.T) {
	limiter := &fakeLimiter{err: errors.New("redis down")}
	mw := RateLimit(limiter, 1, time.Minute, nil)
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/farmer/lots", nil)
	resp := httptest.NewRecorder()
	mw(handler).ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected fail-open 200 got %d", resp.Code)
	}
}
