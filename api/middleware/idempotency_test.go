package middleware

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"

	pkgerrors "github.com/agrisoko/farmhub-backend/pkg/errors"
)

type fakeStore struct {
	data map[string]string
}

func newFakeStore() *fakeStore {
	return &fakeStore{data: make(map[string]string)}
}

func (f *fakeStore) Get(_ context.Context, key string) (string, error) {
	if v, ok := f.data[key]; ok {
		return v, nil
	}
	return "", redis.Nil
}

func (f *fakeStore) SetNX(_ context.Context, key string, value any, _ time.Duration) (bool, error) {
	if _, ok := f.data[key]; ok {
		return false, nil
	}
	str, _ := value.(string)
	f.data[key] = str
	return true, nil
}

func (f *fakeStore) IdempotencyKey(scope, id string) string {
	return fmt.Sprintf("fake:%s:%s", scope, id)
}

func (f *fakeStore) Del(_ context.Context, keys ...string) error {
	for _, key := range keys {
		delete(f.data, key)
	}
	return nil
}

func requestWithPattern(method, url, pattern string, body io.Reader) *http.Request {
	req := httptest.NewRequest(method, url, body)
	rc := chi.NewRouteContext()
	rc.RoutePatterns = []string{pattern}
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rc))
}

func TestRouteTTLSelection(t *testing.T) {
	tests := []struct {
		name    string
		method  string
		pattern string
		want    time.Duration
		ok      bool
	}{
		{"create order", http.MethodPost, "/api/v1/buyer/orders", defaultIdempotencyTTL, true},
		{"order payment", http.MethodPost, "/api/v1/buyer/orders/abc/payment", criticalIdempotencyTTL, true},
		{"direct sale", http.MethodPost, "/api/v1/clerk/products", criticalIdempotencyTTL, true},
		{"payout process", http.MethodPost, "/api/v1/clerk/payouts/xyz/process", criticalIdempotencyTTL, true},
		{"notification read", http.MethodPost, "/api/v1/notifications/123/read", defaultIdempotencyTTL, true},
		{"read all", http.MethodPost, "/api/v1/notifications/read-all", defaultIdempotencyTTL, true},
		{"list is exempt", http.MethodGet, "/api/v1/buyer/orders", 0, false},
		{"unknown route", http.MethodPost, "/api/v1/farmer/lots", 0, false},
	}

	for _, tt := range tests {
		ttl, ok := routeTTL(tt.method, tt.pattern)
		if ok != tt.ok {
			t.Fatalf("%s: expected ok=%v got %v", tt.name, tt.ok, ok)
		}
		if ok && ttl != tt.want {
			t.Fatalf("%s: expected ttl=%v got %v", tt.name, tt.want, ttl)
		}
	}
}

func TestIdempotencyMiddlewareRequiresHeader(t *testing.T) {
	store := newFakeStore()
	mw := Idempotency(store, nil)
	handlerCalled := false
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handlerCalled = true
		w.WriteHeader(http.StatusCreated)
	})

	req := requestWithPattern(http.MethodPost, "/api/v1/buyer/orders", "/api/v1/buyer/orders", strings.NewReader(`{"items":[]}`))
	resp := httptest.NewRecorder()
	mw(handler).ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
	if handlerCalled {
		t.Fatalf("handler should not run without idempotency key")
	}
}

func TestIdempotencyMiddlewareReplaysStoredResponse(t *testing.T) {
	store := newFakeStore()
	mw := Idempotency(store, nil)
	var calls int
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"ok":true}`))
	})

	makeReq := func() *http.Request {
		req := requestWithPattern(http.MethodPost, "/api/v1/clerk/products", "/api/v1/clerk/products", strings.NewReader(`{"produceName":"maize"}`))
		req.Header.Set("Idempotency-Key", "dsale-1")
		return req
	}

	resp := httptest.NewRecorder()
	mw(handler).ServeHTTP(resp, makeReq())
	if resp.Code != http.StatusCreated {
		t.Fatalf("expected first response 201 got %d", resp.Code)
	}

	replay := httptest.NewRecorder()
	mw(handler).ServeHTTP(replay, makeReq())
	if replay.Code != http.StatusCreated {
		t.Fatalf("expected replayed 201 got %d", replay.Code)
	}
	if replay.Body.String() != `{"ok":true}` {
		t.Fatalf("expected stored body replayed got %q", replay.Body.String())
	}
	if calls != 1 {
		t.Fatalf("expected handler to run once got %d", calls)
	}
}

func TestIdempotencyMiddlewareRejectsKeyReuseWithDifferentBody(t *testing.T) {
	store := newFakeStore()
	mw := Idempotency(store, nil)
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	first := requestWithPattern(http.MethodPost, "/api/v1/buyer/orders", "/api/v1/buyer/orders", strings.NewReader(`{"items":[{"lotId":"a"}]}`))
	first.Header.Set("Idempotency-Key", "order-1")
	resp := httptest.NewRecorder()
	mw(handler).ServeHTTP(resp, first)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}

	second := requestWithPattern(http.MethodPost, "/api/v1/buyer/orders", "/api/v1/buyer/orders", strings.NewReader(`{"items":[{"lotId":"b"}]}`))
	second.Header.Set("Idempotency-Key", "order-1")
	resp = httptest.NewRecorder()
	mw(handler).ServeHTTP(resp, second)
	if resp.Code != http.StatusConflict {
		t.Fatalf("expected 409 for reused key got %d", resp.Code)
	}

	var envelope struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode error envelope: %v", err)
	}
	if envelope.Error.Code != string(pkgerrors.CodeIdempotency) {
		t.Fatalf("expected %s got %s", pkgerrors.CodeIdempotency, envelope.Error.Code)
	}
}

func TestIdempotencyMiddlewareSkipsUnmatchedRoutes(t *testing.T) {
	store := newFakeStore()
	mw := Idempotency(store, nil)
	var calls int
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusOK)
	})

	req := requestWithPattern(http.MethodGet, "/api/v1/farmer/lots", "/api/v1/farmer/lots", nil)
	resp := httptest.NewRecorder()
	mw(handler).ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if calls != 1 {
		t.Fatalf("expected handler call got %d", calls)
	}
	if len(store.data) != 0 {
		t.Fatalf("expected no stored records got %d", len(store.data))
	}
}
