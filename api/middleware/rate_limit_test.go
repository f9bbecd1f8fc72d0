package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	pkgerrors "github.com/angelmondragon/movies-backend/pkg/errors"
)

type fakeWindowStore struct {
	mu     sync.Mutex
	counts map[string]int64
	err    error
}

func newFakeWindowStore() *fakeWindowStore {
	return &fakeWindowStore{counts: map[string]int64{}}
}

func (f *fakeWindowStore) FixedWindowAllow(ctx context.Context, scope string, limit int64, window time.Duration) (bool, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return false, 0, f.err
	}
	f.counts[scope]++
	return f.counts[scope] <= limit, f.counts[scope], nil
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func serveFrom(handler http.Handler, remoteAddr string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/api/movies", nil)
	req.RemoteAddr = remoteAddr
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestRateLimit_RedisBlocksOverLimit(t *testing.T) {
	store := newFakeWindowStore()
	handler := RateLimit(NewRedisRateLimiter(store, 2, time.Minute), time.Minute, nil)(okHandler())

	for i := 0; i < 3; i++ {
		rec := serveFrom(handler, "1.2.3.4:5678")
		switch {
		case i < 2 && rec.Code != http.StatusOK:
			t.Fatalf("expected success before limit, got %d", rec.Code)
		case i >= 2:
			if rec.Code != http.StatusTooManyRequests {
				t.Fatalf("expected 429, got %d", rec.Code)
			}
			if got := rec.Header().Get("Retry-After"); got != "60" {
				t.Fatalf("expected Retry-After 60, got %q", got)
			}
			var payload struct {
				Error struct {
					Code string `json:"code"`
				} `json:"error"`
			}
			if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
				t.Fatalf("decode error: %v", err)
			}
			if payload.Error.Code != string(pkgerrors.CodeRateLimit) {
				t.Fatalf("unexpected code: %s", payload.Error.Code)
			}
		}
	}

	if _, ok := store.counts["ip:1.2.3.4"]; !ok {
		t.Fatalf("expected counter keyed by client ip, got %v", store.counts)
	}
}

func TestRateLimit_SeparateClients(t *testing.T) {
	handler := RateLimit(NewRedisRateLimiter(newFakeWindowStore(), 1, time.Minute), time.Minute, nil)(okHandler())

	if rec := serveFrom(handler, "1.1.1.1:1000"); rec.Code != http.StatusOK {
		t.Fatalf("expected first client allowed, got %d", rec.Code)
	}
	if rec := serveFrom(handler, "2.2.2.2:1000"); rec.Code != http.StatusOK {
		t.Fatalf("expected second client allowed, got %d", rec.Code)
	}
	if rec := serveFrom(handler, "1.1.1.1:1000"); rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected first client blocked, got %d", rec.Code)
	}
}

func TestRateLimit_StoreFailure(t *testing.T) {
	store := newFakeWindowStore()
	store.err = errors.New("redis down")
	handler := RateLimit(NewRedisRateLimiter(store, 5, time.Minute), time.Minute, nil)(okHandler())

	rec := serveFrom(handler, "1.2.3.4:5678")
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 when the limiter store fails, got %d", rec.Code)
	}
}

func TestRateLimit_NilLimiterPassesThrough(t *testing.T) {
	handler := RateLimit(nil, time.Minute, nil)(okHandler())
	if rec := serveFrom(handler, "1.2.3.4:5678"); rec.Code != http.StatusOK {
		t.Fatalf("expected pass-through, got %d", rec.Code)
	}
}

func TestLocalRateLimiter(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	limiter := NewLocalRateLimiter(2, time.Minute)
	limiter.now = func() time.Time { return now }
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		allowed, err := limiter.Allow(ctx, "a")
		if err != nil || !allowed {
			t.Fatalf("request %d: expected allowed, got %v %v", i, allowed, err)
		}
	}
	if allowed, _ := limiter.Allow(ctx, "a"); allowed {
		t.Fatal("expected third request to be blocked")
	}
	if allowed, _ := limiter.Allow(ctx, "b"); !allowed {
		t.Fatal("expected other key to be allowed")
	}

	now = now.Add(time.Minute)
	if allowed, _ := limiter.Allow(ctx, "a"); !allowed {
		t.Fatal("expected bucket to refill after the window")
	}
}

func TestLocalRateLimiter_SweepsIdleKeys(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	limiter := NewLocalRateLimiter(10, time.Minute)
	limiter.now = func() time.Time { return now }

	_, _ = limiter.Allow(context.Background(), "idle")
	now = now.Add(2 * time.Minute)
	_, _ = limiter.Allow(context.Background(), "active")

	limiter.mu.Lock()
	defer limiter.mu.Unlock()
	if _, ok := limiter.limiters["idle"]; ok {
		t.Fatal("expected idle key to be swept")
	}
	if _, ok := limiter.limiters["active"]; !ok {
		t.Fatal("expected active key to remain")
	}
}

func TestClientIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.1:4444"
	if got := clientIP(req); got != "10.0.0.1" {
		t.Fatalf("expected remote host, got %q", got)
	}

	req.Header.Set("X-Real-IP", "9.9.9.9")
	if got := clientIP(req); got != "9.9.9.9" {
		t.Fatalf("expected X-Real-IP, got %q", got)
	}

	req.Header.Set("X-Forwarded-For", " 8.8.8.8, 7.7.7.7")
	if got := clientIP(req); got != "8.8.8.8" {
		t.Fatalf("expected first forwarded address, got %q", got)
	}
}
