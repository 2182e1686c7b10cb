package ratelimit

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

func newClock() *fakeClock {
	return &fakeClock{t: time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC)}
}

var fivePerSecond = Policy{Name: "test", Window: 1000 * time.Millisecond, Max: 5, Message: "slow down"}

func TestLimiter_FixedWindow(t *testing.T) {
	clock := newClock()
	l := NewLimiter(NewMemoryStore(clock.Now), WithClock(clock.Now))
	ctx := context.Background()

	for i := 1; i <= 5; i++ {
		d := l.Allow(ctx, "1.2.3.4:/login", fivePerSecond)
		if !d.Allowed {
			t.Fatalf("call %d rejected", i)
		}
		if d.Remaining != 5-i {
			t.Errorf("call %d remaining = %d, want %d", i, d.Remaining, 5-i)
		}
		clock.Advance(10 * time.Millisecond)
	}
	d := l.Allow(ctx, "1.2.3.4:/login", fivePerSecond)
	if d.Allowed {
		t.Fatal("6th call should be rejected")
	}
	if d.RetryAfter <= 0 {
		t.Errorf("RetryAfter = %d, want > 0", d.RetryAfter)
	}
	if d.Remaining != 0 {
		t.Errorf("Remaining = %d, want 0", d.Remaining)
	}

	clock.Advance(time.Second)
	d = l.Allow(ctx, "1.2.3.4:/login", fivePerSecond)
	if !d.Allowed || d.Remaining != 4 {
		t.Errorf("after window: %+v, want allowed with count reset to 1", d)
	}
}

func TestLimiter_KeysAreIndependent(t *testing.T) {
	clock := newClock()
	l := NewLimiter(NewMemoryStore(clock.Now), WithClock(clock.Now))
	p := Policy{Name: "one", Window: time.Minute, Max: 1}
	if !l.Allow(context.Background(), "a:/x", p).Allowed {
		t.Fatal("first hit for a rejected")
	}
	if !l.Allow(context.Background(), "b:/x", p).Allowed {
		t.Error("b should have its own window")
	}
	if !l.Allow(context.Background(), "a:/y", p).Allowed {
		t.Error("a on another route should have its own window")
	}
	if l.Allow(context.Background(), "a:/x", p).Allowed {
		t.Error("second hit for a:/x should be rejected")
	}
}

func TestLimiter_ResetAtBoundary(t *testing.T) {
	clock := newClock()
	store := NewMemoryStore(clock.Now)
	w1, _ := store.Hit(context.Background(), "k", time.Second)
	clock.Set(w1.ResetAt)
	w2, _ := store.Hit(context.Background(), "k", time.Second)
	if w2.Count != 1 {
		t.Errorf("count at resetAt = %d, want 1 (new window)", w2.Count)
	}
}

func (c *fakeClock) Set(t time.Time) {
	c.mu.Lock()
	c.t = t
	c.mu.Unlock()
}

type failingStore struct{}

func (failingStore) Hit(context.Context, string, time.Duration) (Window, error) {
	return Window{}, errors.New("redis: connection refused")
}

func TestLimiter_FailsOpen(t *testing.T) {
	l := NewLimiter(failingStore{})
	for i := 0; i < 10; i++ {
		if d := l.Allow(context.Background(), "k", fivePerSecond); !d.Allowed {
			t.Fatalf("call %d rejected while store is down", i)
		}
	}
}

func TestMemoryStore_Sweep(t *testing.T) {
	clock := newClock()
	store := NewMemoryStore(clock.Now)
	ctx := context.Background()
	store.Hit(ctx, "short", time.Second)
	store.Hit(ctx, "long", time.Hour)
	if store.Len() != 2 {
		t.Fatalf("Len = %d, want 2", store.Len())
	}
	clock.Advance(2 * time.Second)
	if n := store.Sweep(); n != 1 {
		t.Errorf("Sweep removed %d, want 1", n)
	}
	if store.Len() != 1 {
		t.Errorf("Len after sweep = %d, want 1", store.Len())
	}
}

func TestMemoryStore_RunStopsOnCancel(t *testing.T) {
	store := NewMemoryStore(nil)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		store.Run(ctx, time.Millisecond)
		close(done)
	}()
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestMemoryStore_ConcurrentHits(t *testing.T) {
	store := NewMemoryStore(nil)
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			store.Hit(context.Background(), "k", time.Hour)
		}()
	}
	wg.Wait()
	w, _ := store.Hit(context.Background(), "k", time.Hour)
	if w.Count != 51 {
		t.Errorf("Count = %d, want 51; no hit may be lost", w.Count)
	}
}

func TestMiddleware_HeadersAndRejection(t *testing.T) {
	clock := newClock()
	l := NewLimiter(NewMemoryStore(clock.Now), WithClock(clock.Now))
	p := Policy{Name: "two", Window: time.Minute, Max: 2, Message: "Too many login attempts. Please try again later."}
	h := l.Middleware(p)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	do := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", nil)
		req.Header.Set("X-Forwarded-For", "10.0.0.1")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}

	rec := do()
	if rec.Code != http.StatusOK {
		t.Fatalf("first status = %d", rec.Code)
	}
	if rec.Header().Get("X-RateLimit-Limit") != "2" || rec.Header().Get("X-RateLimit-Remaining") != "1" {
		t.Errorf("headers = %v", rec.Header())
	}
	wantReset := clock.Now().Add(time.Minute).Unix()
	if got := rec.Header().Get("X-RateLimit-Reset"); got != strconv.FormatInt(wantReset, 10) {
		t.Errorf("X-RateLimit-Reset = %s, want %d", got, wantReset)
	}

	do()
	clock.Advance(30 * time.Second)
	rec = do()
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("third status = %d, want 429", rec.Code)
	}
	if rec.Header().Get("Retry-After") != "30" {
		t.Errorf("Retry-After = %q, want 30", rec.Header().Get("Retry-After"))
	}
	var body struct {
		Error      string `json:"error"`
		Code       string `json:"code"`
		RetryAfter int    `json:"retryAfter"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Code != "RATE_LIMITED" || body.RetryAfter != 30 || body.Error != p.Message {
		t.Errorf("body = %+v", body)
	}
}

func TestMiddleware_StackedPoliciesCountSeparately(t *testing.T) {
	l := NewLimiter(NewMemoryStore(nil))
	outer := Policy{Name: "outer", Window: time.Minute, Max: 100}
	inner := Policy{Name: "inner", Window: time.Minute, Max: 3}
	var remaining []string
	h := l.Middleware(outer)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		remaining = append(remaining, w.Header().Get("X-RateLimit-Remaining"))
		l.Middleware(inner)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		})).ServeHTTP(w, r)
	}))

	for i := 1; i <= 3; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/users/u-1/reset-password", nil)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("call %d: status %d, want 200", i, rec.Code)
		}
		if got, want := rec.Header().Get("X-RateLimit-Remaining"), strconv.Itoa(3-i); got != want {
			t.Errorf("call %d inner remaining = %s, want %s", i, got, want)
		}
	}
	if want := []string{"99", "98", "97"}; strings.Join(remaining, ",") != strings.Join(want, ",") {
		t.Errorf("outer remaining = %v, want %v", remaining, want)
	}
}

func TestClientKey(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/contacts", nil)
	if got := ClientKey(req); got != "unknown:/api/v1/contacts" {
		t.Errorf("no headers: %q", got)
	}
	req.Header.Set("X-Real-IP", "9.9.9.9")
	if got := ClientKey(req); got != "9.9.9.9:/api/v1/contacts" {
		t.Errorf("X-Real-IP: %q", got)
	}
	req.Header.Set("X-Forwarded-For", "8.8.8.8")
	if got := ClientKey(req); got != "8.8.8.8:/api/v1/contacts" {
		t.Errorf("X-Forwarded-For wins: %q", got)
	}
}

func TestPresets(t *testing.T) {
	cases := []struct {
		p      Policy
		window time.Duration
		max    int
	}{
		{Strict, time.Minute, 10},
		{Auth, 15 * time.Minute, 5},
		{General, time.Minute, 100},
		{Public, time.Minute, 30},
	}
	for _, tc := range cases {
		if tc.p.Window != tc.window || tc.p.Max != tc.max || tc.p.Message == "" {
			t.Errorf("%s = %+v", tc.p.Name, tc.p)
		}
	}
}
