package mw

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/MrSnakeDoc/gieok/internal/logger"
)

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusTeapot)
	_, _ = w.Write([]byte("ok"))
})

func serve(h http.Handler, r *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, r)
	return rec
}

// ─────────────────────────────────────────────────────────────────
// EnforceHost
// ─────────────────────────────────────────────────────────────────

func TestEnforceHost(t *testing.T) {
	h := EnforceHost([]string{"gieok.app", "*.gieok.dev"}, logger.NewNop())(okHandler)

	tests := []struct {
		host string
		want int
	}{
		{host: "gieok.app", want: http.StatusTeapot},
		{host: "GIEOK.app:8080", want: http.StatusTeapot},
		{host: "preview.gieok.dev", want: http.StatusTeapot},
		{host: "gieok.dev", want: http.StatusMisdirectedRequest},
		{host: "evilgieok.dev", want: http.StatusMisdirectedRequest},
		{host: "other.app", want: http.StatusMisdirectedRequest},
	}
	for _, tt := range tests {
		t.Run(tt.host, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			r.Host = tt.host
			if got := serve(h, r).Code; got != tt.want {
				t.Errorf("status = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestEnforceHost_EmptyListIsPassthrough(t *testing.T) {
	h := EnforceHost([]string{" ", ""}, logger.NewNop())(okHandler)
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Host = "anything.example"
	if got := serve(h, r).Code; got != http.StatusTeapot {
		t.Errorf("status = %d, want passthrough", got)
	}
}

// ─────────────────────────────────────────────────────────────────
// AllowOnlyCIDRS
// ─────────────────────────────────────────────────────────────────

func TestAllowOnlyCIDRS(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	h := AllowOnlyCIDRS([]string{"10.0.0.0/8", "oops"}, true, logger.FromZap(zap.New(core)))(okHandler)

	if logs.FilterMessage("ignoring malformed probe allow list entries").Len() != 1 {
		t.Error("malformed entry should be logged once at construction")
	}

	tests := []struct {
		name   string
		remote string
		xff    string
		want   int
	}{
		{name: "allowed remote", remote: "10.1.2.3:999", want: http.StatusTeapot},
		{name: "refused remote", remote: "192.0.2.1:999", want: http.StatusForbidden},
		{name: "forwarded client allowed", remote: "192.0.2.1:999", xff: "10.9.9.9", want: http.StatusTeapot},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/metrics", nil)
			r.RemoteAddr = tt.remote
			if tt.xff != "" {
				r.Header.Set("X-Forwarded-For", tt.xff)
			}
			rec := serve(h, r)
			if rec.Code != tt.want {
				t.Fatalf("status = %d, want %d", rec.Code, tt.want)
			}
			if tt.want == http.StatusForbidden && !strings.Contains(rec.Body.String(), `"forbidden"`) {
				t.Errorf("body = %q, want JSON error", rec.Body.String())
			}
		})
	}
}

// ─────────────────────────────────────────────────────────────────
// RateLimit
// ─────────────────────────────────────────────────────────────────

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func TestRateLimit_BurstThenRefill(t *testing.T) {
	clock := &fakeClock{now: time.Unix(1_700_000_000, 0)}
	h := RateLimit(RateLimitConfig{Burst: 2, RefillPerIPPerMin: 60, Now: clock.Now})(okHandler)

	req := func(remote string) *httptest.ResponseRecorder {
		r := httptest.NewRequest(http.MethodPost, "/api/links", nil)
		r.RemoteAddr = remote
		return serve(h, r)
	}

	for i := 0; i < 2; i++ {
		if rec := req("192.0.2.1:1"); rec.Code != http.StatusTeapot {
			t.Fatalf("request %d status = %d", i, rec.Code)
		}
	}

	rec := req("192.0.2.1:1")
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("third request status = %d, want 429", rec.Code)
	}
	if rec.Header().Get("Retry-After") != "1" {
		t.Errorf("Retry-After = %q, want 1", rec.Header().Get("Retry-After"))
	}
	if !strings.Contains(rec.Body.String(), "too many requests") {
		t.Errorf("body = %q", rec.Body.String())
	}

	if rec := req("192.0.2.2:1"); rec.Code != http.StatusTeapot {
		t.Errorf("other client status = %d, buckets must be per IP", rec.Code)
	}

	clock.Advance(time.Second)
	if rec := req("192.0.2.1:1"); rec.Code != http.StatusTeapot {
		t.Errorf("after refill status = %d", rec.Code)
	}
}

func TestLimiter_SweepsIdleClients(t *testing.T) {
	clock := &fakeClock{now: time.Unix(1_700_000_000, 0)}
	l := newLimiter(RateLimitConfig{Burst: 1, IdleTTL: time.Minute, SweepInterval: time.Minute, Now: clock.Now})

	l.take("a")
	l.take("b")
	if l.size() != 2 {
		t.Fatalf("size = %d, want 2", l.size())
	}

	clock.Advance(2 * time.Minute)
	l.take("c")
	if l.size() != 1 {
		t.Errorf("size = %d, want only the fresh client", l.size())
	}
}

// ─────────────────────────────────────────────────────────────────
// Timeout and Log
// ─────────────────────────────────────────────────────────────────

func TestTimeout_SkipsWebsocketUpgrades(t *testing.T) {
	var hadDeadline bool
	probe := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, hadDeadline = r.Context().Deadline()
	})
	h := Timeout(time.Second)(probe)

	serve(h, httptest.NewRequest(http.MethodGet, "/api/links", nil))
	if !hadDeadline {
		t.Error("plain request should carry a deadline")
	}

	r := httptest.NewRequest(http.MethodGet, "/api/feed", nil)
	r.Header.Set("Connection", "Upgrade")
	r.Header.Set("Upgrade", "websocket")
	serve(h, r)
	if hadDeadline {
		t.Error("websocket upgrade must not carry the request deadline")
	}

	hadDeadline = false
	serve(Timeout(0)(probe), httptest.NewRequest(http.MethodGet, "/", nil))
	if hadDeadline {
		t.Error("zero timeout should be a passthrough")
	}
}

type requestRecorder struct {
	method string
	status int
}

func (r *requestRecorder) HTTPRequest(method string, status int, _ time.Duration) {
	r.method, r.status = method, status
}

func TestLog_RecordsStatusWithoutSecrets(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	rec := &requestRecorder{}
	h := Log(logger.FromZap(zap.New(core)), rec)(okHandler)

	r := httptest.NewRequest(http.MethodPost, "/api/links", nil)
	r.Header.Set("X-Access-Key", "s3cret")
	r.AddCookie(&http.Cookie{Name: "gieok_session", Value: "token-value"})
	serve(h, r)

	if rec.method != http.MethodPost || rec.status != http.StatusTeapot {
		t.Errorf("recorded %s %d", rec.method, rec.status)
	}

	entries := logs.FilterMessage("http_request").All()
	if len(entries) != 1 {
		t.Fatalf("got %d access log lines, want 1", len(entries))
	}
	fields := entries[0].ContextMap()
	if fields["status"] != int64(http.StatusTeapot) || fields["bytes"] != int64(2) {
		t.Errorf("fields = %v", fields)
	}
	for _, v := range fields {
		if s, ok := v.(string); ok && (strings.Contains(s, "s3cret") || strings.Contains(s, "token-value")) {
			t.Errorf("secret leaked into access log: %v", fields)
		}
	}
}
