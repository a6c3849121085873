package httpapi

import (
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"TechNotesWebserver/internal/eventlog"
	"TechNotesWebserver/internal/ratelimit"
)

func TestThrottleLoginRejectsSixthAttempt(t *testing.T) {
	limiter := ratelimit.NewMemoryLimiter()
	defer limiter.Close()

	audit := eventlog.New(filepath.Join(t.TempDir(), "errLog.log"))
	a := &api{
		logger:           slog.New(slog.DiscardHandler),
		limiter:          limiter,
		auditLog:         audit,
		loginMaxAttempts: 5,
		loginWindow:      60 * time.Second,
	}

	handler := a.throttleLogin(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotImplemented)
	})

	for i := 1; i <= 5; i++ {
		rr := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/auth/login", nil)
		req.RemoteAddr = "192.0.2.7:41234"
		handler(rr, req)

		if rr.Code != http.StatusNotImplemented {
			t.Fatalf("attempt %d: status %d", i, rr.Code)
		}
		if got := rr.Header().Get("RateLimit-Limit"); got != "5" {
			t.Fatalf("attempt %d: RateLimit-Limit = %q", i, got)
		}
	}

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/auth/login", nil)
	req.RemoteAddr = "192.0.2.7:41234"
	handler(rr, req)

	if rr.Code != http.StatusTooManyRequests {
		t.Fatalf("6th attempt: status %d", rr.Code)
	}
	if got := decodeMessage(t, rr); got != loginLimitMessage {
		t.Fatalf("message: %q", got)
	}
	if got := rr.Header().Get("RateLimit-Remaining"); got != "0" {
		t.Fatalf("RateLimit-Remaining = %q", got)
	}
}

func TestThrottleLoginKeysByIP(t *testing.T) {
	limiter := ratelimit.NewMemoryLimiter()
	defer limiter.Close()

	a := &api{
		logger:           slog.New(slog.DiscardHandler),
		limiter:          limiter,
		loginMaxAttempts: 5,
		loginWindow:      60 * time.Second,
	}
	handler := a.throttleLogin(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotImplemented)
	})

	for i := 0; i < 6; i++ {
		rr := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/auth/login", nil)
		req.RemoteAddr = "192.0.2.1:1000"
		handler(rr, req)
	}

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/auth/login", nil)
	req.RemoteAddr = "192.0.2.2:1000"
	handler(rr, req)

	if rr.Code != http.StatusNotImplemented {
		t.Fatalf("other address throttled: %d", rr.Code)
	}
}

func TestThrottleLoginHeadersStandardizedOnly(t *testing.T) {
	limiter := ratelimit.NewMemoryLimiter()
	defer limiter.Close()

	a := &api{
		logger:           slog.New(slog.DiscardHandler),
		limiter:          limiter,
		loginMaxAttempts: 5,
		loginWindow:      60 * time.Second,
	}
	handler := a.throttleLogin(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotImplemented)
	})

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/auth/login", nil)
	req.RemoteAddr = "192.0.2.9:5555"
	handler(rr, req)

	h := rr.Header()
	if h.Get("RateLimit-Limit") != "5" || h.Get("RateLimit-Remaining") != "4" {
		t.Fatalf("quota headers: limit=%q remaining=%q", h.Get("RateLimit-Limit"), h.Get("RateLimit-Remaining"))
	}
	if h.Get("RateLimit-Reset") == "" {
		t.Fatalf("missing RateLimit-Reset")
	}
	for name := range h {
		if strings.HasPrefix(name, "X-Ratelimit") || strings.HasPrefix(name, "X-RateLimit") {
			t.Fatalf("legacy header present: %s", name)
		}
	}
}

func TestThrottleLoginAuditsRejection(t *testing.T) {
	limiter := ratelimit.NewMemoryLimiter()
	defer limiter.Close()

	logPath := filepath.Join(t.TempDir(), "errLog.log")
	a := &api{
		logger:           slog.New(slog.DiscardHandler),
		limiter:          limiter,
		auditLog:         eventlog.New(logPath),
		loginMaxAttempts: 1,
		loginWindow:      60 * time.Second,
	}
	handler := a.throttleLogin(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotImplemented)
	})

	for i := 0; i < 2; i++ {
		rr := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/auth/login?next=app", nil)
		req.RemoteAddr = "198.51.100.4:700"
		handler(rr, req)
	}

	data, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read audit log: %v", err)
	}
	line := string(data)
	for _, want := range []string{
		"Too many requests: " + loginLimitMessage,
		"POST",
		"/auth/login?next=app",
		"198.51.100.4",
	} {
		if !strings.Contains(line, want) {
			t.Fatalf("audit line missing %q: %s", want, line)
		}
	}

	// Allowed attempts are not audited.
	if got := strings.Count(strings.TrimRight(line, "\n"), "\n"); got != 0 {
		t.Fatalf("expected a single audit line, got %d extra", got)
	}
}

func TestThrottleLoginNilLimiterPassesThrough(t *testing.T) {
	a := &api{logger: slog.New(slog.DiscardHandler)}
	handler := a.throttleLogin(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotImplemented)
	})

	rr := httptest.NewRecorder()
	handler(rr, httptest.NewRequest(http.MethodPost, "/auth/login", nil))
	if rr.Code != http.StatusNotImplemented {
		t.Fatalf("status: %d", rr.Code)
	}
}
