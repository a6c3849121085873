package httpapi

import (
	"fmt"
	"math"
	"net"
	"net/http"
	"strconv"
	"time"

	"TechNotesWebserver/internal/ratelimit"
)

const loginLimitMessage = "Too many login attempts from this IP, please try again after 60 second pause!"

// throttleLogin gates login attempts per client IP over a fixed window.
// Every response through it carries the standardized RateLimit headers;
// the legacy X-RateLimit variants are intentionally absent.
func (a *api) throttleLogin(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if a.limiter == nil {
			next(w, r)
			return
		}

		ip := clientIP(r)
		decision := a.limiter.Allow("ip:"+ip, a.loginMaxAttempts, a.loginWindow)
		applyRateHeaders(w, a.loginMaxAttempts, decision)

		if !decision.Allowed {
			if a.auditLog != nil {
				entry := fmt.Sprintf("Too many requests: %s\t%s\t%s\t%s", loginLimitMessage, r.Method, r.URL.String(), ip)
				if err := a.auditLog.Log(entry); err != nil {
					a.logger.Error("audit log write failed", "err", err)
				}
			}
			a.logger.Warn("login attempt throttled", "ip", ip, "method", r.Method, "url", r.URL.String())
			writeMessage(w, http.StatusTooManyRequests, loginLimitMessage)
			return
		}

		next(w, r)
	}
}

func applyRateHeaders(w http.ResponseWriter, limit int, decision ratelimit.Decision) {
	if limit <= 0 {
		return
	}
	remaining := limit - decision.Count
	if remaining < 0 {
		remaining = 0
	}
	headers := w.Header()
	headers.Set("RateLimit-Limit", strconv.Itoa(limit))
	headers.Set("RateLimit-Remaining", strconv.Itoa(remaining))
	if !decision.WindowEnd.IsZero() {
		reset := math.Ceil(time.Until(decision.WindowEnd).Seconds())
		if reset < 0 {
			reset = 0
		}
		headers.Set("RateLimit-Reset", strconv.Itoa(int(reset)))
	}
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	if host == "" {
		host = "unknown"
	}
	return host
}
