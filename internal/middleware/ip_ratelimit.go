package middleware

import (
	"context"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/openmarket/market-server/internal/audit"
	apperrors "github.com/openmarket/market-server/internal/errors"
)

// AttemptLimiter counts attempts per key in a sliding window.
type AttemptLimiter interface {
	CheckLimit(ctx context.Context, key string, limit int, window time.Duration) (allowed bool, resetAt time.Time)
}

// IPRateLimitMiddleware limits requests per client address. It guards the
// admin login form and the public application endpoint.
type IPRateLimitMiddleware struct {
	limiter AttemptLimiter
	limit   int
	window  time.Duration
	scope   string
	keyFor  func(ip string) string
}

func NewIPRateLimitMiddleware(limiter AttemptLimiter, limit int, window time.Duration, scope string, keyFor func(ip string) string) *IPRateLimitMiddleware {
	return &IPRateLimitMiddleware{
		limiter: limiter,
		limit:   limit,
		window:  window,
		scope:   scope,
		keyFor:  keyFor,
	}
}

func (m *IPRateLimitMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if m.limiter == nil || m.limit <= 0 {
			next.ServeHTTP(w, r)
			return
		}

		key := m.keyFor(clientIP(r))
		allowed, resetAt := m.limiter.CheckLimit(r.Context(), key, m.limit, m.window)

		if !allowed {
			secondsLeft := int(time.Until(resetAt).Seconds()) + 1
			if secondsLeft < 1 {
				secondsLeft = 1
			}
			audit.LogFromRequest(r, audit.Event{
				Type:    audit.EventRateLimitExceed,
				Details: map[string]interface{}{"scope": m.scope},
			})
			w.Header().Set("Retry-After", strconv.Itoa(secondsLeft))
			writeError(w, apperrors.RateLimitExceeded())
			return
		}

		next.ServeHTTP(w, r)
	})
}

// clientIP strips the port from RemoteAddr, which chi's RealIP middleware
// has already replaced with the forwarded address when present.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
