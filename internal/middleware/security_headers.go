package middleware

import (
	"net/http"

	"github.com/rs/zerolog/log"

	apperrors "github.com/openmarket/market-server/internal/errors"
	"github.com/openmarket/market-server/internal/util"
)

// SecurityHeadersMiddleware guards the admin pages. The only inline code they
// carry is one <style> and one polling <script>, both tagged with a
// per-request nonce, so the policy allows nothing else inline.
type SecurityHeadersMiddleware struct {
	isProduction bool
}

func NewSecurityHeadersMiddleware(isProduction bool) *SecurityHeadersMiddleware {
	return &SecurityHeadersMiddleware{isProduction: isProduction}
}

func (m *SecurityHeadersMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		nonce, err := util.GenerateToken()
		if err != nil {
			log.Error().Err(err).Msg("failed to generate CSP nonce")
			writeError(w, apperrors.Internal("An unexpected error occurred"))
			return
		}

		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "same-origin")
		w.Header().Set("X-Robots-Tag", "noindex, nofollow")
		w.Header().Set("Permissions-Policy", "camera=(), microphone=(), geolocation=()")

		if m.isProduction {
			w.Header().Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		}

		w.Header().Set("Content-Security-Policy", contentSecurityPolicy(nonce))

		next.ServeHTTP(w, r.WithContext(WithCSPNonce(r.Context(), nonce)))
	})
}

// The dashboard polls the unread feed with fetch, hence connect-src 'self'.
func contentSecurityPolicy(nonce string) string {
	return "default-src 'none'; " +
		"script-src 'nonce-" + nonce + "'; " +
		"style-src 'nonce-" + nonce + "'; " +
		"connect-src 'self'; " +
		"form-action 'self'; " +
		"frame-ancestors 'none'; " +
		"base-uri 'none'"
}
