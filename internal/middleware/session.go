package middleware

import (
	"context"
	"net/http"
	"time"

	"github.com/openmarket/market-server/internal/audit"
	apperrors "github.com/openmarket/market-server/internal/errors"
	"github.com/openmarket/market-server/internal/httputil"
	"github.com/openmarket/market-server/internal/model"
)

const (
	AdminSessionCookie = "admin_session"
	// AdminCookiePath keeps the session cookie off storefront and seller
	// requests. Set and clear must use the same path.
	AdminCookiePath = "/admin"
	// AdminLoginRedirect deliberately omits the path token.
	AdminLoginRedirect = "/admin/login"
)

type SessionAuthenticator interface {
	Authenticate(ctx context.Context, token string) (*model.AdminPrincipal, error)
}

type AdminSessionMiddleware struct {
	auth SessionAuthenticator
}

func NewAdminSessionMiddleware(auth SessionAuthenticator) *AdminSessionMiddleware {
	return &AdminSessionMiddleware{auth: auth}
}

// Handler requires a valid admin session. Browsers without one are sent to
// the login redirect; API clients get 401.
func (m *AdminSessionMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		principal, err := m.Resolve(r)
		if err != nil {
			if !apperrors.HasCode(err, apperrors.ErrCodeUnauthorized) {
				audit.LogFromRequest(r, audit.Event{
					Type:    audit.EventSessionRejected,
					Details: map[string]interface{}{"code": string(apperrors.GetCode(err))},
				})
			}
			if httputil.WantsJSON(r) {
				writeError(w, sessionError(err))
				return
			}
			http.Redirect(w, r, AdminLoginRedirect, http.StatusSeeOther)
			return
		}

		next.ServeHTTP(w, r.WithContext(WithAdminPrincipal(r.Context(), principal)))
	})
}

// Resolve authenticates the session cookie on r, if any.
func (m *AdminSessionMiddleware) Resolve(r *http.Request) (*model.AdminPrincipal, error) {
	cookie, err := r.Cookie(AdminSessionCookie)
	if err != nil || cookie.Value == "" {
		return nil, apperrors.Unauthorized("Authentication required")
	}
	return m.auth.Authenticate(r.Context(), cookie.Value)
}

// sessionError hides store failures behind a plain 401.
func sessionError(err error) error {
	switch apperrors.GetCode(err) {
	case apperrors.ErrCodeSessionExpired, apperrors.ErrCodeInvalidToken, apperrors.ErrCodeUnauthorized:
		return err
	default:
		return apperrors.Unauthorized("Authentication required")
	}
}

func SetSessionCookie(w http.ResponseWriter, r *http.Request, token string, ttl time.Duration, forceSecure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     AdminSessionCookie,
		Value:    token,
		Path:     AdminCookiePath,
		MaxAge:   int(ttl.Seconds()),
		HttpOnly: true,
		Secure:   forceSecure || isSecureRequest(r),
		SameSite: http.SameSiteLaxMode,
	})
}

func ClearSessionCookie(w http.ResponseWriter, r *http.Request, forceSecure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     AdminSessionCookie,
		Value:    "",
		Path:     AdminCookiePath,
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   forceSecure || isSecureRequest(r),
		SameSite: http.SameSiteLaxMode,
	})
}

func isSecureRequest(r *http.Request) bool {
	return r.TLS != nil || r.Header.Get("X-Forwarded-Proto") == "https"
}
