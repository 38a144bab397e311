package middleware

import (
	"context"

	"github.com/openmarket/market-server/internal/model"
)

type contextKey string

const (
	AdminPrincipalContextKey contextKey = "adminPrincipal"
	CSRFTokenContextKey      contextKey = "csrfToken"
	CSPNonceContextKey       contextKey = "cspNonce"
)

func GetAdminPrincipal(ctx context.Context) *model.AdminPrincipal {
	if principal, ok := ctx.Value(AdminPrincipalContextKey).(*model.AdminPrincipal); ok {
		return principal
	}
	return nil
}

func WithAdminPrincipal(ctx context.Context, principal *model.AdminPrincipal) context.Context {
	return context.WithValue(ctx, AdminPrincipalContextKey, principal)
}

// GetCSRFToken returns the token forms must echo back in their csrf_token field.
func GetCSRFToken(ctx context.Context) string {
	if token, ok := ctx.Value(CSRFTokenContextKey).(string); ok {
		return token
	}
	return ""
}

func WithCSPNonce(ctx context.Context, nonce string) context.Context {
	return context.WithValue(ctx, CSPNonceContextKey, nonce)
}

// GetCSPNonce returns the nonce inline <script> and <style> tags must carry.
func GetCSPNonce(ctx context.Context) string {
	if nonce, ok := ctx.Value(CSPNonceContextKey).(string); ok {
		return nonce
	}
	return ""
}
