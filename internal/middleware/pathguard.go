package middleware

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/openmarket/market-server/internal/audit"
	"github.com/openmarket/market-server/internal/util"
)

const PathTokenParam = "pathToken"

// PathGuard hides the admin login behind a secret path segment. A wrong or
// missing token gets the router's ordinary 404 so the entry point cannot be
// told apart from a path that does not exist.
type PathGuard struct {
	token string
}

func NewPathGuard(token string) *PathGuard {
	return &PathGuard{token: token}
}

func (g *PathGuard) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !g.Allows(chi.URLParam(r, PathTokenParam)) {
			audit.LogFromRequest(r, audit.Event{
				Type:    audit.EventPathGuardDenied,
				Details: map[string]interface{}{"method": r.Method},
			})
			http.NotFound(w, r)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (g *PathGuard) Allows(token string) bool {
	if g.token == "" || token == "" {
		return false
	}
	return util.ConstantTimeEqual(token, g.token)
}

// Token returns the configured path token, used to build login links.
func (g *PathGuard) Token() string {
	return g.token
}
