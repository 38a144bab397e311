package handler

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/openmarket/market-server/internal/audit"
	"github.com/openmarket/market-server/internal/config"
	apperrors "github.com/openmarket/market-server/internal/errors"
	"github.com/openmarket/market-server/internal/httputil"
	"github.com/openmarket/market-server/internal/middleware"
	"github.com/openmarket/market-server/internal/model"
)

// AdminAuth logs the administrator in and out.
type AdminAuth interface {
	Login(ctx context.Context, email, password string) (string, *model.AdminPrincipal, error)
	Logout(ctx context.Context, token string) (*model.AdminPrincipal, error)
	TTL() time.Duration
}

type AdminHandler struct {
	auth          AdminAuth
	sellers       SellerManager
	notifications NotificationFeed
	session       *middleware.AdminSessionMiddleware
	guard         *middleware.PathGuard
	csrf          *middleware.CSRFMiddleware
	loginLimiter  *middleware.IPRateLimitMiddleware
	isProduction  bool
}

func NewAdminHandler(
	auth AdminAuth,
	sellers SellerManager,
	notifications NotificationFeed,
	session *middleware.AdminSessionMiddleware,
	guard *middleware.PathGuard,
	csrf *middleware.CSRFMiddleware,
	loginLimiter *middleware.IPRateLimitMiddleware,
	isProduction bool,
) *AdminHandler {
	return &AdminHandler{
		auth:          auth,
		sellers:       sellers,
		notifications: notifications,
		session:       session,
		guard:         guard,
		csrf:          csrf,
		loginLimiter:  loginLimiter,
		isProduction:  isProduction,
	}
}

// Routes is mounted at /admin. The path guard wraps the login routes ahead
// of CSRF and the attempt limiter.
func (h *AdminHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/logout", h.Logout)

	r.Route("/login/{"+middleware.PathTokenParam+"}", func(r chi.Router) {
		r.Use(h.guard.Handler)
		r.Use(h.csrf.Handler)
		r.Get("/", h.LoginPage)
		if h.loginLimiter != nil {
			r.With(h.loginLimiter.Handler).Post("/", h.Login)
		} else {
			r.Post("/", h.Login)
		}
	})

	r.Group(func(r chi.Router) {
		r.Use(h.session.Handler)
		r.Use(h.csrf.Handler)

		r.Get("/", func(w http.ResponseWriter, r *http.Request) {
			http.Redirect(w, r, dashboardPath, http.StatusSeeOther)
		})
		r.Get("/dashboard", h.Dashboard)

		// Sellers
		r.Get("/sellers", h.ListSellers)
		r.Get("/sellers/{id}", h.GetSeller)
		r.Post("/sellers/{id}/approve", h.ApproveSeller)
		r.Post("/sellers/{id}/reject", h.RejectSeller)
		r.Post("/sellers/{id}/suspend", h.SuspendSeller)
		r.Post("/sellers/{id}/unsuspend", h.UnsuspendSeller)

		// Notifications
		r.Get("/notifications", h.ListNotifications)
		r.Get("/notifications/unread", h.ListUnreadNotifications)
		r.Post("/notifications/read/{id}", h.MarkNotificationRead)
		r.Post("/notifications/read-all", h.MarkAllNotificationsRead)
	})

	return r
}

type loginForm struct {
	Email    string `schema:"email" json:"email"`
	Password string `schema:"password" json:"password"`
}

type loginPage struct {
	CSRFToken string
	CSPNonce  string
	Error     string
}

func (h *AdminHandler) LoginPage(w http.ResponseWriter, r *http.Request) {
	if _, err := h.session.Resolve(r); err == nil {
		http.Redirect(w, r, dashboardPath, http.StatusSeeOther)
		return
	}

	render(w, http.StatusOK, "login.html", loginPage{
		CSRFToken: middleware.GetCSRFToken(r.Context()),
		CSPNonce:  middleware.GetCSPNonce(r.Context()),
	})
}

func (h *AdminHandler) Login(w http.ResponseWriter, r *http.Request) {
	var form loginForm
	if err := decodeInput(r, &form); err != nil {
		h.loginFailed(w, r, apperrors.New(apperrors.ErrCodeValidation, apperrors.InvalidCredentialsMessage).WithCause(err))
		return
	}

	token, principal, err := h.auth.Login(r.Context(), form.Email, form.Password)
	if err != nil {
		h.loginFailed(w, r, err)
		return
	}

	middleware.SetSessionCookie(w, r, token, h.auth.TTL(), h.isProduction)
	audit.LogFromRequest(r, audit.Event{
		Type:  audit.EventLoginSuccess,
		Actor: principal.Email,
	})

	if httputil.WantsJSON(r) {
		writeJSON(w, http.StatusOK, principal)
		return
	}
	http.Redirect(w, r, dashboardPath, http.StatusSeeOther)
}

// loginFailed answers every credential failure the same way. The specific
// reason only reaches the audit log.
func (h *AdminHandler) loginFailed(w http.ResponseWriter, r *http.Request, err error) {
	reason := "unknown"
	if cause := errors.Unwrap(err); cause != nil {
		reason = cause.Error()
	}
	audit.LogFromRequest(r, audit.Event{
		Type:    audit.EventLoginFailure,
		Details: map[string]interface{}{"reason": reason},
	})

	appErr, ok := apperrors.AsAppError(err)
	if !ok {
		appErr = apperrors.Internal("Login failed")
	}
	status := httputil.StatusFromCode(appErr.Code)
	if status >= http.StatusInternalServerError {
		log.Error().Err(err).Msg("admin login error")
	}

	if httputil.WantsJSON(r) {
		httputil.WriteErrorWithStatus(w, status, appErr)
		return
	}
	render(w, status, "login.html", loginPage{
		CSRFToken: middleware.GetCSRFToken(r.Context()),
		CSPNonce:  middleware.GetCSPNonce(r.Context()),
		Error:     appErr.Message,
	})
}

// Logout revokes the session and clears the cookie. Only a caller that held
// a valid session is sent back to the hidden login URL; anyone else lands on
// the bare login path, which is a 404, so an unauthenticated GET of /logout
// cannot be used to learn the path token.
func (h *AdminHandler) Logout(w http.ResponseWriter, r *http.Request) {
	target := middleware.AdminLoginRedirect

	if cookie, err := r.Cookie(middleware.AdminSessionCookie); err == nil && cookie.Value != "" {
		if principal, err := h.auth.Logout(r.Context(), cookie.Value); err == nil {
			audit.LogFromRequest(r, audit.Event{
				Type:  audit.EventLogout,
				Actor: principal.Email,
			})
			target = middleware.AdminLoginRedirect + "/" + url.PathEscape(h.guard.Token())
		}
	}

	middleware.ClearSessionCookie(w, r, h.isProduction)
	http.Redirect(w, r, target, http.StatusSeeOther)
}

type dashboardPage struct {
	Principal           *model.AdminPrincipal
	CSRFToken           string
	CSPNonce            string
	Notice              string
	Error               string
	Counts              model.StatusCounts
	Statuses            []model.SellerStatus
	Filter              model.SellerStatus
	Sellers             []model.Seller
	Total               int
	Unread              []model.Notification
	UnreadCount         int
	PollIntervalSeconds int
	Now                 time.Time
}

func (h *AdminHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	filter := model.SellerStatus(r.URL.Query().Get("status"))
	if !filter.Valid() {
		filter = ""
	}

	counts, err := h.sellers.CountByStatus(ctx)
	if err != nil {
		writeError(w, err)
		return
	}
	sellers, total, err := h.sellers.List(ctx, filter, DefaultLimit, 0)
	if err != nil {
		writeError(w, err)
		return
	}
	unread, unreadCount, err := h.notifications.ListUnread(ctx, 10)
	if err != nil {
		writeError(w, err)
		return
	}

	render(w, http.StatusOK, "dashboard.html", dashboardPage{
		Principal:           middleware.GetAdminPrincipal(ctx),
		CSRFToken:           middleware.GetCSRFToken(ctx),
		CSPNonce:            middleware.GetCSPNonce(ctx),
		Notice:              r.URL.Query().Get("notice"),
		Error:               r.URL.Query().Get("error"),
		Counts:              counts,
		Statuses:            model.SellerStatuses,
		Filter:              filter,
		Sellers:             sellers,
		Total:               total,
		Unread:              unread,
		UnreadCount:         unreadCount,
		PollIntervalSeconds: int(config.NotificationPollInterval.Seconds()),
		Now:                 time.Now(),
	})
}
