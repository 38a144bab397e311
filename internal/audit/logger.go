package audit

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type EventType string

const (
	EventLoginSuccess       EventType = "login_success"
	EventLoginFailure       EventType = "login_failure"
	EventLogout             EventType = "logout"
	EventPathGuardDenied    EventType = "path_guard_denied"
	EventRateLimitExceed    EventType = "rate_limit_exceeded"
	EventCSRFFailure        EventType = "csrf_failure"
	EventSessionRejected    EventType = "session_rejected"
	EventSellerApplied      EventType = "seller_applied"
	EventSellerApproved     EventType = "seller_approved"
	EventSellerRejected     EventType = "seller_rejected"
	EventSellerSuspended    EventType = "seller_suspended"
	EventSellerUnsuspended  EventType = "seller_unsuspended"
	EventSuspensionExpired  EventType = "seller_suspension_expired"
	EventTransitionRejected EventType = "seller_transition_rejected"
)

type Event struct {
	Type       EventType
	Actor      string
	ResourceID string
	IP         string
	UserAgent  string
	Details    map[string]interface{}
}

func Log(ctx context.Context, event Event) {
	logger := log.With().
		Str("audit", "security").
		Str("event_type", string(event.Type)).
		Time("timestamp", time.Now()).
		Logger()

	if event.Actor != "" {
		logger = logger.With().Str("actor", event.Actor).Logger()
	}
	if event.ResourceID != "" {
		logger = logger.With().Str("resource_id", event.ResourceID).Logger()
	}
	if event.IP != "" {
		logger = logger.With().Str("ip", event.IP).Logger()
	}
	if event.UserAgent != "" {
		logger = logger.With().Str("user_agent", event.UserAgent).Logger()
	}

	logEvent := logger.Info()
	for k, v := range event.Details {
		logEvent = addField(logEvent, k, v)
	}
	logEvent.Msg("security audit event")
}

func addField(e *zerolog.Event, key string, value interface{}) *zerolog.Event {
	switch v := value.(type) {
	case string:
		return e.Str(key, v)
	case int:
		return e.Int(key, v)
	case int64:
		return e.Int64(key, v)
	case bool:
		return e.Bool(key, v)
	default:
		return e.Interface(key, v)
	}
}

func LogFromRequest(r *http.Request, event Event) {
	event.IP = getClientIP(r)
	event.UserAgent = r.UserAgent()
	Log(r.Context(), event)
}

// getClientIP prefers RemoteAddr once chi's RealIP middleware has rewritten
// it, and falls back to the forwarding headers otherwise.
func getClientIP(r *http.Request) string {
	if r.RemoteAddr != "" && !strings.Contains(r.RemoteAddr, ":") {
		return r.RemoteAddr
	}
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		return forwarded
	}
	if realIP := r.Header.Get("X-Real-IP"); realIP != "" {
		return realIP
	}
	return r.RemoteAddr
}
