package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/openmarket/market-server/internal/config"
	"github.com/openmarket/market-server/internal/model"
)

// NotificationFeed is the admin console's view of lifecycle events.
type NotificationFeed interface {
	ListUnread(ctx context.Context, limit int) ([]model.Notification, int, error)
	List(ctx context.Context, limit, offset int) ([]model.Notification, int, error)
	MarkRead(ctx context.Context, id string) error
	MarkAllRead(ctx context.Context) (int64, error)
}

func (h *AdminHandler) ListUnreadNotifications(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	items, count, err := h.notifications.ListUnread(r.Context(), limit)
	if err != nil {
		writeError(w, err)
		return
	}
	if items == nil {
		items = []model.Notification{}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"items":               items,
		"count":               count,
		"pollIntervalSeconds": int(config.NotificationPollInterval.Seconds()),
	})
}

func (h *AdminHandler) ListNotifications(w http.ResponseWriter, r *http.Request) {
	q, err := parseListQuery(r)
	if err != nil {
		writeError(w, err)
		return
	}

	items, total, err := h.notifications.List(r.Context(), q.Limit, q.Offset)
	if err != nil {
		writeError(w, err)
		return
	}
	if items == nil {
		items = []model.Notification{}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"items": items,
		"total": total,
	})
}

func (h *AdminHandler) MarkNotificationRead(w http.ResponseWriter, r *http.Request) {
	err := h.notifications.MarkRead(r.Context(), chi.URLParam(r, "id"))
	respond(w, r, map[string]bool{"success": true}, "Notification marked as read", err)
}

func (h *AdminHandler) MarkAllNotificationsRead(w http.ResponseWriter, r *http.Request) {
	changed, err := h.notifications.MarkAllRead(r.Context())
	respond(w, r, map[string]int64{"updated": changed}, "All notifications marked as read", err)
}
