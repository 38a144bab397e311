package service

import (
	"context"
	"time"

	apperrors "github.com/openmarket/market-server/internal/errors"
	"github.com/openmarket/market-server/internal/model"
	"github.com/openmarket/market-server/internal/repository"
	"github.com/openmarket/market-server/internal/util"
)

const (
	DefaultUnreadLimit       = 50
	DefaultNotificationLimit = 50
	MaxNotificationLimit     = 200
)

// NotificationService serves the admin feed. Notifications are written by
// the seller lifecycle; this service only reads them and flips read flags.
type NotificationService struct {
	repo repository.NotificationRepository
	now  func() time.Time
}

func NewNotificationService(repo repository.NotificationRepository) *NotificationService {
	return &NotificationService{repo: repo, now: time.Now}
}

// ListUnread returns unread notifications, most recent first, along with the
// total unread count.
func (s *NotificationService) ListUnread(ctx context.Context, limit int) ([]model.Notification, int, error) {
	if limit <= 0 || limit > MaxNotificationLimit {
		limit = DefaultUnreadLimit
	}
	items, err := s.repo.FindUnread(ctx, limit)
	if err != nil {
		return nil, 0, apperrors.Database(err)
	}
	count, err := s.repo.CountUnread(ctx)
	if err != nil {
		return nil, 0, apperrors.Database(err)
	}
	return items, count, nil
}

func (s *NotificationService) CountUnread(ctx context.Context) (int, error) {
	count, err := s.repo.CountUnread(ctx)
	if err != nil {
		return 0, apperrors.Database(err)
	}
	return count, nil
}

func (s *NotificationService) List(ctx context.Context, limit, offset int) ([]model.Notification, int, error) {
	items, err := s.repo.FindAll(ctx, limit, offset)
	if err != nil {
		return nil, 0, apperrors.Database(err)
	}
	total, err := s.repo.Count(ctx)
	if err != nil {
		return nil, 0, apperrors.Database(err)
	}
	return items, total, nil
}

// MarkRead marks one notification read. Marking an already-read notification
// is a no-op.
func (s *NotificationService) MarkRead(ctx context.Context, id string) error {
	if !util.IsValidUUID(id) {
		return apperrors.NotFound("Notification")
	}
	found, err := s.repo.MarkRead(ctx, id, s.now())
	if err != nil {
		return apperrors.Database(err)
	}
	if !found {
		return apperrors.NotFound("Notification")
	}
	return nil
}

// MarkAllRead returns the number of notifications that changed.
func (s *NotificationService) MarkAllRead(ctx context.Context) (int64, error) {
	changed, err := s.repo.MarkAllRead(ctx, s.now())
	if err != nil {
		return 0, apperrors.Database(err)
	}
	return changed, nil
}
