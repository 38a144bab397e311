package repository

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/openmarket/market-server/internal/database"
	"github.com/openmarket/market-server/internal/model"
)

type NotificationRepository interface {
	Create(ctx context.Context, params model.CreateNotificationParams) (*model.Notification, error)
	FindUnread(ctx context.Context, limit int) ([]model.Notification, error)
	CountUnread(ctx context.Context) (int, error)
	FindAll(ctx context.Context, limit, offset int) ([]model.Notification, error)
	Count(ctx context.Context) (int, error)
	// MarkRead reports whether the notification exists. Already-read rows keep
	// their original read_at.
	MarkRead(ctx context.Context, id string, at time.Time) (bool, error)
	MarkAllRead(ctx context.Context, at time.Time) (int64, error)
	// WithTx returns a new repository that uses the given transaction
	WithTx(tx *sqlx.Tx) NotificationRepository
}

type notificationRepo struct {
	db database.DBTX
}

func NewNotificationRepository(db *sqlx.DB) NotificationRepository {
	return &notificationRepo{db: db}
}

func (r *notificationRepo) WithTx(tx *sqlx.Tx) NotificationRepository {
	return &notificationRepo{db: tx}
}

func (r *notificationRepo) Create(ctx context.Context, params model.CreateNotificationParams) (*model.Notification, error) {
	var n model.Notification
	err := r.db.GetContext(ctx, &n, `
		INSERT INTO notifications (actor_name, action, resource, resource_id, message, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING *
	`, params.ActorName, params.Action, params.Resource, params.ResourceID, params.Message, params.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &n, nil
}

func (r *notificationRepo) FindUnread(ctx context.Context, limit int) ([]model.Notification, error) {
	notifications := []model.Notification{}
	err := r.db.SelectContext(ctx, &notifications, `
		SELECT * FROM notifications
		WHERE is_read = FALSE
		ORDER BY created_at DESC, id DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	return notifications, nil
}

func (r *notificationRepo) CountUnread(ctx context.Context) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM notifications WHERE is_read = FALSE`)
	return count, err
}

func (r *notificationRepo) FindAll(ctx context.Context, limit, offset int) ([]model.Notification, error) {
	notifications := []model.Notification{}
	err := r.db.SelectContext(ctx, &notifications, `
		SELECT * FROM notifications
		ORDER BY created_at DESC, id DESC
		LIMIT $1 OFFSET $2
	`, limit, offset)
	if err != nil {
		return nil, err
	}
	return notifications, nil
}

func (r *notificationRepo) Count(ctx context.Context) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM notifications`)
	return count, err
}

func (r *notificationRepo) MarkRead(ctx context.Context, id string, at time.Time) (bool, error) {
	return rowsMatched(r.db.ExecContext(ctx, `
		UPDATE notifications
		SET is_read = TRUE, read_at = COALESCE(read_at, $2)
		WHERE id = $1
	`, id, at))
}

func (r *notificationRepo) MarkAllRead(ctx context.Context, at time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx, `
		UPDATE notifications
		SET is_read = TRUE, read_at = $1
		WHERE is_read = FALSE
	`, at)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
