package repository

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/openmarket/market-server/internal/database"
	"github.com/openmarket/market-server/internal/model"
)

type SellerRepository interface {
	FindByID(ctx context.Context, id string) (*model.Seller, error)
	FindAll(ctx context.Context, status model.SellerStatus, limit, offset int) ([]model.Seller, error)
	Count(ctx context.Context, status model.SellerStatus) (int, error)
	CountByStatus(ctx context.Context) (model.StatusCounts, error)
	Create(ctx context.Context, params model.CreateSellerParams) (*model.Seller, error)
	// Transition writes params only if the seller is still in status from.
	// It returns nil without error when the row did not match.
	Transition(ctx context.Context, id string, from model.SellerStatus, params model.SellerTransitionParams) (*model.Seller, error)
	FindExpiredSuspensions(ctx context.Context, now time.Time, limit int) ([]model.Seller, error)
	MarkExpiryNotified(ctx context.Context, id string, at time.Time) (bool, error)
	// WithTx returns a new repository that uses the given transaction
	WithTx(tx *sqlx.Tx) SellerRepository
}

type sellerRepo struct {
	db database.DBTX
}

func NewSellerRepository(db *sqlx.DB) SellerRepository {
	return &sellerRepo{db: db}
}

func (r *sellerRepo) WithTx(tx *sqlx.Tx) SellerRepository {
	return &sellerRepo{db: tx}
}

func (r *sellerRepo) FindByID(ctx context.Context, id string) (*model.Seller, error) {
	return findOne[model.Seller](ctx, r.db, `SELECT * FROM sellers WHERE id = $1`, id)
}

// FindAll lists sellers newest first. An empty status lists every seller.
func (r *sellerRepo) FindAll(ctx context.Context, status model.SellerStatus, limit, offset int) ([]model.Seller, error) {
	sellers := []model.Seller{}
	err := r.db.SelectContext(ctx, &sellers, `
		SELECT * FROM sellers
		WHERE ($1 = '' OR status = $1)
		ORDER BY created_at DESC, id DESC
		LIMIT $2 OFFSET $3
	`, string(status), limit, offset)
	if err != nil {
		return nil, err
	}
	return sellers, nil
}

func (r *sellerRepo) Count(ctx context.Context, status model.SellerStatus) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count, `
		SELECT COUNT(*) FROM sellers WHERE ($1 = '' OR status = $1)
	`, string(status))
	return count, err
}

func (r *sellerRepo) CountByStatus(ctx context.Context) (model.StatusCounts, error) {
	var rows []struct {
		Status model.SellerStatus `db:"status"`
		Count  int                `db:"count"`
	}
	err := r.db.SelectContext(ctx, &rows, `
		SELECT status, COUNT(*) AS count FROM sellers GROUP BY status
	`)
	if err != nil {
		return nil, err
	}

	counts := make(model.StatusCounts, len(model.SellerStatuses))
	for _, status := range model.SellerStatuses {
		counts[status] = 0
	}
	for _, row := range rows {
		counts[row.Status] = row.Count
	}
	return counts, nil
}

func (r *sellerRepo) Create(ctx context.Context, params model.CreateSellerParams) (*model.Seller, error) {
	var seller model.Seller
	err := r.db.GetContext(ctx, &seller, `
		INSERT INTO sellers (store_name, owner_name, email, status)
		VALUES ($1, $2, $3, $4)
		RETURNING *
	`, params.StoreName, params.OwnerName, params.Email, model.SellerStatusPending)
	if err != nil {
		return nil, err
	}
	return &seller, nil
}

func (r *sellerRepo) Transition(ctx context.Context, id string, from model.SellerStatus, params model.SellerTransitionParams) (*model.Seller, error) {
	return findOne[model.Seller](ctx, r.db, `
		UPDATE sellers SET
			status = $3,
			suspension_title = $4,
			suspension_reason = $5,
			suspension_ends_at = $6,
			suspension_permanent = $7,
			suspended_at = $8,
			suspension_expiry_notified_at = NULL,
			rejection_reason = $9,
			reviewed_at = $10,
			updated_at = $11
		WHERE id = $1 AND status = $2
		RETURNING *
	`,
		id, from,
		params.Status,
		params.SuspensionTitle,
		params.SuspensionReason,
		params.SuspensionEndsAt,
		params.SuspensionPermanent,
		params.SuspendedAt,
		params.RejectionReason,
		params.ReviewedAt,
		params.UpdatedAt,
	)
}

// FindExpiredSuspensions returns timed suspensions whose end has passed and
// that have not been flagged yet, oldest end first.
func (r *sellerRepo) FindExpiredSuspensions(ctx context.Context, now time.Time, limit int) ([]model.Seller, error) {
	sellers := []model.Seller{}
	err := r.db.SelectContext(ctx, &sellers, `
		SELECT * FROM sellers
		WHERE status = 'suspended'
			AND suspension_permanent = FALSE
			AND suspension_ends_at <= $1
			AND suspension_expiry_notified_at IS NULL
		ORDER BY suspension_ends_at ASC
		LIMIT $2
	`, now, limit)
	if err != nil {
		return nil, err
	}
	return sellers, nil
}

// MarkExpiryNotified flags an expired suspension once. It reports false when
// another worker flagged it first or the seller left the suspended state.
func (r *sellerRepo) MarkExpiryNotified(ctx context.Context, id string, at time.Time) (bool, error) {
	return rowsMatched(r.db.ExecContext(ctx, `
		UPDATE sellers
		SET suspension_expiry_notified_at = $2
		WHERE id = $1
			AND status = 'suspended'
			AND suspension_permanent = FALSE
			AND suspension_ends_at <= $2
			AND suspension_expiry_notified_at IS NULL
	`, id, at))
}
