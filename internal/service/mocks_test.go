package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/openmarket/market-server/internal/database"
	"github.com/openmarket/market-server/internal/mailer"
	"github.com/openmarket/market-server/internal/model"
	"github.com/openmarket/market-server/internal/repository"
)

// mockTransactor runs fn without a real transaction; the mock repositories
// ignore the *sqlx.Tx they are handed.
type mockTransactor struct{}

func (mockTransactor) WithTx(ctx context.Context, fn database.TxFunc) error {
	return fn(nil)
}

type mockSellerRepo struct {
	mu      sync.Mutex
	sellers map[string]model.Seller
	findErr error
}

func newMockSellerRepo() *mockSellerRepo {
	return &mockSellerRepo{sellers: map[string]model.Seller{}}
}

func (r *mockSellerRepo) WithTx(tx *sqlx.Tx) repository.SellerRepository {
	return r
}

func (r *mockSellerRepo) seed(status model.SellerStatus) *model.Seller {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	seller := model.Seller{
		ID:        uuid.NewString(),
		StoreName: "Acme Goods",
		OwnerName: "Jane Doe",
		Email:     "jane@example.com",
		Status:    status,
		CreatedAt: now,
		UpdatedAt: now,
	}
	r.sellers[seller.ID] = seller
	return &seller
}

func (r *mockSellerRepo) get(id string) model.Seller {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sellers[id]
}

func (r *mockSellerRepo) put(seller model.Seller) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sellers[seller.ID] = seller
}

func (r *mockSellerRepo) FindByID(ctx context.Context, id string) (*model.Seller, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.findErr != nil {
		return nil, r.findErr
	}
	seller, ok := r.sellers[id]
	if !ok {
		return nil, nil
	}
	return &seller, nil
}

func (r *mockSellerRepo) FindAll(ctx context.Context, status model.SellerStatus, limit, offset int) ([]model.Seller, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	result := []model.Seller{}
	for _, s := range r.sellers {
		if status == "" || s.Status == status {
			result = append(result, s)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID > result[j].ID })
	if offset >= len(result) {
		return []model.Seller{}, nil
	}
	result = result[offset:]
	if len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

func (r *mockSellerRepo) Count(ctx context.Context, status model.SellerStatus) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	count := 0
	for _, s := range r.sellers {
		if status == "" || s.Status == status {
			count++
		}
	}
	return count, nil
}

func (r *mockSellerRepo) CountByStatus(ctx context.Context) (model.StatusCounts, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	counts := model.StatusCounts{}
	for _, status := range model.SellerStatuses {
		counts[status] = 0
	}
	for _, s := range r.sellers {
		counts[s.Status]++
	}
	return counts, nil
}

func (r *mockSellerRepo) Create(ctx context.Context, params model.CreateSellerParams) (*model.Seller, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	seller := model.Seller{
		ID:        uuid.NewString(),
		StoreName: params.StoreName,
		OwnerName: params.OwnerName,
		Email:     params.Email,
		Status:    model.SellerStatusPending,
	}
	r.sellers[seller.ID] = seller
	return &seller, nil
}

func (r *mockSellerRepo) Transition(ctx context.Context, id string, from model.SellerStatus, params model.SellerTransitionParams) (*model.Seller, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	seller, ok := r.sellers[id]
	if !ok || seller.Status != from {
		return nil, nil
	}
	seller.Status = params.Status
	seller.SuspensionTitle = params.SuspensionTitle
	seller.SuspensionReason = params.SuspensionReason
	seller.SuspensionEndsAt = params.SuspensionEndsAt
	seller.SuspensionPermanent = params.SuspensionPermanent
	seller.SuspendedAt = params.SuspendedAt
	seller.SuspensionExpiryNotifiedAt = nil
	seller.RejectionReason = params.RejectionReason
	seller.ReviewedAt = params.ReviewedAt
	seller.UpdatedAt = params.UpdatedAt
	r.sellers[id] = seller
	return &seller, nil
}

func (r *mockSellerRepo) FindExpiredSuspensions(ctx context.Context, now time.Time, limit int) ([]model.Seller, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	result := []model.Seller{}
	for _, s := range r.sellers {
		if s.SuspensionExpired(now) && s.SuspensionExpiryNotifiedAt == nil {
			result = append(result, s)
		}
	}
	return result, nil
}

func (r *mockSellerRepo) MarkExpiryNotified(ctx context.Context, id string, at time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	seller, ok := r.sellers[id]
	if !ok || !seller.SuspensionExpired(at) || seller.SuspensionExpiryNotifiedAt != nil {
		return false, nil
	}
	seller.SuspensionExpiryNotifiedAt = &at
	r.sellers[id] = seller
	return true, nil
}

type mockNotificationRepo struct {
	mu            sync.Mutex
	notifications []model.Notification
	createErr     error
}

func newMockNotificationRepo() *mockNotificationRepo {
	return &mockNotificationRepo{}
}

func (r *mockNotificationRepo) WithTx(tx *sqlx.Tx) repository.NotificationRepository {
	return r
}

func (r *mockNotificationRepo) all() []model.Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]model.Notification(nil), r.notifications...)
}

func (r *mockNotificationRepo) Create(ctx context.Context, params model.CreateNotificationParams) (*model.Notification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createErr != nil {
		return nil, r.createErr
	}
	n := model.Notification{
		ID:         uuid.NewString(),
		ActorName:  params.ActorName,
		Action:     params.Action,
		Resource:   params.Resource,
		ResourceID: params.ResourceID,
		Message:    params.Message,
		CreatedAt:  params.CreatedAt,
	}
	r.notifications = append(r.notifications, n)
	return &n, nil
}

// sorted returns notifications newest first, matching the database order.
func (r *mockNotificationRepo) sorted(filter func(model.Notification) bool) []model.Notification {
	result := []model.Notification{}
	for i := len(r.notifications) - 1; i >= 0; i-- {
		if filter(r.notifications[i]) {
			result = append(result, r.notifications[i])
		}
	}
	sort.SliceStable(result, func(i, j int) bool { return result[i].CreatedAt.After(result[j].CreatedAt) })
	return result
}

func (r *mockNotificationRepo) FindUnread(ctx context.Context, limit int) ([]model.Notification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	result := r.sorted(func(n model.Notification) bool { return !n.IsRead })
	if len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

func (r *mockNotificationRepo) CountUnread(ctx context.Context) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sorted(func(n model.Notification) bool { return !n.IsRead })), nil
}

func (r *mockNotificationRepo) FindAll(ctx context.Context, limit, offset int) ([]model.Notification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	result := r.sorted(func(model.Notification) bool { return true })
	if offset >= len(result) {
		return []model.Notification{}, nil
	}
	result = result[offset:]
	if len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

func (r *mockNotificationRepo) Count(ctx context.Context) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.notifications), nil
}

func (r *mockNotificationRepo) MarkRead(ctx context.Context, id string, at time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.notifications {
		if r.notifications[i].ID == id {
			if !r.notifications[i].IsRead {
				r.notifications[i].IsRead = true
				r.notifications[i].ReadAt = &at
			}
			return true, nil
		}
	}
	return false, nil
}

func (r *mockNotificationRepo) MarkAllRead(ctx context.Context, at time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var changed int64
	for i := range r.notifications {
		if !r.notifications[i].IsRead {
			r.notifications[i].IsRead = true
			r.notifications[i].ReadAt = &at
			changed++
		}
	}
	return changed, nil
}

type mockMailer struct {
	mu   sync.Mutex
	sent []mailer.Message
	err  error
}

func (m *mockMailer) Send(ctx context.Context, msg mailer.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, msg)
	return nil
}
