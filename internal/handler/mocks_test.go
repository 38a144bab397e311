package handler

import (
	"context"
	"sync"
	"time"

	"github.com/stretchr/testify/mock"

	apperrors "github.com/openmarket/market-server/internal/errors"
	"github.com/openmarket/market-server/internal/model"
	"github.com/openmarket/market-server/internal/service"
)

type mockRevocations struct {
	mu      sync.Mutex
	revoked map[string]time.Duration
}

func newMockRevocations() *mockRevocations {
	return &mockRevocations{revoked: make(map[string]time.Duration)}
}

func (m *mockRevocations) Revoke(ctx context.Context, tokenID string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.revoked[tokenID] = ttl
	return nil
}

func (m *mockRevocations) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.revoked[tokenID]
	return ok, nil
}

// mockSellers keeps sellers in memory and applies the lifecycle moves, so
// handler tests can drive a sequence of actions against it.
type mockSellers struct {
	mu      sync.Mutex
	sellers map[string]*model.Seller
	err     error
}

func newMockSellers(sellers ...model.Seller) *mockSellers {
	f := &mockSellers{sellers: make(map[string]*model.Seller)}
	for i := range sellers {
		s := sellers[i]
		f.sellers[s.ID] = &s
	}
	return f
}

func (f *mockSellers) Get(ctx context.Context, id string) (*model.Seller, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.sellers[id]
	if !ok {
		return nil, apperrors.NotFound("Seller")
	}
	copied := *s
	return &copied, nil
}

func (f *mockSellers) List(ctx context.Context, status model.SellerStatus, limit, offset int) ([]model.Seller, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.Seller
	for _, s := range f.sellers {
		if status == "" || s.Status == status {
			out = append(out, *s)
		}
	}
	return out, len(out), nil
}

func (f *mockSellers) CountByStatus(ctx context.Context) (model.StatusCounts, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	counts := make(model.StatusCounts)
	for _, status := range model.SellerStatuses {
		counts[status] = 0
	}
	for _, s := range f.sellers {
		counts[s.Status]++
	}
	return counts, nil
}

func (f *mockSellers) move(actor *model.AdminPrincipal, id string, from, to model.SellerStatus) (*model.Seller, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	s, ok := f.sellers[id]
	if !ok {
		return nil, apperrors.NotFound("Seller")
	}
	if s.Status != from {
		return nil, apperrors.InvalidTransition("seller is " + string(s.Status))
	}
	s.Status = to
	copied := *s
	return &copied, nil
}

func (f *mockSellers) Approve(ctx context.Context, actor *model.AdminPrincipal, id string) (*model.Seller, error) {
	return f.move(actor, id, model.SellerStatusPending, model.SellerStatusActive)
}

func (f *mockSellers) Reject(ctx context.Context, actor *model.AdminPrincipal, id string, input service.RejectInput) (*model.Seller, error) {
	return f.move(actor, id, model.SellerStatusPending, model.SellerStatusRejected)
}

func (f *mockSellers) Suspend(ctx context.Context, actor *model.AdminPrincipal, id string, input service.SuspendInput) (*model.Seller, error) {
	return f.move(actor, id, model.SellerStatusActive, model.SellerStatusSuspended)
}

func (f *mockSellers) Unsuspend(ctx context.Context, actor *model.AdminPrincipal, id string) (*model.Seller, error) {
	return f.move(actor, id, model.SellerStatusSuspended, model.SellerStatusActive)
}

// mockSellerManager records calls for tests that assert on the arguments a
// handler passes through.
type mockSellerManager struct {
	mock.Mock
}

func (m *mockSellerManager) seller(args mock.Arguments) (*model.Seller, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Seller), args.Error(1)
}

func (m *mockSellerManager) Get(ctx context.Context, id string) (*model.Seller, error) {
	return m.seller(m.Called(ctx, id))
}

func (m *mockSellerManager) List(ctx context.Context, status model.SellerStatus, limit, offset int) ([]model.Seller, int, error) {
	args := m.Called(ctx, status, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]model.Seller), args.Int(1), args.Error(2)
}

func (m *mockSellerManager) CountByStatus(ctx context.Context) (model.StatusCounts, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(model.StatusCounts), args.Error(1)
}

func (m *mockSellerManager) Approve(ctx context.Context, actor *model.AdminPrincipal, id string) (*model.Seller, error) {
	return m.seller(m.Called(ctx, actor, id))
}

func (m *mockSellerManager) Reject(ctx context.Context, actor *model.AdminPrincipal, id string, input service.RejectInput) (*model.Seller, error) {
	return m.seller(m.Called(ctx, actor, id, input))
}

func (m *mockSellerManager) Suspend(ctx context.Context, actor *model.AdminPrincipal, id string, input service.SuspendInput) (*model.Seller, error) {
	return m.seller(m.Called(ctx, actor, id, input))
}

func (m *mockSellerManager) Unsuspend(ctx context.Context, actor *model.AdminPrincipal, id string) (*model.Seller, error) {
	return m.seller(m.Called(ctx, actor, id))
}

func (m *mockSellerManager) Apply(ctx context.Context, input service.ApplyInput) (*model.Seller, error) {
	return m.seller(m.Called(ctx, input))
}

type mockFeed struct {
	mu    sync.Mutex
	items []model.Notification
}

func (f *mockFeed) unread() []model.Notification {
	var out []model.Notification
	for _, n := range f.items {
		if !n.IsRead {
			out = append(out, n)
		}
	}
	return out
}

func (f *mockFeed) ListUnread(ctx context.Context, limit int) ([]model.Notification, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	unread := f.unread()
	count := len(unread)
	if limit > 0 && len(unread) > limit {
		unread = unread[:limit]
	}
	return unread, count, nil
}

func (f *mockFeed) List(ctx context.Context, limit, offset int) ([]model.Notification, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]model.Notification(nil), f.items...), len(f.items), nil
}

func (f *mockFeed) MarkRead(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.items {
		if f.items[i].ID == id {
			f.items[i].IsRead = true
			return nil
		}
	}
	return apperrors.NotFound("Notification")
}

func (f *mockFeed) MarkAllRead(ctx context.Context) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var changed int64
	for i := range f.items {
		if !f.items[i].IsRead {
			f.items[i].IsRead = true
			changed++
		}
	}
	return changed, nil
}
