package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/openmarket/market-server/internal/errors"
)

type mockRevocationStore struct {
	mu      sync.Mutex
	revoked map[string]time.Duration
	err     error
}

func newMockRevocationStore() *mockRevocationStore {
	return &mockRevocationStore{revoked: map[string]time.Duration{}}
}

func (f *mockRevocationStore) Revoke(_ context.Context, tokenID string, ttl time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.revoked[tokenID] = ttl
	return nil
}

func (f *mockRevocationStore) IsRevoked(_ context.Context, tokenID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return false, f.err
	}
	_, ok := f.revoked[tokenID]
	return ok, nil
}

func newTestAuthService(t *testing.T, clock *testClock, store RevocationStore) *AdminAuthService {
	t.Helper()
	verifier := NewCredentialVerifier("admin@example.com", testPasswordHash(t, "s3cret"), "")
	tokens := NewSessionTokenService(testSecret, testIssuer, 2*time.Hour, WithTokenClock(clock.Now))
	return NewAdminAuthService(verifier, tokens, store)
}

func TestAdminAuthService_Login(t *testing.T) {
	clock := &testClock{now: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
	svc := newTestAuthService(t, clock, newMockRevocationStore())
	ctx := context.Background()

	t.Run("issues a session for valid credentials", func(t *testing.T) {
		token, principal, err := svc.Login(ctx, " Admin@Example.com ", "s3cret")
		require.NoError(t, err)
		assert.NotEmpty(t, token)
		assert.Equal(t, "admin@example.com", principal.Email)
		assert.Equal(t, 2*time.Hour, svc.TTL())
	})

	t.Run("wrong email and wrong password look identical", func(t *testing.T) {
		_, _, emailErr := svc.Login(ctx, "nobody@example.com", "s3cret")
		_, _, passErr := svc.Login(ctx, "admin@example.com", "wrong")

		emailApp, ok := apperrors.AsAppError(emailErr)
		require.True(t, ok)
		passApp, ok := apperrors.AsAppError(passErr)
		require.True(t, ok)

		assert.Equal(t, apperrors.ErrCodeInvalidCredentials, emailApp.Code)
		assert.Equal(t, emailApp.Code, passApp.Code)
		assert.Equal(t, emailApp.Message, passApp.Message)
		assert.Equal(t, emailApp.Details, passApp.Details)

		assert.ErrorIs(t, emailErr, ErrEmailMismatch)
		assert.ErrorIs(t, passErr, ErrPasswordMismatch)
	})

	t.Run("missing fields is a validation error with the generic message", func(t *testing.T) {
		_, _, err := svc.Login(ctx, "", "")
		appErr, ok := apperrors.AsAppError(err)
		require.True(t, ok)
		assert.Equal(t, apperrors.ErrCodeValidation, appErr.Code)
		assert.Equal(t, apperrors.InvalidCredentialsMessage, appErr.Message)
		assert.ErrorIs(t, err, ErrMissingFields)
	})
}

func TestAdminAuthService_AuthenticateAndLogout(t *testing.T) {
	clock := &testClock{now: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
	store := newMockRevocationStore()
	svc := newTestAuthService(t, clock, store)
	ctx := context.Background()

	token, issued, err := svc.Login(ctx, "admin@example.com", "s3cret")
	require.NoError(t, err)

	principal, err := svc.Authenticate(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, issued.TokenID, principal.TokenID)

	clock.now = clock.now.Add(30 * time.Minute)
	loggedOut, err := svc.Logout(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, issued.TokenID, loggedOut.TokenID)
	assert.Equal(t, 90*time.Minute, store.revoked[issued.TokenID], "revocation lasts for the remaining lifetime")

	_, err = svc.Authenticate(ctx, token)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeInvalidToken))
	assert.Equal(t, TokenReasonRevoked, tokenReason(t, err))

	_, err = svc.Logout(ctx, token)
	assert.Error(t, err, "logging out twice reports no session")
}

func TestAdminAuthService_Authenticate(t *testing.T) {
	clock := &testClock{now: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
	ctx := context.Background()

	t.Run("empty token", func(t *testing.T) {
		svc := newTestAuthService(t, clock, nil)
		_, err := svc.Authenticate(ctx, "")
		assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeUnauthorized))
	})

	t.Run("expired token", func(t *testing.T) {
		svc := newTestAuthService(t, clock, nil)
		token, _, err := svc.Login(ctx, "admin@example.com", "s3cret")
		require.NoError(t, err)

		later := &testClock{now: clock.now.Add(2 * time.Hour)}
		expiredSvc := newTestAuthService(t, later, nil)
		_, err = expiredSvc.Authenticate(ctx, token)
		assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeSessionExpired))
	})

	t.Run("revocation store failure fails closed", func(t *testing.T) {
		store := newMockRevocationStore()
		svc := newTestAuthService(t, clock, store)
		token, _, err := svc.Login(ctx, "admin@example.com", "s3cret")
		require.NoError(t, err)

		store.err = errors.New("connection refused")
		_, err = svc.Authenticate(ctx, token)
		assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeExternal))
	})

	t.Run("without a revocation store logout still succeeds", func(t *testing.T) {
		svc := newTestAuthService(t, clock, nil)
		token, _, err := svc.Login(ctx, "admin@example.com", "s3cret")
		require.NoError(t, err)

		_, err = svc.Logout(ctx, token)
		assert.NoError(t, err)
	})
}
