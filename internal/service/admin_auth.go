package service

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog/log"

	apperrors "github.com/openmarket/market-server/internal/errors"
	"github.com/openmarket/market-server/internal/model"
)

// RevocationStore remembers session tokens ended by logout.
type RevocationStore interface {
	Revoke(ctx context.Context, tokenID string, ttl time.Duration) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

type AdminAuthService struct {
	verifier    *CredentialVerifier
	tokens      *SessionTokenService
	revocations RevocationStore
}

// NewAdminAuthService composes credential checks and session tokens. A nil
// revocation store disables server-side logout.
func NewAdminAuthService(verifier *CredentialVerifier, tokens *SessionTokenService, revocations RevocationStore) *AdminAuthService {
	return &AdminAuthService{
		verifier:    verifier,
		tokens:      tokens,
		revocations: revocations,
	}
}

func (s *AdminAuthService) TTL() time.Duration {
	return s.tokens.TTL()
}

// Login verifies the submitted credentials and issues a session token. Every
// failure carries the same public message; the specific reason is kept as
// the error cause.
func (s *AdminAuthService) Login(ctx context.Context, email, password string) (string, *model.AdminPrincipal, error) {
	if err := s.verifier.Verify(email, password); err != nil {
		if errors.Is(err, ErrMissingFields) {
			return "", nil, apperrors.New(apperrors.ErrCodeValidation, apperrors.InvalidCredentialsMessage).WithCause(err)
		}
		return "", nil, apperrors.InvalidCredentials().WithCause(err)
	}

	token, principal, err := s.tokens.Issue(normalizeEmail(email))
	if err != nil {
		return "", nil, apperrors.Internal("Failed to create session").WithCause(err)
	}
	return token, principal, nil
}

// Authenticate resolves a session token into a principal. Revocation lookups
// that fail are treated as unauthenticated.
func (s *AdminAuthService) Authenticate(ctx context.Context, token string) (*model.AdminPrincipal, error) {
	if token == "" {
		return nil, apperrors.Unauthorized("Authentication required")
	}

	principal, err := s.tokens.Validate(token)
	if err != nil {
		return nil, err
	}

	if s.revocations != nil {
		revoked, err := s.revocations.IsRevoked(ctx, principal.TokenID)
		if err != nil {
			return nil, apperrors.External("session store", err)
		}
		if revoked {
			return nil, invalidToken(TokenReasonRevoked)
		}
	}

	return principal, nil
}

// Logout revokes token for the rest of its lifetime. It returns the principal
// the token belonged to, or an error if the token was not a valid session.
func (s *AdminAuthService) Logout(ctx context.Context, token string) (*model.AdminPrincipal, error) {
	principal, err := s.Authenticate(ctx, token)
	if err != nil {
		return nil, err
	}

	if s.revocations != nil {
		remaining := principal.ExpiresAt.Sub(s.tokens.now())
		if err := s.revocations.Revoke(ctx, principal.TokenID, remaining); err != nil {
			log.Error().Err(err).Str("token_id", principal.TokenID).Msg("failed to revoke admin session")
		}
	}

	return principal, nil
}
