package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	apperrors "github.com/openmarket/market-server/internal/errors"
	"github.com/openmarket/market-server/internal/model"
)

// Reasons attached to INVALID_TOKEN errors.
const (
	TokenReasonInvalidSignature = "invalid_signature"
	TokenReasonMalformed        = "malformed"
	TokenReasonInvalidIssuer    = "invalid_issuer"
	TokenReasonInvalidRole      = "invalid_role"
	TokenReasonRevoked          = "revoked"
)

type SessionClaims struct {
	Role  string `json:"role"`
	Email string `json:"email"`
	jwt.RegisteredClaims
}

type SessionTokenService struct {
	secret []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

type TokenOption func(*SessionTokenService)

// WithTokenClock overrides the clock used to issue and validate tokens.
func WithTokenClock(now func() time.Time) TokenOption {
	return func(s *SessionTokenService) {
		s.now = now
	}
}

func NewSessionTokenService(secret, issuer string, ttl time.Duration, opts ...TokenOption) *SessionTokenService {
	s := &SessionTokenService{
		secret: []byte(secret),
		issuer: issuer,
		ttl:    ttl,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *SessionTokenService) TTL() time.Duration {
	return s.ttl
}

// Issue signs a session token for email. Timestamps are whole seconds, so a
// token issued at T is valid while now < T+ttl.
func (s *SessionTokenService) Issue(email string) (string, *model.AdminPrincipal, error) {
	issuedAt := s.now().Truncate(time.Second)
	expiresAt := issuedAt.Add(s.ttl)

	claims := SessionClaims{
		Role:  model.RoleAdmin,
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.issuer,
			Subject:   email,
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", nil, fmt.Errorf("sign session token: %w", err)
	}

	return token, &model.AdminPrincipal{
		Role:      model.RoleAdmin,
		Email:     email,
		TokenID:   claims.ID,
		IssuedAt:  issuedAt,
		ExpiresAt: expiresAt,
	}, nil
}

func (s *SessionTokenService) Validate(token string) (*model.AdminPrincipal, error) {
	var claims SessionClaims
	_, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (any, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Name}),
		jwt.WithIssuer(s.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return nil, mapTokenError(err)
	}

	if claims.Role != model.RoleAdmin {
		return nil, invalidToken(TokenReasonInvalidRole)
	}
	if claims.Email == "" || claims.ID == "" || claims.IssuedAt == nil {
		return nil, invalidToken(TokenReasonMalformed)
	}

	return &model.AdminPrincipal{
		Role:      claims.Role,
		Email:     claims.Email,
		TokenID:   claims.ID,
		IssuedAt:  claims.IssuedAt.Time,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

func mapTokenError(err error) *apperrors.AppError {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return apperrors.SessionExpired().WithCause(err)
	case errors.Is(err, jwt.ErrTokenSignatureInvalid),
		errors.Is(err, jwt.ErrTokenUnverifiable):
		return invalidToken(TokenReasonInvalidSignature).WithCause(err)
	case errors.Is(err, jwt.ErrTokenInvalidIssuer):
		return invalidToken(TokenReasonInvalidIssuer).WithCause(err)
	default:
		return invalidToken(TokenReasonMalformed).WithCause(err)
	}
}

func invalidToken(reason string) *apperrors.AppError {
	return apperrors.InvalidToken("Invalid session token").WithDetails(map[string]string{"reason": reason})
}
