package redis

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// SessionRevocationStore is a denylist of session token IDs revoked by
// logout. Entries expire together with the token they revoke.
type SessionRevocationStore struct {
	client redis.UniversalClient
}

func NewSessionRevocationStore(client redis.UniversalClient) *SessionRevocationStore {
	return &SessionRevocationStore{client: client}
}

func (s *SessionRevocationStore) Revoke(ctx context.Context, tokenID string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	return s.client.Set(ctx, RevokedSessionKey(tokenID), "1", ttl).Err()
}

func (s *SessionRevocationStore) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	err := s.client.Get(ctx, RevokedSessionKey(tokenID)).Err()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
