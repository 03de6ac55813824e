package auth

import (
	"context"
	"time"

	"userhub/internal/cache"
)

const revokedTokenKeyPrefix = "revoked:token:"

// RevocationStoreInterface defines the interface for token revocation storage.
type RevocationStoreInterface interface {
	Revoke(ctx context.Context, tokenID string, ttl time.Duration) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

// RevocationStore tracks revoked bearer tokens (by jti) in Redis. Entries
// carry the token's remaining lifetime as TTL so the set stays bounded.
type RevocationStore struct {
	cache *cache.Client
}

// Ensure RevocationStore implements RevocationStoreInterface
var _ RevocationStoreInterface = (*RevocationStore)(nil)

// NewRevocationStore creates a new revocation store.
func NewRevocationStore(cache *cache.Client) *RevocationStore {
	return &RevocationStore{cache: cache}
}

// Revoke marks a token id as revoked until it would have expired anyway.
func (s *RevocationStore) Revoke(ctx context.Context, tokenID string, ttl time.Duration) error {
	if ttl <= 0 {
		// already expired, nothing to track
		return nil
	}
	key := revokedTokenKeyPrefix + tokenID
	return s.cache.Set(ctx, key, []byte("1"), ttl)
}

// IsRevoked checks whether a token id has been revoked. Redis outages read
// as not-revoked (fail open, same trade-off as the cache layer).
func (s *RevocationStore) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	key := revokedTokenKeyPrefix + tokenID
	return s.cache.Exists(ctx, key)
}
