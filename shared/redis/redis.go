package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RevokedKeyPrefix prefixes every revoked token id
const RevokedKeyPrefix = "revoked:"

// ErrUnavailable is returned when redis cannot answer
var ErrUnavailable = errors.New("revocation store unavailable")

// Config holds connection settings
type Config struct {
	Addr     string
	Password string
	DB       int
}

// RevocationStore tracks revoked token ids until they would have expired anyway
type RevocationStore struct {
	client *redis.Client
}

// NewRevocationStore connects to redis
func NewRevocationStore(cfg Config) *RevocationStore {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	return &RevocationStore{client: client}
}

// NewRevocationStoreFromClient wraps an existing client
func NewRevocationStoreFromClient(client *redis.Client) *RevocationStore {
	return &RevocationStore{client: client}
}

// Revoke marks a token id as revoked for ttl
func (s *RevocationStore) Revoke(ctx context.Context, tokenID string, ttl time.Duration) error {
	if err := s.client.Set(ctx, revokedKey(tokenID), 1, ttl).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

// IsRevoked reports whether the token id has been revoked
func (s *RevocationStore) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	n, err := s.client.Exists(ctx, revokedKey(tokenID)).Result()
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return n > 0, nil
}

// Ping checks the connection
func (s *RevocationStore) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

// Close releases the connection pool
func (s *RevocationStore) Close() error {
	return s.client.Close()
}

func revokedKey(tokenID string) string {
	return RevokedKeyPrefix + tokenID
}
