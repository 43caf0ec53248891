package auth

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// RefreshStore is the server-side allow-list of live refresh tokens.
// A refresh token is only honored while its jti is present; logout and
// rotation revoke the jti.
type RefreshStore interface {
	Save(ctx context.Context, jti, userID string, ttl time.Duration) error
	UserID(ctx context.Context, jti string) (string, error)
	Revoke(ctx context.Context, jti string) error
}

// RedisRefreshStore keeps the allow-list in Redis with per-entry TTL.
type RedisRefreshStore struct {
	rdb *redis.Client
}

func NewRedisRefreshStore(rdb *redis.Client) *RedisRefreshStore {
	return &RedisRefreshStore{rdb: rdb}
}

func (s *RedisRefreshStore) Save(ctx context.Context, jti, userID string, ttl time.Duration) error {
	return s.rdb.Set(ctx, "refresh:"+jti, userID, ttl).Err()
}

// UserID returns the user id for a live jti, or "" if revoked or expired.
func (s *RedisRefreshStore) UserID(ctx context.Context, jti string) (string, error) {
	val, err := s.rdb.Get(ctx, "refresh:"+jti).Result()
	if err == redis.Nil {
		return "", nil
	}
	return val, err
}

func (s *RedisRefreshStore) Revoke(ctx context.Context, jti string) error {
	return s.rdb.Del(ctx, "refresh:"+jti).Err()
}
