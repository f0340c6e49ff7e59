package loginattempt

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// lockKeyPattern matches the key written by the login-failure tracker when
// it hard-locks an account; presence of the key means locked, and its TTL
// is the remaining lockout window.
const lockKeyPattern = "login_attempts:lock:%s:%s"

// RedisStore reads lockout state from Redis.
type RedisStore struct {
	client *redis.Client
}

func NewRedis(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) IsLocked(ctx context.Context, provider, username string) (bool, error) {
	n, err := s.client.Exists(ctx, fmt.Sprintf(lockKeyPattern, provider, username)).Result()
	if err != nil {
		return false, fmt.Errorf("check lockout key: %w", err)
	}
	return n > 0, nil
}
