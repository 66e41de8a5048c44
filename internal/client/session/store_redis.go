package session

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
)

const redisSessionKey = "tailorcv:session"

// RedisStore keeps the session record in Redis under a single key, for
// deployments where the CLI state must survive the local machine (shared
// workstations, containers with ephemeral disks). The whole record is one
// JSON value, so the token/user pair stays atomic.
type RedisStore struct {
	client *redis.Client
	key    string
}

// NewRedisStore wraps an existing Redis client.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client, key: redisSessionKey}
}

func (r *RedisStore) Load(ctx context.Context) (*Session, error) {
	val, err := r.client.Get(ctx, r.key).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load session from redis: %w", err)
	}

	var sess Session
	if err := json.Unmarshal([]byte(val), &sess); err != nil {
		return nil, fmt.Errorf("decode session from redis: %w", err)
	}
	if err := sess.Validate(); err != nil {
		return nil, nil
	}
	return &sess, nil
}

func (r *RedisStore) Save(ctx context.Context, sess Session) error {
	if err := sess.Validate(); err != nil {
		return fmt.Errorf("refusing to persist partial session: %w", err)
	}
	data, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	// No TTL here: token lifetime is owned by the backend, which rejects
	// expired tokens at verification time.
	if err := r.client.Set(ctx, r.key, data, 0).Err(); err != nil {
		return fmt.Errorf("save session to redis: %w", err)
	}
	return nil
}

func (r *RedisStore) Clear(ctx context.Context) error {
	if err := r.client.Del(ctx, r.key).Err(); err != nil {
		return fmt.Errorf("clear session in redis: %w", err)
	}
	return nil
}
