package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"vaultspark/internal/session/models"
	"vaultspark/pkg/platform/sentinel"
)

const DefaultKey = "vaultspark:session:current"

// RedisStore keeps the current session under a single key with a TTL.
type RedisStore struct {
	client redis.Cmdable
	key    string
}

func NewRedis(client redis.Cmdable, key string) *RedisStore {
	if key == "" {
		key = DefaultKey
	}
	return &RedisStore{client: client, key: key}
}

func (s *RedisStore) Save(ctx context.Context, sess *models.Session, ttl time.Duration) error {
	data, err := json.Marshal(toRecord(sess))
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}
	if err := s.client.Set(ctx, s.key, data, ttl).Err(); err != nil {
		return unavailable("save session", err)
	}
	return nil
}

func (s *RedisStore) Load(ctx context.Context) (*models.Session, error) {
	data, err := s.client.Get(ctx, s.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, unavailable("load session", err)
	}
	var rec record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("unmarshal session: %w", err)
	}
	return rec.session(), nil
}

func (s *RedisStore) Clear(ctx context.Context) error {
	if err := s.client.Del(ctx, s.key).Err(); err != nil {
		return unavailable("clear session", err)
	}
	return nil
}

func unavailable(op string, err error) error {
	return fmt.Errorf("%s: %w", op, errors.Join(err, sentinel.ErrUnavailable))
}
