package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/PoluyanbIch/stemnavigator/internal/service"
	"github.com/redis/go-redis/v9"
)

type redisKV interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

type redisStore struct {
	client  redisKV
	prefix  string
	ttl     time.Duration
	timeout time.Duration
}

// NewRedisStore stores sessions as JSON under "navigator:session:<user id>".
// Every save refreshes the ttl; zero means no expiry.
func NewRedisStore(client *redis.Client, ttl time.Duration) Store {
	if client == nil {
		return nil
	}
	return &redisStore{
		client:  client,
		prefix:  "navigator:session:",
		ttl:     ttl,
		timeout: 500 * time.Millisecond,
	}
}

func (s *redisStore) key(userID int64) string {
	return s.prefix + strconv.FormatInt(userID, 10)
}

func (s *redisStore) Load(ctx context.Context, userID int64) (*service.Session, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	raw, err := s.client.Get(ctx, s.key(userID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return service.NewSession(userID), nil
	}
	if err != nil {
		return nil, fmt.Errorf("load session %d: %w", userID, err)
	}

	var sess service.Session
	if err := json.Unmarshal(raw, &sess); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptSession, err)
	}
	sess.UserID = userID
	if sess.State == "" {
		sess.State = service.StateIdle
	}
	return &sess, nil
}

func (s *redisStore) Save(ctx context.Context, sess *service.Session) error {
	if sess == nil {
		return nil
	}
	raw, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("encode session %d: %w", sess.UserID, err)
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	if err := s.client.Set(ctx, s.key(sess.UserID), raw, s.ttl).Err(); err != nil {
		return fmt.Errorf("save session %d: %w", sess.UserID, err)
	}
	return nil
}

func (s *redisStore) Delete(ctx context.Context, userID int64) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return s.client.Del(ctx, s.key(userID)).Err()
}
