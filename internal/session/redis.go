package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// Compile-time checks that RedisStore implements both ports.
var (
	_ Store  = (*RedisStore)(nil)
	_ Locker = (*RedisStore)(nil)
)

// RedisStore keeps session records and locks in Redis, one entry per user
// for each, keyed by the numeric user id with distinct suffixes.
type RedisStore struct {
	client  *redis.Client
	lockTTL time.Duration
	logger  *slog.Logger
}

// NewRedisStore connects to Redis using a redis:// URL.
func NewRedisStore(url string, lockTTL time.Duration, logger *slog.Logger) (*RedisStore, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis URL: %w", err)
	}
	opts.DialTimeout = 5 * time.Second
	opts.ReadTimeout = 3 * time.Second
	opts.WriteTimeout = 3 * time.Second
	opts.MaxRetries = 3

	if lockTTL <= 0 {
		lockTTL = DefaultLockTTL
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &RedisStore{
		client:  redis.NewClient(opts),
		lockTTL: lockTTL,
		logger:  logger,
	}, nil
}

// Ping verifies the connection. Used at startup and by the readiness probe.
func (s *RedisStore) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping: %w", err)
	}
	return nil
}

// Close releases the underlying connection pool.
func (s *RedisStore) Close() error {
	return s.client.Close()
}

func stateKey(userID int64) string {
	return fmt.Sprintf("%d-state", userID)
}

func lockKey(userID int64) string {
	return fmt.Sprintf("%d-lock", userID)
}

// Get loads and validates the user's session. A corrupt record is dropped
// and reported as absent so the dialog restarts instead of wedging.
func (s *RedisStore) Get(ctx context.Context, userID int64) (*Session, error) {
	raw, err := s.client.Get(ctx, stateKey(userID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}

	var sess Session
	if err := json.Unmarshal(raw, &sess); err != nil {
		s.dropCorrupt(ctx, userID, err)
		return nil, ErrNotFound
	}
	if err := sess.Validate(); err != nil {
		s.dropCorrupt(ctx, userID, err)
		return nil, ErrNotFound
	}

	return &sess, nil
}

func (s *RedisStore) dropCorrupt(ctx context.Context, userID int64, cause error) {
	s.logger.Error("dropping corrupt session record",
		slog.Int64("user_id", userID),
		slog.String("error", cause.Error()),
	)
	_ = s.client.Del(ctx, stateKey(userID)).Err()
}

// Put saves the session record.
func (s *RedisStore) Put(ctx context.Context, sess *Session) error {
	raw, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}
	if err := s.client.Set(ctx, stateKey(sess.UserID), raw, 0).Err(); err != nil {
		return fmt.Errorf("put session: %w", err)
	}
	return nil
}

// Delete removes the session record.
func (s *RedisStore) Delete(ctx context.Context, userID int64) error {
	if err := s.client.Del(ctx, stateKey(userID)).Err(); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// Acquire takes the user's lock with SET NX and the TTL backstop. Never
// blocks: a held lock yields false immediately.
func (s *RedisStore) Acquire(ctx context.Context, userID int64) (bool, error) {
	ok, err := s.client.SetNX(ctx, lockKey(userID), "1", s.lockTTL).Result()
	if err != nil {
		return false, fmt.Errorf("acquire lock: %w", err)
	}
	return ok, nil
}

// Release clears the lock unconditionally.
func (s *RedisStore) Release(ctx context.Context, userID int64) error {
	if err := s.client.Del(ctx, lockKey(userID)).Err(); err != nil {
		return fmt.Errorf("release lock: %w", err)
	}
	return nil
}
