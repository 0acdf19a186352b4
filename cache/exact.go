package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// ErrCacheMiss is returned by ExactStore.Get when no entry exists for a
// fingerprint.
var ErrCacheMiss = errors.New("cache miss")

// Entry is a cached generation. Entries are written at most once per
// successful generation and never mutated in place; expiry is deletion by
// the store, not an update.
type Entry struct {
	Fingerprint string        `json:"fingerprint"`
	Answer      string        `json:"answer"`
	Model       string        `json:"model"`
	CreatedAt   time.Time     `json:"created_at"`
	TTL         time.Duration `json:"ttl"`
}

// ExactStore is the exact-match collaborator contract.
type ExactStore interface {
	Get(ctx context.Context, fingerprint string) (*Entry, error)
	Set(ctx context.Context, fingerprint string, entry *Entry, ttl time.Duration) error
}

const redisKeyPrefix = "trustgate:chat:"

// RedisStore implements ExactStore on a redis client. Entries are stored as
// JSON values under a prefixed fingerprint key with a per-entry TTL.
type RedisStore struct {
	client *redis.Client
	logger *zap.Logger
}

// NewRedisStore creates a redis-backed exact store.
func NewRedisStore(client *redis.Client, logger *zap.Logger) *RedisStore {
	return &RedisStore{
		client: client,
		logger: logger.With(zap.String("component", "exact_store")),
	}
}

// Get fetches the entry for a fingerprint, or ErrCacheMiss.
func (s *RedisStore) Get(ctx context.Context, fingerprint string) (*Entry, error) {
	data, err := s.client.Get(ctx, redisKeyPrefix+fingerprint).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrCacheMiss
		}
		return nil, err
	}

	var entry Entry
	if err := json.Unmarshal(data, &entry); err != nil {
		// A corrupt value is unreadable forever; treat as a miss so the
		// next successful generation overwrites it.
		s.logger.Warn("dropping corrupt cache entry",
			zap.String("fingerprint", fingerprint),
			zap.Error(err))
		return nil, ErrCacheMiss
	}
	return &entry, nil
}

// Set writes the entry under the fingerprint key with the given TTL.
func (s *RedisStore) Set(ctx context.Context, fingerprint string, entry *Entry, ttl time.Duration) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, redisKeyPrefix+fingerprint, data, ttl).Err()
}
