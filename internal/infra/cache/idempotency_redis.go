package cache

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"

	domain "github.com/BruksfildServices01/calendar-booking/internal/domain/booking"
)

const (
	keyPrefix    = "idem:claim:"
	pendingValue = "pending"
	donePrefix   = "done:"
)

// releasePending deletes the key only while it still marks an attempt in
// flight, so a completed claim is never forgotten.
var releasePending = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

type IdempotencyRedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewIdempotencyRedisStore(client *redis.Client, ttl time.Duration) *IdempotencyRedisStore {
	return &IdempotencyRedisStore{client: client, ttl: ttl}
}

// NewClient parses a redis:// URL and checks the server answers.
func NewClient(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_URL: %w", err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to reach redis: %w", err)
	}
	return client, nil
}

func (s *IdempotencyRedisStore) Reserve(ctx context.Context, key string) (string, error) {
	k := keyPrefix + key

	// a second round covers a key that expires between SETNX and GET
	for i := 0; i < 2; i++ {
		ok, err := s.client.SetNX(ctx, k, pendingValue, s.ttl).Result()
		if err != nil {
			return "", fmt.Errorf("reserve idempotency key: %w", err)
		}
		if ok {
			return "", nil
		}

		val, err := s.client.Get(ctx, k).Result()
		if errors.Is(err, redis.Nil) {
			continue
		}
		if err != nil {
			return "", fmt.Errorf("read idempotency key: %w", err)
		}

		if id, done := strings.CutPrefix(val, donePrefix); done {
			return id, nil
		}
		return "", domain.ErrClaimInProgress
	}

	return "", domain.ErrClaimInProgress
}

func (s *IdempotencyRedisStore) Complete(ctx context.Context, key string, bookingID string) error {
	if err := s.client.Set(ctx, keyPrefix+key, donePrefix+bookingID, s.ttl).Err(); err != nil {
		return fmt.Errorf("complete idempotency key: %w", err)
	}
	return nil
}

func (s *IdempotencyRedisStore) Release(ctx context.Context, key string) error {
	if err := releasePending.Run(ctx, s.client, []string{keyPrefix + key}, pendingValue).Err(); err != nil {
		return fmt.Errorf("release idempotency key: %w", err)
	}
	return nil
}

var _ domain.IdempotencyStore = (*IdempotencyRedisStore)(nil)
