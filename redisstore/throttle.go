package redisstore

import (
	"context"
	"strconv"
	"time"

	"github.com/goliatone/go-errors"
	"github.com/redis/go-redis/v9"
)

// incrementScript bumps the failure counter and stamps the window TTL on
// the first failure only, so the window is measured from the first miss.
// Running server-side makes the increment linearizable across instances.
var incrementScript = redis.NewScript(`
local count = redis.call("INCR", KEYS[1])
if count == 1 then
	redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
return count
`)

// AttemptStore keeps the per-identity failure counter and lockout deadline.
type AttemptStore struct {
	client redis.UniversalClient
}

// NewAttemptStore creates a Redis-backed attempt store.
func NewAttemptStore(client redis.UniversalClient) *AttemptStore {
	return &AttemptStore{client: client}
}

// Increment adds one failure and returns the running count.
func (s *AttemptStore) Increment(ctx context.Context, identity string, ttl time.Duration) (int, error) {
	count, err := incrementScript.Run(ctx, s.client,
		[]string{attemptKeyPrefix + identity},
		ttl.Milliseconds(),
	).Int()
	if err != nil {
		return 0, errors.Wrap(err, errors.CategoryInternal, "attempt store increment failed")
	}

	return count, nil
}

// Block stores the deadline; the key expires when the lockout elapses, so a
// vanished key doubles as the lazy reset.
func (s *AttemptStore) Block(ctx context.Context, identity string, until time.Time) error {
	ttl := time.Until(until)
	if ttl <= 0 {
		return nil
	}

	err := s.client.Set(ctx, blockedKeyPrefix+identity, until.UnixMilli(), ttl).Err()
	if err != nil {
		return errors.Wrap(err, errors.CategoryInternal, "attempt store block failed")
	}

	return nil
}

// Status returns the current failure count and block deadline, if any.
func (s *AttemptStore) Status(ctx context.Context, identity string) (int, *time.Time, error) {
	vals, err := s.client.MGet(ctx, attemptKeyPrefix+identity, blockedKeyPrefix+identity).Result()
	if err != nil {
		return 0, nil, errors.Wrap(err, errors.CategoryInternal, "attempt store read failed")
	}

	var count int
	if raw, ok := vals[0].(string); ok {
		if parsed, err := strconv.Atoi(raw); err == nil {
			count = parsed
		}
	}

	var blockedUntil *time.Time
	if raw, ok := vals[1].(string); ok {
		if millis, err := strconv.ParseInt(raw, 10, 64); err == nil {
			t := time.UnixMilli(millis)
			blockedUntil = &t
		}
	}

	return count, blockedUntil, nil
}

// Clear removes the counter and any lockout for the identity.
func (s *AttemptStore) Clear(ctx context.Context, identity string) error {
	err := s.client.Del(ctx, attemptKeyPrefix+identity, blockedKeyPrefix+identity).Err()
	if err != nil {
		return errors.Wrap(err, errors.CategoryInternal, "attempt store clear failed")
	}
	return nil
}
