package redisstore

import (
	"context"
	"time"

	"github.com/goliatone/go-errors"
	"github.com/redis/go-redis/v9"
)

// invalidateScript deletes the session only while it still holds the given
// id, so a logout racing a newer login cannot tear down the new session.
var invalidateScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// SessionStore keeps one active session id per identity. Replace overwrites
// the identity's key, which is what enforces the single-active-session
// policy: the previous id simply stops comparing equal.
type SessionStore struct {
	client redis.UniversalClient
}

// NewSessionStore creates a Redis-backed session store.
func NewSessionStore(client redis.UniversalClient) *SessionStore {
	return &SessionStore{client: client}
}

// Validate reports whether sessionID is the identity's active session.
// A missing key means the session expired or was revoked.
func (s *SessionStore) Validate(ctx context.Context, identity, sessionID string) (bool, error) {
	current, err := s.client.Get(ctx, sessionKeyPrefix+identity).Result()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, errors.Wrap(err, errors.CategoryInternal, "session store read failed")
	}

	return current == sessionID, nil
}

// Invalidate removes the session if sessionID is still the active one.
func (s *SessionStore) Invalidate(ctx context.Context, identity, sessionID string) error {
	err := invalidateScript.Run(ctx, s.client, []string{sessionKeyPrefix + identity}, sessionID).Err()
	if err != nil && err != redis.Nil {
		return errors.Wrap(err, errors.CategoryInternal, "session store invalidate failed")
	}
	return nil
}

// Replace activates sessionID as the identity's single session with the
// given TTL, superseding whatever was active.
func (s *SessionStore) Replace(ctx context.Context, identity, sessionID string, ttl time.Duration) error {
	if err := s.client.Set(ctx, sessionKeyPrefix+identity, sessionID, ttl).Err(); err != nil {
		return errors.Wrap(err, errors.CategoryInternal, "session store write failed")
	}
	return nil
}
