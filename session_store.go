package gate

import (
	"context"
	"sync"
	"time"
)

// MemorySessionStore is a process-local SessionStore for tests and single
// node development. Production deployments should use the Redis-backed store
// in the redisstore package so revocation is visible across instances.
type MemorySessionStore struct {
	mu       sync.Mutex
	sessions map[string]memorySession
	now      func() time.Time
}

type memorySession struct {
	id        string
	expiresAt time.Time
}

// NewMemorySessionStore creates an empty in-memory session store.
func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{
		sessions: map[string]memorySession{},
		now:      time.Now,
	}
}

// WithClock injects a custom clock (useful for tests).
func (s *MemorySessionStore) WithClock(clock func() time.Time) *MemorySessionStore {
	if clock != nil {
		s.now = clock
	}
	return s
}

// Validate reports whether sessionID is the active, unexpired session.
func (s *MemorySessionStore) Validate(ctx context.Context, identity, sessionID string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.sessions[identity]
	if !ok {
		return false, nil
	}

	if !rec.expiresAt.After(s.now()) {
		delete(s.sessions, identity)
		return false, nil
	}

	return rec.id == sessionID, nil
}

// Invalidate removes the session if it is currently the active one.
func (s *MemorySessionStore) Invalidate(ctx context.Context, identity, sessionID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if rec, ok := s.sessions[identity]; ok && rec.id == sessionID {
		delete(s.sessions, identity)
	}

	return nil
}

// Replace activates sessionID as the identity's single session.
func (s *MemorySessionStore) Replace(ctx context.Context, identity, sessionID string, ttl time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.sessions[identity] = memorySession{
		id:        sessionID,
		expiresAt: s.now().Add(ttl),
	}

	return nil
}

var _ SessionStore = (*MemorySessionStore)(nil)

// MemoryAttemptStore is a process-local AttemptStore counterpart. Increments
// happen under a single mutex, so concurrent failures are never lost.
type MemoryAttemptStore struct {
	mu       sync.Mutex
	attempts map[string]*memoryAttempt
	now      func() time.Time
}

type memoryAttempt struct {
	count        int
	expiresAt    time.Time
	blockedUntil *time.Time
}

// NewMemoryAttemptStore creates an empty in-memory attempt store.
func NewMemoryAttemptStore() *MemoryAttemptStore {
	return &MemoryAttemptStore{
		attempts: map[string]*memoryAttempt{},
		now:      time.Now,
	}
}

// WithClock injects a custom clock (useful for tests).
func (s *MemoryAttemptStore) WithClock(clock func() time.Time) *MemoryAttemptStore {
	if clock != nil {
		s.now = clock
	}
	return s
}

// Increment adds one failure and returns the running count.
func (s *MemoryAttemptStore) Increment(ctx context.Context, identity string, ttl time.Duration) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rec := s.attempts[identity]
	if rec == nil || !rec.expiresAt.After(s.now()) {
		rec = &memoryAttempt{}
		s.attempts[identity] = rec
	}

	rec.count++
	rec.expiresAt = s.now().Add(ttl)

	return rec.count, nil
}

// Block marks the identity blocked until the given time.
func (s *MemoryAttemptStore) Block(ctx context.Context, identity string, until time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rec := s.attempts[identity]
	if rec == nil {
		rec = &memoryAttempt{}
		s.attempts[identity] = rec
	}

	rec.blockedUntil = &until
	if until.After(rec.expiresAt) {
		rec.expiresAt = until
	}

	return nil
}

// Status returns the current count and block deadline.
func (s *MemoryAttemptStore) Status(ctx context.Context, identity string) (int, *time.Time, error) {
	if err := ctx.Err(); err != nil {
		return 0, nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.attempts[identity]
	if !ok || !rec.expiresAt.After(s.now()) {
		return 0, nil, nil
	}

	return rec.count, rec.blockedUntil, nil
}

// Clear removes the attempt record entirely.
func (s *MemoryAttemptStore) Clear(ctx context.Context, identity string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.attempts, identity)
	return nil
}

var _ AttemptStore = (*MemoryAttemptStore)(nil)
