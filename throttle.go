package gate

import (
	"context"
	"time"
)

// ThrottleStatus enumerates the per-identity throttle states.
type ThrottleStatus string

const (
	ThrottleNormal  ThrottleStatus = "normal"
	ThrottleWarned  ThrottleStatus = "warned"
	ThrottleBlocked ThrottleStatus = "blocked"
)

// ThrottleState is a snapshot of one identity's throttle record.
type ThrottleState struct {
	Status       ThrottleStatus
	FailureCount int
	BlockedUntil *time.Time
}

// Remaining returns how long the lockout still lasts at the given instant.
func (s ThrottleState) Remaining(now time.Time) time.Duration {
	if s.BlockedUntil == nil {
		return 0
	}
	remaining := s.BlockedUntil.Sub(now)
	if remaining < 0 {
		return 0
	}
	return remaining
}

// LoginThrottleService implements LoginThrottle over an AttemptStore. All
// counter state lives in the store; the service holds no per-identity state,
// so any number of instances can share one store. The store's Increment must
// be atomic or concurrent failures would under-count, which is a security
// defect rather than a correctness nuisance.
type LoginThrottleService struct {
	store       AttemptStore
	maxAttempts int
	lockout     time.Duration
	logger      Logger
	now         func() time.Time
}

// NewLoginThrottle creates a throttle with the given limits.
func NewLoginThrottle(store AttemptStore, maxAttempts int, lockout time.Duration) *LoginThrottleService {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	return &LoginThrottleService{
		store:       store,
		maxAttempts: maxAttempts,
		lockout:     lockout,
		logger:      defLogger{},
		now:         time.Now,
	}
}

// WithLogger overrides the logger.
func (t *LoginThrottleService) WithLogger(logger Logger) *LoginThrottleService {
	if logger != nil {
		t.logger = logger
	}
	return t
}

// WithClock injects a custom clock (useful for tests).
func (t *LoginThrottleService) WithClock(clock func() time.Time) *LoginThrottleService {
	if clock != nil {
		t.now = clock
	}
	return t
}

// RecordFailure registers one failed attempt. It returns the state after the
// increment; when the identity is blocked, either already or because this
// increment reached the limit, the error is a lockout error carrying the
// remaining seconds.
func (t *LoginThrottleService) RecordFailure(ctx context.Context, identity string) (ThrottleState, error) {
	now := t.now()

	count, blockedUntil, err := t.store.Status(ctx, identity)
	if err != nil {
		return ThrottleState{}, t.storeFailure("status", err)
	}

	if blockedUntil != nil && blockedUntil.After(now) {
		state := ThrottleState{Status: ThrottleBlocked, FailureCount: count, BlockedUntil: blockedUntil}
		return state, NewAccountBlockedError(state.Remaining(now))
	}

	count, err = t.store.Increment(ctx, identity, t.lockout)
	if err != nil {
		return ThrottleState{}, t.storeFailure("increment", err)
	}

	if count < t.maxAttempts {
		return ThrottleState{Status: ThrottleWarned, FailureCount: count}, nil
	}

	until := now.Add(t.lockout)

	// Only the increment that first reaches the limit writes the deadline;
	// later calls observe it through Status.
	if count == t.maxAttempts {
		if err := t.store.Block(ctx, identity, until); err != nil {
			return ThrottleState{}, t.storeFailure("block", err)
		}
	} else if _, stored, err := t.store.Status(ctx, identity); err == nil && stored != nil {
		until = *stored
	}

	state := ThrottleState{Status: ThrottleBlocked, FailureCount: count, BlockedUntil: &until}
	t.logger.Warn("login throttle blocked identity", "identity", identity, "failures", count)

	return state, NewAccountBlockedError(state.Remaining(now))
}

// RecordSuccess clears the identity's record entirely, including a Warned
// count that never reached the limit.
func (t *LoginThrottleService) RecordSuccess(ctx context.Context, identity string) error {
	if err := t.store.Clear(ctx, identity); err != nil {
		return t.storeFailure("clear", err)
	}
	return nil
}

// CheckStatus reads the current state. An elapsed lockout is cleared here so
// the next attempt starts from a clean record; the lazy expiry keeps us from
// needing a background sweeper.
func (t *LoginThrottleService) CheckStatus(ctx context.Context, identity string) (ThrottleState, error) {
	now := t.now()

	count, blockedUntil, err := t.store.Status(ctx, identity)
	if err != nil {
		return ThrottleState{}, t.storeFailure("status", err)
	}

	if blockedUntil != nil {
		if blockedUntil.After(now) {
			return ThrottleState{Status: ThrottleBlocked, FailureCount: count, BlockedUntil: blockedUntil}, nil
		}

		if err := t.store.Clear(ctx, identity); err != nil {
			return ThrottleState{}, t.storeFailure("clear", err)
		}
		return ThrottleState{Status: ThrottleNormal}, nil
	}

	if count > 0 {
		return ThrottleState{Status: ThrottleWarned, FailureCount: count}, nil
	}

	return ThrottleState{Status: ThrottleNormal}, nil
}

func (t *LoginThrottleService) storeFailure(op string, err error) error {
	t.logger.Error("login throttle store unavailable", "op", op, "error", err)
	return ErrInfraUnavailable
}

var _ LoginThrottle = (*LoginThrottleService)(nil)
