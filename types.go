package gate

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type Logger interface {
	Debug(format string, args ...any)
	Info(format string, args ...any)
	Warn(format string, args ...any)
	Error(format string, args ...any)
}

// Identity holds the attributes of an authenticated principal
type Identity interface {
	ID() string
	Username() string
	Email() string
	Roles() []string
}

// IdentityProvider ensure we have a store to retrieve auth identity
type IdentityProvider interface {
	VerifyIdentity(ctx context.Context, identifier, password string) (Identity, error)
	FindIdentityByIdentifier(ctx context.Context, identifier string) (Identity, error)
}

// TokenService issues and validates signed access tokens
type TokenService interface {
	Issue(identity string, roles []string, activeRole, sessionID string) (string, error)
	SignClaims(claims *JWTClaims) (string, error)
	Validate(tokenString string) (AccessClaims, error)
}

// SessionStore tracks which session id is currently valid for an identity.
// The record lives in a shared external store; token validity and session
// validity are deliberately decoupled so a session can be revoked while its
// token is still cryptographically sound.
type SessionStore interface {
	// Validate reports whether sessionID is the active session for identity.
	Validate(ctx context.Context, identity, sessionID string) (bool, error)
	// Invalidate removes the session if it is currently active. Idempotent.
	Invalidate(ctx context.Context, identity, sessionID string) error
	// Replace makes sessionID the only active session for identity,
	// invalidating whatever was active before.
	Replace(ctx context.Context, identity, sessionID string, ttl time.Duration) error
}

// AttemptStore is the shared-store port backing LoginThrottle. Increment must
// be atomic at the store: concurrent failures for the same identity may never
// lose an update.
type AttemptStore interface {
	// Increment adds one failed attempt and returns the running count.
	// The record expires after ttl unless touched again.
	Increment(ctx context.Context, identity string, ttl time.Duration) (int, error)
	// Block marks the identity blocked until the given time.
	Block(ctx context.Context, identity string, until time.Time) error
	// Status returns the current failure count and block deadline, if any.
	Status(ctx context.Context, identity string) (count int, blockedUntil *time.Time, err error)
	// Clear removes the attempt record entirely.
	Clear(ctx context.Context, identity string) error
}

// LoginThrottle gates the credential login path with a per-identity
// failure counter and timed lockout.
type LoginThrottle interface {
	RecordFailure(ctx context.Context, identity string) (ThrottleState, error)
	RecordSuccess(ctx context.Context, identity string) error
	CheckStatus(ctx context.Context, identity string) (ThrottleState, error)
}

// AuthEventSink consumes authentication audit events. Sinks run best-effort:
// errors are logged, never surfaced to the request.
type AuthEventSink interface {
	Record(ctx context.Context, event AuthEvent) error
}

// AuthEventSinkFunc adapts a function to the AuthEventSink interface.
type AuthEventSinkFunc func(ctx context.Context, event AuthEvent) error

// Record implements AuthEventSink.
func (f AuthEventSinkFunc) Record(ctx context.Context, event AuthEvent) error {
	if f == nil {
		return nil
	}
	return f(ctx, event)
}

// Config holds gate options
type Config interface {
	GetSigningKey() string
	GetSigningMethod() string
	GetContextKey() string
	GetTokenExpiration() int
	GetTokenLookup() string
	GetAuthScheme() string
	GetIssuer() string
	GetAudience() []string
	GetMaxLoginAttempts() int
	GetLockoutDuration() time.Duration
	GetStoreTimeout() time.Duration
	GetRolePrefix() string
	GetPermissionRules() []PermissionRule
}

// PasswordAuthenticator authenticates passwords
type PasswordAuthenticator interface {
	HashPassword(password string) (string, error)
	ComparePasswordAndHash(password, hash string) error
}

// NewSessionID returns a fresh jti for a login or role switch.
func NewSessionID() string {
	return uuid.NewString()
}

type defLogger struct{}

func (d defLogger) Error(format string, args ...any) {
	fmt.Printf("[ERR] GATE "+newline(format), args...)
}

func (d defLogger) Warn(format string, args ...any) {
	fmt.Printf("[WRN] GATE "+newline(format), args...)
}

func (d defLogger) Info(format string, args ...any) {
	fmt.Printf("[INF] GATE "+newline(format), args...)
}

func (d defLogger) Debug(format string, args ...any) {
	fmt.Printf("[DBG] GATE "+newline(format), args...)
}

func newline(s string) string {
	if len(s) > 0 && s[len(s)-1] != '\n' {
		s += "\n"
	}
	return s
}
