package gate_test

import (
	"context"
	"time"

	"github.com/goliatone/go-gate"
	"github.com/stretchr/testify/mock"
)

// MockIdentityProvider implements gate.IdentityProvider
type MockIdentityProvider struct {
	mock.Mock
}

func (m *MockIdentityProvider) VerifyIdentity(ctx context.Context, identifier, password string) (gate.Identity, error) {
	args := m.Called(ctx, identifier, password)
	identity, _ := args.Get(0).(gate.Identity)
	return identity, args.Error(1)
}

func (m *MockIdentityProvider) FindIdentityByIdentifier(ctx context.Context, identifier string) (gate.Identity, error) {
	args := m.Called(ctx, identifier)
	identity, _ := args.Get(0).(gate.Identity)
	return identity, args.Error(1)
}

// MockSessionStore implements gate.SessionStore
type MockSessionStore struct {
	mock.Mock
}

func (m *MockSessionStore) Validate(ctx context.Context, identity, sessionID string) (bool, error) {
	args := m.Called(ctx, identity, sessionID)
	return args.Bool(0), args.Error(1)
}

func (m *MockSessionStore) Invalidate(ctx context.Context, identity, sessionID string) error {
	args := m.Called(ctx, identity, sessionID)
	return args.Error(0)
}

func (m *MockSessionStore) Replace(ctx context.Context, identity, sessionID string, ttl time.Duration) error {
	args := m.Called(ctx, identity, sessionID, ttl)
	return args.Error(0)
}

// MockAttemptStore implements gate.AttemptStore
type MockAttemptStore struct {
	mock.Mock
}

func (m *MockAttemptStore) Increment(ctx context.Context, identity string, ttl time.Duration) (int, error) {
	args := m.Called(ctx, identity, ttl)
	return args.Int(0), args.Error(1)
}

func (m *MockAttemptStore) Block(ctx context.Context, identity string, until time.Time) error {
	args := m.Called(ctx, identity, until)
	return args.Error(0)
}

func (m *MockAttemptStore) Status(ctx context.Context, identity string) (int, *time.Time, error) {
	args := m.Called(ctx, identity)
	until, _ := args.Get(1).(*time.Time)
	return args.Int(0), until, args.Error(2)
}

func (m *MockAttemptStore) Clear(ctx context.Context, identity string) error {
	args := m.Called(ctx, identity)
	return args.Error(0)
}

// MockLoginThrottle implements gate.LoginThrottle
type MockLoginThrottle struct {
	mock.Mock
}

func (m *MockLoginThrottle) RecordFailure(ctx context.Context, identity string) (gate.ThrottleState, error) {
	args := m.Called(ctx, identity)
	state, _ := args.Get(0).(gate.ThrottleState)
	return state, args.Error(1)
}

func (m *MockLoginThrottle) RecordSuccess(ctx context.Context, identity string) error {
	args := m.Called(ctx, identity)
	return args.Error(0)
}

func (m *MockLoginThrottle) CheckStatus(ctx context.Context, identity string) (gate.ThrottleState, error) {
	args := m.Called(ctx, identity)
	state, _ := args.Get(0).(gate.ThrottleState)
	return state, args.Error(1)
}

// TestIdentity is a simple implementation of Identity interface for testing
type TestIdentity struct {
	id       string
	username string
	email    string
	roles    []string
}

func (t TestIdentity) ID() string       { return t.id }
func (t TestIdentity) Username() string { return t.username }
func (t TestIdentity) Email() string    { return t.email }
func (t TestIdentity) Roles() []string  { return t.roles }

// noopLogger silences gate logging in tests
type noopLogger struct{}

func (noopLogger) Debug(format string, args ...any) {}
func (noopLogger) Info(format string, args ...any)  {}
func (noopLogger) Warn(format string, args ...any)  {}
func (noopLogger) Error(format string, args ...any) {}

func testConfig() *gate.SimpleConfig {
	return &gate.SimpleConfig{
		SigningKey:       "test-signing-key",
		TokenExpiration:  24,
		Issuer:           "test-issuer",
		Audience:         []string{"test:audience"},
		MaxLoginAttempts: 3,
		LockoutDuration:  15 * time.Minute,
		StoreTimeout:     time.Second,
	}
}
