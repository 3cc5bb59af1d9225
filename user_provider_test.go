package gate_test

import (
	"context"
	"sync"
	"testing"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-gate"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockUserTracker implements gate.UserTracker
type MockUserTracker struct {
	mock.Mock
}

func (m *MockUserTracker) GetByIdentifier(ctx context.Context, identifier string) (*gate.User, error) {
	args := m.Called(ctx, identifier)
	user, _ := args.Get(0).(*gate.User)
	return user, args.Error(1)
}

func (m *MockUserTracker) TrackAttemptedLogin(ctx context.Context, user *gate.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserTracker) TrackSuccessfulLogin(ctx context.Context, user *gate.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

var (
	hashOnce     sync.Once
	passwordHash string
)

func testPasswordHash(t *testing.T) string {
	t.Helper()
	hashOnce.Do(func() {
		hash, err := gate.HashPassword("password123")
		if err != nil {
			t.Fatalf("failed to hash test password: %v", err)
		}
		passwordHash = hash
	})
	return passwordHash
}

func testUser(t *testing.T) *gate.User {
	return &gate.User{
		ID:           uuid.New(),
		Username:     "pepe",
		Email:        "pepe@example.com",
		PasswordHash: testPasswordHash(t),
		Roles:        []string{gate.RoleClerk},
		Status:       gate.UserStatusActive,
	}
}

func TestVerifyIdentity(t *testing.T) {
	ctx := context.Background()

	t.Run("valid credentials return the identity", func(t *testing.T) {
		user := testUser(t)
		store := new(MockUserTracker)
		store.On("GetByIdentifier", ctx, "pepe@example.com").Return(user, nil)
		store.On("TrackSuccessfulLogin", ctx, user).Return(nil)

		provider := gate.NewUserProvider(store).WithLogger(noopLogger{})

		identity, err := provider.VerifyIdentity(ctx, "pepe@example.com", "password123")
		require.NoError(t, err)
		assert.Equal(t, user.ID.String(), identity.ID())
		assert.Equal(t, "pepe", identity.Username())
		assert.Equal(t, []string{gate.RoleClerk}, identity.Roles())

		store.AssertExpectations(t)
	})

	t.Run("wrong password is tracked and rejected", func(t *testing.T) {
		user := testUser(t)
		store := new(MockUserTracker)
		store.On("GetByIdentifier", ctx, "pepe@example.com").Return(user, nil)
		store.On("TrackAttemptedLogin", ctx, user).Return(nil)

		provider := gate.NewUserProvider(store).WithLogger(noopLogger{})

		_, err := provider.VerifyIdentity(ctx, "pepe@example.com", "wrong")
		assert.ErrorIs(t, err, gate.ErrMismatchedHashAndPassword)

		store.AssertExpectations(t)
	})

	t.Run("unknown user yields the same credential error", func(t *testing.T) {
		store := new(MockUserTracker)
		store.On("GetByIdentifier", ctx, "nobody@example.com").
			Return(nil, goerrors.New("record not found", goerrors.CategoryNotFound))

		provider := gate.NewUserProvider(store).WithLogger(noopLogger{})

		_, err := provider.VerifyIdentity(ctx, "nobody@example.com", "password123")
		assert.ErrorIs(t, err, gate.ErrMismatchedHashAndPassword,
			"missing user and wrong password must be indistinguishable")
	})

	t.Run("suspended account cannot authenticate", func(t *testing.T) {
		user := testUser(t)
		user.Status = gate.UserStatusSuspended
		store := new(MockUserTracker)
		store.On("GetByIdentifier", ctx, "pepe@example.com").Return(user, nil)

		provider := gate.NewUserProvider(store).WithLogger(noopLogger{})

		_, err := provider.VerifyIdentity(ctx, "pepe@example.com", "password123")
		assert.ErrorIs(t, err, gate.ErrAccountSuspended)

		store.AssertNotCalled(t, "TrackAttemptedLogin", mock.Anything, mock.Anything)
	})

	t.Run("banned account cannot authenticate", func(t *testing.T) {
		user := testUser(t)
		user.Status = gate.UserStatusBanned
		store := new(MockUserTracker)
		store.On("GetByIdentifier", ctx, "pepe@example.com").Return(user, nil)

		provider := gate.NewUserProvider(store).WithLogger(noopLogger{})

		_, err := provider.VerifyIdentity(ctx, "pepe@example.com", "password123")
		assert.ErrorIs(t, err, gate.ErrAccountBanned)
	})

	t.Run("user with unknown role is rejected", func(t *testing.T) {
		user := testUser(t)
		user.Roles = []string{"superuser"}
		store := new(MockUserTracker)
		store.On("GetByIdentifier", ctx, "pepe@example.com").Return(user, nil)
		store.On("TrackSuccessfulLogin", ctx, user).Return(nil)

		provider := gate.NewUserProvider(store).WithLogger(noopLogger{})

		_, err := provider.VerifyIdentity(ctx, "pepe@example.com", "password123")
		assert.Error(t, err)
	})

	t.Run("store failure surfaces as internal error", func(t *testing.T) {
		store := new(MockUserTracker)
		store.On("GetByIdentifier", ctx, "pepe@example.com").
			Return(nil, assert.AnError)

		provider := gate.NewUserProvider(store).WithLogger(noopLogger{})

		_, err := provider.VerifyIdentity(ctx, "pepe@example.com", "password123")
		require.Error(t, err)
		assert.NotErrorIs(t, err, gate.ErrMismatchedHashAndPassword)
	})
}

func TestFindIdentityByIdentifier(t *testing.T) {
	ctx := context.Background()

	t.Run("known identifier", func(t *testing.T) {
		user := testUser(t)
		store := new(MockUserTracker)
		store.On("GetByIdentifier", ctx, "pepe").Return(user, nil)

		provider := gate.NewUserProvider(store).WithLogger(noopLogger{})

		identity, err := provider.FindIdentityByIdentifier(ctx, "pepe")
		require.NoError(t, err)
		assert.Equal(t, "pepe@example.com", identity.Email())
	})

	t.Run("unknown identifier", func(t *testing.T) {
		store := new(MockUserTracker)
		store.On("GetByIdentifier", ctx, "nobody").
			Return(nil, goerrors.New("record not found", goerrors.CategoryNotFound))

		provider := gate.NewUserProvider(store).WithLogger(noopLogger{})

		_, err := provider.FindIdentityByIdentifier(ctx, "nobody")
		assert.ErrorIs(t, err, gate.ErrIdentityNotFound)
	})
}
