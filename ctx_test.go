package gate_test

import (
	"context"
	"testing"

	"github.com/goliatone/go-gate"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClaimsContextRoundTrip(t *testing.T) {
	claims := claimsFor("user-1", gate.RoleClerk, gate.RoleClerk)

	ctx := gate.WithClaimsContext(context.Background(), claims)

	got, ok := gate.GetClaims(ctx)
	require.True(t, ok)
	assert.Equal(t, "user-1", got.Subject())
	assert.Equal(t, gate.RoleClerk, gate.ActiveRole(ctx))
}

func TestGetClaimsMissing(t *testing.T) {
	_, ok := gate.GetClaims(context.Background())
	assert.False(t, ok)
	assert.Empty(t, gate.ActiveRole(context.Background()))
}

func TestCan(t *testing.T) {
	matrix := defaultMatrix()
	claims := claimsFor("user-1", gate.RoleClerk, gate.RoleClerk)
	ctx := gate.WithClaimsContext(context.Background(), claims)

	assert.True(t, gate.Can(ctx, matrix, gate.StatusDraft, "POST"))
	assert.False(t, gate.Can(ctx, matrix, gate.StatusApproved, "POST"))

	t.Run("unauthenticated context denies", func(t *testing.T) {
		assert.False(t, gate.Can(context.Background(), matrix, gate.StatusDraft, "GET"))
	})

	t.Run("nil matrix denies", func(t *testing.T) {
		assert.False(t, gate.Can(ctx, nil, gate.StatusDraft, "GET"))
	})
}

func TestContextCanModify(t *testing.T) {
	matrix := defaultMatrix(gate.WithElevatedRoles(gate.DefaultElevatedRoles...))

	owner := gate.WithClaimsContext(context.Background(), claimsFor("user-1", gate.RoleClerk, gate.RoleClerk))
	manager := gate.WithClaimsContext(context.Background(), claimsFor("user-9", gate.RoleManager, gate.RoleManager))

	assert.True(t, gate.CanModify(owner, matrix, "user-1"))
	assert.False(t, gate.CanModify(owner, matrix, "user-2"))
	assert.True(t, gate.CanModify(manager, matrix, "user-2"))
	assert.False(t, gate.CanModify(context.Background(), matrix, "user-1"))
}
