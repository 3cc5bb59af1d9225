package gate_test

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/goliatone/go-gate"
	"github.com/stretchr/testify/assert"
)

func defaultMatrix(opts ...gate.MatrixOption) *gate.AuthorizationMatrix {
	return gate.NewAuthorizationMatrix(gate.DefaultPermissionRules(), opts...)
}

func claimsFor(subject, active string, roles ...string) *gate.JWTClaims {
	now := time.Now()
	return &gate.JWTClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			ID:        gate.NewSessionID(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
		},
		UserRoles: roles,
		Active:    active,
	}
}

func TestMatrixIsAllowed(t *testing.T) {
	matrix := defaultMatrix()

	t.Run("granted tuples pass", func(t *testing.T) {
		assert.True(t, matrix.IsAllowed(gate.RoleClerk, gate.StatusDraft, "POST"))
		assert.True(t, matrix.IsAllowed(gate.RoleReviewer, gate.StatusInReview, "PUT"))
		assert.True(t, matrix.IsAllowed(gate.RoleAuditor, gate.StatusArchived, "GET"))
	})

	t.Run("anything not listed is denied", func(t *testing.T) {
		assert.False(t, matrix.IsAllowed(gate.RoleClerk, gate.StatusApproved, "GET"))
		assert.False(t, matrix.IsAllowed(gate.RoleClerk, gate.StatusSubmitted, "PUT"))
		assert.False(t, matrix.IsAllowed(gate.RoleAuditor, gate.StatusDraft, "DELETE"))
	})

	t.Run("unknown role or status is denied", func(t *testing.T) {
		assert.False(t, matrix.IsAllowed("intern", gate.StatusDraft, "GET"))
		assert.False(t, matrix.IsAllowed(gate.RoleClerk, "published", "GET"))
		assert.False(t, matrix.IsAllowed("", "", ""))
	})

	t.Run("lookup is case and whitespace tolerant", func(t *testing.T) {
		assert.True(t, matrix.IsAllowed("Clerk", "Draft", "post"))
		assert.True(t, matrix.IsAllowed(" clerk ", " draft ", " POST "))
	})
}

func TestMatrixRolePrefix(t *testing.T) {
	matrix := defaultMatrix(gate.WithRolePrefix("ROLE_"))

	assert.True(t, matrix.IsAllowed("ROLE_clerk", gate.StatusDraft, "GET"))
	assert.True(t, matrix.IsAllowed("clerk", gate.StatusDraft, "GET"))
}

func TestMatrixDisabled(t *testing.T) {
	matrix := defaultMatrix(gate.WithMatrixDisabled())

	assert.False(t, matrix.IsAllowed(gate.RoleManager, gate.StatusDraft, "GET"))
	assert.Empty(t, matrix.AllowedStatuses(gate.RoleManager))
}

func TestMatrixAllowedStatuses(t *testing.T) {
	matrix := defaultMatrix()

	assert.Equal(t, []string{
		gate.StatusDraft,
		gate.StatusRejected,
		gate.StatusSubmitted,
	}, matrix.AllowedStatuses(gate.RoleClerk))

	assert.Empty(t, matrix.AllowedStatuses("intern"))
}

func TestMatrixDuplicateRulesMerge(t *testing.T) {
	matrix := gate.NewAuthorizationMatrix([]gate.PermissionRule{
		{Role: "clerk", Status: "draft", Methods: []string{"GET"}},
		{Role: "clerk", Status: "draft", Methods: []string{"PUT"}},
	})

	assert.True(t, matrix.IsAllowed("clerk", "draft", "GET"))
	assert.True(t, matrix.IsAllowed("clerk", "draft", "PUT"))
	assert.False(t, matrix.IsAllowed("clerk", "draft", "DELETE"))
}

func TestMatrixCanModify(t *testing.T) {
	matrix := defaultMatrix(gate.WithElevatedRoles(gate.DefaultElevatedRoles...))

	t.Run("creator may modify own document", func(t *testing.T) {
		claims := claimsFor("user-1", gate.RoleClerk, gate.RoleClerk)
		assert.True(t, matrix.CanModify(claims, "user-1"))
	})

	t.Run("non creator is denied", func(t *testing.T) {
		claims := claimsFor("user-1", gate.RoleClerk, gate.RoleClerk)
		assert.False(t, matrix.CanModify(claims, "user-2"))
	})

	t.Run("elevated role may modify any document", func(t *testing.T) {
		claims := claimsFor("user-1", gate.RoleManager, gate.RoleManager)
		assert.True(t, matrix.CanModify(claims, "user-2"))
	})

	t.Run("elevation follows the active role only", func(t *testing.T) {
		// manager granted but clerk active: no elevation
		claims := claimsFor("user-1", gate.RoleClerk, gate.RoleClerk, gate.RoleManager)
		assert.False(t, matrix.CanModify(claims, "user-2"))
	})

	t.Run("missing claims or creator deny", func(t *testing.T) {
		assert.False(t, matrix.CanModify(nil, "user-1"))
		claims := claimsFor("user-1", gate.RoleClerk, gate.RoleClerk)
		assert.False(t, matrix.CanModify(claims, ""))
	})
}
