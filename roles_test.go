package gate_test

import (
	"testing"

	"github.com/goliatone/go-gate"
	"github.com/stretchr/testify/assert"
)

func TestValidRole(t *testing.T) {
	assert.True(t, gate.ValidRole(gate.RoleClerk))
	assert.True(t, gate.ValidRole(gate.RoleReviewer))
	assert.True(t, gate.ValidRole(gate.RoleManager))
	assert.True(t, gate.ValidRole(gate.RoleAuditor))
	assert.False(t, gate.ValidRole("admin"))
	assert.False(t, gate.ValidRole(""))
}

func TestValidRoles(t *testing.T) {
	assert.True(t, gate.ValidRoles([]string{gate.RoleClerk, gate.RoleAuditor}))
	assert.False(t, gate.ValidRoles([]string{gate.RoleClerk, "admin"}))
	assert.False(t, gate.ValidRoles(nil))
}

func TestDefaultPermissionRulesCoverKnownRoles(t *testing.T) {
	matrix := gate.NewAuthorizationMatrix(gate.DefaultPermissionRules())

	for _, role := range []string{gate.RoleClerk, gate.RoleReviewer, gate.RoleManager, gate.RoleAuditor} {
		assert.NotEmpty(t, matrix.AllowedStatuses(role), "role %s should have at least one rule", role)
	}

	// auditor never writes
	for _, status := range matrix.AllowedStatuses(gate.RoleAuditor) {
		assert.False(t, matrix.IsAllowed(gate.RoleAuditor, status, "PUT"))
		assert.False(t, matrix.IsAllowed(gate.RoleAuditor, status, "DELETE"))
	}
}
