package gate_test

import (
	"testing"

	"github.com/goliatone/go-gate"
	"github.com/stretchr/testify/assert"
)

func TestUserEnsureStatus(t *testing.T) {
	user := &gate.User{}
	user.EnsureStatus()
	assert.Equal(t, gate.UserStatusActive, user.Status)

	user = &gate.User{Status: gate.UserStatusSuspended}
	user.EnsureStatus()
	assert.Equal(t, gate.UserStatusSuspended, user.Status)
}

func TestUserPrimaryRole(t *testing.T) {
	user := &gate.User{Roles: []string{gate.RoleReviewer, gate.RoleClerk}}
	assert.Equal(t, gate.RoleReviewer, user.PrimaryRole())

	assert.Empty(t, (&gate.User{}).PrimaryRole())
}
