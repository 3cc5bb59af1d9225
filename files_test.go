package gate_test

import (
	"io/fs"
	"strings"
	"testing"

	"github.com/goliatone/go-gate"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrations(t *testing.T) {
	sub, err := gate.Migrations()
	require.NoError(t, err)

	entries, err := fs.ReadDir(sub, ".")
	require.NoError(t, err)
	require.NotEmpty(t, entries)

	var names []string
	for _, entry := range entries {
		names = append(names, entry.Name())
		assert.True(t, strings.HasSuffix(entry.Name(), ".sql"), entry.Name())
	}

	assert.Contains(t, names, "20250101000000_create_users.up.sql")
	assert.Contains(t, names, "20250101000001_create_password_reset.up.sql")
	assert.Contains(t, names, "20250101000002_create_auth_events.up.sql")
}
