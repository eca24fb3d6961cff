package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRole(t *testing.T) {
	r, err := ParseRole("admin")
	require.NoError(t, err)
	assert.Equal(t, RoleAdmin, r)

	r, err = ParseRole("editor")
	require.NoError(t, err)
	assert.Equal(t, RoleEditor, r)

	for _, bad := range []string{"", "guest", "Admin", "root"} {
		_, err := ParseRole(bad)
		assert.Error(t, err, "role %q", bad)
	}
}

func TestRoleIn(t *testing.T) {
	assert.True(t, RoleAdmin.In(RoleAdmin))
	assert.True(t, RoleEditor.In(RoleAdmin, RoleEditor))
	assert.False(t, RoleEditor.In(RoleAdmin))
	assert.False(t, RoleAdmin.In())
}
