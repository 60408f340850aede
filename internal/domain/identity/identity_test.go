package identity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BruksfildServices01/calendar-booking/internal/httperr"
)

func TestProfile_ValidateCollectsEverything(t *testing.T) {
	err := Profile{Name: "x1", Email: "nope", Password: "weak", Role: "root"}.Validate()

	ve, ok := httperr.AsValidation(err)
	require.True(t, ok)
	assert.Equal(t, []string{
		"Invalid name format",
		"Invalid email format",
		"Invalid password format",
		"Invalid role",
	}, ve.Messages)
}

func TestProfile_ValidateOK(t *testing.T) {
	err := Profile{Name: "Alice Smith", Email: "alice@example.com", Password: "Passw0rd!", Role: "admin"}.Validate()
	assert.NoError(t, err)
}

func TestIdentity_HasRole(t *testing.T) {
	id := Identity{Role: RoleEmployee}
	assert.True(t, id.HasRole(RoleAdmin, RoleEmployee))
	assert.False(t, id.HasRole(RoleAdmin))
	assert.False(t, id.HasRole())
}
