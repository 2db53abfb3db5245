package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeRoles(t *testing.T) {
	roles := NormalizeRoles([]UserRole{RoleCaregiver, "superuser", RoleCaregiver, RoleElderly})
	assert.Equal(t, []UserRole{RoleCaregiver, RoleElderly}, roles)
}

func TestEnsureDefaultRole(t *testing.T) {
	assert.Equal(t, []UserRole{RoleElderly}, EnsureDefaultRole(nil))
	assert.Equal(t, []UserRole{RoleCaregiver}, EnsureDefaultRole([]UserRole{RoleCaregiver}))
}

func TestHasAtLeast(t *testing.T) {
	assert.True(t, HasAtLeast([]UserRole{RoleAdmin}, RoleCaregiver))
	assert.True(t, HasAtLeast([]UserRole{RoleCaregiver}, RoleCaregiver))
	assert.False(t, HasAtLeast([]UserRole{RoleElderly}, RoleCaregiver))
	assert.False(t, HasAtLeast(nil, RoleElderly))
}

func TestRecipientTypeFor(t *testing.T) {
	assert.Equal(t, RecipientCaregiver, RecipientTypeFor([]UserRole{RoleElderly, RoleCaregiver}))
	assert.Equal(t, RecipientElderlyUser, RecipientTypeFor([]UserRole{RoleElderly}))
	assert.Equal(t, RecipientElderlyUser, RecipientTypeFor(nil))
}
