package domain

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDefaultPermissions(t *testing.T) {
	all := Permissions{true, true, true, true, true}

	assert.Equal(t, all, DefaultPermissions(RoleSuperAdmin))
	assert.False(t, DefaultPermissions(RoleAdmin).CanManageAdmins)
	assert.True(t, DefaultPermissions(RoleAdmin).CanExportData)

	for _, r := range []Role{RoleSecurity, RoleReceptionist} {
		assert.Equal(t, Permissions{CanManageVisitors: true, CanViewReports: true}, DefaultPermissions(r))
	}
	assert.Equal(t, Permissions{}, DefaultPermissions("Janitor"))
}

func TestRoleCanGrant(t *testing.T) {
	tests := []struct {
		actor  Role
		target Role
		want   bool
	}{
		{RoleSuperAdmin, RoleSuperAdmin, true},
		{RoleSuperAdmin, RoleAdmin, true},
		{RoleSuperAdmin, RoleSecurity, true},
		{RoleAdmin, RoleSecurity, true},
		{RoleAdmin, RoleReceptionist, true},
		{RoleAdmin, RoleAdmin, false},
		{RoleAdmin, RoleSuperAdmin, false},
		{RoleSecurity, RoleReceptionist, false},
		{RoleSuperAdmin, "Janitor", false},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("%s grants %s", tt.actor, tt.target), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.actor.CanGrant(tt.target))
		})
	}
}

func TestAdminIsLocked(t *testing.T) {
	now := time.Date(2024, 3, 5, 12, 0, 0, 0, time.UTC)
	a := &Admin{}
	assert.False(t, a.IsLocked(now))

	until := now.Add(time.Minute)
	a.LockUntil = &until
	assert.True(t, a.IsLocked(now))
	assert.False(t, a.IsLocked(now.Add(time.Minute)))
}

func TestCreateAdminRequestNormalize(t *testing.T) {
	req := &CreateAdminRequest{
		Username: " guard1 ", Email: "Guard@Example.com", Password: "secret1",
		FirstName: "Sam", LastName: "Guard",
	}
	req.Normalize(RoleSecurity)

	assert.NoError(t, req.Validate())
	assert.Equal(t, "guard1", req.Username)
	assert.Equal(t, "guard@example.com", req.Email)
	assert.Equal(t, RoleSecurity, req.Role)
	assert.Equal(t, "Security", req.Department)
	assert.Equal(t, DefaultPermissions(RoleSecurity), *req.Permissions)
}

func TestCreateAdminRequestKeepsExplicitPermissions(t *testing.T) {
	perms := Permissions{CanViewAnalytics: true}
	req := &CreateAdminRequest{Role: RoleAdmin, Permissions: &perms}
	req.Normalize(RoleSecurity)

	assert.Equal(t, RoleAdmin, req.Role)
	assert.Equal(t, perms, *req.Permissions)
}

func TestCreateAdminRequestValidate(t *testing.T) {
	req := &CreateAdminRequest{
		Username: "a", Email: "a@example.com", Password: "12345",
		FirstName: "A", LastName: "B", Role: RoleAdmin,
	}
	assert.ErrorIs(t, req.Validate(), ErrValidation)

	req.Password = "123456"
	assert.NoError(t, req.Validate())

	req.Role = "Owner"
	assert.ErrorIs(t, req.Validate(), ErrValidation)
}

func TestErrorMessageUnwrapsKind(t *testing.T) {
	err := fmt.Errorf("checkout visitor: %w", InvalidStatef("Visitor already checked out"))

	assert.True(t, errors.Is(err, ErrInvalidState))
	assert.False(t, errors.Is(err, ErrNotFound))
	assert.Equal(t, "Visitor already checked out", Message(err))
	assert.Equal(t, "boom", Message(errors.New("boom")))
}
