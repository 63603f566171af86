package domain

import (
	"strings"
	"time"
)

type Role string

const (
	RoleSuperAdmin   Role = "Super Admin"
	RoleAdmin        Role = "Admin"
	RoleSecurity     Role = "Security"
	RoleReceptionist Role = "Receptionist"
)

// Roles is the closed set of roles, most privileged first.
var Roles = []Role{RoleSuperAdmin, RoleAdmin, RoleSecurity, RoleReceptionist}

func (r Role) Valid() bool {
	for _, role := range Roles {
		if r == role {
			return true
		}
	}
	return false
}

// Privileged roles may only be granted by a Super Admin.
func (r Role) Privileged() bool {
	return r == RoleSuperAdmin || r == RoleAdmin
}

// CanGrant reports whether an actor holding r may create or assign target.
func (r Role) CanGrant(target Role) bool {
	switch r {
	case RoleSuperAdmin:
		return target.Valid()
	case RoleAdmin:
		return target == RoleSecurity || target == RoleReceptionist
	}
	return false
}

type Permissions struct {
	CanViewAnalytics  bool `json:"canViewAnalytics"`
	CanManageVisitors bool `json:"canManageVisitors"`
	CanManageAdmins   bool `json:"canManageAdmins"`
	CanExportData     bool `json:"canExportData"`
	CanViewReports    bool `json:"canViewReports"`
}

func DefaultPermissions(role Role) Permissions {
	switch role {
	case RoleSuperAdmin:
		return Permissions{
			CanViewAnalytics:  true,
			CanManageVisitors: true,
			CanManageAdmins:   true,
			CanExportData:     true,
			CanViewReports:    true,
		}
	case RoleAdmin:
		return Permissions{
			CanViewAnalytics:  true,
			CanManageVisitors: true,
			CanExportData:     true,
			CanViewReports:    true,
		}
	case RoleSecurity, RoleReceptionist:
		return Permissions{
			CanManageVisitors: true,
			CanViewReports:    true,
		}
	}
	return Permissions{}
}

const (
	DefaultMaxLoginAttempts = 5
	DefaultLockDuration     = 2 * time.Hour
	MinPasswordLength       = 6
)

type Admin struct {
	ID            int64       `json:"id"`
	Username      string      `json:"username"`
	Email         string      `json:"email"`
	PasswordHash  string      `json:"-"`
	FirstName     string      `json:"firstName"`
	LastName      string      `json:"lastName"`
	Role          Role        `json:"role"`
	Department    string      `json:"department"`
	Permissions   Permissions `json:"permissions"`
	IsActive      bool        `json:"isActive"`
	LoginAttempts int         `json:"-"`
	LockUntil     *time.Time  `json:"-"`
	LastLogin     *time.Time  `json:"lastLogin,omitempty"`
	CreatedAt     time.Time   `json:"createdAt"`
	UpdatedAt     time.Time   `json:"updatedAt"`
}

// IsLocked reports whether a lock is set and still in the future.
func (a *Admin) IsLocked(now time.Time) bool {
	return a.LockUntil != nil && a.LockUntil.After(now)
}

// AdminInfo is the public view returned at login.
type AdminInfo struct {
	ID          int64       `json:"id"`
	Username    string      `json:"username"`
	Email       string      `json:"email"`
	FirstName   string      `json:"firstName"`
	LastName    string      `json:"lastName"`
	Role        Role        `json:"role"`
	Department  string      `json:"department"`
	Permissions Permissions `json:"permissions"`
}

func (a *Admin) ToAdminInfo() *AdminInfo {
	return &AdminInfo{
		ID:          a.ID,
		Username:    a.Username,
		Email:       a.Email,
		FirstName:   a.FirstName,
		LastName:    a.LastName,
		Role:        a.Role,
		Department:  a.Department,
		Permissions: a.Permissions,
	}
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (r *LoginRequest) Normalize() {
	r.Email = normalizeEmail(r.Email)
}

func (r *LoginRequest) Validate() error {
	if r.Email == "" || r.Password == "" {
		return Validationf("email and password are required")
	}
	return nil
}

type LoginResponse struct {
	Token     string     `json:"token"`
	ExpiresIn int64      `json:"expiresIn"`
	Admin     *AdminInfo `json:"admin"`
}

type CreateAdminRequest struct {
	Username    string       `json:"username"`
	Email       string       `json:"email"`
	Password    string       `json:"password"`
	FirstName   string       `json:"firstName"`
	LastName    string       `json:"lastName"`
	Role        Role         `json:"role"`
	Department  string       `json:"department"`
	Permissions *Permissions `json:"permissions,omitempty"`
}

// Normalize trims input and fills role and permission defaults. defaultRole applies when no role was sent.
func (r *CreateAdminRequest) Normalize(defaultRole Role) {
	r.Username = strings.TrimSpace(r.Username)
	r.Email = normalizeEmail(r.Email)
	r.FirstName = strings.TrimSpace(r.FirstName)
	r.LastName = strings.TrimSpace(r.LastName)
	r.Department = strings.TrimSpace(r.Department)
	if r.Role == "" {
		r.Role = defaultRole
	}
	if r.Department == "" {
		r.Department = "Security"
	}
	if r.Permissions == nil {
		p := DefaultPermissions(r.Role)
		r.Permissions = &p
	}
}

func (r *CreateAdminRequest) Validate() error {
	if r.Username == "" {
		return Validationf("username is required")
	}
	if r.Email == "" {
		return Validationf("email is required")
	}
	if !isValidEmail(r.Email) {
		return Validationf("invalid email format")
	}
	if len(r.Password) < MinPasswordLength {
		return Validationf("password must be at least %d characters", MinPasswordLength)
	}
	if r.FirstName == "" || r.LastName == "" {
		return Validationf("firstName and lastName are required")
	}
	if !r.Role.Valid() {
		return Validationf("invalid role")
	}
	return nil
}

type UpdateAdminRequest struct {
	FirstName   *string      `json:"firstName,omitempty"`
	LastName    *string      `json:"lastName,omitempty"`
	Email       *string      `json:"email,omitempty"`
	Department  *string      `json:"department,omitempty"`
	Role        *Role        `json:"role,omitempty"`
	Permissions *Permissions `json:"permissions,omitempty"`
	IsActive    *bool        `json:"isActive,omitempty"`
	Password    *string      `json:"password,omitempty"`
}

func (r *UpdateAdminRequest) Normalize() {
	r.FirstName = trimPatch(r.FirstName)
	r.LastName = trimPatch(r.LastName)
	r.Department = trimPatch(r.Department)
	if r.Email != nil {
		e := normalizeEmail(*r.Email)
		r.Email = &e
	}
}

func (r *UpdateAdminRequest) Validate() error {
	if r.FirstName != nil && *r.FirstName == "" {
		return Validationf("firstName cannot be empty")
	}
	if r.LastName != nil && *r.LastName == "" {
		return Validationf("lastName cannot be empty")
	}
	if r.Email != nil && !isValidEmail(*r.Email) {
		return Validationf("invalid email format")
	}
	if r.Role != nil && !r.Role.Valid() {
		return Validationf("invalid role")
	}
	if r.Password != nil && len(*r.Password) < MinPasswordLength {
		return Validationf("password must be at least %d characters", MinPasswordLength)
	}
	return nil
}

// AdminChanges is the resolved set of column updates handed to the store.
type AdminChanges struct {
	FirstName    *string
	LastName     *string
	Email        *string
	Department   *string
	Role         *Role
	Permissions  *Permissions
	IsActive     *bool
	PasswordHash *string
}

type UpdateProfileRequest struct {
	FirstName  *string `json:"firstName,omitempty"`
	LastName   *string `json:"lastName,omitempty"`
	Email      *string `json:"email,omitempty"`
	Department *string `json:"department,omitempty"`
}

func (r *UpdateProfileRequest) Normalize() {
	r.FirstName = trimPatch(r.FirstName)
	r.LastName = trimPatch(r.LastName)
	r.Department = trimPatch(r.Department)
	if r.Email != nil {
		e := normalizeEmail(*r.Email)
		r.Email = &e
	}
}

func (r *UpdateProfileRequest) Validate() error {
	if r.FirstName != nil && *r.FirstName == "" {
		return Validationf("firstName cannot be empty")
	}
	if r.LastName != nil && *r.LastName == "" {
		return Validationf("lastName cannot be empty")
	}
	if r.Email != nil && !isValidEmail(*r.Email) {
		return Validationf("invalid email format")
	}
	return nil
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

func (r *ChangePasswordRequest) Validate() error {
	if r.CurrentPassword == "" || r.NewPassword == "" {
		return Validationf("current password and new password are required")
	}
	if len(r.NewPassword) < MinPasswordLength {
		return Validationf("new password must be at least %d characters long", MinPasswordLength)
	}
	return nil
}

type RoleCount struct {
	Role  Role  `json:"role"`
	Count int64 `json:"count"`
}

type AdminStats struct {
	ByRole      []RoleCount `json:"byRole"`
	TotalAdmins int64       `json:"totalAdmins"`
	ActiveToday int64       `json:"activeToday"`
}
