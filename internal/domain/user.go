package domain

import "time"

// Role controls which operations a user may perform.
type Role string

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"

	// RoleAdminLegacy is the spelling stored by documents seeded before the
	// role vocabulary was consolidated. Treated as equivalent to RoleAdmin.
	RoleAdminLegacy Role = "administrador"
)

// IsAdmin reports whether the role grants administrative access.
func (r Role) IsAdmin() bool {
	return r == RoleAdmin || r == RoleAdminLegacy
}

// Valid reports whether the role belongs to the closed role set.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleUser, RoleAdminLegacy:
		return true
	}
	return false
}

// UserRecord is the directory document describing a user. Its ID equals the
// id of the identity held by the identity provider.
type UserRecord struct {
	ID          string
	Email       string
	Name        string
	Role        Role
	Active      bool
	Unit        string
	Permissions []string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// HasPermission checks for an explicit capability string. Admins implicitly
// hold every permission.
func (u *UserRecord) HasPermission(perm string) bool {
	if u.Role.IsAdmin() {
		return true
	}
	for _, p := range u.Permissions {
		if p == perm {
			return true
		}
	}
	return false
}

// UserPatch carries a partial update. Nil fields are left untouched by the
// directory store.
type UserPatch struct {
	Name        *string
	Role        *Role
	Active      *bool
	Unit        *string
	Permissions *[]string
}

// IsEmpty reports whether no field is set.
func (p UserPatch) IsEmpty() bool {
	return p.Name == nil && p.Role == nil && p.Active == nil && p.Unit == nil && p.Permissions == nil
}
