// Package authz holds the access-control policy for user directory records.
// Decisions depend only on the requester's current role (as stored in the
// directory, never as embedded in a session token), the requester id, the
// target record id, and the operation kind.
package authz

import (
	"github.com/autoescola/admin-service/internal/domain"
	apperrors "github.com/autoescola/admin-service/pkg/util"
)

// Operation enumerates the gated operation kinds.
type Operation int

const (
	OpListUsers Operation = iota
	OpCreateUser
	OpReadUser
	OpUpdateUser
	OpDeleteUser
)

// Requester is the resolved caller: id plus the role freshly loaded from the
// directory store for this request.
type Requester struct {
	ID   string
	Role domain.Role
}

// Decide returns nil when the operation is allowed and a Forbidden error
// otherwise. targetID is ignored for list and create.
func Decide(req Requester, op Operation, targetID string) error {
	switch op {
	case OpListUsers:
		if !req.Role.IsAdmin() {
			return apperrors.NewForbidden("only administrators may list users")
		}
	case OpCreateUser:
		if !req.Role.IsAdmin() {
			return apperrors.NewForbidden("only administrators may create users")
		}
	case OpReadUser:
		if req.ID != targetID && !req.Role.IsAdmin() {
			return apperrors.NewForbidden("access denied")
		}
	case OpUpdateUser:
		if req.ID != targetID && !req.Role.IsAdmin() {
			return apperrors.NewForbidden("access denied")
		}
	case OpDeleteUser:
		// Self-deletion is forbidden for every role, admins included.
		if req.ID == targetID {
			return apperrors.NewForbidden("you cannot delete your own account")
		}
		if !req.Role.IsAdmin() {
			return apperrors.NewForbidden("only administrators may delete users")
		}
	default:
		return apperrors.NewForbidden("unknown operation")
	}
	return nil
}

// fieldMinRole declares, per updatable field, the minimum role required for
// the field to take effect. Fields mapped to RoleUser are settable by the
// record owner; fields mapped to RoleAdmin take effect only when the
// requester is an administrator.
var fieldMinRole = map[string]domain.Role{
	"name":        domain.RoleUser,
	"role":        domain.RoleAdmin,
	"active":      domain.RoleAdmin,
	"unit":        domain.RoleAdmin,
	"permissions": domain.RoleAdmin,
}

// FilterPatch returns the subset of patch fields the requester may set.
// Gating depends only on the requester's role: Decide has already settled who
// may reach the update, so by this point a non-admin requester is the record
// owner. Disallowed fields are dropped silently rather than rejected: a
// non-admin self-update carrying role or active succeeds but leaves those
// fields unchanged, which keeps self-service name edits possible without
// opening a self-escalation path.
func FilterPatch(req Requester, patch domain.UserPatch) domain.UserPatch {
	out := domain.UserPatch{}
	if allows(req, "name") && patch.Name != nil {
		out.Name = patch.Name
	}
	if allows(req, "role") && patch.Role != nil {
		out.Role = patch.Role
	}
	if allows(req, "active") && patch.Active != nil {
		out.Active = patch.Active
	}
	if allows(req, "unit") && patch.Unit != nil {
		out.Unit = patch.Unit
	}
	if allows(req, "permissions") && patch.Permissions != nil {
		out.Permissions = patch.Permissions
	}
	return out
}

func allows(req Requester, field string) bool {
	min, ok := fieldMinRole[field]
	if !ok {
		return false
	}
	if min == domain.RoleAdmin {
		return req.Role.IsAdmin()
	}
	return true
}
