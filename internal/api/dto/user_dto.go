package dto

import (
	"time"

	"github.com/autoescola/admin-service/internal/domain"
)

// LoginRequest payload for POST /api/auth/login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthResponse standard response for auth endpoints.
type AuthResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// CreateUserRequest payload for POST /api/users.
type CreateUserRequest struct {
	Email       string   `json:"email"`
	Password    string   `json:"password"`
	Name        string   `json:"name"`
	Role        string   `json:"role"`
	Unit        string   `json:"unit"`
	Permissions []string `json:"permissions"`
}

// UpdateUserRequest payload for PUT /api/users/:id. Pointer fields
// distinguish "absent" from "set to zero value".
type UpdateUserRequest struct {
	Name        *string   `json:"name"`
	Role        *string   `json:"role"`
	Active      *bool     `json:"active"`
	Unit        *string   `json:"unit"`
	Permissions *[]string `json:"permissions"`
}

// Patch converts the request into a domain patch.
func (r UpdateUserRequest) Patch() domain.UserPatch {
	patch := domain.UserPatch{
		Name:        r.Name,
		Active:      r.Active,
		Unit:        r.Unit,
		Permissions: r.Permissions,
	}
	if r.Role != nil {
		role := domain.Role(*r.Role)
		patch.Role = &role
	}
	return patch
}

// UserResponse is the external shape of a directory record. No credential
// material ever appears here; timestamps render as RFC 3339.
type UserResponse struct {
	ID          string   `json:"id"`
	Email       string   `json:"email"`
	Name        string   `json:"name"`
	Role        string   `json:"role"`
	Active      bool     `json:"active"`
	Unit        string   `json:"unit,omitempty"`
	Permissions []string `json:"permissions,omitempty"`
	CreatedAt   string   `json:"created_at"`
	UpdatedAt   string   `json:"updated_at"`
}

// NewUserResponse maps a record to its response shape.
func NewUserResponse(user *domain.UserRecord) UserResponse {
	return UserResponse{
		ID:          user.ID,
		Email:       user.Email,
		Name:        user.Name,
		Role:        string(user.Role),
		Active:      user.Active,
		Unit:        user.Unit,
		Permissions: user.Permissions,
		CreatedAt:   user.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:   user.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

// NewUserListResponse maps a list of records.
func NewUserListResponse(users []*domain.UserRecord) []UserResponse {
	out := make([]UserResponse, 0, len(users))
	for _, user := range users {
		out = append(out, NewUserResponse(user))
	}
	return out
}
