// AngelaMos | 2026
// dto.go

package user

import (
	"time"
)

type UpdateUserRoleRequest struct {
	Role string `json:"role" validate:"required,oneof=student admin"`
}

type UserResponse struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

// AdminUserResponse adds credential-store state operators need when
// helping a user through a reset. The code hash itself is never exposed.
type AdminUserResponse struct {
	UserResponse
	UpdatedAt           time.Time  `json:"updated_at"`
	PendingReset        bool       `json:"pending_reset"`
	ResetCodeExpiresAt  *time.Time `json:"reset_code_expires_at,omitempty"`
	FailedResetAttempts int        `json:"failed_reset_attempts,omitempty"`
}

type ListUsersParams struct {
	Page     int
	PageSize int
	Search   string
	Role     string
}

func (p *ListUsersParams) Normalize() {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.PageSize < 1 {
		p.PageSize = 20
	}
	if p.PageSize > 100 {
		p.PageSize = 100
	}
}

func (p *ListUsersParams) Offset() int {
	return (p.Page - 1) * p.PageSize
}

func ToUserResponse(u *User) UserResponse {
	return UserResponse{
		ID:        u.ID,
		Email:     u.Email,
		Name:      u.Name,
		Role:      u.Role,
		CreatedAt: u.CreatedAt,
	}
}

func ToAdminUserResponse(u *User) AdminUserResponse {
	resp := AdminUserResponse{
		UserResponse: ToUserResponse(u),
		UpdatedAt:    u.UpdatedAt,
		PendingReset: u.HasPendingReset(),
	}
	if resp.PendingReset {
		resp.ResetCodeExpiresAt = u.ResetCodeExpiresAt
		resp.FailedResetAttempts = u.ResetCodeAttempts
	}
	return resp
}

func ToAdminUserResponseList(users []User) []AdminUserResponse {
	out := make([]AdminUserResponse, 0, len(users))
	for i := range users {
		out = append(out, ToAdminUserResponse(&users[i]))
	}
	return out
}
